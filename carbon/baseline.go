package carbon

import (
	"github.com/forestwatch/fcs/raster"
)

// BaselineMask derives the start-year forest mask fc<StartYear>: a pixel
// is forest (value 1) iff its treecover2000 is at or above the threshold
// and no loss is recorded at or before the start year. Pixels outside the
// mask are undefined, not 0.
//
// The loss condition wants lossyear >= StartYear-Epoch+1, i.e. loss still
// in the future. A loss-year of 0 means no recorded loss, and the
// comparison would drop exactly those pixels, so they are canonicalized to
// undefined first (SelfMask) and then coalesced to "kept" (Unmask(1)).
// This is one of the two coalesce points in the pipeline and it is
// load-bearing: without it every never-lost pixel would fall out of the
// baseline.
func BaselineMask(cover, lossYear *raster.Raster, p *Params) *raster.Raster {
	notLostYet := lossYear.SelfMask().Gte(float64(p.StartYear - Epoch + 1)).Unmask(1)
	mask := cover.Gte(p.Threshold).And(notLostYet).SelfMask()
	return mask.Rename(BandName("fc", p.StartYear))
}
