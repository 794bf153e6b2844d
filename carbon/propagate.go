package carbon

import (
	"fmt"

	"github.com/forestwatch/fcs/raster"
)

// Propagate is one step of the cover recurrence: the previous year's
// forest mask survives wherever this year's loss band is not 1. A pixel
// with no entry in the loss band coalesces to 0, meaning kept; this is the
// second of the pipeline's two coalesce points.
func Propagate(prev, loss *raster.Raster, year int) *raster.Raster {
	return prev.UpdateMask(loss.Unmask(0).Neq(1)).Rename(BandName("fc", year))
}

// PropagateCover folds Propagate over the year range, carrying the prior
// year's mask as the accumulator. The result holds fc for every cover
// year, baseline included. fc[y] is defined exactly at pixels that were
// baseline forest and saw no loss at any year <= y, so the mask only ever
// shrinks; a lost pixel never re-enters.
func PropagateCover(baseline *raster.Raster, losses map[int]*raster.Raster, p *Params) (map[int]*raster.Raster, error) {
	covers := make(map[int]*raster.Raster, p.EndYear-p.StartYear+1)
	covers[p.StartYear] = baseline

	prev := baseline
	for _, year := range p.LossYears() {
		loss, ok := losses[year]
		if !ok {
			return nil, fmt.Errorf("loss band for year %d missing from recurrence input", year)
		}
		prev = Propagate(prev, loss, year)
		covers[year] = prev
	}
	return covers, nil
}
