package carbon

import (
	"github.com/forestwatch/fcs/raster"
)

// AnnualLoss derives fl<year>: the baseline-forest pixels whose recorded
// loss year is exactly year. Masking by the baseline restricts loss
// accounting to depletion of the original forest stock; loss recorded
// outside the baseline mask is not attributed.
func AnnualLoss(baseline, lossYear *raster.Raster, year int) *raster.Raster {
	return baseline.UpdateMask(lossYear.Eq(float64(year - Epoch))).Rename(BandName("fl", year))
}

// LossSeries derives the loss band for every year after the start year.
// The loss-year raster assigns at most one year per pixel, so the bands
// are mutually exclusive by construction.
func LossSeries(baseline, lossYear *raster.Raster, p *Params) map[int]*raster.Raster {
	losses := make(map[int]*raster.Raster, p.EndYear-p.StartYear)
	for _, year := range p.LossYears() {
		losses[year] = AnnualLoss(baseline, lossYear, year)
	}
	return losses
}
