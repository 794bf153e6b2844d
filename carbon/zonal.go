package carbon

import (
	"github.com/forestwatch/fcs/raster"
	"github.com/forestwatch/fcs/regions"
)

// StatsRow is one output record per region: identifying attributes, the
// region area in hectares, then the spatial sum of every stack band in
// band order. Error marks a per-region failure; the rest of the batch is
// unaffected.
type StatsRow struct {
	Code  string
	Name  string
	Ha    float64
	Sums  []float64
	Error string
}

// ZonalSum sums every band of the hectare-weighted stack inside one
// region, sampling cell centers on the stack's native grid. Undefined
// pixels contribute nothing; a region with a degenerate geometry yields a
// row marked failed rather than an error.
func ZonalSum(stack *raster.Stack, region *regions.Region) *StatsRow {
	row := &StatsRow{Code: region.Code, Name: region.Name, Ha: region.Ha}
	if region.Err != nil {
		row.Error = region.Err.Error()
		return row
	}

	mask, err := regions.RasterizeMask(region.Geometry, stack.Grid())
	if err != nil {
		geomErr := &regions.GeometryError{Region: region.Code, Reason: err.Error()}
		row.Error = geomErr.Error()
		return row
	}

	names := stack.Names()
	row.Sums = make([]float64, len(names))
	for ib, name := range names {
		band, bandErr := stack.Band(name)
		if bandErr != nil {
			// never expected for names coming from the stack itself
			row.Error = bandErr.Error()
			return row
		}
		plane, planeErr := band.Plane()
		if planeErr != nil {
			row.Error = planeErr.Error()
			return row
		}

		sum := 0.0
		for i := range mask {
			if mask[i] && plane.Valid[i] {
				sum += plane.Data[i]
			}
		}
		row.Sums[ib] = sum
	}
	return row
}
