package carbon

import (
	"fmt"

	"github.com/forestwatch/fcs/raster"
)

// AssembleStack concatenates the yearly bands in fc, fl, cb, ce order and
// converts every band to a per-pixel hectare quantity by weighting with
// pixel area / 10000. The weighting applies uniformly: a presence
// indicator of 1 becomes hectares of forest (or loss) in that pixel, a
// tons-per-hectare density becomes tons in that pixel.
func AssembleStack(covers, losses, stocks, emissions map[int]*raster.Raster, p *Params) (*raster.Stack, error) {
	baseline, ok := covers[p.StartYear]
	if !ok {
		return nil, fmt.Errorf("cover band for year %d missing from stack input", p.StartYear)
	}
	grid := baseline.Grid()
	areaHa := raster.PixelArea(grid).Scale(1.0 / 10000.0)

	stack := raster.NewStack(grid)
	addYears := func(bands map[int]*raster.Raster, years []int, kind string) error {
		for _, year := range years {
			band, ok := bands[year]
			if !ok {
				return fmt.Errorf("%s band for year %d missing from stack input", kind, year)
			}
			var err error
			stack, err = stack.Add(band.Multiply(areaHa))
			if err != nil {
				return err
			}
		}
		return nil
	}

	if err := addYears(covers, p.CoverYears(), "cover"); err != nil {
		return nil, err
	}
	if err := addYears(losses, p.LossYears(), "loss"); err != nil {
		return nil, err
	}
	if err := addYears(stocks, p.CoverYears(), "stock"); err != nil {
		return nil, err
	}
	if err := addYears(emissions, p.LossYears(), "emission"); err != nil {
		return nil, err
	}
	return stack, nil
}
