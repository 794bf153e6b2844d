package carbon

import (
	"fmt"

	"github.com/forestwatch/fcs/raster"
)

// CarbonStock masks standing total carbon to each year's forest mask:
// cb<y> measures tons of carbon per hectare still on the ground at year y.
func CarbonStock(totalCarbon *raster.Raster, covers map[int]*raster.Raster, p *Params) (map[int]*raster.Raster, error) {
	stocks := make(map[int]*raster.Raster, len(covers))
	for _, year := range p.CoverYears() {
		cover, ok := covers[year]
		if !ok {
			return nil, fmt.Errorf("cover band for year %d missing from stock input", year)
		}
		stocks[year] = totalCarbon.UpdateMask(cover).Rename(BandName("cb", year))
	}
	return stocks, nil
}

// Emissions masks total CO2 to each year's loss mask: ce<y> is the
// one-time emission attributed to pixels lost exactly in year y, not a
// cumulative figure.
func Emissions(totalCO2 *raster.Raster, losses map[int]*raster.Raster, p *Params) (map[int]*raster.Raster, error) {
	emissions := make(map[int]*raster.Raster, len(losses))
	for _, year := range p.LossYears() {
		loss, ok := losses[year]
		if !ok {
			return nil, fmt.Errorf("loss band for year %d missing from emission input", year)
		}
		emissions[year] = totalCO2.UpdateMask(loss).Rename(BandName("ce", year))
	}
	return emissions, nil
}
