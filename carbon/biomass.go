package carbon

import (
	"github.com/forestwatch/fcs/raster"
)

// Fixed allometric equations, taken as given. Below-ground biomass follows
// the Mokany root-to-shoot power law; carbon is half of total biomass; the
// CO2 factor is the molar mass ratio 44/12.
const (
	bgbExpr    = "0.489 * (agb ** 0.89)"
	carbonExpr = "(agb + bgb) * 0.5"
	co2Expr    = "carbon * (44.0 / 12.0)"
)

// Biomass bundles the rasters derived from the above-ground biomass layer,
// in tons per hectare.
type Biomass struct {
	AGB         *raster.Raster
	BGB         *raster.Raster
	TotalCarbon *raster.Raster
	TotalCO2    *raster.Raster
}

// DeriveBiomass computes below-ground biomass, total carbon and total CO2
// equivalent from above-ground biomass. Undefined pixels propagate; a
// negative AGB raised to the fractional power evaluates non-finite and
// comes out undefined rather than failing the run.
func DeriveBiomass(agb *raster.Raster) (*Biomass, error) {
	bgb, err := raster.Expression("bgb", bgbExpr, map[string]*raster.Raster{"agb": agb})
	if err != nil {
		return nil, err
	}
	totalCarbon, err := raster.Expression("carbon", carbonExpr, map[string]*raster.Raster{"agb": agb, "bgb": bgb})
	if err != nil {
		return nil, err
	}
	totalCO2, err := raster.Expression("co2", co2Expr, map[string]*raster.Raster{"carbon": totalCarbon})
	if err != nil {
		return nil, err
	}
	return &Biomass{AGB: agb, BGB: bgb, TotalCarbon: totalCarbon, TotalCO2: totalCO2}, nil
}
