package carbon

import (
	"github.com/forestwatch/fcs/raster"
	"github.com/forestwatch/fcs/regions"
)

// LayerStore resolves source raster layers by name. The catalog package
// provides the production implementation; tests feed planes directly.
type LayerStore interface {
	Layer(name string) (*raster.Raster, error)
}

// BuildAccountingStack runs the raster side of the pipeline: biomass
// derivation, baseline mask, annual losses, the cover recurrence, the two
// estimators and the hectare-weighted assembly. The returned stack is
// lazy; nothing is evaluated until a consumer reads a band.
func BuildAccountingStack(store LayerStore, p *Params) (*raster.Stack, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	cover, err := store.Layer(p.coverLayer())
	if err != nil {
		return nil, err
	}
	lossYear, err := store.Layer(p.lossLayer())
	if err != nil {
		return nil, err
	}
	agb, err := store.Layer(p.agbLayer())
	if err != nil {
		return nil, err
	}

	biomass, err := DeriveBiomass(agb)
	if err != nil {
		return nil, err
	}

	baseline := BaselineMask(cover, lossYear, p)
	losses := LossSeries(baseline, lossYear, p)

	covers, err := PropagateCover(baseline, losses, p)
	if err != nil {
		return nil, err
	}
	stocks, err := CarbonStock(biomass.TotalCarbon, covers, p)
	if err != nil {
		return nil, err
	}
	emissions, err := Emissions(biomass.TotalCO2, losses, p)
	if err != nil {
		return nil, err
	}

	return AssembleStack(covers, losses, stocks, emissions, p)
}

// ComputeForestCarbonStats is the core entry point: one hectare-weighted
// stack shared across regions, one StatsRow per region. Regions are
// independent; a geometry failure marks its own row and the batch carries
// on.
func ComputeForestCarbonStats(store LayerStore, regs []*regions.Region, p *Params) ([]*StatsRow, error) {
	stack, err := BuildAccountingStack(store, p)
	if err != nil {
		return nil, err
	}

	rows := make([]*StatsRow, len(regs))
	for i, region := range regs {
		rows[i] = ZonalSum(stack, region)
	}
	return rows, nil
}
