package statservice

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/forestwatch/fcs/carbon"
	"github.com/forestwatch/fcs/raster"
	"github.com/forestwatch/fcs/regions"
	geo "github.com/nci/geometry"
)

// Aggregator turns RegionRequests into RegionResults against one layer
// store. Stacks are cached per parameter set, so the regions of one
// Execute fan-out share a single raster evaluation.
type Aggregator struct {
	store carbon.LayerStore

	mu     sync.Mutex
	stacks map[carbon.Params]*raster.Stack
}

func NewAggregator(store carbon.LayerStore) *Aggregator {
	return &Aggregator{
		store:  store,
		stacks: make(map[carbon.Params]*raster.Stack),
	}
}

// RequestParams maps the wire fields onto accounting parameters. Empty
// layer names fall back to the catalog defaults.
func RequestParams(in *RegionRequest) *carbon.Params {
	return &carbon.Params{
		StartYear:  int(in.StartYear),
		EndYear:    int(in.EndYear),
		Threshold:  in.Threshold,
		CoverLayer: in.CoverLayer,
		LossLayer:  in.LossLayer,
		AGBLayer:   in.AgbLayer,
	}
}

func (a *Aggregator) stack(p *carbon.Params) (*raster.Stack, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if stack, ok := a.stacks[*p]; ok {
		return stack, nil
	}
	stack, err := carbon.BuildAccountingStack(a.store, p)
	if err != nil {
		return nil, err
	}
	a.stacks[*p] = stack
	return stack, nil
}

// Aggregate computes one region's accounting row. Parameter and geometry
// problems come back in the result's Error field; "OK" marks success.
func (a *Aggregator) Aggregate(in *RegionRequest) *RegionResult {
	result := &RegionResult{Code: in.Code, Name: in.Name}

	var feat geo.Feature
	err := json.Unmarshal([]byte(in.Geometry), &feat)
	if err != nil {
		result.Error = fmt.Sprintf("error parsing geometry for region %s: %v", in.Code, err)
		return result
	}

	stack, err := a.stack(RequestParams(in))
	if err != nil {
		result.Error = err.Error()
		return result
	}

	region := regions.NewRegion(in.Code, in.Name, feat.Geometry)
	row := carbon.ZonalSum(stack, region)

	result.Ha = row.Ha
	if len(row.Error) > 0 {
		result.Error = row.Error
		return result
	}

	names := stack.Names()
	result.Sums = make([]*BandSum, len(names))
	for i, name := range names {
		result.Sums[i] = &BandSum{Band: name, Sum: row.Sums[i]}
	}
	result.Error = "OK"
	return result
}

// Row converts a wire result back into a stats row. A non-OK Error is
// carried over verbatim so the merger can mark the region failed.
func Row(result *RegionResult) *carbon.StatsRow {
	row := &carbon.StatsRow{Code: result.Code, Name: result.Name, Ha: result.Ha}
	if result.Error != "OK" {
		row.Error = result.Error
		return row
	}
	row.Sums = make([]float64, len(result.Sums))
	for i, bandSum := range result.Sums {
		row.Sums[i] = bandSum.Sum
	}
	return row
}
