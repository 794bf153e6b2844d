package statservice

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/forestwatch/fcs/carbon"
	"github.com/forestwatch/fcs/raster"
	geo "github.com/nci/geometry"
)

type layerMap map[string]*raster.Raster

func (m layerMap) Layer(name string) (*raster.Raster, error) {
	layer, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("layer %s not found", name)
	}
	return layer, nil
}

func testStore(t *testing.T) (layerMap, *raster.Grid) {
	grid := &raster.Grid{OriginX: 0, OriginY: 0.001, ResX: 0.00025, ResY: 0.00025, Width: 2, Height: 2}
	layer := func(name string, data []float64) *raster.Raster {
		valid := make([]bool, len(data))
		for i := range valid {
			valid[i] = true
		}
		r, err := raster.FromPlane(grid, name, data, valid)
		if err != nil {
			t.Fatalf("failed to build layer %s: %v", name, err)
		}
		return r
	}
	store := layerMap{
		"treecover2000": layer("treecover2000", []float64{50, 50, 10, 10}),
		"lossyear":      layer("lossyear", []float64{0, 1, 0, 0}),
		"agb":           layer("agb", []float64{100, 100, 100, 100}),
	}
	return store, grid
}

func featureJSON(t *testing.T, geom geo.Geometry) string {
	feat, err := json.Marshal(&geo.Feature{Type: "Feature", Geometry: geom})
	if err != nil {
		t.Fatalf("failed to marshal feature: %v", err)
	}
	return string(feat)
}

func wholeGridPolygon() *geo.Polygon {
	return &geo.Polygon{
		Type: "Polygon",
		Coordinates: [][][]float64{{
			{-0.0001, -0.0001},
			{0.0006, -0.0001},
			{0.0006, 0.0011},
			{-0.0001, 0.0011},
			{-0.0001, -0.0001},
		}},
	}
}

func TestAggregate(t *testing.T) {
	store, grid := testStore(t)
	agg := NewAggregator(store)

	request := &RegionRequest{
		Code:      "AAA",
		Name:      "Testland",
		Geometry:  featureJSON(t, wholeGridPolygon()),
		StartYear: 2000,
		EndYear:   2002,
		Threshold: 30,
	}

	result := agg.Aggregate(request)
	if result.Error != "OK" {
		t.Fatalf("aggregate failed: %v", result.Error)
	}
	if result.Code != "AAA" || result.Name != "Testland" {
		t.Errorf("identity test failed, actual: %v %v", result.Code, result.Name)
	}
	if result.Ha <= 0 {
		t.Errorf("area test failed. Expecting positive ha, actual: %v", result.Ha)
	}

	p := &carbon.Params{StartYear: 2000, EndYear: 2002, Threshold: 30}
	names := p.BandNames()
	if len(result.Sums) != len(names) {
		t.Fatalf("band count test failed. Expecting %v, actual: %v", len(names), len(result.Sums))
	}
	for i, name := range names {
		if result.Sums[i].Band != name {
			t.Errorf("band order test failed. Expecting %v, actual: %v", name, result.Sums[i].Band)
		}
	}

	// two baseline pixels in row 0 of the grid
	areaPlane, err := raster.PixelArea(grid).Plane()
	if err != nil {
		t.Fatalf("pixel area failed: %v", err)
	}
	expectedHa := (areaPlane.Data[0] + areaPlane.Data[1]) / 10000.0
	if math.Abs(result.Sums[0].Sum-expectedHa) > 1e-9 {
		t.Errorf("fc2000 sum test failed. Expecting %v, actual: %v", expectedHa, result.Sums[0].Sum)
	}

	row := Row(result)
	if len(row.Error) > 0 {
		t.Fatalf("row conversion failed: %v", row.Error)
	}
	if len(row.Sums) != len(names) || math.Abs(row.Sums[0]-expectedHa) > 1e-9 {
		t.Errorf("row sums test failed, actual: %v", row.Sums)
	}
}

func TestAggregateErrors(t *testing.T) {
	store, _ := testStore(t)
	agg := NewAggregator(store)

	badGeom := agg.Aggregate(&RegionRequest{Code: "BAD", Geometry: "not json", StartYear: 2000, EndYear: 2001, Threshold: 30})
	if badGeom.Error == "OK" || len(badGeom.Error) == 0 {
		t.Errorf("bad geometry test failed. Expecting error, actual: %v", badGeom.Error)
	}

	point := agg.Aggregate(&RegionRequest{
		Code:      "PNT",
		Geometry:  featureJSON(t, &geo.Point{Type: "Point", Coordinates: []float64{0, 0}}),
		StartYear: 2000,
		EndYear:   2001,
		Threshold: 30,
	})
	if point.Error == "OK" {
		t.Errorf("point geometry test failed. Expecting error, actual: %v", point.Error)
	}

	badYears := agg.Aggregate(&RegionRequest{
		Code:      "YRS",
		Geometry:  featureJSON(t, wholeGridPolygon()),
		StartYear: 2005,
		EndYear:   2001,
		Threshold: 30,
	})
	if badYears.Error == "OK" {
		t.Errorf("bad years test failed. Expecting error, actual: %v", badYears.Error)
	}

	badRow := Row(badYears)
	if len(badRow.Error) == 0 || badRow.Sums != nil {
		t.Errorf("failed row conversion test failed, actual: %+v", badRow)
	}
}

func TestStackCache(t *testing.T) {
	store, _ := testStore(t)
	agg := NewAggregator(store)

	p := &carbon.Params{StartYear: 2000, EndYear: 2002, Threshold: 30}
	first, err := agg.stack(p)
	if err != nil {
		t.Fatalf("stack build failed: %v", err)
	}
	second, err := agg.stack(p)
	if err != nil {
		t.Fatalf("stack rebuild failed: %v", err)
	}
	if first != second {
		t.Errorf("stack cache test failed. Expecting same stack for same params")
	}

	other, err := agg.stack(&carbon.Params{StartYear: 2000, EndYear: 2001, Threshold: 30})
	if err != nil {
		t.Fatalf("stack build failed: %v", err)
	}
	if other == first {
		t.Errorf("stack cache test failed. Expecting distinct stacks for distinct params")
	}
}
