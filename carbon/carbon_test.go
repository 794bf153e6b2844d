package carbon

import (
	"fmt"
	"math"
	"testing"

	"github.com/forestwatch/fcs/raster"
)

func testGrid(width, height int) *raster.Grid {
	return &raster.Grid{OriginX: 0, OriginY: 0.001, ResX: 0.00025, ResY: 0.00025, Width: width, Height: height}
}

type layerMap map[string]*raster.Raster

func (m layerMap) Layer(name string) (*raster.Raster, error) {
	layer, found := m[name]
	if !found {
		return nil, fmt.Errorf("layer %s not found", name)
	}
	return layer, nil
}

func mustLayer(t *testing.T, grid *raster.Grid, name string, data []float64) *raster.Raster {
	layer, err := raster.FromPlane(grid, name, data, nil)
	if err != nil {
		t.Fatalf("layer %s construction failed, %v", name, err)
	}
	return layer
}

func testStore(t *testing.T, grid *raster.Grid, cover, loss, agb []float64) layerMap {
	return layerMap{
		DefaultCoverLayer: mustLayer(t, grid, DefaultCoverLayer, cover),
		DefaultLossLayer:  mustLayer(t, grid, DefaultLossLayer, loss),
		DefaultAGBLayer:   mustLayer(t, grid, DefaultAGBLayer, agb),
	}
}

func bandPlane(t *testing.T, stack *raster.Stack, name string) *raster.Plane {
	band, err := stack.Band(name)
	if err != nil {
		t.Fatalf("band %s lookup failed, %v", name, err)
	}
	plane, err := band.Plane()
	if err != nil {
		t.Fatalf("band %s evaluation failed, %v", name, err)
	}
	return plane
}

func assertValidity(t *testing.T, plane *raster.Plane, want []bool, band string) {
	for i := range want {
		if plane.Valid[i] != want[i] {
			t.Errorf("band %s pixel %d, expecting defined=%v, actual %v", band, i, want[i], plane.Valid[i])
		}
	}
}

func assertNear(t *testing.T, got, want float64, label string) {
	tol := math.Abs(want) * 1e-4
	if tol < 1e-6 {
		tol = 1e-6
	}
	if math.Abs(got-want) > tol {
		t.Errorf("%s, expecting about %v, actual %v", label, want, got)
	}
}

func TestAccountingStack(t *testing.T) {
	grid := testGrid(2, 2)
	store := testStore(t, grid,
		[]float64{50, 50, 10, 10},
		[]float64{0, 1, 0, 0},
		[]float64{100, 100, 100, 100},
	)
	p := &Params{StartYear: 2000, EndYear: 2002, Threshold: 30}

	stack, err := BuildAccountingStack(store, p)
	if err != nil {
		t.Fatalf("stack construction failed, %v", err)
	}

	names := stack.Names()
	wantNames := p.BandNames()
	if len(names) != len(wantNames) {
		t.Fatalf("band count, expecting %d, actual %d", len(wantNames), len(names))
	}
	for i := range names {
		if names[i] != wantNames[i] {
			t.Errorf("band %d, expecting %v, actual %v", i, wantNames[i], names[i])
		}
	}
	if names[0] != "fc2000" || names[len(names)-1] != "ce2002" {
		t.Errorf("band order, expecting fc2000 first and ce2002 last, actual %v and %v", names[0], names[len(names)-1])
	}

	// pixel 1 is lost in 2001: it counts in the 2000 baseline and in no
	// later cover year
	assertValidity(t, bandPlane(t, stack, "fc2000"), []bool{true, true, false, false}, "fc2000")
	assertValidity(t, bandPlane(t, stack, "fc2001"), []bool{true, false, false, false}, "fc2001")
	assertValidity(t, bandPlane(t, stack, "fl2001"), []bool{false, true, false, false}, "fl2001")
	assertValidity(t, bandPlane(t, stack, "fl2002"), []bool{false, false, false, false}, "fl2002")

	// a year without loss carries the cover mask over unchanged
	fc2001 := bandPlane(t, stack, "fc2001")
	fc2002 := bandPlane(t, stack, "fc2002")
	for i := range fc2001.Data {
		if fc2001.Valid[i] != fc2002.Valid[i] || fc2001.Data[i] != fc2002.Data[i] {
			t.Errorf("fc2002 pixel %d, expecting fc2001 carried over, actual %v defined=%v", i, fc2002.Data[i], fc2002.Valid[i])
		}
	}

	// the estimators inherit their year's mask
	assertValidity(t, bandPlane(t, stack, "cb2000"), []bool{true, true, false, false}, "cb2000")
	assertValidity(t, bandPlane(t, stack, "cb2002"), []bool{true, false, false, false}, "cb2002")
	assertValidity(t, bandPlane(t, stack, "ce2001"), []bool{false, true, false, false}, "ce2001")
	assertValidity(t, bandPlane(t, stack, "ce2002"), []bool{false, false, false, false}, "ce2002")
}

func TestThresholdBoundary(t *testing.T) {
	grid := testGrid(2, 2)
	store := testStore(t, grid,
		[]float64{30, 29.9, 30.1, 0},
		[]float64{0, 0, 0, 0},
		[]float64{100, 100, 100, 100},
	)
	p := &Params{StartYear: 2000, EndYear: 2001, Threshold: 30}

	stack, err := BuildAccountingStack(store, p)
	if err != nil {
		t.Fatalf("stack construction failed, %v", err)
	}

	// the cover comparison is inclusive: exactly 30 qualifies
	assertValidity(t, bandPlane(t, stack, "fc2000"), []bool{true, false, true, false}, "fc2000")
}

func TestNoLoss(t *testing.T) {
	grid := testGrid(2, 2)
	store := testStore(t, grid,
		[]float64{80, 45, 10, 60},
		[]float64{0, 0, 0, 0},
		[]float64{120, 80, 30, 200},
	)
	p := &Params{StartYear: 2001, EndYear: 2003, Threshold: 30}

	stack, err := BuildAccountingStack(store, p)
	if err != nil {
		t.Fatalf("stack construction failed, %v", err)
	}

	want := []bool{true, true, false, true}
	empty := []bool{false, false, false, false}
	for _, year := range p.CoverYears() {
		name := BandName("fc", year)
		assertValidity(t, bandPlane(t, stack, name), want, name)
	}
	for _, year := range p.LossYears() {
		flName := BandName("fl", year)
		ceName := BandName("ce", year)
		assertValidity(t, bandPlane(t, stack, flName), empty, flName)
		assertValidity(t, bandPlane(t, stack, ceName), empty, ceName)
	}
}

func TestBiomassDerivation(t *testing.T) {
	grid := testGrid(2, 2)
	agb, err := raster.FromPlane(grid, "agb", []float64{100, 250, 0, 0}, []bool{true, true, true, false})
	if err != nil {
		t.Fatalf("agb construction failed, %v", err)
	}

	biomass, err := DeriveBiomass(agb)
	if err != nil {
		t.Fatalf("biomass derivation failed, %v", err)
	}
	bgb, err := biomass.BGB.Plane()
	if err != nil {
		t.Fatalf("bgb evaluation failed, %v", err)
	}
	totalCarbon, err := biomass.TotalCarbon.Plane()
	if err != nil {
		t.Fatalf("carbon evaluation failed, %v", err)
	}
	totalCO2, err := biomass.TotalCO2.Plane()
	if err != nil {
		t.Fatalf("co2 evaluation failed, %v", err)
	}

	for i, agbVal := range []float64{100, 250, 0} {
		wantBGB := 0.489 * math.Pow(agbVal, 0.89)
		wantCarbon := (agbVal + wantBGB) * 0.5
		wantCO2 := wantCarbon * 44.0 / 12.0
		assertNear(t, bgb.Data[i], wantBGB, fmt.Sprintf("bgb pixel %d", i))
		assertNear(t, totalCarbon.Data[i], wantCarbon, fmt.Sprintf("carbon pixel %d", i))
		assertNear(t, totalCO2.Data[i], wantCO2, fmt.Sprintf("co2 pixel %d", i))
	}

	// undefined input stays undefined through the whole chain
	if bgb.Valid[3] || totalCarbon.Valid[3] || totalCO2.Valid[3] {
		t.Errorf("undefined agb pixel, expecting undefined outputs, actual defined")
	}
}

func TestParamsValidation(t *testing.T) {
	bad := []*Params{
		{StartYear: 1999, EndYear: 2005, Threshold: 30},
		{StartYear: 2005, EndYear: 2003, Threshold: 30},
		{StartYear: 2000, EndYear: 2300, Threshold: 30},
		{StartYear: 2000, EndYear: 2005, Threshold: -1},
		{StartYear: 2000, EndYear: 2005, Threshold: 101},
	}
	for i, p := range bad {
		err := p.Validate()
		if err == nil {
			t.Fatalf("params case %d, expecting error, actual nil", i)
		}
		if _, ok := err.(*ConfigError); !ok {
			t.Errorf("params case %d, expecting ConfigError, actual %T", i, err)
		}
	}

	good := &Params{StartYear: 2000, EndYear: 2000, Threshold: 0}
	if err := good.Validate(); err != nil {
		t.Errorf("single-year params, expecting nil, actual %v", err)
	}

	// validation runs before any layer access
	_, err := BuildAccountingStack(layerMap{}, &Params{StartYear: 1999, EndYear: 2005, Threshold: 30})
	if err == nil {
		t.Fatalf("eager validation, expecting error, actual nil")
	}
	if _, ok := err.(*ConfigError); !ok {
		t.Errorf("eager validation, expecting ConfigError before layer access, actual %T", err)
	}
}

func TestMissingLayer(t *testing.T) {
	grid := testGrid(2, 2)
	store := layerMap{
		DefaultCoverLayer: mustLayer(t, grid, DefaultCoverLayer, []float64{50, 50, 10, 10}),
		DefaultLossLayer:  mustLayer(t, grid, DefaultLossLayer, []float64{0, 0, 0, 0}),
	}
	_, err := BuildAccountingStack(store, &Params{StartYear: 2000, EndYear: 2001, Threshold: 30})
	if err == nil {
		t.Fatalf("missing agb layer, expecting error, actual nil")
	}
}
