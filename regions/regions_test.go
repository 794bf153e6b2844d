package regions

import (
	"encoding/json"
	"io/ioutil"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forestwatch/fcs/raster"
	geo "github.com/nci/geometry"
)

func squarePolygon(lon, lat, side float64) *geo.Polygon {
	return &geo.Polygon{
		Type: "Polygon",
		Coordinates: [][][]float64{{
			{lon, lat},
			{lon + side, lat},
			{lon + side, lat + side},
			{lon, lat + side},
			{lon, lat},
		}},
	}
}

func TestArea(t *testing.T) {
	// a 0.001 degree square on the equator is close to 111.2m x 111.2m
	// on the authalic sphere
	square := squarePolygon(0, 0, 0.001)
	ha, err := AreaHa(square)
	if err != nil {
		t.Fatalf("area failed, %v", err)
	}
	if math.Abs(ha-1.2364) > 0.01 {
		t.Errorf("square area, expecting about 1.2364 ha, actual %v", ha)
	}

	multi := &geo.MultiPolygon{
		Type: "MultiPolygon",
		Coordinates: [][][][]float64{
			squarePolygon(0, 0, 0.001).Coordinates,
			squarePolygon(0.01, 0, 0.001).Coordinates,
		},
	}
	multiHa, err := AreaHa(multi)
	if err != nil {
		t.Fatalf("multipolygon area failed, %v", err)
	}
	if math.Abs(multiHa-2*ha) > 0.001 {
		t.Errorf("multipolygon area, expecting %v, actual %v", 2*ha, multiHa)
	}

	if _, err := Area(&geo.Point{Type: "Point", Coordinates: []float64{0, 0}}); err == nil {
		t.Errorf("point area test failed, expecting error, actual nil")
	}

	degenerate := &geo.Polygon{Type: "Polygon", Coordinates: [][][]float64{{{0, 0}, {1, 1}, {0, 0}}}}
	if _, err := Area(degenerate); err == nil {
		t.Errorf("degenerate polygon test failed, expecting error, actual nil")
	}
}

func TestNewRegion(t *testing.T) {
	region := NewRegion("AUS", "Australia", squarePolygon(0, 0, 0.001))
	if region.Err != nil {
		t.Fatalf("region construction failed, %v", region.Err)
	}
	if region.Ha <= 0 {
		t.Errorf("region area, expecting positive, actual %v", region.Ha)
	}

	bad := NewRegion("BAD", "Broken", &geo.Polygon{Type: "Polygon", Coordinates: [][][]float64{}})
	if bad.Err == nil {
		t.Fatalf("degenerate region test failed, expecting error, actual nil")
	}
	if _, ok := bad.Err.(*GeometryError); !ok {
		t.Errorf("degenerate region error, expecting GeometryError, actual %T", bad.Err)
	}
}

func TestFromFeatureCollection(t *testing.T) {
	payload := `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"GID_0":"AUS","NAME_0":"Australia"},"geometry":{"type":"Polygon","coordinates":[[[0,0],[0.001,0],[0.001,0.001],[0,0.001],[0,0]]]}},
		{"type":"Feature","properties":{"COUNTRY":"NZL","NAME":"New Zealand"},"geometry":{"type":"Polygon","coordinates":[[[0.01,0],[0.011,0],[0.011,0.001],[0.01,0.001],[0.01,0]]]}},
		{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[0.02,0],[0.021,0],[0.021,0.001],[0.02,0.001],[0.02,0]]]}}
	]}`

	var featCol geo.FeatureCollection
	if err := json.Unmarshal([]byte(payload), &featCol); err != nil {
		t.Fatalf("feature collection decode failed, %v", err)
	}

	out, err := FromFeatureCollection(&featCol)
	if err != nil {
		t.Fatalf("FromFeatureCollection failed, %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("region count, expecting 3, actual %v", len(out))
	}
	if out[0].Code != "AUS" || out[0].Name != "Australia" {
		t.Errorf("region 0 attributes, expecting AUS/Australia, actual %v/%v", out[0].Code, out[0].Name)
	}
	if out[1].Code != "NZL" || out[1].Name != "New Zealand" {
		t.Errorf("region 1 alias attributes, expecting NZL/New Zealand, actual %v/%v", out[1].Code, out[1].Name)
	}
	if out[2].Code != "feat3" {
		t.Errorf("region 2 default code, expecting feat3, actual %v", out[2].Code)
	}

	if _, err := FromFeatureCollection(&geo.FeatureCollection{}); err == nil {
		t.Errorf("empty feature collection test failed, expecting error, actual nil")
	}
}

func TestFileProvider(t *testing.T) {
	payload := `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"GID_0":"AUS","NAME_0":"Australia"},"geometry":{"type":"Polygon","coordinates":[[[0,0],[0.001,0],[0.001,0.001],[0,0.001],[0,0]]]}},
		{"type":"Feature","properties":{"GID_0":"NZL","NAME_0":"New Zealand"},"geometry":{"type":"Polygon","coordinates":[[[0.01,0],[0.011,0],[0.011,0.001],[0.01,0.001],[0.01,0]]]}}
	]}`
	path := filepath.Join(t.TempDir(), "regions.geojson")
	if err := ioutil.WriteFile(path, []byte(payload), 0644); err != nil {
		t.Fatalf("failed to write test file, %v", err)
	}

	provider := NewFileProvider(path)
	all, err := provider.Regions(nil)
	if err != nil {
		t.Fatalf("file provider failed, %v", err)
	}
	if len(all) != 2 {
		t.Errorf("region count, expecting 2, actual %v", len(all))
	}

	filtered, err := provider.Regions([]string{"NZL"})
	if err != nil {
		t.Fatalf("file provider filter failed, %v", err)
	}
	if len(filtered) != 1 || filtered[0].Code != "NZL" {
		t.Errorf("filtered regions, expecting [NZL], actual %v", filtered)
	}

	if _, err := provider.Regions([]string{"ATA"}); err == nil {
		t.Errorf("unknown code test failed, expecting error, actual nil")
	}
}

func TestRasterizeMask(t *testing.T) {
	grid := &raster.Grid{OriginX: 0, OriginY: 0.001, ResX: 0.00025, ResY: 0.00025, Width: 4, Height: 4}

	// covers the four cells whose centers fall inside
	// lon [0.00025, 0.00075] x lat [0.00025, 0.00075]
	square := squarePolygon(0.00025, 0.00025, 0.0005)
	mask, err := RasterizeMask(square, grid)
	if err != nil {
		t.Fatalf("rasterize failed, %v", err)
	}

	count := 0
	for _, inside := range mask {
		if inside {
			count++
		}
	}
	if count != 4 {
		t.Errorf("mask cell count, expecting 4, actual %v", count)
	}
	for _, i := range []int{1*4 + 1, 1*4 + 2, 2*4 + 1, 2*4 + 2} {
		if !mask[i] {
			t.Errorf("mask cell %d, expecting inside, actual outside", i)
		}
	}

	// polygon entirely off the grid yields an empty mask
	offGrid, err := RasterizeMask(squarePolygon(10, 10, 0.001), grid)
	if err != nil {
		t.Fatalf("rasterize failed, %v", err)
	}
	for i, inside := range offGrid {
		if inside {
			t.Errorf("off-grid mask cell %d, expecting outside, actual inside", i)
		}
	}

	if _, err := RasterizeMask(&geo.Point{Type: "Point", Coordinates: []float64{0, 0}}, grid); err == nil {
		t.Errorf("unsupported geometry test failed, expecting error, actual nil")
	}
}

func TestRenderRegionQuery(t *testing.T) {
	query := &RegionQuery{
		Table:      "gadm.countries",
		CodeColumn: "gid_0",
		NameColumn: "name_0",
		GeomColumn: "geom",
	}
	sql, err := RenderRegionQuery("../templates", "region_query.jet", query)
	if err != nil {
		t.Fatalf("render failed, %v", err)
	}
	expected := "SELECT gid_0, name_0, ST_AsGeoJSON(geom) FROM gadm.countries ORDER BY gid_0"
	if strings.TrimSpace(sql) != expected {
		t.Errorf("rendered query, expecting %v, actual %v", expected, sql)
	}

	query.CodeFilter = "'AUS','NZL'"
	sql, err = RenderRegionQuery("../templates", "region_query.jet", query)
	if err != nil {
		t.Fatalf("render failed, %v", err)
	}
	expected = "SELECT gid_0, name_0, ST_AsGeoJSON(geom) FROM gadm.countries WHERE gid_0 IN ('AUS','NZL') ORDER BY gid_0"
	if strings.TrimSpace(sql) != expected {
		t.Errorf("rendered query, expecting %v, actual %v", expected, sql)
	}
}
