package utils

import (
	"io/ioutil"
	"strings"
	"testing"
)

const testFeatCol = `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[146.1,-43.5],[146.8,-43.5],[146.8,-43.1],[146.1,-43.1],[146.1,-43.5]]]},"properties":{}}]}`

func TestFCSParamsChecker(t *testing.T) {
	re := CompileFCSRegexMap()

	query := map[string][]string{
		"service":    []string{"FCS"},
		"request":    []string{"Execute"},
		"identifier": []string{"ForestCarbon"},
		"startyear":  []string{"2001"},
		"endyear":    []string{"2020"},
		"threshold":  []string{"30"},
		"regions":    []string{"AUS, NZL"},
		"geometry":   []string{"geometry=" + testFeatCol},
	}

	params, err := FCSParamsChecker(query, re)
	if err != nil {
		t.Fatalf("params checker failed: %v", err)
	}
	if params.Service == nil || *params.Service != "FCS" {
		t.Errorf("service test failed. Expecting FCS, actual: %v", params.Service)
	}
	if params.Request == nil || *params.Request != "Execute" {
		t.Errorf("request test failed. Expecting Execute, actual: %v", params.Request)
	}
	if params.Identifier == nil || *params.Identifier != "ForestCarbon" {
		t.Errorf("identifier test failed. Expecting ForestCarbon, actual: %v", params.Identifier)
	}
	if params.StartYear == nil || *params.StartYear != 2001 {
		t.Errorf("start year test failed. Expecting 2001, actual: %v", params.StartYear)
	}
	if params.EndYear == nil || *params.EndYear != 2020 {
		t.Errorf("end year test failed. Expecting 2020, actual: %v", params.EndYear)
	}
	if params.Threshold == nil || *params.Threshold != 30 {
		t.Errorf("threshold test failed. Expecting 30, actual: %v", params.Threshold)
	}
	if len(params.Regions) != 2 || params.Regions[0] != "AUS" || params.Regions[1] != "NZL" {
		t.Errorf("regions test failed. Expecting [AUS NZL], actual: %v", params.Regions)
	}
	if len(params.FeatCol.Features) != 1 {
		t.Errorf("feature collection test failed. Expecting 1 feature, actual: %v", len(params.FeatCol.Features))
	}

	if _, err := FCSParamsChecker(map[string][]string{"service": []string{"FCS"}}, re); err == nil {
		t.Errorf("missing request test failed. Expecting error, actual nil")
	}
	if _, err := FCSParamsChecker(map[string][]string{"request": []string{"GetMap"}}, re); err == nil {
		t.Errorf("invalid request test failed. Expecting error, actual nil")
	}
	badYear := map[string][]string{"request": []string{"Execute"}, "startyear": []string{"20o1"}}
	if _, err := FCSParamsChecker(badYear, re); err == nil {
		t.Errorf("invalid year test failed. Expecting error, actual nil")
	}
	badThreshold := map[string][]string{"request": []string{"Execute"}, "threshold": []string{"30%"}}
	if _, err := FCSParamsChecker(badThreshold, re); err == nil {
		t.Errorf("invalid threshold test failed. Expecting error, actual nil")
	}
	badRegions := map[string][]string{"request": []string{"Execute"}, "regions": []string{"AUS;NZL"}}
	if _, err := FCSParamsChecker(badRegions, re); err == nil {
		t.Errorf("invalid regions test failed. Expecting error, actual nil")
	}
	badGeom := map[string][]string{"request": []string{"Execute"}, "geometry": []string{testFeatCol}}
	if _, err := FCSParamsChecker(badGeom, re); err == nil {
		t.Errorf("unprefixed geometry test failed. Expecting error, actual nil")
	}
}

func TestParsePost(t *testing.T) {
	postBody := `<?xml version="1.0" encoding="UTF-8"?>
<wps:Execute version="1.0.0" service="FCS" xmlns:wps="http://www.opengis.net/wps/1.0.0" xmlns:ows="http://www.opengis.net/ows/1.1">
  <ows:Identifier>ForestCarbon</ows:Identifier>
  <wps:DataInputs>
    <wps:Input>
      <ows:Identifier>geometry</ows:Identifier>
      <wps:Data>
        <wps:ComplexData>` + testFeatCol + `</wps:ComplexData>
      </wps:Data>
    </wps:Input>
    <wps:Input>
      <ows:Identifier>start_year</ows:Identifier>
      <wps:Data><wps:LiteralData>2005</wps:LiteralData></wps:Data>
    </wps:Input>
    <wps:Input>
      <ows:Identifier>end_year</ows:Identifier>
      <wps:Data><wps:LiteralData>2015</wps:LiteralData></wps:Data>
    </wps:Input>
    <wps:Input>
      <ows:Identifier>threshold</ows:Identifier>
      <wps:Data><wps:LiteralData>25</wps:LiteralData></wps:Data>
    </wps:Input>
    <wps:Input>
      <ows:Identifier>regions</ows:Identifier>
      <wps:Data><wps:LiteralData>AUS</wps:LiteralData></wps:Data>
    </wps:Input>
  </wps:DataInputs>
</wps:Execute>`

	parsedBody, err := ParsePost(ioutil.NopCloser(strings.NewReader(postBody)))
	if err != nil {
		t.Fatalf("post parsing failed: %v", err)
	}
	if parsedBody["request"][0] != "Execute" {
		t.Errorf("request test failed. Expecting Execute, actual: %v", parsedBody["request"])
	}
	if parsedBody["identifier"][0] != "ForestCarbon" {
		t.Errorf("identifier test failed. Expecting ForestCarbon, actual: %v", parsedBody["identifier"])
	}
	if !strings.HasPrefix(parsedBody["geometry"][0], "geometry={") {
		t.Errorf("geometry test failed. Expecting geometry= prefix, actual: %v", parsedBody["geometry"])
	}
	if parsedBody["startyear"][0] != "2005" || parsedBody["endyear"][0] != "2015" {
		t.Errorf("year inputs test failed, actual: %v, %v", parsedBody["startyear"], parsedBody["endyear"])
	}
	if parsedBody["threshold"][0] != "25" {
		t.Errorf("threshold input test failed, actual: %v", parsedBody["threshold"])
	}
	if parsedBody["regions"][0] != "AUS" {
		t.Errorf("regions input test failed, actual: %v", parsedBody["regions"])
	}

	params, err := FCSParamsChecker(parsedBody, CompileFCSRegexMap())
	if err != nil {
		t.Fatalf("params checker failed on POST body: %v", err)
	}
	if params.StartYear == nil || *params.StartYear != 2005 {
		t.Errorf("post start year test failed, actual: %v", params.StartYear)
	}
	if len(params.FeatCol.Features) != 1 {
		t.Errorf("post feature collection test failed, actual: %v", len(params.FeatCol.Features))
	}

	if _, err := ParsePost(ioutil.NopCloser(strings.NewReader("not xml"))); err == nil {
		t.Errorf("malformed post test failed. Expecting error, actual nil")
	}
}

func TestParseQuery(t *testing.T) {
	query := `SERVICE=FCS&request=Execute&geometry=geometry=%7B"scale":1e+4,"a":"b\&c"%7D&label=a+b`
	values, err := ParseQuery(query)
	if err != nil {
		t.Fatalf("query parsing failed: %v", err)
	}
	if values.Get("service") != "FCS" {
		t.Errorf("key case test failed. Expecting FCS, actual: %v", values.Get("service"))
	}
	geom := values.Get("geometry")
	expected := `geometry={"scale":1e+4,"a":"b&c"}`
	if geom != expected {
		t.Errorf("geometry value test failed. Expecting %v, actual: %v", expected, geom)
	}
	if values.Get("label") != "a b" {
		t.Errorf("plus decoding test failed. Expecting 'a b', actual: %v", values.Get("label"))
	}

	values, err = ParseQuery("good=1&bad=%zz")
	if err == nil {
		t.Errorf("invalid escape test failed. Expecting error, actual nil")
	}
	if values.Get("good") != "1" {
		t.Errorf("partial parse test failed. Expecting 1, actual: %v", values.Get("good"))
	}
}
