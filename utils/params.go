package utils

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	geo "github.com/nci/geometry"
)

type Data struct {
	ComplexData string
	LiteralData string
}

type Input struct {
	Identifier string
	Data       Data
}

type DataInputs struct {
	Input []Input
}

type Execute struct {
	Version    string `xml:"version,attr"`
	Service    string `xml:"service,attr"`
	Identifier string
	DataInputs DataInputs
}

// ParsePost deserialises an FCS Execute POST body into the map shape
// produced by ParseQuery so both entry points share FCSParamsChecker.
func ParsePost(rc io.ReadCloser) (map[string][]string, error) {
	buf := new(bytes.Buffer)
	buf.ReadFrom(rc)
	rc.Close()
	var exec Execute
	err := xml.Unmarshal(buf.Bytes(), &exec)
	if err != nil {
		return map[string][]string{}, err
	}

	parsedBody := map[string][]string{"status": []string{"true"},
		"service":    []string{exec.Service},
		"request":    []string{"Execute"},
		"version":    []string{exec.Version},
		"identifier": []string{exec.Identifier}}

	for _, input := range exec.DataInputs.Input {
		inputID := strings.ToLower(strings.TrimSpace(input.Identifier))
		if inputID == "geometry" {
			parsedBody["geometry"] = []string{fmt.Sprintf(`geometry=%s`, input.Data.ComplexData)}
		} else if inputID == "regions" {
			parsedBody["regions"] = []string{input.Data.LiteralData}
		} else if inputID == "start_year" || inputID == "startyear" {
			parsedBody["startyear"] = []string{input.Data.LiteralData}
		} else if inputID == "end_year" || inputID == "endyear" {
			parsedBody["endyear"] = []string{input.Data.LiteralData}
		} else if inputID == "threshold" {
			parsedBody["threshold"] = []string{input.Data.LiteralData}
		}
	}

	return parsedBody, nil
}

// FCSParams contains the serialised version
// of the parameters contained in an FCS request.
type FCSParams struct {
	Service    *string               `json:"service"`
	Request    *string               `json:"request"`
	Identifier *string               `json:"identifier"`
	StartYear  *int                  `json:"start_year"`
	EndYear    *int                  `json:"end_year"`
	Threshold  *float64              `json:"threshold"`
	Regions    []string              `json:"regions"`
	FeatCol    geo.FeatureCollection `json:"feature_collection"`
}

// FCSRegexpMap maps FCS request parameters to
// regular expressions for doing validation
// when parsing.
// --- These regexp do not avoid every case of
// --- invalid code but filter most of the malformed
// --- cases. Error free JSON deserialisation into types
// --- also validates correct values.
var FCSRegexpMap = map[string]string{"service": `^FCS$`,
	"request":   `^GetCapabilities$|^DescribeProcess$|^Execute$`,
	"year":      `^\d{4}$`,
	"threshold": `^\d+(?:\.\d+)?$`,
	"regions":   `^[A-Za-z0-9_\-]+(?:\s*,\s*[A-Za-z0-9_\-]+)*$`}

func CompileFCSRegexMap() map[string]*regexp.Regexp {
	REMap := make(map[string]*regexp.Regexp)
	for key, re := range FCSRegexpMap {
		REMap[key] = regexp.MustCompile(re)
	}

	return REMap
}

// FCSParamsChecker checks and marshals the content
// of the parameters of an FCS request into an
// FCSParams struct.
func FCSParamsChecker(params map[string][]string, compREMap map[string]*regexp.Regexp) (FCSParams, error) {

	jsonFields := []string{}

	if service, serviceOK := params["service"]; serviceOK {
		if compREMap["service"].MatchString(service[0]) {
			jsonFields = append(jsonFields, fmt.Sprintf(`"service":"%s"`, service[0]))
		}
	} else {
		jsonFields = append(jsonFields, fmt.Sprintf(`"service":""`))
	}

	if request, requestOK := params["request"]; requestOK {
		if compREMap["request"].MatchString(request[0]) {
			jsonFields = append(jsonFields, fmt.Sprintf(`"request":"%s"`, request[0]))
		} else {
			return FCSParams{}, fmt.Errorf("%s is not a valid FCS request", request[0])
		}
	} else {
		return FCSParams{}, fmt.Errorf("FCS 'request' not found")
	}

	if id, idOK := params["identifier"]; idOK {
		jsonFields = append(jsonFields, fmt.Sprintf(`"identifier":"%s"`, id[0]))
	} else {
		jsonFields = append(jsonFields, fmt.Sprintf(`"identifier":""`))
	}

	if startYear, startYearOK := params["startyear"]; startYearOK {
		if compREMap["year"].MatchString(startYear[0]) {
			jsonFields = append(jsonFields, fmt.Sprintf(`"start_year":%s`, startYear[0]))
		} else {
			return FCSParams{}, fmt.Errorf("Invalid start year: %v", startYear[0])
		}
	}

	if endYear, endYearOK := params["endyear"]; endYearOK {
		if compREMap["year"].MatchString(endYear[0]) {
			jsonFields = append(jsonFields, fmt.Sprintf(`"end_year":%s`, endYear[0]))
		} else {
			return FCSParams{}, fmt.Errorf("Invalid end year: %v", endYear[0])
		}
	}

	if threshold, thresholdOK := params["threshold"]; thresholdOK {
		if compREMap["threshold"].MatchString(threshold[0]) {
			jsonFields = append(jsonFields, fmt.Sprintf(`"threshold":%s`, threshold[0]))
		} else {
			return FCSParams{}, fmt.Errorf("Invalid threshold: %v", threshold[0])
		}
	}

	if regionCodes, regionsOK := params["regions"]; regionsOK {
		if compREMap["regions"].MatchString(regionCodes[0]) {
			codes := strings.Split(regionCodes[0], ",")
			for i := range codes {
				codes[i] = fmt.Sprintf(`"%s"`, strings.TrimSpace(codes[i]))
			}
			jsonFields = append(jsonFields, fmt.Sprintf(`"regions":[%s]`, strings.Join(codes, ",")))
		} else {
			return FCSParams{}, fmt.Errorf("Invalid regions list: %v", regionCodes[0])
		}
	}

	if inputs, inputsOK := params["geometry"]; inputsOK {
		featCol := strings.SplitN(inputs[0], "=", 2)
		if len(featCol) < 2 {
			return FCSParams{}, fmt.Errorf("Invalid geometry parameter: %v", inputs[0])
		}
		jsonFields = append(jsonFields, fmt.Sprintf(`"feature_collection":%s`, featCol[1]))
	}

	jsonParams := fmt.Sprintf("{%s}", strings.Join(jsonFields, ","))
	var fcsParams FCSParams
	err := json.Unmarshal([]byte(jsonParams), &fcsParams)
	return fcsParams, err
}

// ParseRemoteAddr prefers the X-Forwarded-For header so requests passing
// through a reverse proxy keep their source address.
func ParseRemoteAddr(r *http.Request) string {
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); len(xff) > 0 {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	return r.RemoteAddr
}

// GetProcessIndex looks the requested process up in the config.
func GetProcessIndex(params FCSParams, config *Config) (int, error) {
	if params.Identifier != nil {
		for i := range config.Processes {
			if config.Processes[i].Identifier == *params.Identifier {
				return i, nil
			}
		}
		return -1, fmt.Errorf("%s not found in config processes", *params.Identifier)
	}
	return -1, fmt.Errorf("FCS request doesn't specify a process")
}
