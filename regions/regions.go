package regions

import (
	"fmt"
	"strings"

	geo "github.com/nci/geometry"
)

// GeometryError reports a degenerate region polygon. It is attached to the
// offending region's output row; it never aborts the batch.
type GeometryError struct {
	Region string
	Reason string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("region %s geometry error: %s", e.Region, e.Reason)
}

// Region is a read-only polygon with identifying attributes. Ha is the
// geometry area in hectares, computed once at construction and never
// mutated. Err marks a region whose geometry failed validation.
type Region struct {
	Code     string
	Name     string
	Geometry geo.Geometry
	Ha       float64
	Err      error
}

// Provider resolves the configured region set, optionally filtered to a
// list of region codes.
type Provider interface {
	Regions(codes []string) ([]*Region, error)
}

// NewRegion builds a region and computes its area eagerly. A degenerate
// geometry is recorded on the region rather than returned as an error.
func NewRegion(code, name string, geom geo.Geometry) *Region {
	region := &Region{Code: code, Name: name, Geometry: geom}
	ha, err := AreaHa(geom)
	if err != nil {
		region.Err = &GeometryError{Region: code, Reason: err.Error()}
		return region
	}
	region.Ha = ha
	return region
}

// FromFeatureCollection converts GeoJSON features into regions. GID_0 and
// NAME_0 identify a region, with COUNTRY and NAME accepted as aliases;
// features without a code are numbered in input order.
func FromFeatureCollection(featCol *geo.FeatureCollection) ([]*Region, error) {
	if len(featCol.Features) == 0 {
		return nil, fmt.Errorf("feature collection contains no features")
	}
	out := make([]*Region, len(featCol.Features))
	for i, feat := range featCol.Features {
		code := attrString(feat.Properties, "GID_0", "COUNTRY")
		name := attrString(feat.Properties, "NAME_0", "NAME")
		if len(code) == 0 {
			code = fmt.Sprintf("feat%d", i+1)
		}
		out[i] = NewRegion(code, name, feat.Geometry)
	}
	return out, nil
}

func attrString(properties map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if val, ok := properties[key]; ok {
			if str, ok := val.(string); ok {
				return strings.TrimSpace(str)
			}
		}
	}
	return ""
}

func filterByCode(regions []*Region, codes []string) ([]*Region, error) {
	if len(codes) == 0 {
		return regions, nil
	}
	byCode := make(map[string]*Region, len(regions))
	for _, region := range regions {
		byCode[region.Code] = region
	}
	out := make([]*Region, 0, len(codes))
	for _, code := range codes {
		region, ok := byCode[code]
		if !ok {
			return nil, fmt.Errorf("region %s not found", code)
		}
		out = append(out, region)
	}
	return out, nil
}
