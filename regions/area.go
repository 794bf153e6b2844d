package regions

import (
	"fmt"
	"math"

	geo "github.com/nci/geometry"
)

// authalic sphere radius in meters, matching the raster pixel area model
const earthRadius = 6371007.1809

func radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// ringArea is the signed spherical area of a linear ring in square meters,
// after Chamberlain & Duquette. The sign follows the ring winding; callers
// take the magnitude for outer rings and subtract hole magnitudes.
func ringArea(ring [][]float64) float64 {
	if len(ring) <= 2 {
		return 0
	}
	total := 0.0
	n := len(ring)
	for i := 0; i < n; i++ {
		lower := ring[i]
		middle := ring[(i+1)%n]
		upper := ring[(i+2)%n]
		total += (radians(upper[0]) - radians(lower[0])) * math.Sin(radians(middle[1]))
	}
	return total * earthRadius * earthRadius / 2.0
}

func polygonArea(rings [][][]float64) (float64, error) {
	if len(rings) == 0 {
		return 0, fmt.Errorf("polygon has no rings")
	}
	if len(rings[0]) < 4 {
		return 0, fmt.Errorf("polygon outer ring has %d points, at least 4 required", len(rings[0]))
	}
	area := math.Abs(ringArea(rings[0]))
	if area == 0 {
		return 0, fmt.Errorf("polygon outer ring has zero area")
	}
	for _, hole := range rings[1:] {
		area -= math.Abs(ringArea(hole))
	}
	if area <= 0 {
		return 0, fmt.Errorf("polygon holes cover the outer ring")
	}
	return area, nil
}

// Area computes the spherical area of a polygon or multipolygon in square
// meters. Degenerate geometry is an error so the caller can isolate the
// offending region.
func Area(geom geo.Geometry) (float64, error) {
	switch g := geom.(type) {
	case *geo.Polygon:
		return polygonArea(g.Coordinates)
	case *geo.MultiPolygon:
		if len(g.Coordinates) == 0 {
			return 0, fmt.Errorf("multipolygon has no polygons")
		}
		total := 0.0
		for _, rings := range g.Coordinates {
			area, err := polygonArea(rings)
			if err != nil {
				return 0, err
			}
			total += area
		}
		return total, nil
	default:
		return 0, fmt.Errorf("geometry not supported. Only Polygon or MultiPolygon are available")
	}
}

// AreaHa is Area converted to hectares.
func AreaHa(geom geo.Geometry) (float64, error) {
	area, err := Area(geom)
	if err != nil {
		return 0, err
	}
	return area / 10000.0, nil
}
