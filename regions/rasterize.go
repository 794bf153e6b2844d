package regions

import (
	"fmt"
	"math"

	"github.com/forestwatch/fcs/raster"
	geo "github.com/nci/geometry"
)

// RasterizeMask marks the grid cells whose center falls inside the
// geometry. Sampling cell centers on the stack's native grid is the
// deterministic resampling policy of the zonal aggregation: a cell is
// either wholly in or wholly out, every run.
func RasterizeMask(geom geo.Geometry, grid *raster.Grid) ([]bool, error) {
	var polygons [][][][]float64
	switch g := geom.(type) {
	case *geo.Polygon:
		polygons = [][][][]float64{g.Coordinates}
	case *geo.MultiPolygon:
		polygons = g.Coordinates
	default:
		return nil, fmt.Errorf("geometry not supported. Only Polygon or MultiPolygon are available")
	}
	if len(polygons) == 0 {
		return nil, fmt.Errorf("geometry has no polygons")
	}

	mask := make([]bool, grid.Size())
	for _, rings := range polygons {
		if len(rings) == 0 || len(rings[0]) < 4 {
			return nil, fmt.Errorf("polygon outer ring is degenerate")
		}
		x0, y0, x1, y1 := cellBounds(rings[0], grid)
		for iy := y0; iy <= y1; iy++ {
			for ix := x0; ix <= x1; ix++ {
				lon, lat := grid.CellCenter(ix, iy)
				if polygonContains(rings, lon, lat) {
					mask[iy*grid.Width+ix] = true
				}
			}
		}
	}
	return mask, nil
}

// cellBounds clips the ring's bounding box to the grid and returns the
// inclusive cell index range to scan.
func cellBounds(ring [][]float64, grid *raster.Grid) (int, int, int, int) {
	minLon, minLat := math.Inf(1), math.Inf(1)
	maxLon, maxLat := math.Inf(-1), math.Inf(-1)
	for _, pt := range ring {
		minLon = math.Min(minLon, pt[0])
		maxLon = math.Max(maxLon, pt[0])
		minLat = math.Min(minLat, pt[1])
		maxLat = math.Max(maxLat, pt[1])
	}

	x0 := int(math.Floor((minLon - grid.OriginX) / grid.ResX))
	x1 := int(math.Ceil((maxLon-grid.OriginX)/grid.ResX)) - 1
	y0 := int(math.Floor((grid.OriginY - maxLat) / grid.ResY))
	y1 := int(math.Ceil((grid.OriginY-minLat)/grid.ResY)) - 1

	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 >= grid.Width {
		x1 = grid.Width - 1
	}
	if y1 >= grid.Height {
		y1 = grid.Height - 1
	}
	return x0, y0, x1, y1
}

// polygonContains runs an even-odd test across all rings, so holes fall
// out of the containment naturally.
func polygonContains(rings [][][]float64, lon, lat float64) bool {
	inside := false
	for _, ring := range rings {
		if ringContains(ring, lon, lat) {
			inside = !inside
		}
	}
	return inside
}

func ringContains(ring [][]float64, lon, lat float64) bool {
	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > lat) != (yj > lat) && lon < (xj-xi)*(lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}
