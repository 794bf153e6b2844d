package raster

import (
	"fmt"
	"math"
)

// Grid is the fixed spatial reference shared by every raster in a pipeline
// run: upper-left origin and cell sizes in degrees (EPSG:4326), rows going
// south. ResX and ResY are both positive.
type Grid struct {
	OriginX, OriginY float64
	ResX, ResY       float64
	Width, Height    int
}

func (g *Grid) Size() int {
	return g.Width * g.Height
}

func (g *Grid) Equal(other *Grid) bool {
	if other == nil {
		return false
	}
	return g.OriginX == other.OriginX && g.OriginY == other.OriginY &&
		g.ResX == other.ResX && g.ResY == other.ResY &&
		g.Width == other.Width && g.Height == other.Height
}

// Geot returns the six-element affine geotransform of the grid.
func (g *Grid) Geot() []float64 {
	return []float64{g.OriginX, g.ResX, 0, g.OriginY, 0, -g.ResY}
}

// CellCenter returns the lon/lat of the center of cell (ix, iy).
func (g *Grid) CellCenter(ix, iy int) (float64, float64) {
	lon := g.OriginX + (float64(ix)+0.5)*g.ResX
	lat := g.OriginY - (float64(iy)+0.5)*g.ResY
	return lon, lat
}

// CellAt maps a lon/lat to cell indices. The boolean is false when the
// point falls outside the grid extent.
func (g *Grid) CellAt(lon, lat float64) (int, int, bool) {
	ix := int(math.Floor((lon - g.OriginX) / g.ResX))
	iy := int(math.Floor((g.OriginY - lat) / g.ResY))
	if ix < 0 || ix >= g.Width || iy < 0 || iy >= g.Height {
		return 0, 0, false
	}
	return ix, iy, true
}

// CellSizeMeters is the ground size of one cell at the equator, in
// meters.
func (g *Grid) CellSizeMeters() float64 {
	return g.ResX * math.Pi / 180.0 * EarthRadius
}

// CheckShape rejects degenerate grids.
func (g *Grid) CheckShape() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("grid has non-positive dimensions %dx%d", g.Width, g.Height)
	}
	if g.ResX <= 0 || g.ResY <= 0 {
		return fmt.Errorf("grid has non-positive cell size %vx%v", g.ResX, g.ResY)
	}
	return nil
}
