package raster

import (
	"math"
)

// EarthRadius is the authalic sphere radius in meters.
const EarthRadius = 6371007.1809

// PixelArea is a raster of per-pixel cell areas in square meters on the
// authalic sphere. For a geographic grid the area depends on the row only:
// the cell is a slice of the spherical band between its bounding parallels.
func PixelArea(grid *Grid) *Raster {
	return New(grid, "area", func() (*Plane, error) {
		if err := grid.CheckShape(); err != nil {
			return nil, err
		}
		out := newPlane(grid.Size())
		lonFrac := grid.ResX * math.Pi / 180.0
		for iy := 0; iy < grid.Height; iy++ {
			latTop := (grid.OriginY - float64(iy)*grid.ResY) * math.Pi / 180.0
			latBottom := latTop - grid.ResY*math.Pi/180.0
			area := EarthRadius * EarthRadius * lonFrac * (math.Sin(latTop) - math.Sin(latBottom))
			for ix := 0; ix < grid.Width; ix++ {
				i := iy*grid.Width + ix
				out.Data[i] = area
				out.Valid[i] = true
			}
		}
		return out, nil
	})
}
