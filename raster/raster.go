package raster

import (
	"fmt"
	"math"
	"sync"
)

// Plane holds an evaluated raster: one value per pixel in row-major order
// plus a validity mask. Valid[i] == false means pixel i is undefined, the
// tri-state "no data" case every operation must propagate.
type Plane struct {
	Data  []float64
	Valid []bool
}

func newPlane(size int) *Plane {
	return &Plane{Data: make([]float64, size), Valid: make([]bool, size)}
}

// Raster is an immutable, lazily evaluated grid of values. Operations never
// mutate; each produces a new node referencing its inputs, and evaluation
// is memoized per node so a band shared by several consumers is computed
// once. Safe for concurrent evaluation.
type Raster struct {
	grid *Grid
	name string
	eval func() (*Plane, error)

	once  sync.Once
	plane *Plane
	err   error
}

// New constructs a lazy raster from an evaluation function. The function
// runs at most once.
func New(grid *Grid, name string, eval func() (*Plane, error)) *Raster {
	return &Raster{grid: grid, name: name, eval: eval}
}

// FromPlane wraps already evaluated data. valid may be nil, meaning every
// pixel is defined.
func FromPlane(grid *Grid, name string, data []float64, valid []bool) (*Raster, error) {
	if err := grid.CheckShape(); err != nil {
		return nil, err
	}
	if len(data) != grid.Size() {
		return nil, fmt.Errorf("raster %s: data length %d does not match grid size %d", name, len(data), grid.Size())
	}
	if valid != nil && len(valid) != len(data) {
		return nil, fmt.Errorf("raster %s: mask length %d does not match data length %d", name, len(valid), len(data))
	}
	if valid == nil {
		valid = make([]bool, len(data))
		for i := range valid {
			valid[i] = true
		}
	}
	plane := &Plane{Data: data, Valid: valid}
	return New(grid, name, func() (*Plane, error) { return plane, nil }), nil
}

// Const is a raster holding the same defined value at every pixel.
func Const(grid *Grid, name string, value float64) *Raster {
	return New(grid, name, func() (*Plane, error) {
		plane := newPlane(grid.Size())
		for i := range plane.Data {
			plane.Data[i] = value
			plane.Valid[i] = true
		}
		return plane, nil
	})
}

func (r *Raster) Grid() *Grid {
	return r.grid
}

func (r *Raster) Name() string {
	return r.name
}

// Plane evaluates the raster, computing it on first use.
func (r *Raster) Plane() (*Plane, error) {
	r.once.Do(func() {
		r.plane, r.err = r.eval()
		if r.err == nil && len(r.plane.Data) != r.grid.Size() {
			r.err = fmt.Errorf("raster %s: evaluation produced %d pixels, grid has %d", r.name, len(r.plane.Data), r.grid.Size())
		}
	})
	return r.plane, r.err
}

// Rename returns a raster sharing this raster's evaluation under a new
// band name.
func (r *Raster) Rename(name string) *Raster {
	return New(r.grid, name, r.Plane)
}

// mapPixels derives a new raster by transforming each defined pixel.
// Undefined input pixels stay undefined; the transform may declare its
// output undefined by returning false.
func (r *Raster) mapPixels(name string, f func(v float64) (float64, bool)) *Raster {
	return New(r.grid, name, func() (*Plane, error) {
		in, err := r.Plane()
		if err != nil {
			return nil, err
		}
		out := newPlane(r.grid.Size())
		for i, v := range in.Data {
			if !in.Valid[i] {
				continue
			}
			res, ok := f(v)
			if !ok {
				continue
			}
			out.Data[i] = res
			out.Valid[i] = true
		}
		return out, nil
	})
}

// combine derives a new raster from two inputs. A pixel is defined in the
// output only where it is defined in both inputs.
func (r *Raster) combine(other *Raster, name string, f func(a, b float64) float64) *Raster {
	return New(r.grid, name, func() (*Plane, error) {
		if !r.grid.Equal(other.grid) {
			return nil, fmt.Errorf("raster %s: grid mismatch with %s", r.name, other.name)
		}
		pa, err := r.Plane()
		if err != nil {
			return nil, err
		}
		pb, err := other.Plane()
		if err != nil {
			return nil, err
		}
		out := newPlane(r.grid.Size())
		for i := range pa.Data {
			if !pa.Valid[i] || !pb.Valid[i] {
				continue
			}
			out.Data[i] = f(pa.Data[i], pb.Data[i])
			out.Valid[i] = true
		}
		return out, nil
	})
}

// Gte is a per-pixel comparison producing 1 where the pixel value is >=
// value and 0 otherwise. Undefined pixels stay undefined.
func (r *Raster) Gte(value float64) *Raster {
	return r.mapPixels(r.name, func(v float64) (float64, bool) {
		if v >= value {
			return 1, true
		}
		return 0, true
	})
}

// Eq produces 1 where the pixel value equals value and 0 otherwise.
func (r *Raster) Eq(value float64) *Raster {
	return r.mapPixels(r.name, func(v float64) (float64, bool) {
		if v == value {
			return 1, true
		}
		return 0, true
	})
}

// Neq produces 1 where the pixel value differs from value and 0 otherwise.
func (r *Raster) Neq(value float64) *Raster {
	return r.mapPixels(r.name, func(v float64) (float64, bool) {
		if v != value {
			return 1, true
		}
		return 0, true
	})
}

// And produces 1 where both rasters are non-zero and 0 otherwise. A pixel
// undefined in either input is undefined in the output.
func (r *Raster) And(other *Raster) *Raster {
	return r.combine(other, r.name, func(a, b float64) float64 {
		if a != 0 && b != 0 {
			return 1
		}
		return 0
	})
}

// Multiply is the per-pixel product of two rasters.
func (r *Raster) Multiply(other *Raster) *Raster {
	return r.combine(other, r.name, func(a, b float64) float64 {
		return a * b
	})
}

// Scale multiplies every defined pixel by a constant factor.
func (r *Raster) Scale(factor float64) *Raster {
	return r.mapPixels(r.name, func(v float64) (float64, bool) {
		return v * factor, true
	})
}

// UpdateMask masks this raster by another: a pixel survives only where the
// mask is defined and non-zero. This is how undefined pixels are excluded
// from downstream sums rather than being an error condition.
func (r *Raster) UpdateMask(mask *Raster) *Raster {
	return New(r.grid, r.name, func() (*Plane, error) {
		if !r.grid.Equal(mask.grid) {
			return nil, fmt.Errorf("raster %s: grid mismatch with mask %s", r.name, mask.name)
		}
		in, err := r.Plane()
		if err != nil {
			return nil, err
		}
		m, err := mask.Plane()
		if err != nil {
			return nil, err
		}
		out := newPlane(r.grid.Size())
		for i := range in.Data {
			if !in.Valid[i] || !m.Valid[i] || m.Data[i] == 0 {
				continue
			}
			out.Data[i] = in.Data[i]
			out.Valid[i] = true
		}
		return out, nil
	})
}

// SelfMask turns zero-valued pixels undefined, keeping the rest.
func (r *Raster) SelfMask() *Raster {
	return r.mapPixels(r.name, func(v float64) (float64, bool) {
		if v == 0 {
			return 0, false
		}
		return v, true
	})
}

// Unmask coalesces undefined pixels to a constant, leaving every pixel of
// the result defined. Call sites choose the default explicitly; there is
// no implicit fill anywhere else in the engine.
func (r *Raster) Unmask(value float64) *Raster {
	return New(r.grid, r.name, func() (*Plane, error) {
		in, err := r.Plane()
		if err != nil {
			return nil, err
		}
		out := newPlane(r.grid.Size())
		for i := range in.Data {
			if in.Valid[i] {
				out.Data[i] = in.Data[i]
			} else {
				out.Data[i] = value
			}
			out.Valid[i] = true
		}
		return out, nil
	})
}

// finite reports whether v is a usable pixel value.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
