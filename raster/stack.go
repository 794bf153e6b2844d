package raster

import (
	"fmt"
)

// MissingBandError reports a band name absent from a stack. It always
// indicates a pipeline construction bug, never bad user input.
type MissingBandError struct {
	Band string
}

func (e *MissingBandError) Error() string {
	return fmt.Sprintf("band %s not found in raster stack", e.Band)
}

// Stack is an ordered, immutable band-name to raster mapping over one
// shared grid. Add returns a new stack, leaving the receiver untouched, so
// assembling bands in a loop accumulates functionally.
type Stack struct {
	grid  *Grid
	names []string
	bands map[string]*Raster
}

func NewStack(grid *Grid) *Stack {
	return &Stack{grid: grid, bands: map[string]*Raster{}}
}

// Add appends a band under the raster's name. Duplicate names and grid
// mismatches are construction bugs and fail hard.
func (s *Stack) Add(r *Raster) (*Stack, error) {
	if _, ok := s.bands[r.Name()]; ok {
		return nil, fmt.Errorf("band %s already present in raster stack", r.Name())
	}
	if !s.grid.Equal(r.Grid()) {
		return nil, fmt.Errorf("band %s: grid mismatch with raster stack", r.Name())
	}
	out := &Stack{
		grid:  s.grid,
		names: make([]string, len(s.names), len(s.names)+1),
		bands: make(map[string]*Raster, len(s.bands)+1),
	}
	copy(out.names, s.names)
	out.names = append(out.names, r.Name())
	for name, band := range s.bands {
		out.bands[name] = band
	}
	out.bands[r.Name()] = r
	return out, nil
}

func (s *Stack) Band(name string) (*Raster, error) {
	band, ok := s.bands[name]
	if !ok {
		return nil, &MissingBandError{Band: name}
	}
	return band, nil
}

// Names returns the band names in insertion order.
func (s *Stack) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

func (s *Stack) Len() int {
	return len(s.names)
}

func (s *Stack) Grid() *Grid {
	return s.grid
}
