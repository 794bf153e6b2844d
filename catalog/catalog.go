// Package catalog resolves named source layers to in-memory rasters. A
// catalog is a YAML document listing flat binary grid files plus the
// lattice they all share; layers load lazily on first use and stay cached
// for the life of the process.
package catalog

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v2"

	"github.com/forestwatch/fcs/raster"
)

// GridDef is the shared lattice as written in the catalog document:
// upper-left origin and positive cell sizes in degrees.
type GridDef struct {
	Origin_x float64
	Origin_y float64
	Res_x    float64
	Res_y    float64
	Width    int
	Height   int
}

// LayerDef describes one flat binary grid file. No_data is optional;
// without it every sample is defined.
type LayerDef struct {
	Name      string
	File      string
	Data_type string
	No_data   *float64
}

// Document is the top-level catalog structure as stored on disk. The
// fcs-crawl tool emits it; Load consumes it.
type Document struct {
	Name   string
	Grid   GridDef
	Layers []*LayerDef
}

// Store is a loaded catalog. It serves the layer lookups the accounting
// pipeline is built on and is safe for concurrent use.
type Store struct {
	Name string

	dir  string
	grid *raster.Grid
	defs map[string]*LayerDef

	mu     sync.Mutex
	layers map[string]*raster.Raster
}

// Load reads and validates a catalog document. Relative grid file paths
// resolve against the document's directory; no grid file is touched until
// the first Layer call.
func Load(filename string) (*Store, error) {
	rawData, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("Error trying to read %s file: %v", filename, err)
	}

	def := Document{}
	if err := yaml.Unmarshal(rawData, &def); err != nil {
		return nil, fmt.Errorf("Error trying to parse %s file: %v", filename, err)
	}

	grid := &raster.Grid{
		OriginX: def.Grid.Origin_x,
		OriginY: def.Grid.Origin_y,
		ResX:    def.Grid.Res_x,
		ResY:    def.Grid.Res_y,
		Width:   def.Grid.Width,
		Height:  def.Grid.Height,
	}
	if err := grid.CheckShape(); err != nil {
		return nil, fmt.Errorf("catalog %s: %v", filename, err)
	}
	if len(def.Layers) == 0 {
		return nil, fmt.Errorf("catalog %s lists no layers", filename)
	}

	store := &Store{
		Name:   def.Name,
		dir:    filepath.Dir(filename),
		grid:   grid,
		defs:   make(map[string]*LayerDef, len(def.Layers)),
		layers: make(map[string]*raster.Raster),
	}
	for _, layer := range def.Layers {
		if len(layer.Name) == 0 {
			return nil, fmt.Errorf("catalog %s has a layer without a name", filename)
		}
		if _, ok := store.defs[layer.Name]; ok {
			return nil, fmt.Errorf("catalog %s lists layer %s twice", filename, layer.Name)
		}
		if _, ok := sampleSizes[layer.Data_type]; !ok {
			return nil, fmt.Errorf("catalog %s layer %s: unsupported data type %s", filename, layer.Name, layer.Data_type)
		}
		if len(layer.File) == 0 {
			return nil, fmt.Errorf("catalog %s layer %s has no grid file", filename, layer.Name)
		}
		store.defs[layer.Name] = layer
	}
	return store, nil
}

// Grid is the lattice shared by every layer in the catalog.
func (s *Store) Grid() *raster.Grid {
	return s.grid
}

// LayerNames lists the configured layer names, sorted.
func (s *Store) LayerNames() []string {
	names := make([]string, 0, len(s.defs))
	for name := range s.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Layer returns the named layer, decoding its grid file on first use.
func (s *Store) Layer(name string) (*raster.Raster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if layer, ok := s.layers[name]; ok {
		return layer, nil
	}
	def, ok := s.defs[name]
	if !ok {
		return nil, fmt.Errorf("layer %s not found in catalog %s", name, s.Name)
	}
	layer, err := s.loadGridFile(def)
	if err != nil {
		return nil, err
	}
	s.layers[name] = layer
	return layer, nil
}
