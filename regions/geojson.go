package regions

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"sync"

	geo "github.com/nci/geometry"
)

// FileProvider serves regions from a GeoJSON FeatureCollection on disk.
// The file is read once and cached; region inputs are read-only.
type FileProvider struct {
	Path string

	once    sync.Once
	regions []*Region
	err     error
}

func NewFileProvider(path string) *FileProvider {
	return &FileProvider{Path: path}
}

func (p *FileProvider) load() {
	data, err := ioutil.ReadFile(p.Path)
	if err != nil {
		p.err = fmt.Errorf("Error trying to read %s file: %v", p.Path, err)
		return
	}
	var featCol geo.FeatureCollection
	if err := json.Unmarshal(data, &featCol); err != nil {
		p.err = fmt.Errorf("Error trying to parse %s as a feature collection: %v", p.Path, err)
		return
	}
	p.regions, p.err = FromFeatureCollection(&featCol)
}

func (p *FileProvider) Regions(codes []string) ([]*Region, error) {
	p.once.Do(p.load)
	if p.err != nil {
		return nil, p.err
	}
	return filterByCode(p.regions, codes)
}
