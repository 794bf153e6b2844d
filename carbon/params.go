package carbon

import (
	"fmt"
)

// Epoch is the first year of the loss-year encoding: a loss-year value of
// N marks loss in year Epoch+N. MaxYear is where the byte encoding runs
// out.
const (
	Epoch   = 2000
	MaxYear = Epoch + 255
)

// Default source layer names in the catalog.
const (
	DefaultCoverLayer = "treecover2000"
	DefaultLossLayer  = "lossyear"
	DefaultAGBLayer   = "agb"
)

// ConfigError rejects a request before any raster work starts.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// Params are the scalar inputs of one accounting run. Threshold is the
// minimum treecover2000 percentage for a pixel to count as baseline
// forest; the comparison is inclusive.
type Params struct {
	StartYear int
	EndYear   int
	Threshold float64

	// layer names, falling back to the defaults when empty
	CoverLayer string
	LossLayer  string
	AGBLayer   string
}

// Validate checks the year range and threshold eagerly, per the error
// taxonomy: bad parameters never reach raster evaluation.
func (p *Params) Validate() error {
	if p.StartYear < Epoch {
		return &ConfigError{Reason: fmt.Sprintf("start year %d before loss-year epoch %d", p.StartYear, Epoch)}
	}
	if p.EndYear > MaxYear {
		return &ConfigError{Reason: fmt.Sprintf("end year %d after loss-year epoch cap %d", p.EndYear, MaxYear)}
	}
	if p.EndYear < p.StartYear {
		return &ConfigError{Reason: fmt.Sprintf("end year %d before start year %d", p.EndYear, p.StartYear)}
	}
	if p.Threshold < 0 || p.Threshold > 100 {
		return &ConfigError{Reason: fmt.Sprintf("tree cover threshold %v outside [0, 100]", p.Threshold)}
	}
	return nil
}

// CoverYears lists the forest-cover (and carbon-stock) years, start year
// inclusive.
func (p *Params) CoverYears() []int {
	years := make([]int, 0, p.EndYear-p.StartYear+1)
	for year := p.StartYear; year <= p.EndYear; year++ {
		years = append(years, year)
	}
	return years
}

// LossYears lists the loss (and emission) years. Loss cannot be attributed
// to the start year itself, so the range opens at StartYear+1.
func (p *Params) LossYears() []int {
	years := make([]int, 0, p.EndYear-p.StartYear)
	for year := p.StartYear + 1; year <= p.EndYear; year++ {
		years = append(years, year)
	}
	return years
}

// BandNames lists the assembled stack's bands in output column order:
// fc by year, then fl, then cb, then ce.
func (p *Params) BandNames() []string {
	var names []string
	for _, year := range p.CoverYears() {
		names = append(names, BandName("fc", year))
	}
	for _, year := range p.LossYears() {
		names = append(names, BandName("fl", year))
	}
	for _, year := range p.CoverYears() {
		names = append(names, BandName("cb", year))
	}
	for _, year := range p.LossYears() {
		names = append(names, BandName("ce", year))
	}
	return names
}

func (p *Params) coverLayer() string {
	if len(p.CoverLayer) > 0 {
		return p.CoverLayer
	}
	return DefaultCoverLayer
}

func (p *Params) lossLayer() string {
	if len(p.LossLayer) > 0 {
		return p.LossLayer
	}
	return DefaultLossLayer
}

func (p *Params) agbLayer() string {
	if len(p.AGBLayer) > 0 {
		return p.AGBLayer
	}
	return DefaultAGBLayer
}

// BandName builds the canonical per-year band name, e.g. fc2007.
func BandName(prefix string, year int) string {
	return fmt.Sprintf("%s%d", prefix, year)
}
