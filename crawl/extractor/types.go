package extractor

// GridInfo is the content of one ESRI BIL/FLT header sidecar, normalized
// to an upper-left origin. NoData is nil when the header declares none.
type GridInfo struct {
	NCols     int
	NRows     int
	OriginX   float64
	OriginY   float64
	CellSizeX float64
	CellSizeY float64
	DataType  string
	NoData    *float64
}

// SameLattice reports whether two headers describe the same grid. NoData
// and the sample type are per-layer properties and do not participate.
func (g *GridInfo) SameLattice(other *GridInfo) bool {
	return g.NCols == other.NCols && g.NRows == other.NRows &&
		g.OriginX == other.OriginX && g.OriginY == other.OriginY &&
		g.CellSizeX == other.CellSizeX && g.CellSizeY == other.CellSizeY
}

// LayerFile is one discovered grid: the header, the flat binary file next
// to it and the layer name derived from the file base.
type LayerFile struct {
	Name       string
	HeaderPath string
	DataPath   string
	Grid       *GridInfo
}
