package regions

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/CloudyKit/jet"
	"github.com/lib/pq"
	geo "github.com/nci/geometry"
)

// PostgresProvider serves regions from a PostGIS table. The selection
// query is rendered from a jet template so deployments can reshape it
// without a rebuild; geometries travel as GeoJSON via ST_AsGeoJSON.
type PostgresProvider struct {
	DB          *sql.DB
	TemplateDir string
	Template    string
	Table       string
	CodeColumn  string
	NameColumn  string
	GeomColumn  string
}

// RegionQuery carries the template bindings for a region selection.
type RegionQuery struct {
	Table      string
	CodeColumn string
	NameColumn string
	GeomColumn string
	CodeFilter string
}

// RenderRegionQuery builds the SQL for a region selection. Codes are
// quoted as literals before they reach the template.
func RenderRegionQuery(templateDir, templateName string, query *RegionQuery) (string, error) {
	view := jet.NewSet(jet.SafeWriter(func(w io.Writer, b []byte) {
		w.Write(b)
	}), templateDir, "/")

	template, err := view.GetTemplate(templateName)
	if err != nil {
		return "", fmt.Errorf("region query template error: %v", err)
	}

	var resBuf bytes.Buffer
	vars := make(jet.VarMap)
	if err = template.Execute(&resBuf, vars, query); err != nil {
		return "", fmt.Errorf("region query template error: %v", err)
	}
	return resBuf.String(), nil
}

func (p *PostgresProvider) buildQuery(codes []string) (string, error) {
	query := &RegionQuery{
		Table:      p.Table,
		CodeColumn: p.CodeColumn,
		NameColumn: p.NameColumn,
		GeomColumn: p.GeomColumn,
	}
	if len(codes) > 0 {
		quoted := make([]string, len(codes))
		for i, code := range codes {
			quoted[i] = pq.QuoteLiteral(code)
		}
		query.CodeFilter = strings.Join(quoted, ",")
	}
	return RenderRegionQuery(p.TemplateDir, p.Template, query)
}

func (p *PostgresProvider) Regions(codes []string) ([]*Region, error) {
	query, err := p.buildQuery(codes)
	if err != nil {
		return nil, err
	}

	rows, err := p.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("region query failed: %v", err)
	}
	defer rows.Close()

	var out []*Region
	for rows.Next() {
		var code, name, geomJSON string
		if err := rows.Scan(&code, &name, &geomJSON); err != nil {
			return nil, fmt.Errorf("region row scan failed: %v", err)
		}

		var feat geo.Feature
		featJSON := fmt.Sprintf(`{"type":"Feature","geometry":%s}`, geomJSON)
		if err := json.Unmarshal([]byte(featJSON), &feat); err != nil {
			return nil, fmt.Errorf("region %s geometry decode failed: %v", code, err)
		}
		out = append(out, NewRegion(code, name, feat.Geometry))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("region query failed: %v", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("region query returned no rows")
	}
	if len(codes) > 0 && len(out) != len(codes) {
		return nil, fmt.Errorf("region query returned %d rows, expecting %d", len(out), len(codes))
	}
	return out, nil
}
