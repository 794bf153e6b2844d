package regions

import (
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq"
)

// TestPostgresProvider runs against a live PostGIS instance. Point
// FCS_TEST_PG_DSN at a database with a gadm.countries table to enable it.
func TestPostgresProvider(t *testing.T) {
	dsn := os.Getenv("FCS_TEST_PG_DSN")
	if len(dsn) == 0 {
		t.Skip("FCS_TEST_PG_DSN not set, skipping postgres provider test")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to open database, %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		t.Skipf("database not reachable, skipping: %v", err)
	}

	provider := &PostgresProvider{
		DB:          db,
		TemplateDir: "../templates",
		Template:    "region_query.jet",
		Table:       "gadm.countries",
		CodeColumn:  "gid_0",
		NameColumn:  "name_0",
		GeomColumn:  "geom",
	}

	regions, err := provider.Regions(nil)
	if err != nil {
		t.Fatalf("postgres provider failed, %v", err)
	}
	if len(regions) == 0 {
		t.Errorf("postgres provider returned no regions")
	}
	for _, region := range regions {
		if region.Err == nil && region.Ha <= 0 {
			t.Errorf("region %s area, expecting positive, actual %v", region.Code, region.Ha)
		}
	}
}
