package source

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

type gpkgRow struct {
	name string
	pop  any
	geom geom.T
}

// square returns a single-polygon multipolygon anchored at (x, y).
func square(x, y float64) *geom.MultiPolygon {
	return geom.NewMultiPolygonFlat(geom.XY,
		[]float64{x, y, x, y + 1, x + 1, y + 1, x + 1, y, x, y},
		[][]int{{10}},
	)
}

// writeGeoPackage creates a minimal GeoPackage holding one layer.
func writeGeoPackage(t *testing.T, path, layer string, rows []gpkgRow) {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	stmts := []string{
		`CREATE TABLE gpkg_contents (table_name TEXT PRIMARY KEY, data_type TEXT NOT NULL, srs_id INTEGER)`,
		`CREATE TABLE gpkg_geometry_columns (table_name TEXT NOT NULL, column_name TEXT NOT NULL, geometry_type_name TEXT NOT NULL, srs_id INTEGER NOT NULL, z TINYINT NOT NULL, m TINYINT NOT NULL)`,
		`CREATE TABLE "` + layer + `" (fid INTEGER PRIMARY KEY AUTOINCREMENT, geom BLOB, SA4_NAME_2021 TEXT, pop TEXT)`,
	}
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err)
	}
	_, err = db.Exec(`INSERT INTO gpkg_contents VALUES (?, 'features', 7844)`, layer)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO gpkg_geometry_columns VALUES (?, 'geom', 'MULTIPOLYGON', 7844, 0, 0)`, layer)
	require.NoError(t, err)

	for _, r := range rows {
		var blob any
		if r.geom != nil {
			b, err := EncodeGeoPackageGeometry(r.geom, 7844)
			require.NoError(t, err)
			blob = b
		}
		_, err := db.Exec(`INSERT INTO "`+layer+`" (geom, SA4_NAME_2021, pop) VALUES (?, ?, ?)`, blob, r.name, r.pop)
		require.NoError(t, err)
	}
}
