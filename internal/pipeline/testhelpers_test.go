package pipeline

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/census-choropleth/internal/artifact"
	"github.com/sells-group/census-choropleth/internal/figstore"
	"github.com/sells-group/census-choropleth/internal/normalize"
	"github.com/sells-group/census-choropleth/internal/source"
)

var popColumn = normalize.ColumnSpec{Name: "Tot_P_P", Rename: "Total Persons", Type: normalize.TypeInt}

func testKey(topic string) artifact.Key {
	return artifact.Key{Year: 2021, Topic: topic, Area: "AUST", DatumSpec: "GDA2020", BoundaryType: "SA4"}
}

type region struct {
	name string
	pop  string
	geom geom.T
}

func square(x float64) *geom.MultiPolygon {
	return geom.NewMultiPolygonFlat(geom.XY,
		[]float64{x, -27, x, -26, x + 1, -26, x + 1, -27, x, -27},
		[][]int{{10}},
	)
}

// writeSource creates the GeoPackage the gpkg loader expects for key.
func writeSource(t *testing.T, workDir string, key artifact.Key, regions []region) {
	t.Helper()

	path := key.SourcePath(workDir, source.FormatGeoPackage)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	layer := key.Layer()
	stmts := []string{
		`CREATE TABLE gpkg_geometry_columns (table_name TEXT NOT NULL, column_name TEXT NOT NULL, geometry_type_name TEXT NOT NULL, srs_id INTEGER NOT NULL, z TINYINT NOT NULL, m TINYINT NOT NULL)`,
		`CREATE TABLE "` + layer + `" (fid INTEGER PRIMARY KEY AUTOINCREMENT, geom BLOB, SA4_NAME_2021 TEXT, Tot_P_P TEXT)`,
	}
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err)
	}
	_, err = db.Exec(`INSERT INTO gpkg_geometry_columns VALUES (?, 'geom', 'MULTIPOLYGON', 7844, 0, 0)`, layer)
	require.NoError(t, err)

	for _, r := range regions {
		var blob any
		if r.geom != nil {
			b, err := source.EncodeGeoPackageGeometry(r.geom, 7844)
			require.NoError(t, err)
			blob = b
		}
		_, err := db.Exec(`INSERT INTO "`+layer+`" (geom, SA4_NAME_2021, Tot_P_P) VALUES (?, ?, ?)`, blob, r.name, r.pop)
		require.NoError(t, err)
	}
}

// writeShapefileSource creates the shapefile the shp loader expects for key,
// with DBF-length field names as ABS releases them.
func writeShapefileSource(t *testing.T, loader *source.Loader, workDir string, key artifact.Key, regions []region) {
	t.Helper()

	path := loader.Path(workDir, key)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField(loader.LocationFor(key), 40),
		shp.StringField("Tot_P_P", 10),
	}))

	for _, r := range regions {
		// A polygon with no parts reads back as a row without geometry.
		var shape shp.Shape = &shp.Polygon{}
		if mp, ok := r.geom.(*geom.MultiPolygon); ok && mp != nil {
			flat := mp.FlatCoords()
			pts := make([]shp.Point, 0, len(flat)/2)
			for i := 0; i+1 < len(flat); i += 2 {
				pts = append(pts, shp.Point{X: flat[i], Y: flat[i+1]})
			}
			shape = &shp.Polygon{NumParts: 1, NumPoints: int32(len(pts)), Parts: []int32{0}, Points: pts}
		}
		row := w.Write(shape)
		require.NoError(t, w.WriteAttribute(int(row), 0, r.name))
		require.NoError(t, w.WriteAttribute(int(row), 1, r.pop))
	}
	w.Close()
}

func newTestPipeline(t *testing.T) (*Pipeline, string) {
	t.Helper()
	workDir := t.TempDir()
	loader, err := source.NewLoader(source.FormatGeoPackage)
	require.NoError(t, err)
	return New(workDir, artifact.Vocabulary{}, loader, figstore.New(workDir)), workDir
}

var bothEncodings = []artifact.Encoding{artifact.EncodingJSON, artifact.EncodingHTML}
