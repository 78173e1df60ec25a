package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/census-choropleth/internal/artifact"
)

var testKey = artifact.Key{Year: 2021, Topic: "G01", Area: "AUST", DatumSpec: "GDA2020", BoundaryType: "SA4"}

func TestNewLoader(t *testing.T) {
	l, err := NewLoader("")
	require.NoError(t, err)
	assert.Equal(t, FormatGeoPackage, l.Format)

	l, err = NewLoader("shp")
	require.NoError(t, err)
	assert.Equal(t, FormatShapefile, l.Format)

	_, err = NewLoader("geojson")
	assert.Error(t, err)
}

func TestLoader_Path(t *testing.T) {
	gpkg := &Loader{Format: FormatGeoPackage}
	assert.Equal(t,
		filepath.Join("/w", "raw", "Geopackage_2021_G01_AUST_GDA2020", "G01_AUST_GDA2020.gpkg"),
		gpkg.Path("/w", testKey))

	shape := &Loader{Format: FormatShapefile}
	assert.Equal(t,
		filepath.Join("/w", "raw", "Geopackage_2021_G01_AUST_GDA2020", "G01_SA4_2021_AUST.shp"),
		shape.Path("/w", testKey))
}

func TestLoader_LoadGeoPackage(t *testing.T) {
	workDir := t.TempDir()
	l := &Loader{Format: FormatGeoPackage}
	path := l.Path(workDir, testKey)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	writeGeoPackage(t, path, testKey.Layer(), []gpkgRow{
		{name: "Brisbane", pop: "2500000", geom: square(153, -27)},
	})

	layer, err := l.Load(context.Background(), workDir, testKey)
	require.NoError(t, err)
	require.Equal(t, 1, layer.Len())
	assert.Equal(t, "Brisbane", layer.Records[0].Attributes[l.LocationFor(testKey)])
}

func TestLoader_LoadShapefile(t *testing.T) {
	workDir := t.TempDir()
	l := &Loader{Format: FormatShapefile}
	path := l.Path(workDir, testKey)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	writeShapefile(t, path)

	layer, err := l.Load(context.Background(), workDir, testKey)
	require.NoError(t, err)
	assert.Equal(t, 2, layer.Len())
	assert.Contains(t, layer.Columns, l.LocationFor(testKey))
}

func TestLoader_LocationFor(t *testing.T) {
	assert.Equal(t, "SA4_NAME_2021", (&Loader{Format: FormatGeoPackage}).LocationFor(testKey))
	assert.Equal(t, "SA4_NAME21", (&Loader{Format: FormatShapefile}).LocationFor(testKey))
	assert.Equal(t, "SA4_NAME", (&Loader{Format: FormatShapefile, LocationColumn: "SA4_NAME"}).LocationFor(testKey))
}

func TestLoader_MissingFile(t *testing.T) {
	workDir := t.TempDir()
	l := &Loader{Format: FormatGeoPackage}

	_, err := l.Load(context.Background(), workDir, testKey)
	require.Error(t, err)

	var nf *SourceNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, l.Path(workDir, testKey), nf.Path)
	assert.Empty(t, nf.Layer)

	// The reader must not have created the file.
	_, statErr := os.Stat(nf.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoader_MissingLayer(t *testing.T) {
	workDir := t.TempDir()
	l := &Loader{Format: FormatGeoPackage}
	path := l.Path(workDir, testKey)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	writeGeoPackage(t, path, "G01_LGA_2021_AUST", nil)

	_, err := l.Load(context.Background(), workDir, testKey)
	var nf *SourceNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "G01_SA4_2021_AUST", nf.Layer)
}
