package source

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/census-choropleth/internal/artifact"
)

// Supported local source formats.
const (
	FormatGeoPackage = "gpkg"
	FormatShapefile  = "shp"
)

// Loader resolves an artifact key to raw records on the local filesystem.
type Loader struct {
	Format string
	// LocationColumn overrides the boundary-name column for every key.
	LocationColumn string
}

// NewLoader returns a Loader for the given format ("" means gpkg).
func NewLoader(format string) (*Loader, error) {
	switch format {
	case "":
		format = FormatGeoPackage
	case FormatGeoPackage, FormatShapefile:
	default:
		return nil, eris.Errorf("source: unsupported format %q", format)
	}
	return &Loader{Format: format}, nil
}

// Path returns the file the loader reads for key. GeoPackages hold many
// layers in one file; a shapefile holds one, so its stem is the layer name.
func (l *Loader) Path(workDir string, key artifact.Key) string {
	if l.Format == FormatShapefile {
		return filepath.Join(workDir, "raw", key.SourceFolder(), key.Layer()+".shp")
	}
	return key.SourcePath(workDir, FormatGeoPackage)
}

// LocationFor returns the source column holding boundary names for key.
// GeoPackages carry the full name (SA4_NAME_2021); DBF field names are capped
// at ten characters, so shapefiles use the short form (SA4_NAME21).
func (l *Loader) LocationFor(key artifact.Key) string {
	if l.LocationColumn != "" {
		return l.LocationColumn
	}
	if l.Format == FormatShapefile {
		return artifact.ShortLocationColumn(key.BoundaryType, key.Year)
	}
	return artifact.LocationColumn(key.BoundaryType, key.Year)
}

// Load reads every row of the layer addressed by key.
func (l *Loader) Load(ctx context.Context, workDir string, key artifact.Key) (*Layer, error) {
	path := l.Path(workDir, key)
	layer := key.Layer()

	log := zap.L().With(
		zap.String("component", "source.loader"),
		zap.String("path", path),
		zap.String("layer", layer),
	)

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &SourceNotFoundError{Path: path, Err: err}
		}
		return nil, eris.Wrapf(err, "source: stat %s", path)
	}

	var (
		out *Layer
		err error
	)
	switch l.Format {
	case FormatShapefile:
		out, err = ReadShapefile(path)
	default:
		out, err = ReadGeoPackage(ctx, path, layer)
	}
	if err != nil {
		return nil, err
	}

	log.Debug("source loaded", zap.Int("records", out.Len()), zap.Strings("columns", out.Columns))
	return out, nil
}
