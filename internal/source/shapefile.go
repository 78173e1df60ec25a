package source

import (
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// MaxFieldName is the longest attribute name a DBF table can hold.
const MaxFieldName = 10

// ReadShapefile reads every row of the shapefile at shpPath. Null shapes and
// shapes that cannot be converted yield a nil geometry; attributes keep their
// DBF field names with NUL padding and surrounding spaces removed. The layer
// is named after the file stem.
func ReadShapefile(shpPath string) (*Layer, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	out := &Layer{
		Name:    strings.TrimSuffix(filepath.Base(shpPath), filepath.Ext(shpPath)),
		Columns: names,
	}
	var nullShapes int

	for reader.Next() {
		_, shape := reader.Shape()

		rec := Record{
			Geometry:   shapeToGeom(shape),
			Attributes: make(map[string]any, len(names)),
		}
		if rec.Geometry == nil {
			nullShapes++
		}

		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if val == "" {
				rec.Attributes[name] = nil
			} else {
				rec.Attributes[name] = val
			}
		}

		out.Records = append(out.Records, rec)
	}

	if nullShapes > 0 {
		zap.L().Debug("source: shapefile rows without geometry",
			zap.String("path", shpPath),
			zap.Int("rows", nullShapes),
		)
	}

	return out, nil
}

// shapeToGeom converts a go-shp shape to a go-geom geometry. Returns nil for
// null, empty or unsupported shapes.
func shapeToGeom(shape shp.Shape) geom.T {
	switch s := shape.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y})
	case *shp.PolyLine:
		return polyLineToMultiLineString(s)
	case *shp.Polygon:
		return polygonToMultiPolygon(s)
	default:
		return nil
	}
}

// partCoords returns the flat XY coordinates of part i.
func partCoords(parts []int32, numParts int32, points []shp.Point, i int32) []float64 {
	start := parts[i]
	end := int32(len(points))
	if i+1 < numParts {
		end = parts[i+1]
	}
	flat := make([]float64, 0, (end-start)*2)
	for j := start; j < end; j++ {
		flat = append(flat, points[j].X, points[j].Y)
	}
	return flat
}

func polyLineToMultiLineString(pl *shp.PolyLine) geom.T {
	if pl == nil || pl.NumParts == 0 || len(pl.Points) == 0 {
		return nil
	}

	mls := geom.NewMultiLineString(geom.XY)
	for i := int32(0); i < pl.NumParts; i++ {
		ls := geom.NewLineStringFlat(geom.XY, partCoords(pl.Parts, pl.NumParts, pl.Points, i))
		if err := mls.Push(ls); err != nil {
			zap.L().Debug("source: skipping malformed linestring part", zap.Int32("part", i), zap.Error(err))
		}
	}

	if mls.NumLineStrings() == 0 {
		return nil
	}
	return mls
}

// polygonToMultiPolygon makes one polygon per shapefile ring. Holes are not
// reassembled; the geometry is passed through for display only.
func polygonToMultiPolygon(p *shp.Polygon) geom.T {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)
	for i := int32(0); i < p.NumParts; i++ {
		ring := geom.NewLinearRingFlat(geom.XY, partCoords(p.Parts, p.NumParts, p.Points, i))
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("source: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("source: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
