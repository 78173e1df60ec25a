package pipeline

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"

	"github.com/sells-group/census-choropleth/internal/artifact"
	"github.com/sells-group/census-choropleth/internal/db"
	"github.com/sells-group/census-choropleth/internal/normalize"
)

var exportColumns = []string{"location", "value", "geom"}

// ExportTableName is the PostGIS table a key's normalized rows are written to.
func ExportTableName(key artifact.Key) string {
	return strings.ToLower(key.String())
}

func sqlType(t normalize.ColumnType) string {
	switch t {
	case normalize.TypeInt:
		return "BIGINT"
	case normalize.TypeFloat:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

// Export replaces the PostGIS table for key with the rows of table. Geometry
// is written as EWKB without reprojection. Rows are encoded before the table
// is truncated so an unencodable geometry leaves the previous export intact.
func Export(ctx context.Context, pool db.Pool, schema string, key artifact.Key, table *normalize.Table) (int64, error) {
	name := ExportTableName(key)
	log := zap.L().With(
		zap.String("component", "pipeline.export"),
		zap.String("table", schema+"."+name),
		zap.Int("total_rows", table.Len()),
	)

	rows := make([][]any, 0, table.Len())
	for i, r := range table.Rows {
		wkb, err := ewkb.Marshal(r.Geometry, ewkb.NDR)
		if err != nil {
			return 0, eris.Wrapf(err, "pipeline: encode geometry row %d", i)
		}
		rows = append(rows, []any{r.Location, r.Value, wkb})
	}

	cols := []db.Column{
		{Name: exportColumns[0], Type: "TEXT NOT NULL"},
		{Name: exportColumns[1], Type: sqlType(table.ValueType)},
		{Name: exportColumns[2], Type: "geometry"},
	}
	if err := db.ReplaceTable(ctx, pool, schema, name, cols); err != nil {
		return 0, eris.Wrap(err, "pipeline: prepare export table")
	}
	if len(rows) == 0 {
		log.Info("normalized table exported", zap.Int64("rows", 0))
		return 0, nil
	}

	n, err := pool.CopyFrom(ctx, pgx.Identifier{schema, name}, exportColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "pipeline: COPY INTO %s.%s", schema, name)
	}

	log.Info("normalized table exported", zap.Int64("rows", n))
	return n, nil
}
