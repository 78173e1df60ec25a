package normalize

import (
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/census-choropleth/internal/source"
)

// Row is one canonical record. Value holds a string, int64 or float64
// according to the table's ValueType.
type Row struct {
	Location string
	Value    any
	Geometry geom.T
}

// Table is a normalized census table. Every row has a geometry.
type Table struct {
	ValueColumn string
	ValueType   ColumnType
	Rows        []Row
}

// Columns returns the column names in output order.
func (t *Table) Columns() []string {
	return []string{LocationColumn, t.ValueColumn, GeometryColumn}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Option adjusts a Normalize call.
type Option func(*options)

type options struct {
	locationColumn string
}

// WithLocationColumn reads boundary names from col instead of the
// {boundaryType}_NAME_{year} column.
func WithLocationColumn(col string) Option {
	return func(o *options) {
		o.locationColumn = col
	}
}

// Normalize filters records without geometry, then selects, renames and
// type-converts the location column, the value column described by spec and
// the geometry. Column presence is checked against the layer's columns before
// any row is dropped, so a wrong spec fails even when no row survives. Any
// missing column or unconvertible value fails the whole call; there is no
// partial result.
func Normalize(layer *source.Layer, spec ColumnSpec, year int, boundaryType string, opts ...Option) (*Table, error) {
	if layer == nil {
		return nil, &SchemaError{Column: spec.Name, Row: -1, Reason: "no source layer"}
	}
	if err := spec.Validate(); err != nil {
		return nil, &SchemaError{Column: spec.Name, Row: -1, Reason: err.Error()}
	}
	if spec.Type == TypeGeometry {
		return nil, &SchemaError{Column: spec.Name, Row: -1, Reason: "value column cannot be a geometry"}
	}
	if spec.Rename == LocationColumn || spec.Rename == GeometryColumn {
		return nil, &SchemaError{Column: spec.Name, Row: -1, Reason: "rename collides with " + spec.Rename}
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	specs := EffectiveSpecs(spec, year, boundaryType)
	if o.locationColumn != "" {
		specs[0].Name = o.locationColumn
	}

	// Projection against the layer schema.
	present := make(map[string]struct{}, len(layer.Columns))
	for _, c := range layer.Columns {
		present[c] = struct{}{}
	}
	for _, s := range specs {
		if s.Type == TypeGeometry {
			continue
		}
		if _, ok := present[s.Name]; !ok {
			return nil, &SchemaError{Column: s.Name, Row: -1, Reason: "column not found"}
		}
	}

	// Drop rows without geometry; survivors keep source order and are
	// reindexed from zero.
	kept := make([]source.Record, 0, layer.Len())
	for _, r := range layer.Records {
		if r.Geometry != nil {
			kept = append(kept, r)
		}
	}

	// Rows built outside a reader may still lack a declared column.
	for i, r := range kept {
		for _, s := range specs {
			if s.Type == TypeGeometry {
				continue
			}
			if _, ok := r.Attributes[s.Name]; !ok {
				return nil, &SchemaError{Column: s.Name, Row: i, Reason: "column not found"}
			}
		}
	}

	table := &Table{
		ValueColumn: spec.Rename,
		ValueType:   spec.Type,
		Rows:        make([]Row, len(kept)),
	}

	for i, r := range kept {
		loc, err := coerce(r.Attributes[specs[0].Name], TypeString)
		if err != nil {
			return nil, &TypeCoercionError{Column: specs[0].Rename, Row: i, Type: TypeString, Value: r.Attributes[specs[0].Name], Err: err}
		}
		val, err := coerce(r.Attributes[spec.Name], spec.Type)
		if err != nil {
			return nil, &TypeCoercionError{Column: spec.Rename, Row: i, Type: spec.Type, Value: r.Attributes[spec.Name], Err: err}
		}
		table.Rows[i] = Row{Location: loc.(string), Value: val, Geometry: r.Geometry}
	}

	if dropped := layer.Len() - len(kept); dropped > 0 {
		zap.L().Debug("normalize: dropped rows without geometry",
			zap.String("layer", layer.Name),
			zap.String("column", spec.Rename),
			zap.Int("dropped", dropped),
			zap.Int("kept", len(kept)),
		)
	}

	return table, nil
}
