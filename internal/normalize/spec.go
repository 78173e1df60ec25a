// Package normalize projects raw census records onto the canonical
// Location / value / geometry schema.
package normalize

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/census-choropleth/internal/artifact"
)

// ColumnType is the declared target type of a column.
type ColumnType string

// Supported column types.
const (
	TypeString   ColumnType = "str"
	TypeInt      ColumnType = "int"
	TypeFloat    ColumnType = "float"
	TypeGeometry ColumnType = "geometry"
)

// Canonical column names.
const (
	LocationColumn = "Location"
	GeometryColumn = "geometry"
)

// ColumnSpec selects one source column, renames it and declares its type.
type ColumnSpec struct {
	Name   string     `yaml:"name" mapstructure:"name" json:"name"`
	Rename string     `yaml:"rename" mapstructure:"rename" json:"rename"`
	Type   ColumnType `yaml:"type" mapstructure:"type" json:"type"`
}

// Valid reports whether t is a known column type.
func (t ColumnType) Valid() bool {
	switch t {
	case TypeString, TypeInt, TypeFloat, TypeGeometry:
		return true
	}
	return false
}

// Validate checks a caller-supplied value column spec.
func (c ColumnSpec) Validate() error {
	if c.Name == "" {
		return eris.New("normalize: column spec name is required")
	}
	if c.Rename == "" {
		return eris.Errorf("normalize: column %q has no rename", c.Name)
	}
	if !c.Type.Valid() {
		return eris.Errorf("normalize: column %q has unknown type %q", c.Name, c.Type)
	}
	return nil
}

// LocationSpec is the implicit boundary-name column, e.g. SA4_NAME_2021.
func LocationSpec(year int, boundaryType string) ColumnSpec {
	return ColumnSpec{
		Name:   artifact.LocationColumn(boundaryType, year),
		Rename: LocationColumn,
		Type:   TypeString,
	}
}

// GeometrySpec is the implicit geometry column.
func GeometrySpec() ColumnSpec {
	return ColumnSpec{Name: GeometryColumn, Rename: GeometryColumn, Type: TypeGeometry}
}

// EffectiveSpecs returns the full ordered column list for a value column.
// The order fixes the output column order.
func EffectiveSpecs(value ColumnSpec, year int, boundaryType string) []ColumnSpec {
	return []ColumnSpec{LocationSpec(year, boundaryType), value, GeometrySpec()}
}
