// Package source reads raw census boundary rows from GeoPackage or shapefile
// sources and lists the remote blob inventory.
package source

import "github.com/twpayne/go-geom"

// Record is one source row: a geometry (nil when the row has none) plus its
// attribute columns keyed by source column name.
type Record struct {
	Geometry   geom.T
	Attributes map[string]any
}

// Layer is one source layer: its attribute column names in source order and
// every row. Columns is known even when Records is empty.
type Layer struct {
	Name    string
	Columns []string
	Records []Record
}

// Len returns the number of rows.
func (l *Layer) Len() int {
	return len(l.Records)
}
