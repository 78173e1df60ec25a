// Package figure builds choropleth map documents from normalized census
// tables. Documents follow the plotly.js figure schema so they render with
// any plotly front end.
package figure

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/census-choropleth/internal/normalize"
)

// TraceName is the legend name of the census trace.
const TraceName = "Census Data"

// MarkerOpacity is the fixed fill transparency of region polygons.
const MarkerOpacity = 0.5

// Figure is a plotly figure document. It is not modified after Build;
// rebuilding produces a new Figure.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is a choroplethmapbox trace.
type Trace struct {
	Type          string                     `json:"type"`
	Name          string                     `json:"name"`
	GeoJSON       *geojson.FeatureCollection `json:"geojson"`
	Locations     []string                   `json:"locations"`
	Z             []float64                  `json:"z"`
	Marker        Marker                     `json:"marker"`
	HoverTemplate string                     `json:"hovertemplate"`
}

// Marker styles the region fill.
type Marker struct {
	Opacity float64 `json:"opacity"`
}

// DuplicateLocationError reports two rows sharing a Location. Locations are
// the join key between trace values and GeoJSON features, so duplicates are
// rejected rather than silently overwritten.
type DuplicateLocationError struct {
	Location string
	First    int
	Second   int
}

func (e *DuplicateLocationError) Error() string {
	return fmt.Sprintf("figure: duplicate location %q at rows %d and %d", e.Location, e.First, e.Second)
}

// HoverTemplate returns the tooltip showing the location and the value
// abbreviated to two significant figures.
func HoverTemplate(valueColumn string) string {
	return "<b>Location</b>: %{location}<br>" +
		"<b>" + valueColumn + "</b>: %{z:.2s}" +
		"<extra></extra>"
}

// Build creates the choropleth figure for table. spec must be the value
// column spec the table was normalized with.
func Build(table *normalize.Table, spec normalize.ColumnSpec) (*Figure, error) {
	if table == nil {
		return nil, eris.New("figure: nil table")
	}
	if spec.Rename != table.ValueColumn {
		return nil, eris.Errorf("figure: spec column %q does not match table column %q", spec.Rename, table.ValueColumn)
	}

	seen := make(map[string]int, table.Len())
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, table.Len())}
	locations := make([]string, 0, table.Len())
	z := make([]float64, 0, table.Len())

	for i, row := range table.Rows {
		if first, ok := seen[row.Location]; ok {
			return nil, &DuplicateLocationError{Location: row.Location, First: first, Second: i}
		}
		seen[row.Location] = i

		v, err := numeric(row.Value)
		if err != nil {
			return nil, eris.Wrapf(err, "figure: column %q row %d", spec.Rename, i)
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         row.Location,
			Geometry:   row.Geometry,
			Properties: map[string]interface{}{spec.Rename: row.Value},
		})
		locations = append(locations, row.Location)
		z = append(z, v)
	}

	return &Figure{
		Data: []Trace{{
			Type:          "choroplethmapbox",
			Name:          TraceName,
			GeoJSON:       fc,
			Locations:     locations,
			Z:             z,
			Marker:        Marker{Opacity: MarkerOpacity},
			HoverTemplate: HoverTemplate(spec.Rename),
		}},
		Layout: DefaultLayout(),
	}, nil
}

func numeric(v any) (float64, error) {
	switch x := v.(type) {
	case int64:
		return float64(x), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, eris.Errorf("value %v is not finite", x)
		}
		return x, nil
	default:
		return 0, eris.Errorf("value %#v is not numeric", v)
	}
}

// Marshal encodes the figure as its JSON document.
func Marshal(f *Figure) ([]byte, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, eris.Wrap(err, "figure: marshal")
	}
	return b, nil
}

// Unmarshal decodes a JSON figure document.
func Unmarshal(b []byte) (*Figure, error) {
	var f Figure
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, eris.Wrap(err, "figure: unmarshal")
	}
	return &f, nil
}
