package config

import (
	"errors"
	"io"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/census-choropleth/internal/normalize"
)

// Columns maps a census topic to the value column plotted for it.
type Columns map[string]normalize.ColumnSpec

type columnsFile struct {
	Columns Columns `yaml:"columns"`
}

// DefaultColumns is used when no catalog file exists.
func DefaultColumns() Columns {
	return Columns{
		"G01": {Name: "Tot_P_P", Rename: "Total Persons", Type: normalize.TypeInt},
	}
}

// LoadColumns reads a column catalog. A missing file yields DefaultColumns;
// unknown fields and invalid specs are errors.
func LoadColumns(path string) (Columns, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultColumns(), nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "config: open columns file %s", path)
	}
	defer f.Close() //nolint:errcheck

	return ParseColumns(f)
}

// ParseColumns decodes a column catalog document.
func ParseColumns(r io.Reader) (Columns, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc columnsFile
	if err := dec.Decode(&doc); err != nil {
		return nil, eris.Wrap(err, "config: decode columns")
	}

	for topic, spec := range doc.Columns {
		if err := spec.Validate(); err != nil {
			return nil, eris.Wrapf(err, "config: columns.%s", topic)
		}
	}
	return doc.Columns, nil
}

// For returns the column spec for topic.
func (c Columns) For(topic string) (normalize.ColumnSpec, error) {
	spec, ok := c[topic]
	if !ok {
		return normalize.ColumnSpec{}, eris.Errorf("config: no column spec for topic %q", topic)
	}
	return spec, nil
}

// Topics returns the catalogued topics, sorted.
func (c Columns) Topics() []string {
	topics := make([]string, 0, len(c))
	for t := range c {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}
