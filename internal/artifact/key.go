// Package artifact derives the deterministic names used to locate census
// source datasets and the figures built from them.
package artifact

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/rotisserie/eris"
)

// Key identifies one census dataset instance. The same key names both the
// source layer and every figure derived from it.
type Key struct {
	Year         int    `json:"year"`
	Topic        string `json:"topic"`
	Area         string `json:"area"`
	DatumSpec    string `json:"datum_spec"`
	BoundaryType string `json:"boundary_type"`
}

// String returns the content address "{topic}_{boundary}_{year}_{area}_{datum}".
// Fields are used verbatim; no trimming or case folding.
func (k Key) String() string {
	return fmt.Sprintf("%s_%s_%d_%s_%s", k.Topic, k.BoundaryType, k.Year, k.Area, k.DatumSpec)
}

// SourceFolder is the directory under raw/ holding the source package.
func (k Key) SourceFolder() string {
	return fmt.Sprintf("Geopackage_%d_%s_%s_%s", k.Year, k.Topic, k.Area, k.DatumSpec)
}

// SourceFile is the vector file name inside SourceFolder.
func (k Key) SourceFile(ext string) string {
	return fmt.Sprintf("%s_%s_%s.%s", k.Topic, k.Area, k.DatumSpec, ext)
}

// Layer is the layer name inside the source file.
func (k Key) Layer() string {
	return fmt.Sprintf("%s_%s_%d_%s", k.Topic, k.BoundaryType, k.Year, k.Area)
}

// SourcePath returns workDir/raw/{folder}/{file}.
func (k Key) SourcePath(workDir, ext string) string {
	return filepath.Join(workDir, "raw", k.SourceFolder(), k.SourceFile(ext))
}

// FigureDir returns the directory figures are written to.
func FigureDir(workDir string) string {
	return filepath.Join(workDir, "figure")
}

// FigurePath returns workDir/figure/{key}.{encoding}.
func (k Key) FigurePath(workDir string, enc Encoding) string {
	return filepath.Join(FigureDir(workDir), k.String()+"."+string(enc))
}

// LocationColumn is the boundary-name attribute every census layer carries,
// e.g. "SA4_NAME_2021".
func LocationColumn(boundaryType string, year int) string {
	return fmt.Sprintf("%s_NAME_%d", boundaryType, year)
}

// ShortLocationColumn is the DBF-safe form used in shapefile releases,
// e.g. "SA4_NAME21".
func ShortLocationColumn(boundaryType string, year int) string {
	return fmt.Sprintf("%s_NAME%02d", boundaryType, year%100)
}

// Vocabulary is the closed set of tokens a Key may be built from.
// An empty list leaves that field unrestricted.
type Vocabulary struct {
	Years         []int    `yaml:"years" mapstructure:"years"`
	Topics        []string `yaml:"topics" mapstructure:"topics"`
	Areas         []string `yaml:"areas" mapstructure:"areas"`
	DatumSpecs    []string `yaml:"datum_specs" mapstructure:"datum_specs"`
	BoundaryTypes []string `yaml:"boundary_types" mapstructure:"boundary_types"`
}

// Validate rejects keys with empty fields or tokens outside vocab.
func (k Key) Validate(vocab Vocabulary) error {
	if k.Year <= 0 {
		return eris.Errorf("artifact: invalid year %d", k.Year)
	}
	fields := []struct {
		name    string
		value   string
		allowed []string
	}{
		{"topic", k.Topic, vocab.Topics},
		{"area", k.Area, vocab.Areas},
		{"datum_spec", k.DatumSpec, vocab.DatumSpecs},
		{"boundary_type", k.BoundaryType, vocab.BoundaryTypes},
	}
	for _, f := range fields {
		if f.value == "" {
			return eris.Errorf("artifact: %s is required", f.name)
		}
		if len(f.allowed) > 0 && !slices.Contains(f.allowed, f.value) {
			return eris.Errorf("artifact: %s %q not in vocabulary %v", f.name, f.value, f.allowed)
		}
	}
	if len(vocab.Years) > 0 && !slices.Contains(vocab.Years, k.Year) {
		return eris.Errorf("artifact: year %d not in vocabulary %v", k.Year, vocab.Years)
	}
	return nil
}
