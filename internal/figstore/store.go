// Package figstore persists figures under paths derived from their artifact key.
package figstore

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/census-choropleth/internal/artifact"
	"github.com/sells-group/census-choropleth/internal/figure"
)

// UnsupportedEncodingError is returned when saving an unknown encoding or
// loading one that cannot be read back.
type UnsupportedEncodingError struct {
	Encoding artifact.Encoding
}

func (e *UnsupportedEncodingError) Error() string {
	return fmt.Sprintf("figstore: unsupported encoding %q", e.Encoding)
}

// NotFoundError is returned when no figure exists at the key's path.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return "figstore: " + e.Path + " not found"
}

// Store reads and writes figures below workDir/figure. It holds no state
// besides the directory; concurrent writers to the same key are not
// coordinated and the last write wins.
type Store struct {
	workDir string
}

// New returns a Store rooted at workDir.
func New(workDir string) *Store {
	return &Store{workDir: workDir}
}

// Dir returns the figure directory.
func (s *Store) Dir() string {
	return artifact.FigureDir(s.workDir)
}

// Path returns the file a figure for key is stored at.
func (s *Store) Path(key artifact.Key, enc artifact.Encoding) string {
	return key.FigurePath(s.workDir, enc)
}

// Save writes fig for key in the given encoding. The document is rendered
// in memory and renamed over any existing file, so a failed save leaves the
// previous figure intact.
func (s *Store) Save(key artifact.Key, fig *figure.Figure, enc artifact.Encoding) error {
	if fig == nil {
		return eris.New("figstore: nil figure")
	}

	var buf bytes.Buffer
	switch enc {
	case artifact.EncodingJSON:
		b, err := figure.Marshal(fig)
		if err != nil {
			return err
		}
		buf.Write(b)
	case artifact.EncodingHTML:
		if err := RenderHTML(&buf, key.String(), fig); err != nil {
			return err
		}
	default:
		return &UnsupportedEncodingError{Encoding: enc}
	}

	if err := os.MkdirAll(s.Dir(), 0o755); err != nil {
		return eris.Wrap(err, "figstore: create figure dir")
	}

	path := s.Path(key, enc)
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return err
	}

	zap.L().Debug("figure saved",
		zap.String("component", "figstore"),
		zap.String("key", key.String()),
		zap.String("path", path),
		zap.Int("bytes", buf.Len()),
	)
	return nil
}

// writeFileAtomic writes b to a temp file beside path and renames it into
// place.
func writeFileAtomic(path string, b []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return eris.Wrapf(err, "figstore: create temp for %s", path)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return eris.Wrapf(err, "figstore: write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "figstore: close %s", path)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return eris.Wrapf(err, "figstore: chmod %s", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return eris.Wrapf(err, "figstore: rename into %s", path)
	}
	return nil
}

// Load reads the figure stored for key. Only the JSON encoding round-trips;
// anything else fails with UnsupportedEncodingError.
func (s *Store) Load(key artifact.Key, enc artifact.Encoding) (*figure.Figure, error) {
	if !enc.Reloadable() {
		return nil, &UnsupportedEncodingError{Encoding: enc}
	}
	return s.loadPath(s.Path(key, enc))
}

// LoadName reads the JSON figure stored under a serialized key.
func (s *Store) LoadName(name string) (*figure.Figure, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return nil, &NotFoundError{Path: name}
	}
	return s.loadPath(filepath.Join(s.Dir(), name+"."+string(artifact.EncodingJSON)))
}

func (s *Store) loadPath(path string) (*figure.Figure, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &NotFoundError{Path: path}
	}
	if err != nil {
		return nil, eris.Wrapf(err, "figstore: read %s", path)
	}
	return figure.Unmarshal(b)
}

// Exists reports whether a figure for key is stored in enc.
func (s *Store) Exists(key artifact.Key, enc artifact.Encoding) (bool, error) {
	_, err := os.Stat(s.Path(key, enc))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, eris.Wrap(err, "figstore: stat figure")
}

// List returns the serialized keys of every stored JSON figure, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "figstore: read figure dir")
	}

	suffix := "." + string(artifact.EncodingJSON)
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), suffix))
	}
	sort.Strings(names)
	return names, nil
}
