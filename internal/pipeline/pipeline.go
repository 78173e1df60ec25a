// Package pipeline turns census source layers into stored choropleth figures.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/census-choropleth/internal/artifact"
	"github.com/sells-group/census-choropleth/internal/figstore"
	"github.com/sells-group/census-choropleth/internal/figure"
	"github.com/sells-group/census-choropleth/internal/normalize"
	"github.com/sells-group/census-choropleth/internal/source"
)

// Pipeline orchestrates load, normalize, build and save for one key at a time.
// It holds no per-run state; distinct keys may run concurrently.
type Pipeline struct {
	workDir string
	vocab   artifact.Vocabulary
	loader  *source.Loader
	store   *figstore.Store
}

// New creates a Pipeline reading sources and writing figures below workDir.
func New(workDir string, vocab artifact.Vocabulary, loader *source.Loader, store *figstore.Store) *Pipeline {
	return &Pipeline{
		workDir: workDir,
		vocab:   vocab,
		loader:  loader,
		store:   store,
	}
}

// Request describes one figure build.
type Request struct {
	Key       artifact.Key
	Column    normalize.ColumnSpec
	Encodings []artifact.Encoding
	// Overwrite rebuilds even when every requested encoding is already stored.
	Overwrite bool
}

// Result reports what Run produced.
type Result struct {
	Key    artifact.Key
	Figure *figure.Figure   // nil when skipped without a reloadable encoding
	Table  *normalize.Table // nil when skipped
	Paths  []string
	// Skipped is true when existing figures were reused.
	Skipped bool
}

func (r Request) validate(vocab artifact.Vocabulary) error {
	if err := r.Key.Validate(vocab); err != nil {
		return err
	}
	if err := r.Column.Validate(); err != nil {
		return err
	}
	if len(r.Encodings) == 0 {
		return eris.New("pipeline: no encodings requested")
	}
	return nil
}

// Run builds and stores the figure for req.Key. Without Overwrite, a key whose
// requested encodings all exist is not rebuilt; its JSON figure, if
// requested, is loaded instead.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(p.vocab); err != nil {
		return nil, eris.Wrap(err, "pipeline: invalid request")
	}

	log := zap.L().With(
		zap.String("component", "pipeline"),
		zap.String("key", req.Key.String()),
	)

	result := &Result{Key: req.Key}
	for _, enc := range req.Encodings {
		result.Paths = append(result.Paths, p.store.Path(req.Key, enc))
	}

	if !req.Overwrite {
		done, err := p.allExist(req)
		if err != nil {
			return nil, err
		}
		if done {
			result.Skipped = true
			for _, enc := range req.Encodings {
				if !enc.Reloadable() {
					continue
				}
				fig, err := p.store.Load(req.Key, enc)
				if err != nil {
					return nil, eris.Wrap(err, "pipeline: load existing figure")
				}
				result.Figure = fig
				break
			}
			log.Info("pipeline: figures exist, skipping build")
			return result, nil
		}
	}

	table, err := p.Prepare(ctx, req.Key, req.Column)
	if err != nil {
		return nil, err
	}
	result.Table = table

	start := time.Now()
	fig, err := figure.Build(table, req.Column)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: build figure")
	}
	result.Figure = fig
	log.Debug("pipeline: figure built", zap.Int64("duration_ms", time.Since(start).Milliseconds()))

	for _, enc := range req.Encodings {
		if err := p.store.Save(req.Key, fig, enc); err != nil {
			return nil, eris.Wrapf(err, "pipeline: save %s figure", enc)
		}
	}

	log.Info("pipeline: figures saved",
		zap.Int("rows", table.Len()),
		zap.Strings("paths", result.Paths),
	)
	return result, nil
}

// Prepare loads the source layer for key and normalizes it with column.
func (p *Pipeline) Prepare(ctx context.Context, key artifact.Key, column normalize.ColumnSpec) (*normalize.Table, error) {
	log := zap.L().With(
		zap.String("component", "pipeline"),
		zap.String("key", key.String()),
	)

	start := time.Now()
	layer, err := p.loader.Load(ctx, p.workDir, key)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load source")
	}
	log.Info("pipeline: phase complete",
		zap.String("phase", "load"),
		zap.Int("records", layer.Len()),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	start = time.Now()
	table, err := normalize.Normalize(layer, column, key.Year, key.BoundaryType,
		normalize.WithLocationColumn(p.loader.LocationFor(key)),
	)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: normalize")
	}
	log.Info("pipeline: phase complete",
		zap.String("phase", "normalize"),
		zap.Int("rows", table.Len()),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return table, nil
}

func (p *Pipeline) allExist(req Request) (bool, error) {
	for _, enc := range req.Encodings {
		ok, err := p.store.Exists(req.Key, enc)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
