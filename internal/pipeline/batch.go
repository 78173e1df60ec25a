package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RunBatch runs several requests with at most concurrency in flight. Keys
// must be distinct: writers to the same figure path are not coordinated.
// The first failure cancels the remaining requests.
func (p *Pipeline) RunBatch(ctx context.Context, reqs []Request, concurrency int) ([]*Result, error) {
	seen := make(map[string]struct{}, len(reqs))
	for _, r := range reqs {
		name := r.Key.String()
		if _, dup := seen[name]; dup {
			return nil, eris.Errorf("pipeline: duplicate key %s in batch", name)
		}
		seen[name] = struct{}{}
	}
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]*Result, len(reqs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, req := range reqs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			res, err := p.Run(gCtx, req)
			if err != nil {
				return eris.Wrapf(err, "pipeline: %s", req.Key)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	zap.L().Info("pipeline: batch complete", zap.Int("requests", len(reqs)), zap.Int("concurrency", concurrency))
	return results, nil
}
