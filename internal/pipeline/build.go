package pipeline

import (
	"context"

	"github.com/couchcryptid/county-graph-etl/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Builder turns an aggregation into one graph per date. Dates share no state,
// so they are built concurrently.
type Builder struct {
	concurrency int
}

// NewBuilder creates a Builder running at most concurrency builds at once.
func NewBuilder(concurrency int) *Builder {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Builder{concurrency: concurrency}
}

// BuildAll returns the graphs ordered by date.
func (b *Builder) BuildAll(ctx context.Context, agg domain.Aggregation) ([]domain.Graph, error) {
	dates := agg.Dates()
	graphs := make([]domain.Graph, len(dates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, date := range dates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			graphs[i] = domain.BuildGraph(date, agg[date])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return graphs, nil
}

// forEachLimit calls fn(i) for every i in [0, n) with at most limit calls in
// flight. fn reports its own failures; none of them cancel the others.
func forEachLimit(n, limit int, fn func(i int)) {
	var g errgroup.Group
	g.SetLimit(limit)
	for i := range n {
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}
