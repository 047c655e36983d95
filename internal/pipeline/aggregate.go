package pipeline

import (
	"context"

	"github.com/couchcryptid/county-graph-etl/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Aggregator folds observations into per-date buckets in parallel. Each shard
// owns its partial result until the merge, so no locking is needed.
type Aggregator struct {
	shards int
}

// NewAggregator creates an Aggregator that splits input into at most shards
// partitions.
func NewAggregator(shards int) *Aggregator {
	if shards <= 0 {
		shards = 1
	}
	return &Aggregator{shards: shards}
}

// Aggregate folds every shard concurrently, then merges the partials as a
// pairwise reduction tree. It also returns how many observations had an
// unknown kind. The result does not depend on the shard count.
func (a *Aggregator) Aggregate(ctx context.Context, records []domain.RawObservation) (domain.Aggregation, int, error) {
	parts := partition(records, a.shards)
	partials := make([]domain.Aggregation, len(parts))
	unknown := make([]int, len(parts))

	g, gctx := errgroup.WithContext(ctx)
	for i, part := range parts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			partial := make(domain.Aggregation)
			for _, r := range part {
				if !partial.Add(domain.Normalize(r)) {
					unknown[i]++
				}
			}
			partials[i] = partial
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	merged, err := reduce(ctx, partials)
	if err != nil {
		return nil, 0, err
	}

	total := 0
	for _, n := range unknown {
		total += n
	}
	return merged, total, nil
}

// reduce merges partials level by level; each level's pairs merge in parallel.
func reduce(ctx context.Context, partials []domain.Aggregation) (domain.Aggregation, error) {
	if len(partials) == 0 {
		return domain.Aggregation{}, nil
	}
	for len(partials) > 1 {
		next := make([]domain.Aggregation, (len(partials)+1)/2)
		g, gctx := errgroup.WithContext(ctx)
		for i := range next {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				left := partials[2*i]
				if 2*i+1 == len(partials) {
					next[i] = left
					return nil
				}
				next[i] = domain.Merge(left, partials[2*i+1])
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		partials = next
	}
	return partials[0], nil
}

// partition splits records into at most n contiguous, nearly equal slices.
// It always returns at least one slice.
func partition(records []domain.RawObservation, n int) [][]domain.RawObservation {
	if n > len(records) {
		n = len(records)
	}
	if n <= 1 {
		return [][]domain.RawObservation{records}
	}

	parts := make([][]domain.RawObservation, 0, n)
	size, rem := len(records)/n, len(records)%n
	start := 0
	for i := range n {
		end := start + size
		if i < rem {
			end++
		}
		parts = append(parts, records[start:end])
		start = end
	}
	return parts
}
