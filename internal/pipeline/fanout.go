package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/couchcryptid/county-graph-etl/internal/domain"
	"github.com/couchcryptid/county-graph-etl/internal/observability"
)

// Sink is a named Loader. The name labels its metrics and errors.
type Sink struct {
	Name   string
	Loader Loader
}

// FanOut loads every graph into each of its sinks in order.
// It implements Loader.
type FanOut struct {
	sinks   []Sink
	metrics *observability.Metrics
}

// NewFanOut creates a FanOut over sinks.
func NewFanOut(metrics *observability.Metrics, sinks ...Sink) *FanOut {
	return &FanOut{sinks: sinks, metrics: metrics}
}

// Load tries every sink even if an earlier one fails, and joins the failures.
func (f *FanOut) Load(ctx context.Context, g domain.Graph) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Loader.Load(ctx, g); err != nil {
			f.metrics.SnapshotErrors.WithLabelValues(s.Name).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}
		f.metrics.SnapshotsWritten.WithLabelValues(s.Name).Inc()
	}
	return errors.Join(errs...)
}
