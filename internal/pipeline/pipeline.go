package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/couchcryptid/county-graph-etl/internal/domain"
	"github.com/couchcryptid/county-graph-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Extractor reads the whole input batch. Malformed input must be reported as
// an error; the pipeline never sees partial batches.
type Extractor interface {
	Extract(ctx context.Context) ([]domain.RawObservation, error)
}

// Loader writes one graph snapshot to a destination.
type Loader interface {
	Load(ctx context.Context, g domain.Graph) error
}

// Options tunes a Pipeline. Zero values pick defaults.
type Options struct {
	Shards      int             // aggregation partitions, default 1
	Concurrency int             // parallel graph builds and loads, default 1
	Clock       clockwork.Clock // stage timing, default real clock
}

// Report summarizes a finished run.
type Report struct {
	Records     int
	UnknownKind int
	Dates       int
	Loaded      int
	Failed      int
}

// Pipeline runs the extract, aggregate, build and load stages once over a
// single batch.
type Pipeline struct {
	extractor  Extractor
	aggregator *Aggregator
	builder    *Builder
	loader     Loader
	logger     *slog.Logger
	metrics    *observability.Metrics
	clock      clockwork.Clock
	ready      atomic.Bool
	last       atomic.Pointer[Report]
}

// New creates a Pipeline with the given stages and observability.
func New(e Extractor, l Loader, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.Shards <= 0 {
		opts.Shards = 1
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		extractor:  e,
		aggregator: NewAggregator(opts.Shards),
		builder:    NewBuilder(opts.Concurrency),
		loader:     l,
		logger:     logger,
		metrics:    metrics,
		clock:      opts.Clock,
	}
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// LastReport returns the report of the most recent run, successful or not.
func (p *Pipeline) LastReport() (Report, bool) {
	r := p.last.Load()
	if r == nil {
		return Report{}, false
	}
	return *r, true
}

// Run executes every stage once. Load failures do not stop other snapshots
// from being written; they are returned joined, one per failed date, and
// counted in the report.
func (p *Pipeline) Run(ctx context.Context) (report Report, err error) {
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)
	defer func() {
		r := report
		p.last.Store(&r)
	}()

	var (
		records []domain.RawObservation
		agg     domain.Aggregation
		graphs  []domain.Graph
	)

	err = p.stage("extract", func(ev *stageEvent) error {
		var err error
		records, err = p.extractor.Extract(ctx)
		if err != nil {
			return err
		}
		report.Records = len(records)
		p.metrics.RecordsConsumed.Add(float64(len(records)))
		ev.add("entries", len(records))
		return nil
	})
	if err != nil {
		return report, err
	}

	err = p.stage("group_by", func(ev *stageEvent) error {
		var (
			unknown int
			err     error
		)
		agg, unknown, err = p.aggregator.Aggregate(ctx, records)
		if err != nil {
			return err
		}
		report.UnknownKind = unknown
		report.Dates = len(agg)
		p.metrics.UnknownKind.Add(float64(unknown))
		p.metrics.Dates.Add(float64(len(agg)))
		ev.add("dates", len(agg), "unknown_kind", unknown)
		return nil
	})
	if err != nil {
		return report, err
	}
	if report.UnknownKind > 0 {
		p.logger.Debug("observations with unknown kind were not accumulated", "count", report.UnknownKind)
	}

	err = p.stage("add_state_nodes", func(ev *stageEvent) error {
		var err error
		graphs, err = p.builder.BuildAll(ctx, agg)
		if err != nil {
			return err
		}
		counties, states := countNodes(graphs)
		p.metrics.CountyNodes.Add(float64(counties))
		p.metrics.StateNodes.Add(float64(states))
		ev.add("graphs", len(graphs), "county_nodes", counties, "state_nodes", states)
		return nil
	})
	if err != nil {
		return report, err
	}

	err = p.stage("write_files", func(ev *stageEvent) error {
		loaded, loadErr := p.loadAll(ctx, graphs)
		report.Loaded = loaded
		report.Failed = len(graphs) - loaded
		ev.add("num_files", len(graphs), "loaded", loaded)
		return loadErr
	})
	if err != nil {
		return report, err
	}

	p.ready.Store(true)
	return report, nil
}

// loadAll hands every graph to the loader with bounded parallelism. Every
// graph is attempted; failures are joined.
func (p *Pipeline) loadAll(ctx context.Context, graphs []domain.Graph) (int, error) {
	errs := make([]error, len(graphs))
	forEachLimit(len(graphs), p.builder.concurrency, func(i int) {
		if err := ctx.Err(); err != nil {
			errs[i] = fmt.Errorf("load %s: %w", graphs[i].Timestamp, err)
			return
		}
		if err := p.loader.Load(ctx, graphs[i]); err != nil {
			errs[i] = fmt.Errorf("load %s: %w", graphs[i].Timestamp, err)
		}
	})

	loaded := 0
	for _, err := range errs {
		if err == nil {
			loaded++
		}
	}
	return loaded, errors.Join(errs...)
}

func countNodes(graphs []domain.Graph) (counties, states int) {
	for _, g := range graphs {
		for _, n := range g.Nodes {
			if n.IsCounty() {
				counties++
			} else {
				states++
			}
		}
	}
	return counties, states
}
