package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	httpadapter "github.com/couchcryptid/county-graph-etl/internal/adapter/http"
	"github.com/couchcryptid/county-graph-etl/internal/adapter/jsonfile"
	kafkaadapter "github.com/couchcryptid/county-graph-etl/internal/adapter/kafka"
	"github.com/couchcryptid/county-graph-etl/internal/config"
	"github.com/couchcryptid/county-graph-etl/internal/observability"
	"github.com/couchcryptid/county-graph-etl/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	goflags "github.com/jessevdk/go-flags"
	"github.com/jonboulle/clockwork"
)

// Options holds the command-line flags. Flags override the matching
// environment settings.
type Options struct {
	Shards      int  `long:"shards" description:"Aggregation partitions (overrides AGG_SHARDS)"`
	Concurrency int  `long:"concurrency" description:"Parallel graph builds and writes (overrides EMIT_CONCURRENCY)"`
	Compact     bool `long:"compact" description:"Write compact JSON instead of indented (overrides OUTPUT_PRETTY)"`

	Args struct {
		Input     string `positional-arg-name:"INPUT" description:"JSON export of county-level observations"`
		OutputDir string `positional-arg-name:"OUTPUT_DIR" description:"Directory receiving one snapshot per date"`
	} `positional-args:"yes" required:"yes"`
}

// errHelp is returned by parse when --help was requested and printed.
var errHelp = errors.New("help requested")

func buildParser(opts *Options) *goflags.Parser {
	parser := goflags.NewParser(opts, goflags.Default)
	parser.Name = "countygraph"
	parser.LongDescription = "Aggregate county-level case and death counts into one county/state graph snapshot per day."
	return parser
}

func parse(args []string) (*Options, error) {
	var opts Options
	if _, err := buildParser(&opts).ParseArgs(args); err != nil {
		var flagsErr *goflags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == goflags.ErrHelp {
			return nil, errHelp
		}
		return nil, err
	}
	if opts.Shards < 0 || opts.Concurrency < 0 {
		return nil, errors.New("--shards and --concurrency must not be negative")
	}
	return &opts, nil
}

// apply overlays explicitly set flags onto cfg.
func (o *Options) apply(cfg *config.Config) {
	if o.Shards > 0 {
		cfg.Shards = o.Shards
	}
	if o.Concurrency > 0 {
		cfg.EmitConcurrency = o.Concurrency
	}
	if o.Compact {
		cfg.OutputPretty = false
	}
}

// Run parses args, loads env config and runs one batch. It returns nil when
// --help is requested.
func Run(ctx context.Context, args []string) error {
	opts, err := parse(args)
	if errors.Is(err, errHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return err
	}
	opts.apply(cfg)

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	return execute(ctx, cfg, opts, logger, observability.NewMetrics(), clockwork.NewRealClock())
}

func execute(ctx context.Context, cfg *config.Config, opts *Options, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) error {
	sinks := []pipeline.Sink{
		{Name: "file", Loader: jsonfile.NewWriter(opts.Args.OutputDir, cfg.OutputPretty, logger)},
	}
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, clock, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		sinks = append(sinks, pipeline.Sink{Name: "kafka", Loader: writer})
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	}

	p := pipeline.New(
		jsonfile.NewReader(opts.Args.Input, logger),
		pipeline.NewFanOut(metrics, sinks...),
		logger,
		metrics,
		pipeline.Options{Shards: cfg.Shards, Concurrency: cfg.EmitConcurrency, Clock: clock},
	)

	if cfg.MetricsAddr != "" {
		srv := httpadapter.NewServer(cfg.MetricsAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	logger.Info("run started",
		"input", opts.Args.Input,
		"output_dir", opts.Args.OutputDir,
		"shards", cfg.Shards,
		"concurrency", cfg.EmitConcurrency,
	)

	report, err := p.Run(ctx)
	if err != nil {
		logger.Error("run failed", "error", err, "loaded", report.Loaded, "failed", report.Failed)
		return err
	}
	logger.Info("run complete",
		"records", report.Records,
		"unknown_kind", report.UnknownKind,
		"dates", report.Dates,
		"snapshots", report.Loaded,
	)
	return nil
}
