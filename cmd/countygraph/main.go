// Command countygraph aggregates a county-level case/death export into one
// county/state graph snapshot per day.
//
// Usage:
//
//	countygraph [--shards N] [--concurrency N] [--compact] INPUT OUTPUT_DIR
//
// Runtime settings (log level, Kafka sink, metrics server) come from the
// environment; see internal/config.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/county-graph-etl/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cli.Run(ctx, os.Args[1:])
	stop()
	if err != nil {
		os.Exit(1)
	}
}
