package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/county-graph-etl/internal/config"
	"github.com/couchcryptid/county-graph-etl/internal/domain"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the adapter uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes graph snapshots to a Kafka topic, one message per date.
// It implements pipeline.Loader.
type Writer struct {
	writer messageWriter
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, clock: clock, logger: logger}
}

// Load publishes g keyed by its timestamp, so every snapshot for a date lands
// on the same partition.
func (w *Writer) Load(ctx context.Context, g domain.Graph) error {
	msg, err := serializeToMessage(g, w.clock.Now())
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish snapshot %s: %w", g.Timestamp, err)
	}
	w.logger.Debug("snapshot published", "timestamp", g.Timestamp, "bytes", len(msg.Value))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a graph into a Kafka message.
func serializeToMessage(g domain.Graph, publishedAt time.Time) (kafkago.Message, error) {
	data, err := domain.MarshalGraph(g, false)
	if err != nil {
		return kafkago.Message{}, err
	}
	return kafkago.Message{
		Key:   []byte(g.Timestamp),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "snapshot_date", Value: []byte(g.Timestamp)},
			{Key: "node_count", Value: []byte(strconv.Itoa(len(g.Nodes)))},
			{Key: "published_at", Value: []byte(publishedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
