package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/county-graph-etl/internal/domain"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func testGraph() domain.Graph {
	agg := domain.Fold([]domain.RawObservation{
		{TimestampMS: 1585699200000, State: "CA", County: "Alpha", Value: 10, Kind: domain.KindConfirmed},
		{TimestampMS: 1585699200000, State: "CA", County: "Beta", Value: 1, Kind: domain.KindDeaths},
	})
	date := agg.Dates()[0]
	return domain.BuildGraph(date, agg[date])
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	g := testGraph()

	msg, err := serializeToMessage(g, now)
	require.NoError(t, err)

	assert.Equal(t, []byte("2020-04-01T00:00:00Z"), msg.Key)
	assert.Contains(t, string(msg.Value), `"edges_directed":["CA - Alpha","CA - Beta"]`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "snapshot_date", msg.Headers[0].Key)
	assert.Equal(t, []byte("2020-04-01T00:00:00Z"), msg.Headers[0].Value)
	assert.Equal(t, "node_count", msg.Headers[1].Key)
	assert.Equal(t, []byte("3"), msg.Headers[1].Value)
	assert.Equal(t, "published_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)

	back, err := domain.UnmarshalGraph(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, g, back)
}

func TestWriter_Load(t *testing.T) {
	fw := &fakeWriter{}
	clock := clockwork.NewFakeClockAt(time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC))
	w := &Writer{writer: fw, clock: clock, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	require.NoError(t, w.Load(context.Background(), testGraph()))
	require.Len(t, fw.msgs, 1)
	assert.Equal(t, []byte("2024-04-26T15:10:00Z"), fw.msgs[0].Headers[2].Value)

	require.NoError(t, w.Close())
	assert.True(t, fw.closed)
}

func TestWriter_Load_Error(t *testing.T) {
	fw := &fakeWriter{err: errors.New("leader not available")}
	w := &Writer{writer: fw, clock: clockwork.NewFakeClock(), logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	err := w.Load(context.Background(), testGraph())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish snapshot 2020-04-01T00:00:00Z")
	assert.Contains(t, err.Error(), "leader not available")
}
