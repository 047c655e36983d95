package jsonfile

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/county-graph-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDecode(t *testing.T) {
	data := []byte(`[
		{"Date": 1585699200000, "County": "Kings", "State": "New York", "values": 12, "Type": "Confirmed"},
		{"Date": 1585699200000, "County": "Kings", "State": "New York", "values": 1, "Type": "Deaths", "Extra": "ignored"},
		{"Date": 1585699200000, "County": "Kings", "State": "New York", "values": 3, "Type": "Recovered"}
	]`)

	got, err := Decode(data)
	require.NoError(t, err)

	want := []domain.RawObservation{
		{TimestampMS: 1585699200000, County: "Kings", State: "New York", Value: 12, Kind: domain.KindConfirmed},
		{TimestampMS: 1585699200000, County: "Kings", State: "New York", Value: 1, Kind: domain.KindDeaths},
		{TimestampMS: 1585699200000, County: "Kings", State: "New York", Value: 3, Kind: domain.KindOther},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decode mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_Empty(t *testing.T) {
	got, err := Decode([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecode_Malformed(t *testing.T) {
	cases := []struct {
		name   string
		data   string
		errMsg string
	}{
		{name: "not json", data: `{oops`, errMsg: "parse input"},
		{name: "not an array", data: `{"Date": 1}`, errMsg: "parse input"},
		{name: "null document", data: `null`, errMsg: "input is not a JSON array"},
		{name: "null document with whitespace", data: " null\n", errMsg: "input is not a JSON array"},
		{name: "missing Date", data: `[{"County":"A","State":"B","values":1,"Type":"Confirmed"}]`, errMsg: `record 0: missing required field "Date"`},
		{name: "missing County", data: `[{"Date":1,"State":"B","values":1,"Type":"Confirmed"}]`, errMsg: `"County"`},
		{name: "missing State", data: `[{"Date":1,"County":"A","values":1,"Type":"Confirmed"}]`, errMsg: `"State"`},
		{name: "missing values", data: `[{"Date":1,"County":"A","State":"B","Type":"Confirmed"}]`, errMsg: `"values"`},
		{name: "missing Type", data: `[{"Date":1,"County":"A","State":"B","values":1}]`, errMsg: `"Type"`},
		{name: "null County", data: `[{"Date":1,"County":null,"State":"B","values":1,"Type":"Confirmed"}]`, errMsg: `"County"`},
		{name: "wrong type", data: `[{"Date":"yesterday","County":"A","State":"B","values":1,"Type":"Confirmed"}]`, errMsg: "record 0"},
		{name: "null record", data: `[{"Date":1,"County":"A","State":"B","values":1,"Type":"Confirmed"}, null]`, errMsg: "record 1: record is null"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestReader_Extract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"Date":0,"County":"A","State":"B","values":2,"Type":"Deaths"}]`), 0o644))

	got, err := NewReader(path, discardLogger()).Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.KindDeaths, got[0].Kind)
}

func TestReader_Extract_MissingFile(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "nope.json"), discardLogger()).Extract(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "2020-04-01T00-00-00Z.json", FileName("2020-04-01T00:00:00Z"))

	seen := map[string]bool{}
	day := time.Date(2019, time.December, 25, 0, 0, 0, 0, time.UTC)
	for range 800 {
		name := FileName(domain.FormatDate(day))
		assert.False(t, seen[name], name)
		seen[name] = true
		day = day.AddDate(0, 0, 1)
	}
}

func TestWriter_Load(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "nested")
	w := NewWriter(dir, true, discardLogger())

	agg := domain.Fold([]domain.RawObservation{
		{TimestampMS: 1585699200000, State: "CA", County: "Alpha", Value: 10, Kind: domain.KindConfirmed},
	})
	date := agg.Dates()[0]
	g := domain.BuildGraph(date, agg[date])

	require.NoError(t, w.Load(context.Background(), g))

	path := filepath.Join(dir, "2020-04-01T00-00-00Z.json")
	assert.Equal(t, path, w.Path(g))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	want, err := domain.MarshalGraph(g, true)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(data))

	back, err := domain.UnmarshalGraph(data)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(g, back))

	// No temp files are left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriter_Load_Overwrites(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, false, discardLogger())
	g := domain.BuildGraph(time.Date(2020, time.April, 1, 0, 0, 0, 0, time.UTC), domain.DateBucket{})

	require.NoError(t, w.Load(context.Background(), g))
	require.NoError(t, w.Load(context.Background(), g))

	data, err := os.ReadFile(w.Path(g))
	require.NoError(t, err)
	assert.JSONEq(t, `{"timestamp":"2020-04-01T00:00:00Z","nodes":[]}`, string(data))
}

func TestWriter_Load_UnwritableDir(t *testing.T) {
	// A regular file where the output directory should be.
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	w := NewWriter(blocker, true, discardLogger())
	err := w.Load(context.Background(), domain.BuildGraph(time.Unix(0, 0).UTC(), domain.DateBucket{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create output dir")
}

func TestWriter_Load_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewWriter(t.TempDir(), true, discardLogger())
	err := w.Load(ctx, domain.BuildGraph(time.Unix(0, 0).UTC(), domain.DateBucket{}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEncode_RoundTrip(t *testing.T) {
	records := []domain.RawObservation{
		{TimestampMS: 1585699200000, County: "Kings", State: "New York", Value: 12, Kind: domain.KindConfirmed},
		{TimestampMS: -5, County: "Alpha", State: "CA", Value: 0, Kind: domain.KindDeaths},
		{TimestampMS: 1, County: "Beta", State: "CA", Value: 4, Kind: domain.KindOther},
	}

	data, err := Encode(records)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Type": "Other"`)

	back, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, records, back)
}
