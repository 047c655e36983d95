package domain

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalGraph_Compact(t *testing.T) {
	g := Graph{
		Timestamp: "2020-04-01T00:00:00Z",
		Nodes: []Node{
			countyNode("NY", "Alpha", 7, 0),
			stateNode("NY", 7, 0, "NY - Alpha"),
		},
	}

	data, err := MarshalGraph(g, false)
	require.NoError(t, err)

	want := `{"timestamp":"2020-04-01T00:00:00Z","nodes":[` +
		`{"name":"NY - Alpha","metrics":{"confirmed":7,"deaths":0},"edges_directed":[],"extra_fields":{"display_name":"Alpha","state":"NY"}},` +
		`{"name":"NY","metrics":{"confirmed":7,"deaths":0},"edges_directed":["NY - Alpha"],"extra_fields":{}}]}`
	assert.Equal(t, want, string(data))
}

func TestMarshalGraph_PrettyEndsWithNewline(t *testing.T) {
	data, err := MarshalGraph(BuildGraph(day1, DateBucket{}), true)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(string(data), "}\n"))
	assert.Contains(t, string(data), "\n  \"nodes\": []")
}

func TestMarshalGraph_Deterministic(t *testing.T) {
	records := randomRecords(400)
	first := Fold(records)
	second := Fold(records)

	for _, date := range first.Dates() {
		a, err := MarshalGraph(BuildGraph(date, first[date]), true)
		require.NoError(t, err)
		b, err := MarshalGraph(BuildGraph(date, second[date]), true)
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b))
	}
}

func TestUnmarshalGraph_RoundTrip(t *testing.T) {
	agg := Fold(randomRecords(200))
	date := agg.Dates()[0]
	g := BuildGraph(date, agg[date])

	for _, pretty := range []bool{true, false} {
		data, err := MarshalGraph(g, pretty)
		require.NoError(t, err)

		back, err := UnmarshalGraph(data)
		require.NoError(t, err)
		if diff := cmp.Diff(g, back); diff != "" {
			t.Fatalf("pretty=%v roundtrip mismatch (-want +got):\n%s", pretty, diff)
		}
	}
}

func TestUnmarshalGraph_Invalid(t *testing.T) {
	_, err := UnmarshalGraph([]byte("{not json"))
	assert.Error(t, err)

	_, err = UnmarshalGraph([]byte(`{"timestamp":"x","nodes":[],"extra":1}`))
	assert.Error(t, err)
}
