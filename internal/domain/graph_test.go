package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countyNode(state, county string, confirmed, deaths int64) Node {
	return Node{
		Name:          state + " - " + county,
		Metrics:       map[string]int64{MetricConfirmed: confirmed, MetricDeaths: deaths},
		EdgesDirected: []string{},
		ExtraFields:   map[string]string{FieldDisplayName: county, FieldState: state},
	}
}

func stateNode(state string, confirmed, deaths int64, edges ...string) Node {
	return Node{
		Name:          state,
		Metrics:       map[string]int64{MetricConfirmed: confirmed, MetricDeaths: deaths},
		EdgesDirected: edges,
		ExtraFields:   map[string]string{},
	}
}

func TestBuildGraph_CountiesAndStates(t *testing.T) {
	agg := Fold([]RawObservation{
		obsAt(day1, "CA", "Alpha", 10, KindConfirmed),
		obsAt(day1, "CA", "Alpha", 2, KindDeaths),
		obsAt(day1, "CA", "Beta", 5, KindConfirmed),
		obsAt(day1, "NY", "Alpha", 7, KindConfirmed),
	})

	g := BuildGraph(day1, agg[day1])

	want := Graph{
		Timestamp: "2020-04-01T00:00:00Z",
		Nodes: []Node{
			countyNode("CA", "Alpha", 10, 2),
			countyNode("CA", "Beta", 5, 0),
			countyNode("NY", "Alpha", 7, 0),
			stateNode("CA", 15, 2, "CA - Alpha", "CA - Beta"),
			stateNode("NY", 7, 0, "NY - Alpha"),
		},
	}
	if diff := cmp.Diff(want, g); diff != "" {
		t.Fatalf("graph mismatch (-want +got):\n%s", diff)
	}
	require.NoError(t, CheckGraph(g))
}

func TestBuildGraph_EmptyBucket(t *testing.T) {
	g := BuildGraph(day1, DateBucket{})

	assert.Equal(t, "2020-04-01T00:00:00Z", g.Timestamp)
	assert.NotNil(t, g.Nodes)
	assert.Empty(t, g.Nodes)
	assert.NoError(t, CheckGraph(g))
}

func TestBuildGraph_StateSumInvariant(t *testing.T) {
	agg := Fold(randomRecords(1000))

	for _, date := range agg.Dates() {
		g := BuildGraph(date, agg[date])
		require.NoError(t, CheckGraph(g), date)

		counties := 0
		for _, n := range g.Nodes {
			if n.IsCounty() {
				counties++
			}
		}
		assert.Equal(t, len(agg[date]), counties)
	}
}

func TestBuildGraph_IndependentOfFoldOrder(t *testing.T) {
	records := randomRecords(300)
	reversed := make([]RawObservation, len(records))
	for i, r := range records {
		reversed[len(records)-1-i] = r
	}

	a := Fold(records)
	b := Fold(reversed)
	for _, date := range a.Dates() {
		assert.Empty(t, cmp.Diff(BuildGraph(date, a[date]), BuildGraph(date, b[date])))
	}
}
