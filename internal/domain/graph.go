package domain

import (
	"sort"
	"time"
)

// Extra field names on county nodes.
const (
	FieldDisplayName = "display_name"
	FieldState       = "state"
)

// Node is a county or state in a snapshot graph.
type Node struct {
	Name          string            `json:"name"`
	Metrics       map[string]int64  `json:"metrics"`
	EdgesDirected []string          `json:"edges_directed"`
	ExtraFields   map[string]string `json:"extra_fields"`
}

// IsCounty reports whether n is a county node.
func (n Node) IsCounty() bool {
	_, ok := n.ExtraFields[FieldState]
	return ok
}

// Graph is the snapshot for one date.
type Graph struct {
	Timestamp string `json:"timestamp"`
	Nodes     []Node `json:"nodes"`
}

// stateAccumulator collects a state node's metrics and edge set while
// counties are visited.
type stateAccumulator struct {
	confirmed int64
	deaths    int64
	counties  map[string]struct{}
}

// BuildGraph assembles the graph for one date: a node per county followed by
// a node per state. County nodes are ordered by (state, county), state nodes
// by name, and each state's edges are sorted.
func BuildGraph(date time.Time, bucket DateBucket) Graph {
	nodes := make([]Node, 0, len(bucket))
	states := make(map[string]*stateAccumulator)

	for _, key := range bucket.Keys() {
		county := bucket[key]
		name := key.String()

		st, ok := states[county.State]
		if !ok {
			st = &stateAccumulator{counties: make(map[string]struct{})}
			states[county.State] = st
		}
		st.confirmed += county.Confirmed
		st.deaths += county.Deaths
		st.counties[name] = struct{}{}

		nodes = append(nodes, Node{
			Name: name,
			Metrics: map[string]int64{
				MetricConfirmed: county.Confirmed,
				MetricDeaths:    county.Deaths,
			},
			EdgesDirected: []string{},
			ExtraFields: map[string]string{
				FieldDisplayName: county.DisplayName,
				FieldState:       county.State,
			},
		})
	}

	stateNames := make([]string, 0, len(states))
	for name := range states {
		stateNames = append(stateNames, name)
	}
	sort.Strings(stateNames)

	for _, name := range stateNames {
		st := states[name]
		nodes = append(nodes, Node{
			Name: name,
			Metrics: map[string]int64{
				MetricConfirmed: st.confirmed,
				MetricDeaths:    st.deaths,
			},
			EdgesDirected: sortedSet(st.counties),
			ExtraFields:   map[string]string{},
		})
	}

	return Graph{Timestamp: FormatDate(date), Nodes: nodes}
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
