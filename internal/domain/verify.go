package domain

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidGraph is wrapped by every CheckGraph failure.
var ErrInvalidGraph = errors.New("invalid graph")

// CheckGraph verifies a graph's structural invariants: node names are unique,
// every county's state has exactly one state node, each state node's edges are
// exactly its counties, and each state's metrics are the sum of its counties'.
func CheckGraph(g Graph) error {
	byName := make(map[string]Node, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, dup := byName[n.Name]; dup {
			return fmt.Errorf("%w: %s: duplicate node %q", ErrInvalidGraph, g.Timestamp, n.Name)
		}
		byName[n.Name] = n
	}

	expected := make(map[string]*stateAccumulator)
	for _, n := range g.Nodes {
		if !n.IsCounty() {
			continue
		}
		if len(n.EdgesDirected) != 0 {
			return fmt.Errorf("%w: %s: county %q has outgoing edges", ErrInvalidGraph, g.Timestamp, n.Name)
		}
		state := n.ExtraFields[FieldState]
		st, ok := expected[state]
		if !ok {
			st = &stateAccumulator{counties: make(map[string]struct{})}
			expected[state] = st
		}
		st.confirmed += n.Metrics[MetricConfirmed]
		st.deaths += n.Metrics[MetricDeaths]
		st.counties[n.Name] = struct{}{}
	}

	for _, n := range g.Nodes {
		if n.IsCounty() {
			continue
		}
		st, ok := expected[n.Name]
		if !ok {
			return fmt.Errorf("%w: %s: state %q has no counties", ErrInvalidGraph, g.Timestamp, n.Name)
		}
		if got := n.Metrics[MetricConfirmed]; got != st.confirmed {
			return fmt.Errorf("%w: %s: state %q confirmed=%d, counties sum to %d",
				ErrInvalidGraph, g.Timestamp, n.Name, got, st.confirmed)
		}
		if got := n.Metrics[MetricDeaths]; got != st.deaths {
			return fmt.Errorf("%w: %s: state %q deaths=%d, counties sum to %d",
				ErrInvalidGraph, g.Timestamp, n.Name, got, st.deaths)
		}
		edges := slices.Clone(n.EdgesDirected)
		slices.Sort(edges)
		if !slices.Equal(edges, sortedSet(st.counties)) {
			return fmt.Errorf("%w: %s: state %q edges %v do not match its counties %v",
				ErrInvalidGraph, g.Timestamp, n.Name, n.EdgesDirected, sortedSet(st.counties))
		}
	}

	for state := range expected {
		if n, ok := byName[state]; !ok || n.IsCounty() {
			return fmt.Errorf("%w: %s: no state node for %q", ErrInvalidGraph, g.Timestamp, state)
		}
	}
	return nil
}
