package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalGraph serializes a graph as JSON. encoding/json writes map keys in
// sorted order and BuildGraph sorts nodes and edges, so identical graphs
// always produce identical bytes. Pretty output ends with a newline.
func MarshalGraph(g Graph, pretty bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(g, "", "  ")
	} else {
		data, err = json.Marshal(g)
	}
	if err != nil {
		return nil, fmt.Errorf("serialize graph %s: %w", g.Timestamp, err)
	}
	if pretty {
		data = append(data, '\n')
	}
	return data, nil
}

// UnmarshalGraph parses a graph produced by MarshalGraph. Unknown fields are
// rejected.
func UnmarshalGraph(data []byte) (Graph, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var g Graph
	if err := dec.Decode(&g); err != nil {
		return Graph{}, fmt.Errorf("parse graph: %w", err)
	}
	return g, nil
}
