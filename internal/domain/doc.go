// Package domain models per-county epidemiological counts and the per-date
// county/state graphs built from them.
//
// # Data Source
//
// Observations come from a county-level COVID-19 export: a flat JSON array
// where each row carries one metric for one county on one day. Rows look like:
//
//	{"Date": 1585699200000, "County": "Kings", "State": "New York", "values": 12, "Type": "Confirmed"}
//
// Date is epoch milliseconds. Type is "Confirmed", "Deaths", or something else
// (recovered counts, testing counts) which is consumed but not accumulated.
//
// # Grouping
//
// Rows are grouped by UTC calendar day and by [CountyKey]. The key is the pair
// (state, county) so counties that share a name across states stay separate.
// The key is rendered as "State - County" only when it becomes a node name in
// the output graph.
//
// Values are summed. The export is assumed to report per-row deltas; if it
// ever reports running totals, duplicate rows for the same day and county
// would be double counted.
//
// # Aggregation
//
// [Fold] accumulates a slice of observations into an [Aggregation]. [Merge]
// combines two partial aggregations without mutating either, and is
// associative and commutative, so callers can fold shards in parallel and
// reduce them in any order.
//
// # Graphs
//
// [BuildGraph] turns one day's [DateBucket] into a [Graph]: one node per
// county and one node per state whose metrics are the sum of its counties and
// whose directed edges point at those counties. Node order, edge order and
// map keys are canonicalized so [MarshalGraph] is byte-stable across runs.
package domain
