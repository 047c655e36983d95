package domain

import "time"

// Kind identifies which metric an observation reports.
type Kind int

const (
	KindOther Kind = iota
	KindConfirmed
	KindDeaths
)

// Metric names used in graph nodes.
const (
	MetricConfirmed = "confirmed"
	MetricDeaths    = "deaths"
)

// ParseKind maps the upstream "Type" column to a Kind. Anything other than
// the exact strings "Confirmed" and "Deaths" is KindOther.
func ParseKind(s string) Kind {
	switch s {
	case "Confirmed":
		return KindConfirmed
	case "Deaths":
		return KindDeaths
	default:
		return KindOther
	}
}

func (k Kind) String() string {
	switch k {
	case KindConfirmed:
		return "Confirmed"
	case KindDeaths:
		return "Deaths"
	default:
		return "Other"
	}
}

// RawObservation is one row of the input dataset.
type RawObservation struct {
	TimestampMS int64
	County      string
	State       string
	Value       int64
	Kind        Kind
}

// CountyKey identifies a county within a date. State comes first so that
// identically named counties in different states never collide.
type CountyKey struct {
	State  string
	County string
}

// keySeparator joins state and county in rendered node names.
const keySeparator = " - "

// String renders the key as a node name, e.g. "CA - Alpha".
func (k CountyKey) String() string {
	return k.State + keySeparator + k.County
}

// Less orders keys by state, then county.
func (k CountyKey) Less(o CountyKey) bool {
	if k.State != o.State {
		return k.State < o.State
	}
	return k.County < o.County
}

// Observation is a normalized RawObservation.
type Observation struct {
	Date  time.Time
	Key   CountyKey
	Kind  Kind
	Value int64
}
