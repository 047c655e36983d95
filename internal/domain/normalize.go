package domain

import "time"

// Normalize resolves an observation's timestamp to its UTC day and builds
// its county key. It accepts any input.
func Normalize(raw RawObservation) Observation {
	return Observation{
		Date:  DayOf(raw.TimestampMS),
		Key:   CountyKey{State: raw.State, County: raw.County},
		Kind:  raw.Kind,
		Value: raw.Value,
	}
}

// DayOf truncates epoch milliseconds to midnight UTC of the same day.
// Timestamps before the epoch floor to the earlier day.
func DayOf(ms int64) time.Time {
	t := time.UnixMilli(ms).UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a day as the graph timestamp, e.g. "2020-04-01T00:00:00Z".
func FormatDate(d time.Time) string {
	return d.UTC().Format(time.RFC3339)
}
