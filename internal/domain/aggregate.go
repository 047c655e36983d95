package domain

import (
	"sort"
	"time"
)

// CountyAggregate accumulates one county's metrics for one date.
type CountyAggregate struct {
	DisplayName string
	State       string
	Confirmed   int64
	Deaths      int64
}

// DateBucket holds every county aggregate observed on one date.
type DateBucket map[CountyKey]*CountyAggregate

// Upsert returns the aggregate for key, creating it with zero accumulators
// if it does not exist yet.
func (b DateBucket) Upsert(key CountyKey) *CountyAggregate {
	if agg, ok := b[key]; ok {
		return agg
	}
	agg := &CountyAggregate{DisplayName: key.County, State: key.State}
	b[key] = agg
	return agg
}

// Keys returns the bucket's keys ordered by state, then county.
func (b DateBucket) Keys() []CountyKey {
	keys := make([]CountyKey, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Aggregation maps a UTC day to its bucket.
type Aggregation map[time.Time]DateBucket

// Add accumulates one normalized observation. It reports whether the
// observation's kind was accumulated; KindOther observations still create
// their date and county entries but add nothing.
func (a Aggregation) Add(obs Observation) bool {
	bucket, ok := a[obs.Date]
	if !ok {
		bucket = make(DateBucket)
		a[obs.Date] = bucket
	}
	agg := bucket.Upsert(obs.Key)

	switch obs.Kind {
	case KindConfirmed:
		agg.Confirmed += obs.Value
	case KindDeaths:
		agg.Deaths += obs.Value
	default:
		return false
	}
	return true
}

// Dates returns the aggregation's dates in ascending order.
func (a Aggregation) Dates() []time.Time {
	dates := make([]time.Time, 0, len(a))
	for d := range a {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Fold accumulates records into a new Aggregation.
func Fold(records []RawObservation) Aggregation {
	out := make(Aggregation)
	for _, r := range records {
		out.Add(Normalize(r))
	}
	return out
}

// Merge returns the sum of two partial aggregations. Neither input is
// modified. Counties present on both sides have their metrics summed;
// counties present on one side are copied.
func Merge(a, b Aggregation) Aggregation {
	out := make(Aggregation, len(a)+len(b))
	mergeInto(out, a)
	mergeInto(out, b)
	return out
}

func mergeInto(dst, src Aggregation) {
	for date, srcBucket := range src {
		dstBucket, ok := dst[date]
		if !ok {
			dstBucket = make(DateBucket, len(srcBucket))
			dst[date] = dstBucket
		}
		for key, srcAgg := range srcBucket {
			dstAgg, ok := dstBucket[key]
			if !ok {
				copied := *srcAgg
				dstBucket[key] = &copied
				continue
			}
			dstAgg.Confirmed += srcAgg.Confirmed
			dstAgg.Deaths += srcAgg.Deaths
		}
	}
}
