package querybuilder

import (
	"fmt"
	"strings"
	"time"
)

// Query is a fragment of an OpenSearch request body
type Query = map[string]any

// Aggs maps aggregation names to their definitions
type Aggs = map[string]any

// Interval is a histogram bucket width requested by the dashboard
type Interval string

const (
	IntervalHour  Interval = "hour"
	IntervalDay   Interval = "day"
	IntervalWeek  Interval = "week"
	IntervalMonth Interval = "month"
)

const (
	// TimestampField is the document field all time filters apply to
	TimestampField = "timestamp"

	// HistogramFormat is the key_as_string format of date histogram buckets
	HistogramFormat = "yyyy-MM-dd'T'HH:mm:ssZ"

	// TermsBucketSize bounds terms aggregations that must return every key
	TermsBucketSize = 10000

	DefaultPageSize = 100
	MaxPageSize     = 1000
)

var (
	fixedIntervals = map[Interval]string{
		IntervalHour: "1h",
		IntervalDay:  "1d",
	}
	calendarIntervals = map[Interval]string{
		IntervalWeek:  "week",
		IntervalMonth: "month",
	}
)

// ParseInterval parses a dashboard interval name. The empty string yields
// the empty Interval, which callers treat as unset.
func ParseInterval(s string) (Interval, error) {
	i := Interval(strings.ToLower(strings.TrimSpace(s)))
	switch i {
	case "", IntervalHour, IntervalDay, IntervalWeek, IntervalMonth:
		return i, nil
	}
	return "", fmt.Errorf("invalid interval %q: must be hour, day, week or month", s)
}

// TimeRange is a closed time window applied to event queries
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether neither end of the range is set
func (r TimeRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// DateRange builds an inclusive range filter on the timestamp field
func DateRange(r TimeRange) Query {
	return Query{
		"range": Query{
			TimestampField: Query{
				"gte": r.Start.UTC().Format(time.RFC3339Nano),
				"lte": r.End.UTC().Format(time.RFC3339Nano),
			},
		},
	}
}

// EpochRange builds a half-open [start, end) range filter in epoch milliseconds
func EpochRange(start, end time.Time) Query {
	return Query{
		"range": Query{
			TimestampField: Query{
				"gte": start.UnixMilli(),
				"lt":  end.UnixMilli(),
			},
		},
	}
}

// Term builds an exact-match filter
func Term(field string, value any) Query {
	return Query{"term": Query{field: value}}
}

// Terms builds a filter matching any of the given values
func Terms(field string, values ...string) Query {
	return Query{"terms": Query{field: values}}
}

// DateHistogram builds a date_histogram aggregation over the timestamp field.
// Hour and day use fixed intervals, week and month calendar intervals, and
// anything else falls back to one day.
func DateHistogram(interval Interval) Query {
	histogram := Query{
		"field":         TimestampField,
		"min_doc_count": 0,
		"format":        HistogramFormat,
	}

	if fixed, ok := fixedIntervals[interval]; ok {
		histogram["fixed_interval"] = fixed
	} else if calendar, ok := calendarIntervals[interval]; ok {
		histogram["calendar_interval"] = calendar
	} else {
		histogram["fixed_interval"] = fixedIntervals[IntervalDay]
	}

	return Query{"date_histogram": histogram}
}

// Aggregation builds a terms aggregation named <field>_buckets, alongside a
// time_buckets histogram when an interval is given
func Aggregation(field string, interval Interval) Aggs {
	aggs := Aggs{}

	if interval != "" {
		aggs["time_buckets"] = DateHistogram(interval)
	}

	aggs[field+"_buckets"] = Query{
		"terms": Query{"field": field, "size": TermsBucketSize},
	}

	return aggs
}

// Paginated builds sort, size and search_after parameters for deep pagination.
// An undecodable cursor is ignored and the first page is returned.
func Paginated(cursor string, size int) Query {
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	query := Query{
		"sort": []any{
			Query{TimestampField: "desc"},
			Query{"_id": "desc"},
		},
		"size": size,
	}

	if cursor != "" {
		if after, err := DecodeCursor(cursor); err == nil {
			query["search_after"] = after
		}
	}

	return query
}

// Composite combines must conditions with optional _source fields,
// aggregations and pagination into a complete request body
func Composite(must []Query, source []string, aggs Aggs, pagination Query) Query {
	if must == nil {
		must = []Query{}
	}

	query := Query{
		"query": Query{
			"bool": Query{"must": must},
		},
	}

	if len(source) > 0 {
		query["_source"] = source
	}

	if len(aggs) > 0 {
		query["aggs"] = aggs
	}

	for k, v := range pagination {
		query[k] = v
	}

	return query
}
