package model

import (
	"sort"
	"strings"
	"time"

	"opsboard/pkg/sheets"
)

// EmptyBucket collects rows with no value in the grouped column.
const EmptyBucket = "—"

type Order int

const (
	ByCount Order = iota
	ByDeskRank
)

type Bucket struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CountValues buckets values and sorts them by order. A limit of 0 keeps
// every bucket.
func CountValues(values []string, order Order, limit int) []Bucket {
	counts := make(map[string]int)
	for _, v := range values {
		k := strings.TrimSpace(v)
		if k == "" {
			k = EmptyBucket
		}
		counts[k]++
	}

	out := make([]Bucket, 0, len(counts))
	for v, c := range counts {
		out = append(out, Bucket{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if order == ByDeskRank {
			ra, rb := DeskRank(a.Value), DeskRank(b.Value)
			if ra != rb {
				return ra < rb
			}
			return a.Value < b.Value
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Value < b.Value
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// GroupCount counts rows per distinct value of column.
func GroupCount(rows []sheets.Row, column string, order Order, limit int) []Bucket {
	values := make([]string, len(rows))
	for i, r := range rows {
		values[i] = r.Get(column)
	}
	return CountValues(values, order, limit)
}

type DayCount struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}

// GroupByDate counts parseable dates in column per calendar day, ascending.
func GroupByDate(rows []sheets.Row, column string, loc *time.Location) []DayCount {
	var days []time.Time
	for _, r := range rows {
		if t, ok := ParseDateIn(r.Get(column), loc); ok {
			days = append(days, t)
		}
	}
	return CountDays(days)
}

// CountDays counts times per calendar day in their own location.
func CountDays(times []time.Time) []DayCount {
	counts := make(map[time.Time]int)
	for _, t := range times {
		counts[StartOfDay(t)]++
	}
	out := make([]DayCount, 0, len(counts))
	for d, c := range counts {
		out = append(out, DayCount{Day: d, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out
}
