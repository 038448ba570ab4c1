package core

import (
	"fmt"
	"math"
	"sort"
	"time"
)

const (
	MonthlyBuckets Granularity = "monthly"
	WeeklyBuckets  Granularity = "weekly"
)

// Granularity selects the time-bucket width for period summaries.
type Granularity string

// CategorySummary is one category's share of a single-kind record set.
type CategorySummary struct {
	Category   string
	Total      Money
	Count      int
	Percentage float64
}

// PeriodSummary is one time bucket with amounts split by kind. Total is
// the overall sum; Income and Expense are the per-kind sub-totals.
type PeriodSummary struct {
	Period  string
	Income  Money
	Expense Money
	Total   Money
}

// Overview carries the headline totals of a record set.
type Overview struct {
	Income  Money
	Expense Money
	Balance Money
}

// NoDataPeriod is the synthetic bucket label returned when a period
// summary has nothing to bucket, so chart consumers always get at least
// one point.
const NoDataPeriod = "No Data"

// SummarizeByCategory groups a single-kind record set by category and
// computes per-group totals, counts and percentage of the grand total.
// Groups appear in first-appearance order of their category in the input;
// percentages are 0 when the grand total is 0.
func SummarizeByCategory(records []Transaction) []CategorySummary {
	index := make(map[string]int)
	var out []CategorySummary
	var grand int64

	for _, r := range records {
		i, ok := index[r.Category]
		if !ok {
			i = len(out)
			index[r.Category] = i
			out = append(out, CategorySummary{Category: r.Category})
		}
		out[i].Total.Cents += r.Amount.Cents
		out[i].Count++
		grand += r.Amount.Cents
	}

	if grand > 0 {
		for i := range out {
			out[i].Percentage = float64(out[i].Total.Cents) / float64(grand) * 100
		}
	}
	return out
}

// SummarizeByPeriod buckets records by month or week and sums amounts per
// bucket, split by kind. An optional category filter ("" or "all" means no
// restriction) is applied before bucketing. Buckets are ordered by the
// lexicographic order of their rendered label, which coincides with
// chronology for the "Jan 2006" monthly labels but is not guaranteed in
// general.
func SummarizeByPeriod(records []Transaction, granularity Granularity, categoryFilter string) []PeriodSummary {
	index := make(map[string]int)
	var out []PeriodSummary

	for _, r := range records {
		if categoryFilter != "" && categoryFilter != "all" && r.Category != categoryFilter {
			continue
		}
		key := bucketKey(r.CreatedAt, granularity)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, PeriodSummary{Period: key})
		}
		switch r.Kind {
		case Income:
			out[i].Income.Cents += r.Amount.Cents
		default:
			out[i].Expense.Cents += r.Amount.Cents
		}
		out[i].Total.Cents += r.Amount.Cents
	}

	if len(out) == 0 {
		return []PeriodSummary{{Period: NoDataPeriod}}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// bucketKey renders the bucket label for a timestamp. The weekly week
// number is ceil((daysSinceJan1 + weekdayOfJan1 + 1) / 7) with Sunday as
// weekday 0 and a fractional day count. This is deliberately not ISO-8601
// week numbering and can roll oddly near year boundaries; the historical
// bucket boundaries depend on this exact formula.
func bucketKey(t time.Time, granularity Granularity) string {
	if granularity == WeeklyBuckets {
		jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
		days := float64(t.Sub(jan1)) / float64(24*time.Hour)
		week := int(math.Ceil((days + float64(jan1.Weekday()) + 1) / 7))
		return fmt.Sprintf("Week %d - %d", week, t.Year())
	}
	return t.Format("Jan 2006")
}

// Totals sums a record set into the headline overview figures.
// Balance is income minus expense and may be negative.
func Totals(records []Transaction) Overview {
	var o Overview
	for _, r := range records {
		switch r.Kind {
		case Income:
			o.Income.Cents += r.Amount.Cents
		default:
			o.Expense.Cents += r.Amount.Cents
		}
	}
	o.Balance.Cents = o.Income.Cents - o.Expense.Cents
	return o
}

// MergeByUpdated combines two record sets into one collection ordered by
// UpdatedAt descending, the "recently changed" ordering of history views.
// The inputs are not mutated.
func MergeByUpdated(a, b []Transaction) []Transaction {
	out := make([]Transaction, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}
