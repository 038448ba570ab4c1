package core

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Type filter values. TypeAll matches both kinds.
const (
	TypeAll     = "All"
	TypeIncome  = "Income"
	TypeExpense = "Expense"
)

// Sort fields and orders as they appear in query parameters.
const (
	SortByCreated = "created_at"
	SortByAmount  = "amount"
	OrderAsc      = "asc"
	OrderDesc     = "desc"
)

// DefaultPageSize is the fixed page size of list views.
const DefaultPageSize = 6

const dateLayout = "2006-01-02"

// ViewSpec describes which subset of transactions to show and in what
// order. A zero value is not usable; obtain defaults via DefaultViewSpec
// or ParseViewSpec.
type ViewSpec struct {
	TypeFilter string
	SearchTerm string
	// Inclusive bounds compared against CreatedAt at day granularity.
	// Zero time means the bound is absent.
	StartDate time.Time
	EndDate   time.Time
	SortField string
	SortOrder string
	Page      int
}

func DefaultViewSpec() ViewSpec {
	return ViewSpec{
		TypeFilter: TypeAll,
		SortField:  SortByCreated,
		SortOrder:  OrderDesc,
		Page:       1,
	}
}

// ParseViewSpec builds a ViewSpec from query parameters. Unknown or
// malformed values fall back to defaults rather than failing.
func ParseViewSpec(q url.Values) ViewSpec {
	spec := DefaultViewSpec()

	switch q.Get("type") {
	case TypeIncome:
		spec.TypeFilter = TypeIncome
	case TypeExpense:
		spec.TypeFilter = TypeExpense
	}
	spec.SearchTerm = strings.TrimSpace(q.Get("search"))
	if v := q.Get("start"); v != "" {
		if t, err := time.Parse(dateLayout, v); err == nil {
			spec.StartDate = t
		}
	}
	if v := q.Get("end"); v != "" {
		if t, err := time.Parse(dateLayout, v); err == nil {
			spec.EndDate = t
		}
	}
	if q.Get("sort") == SortByAmount {
		spec.SortField = SortByAmount
	}
	if q.Get("order") == OrderAsc {
		spec.SortOrder = OrderAsc
	}
	if v := q.Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			spec.Page = p
		}
	}
	return spec
}

// Values serializes the spec back into query parameters. Only non-default
// fields are emitted, so parse(encode(spec)) round-trips exactly.
func (s ViewSpec) Values() url.Values {
	q := url.Values{}
	if s.TypeFilter != TypeAll && s.TypeFilter != "" {
		q.Set("type", s.TypeFilter)
	}
	if s.SearchTerm != "" {
		q.Set("search", s.SearchTerm)
	}
	if !s.StartDate.IsZero() {
		q.Set("start", s.StartDate.Format(dateLayout))
	}
	if !s.EndDate.IsZero() {
		q.Set("end", s.EndDate.Format(dateLayout))
	}
	if s.SortField == SortByAmount {
		q.Set("sort", SortByAmount)
	}
	if s.SortOrder == OrderAsc {
		q.Set("order", OrderAsc)
	}
	if s.Page > 1 {
		q.Set("page", strconv.Itoa(s.Page))
	}
	return q
}

// Encode renders the spec as a canonical query string (keys sorted by
// url.Values.Encode).
func (s ViewSpec) Encode() string {
	return s.Values().Encode()
}

// Matches reports whether a single transaction passes every filter
// predicate of the spec. All predicates are conjunctive.
func (s ViewSpec) Matches(t Transaction) bool {
	if s.TypeFilter != TypeAll && s.TypeFilter != "" && string(t.Kind) != s.TypeFilter {
		return false
	}
	if s.SearchTerm != "" {
		needle := strings.ToLower(s.SearchTerm)
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Category), needle) {
			return false
		}
	}
	if !s.StartDate.IsZero() && dayOf(t.CreatedAt).Before(dayOf(s.StartDate)) {
		return false
	}
	if !s.EndDate.IsZero() && dayOf(t.CreatedAt).After(dayOf(s.EndDate)) {
		return false
	}
	return true
}

// FilterAndSort returns a new slice with the records that match the spec,
// ordered by the spec's sort field and direction. The sort is stable, so
// ties keep their input order; the input slice is never mutated.
func FilterAndSort(records []Transaction, spec ViewSpec) []Transaction {
	out := make([]Transaction, 0, len(records))
	for _, t := range records {
		if spec.Matches(t) {
			out = append(out, t)
		}
	}

	asc := spec.SortOrder == OrderAsc
	switch spec.SortField {
	case SortByAmount:
		sort.SliceStable(out, func(i, j int) bool {
			if asc {
				return out[i].Amount.Cents < out[j].Amount.Cents
			}
			return out[i].Amount.Cents > out[j].Amount.Cents
		})
	default:
		// CreatedAt ordering uses the full timestamp, not day granularity.
		sort.SliceStable(out, func(i, j int) bool {
			if asc {
				return out[i].CreatedAt.Before(out[j].CreatedAt)
			}
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	}
	return out
}

// Paginate slices one page out of an ordered sequence. totalPages is never
// below 1 and page is clamped into [1, totalPages], so an out-of-range page
// renders the nearest valid one instead of an empty list.
func Paginate(ordered []Transaction, page, pageSize int) (pageItems []Transaction, totalPages int) {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	totalPages = (len(ordered) + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * pageSize
	if start >= len(ordered) {
		return []Transaction{}, totalPages
	}
	end := start + pageSize
	if end > len(ordered) {
		end = len(ordered)
	}
	return ordered[start:end], totalPages
}

// ClampPage re-clamps a page number against the current filtered size.
// Callers use it after deletes or stricter filters shrink the result set.
func ClampPage(page, filteredCount, pageSize int) int {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	totalPages := (filteredCount + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
