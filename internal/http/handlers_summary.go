package http

import (
	"net/http"

	"tally/internal/auth"
	"tally/internal/core"
)

type categorySummaryJSON struct {
	Category   string  `json:"category"`
	TotalCents int64   `json:"total_cents"`
	Total      string  `json:"total"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// handleCategorySummary breaks one kind's records down by category.
// The kind query parameter is required.
func (s *Server) handleCategorySummary(w http.ResponseWriter, r *http.Request) {
	ownerID, err := auth.OwnerFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	kind := core.Kind(r.URL.Query().Get("kind"))
	if err := kind.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	all, err := s.ownerRecords(r.Context(), ownerID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var ofKind []core.Transaction
	for _, t := range all {
		if t.Kind == kind {
			ofKind = append(ofKind, t)
		}
	}

	summaries := core.SummarizeByCategory(ofKind)
	out := make([]categorySummaryJSON, 0, len(summaries))
	for _, cs := range summaries {
		out = append(out, categorySummaryJSON{
			Category:   cs.Category,
			TotalCents: cs.Total.Cents,
			Total:      cs.Total.Format(),
			Count:      cs.Count,
			Percentage: cs.Percentage,
		})
	}

	NewJSONResponse().Payload(map[string]any{
		"kind":       string(kind),
		"categories": out,
	}).Write(w, r)
}

type periodSummaryJSON struct {
	Period       string `json:"period"`
	IncomeCents  int64  `json:"income_cents"`
	ExpenseCents int64  `json:"expense_cents"`
	TotalCents   int64  `json:"total_cents"`
	Income       string `json:"income"`
	Expense      string `json:"expense"`
	Total        string `json:"total"`
}

// handlePeriodSummary buckets the owner's records by month or week.
// Optional category parameter restricts the input; "all" or absent
// means no restriction.
func (s *Server) handlePeriodSummary(w http.ResponseWriter, r *http.Request) {
	ownerID, err := auth.OwnerFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	granularity := core.Granularity(r.URL.Query().Get("granularity"))
	switch granularity {
	case core.MonthlyBuckets, core.WeeklyBuckets:
	case "":
		granularity = core.MonthlyBuckets
	default:
		NewJSONResponse().Status(http.StatusBadRequest).Error("granularity must be monthly or weekly").Write(w, r)
		return
	}
	category := r.URL.Query().Get("category")

	all, err := s.ownerRecords(r.Context(), ownerID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	summaries := core.SummarizeByPeriod(all, granularity, category)
	out := make([]periodSummaryJSON, 0, len(summaries))
	for _, ps := range summaries {
		out = append(out, periodSummaryJSON{
			Period:       ps.Period,
			IncomeCents:  ps.Income.Cents,
			ExpenseCents: ps.Expense.Cents,
			TotalCents:   ps.Total.Cents,
			Income:       ps.Income.Format(),
			Expense:      ps.Expense.Format(),
			Total:        ps.Total.Format(),
		})
	}

	NewJSONResponse().Payload(map[string]any{
		"granularity": string(granularity),
		"category":    category,
		"periods":     out,
	}).Write(w, r)
}
