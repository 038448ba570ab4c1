package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"tally/internal/auth"
	"tally/internal/core"
)

type transactionJSON struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          t.ID,
		Kind:        string(t.Kind),
		Title:       t.Title,
		AmountCents: t.Amount.Cents,
		Amount:      t.Amount.Format(),
		Category:    t.Category,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type totalsJSON struct {
	IncomeCents  int64  `json:"income_cents"`
	ExpenseCents int64  `json:"expense_cents"`
	BalanceCents int64  `json:"balance_cents"`
	Income       string `json:"income"`
	Expense      string `json:"expense"`
	Balance      string `json:"balance"`
}

func toTotalsJSON(o core.Overview) totalsJSON {
	return totalsJSON{
		IncomeCents:  o.Income.Cents,
		ExpenseCents: o.Expense.Cents,
		BalanceCents: o.Balance.Cents,
		Income:       o.Income.Format(),
		Expense:      o.Expense.Format(),
		Balance:      o.Balance.Format(),
	}
}

type listResponse struct {
	Transactions []transactionJSON `json:"transactions"`
	Page         int               `json:"page"`
	TotalPages   int               `json:"total_pages"`
	TotalCount   int               `json:"total_count"`
	Totals       totalsJSON        `json:"totals"`
	Query        string            `json:"query"`
}

// handleListTransactions applies the view parameters to the owner's
// records and returns one page plus totals over the whole filtered set.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	ownerID, err := auth.OwnerFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	spec := core.ParseViewSpec(r.URL.Query())

	all, err := s.ownerRecords(r.Context(), ownerID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	filtered := core.FilterAndSort(all, spec)
	pageItems, totalPages := core.Paginate(filtered, spec.Page, s.pageSize)

	transactions := make([]transactionJSON, 0, len(pageItems))
	for _, t := range pageItems {
		transactions = append(transactions, toTransactionJSON(t))
	}

	// The shareable query string must name the page actually served.
	spec.Page = core.ClampPage(spec.Page, len(filtered), s.pageSize)

	NewJSONResponse().Payload(listResponse{
		Transactions: transactions,
		Page:         spec.Page,
		TotalPages:   totalPages,
		TotalCount:   len(filtered),
		Totals:       toTotalsJSON(core.Totals(filtered)),
		Query:        spec.Encode(),
	}).Write(w, r)
}

type mutationRequest struct {
	Kind     string `json:"kind"`
	Title    string `json:"title"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
}

func (m mutationRequest) parse() (core.Kind, core.RecordFields, error) {
	kind := core.Kind(m.Kind)
	if err := kind.Validate(); err != nil {
		return "", core.RecordFields{}, err
	}
	cents, err := core.ParseDecimalToCents(m.Amount)
	if err != nil {
		return "", core.RecordFields{}, fmt.Errorf("%w: %v", core.ErrInvalidAmount, err)
	}
	return kind, core.RecordFields{
		Title:    m.Title,
		Amount:   core.Money{Cents: cents},
		Category: m.Category,
	}, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ownerID, err := auth.OwnerFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var body mutationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		NewJSONResponse().Status(http.StatusBadRequest).Error("invalid body").Write(w, r)
		return
	}
	kind, fields, err := body.parse()
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.svc.Create(r.Context(), ownerID, kind, fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.records.Invalidate(ownerID)

	NewJSONResponse().Status(http.StatusCreated).Payload(toTransactionJSON(created)).Write(w, r)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	ownerID, err := auth.OwnerFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	id := r.PathValue("id")
	var body mutationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		NewJSONResponse().Status(http.StatusBadRequest).Error("invalid body").Write(w, r)
		return
	}
	kind, fields, err := body.parse()
	if err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := s.svc.Update(r.Context(), ownerID, kind, id, fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.records.Invalidate(ownerID)

	NewJSONResponse().Payload(toTransactionJSON(updated)).Write(w, r)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ownerID, err := auth.OwnerFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	id := r.PathValue("id")
	kind := core.Kind(r.URL.Query().Get("kind"))
	if err := kind.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.svc.Delete(r.Context(), ownerID, kind, id); err != nil {
		writeError(w, r, err)
		return
	}
	s.records.Invalidate(ownerID)

	w.WriteHeader(http.StatusNoContent)
}
