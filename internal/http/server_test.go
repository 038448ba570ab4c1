package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tally/internal/auth"
	"tally/internal/memory"
	"tally/internal/services"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := memory.New()
	svc := services.NewTransactionService(store, nil)
	authSvc := auth.NewService(store, "test-secret")
	s := NewServer(":0", svc, authSvc, 6)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func do(t *testing.T, s *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func signup(t *testing.T, s *Server, email string) string {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":"correct-horse","full_name":"Test"}`, email)
	rec := do(t, s, http.MethodPost, "/api/signup", "", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode signup response: %v", err)
	}
	return resp.Token
}

func createTransaction(t *testing.T, s *Server, token, kind, title, category, amount string) transactionJSON {
	t.Helper()
	body := fmt.Sprintf(`{"kind":%q,"title":%q,"amount":%q,"category":%q}`, kind, title, amount, category)
	rec := do(t, s, http.MethodPost, "/api/transactions", token, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created transactionJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created transaction: %v", err)
	}
	return created
}

func TestSignupLoginFlow(t *testing.T) {
	s := newTestServer(t)

	token := signup(t, s, "ada@example.com")
	if token == "" {
		t.Fatal("signup returned empty token")
	}

	rec := do(t, s, http.MethodPost, "/api/signup", "", `{"email":"ada@example.com","password":"correct-horse"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate signup status = %d, want 409", rec.Code)
	}

	rec = do(t, s, http.MethodPost, "/api/login", "", `{"email":"ada@example.com","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want 401", rec.Code)
	}

	rec = do(t, s, http.MethodPost, "/api/login", "", `{"email":"ada@example.com","password":"correct-horse"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestTransactionsRequireAuth(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/transactions", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated list status = %d, want 401", rec.Code)
	}
}

func TestCreateAndListTransactions(t *testing.T) {
	s := newTestServer(t)
	token := signup(t, s, "ada@example.com")

	createTransaction(t, s, token, "Expense", "Groceries", "Food", "45.00")
	createTransaction(t, s, token, "Expense", "Taxi", "Transport", "12.50")
	createTransaction(t, s, token, "Income", "Salary", "Salary", "5000.00")

	rec := do(t, s, http.MethodGet, "/api/transactions", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp listResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if resp.TotalCount != 3 || len(resp.Transactions) != 3 {
		t.Fatalf("list returned %d/%d records, want 3", len(resp.Transactions), resp.TotalCount)
	}
	if resp.Totals.IncomeCents != 500000 || resp.Totals.ExpenseCents != 5750 {
		t.Errorf("totals = %+v", resp.Totals)
	}
	if resp.Totals.BalanceCents != 494250 {
		t.Errorf("balance = %d, want 494250", resp.Totals.BalanceCents)
	}
}

func TestListFiltersByTypeAndSearch(t *testing.T) {
	s := newTestServer(t)
	token := signup(t, s, "ada@example.com")

	createTransaction(t, s, token, "Expense", "Groceries", "Food", "45.00")
	createTransaction(t, s, token, "Income", "Salary", "Salary", "5000.00")

	rec := do(t, s, http.MethodGet, "/api/transactions?type=Income", token, "")
	var resp listResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalCount != 1 || resp.Transactions[0].Kind != "Income" {
		t.Fatalf("type filter returned %+v", resp.Transactions)
	}

	rec = do(t, s, http.MethodGet, "/api/transactions?search=groc", token, "")
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalCount != 1 || resp.Transactions[0].Title != "Groceries" {
		t.Fatalf("search filter returned %+v", resp.Transactions)
	}
}

func TestListPaginationClampsPage(t *testing.T) {
	s := newTestServer(t)
	token := signup(t, s, "ada@example.com")

	for i := 0; i < 8; i++ {
		createTransaction(t, s, token, "Expense", fmt.Sprintf("Item %d", i), "Food", "1.00")
	}

	rec := do(t, s, http.MethodGet, "/api/transactions?page=99", token, "")
	var resp listResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalPages != 2 {
		t.Fatalf("total_pages = %d, want 2", resp.TotalPages)
	}
	if resp.Page != 2 {
		t.Fatalf("page = %d, want clamp to 2", resp.Page)
	}
	if len(resp.Transactions) != 2 {
		t.Fatalf("last page has %d records, want 2", len(resp.Transactions))
	}
	if resp.Query != "page=2" {
		t.Fatalf("query = %q, want the clamped page", resp.Query)
	}
}

func TestUpdateAndDeleteTransaction(t *testing.T) {
	s := newTestServer(t)
	token := signup(t, s, "ada@example.com")

	created := createTransaction(t, s, token, "Expense", "Groceries", "Food", "45.00")

	body := `{"kind":"Expense","title":"Weekly groceries","amount":"50.00","category":"Food"}`
	rec := do(t, s, http.MethodPut, "/api/transactions/"+created.ID, token, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}
	var updated transactionJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Title != "Weekly groceries" || updated.AmountCents != 5000 {
		t.Errorf("update result = %+v", updated)
	}
	if updated.CreatedAt != created.CreatedAt {
		t.Errorf("update changed created_at from %s to %s", created.CreatedAt, updated.CreatedAt)
	}

	rec = do(t, s, http.MethodDelete, "/api/transactions/"+created.ID+"?kind=Expense", token, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = do(t, s, http.MethodDelete, "/api/transactions/"+created.ID+"?kind=Expense", token, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestMutationsAreOwnerScoped(t *testing.T) {
	s := newTestServer(t)
	ada := signup(t, s, "ada@example.com")
	bob := signup(t, s, "bob@example.com")

	created := createTransaction(t, s, ada, "Expense", "Groceries", "Food", "45.00")

	rec := do(t, s, http.MethodDelete, "/api/transactions/"+created.ID+"?kind=Expense", bob, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("cross-owner delete status = %d, want 404", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/api/transactions", bob, "")
	var resp listResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalCount != 0 {
		t.Fatalf("other owner sees %d records, want 0", resp.TotalCount)
	}
}

func TestValidationErrors(t *testing.T) {
	s := newTestServer(t)
	token := signup(t, s, "ada@example.com")

	rec := do(t, s, http.MethodPost, "/api/transactions", token,
		`{"kind":"Expense","title":"","amount":"10.00","category":"Food"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty title status = %d, want 422", rec.Code)
	}

	rec = do(t, s, http.MethodPost, "/api/transactions", token,
		`{"kind":"Expense","title":"`+strings.Repeat("x", 201)+`","amount":"10.00","category":"Food"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("title too long status = %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "title too long") {
		t.Fatalf("title too long body = %s, want validation message", rec.Body.String())
	}

	rec = do(t, s, http.MethodPost, "/api/transactions", token,
		`{"kind":"Expense","title":"X","amount":"nope","category":"Food"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad amount status = %d, want 422", rec.Code)
	}

	rec = do(t, s, http.MethodPost, "/api/transactions", token,
		`{"kind":"Loan","title":"X","amount":"10.00","category":"Food"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad kind status = %d, want 422", rec.Code)
	}

	rec = do(t, s, http.MethodPost, "/api/transactions", token,
		`{"kind":"Expense","title":"X","amount":"10.00","category":"Salary"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("category of wrong kind status = %d, want 422", rec.Code)
	}
}

func TestCategorySummaryEndpoint(t *testing.T) {
	s := newTestServer(t)
	token := signup(t, s, "ada@example.com")

	createTransaction(t, s, token, "Expense", "Groceries", "Food", "100.00")
	createTransaction(t, s, token, "Expense", "Dinner", "Food", "50.00")
	createTransaction(t, s, token, "Expense", "Taxi", "Transport", "50.00")
	createTransaction(t, s, token, "Income", "Salary", "Salary", "5000.00")

	rec := do(t, s, http.MethodGet, "/api/summary/categories?kind=Expense", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Kind       string                `json:"kind"`
		Categories []categorySummaryJSON `json:"categories"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Categories) != 2 {
		t.Fatalf("got %d categories, want 2", len(resp.Categories))
	}
	byName := map[string]categorySummaryJSON{}
	for _, c := range resp.Categories {
		byName[c.Category] = c
	}
	food := byName["Food"]
	if food.TotalCents != 15000 || food.Count != 2 || food.Percentage != 75.0 {
		t.Errorf("Food summary = %+v", food)
	}

	rec = do(t, s, http.MethodGet, "/api/summary/categories", token, "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("missing kind status = %d, want 422", rec.Code)
	}
}

func TestPeriodSummaryEndpoint(t *testing.T) {
	s := newTestServer(t)
	token := signup(t, s, "ada@example.com")

	createTransaction(t, s, token, "Expense", "Groceries", "Food", "45.00")
	createTransaction(t, s, token, "Income", "Salary", "Salary", "5000.00")

	rec := do(t, s, http.MethodGet, "/api/summary/periods?granularity=monthly", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("periods status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Periods []periodSummaryJSON `json:"periods"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Periods) != 1 {
		t.Fatalf("got %d periods, want 1", len(resp.Periods))
	}
	p := resp.Periods[0]
	if p.IncomeCents != 500000 || p.ExpenseCents != 4500 || p.TotalCents != 504500 {
		t.Errorf("period = %+v", p)
	}

	rec = do(t, s, http.MethodGet, "/api/summary/periods?granularity=daily", token, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad granularity status = %d, want 400", rec.Code)
	}
}

func TestPeriodSummaryEmptyReturnsNoData(t *testing.T) {
	s := newTestServer(t)
	token := signup(t, s, "ada@example.com")

	rec := do(t, s, http.MethodGet, "/api/summary/periods", token, "")
	var resp struct {
		Periods []periodSummaryJSON `json:"periods"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Periods) != 1 || resp.Periods[0].Period != "No Data" {
		t.Fatalf("empty periods = %+v", resp.Periods)
	}
}

func TestCacheInvalidatedAfterMutation(t *testing.T) {
	s := newTestServer(t)
	token := signup(t, s, "ada@example.com")

	createTransaction(t, s, token, "Expense", "Groceries", "Food", "45.00")

	// Prime the cache with a list call, then mutate and list again.
	do(t, s, http.MethodGet, "/api/transactions", token, "")
	createTransaction(t, s, token, "Expense", "Taxi", "Transport", "12.00")

	rec := do(t, s, http.MethodGet, "/api/transactions", token, "")
	var resp listResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalCount != 2 {
		t.Fatalf("list after mutation saw %d records, want 2", resp.TotalCount)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	if rec := do(t, s, http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/readyz", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("readyz status = %d", rec.Code)
	}
	rec := do(t, s, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "requests_total") {
		t.Fatalf("metrics body missing counters: %s", rec.Body.String())
	}
}
