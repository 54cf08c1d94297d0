package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"duit/internal/core"
	"duit/internal/ledger/memory"
)

const testToken = "test-token"

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()

	store := memory.New()
	base := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	var tick int
	store.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	})

	auth := NewStaticTokens(map[string]int64{testToken: 1, "other-token": 2})
	s := NewServer(":0", store, nil, auth)
	s.now = func() time.Time { return time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { s.rateLimiter.stop() })
	return s, store
}

func doRequest(t *testing.T, s *Server, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func createCategory(t *testing.T, s *Server, token, name, kind string) core.Category {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"type":%q}`, name, kind)
	rec := doRequest(t, s, http.MethodPost, "/api/categories", token, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category: status %d, body %s", rec.Code, rec.Body.String())
	}
	var c core.Category
	decodeJSON(t, rec, &c)
	return c
}

func createTransaction(t *testing.T, s *Server, token string, catID int64, amount, desc, date, kind string) core.Transaction {
	t.Helper()
	body := fmt.Sprintf(`{"category_id":%d,"amount":%s,"description":%q,"transaction_date":%q,"type":%q}`,
		catID, amount, desc, date, kind)
	rec := doRequest(t, s, http.MethodPost, "/api/transactions", token, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction: status %d, body %s", rec.Code, rec.Body.String())
	}
	var tx core.Transaction
	decodeJSON(t, rec, &tx)
	return tx
}

func TestHealthEndpointsNeedNoAuth(t *testing.T) {
	s, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doRequest(t, s, http.MethodGet, path, "", "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status %d, want 200", path, rec.Code)
		}
	}
}

func TestAPIRequiresAuth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/dashboard", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status %d, want 401", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/dashboard", "wrong-token", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status %d, want 401", rec.Code)
	}
}

func TestTransactionCRUD(t *testing.T) {
	s, _ := newTestServer(t)

	cat := createCategory(t, s, testToken, "Groceries", "expense")
	tx := createTransaction(t, s, testToken, cat.ID, "42.5", "weekly shop", "2024-06-10", "expense")

	if tx.ID == 0 || tx.Owner != 1 {
		t.Fatalf("created %+v", tx)
	}

	rec := doRequest(t, s, http.MethodGet, fmt.Sprintf("/api/transactions/%d", tx.ID), testToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d", rec.Code)
	}
	var got core.Transaction
	decodeJSON(t, rec, &got)
	if got.Description != "weekly shop" || got.Amount.String() != "42.5" {
		t.Errorf("got %+v", got)
	}

	rec = doRequest(t, s, http.MethodPut, fmt.Sprintf("/api/transactions/%d", tx.ID), testToken,
		`{"description":"monthly shop"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d, body %s", rec.Code, rec.Body.String())
	}
	decodeJSON(t, rec, &got)
	if got.Description != "monthly shop" {
		t.Errorf("updated description = %q", got.Description)
	}

	rec = doRequest(t, s, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", tx.ID), testToken, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, fmt.Sprintf("/api/transactions/%d", tx.ID), testToken, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: status %d, want 404", rec.Code)
	}
}

func TestCreateTransactionRejections(t *testing.T) {
	s, _ := newTestServer(t)

	cat := createCategory(t, s, testToken, "Groceries", "expense")
	foreign := createCategory(t, s, "other-token", "Theirs", "expense")

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed body", `{nope`, http.StatusBadRequest},
		{"zero amount", fmt.Sprintf(`{"category_id":%d,"amount":0,"description":"x","transaction_date":"2024-06-10","type":"expense"}`, cat.ID), http.StatusBadRequest},
		{"blank description", fmt.Sprintf(`{"category_id":%d,"amount":10,"description":"  ","transaction_date":"2024-06-10","type":"expense"}`, cat.ID), http.StatusBadRequest},
		{"bad kind", fmt.Sprintf(`{"category_id":%d,"amount":10,"description":"x","transaction_date":"2024-06-10","type":"transfer"}`, cat.ID), http.StatusBadRequest},
		{"foreign category", fmt.Sprintf(`{"category_id":%d,"amount":10,"description":"x","transaction_date":"2024-06-10","type":"expense"}`, foreign.ID), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodPost, "/api/transactions", testToken, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestOwnersAreIsolated(t *testing.T) {
	s, _ := newTestServer(t)

	cat := createCategory(t, s, testToken, "Groceries", "expense")
	tx := createTransaction(t, s, testToken, cat.ID, "10", "mine", "2024-06-10", "expense")

	rec := doRequest(t, s, http.MethodGet, fmt.Sprintf("/api/transactions/%d", tx.ID), "other-token", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign get: status %d, want 404", rec.Code)
	}

	rec = doRequest(t, s, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", tx.ID), "other-token", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign delete: status %d, want 404", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/transactions", "other-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("foreign list: status %d", rec.Code)
	}
	var rows []core.Transaction
	decodeJSON(t, rec, &rows)
	if len(rows) != 0 {
		t.Fatalf("foreign list: got %d rows, want 0", len(rows))
	}
}

func TestListTransactionsFilters(t *testing.T) {
	s, _ := newTestServer(t)

	cat := createCategory(t, s, testToken, "Groceries", "expense")
	pay := createCategory(t, s, testToken, "Salary", "income")

	createTransaction(t, s, testToken, cat.ID, "10", "a", "2024-06-10", "expense")
	b := createTransaction(t, s, testToken, pay.ID, "2000", "b", "2024-06-15", "income")
	createTransaction(t, s, testToken, cat.ID, "15", "c", "2024-06-20", "expense")

	rec := doRequest(t, s, http.MethodGet, "/api/transactions?type=income", testToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var rows []core.Transaction
	decodeJSON(t, rec, &rows)
	if len(rows) != 1 || rows[0].ID != b.ID {
		t.Fatalf("type filter: got %v", rows)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/transactions?limit=2&offset=1", testToken, "")
	decodeJSON(t, rec, &rows)
	if len(rows) != 2 {
		t.Fatalf("pagination: got %d rows, want 2", len(rows))
	}

	for _, target := range []string{
		"/api/transactions?limit=0",
		"/api/transactions?offset=-1",
		"/api/transactions?type=transfer",
		"/api/transactions?start_date=2024-06-20&end_date=2024-06-10",
		"/api/transactions?start_date=june-first",
		"/api/transactions?category_id=abc",
	} {
		rec = doRequest(t, s, http.MethodGet, target, testToken, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", target, rec.Code)
		}
	}
}

func TestSummaryEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	cat := createCategory(t, s, testToken, "Salary", "income")
	createTransaction(t, s, testToken, cat.ID, "1500", "pay", "2024-06-01", "income")

	rec := doRequest(t, s, http.MethodGet, "/api/summary?month=6&year=2024", testToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	var summary core.PeriodSummary
	decodeJSON(t, rec, &summary)
	if summary.Month != 6 || summary.Year != 2024 {
		t.Errorf("period = %d/%d", summary.Month, summary.Year)
	}
	if summary.TotalIncome.String() != "1500" || summary.TransactionCount != 1 {
		t.Errorf("summary = %+v", summary)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/summary?month=13&year=2024", testToken, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad month: status %d, want 400", rec.Code)
	}
}

func TestDashboardEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	cat := createCategory(t, s, testToken, "Groceries", "expense")
	createTransaction(t, s, testToken, cat.ID, "99.5", "shop", "2024-06-10", "expense")

	rec := doRequest(t, s, http.MethodGet, "/api/dashboard", testToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}

	var view core.DashboardView
	decodeJSON(t, rec, &view)
	if view.CurrentMonth.Month != 6 || view.CurrentMonth.Year != 2024 {
		t.Errorf("current month = %d/%d", view.CurrentMonth.Month, view.CurrentMonth.Year)
	}
	if len(view.Recent) != 1 {
		t.Errorf("recent = %d rows", len(view.Recent))
	}
	if len(view.Categories) != 1 || view.Categories[0].Category.Name != "Groceries" {
		t.Errorf("categories = %+v", view.Categories)
	}
	if len(view.Trend) != 1 {
		t.Errorf("trend = %+v", view.Trend)
	}
}

func TestExportEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	cat := createCategory(t, s, testToken, "Groceries", "expense")
	createTransaction(t, s, testToken, cat.ID, "12.5", "shop", "2024-06-10", "expense")

	rec := doRequest(t, s, http.MethodGet, "/api/export?start_date=2024-06-01&end_date=2024-06-30&format=csv", testToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "transactions_2024-06-01_2024-06-30.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.HasPrefix(rec.Body.String(), "ID,Amount,Description,Transaction Date,Type,Category Name,Category Type,Created At\n") {
		t.Errorf("body = %q", rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodGet, "/api/export?start_date=2024-06-01&end_date=2024-06-30&format=json", testToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("json export: status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	// Missing dates and unknown formats are caller errors.
	rec = doRequest(t, s, http.MethodGet, "/api/export?format=csv", testToken, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing dates: status %d, want 400", rec.Code)
	}
	rec = doRequest(t, s, http.MethodGet, "/api/export?start_date=2024-06-01&end_date=2024-06-30&format=xml", testToken, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad format: status %d, want 400", rec.Code)
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/categories", testToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("empty list body = %q, want []", got)
	}

	createCategory(t, s, testToken, "Rent", "expense")
	createCategory(t, s, "other-token", "Theirs", "income")

	rec = doRequest(t, s, http.MethodGet, "/api/categories", testToken, "")
	var cats []core.Category
	decodeJSON(t, rec, &cats)
	if len(cats) != 1 || cats[0].Name != "Rent" {
		t.Fatalf("got %v", cats)
	}

	rec = doRequest(t, s, http.MethodPost, "/api/categories", testToken, `{"name":"  ","type":"expense"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank name: status %d, want 400", rec.Code)
	}
}
