package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"duit/internal/core"
	"duit/internal/report"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	view, err := s.dashboards.Build(r.Context(), Owner(r.Context()), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	month, year, err := parsePeriod(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary, err := s.summaries.Summarize(r.Context(), Owner(r.Context()), month, year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rows, err := s.filters.List(r.Context(), Owner(r.Context()), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, rows)
}

type createTransactionRequest struct {
	CategoryID  int64      `json:"category_id"`
	Amount      core.Money `json:"amount"`
	Description string     `json:"description"`
	Date        core.Date  `json:"transaction_date"`
	Kind        core.Kind  `json:"type"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, badRequest("invalid request body"))
		return
	}

	created, err := s.transactions.Create(r.Context(), core.Transaction{
		Owner:       Owner(r.Context()),
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Description: req.Description,
		Date:        req.Date,
		Kind:        req.Kind,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, badRequest("invalid transaction id"))
		return
	}

	tx, err := s.transactions.Get(r.Context(), Owner(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

type updateTransactionRequest struct {
	CategoryID  *int64      `json:"category_id"`
	Amount      *core.Money `json:"amount"`
	Description *string     `json:"description"`
	Date        *core.Date  `json:"transaction_date"`
	Kind        *core.Kind  `json:"type"`
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, badRequest("invalid transaction id"))
		return
	}

	var req updateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, badRequest("invalid request body"))
		return
	}

	updated, err := s.transactions.Update(r.Context(), Owner(r.Context()), id, core.TransactionPatch{
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Description: req.Description,
		Date:        req.Date,
		Kind:        req.Kind,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, badRequest("invalid transaction id"))
		return
	}

	if err := s.transactions.Delete(r.Context(), Owner(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.categories.List(r.Context(), Owner(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if cats == nil {
		cats = []core.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

type createCategoryRequest struct {
	Name  string    `json:"name"`
	Kind  core.Kind `json:"type"`
	Color *string   `json:"color"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, badRequest("invalid request body"))
		return
	}

	created, err := s.categories.Create(r.Context(), core.Category{
		Owner: Owner(r.Context()),
		Name:  req.Name,
		Kind:  req.Kind,
		Color: req.Color,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var req report.ExportRequest
	if v := strings.TrimSpace(q.Get("start_date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		req.StartDate = d
	}
	if v := strings.TrimSpace(q.Get("end_date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		req.EndDate = d
	}
	req.Format = report.FormatCSV
	if v := strings.TrimSpace(q.Get("format")); v != "" {
		req.Format = report.Format(v)
	}

	data, err := s.exporter.Export(r.Context(), Owner(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	contentType := "text/csv"
	if req.Format == report.FormatJSON {
		contentType = "application/json"
	}
	filename := fmt.Sprintf("transactions_%s_%s.%s", req.StartDate, req.EndDate, req.Format)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
