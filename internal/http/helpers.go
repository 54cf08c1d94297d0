package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"duit/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

// badRequestError marks request-shape problems (unparseable parameters or
// bodies) that have no domain sentinel.
type badRequestError struct {
	msg string
}

func (e badRequestError) Error() string { return e.msg }

func badRequest(msg string) error {
	return badRequestError{msg: msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps domain errors onto HTTP statuses. Validation failures are
// the caller's fault; anything unrecognized is a 500 and the detail stays
// out of the response body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	var badReq badRequestError
	switch {
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
		message = "not found"
	case errors.As(err, &badReq), isValidationError(err):
		status = http.StatusBadRequest
		message = err.Error()
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"url", r.URL.Path,
			"error", err)
	}
	writeJSON(w, status, errorResponse{Error: message})
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidDate,
		core.ErrInvalidMonth,
		core.ErrInvalidKind,
		core.ErrInvalidDateRange,
		core.ErrInvalidLimit,
		core.ErrInvalidOffset,
		core.ErrInvalidFormat,
		core.ErrEmptyDescription,
		core.ErrEmptyCategoryName,
		core.ErrEmptyPatch,
		core.ErrCategoryOwnership,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// parsePeriod reads month and year query parameters, defaulting to the
// current month in UTC.
func parsePeriod(r *http.Request) (month, year int, err error) {
	now := time.Now().UTC()
	month = int(now.Month())
	year = now.Year()

	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		month, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, core.ErrInvalidMonth
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		year, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, badRequest("invalid year")
		}
	}
	return month, year, nil
}

// parseFilter reads the transaction filter query parameters. Range and
// bound checks stay in core; this only converts types.
func parseFilter(r *http.Request) (core.TransactionFilter, error) {
	var f core.TransactionFilter
	q := r.URL.Query()

	if v := strings.TrimSpace(q.Get("start_date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return f, err
		}
		f.StartDate = &d
	}
	if v := strings.TrimSpace(q.Get("end_date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return f, err
		}
		f.EndDate = &d
	}
	if v := strings.TrimSpace(q.Get("category_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, badRequest("invalid category_id")
		}
		f.CategoryID = &id
	}
	if v := strings.TrimSpace(q.Get("type")); v != "" {
		kind := core.Kind(v)
		f.Kind = &kind
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, core.ErrInvalidLimit
		}
		f.Limit = &n
	}
	if v := strings.TrimSpace(q.Get("offset")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, core.ErrInvalidOffset
		}
		f.Offset = &n
	}
	return f, nil
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
