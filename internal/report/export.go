package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"

	"duit/internal/core"
	"duit/internal/ledger"
)

// Format selects the export serialization.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Valid reports whether f is a known export format.
func (f Format) Valid() bool {
	return f == FormatCSV || f == FormatJSON
}

// ExportRequest selects the transactions to serialize. Both date bounds are
// required and inclusive.
type ExportRequest struct {
	StartDate core.Date
	EndDate   core.Date
	Format    Format
}

// Validate checks the request's argument contract.
func (r ExportRequest) Validate() error {
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return core.ErrInvalidDate
	}
	if r.StartDate.After(r.EndDate) {
		return core.ErrInvalidDateRange
	}
	if !r.Format.Valid() {
		return core.ErrInvalidFormat
	}
	return nil
}

// csvHeader is the fixed CSV column header. Its exact byte layout is a
// compatibility surface; do not reorder or rename without a version bump.
var csvHeader = []string{
	"ID", "Amount", "Description", "Transaction Date",
	"Type", "Category Name", "Category Type", "Created At",
}

// exportRow is one serialized transaction joined with its category. Field
// order matches the published JSON layout.
type exportRow struct {
	ID           int64      `json:"id"`
	Amount       core.Money `json:"amount"`
	Description  string     `json:"description"`
	Date         core.Date  `json:"transaction_date"`
	Kind         core.Kind  `json:"type"`
	CategoryName string     `json:"category_name"`
	CategoryKind core.Kind  `json:"category_type"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Exporter serializes a date-bounded transaction set to CSV or JSON. The
// returned bytes are the wire-level artifact handed to the download; a store
// failure aborts the export with no partial document.
type Exporter struct {
	txs  ledger.TransactionReader
	cats ledger.CategoryReader
}

// NewExporter wires the exporter to its readers.
func NewExporter(txs ledger.TransactionReader, cats ledger.CategoryReader) *Exporter {
	return &Exporter{txs: txs, cats: cats}
}

// Export fetches the owner's transactions within the inclusive range, joins
// each with its category's name and kind, orders by transaction date
// descending (id descending on ties) and serializes per the request format.
func (e *Exporter) Export(ctx context.Context, owner int64, req ExportRequest) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	txRows, err := e.txs.ListTransactions(ctx, owner, ledger.Query{
		StartDate: &req.StartDate,
		EndDate:   &req.EndDate,
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	cats, err := e.cats.ListCategories(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	byID := make(map[int64]core.Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}

	rows := make([]exportRow, 0, len(txRows))
	for _, t := range txRows {
		cat, ok := byID[t.CategoryID]
		if !ok {
			return nil, fmt.Errorf("category %d referenced by transaction %d: %w",
				t.CategoryID, t.ID, core.ErrNotFound)
		}
		rows = append(rows, exportRow{
			ID:           t.ID,
			Amount:       t.Amount,
			Description:  t.Description,
			Date:         t.Date,
			Kind:         t.Kind,
			CategoryName: cat.Name,
			CategoryKind: cat.Kind,
			CreatedAt:    t.CreatedAt.UTC(),
		})
	}

	switch req.Format {
	case FormatJSON:
		return marshalJSON(rows)
	default:
		return marshalCSV(rows)
	}
}

// marshalJSON renders the rows as a two-space indented array. An empty set
// serializes to exactly "[]".
func marshalJSON(rows []exportRow) ([]byte, error) {
	out, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	return out, nil
}

// marshalCSV renders the header plus one line per row, each terminated by
// \n. Fields containing a comma, double quote or newline are wrapped in
// double quotes with inner quotes doubled. An empty set still emits the
// header line.
func marshalCSV(rows []exportRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			fmt.Sprintf("%d", r.ID),
			r.Amount.String(),
			r.Description,
			r.Date.String(),
			string(r.Kind),
			r.CategoryName,
			string(r.CategoryKind),
			r.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", r.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
