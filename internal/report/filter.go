package report

import (
	"context"
	"fmt"

	"duit/internal/core"
	"duit/internal/ledger"
)

// FilterEngine turns a validated transaction filter into a deterministic
// ordered listing. Ordering is transaction date descending with id descending
// as the tie-break, so repeated calls over unchanged data return identical
// sequences. Each call recomputes from scratch; nothing is streamed or held
// between calls.
type FilterEngine struct {
	txs ledger.TransactionReader
}

// NewFilterEngine wires the engine to a transaction reader.
func NewFilterEngine(txs ledger.TransactionReader) *FilterEngine {
	return &FilterEngine{txs: txs}
}

// List returns the owner's transactions matching the filter. All set filter
// fields are ANDed and date bounds are inclusive. Offset skips matching rows
// after ordering and applies even without a limit; with neither set the full
// filtered set is returned.
func (e *FilterEngine) List(ctx context.Context, owner int64, f core.TransactionFilter) ([]core.Transaction, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	q := ledger.Query{
		StartDate:  f.StartDate,
		EndDate:    f.EndDate,
		CategoryID: f.CategoryID,
		Kind:       f.Kind,
	}
	if f.Limit != nil {
		q.Limit = *f.Limit
	}
	if f.Offset != nil {
		q.Offset = *f.Offset
	}

	rows, err := e.txs.ListTransactions(ctx, owner, q)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return rows, nil
}
