// Package ledger defines the ports the reporting core and the services read
// and write through. The store behind them owns persistence and consistency;
// everything here is owner-scoped by contract.
package ledger

import (
	"context"

	"duit/internal/core"
)

// Query is the store-level translation of a transaction filter. All set
// fields are ANDed and date bounds are inclusive. Results are always ordered
// by transaction date descending, then id descending.
type Query struct {
	StartDate  *core.Date
	EndDate    *core.Date
	CategoryID *int64
	Kind       *core.Kind

	// Limit truncates the result set; zero or negative means no limit.
	Limit int
	// Offset skips rows after filtering and ordering.
	Offset int
}

type (
	// TransactionReader is the read side of the transaction store.
	TransactionReader interface {
		// ListTransactions returns the owner's transactions matching the
		// query in the contract order.
		ListTransactions(ctx context.Context, owner int64, q Query) ([]core.Transaction, error)

		// RecentTransactions returns up to n transactions ordered by
		// creation time descending, then id descending.
		RecentTransactions(ctx context.Context, owner int64, n int) ([]core.Transaction, error)

		// GetTransaction returns one transaction by id, or core.ErrNotFound
		// if it does not exist or belongs to another owner.
		GetTransaction(ctx context.Context, owner, id int64) (core.Transaction, error)
	}

	// TransactionWriter is the write side of the transaction store.
	TransactionWriter interface {
		// InsertTransaction stores a new transaction and returns it with the
		// store-assigned id and timestamps.
		InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)

		// UpdateTransaction applies a patch to an owned transaction and
		// returns the updated row.
		UpdateTransaction(ctx context.Context, owner, id int64, p core.TransactionPatch) (core.Transaction, error)

		// DeleteTransaction removes an owned transaction.
		DeleteTransaction(ctx context.Context, owner, id int64) error
	}

	// CategoryReader is the read side of the category store.
	CategoryReader interface {
		ListCategories(ctx context.Context, owner int64) ([]core.Category, error)
		GetCategory(ctx context.Context, owner, id int64) (core.Category, error)
	}

	// CategoryWriter is the write side of the category store.
	CategoryWriter interface {
		InsertCategory(ctx context.Context, c core.Category) (core.Category, error)
	}
)

// Store is the full collaborator surface a backend must provide.
type Store interface {
	TransactionReader
	TransactionWriter
	CategoryReader
	CategoryWriter
}
