// Package mirror defines the target a mirror worker writes transaction rows
// to. The local store stays authoritative; a mirror is a best-effort external
// copy.
package mirror

import (
	"context"

	"duit/internal/core"
)

// RowWriter maintains one row per transaction in an external sheet. Upsert
// is keyed on the transaction id, so redelivered messages converge instead
// of duplicating rows.
type RowWriter interface {
	// UpsertTransaction writes or rewrites the row for t. The category is
	// passed alongside because the sheet stores its name, not its id.
	UpsertTransaction(ctx context.Context, t core.Transaction, c core.Category) error

	// RemoveTransaction clears the row for the given transaction, if present.
	// Removing an unknown id is not an error.
	RemoveTransaction(ctx context.Context, owner, id int64) error
}
