// Package worker consumes mirror messages and applies them to the external
// sheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"duit/internal/amqp"
	"duit/internal/core"
	"duit/internal/ledger"
	"duit/internal/mirror"
)

// MirrorWorker reconciles one queue message at a time against the sheet.
// Upserts re-read the transaction from the store, so the sheet always ends
// up reflecting the latest local state even when deliveries arrive out of
// order or twice.
type MirrorWorker struct {
	store  ledger.Store
	writer mirror.RowWriter
}

func NewMirrorWorker(store ledger.Store, writer mirror.RowWriter) *MirrorWorker {
	return &MirrorWorker{store: store, writer: writer}
}

// Handle processes a single mirror message. A returned error requeues the
// delivery.
func (w *MirrorWorker) Handle(ctx context.Context, msg *amqp.MirrorMessage) error {
	switch msg.Action {
	case amqp.ActionUpsert:
		return w.handleUpsert(ctx, msg)
	case amqp.ActionDelete:
		return w.handleDelete(ctx, msg)
	default:
		// Unknown actions are dropped, not requeued.
		slog.WarnContext(ctx, "Ignoring unknown mirror action",
			"action", msg.Action, "owner", msg.Owner, "id", msg.ID)
		return nil
	}
}

func (w *MirrorWorker) handleUpsert(ctx context.Context, msg *amqp.MirrorMessage) error {
	t, err := w.store.GetTransaction(ctx, msg.Owner, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted locally after the upsert was queued. Converge by removing
		// the row instead of failing the delivery.
		slog.InfoContext(ctx, "Transaction gone, removing mirror row",
			"owner", msg.Owner, "id", msg.ID)
		return w.writer.RemoveTransaction(ctx, msg.Owner, msg.ID)
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	cat, err := w.store.GetCategory(ctx, t.Owner, t.CategoryID)
	if err != nil {
		return fmt.Errorf("get category: %w", err)
	}

	if err := w.writer.UpsertTransaction(ctx, t, cat); err != nil {
		return fmt.Errorf("upsert mirror row: %w", err)
	}

	slog.InfoContext(ctx, "Mirrored transaction",
		"owner", t.Owner,
		"id", t.ID,
		"amount", t.Amount.String(),
		"category", cat.Name)
	return nil
}

func (w *MirrorWorker) handleDelete(ctx context.Context, msg *amqp.MirrorMessage) error {
	if err := w.writer.RemoveTransaction(ctx, msg.Owner, msg.ID); err != nil {
		return fmt.Errorf("remove mirror row: %w", err)
	}

	slog.InfoContext(ctx, "Removed mirrored transaction",
		"owner", msg.Owner, "id", msg.ID)
	return nil
}
