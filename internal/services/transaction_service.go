// Package services holds the write-side orchestration: validate, persist to
// the local store, then publish a mirror message. The local write is the
// source of truth; a failed publish is logged and the request still succeeds.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"duit/internal/amqp"
	"duit/internal/core"
	"duit/internal/ledger"
)

// MirrorPublisher is the queue side of the mirror pipeline. *amqp.Client
// satisfies it; a nil publisher disables mirroring.
type MirrorPublisher interface {
	PublishMirror(ctx context.Context, msg *amqp.MirrorMessage) error
}

// TransactionService validates and persists transaction writes.
type TransactionService struct {
	store     ledger.Store
	publisher MirrorPublisher
}

func NewTransactionService(store ledger.Store, publisher MirrorPublisher) *TransactionService {
	return &TransactionService{store: store, publisher: publisher}
}

// Create stores a new transaction after checking its invariants and that the
// category belongs to the same owner.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkCategory(ctx, t.Owner, t.CategoryID); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.InsertTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	s.publish(ctx, amqp.NewMirrorMessage(created.Owner, created.ID, amqp.ActionUpsert))
	return created, nil
}

// Get returns one owned transaction.
func (s *TransactionService) Get(ctx context.Context, owner, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, owner, id)
}

// Update applies a partial update to an owned transaction. A patch that
// moves the transaction to another category re-checks category ownership.
func (s *TransactionService) Update(ctx context.Context, owner, id int64, p core.TransactionPatch) (core.Transaction, error) {
	if err := p.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if p.CategoryID != nil {
		if err := s.checkCategory(ctx, owner, *p.CategoryID); err != nil {
			return core.Transaction{}, err
		}
	}

	updated, err := s.store.UpdateTransaction(ctx, owner, id, p)
	if err != nil {
		return core.Transaction{}, err
	}

	s.publish(ctx, amqp.NewMirrorMessage(owner, id, amqp.ActionUpsert))
	return updated, nil
}

// Delete removes an owned transaction.
func (s *TransactionService) Delete(ctx context.Context, owner, id int64) error {
	if err := s.store.DeleteTransaction(ctx, owner, id); err != nil {
		return err
	}

	s.publish(ctx, amqp.NewMirrorMessage(owner, id, amqp.ActionDelete))
	return nil
}

func (s *TransactionService) checkCategory(ctx context.Context, owner, categoryID int64) error {
	_, err := s.store.GetCategory(ctx, owner, categoryID)
	if errors.Is(err, core.ErrNotFound) {
		return core.ErrCategoryOwnership
	}
	if err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	return nil
}

func (s *TransactionService) publish(ctx context.Context, msg *amqp.MirrorMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishMirror(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish mirror message",
			"owner", msg.Owner,
			"id", msg.ID,
			"action", msg.Action,
			"error", err)
	}
}
