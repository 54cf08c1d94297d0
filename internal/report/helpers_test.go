package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"duit/internal/core"
	"duit/internal/ledger"
	"duit/internal/ledger/memory"
)

// newStore returns a memory store with a monotonic test clock so creation
// order is deterministic.
func newStore() *memory.Store {
	s := memory.New()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	s.SetClock(func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	})
	return s
}

func mustCategory(t *testing.T, s *memory.Store, owner int64, name string, kind core.Kind) core.Category {
	t.Helper()
	c, err := s.InsertCategory(context.Background(), core.Category{
		Owner: owner,
		Name:  name,
		Kind:  kind,
	})
	if err != nil {
		t.Fatalf("insert category %q: %v", name, err)
	}
	return c
}

func mustTransaction(t *testing.T, s *memory.Store, owner, categoryID int64, amount string, kind core.Kind, date core.Date) core.Transaction {
	t.Helper()
	m, err := core.MoneyFromString(amount)
	if err != nil {
		t.Fatalf("parse amount %q: %v", amount, err)
	}
	tx, err := s.InsertTransaction(context.Background(), core.Transaction{
		Owner:       owner,
		CategoryID:  categoryID,
		Amount:      m,
		Description: "test " + amount,
		Date:        date,
		Kind:        kind,
	})
	if err != nil {
		t.Fatalf("insert transaction: %v", err)
	}
	return tx
}

func money(t *testing.T, s string) core.Money {
	t.Helper()
	m, err := core.MoneyFromString(s)
	if err != nil {
		t.Fatalf("parse money %q: %v", s, err)
	}
	return m
}

// failingStore returns the same error from every read. Used to verify that
// store failures propagate as a single aggregate failure.
type failingStore struct {
	err error
}

func (f failingStore) ListTransactions(context.Context, int64, ledger.Query) ([]core.Transaction, error) {
	return nil, f.err
}

func (f failingStore) RecentTransactions(context.Context, int64, int) ([]core.Transaction, error) {
	return nil, f.err
}

func (f failingStore) GetTransaction(context.Context, int64, int64) (core.Transaction, error) {
	return core.Transaction{}, f.err
}

func (f failingStore) ListCategories(context.Context, int64) ([]core.Category, error) {
	return nil, f.err
}

func (f failingStore) GetCategory(context.Context, int64, int64) (core.Category, error) {
	return core.Category{}, f.err
}

var errStoreDown = errors.New("store unavailable")
