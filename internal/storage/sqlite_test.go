package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"duit/internal/core"
	"duit/internal/ledger"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "duit.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	// Monotonic clock so creation order is deterministic.
	base := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	var tick int
	s.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	})
	return s
}

func seedCategory(t *testing.T, s *SQLiteStore, owner int64, name string, kind core.Kind) core.Category {
	t.Helper()
	c, err := s.InsertCategory(context.Background(), core.Category{Owner: owner, Name: name, Kind: kind})
	if err != nil {
		t.Fatalf("insert category: %v", err)
	}
	return c
}

func seedTransaction(t *testing.T, s *SQLiteStore, owner, catID int64, amount, desc, date string, kind core.Kind) core.Transaction {
	t.Helper()

	m, err := core.MoneyFromString(amount)
	if err != nil {
		t.Fatalf("parse amount %q: %v", amount, err)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		t.Fatalf("parse date %q: %v", date, err)
	}
	tx, err := s.InsertTransaction(context.Background(), core.Transaction{
		Owner:       owner,
		CategoryID:  catID,
		Amount:      m,
		Description: desc,
		Date:        d,
		Kind:        kind,
	})
	if err != nil {
		t.Fatalf("insert transaction: %v", err)
	}
	return tx
}

func TestInsertAndGetTransaction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cat := seedCategory(t, s, 1, "Groceries", core.KindExpense)
	in := seedTransaction(t, s, 1, cat.ID, "123.45", "weekly shop", "2024-03-10", core.KindExpense)

	if in.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if in.CreatedAt.IsZero() || in.UpdatedAt.IsZero() {
		t.Fatal("expected assigned timestamps")
	}

	got, err := s.GetTransaction(ctx, 1, in.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Amount.String() != "123.45" {
		t.Errorf("amount = %s, want 123.45", got.Amount.String())
	}
	if got.Date.String() != "2024-03-10" {
		t.Errorf("date = %s, want 2024-03-10", got.Date.String())
	}
	if got.Kind != core.KindExpense {
		t.Errorf("kind = %s, want expense", got.Kind)
	}
	if got.Description != "weekly shop" {
		t.Errorf("description = %q", got.Description)
	}
	if !got.CreatedAt.Equal(in.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, in.CreatedAt)
	}
}

func TestGetTransactionOwnership(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cat := seedCategory(t, s, 1, "Misc", core.KindExpense)
	tx := seedTransaction(t, s, 1, cat.ID, "10", "coffee", "2024-03-01", core.KindExpense)

	if _, err := s.GetTransaction(ctx, 2, tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("other owner: err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetTransaction(ctx, 1, 999); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("missing id: err = %v, want ErrNotFound", err)
	}
}

func TestListTransactionsOrderAndFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	food := seedCategory(t, s, 1, "Food", core.KindExpense)
	pay := seedCategory(t, s, 1, "Pay", core.KindIncome)

	a := seedTransaction(t, s, 1, food.ID, "10", "a", "2024-03-05", core.KindExpense)
	b := seedTransaction(t, s, 1, pay.ID, "2000", "b", "2024-03-20", core.KindIncome)
	c := seedTransaction(t, s, 1, food.ID, "15", "c", "2024-03-05", core.KindExpense)
	seedTransaction(t, s, 2, seedCategory(t, s, 2, "Food", core.KindExpense).ID, "99", "other", "2024-03-05", core.KindExpense)

	rows, err := s.ListTransactions(ctx, 1, ledger.Query{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// Date descending; same-day rows tie-break on id descending.
	wantIDs := []int64{b.ID, c.ID, a.ID}
	if len(rows) != len(wantIDs) {
		t.Fatalf("got %d rows, want %d", len(rows), len(wantIDs))
	}
	for i, id := range wantIDs {
		if rows[i].ID != id {
			t.Errorf("rows[%d].ID = %d, want %d", i, rows[i].ID, id)
		}
	}

	kind := core.KindExpense
	rows, err = s.ListTransactions(ctx, 1, ledger.Query{Kind: &kind})
	if err != nil {
		t.Fatalf("list by kind: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("kind filter: got %d rows, want 2", len(rows))
	}

	rows, err = s.ListTransactions(ctx, 1, ledger.Query{CategoryID: &pay.ID})
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != b.ID {
		t.Fatalf("category filter: got %v", rows)
	}
}

func TestListTransactionsDateBoundsInclusive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cat := seedCategory(t, s, 1, "Misc", core.KindExpense)
	seedTransaction(t, s, 1, cat.ID, "1", "before", "2024-02-29", core.KindExpense)
	onStart := seedTransaction(t, s, 1, cat.ID, "2", "start", "2024-03-01", core.KindExpense)
	onEnd := seedTransaction(t, s, 1, cat.ID, "3", "end", "2024-03-31", core.KindExpense)
	seedTransaction(t, s, 1, cat.ID, "4", "after", "2024-04-01", core.KindExpense)

	start, _ := core.ParseDate("2024-03-01")
	end, _ := core.ParseDate("2024-03-31")
	rows, err := s.ListTransactions(ctx, 1, ledger.Query{StartDate: &start, EndDate: &end})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].ID != onEnd.ID || rows[1].ID != onStart.ID {
		t.Fatalf("got ids %d,%d want %d,%d", rows[0].ID, rows[1].ID, onEnd.ID, onStart.ID)
	}
}

func TestListTransactionsPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cat := seedCategory(t, s, 1, "Misc", core.KindExpense)
	var ids []int64
	for _, d := range []string{"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04", "2024-03-05"} {
		ids = append(ids, seedTransaction(t, s, 1, cat.ID, "1", "t", d, core.KindExpense).ID)
	}
	// Contract order is newest first.
	desc := []int64{ids[4], ids[3], ids[2], ids[1], ids[0]}

	rows, err := s.ListTransactions(ctx, 1, ledger.Query{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != desc[1] || rows[1].ID != desc[2] {
		t.Fatalf("limit+offset: got %v", rows)
	}

	// Offset applies even without a limit.
	rows, err = s.ListTransactions(ctx, 1, ledger.Query{Offset: 3})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != desc[3] || rows[1].ID != desc[4] {
		t.Fatalf("offset only: got %v", rows)
	}

	rows, err = s.ListTransactions(ctx, 1, ledger.Query{Offset: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("offset past end: got %d rows, want 0", len(rows))
	}
}

func TestRecentTransactionsOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cat := seedCategory(t, s, 1, "Misc", core.KindExpense)
	// Creation order is the monotonic clock order, not transaction date order.
	old := seedTransaction(t, s, 1, cat.ID, "1", "created first", "2024-03-30", core.KindExpense)
	mid := seedTransaction(t, s, 1, cat.ID, "2", "created second", "2024-03-01", core.KindExpense)
	newest := seedTransaction(t, s, 1, cat.ID, "3", "created last", "2024-03-15", core.KindExpense)

	rows, err := s.RecentTransactions(ctx, 1, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != newest.ID || rows[1].ID != mid.ID {
		t.Fatalf("recent: got %v, want [%d %d]", rows, newest.ID, mid.ID)
	}

	rows, err = s.RecentTransactions(ctx, 1, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(rows) != 3 || rows[2].ID != old.ID {
		t.Fatalf("recent all: got %v", rows)
	}
}

func TestUpdateTransaction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cat := seedCategory(t, s, 1, "Misc", core.KindExpense)
	other := seedCategory(t, s, 1, "Other", core.KindExpense)
	tx := seedTransaction(t, s, 1, cat.ID, "10", "before", "2024-03-01", core.KindExpense)

	amount, _ := core.MoneyFromString("25.5")
	desc := "after"
	updated, err := s.UpdateTransaction(ctx, 1, tx.ID, core.TransactionPatch{
		CategoryID:  &other.ID,
		Amount:      &amount,
		Description: &desc,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Amount.String() != "25.5" || updated.Description != "after" || updated.CategoryID != other.ID {
		t.Fatalf("update result: %+v", updated)
	}
	// Untouched fields survive the patch.
	if updated.Date.String() != "2024-03-01" || updated.Kind != core.KindExpense {
		t.Fatalf("patch clobbered unset fields: %+v", updated)
	}
	if !updated.UpdatedAt.After(tx.UpdatedAt) {
		t.Errorf("updated_at not advanced: %v <= %v", updated.UpdatedAt, tx.UpdatedAt)
	}

	got, err := s.GetTransaction(ctx, 1, tx.ID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Amount.String() != "25.5" {
		t.Errorf("persisted amount = %s, want 25.5", got.Amount.String())
	}

	if _, err := s.UpdateTransaction(ctx, 2, tx.ID, core.TransactionPatch{Description: &desc}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("other owner update: err = %v, want ErrNotFound", err)
	}
}

func TestDeleteTransaction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cat := seedCategory(t, s, 1, "Misc", core.KindExpense)
	tx := seedTransaction(t, s, 1, cat.ID, "10", "x", "2024-03-01", core.KindExpense)

	if err := s.DeleteTransaction(ctx, 2, tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("other owner delete: err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteTransaction(ctx, 1, tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteTransaction(ctx, 1, tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete: err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetTransaction(ctx, 1, tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get after delete: err = %v, want ErrNotFound", err)
	}
}

func TestCategories(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	color := "#00ff00"
	created, err := s.InsertCategory(ctx, core.Category{Owner: 1, Name: "Salary", Kind: core.KindIncome, Color: &color})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	plain := seedCategory(t, s, 1, "Rent", core.KindExpense)
	seedCategory(t, s, 2, "Other owner", core.KindExpense)

	got, err := s.GetCategory(ctx, 1, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Salary" || got.Kind != core.KindIncome {
		t.Fatalf("got %+v", got)
	}
	if got.Color == nil || *got.Color != "#00ff00" {
		t.Fatalf("color = %v, want #00ff00", got.Color)
	}

	list, err := s.ListCategories(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != created.ID || list[1].ID != plain.ID {
		t.Fatalf("list: got %v", list)
	}
	if list[1].Color != nil {
		t.Fatalf("nil color round-trip: got %v", *list[1].Color)
	}

	if _, err := s.GetCategory(ctx, 2, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("other owner: err = %v, want ErrNotFound", err)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "duit.db")

	s, err := New(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	seedCategory(t, s, 1, "Keep", core.KindExpense)
	s.Close()

	s2, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	list, err := s2.ListCategories(context.Background(), 1)
	if err != nil {
		t.Fatalf("list after reopen: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d categories after reopen, want 1", len(list))
	}
}
