// Package memory is an in-process ledger store. It backs the "memory"
// backend and serves as the store double in tests; its filtering and
// ordering semantics match the SQLite store exactly.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"duit/internal/core"
	"duit/internal/ledger"
)

// Store keeps all rows in memory behind one mutex. Safe for concurrent use.
type Store struct {
	mu           sync.Mutex
	transactions map[int64]core.Transaction
	categories   map[int64]core.Category
	nextTxID     int64
	nextCatID    int64

	// now is swappable so tests can pin timestamps.
	now func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		transactions: make(map[int64]core.Transaction),
		categories:   make(map[int64]core.Category),
		nextTxID:     1,
		nextCatID:    1,
		now:          time.Now,
	}
}

// SetClock replaces the timestamp source. Test hook.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) ListTransactions(ctx context.Context, owner int64, q ledger.Query) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []core.Transaction
	for _, t := range s.transactions {
		if t.Owner != owner {
			continue
		}
		if q.StartDate != nil && t.Date.Before(*q.StartDate) {
			continue
		}
		if q.EndDate != nil && t.Date.After(*q.EndDate) {
			continue
		}
		if q.CategoryID != nil && t.CategoryID != *q.CategoryID {
			continue
		}
		if q.Kind != nil && t.Kind != *q.Kind {
			continue
		}
		rows = append(rows, t)
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date.Time) {
			return rows[i].Date.After(rows[j].Date)
		}
		return rows[i].ID > rows[j].ID
	})

	if q.Offset > 0 {
		if q.Offset >= len(rows) {
			rows = nil
		} else {
			rows = rows[q.Offset:]
		}
	}
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}

	out := make([]core.Transaction, len(rows))
	copy(out, rows)
	return out, nil
}

func (s *Store) RecentTransactions(ctx context.Context, owner int64, n int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []core.Transaction
	for _, t := range s.transactions {
		if t.Owner == owner {
			rows = append(rows, t)
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ID > rows[j].ID
	})

	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	out := make([]core.Transaction, len(rows))
	copy(out, rows)
	return out, nil
}

func (s *Store) GetTransaction(ctx context.Context, owner, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[id]
	if !ok || t.Owner != owner {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

func (s *Store) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = s.nextTxID
	s.nextTxID++
	now := s.now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	s.transactions[t.ID] = t
	return t, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, owner, id int64, p core.TransactionPatch) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[id]
	if !ok || t.Owner != owner {
		return core.Transaction{}, core.ErrNotFound
	}
	p.Apply(&t)
	t.UpdatedAt = s.now().UTC()
	s.transactions[id] = t
	return t, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, owner, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[id]
	if !ok || t.Owner != owner {
		return core.ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) ListCategories(ctx context.Context, owner int64) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []core.Category
	for _, c := range s.categories {
		if c.Owner == owner {
			rows = append(rows, c)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

func (s *Store) GetCategory(ctx context.Context, owner, id int64) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok || c.Owner != owner {
		return core.Category{}, core.ErrNotFound
	}
	return c, nil
}

func (s *Store) InsertCategory(ctx context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = s.nextCatID
	s.nextCatID++
	c.CreatedAt = s.now().UTC()
	s.categories[c.ID] = c
	return c, nil
}

var _ ledger.Store = (*Store)(nil)
