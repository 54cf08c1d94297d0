// Package memory is an in-process mirror target, used by the memory backend
// and as the mirror double in worker tests.
package memory

import (
	"context"
	"sync"

	"duit/internal/core"
	"duit/internal/mirror"
)

// Row is one mirrored transaction.
type Row struct {
	Transaction core.Transaction
	Category    core.Category
}

type key struct {
	owner int64
	id    int64
}

// Mirror keeps mirrored rows in a map keyed by (owner, transaction id).
type Mirror struct {
	mu   sync.Mutex
	rows map[key]Row
}

var _ mirror.RowWriter = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{rows: make(map[key]Row)}
}

func (m *Mirror) UpsertTransaction(ctx context.Context, t core.Transaction, c core.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[key{t.Owner, t.ID}] = Row{Transaction: t, Category: c}
	return nil
}

func (m *Mirror) RemoveTransaction(ctx context.Context, owner, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, key{owner, id})
	return nil
}

// Get returns the mirrored row for a transaction, if present.
func (m *Mirror) Get(owner, id int64) (Row, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[key{owner, id}]
	return r, ok
}

// Len returns the number of mirrored rows.
func (m *Mirror) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
