// Package storage is the SQLite ledger store. Schema lives in embedded
// migrations and is applied on open.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"duit/internal/core"
	"duit/internal/ledger"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so stored timestamps compare lexicographically
// in chronological order. Always UTC.
const timeLayout = "2006-01-02 15:04:05.000000000"

const txColumns = "id, owner_id, category_id, amount, description, transaction_date, kind, created_at, updated_at"

// SQLiteStore implements ledger.Store on a local SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// New opens (creating if needed) the database at dbPath and applies pending
// migrations.
func New(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SetClock replaces the timestamp source. Test hook.
func (s *SQLiteStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *SQLiteStore) ListTransactions(ctx context.Context, owner int64, q ledger.Query) ([]core.Transaction, error) {
	where := []string{"owner_id = ?"}
	args := []any{owner}

	if q.StartDate != nil {
		where = append(where, "transaction_date >= ?")
		args = append(args, *q.StartDate)
	}
	if q.EndDate != nil {
		where = append(where, "transaction_date <= ?")
		args = append(args, *q.EndDate)
	}
	if q.CategoryID != nil {
		where = append(where, "category_id = ?")
		args = append(args, *q.CategoryID)
	}
	if q.Kind != nil {
		where = append(where, "kind = ?")
		args = append(args, string(*q.Kind))
	}

	// SQLite needs a LIMIT clause for OFFSET to apply; -1 means unlimited.
	limit := int64(-1)
	if q.Limit > 0 {
		limit = int64(q.Limit)
	}
	offset := int64(0)
	if q.Offset > 0 {
		offset = int64(q.Offset)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM transactions WHERE %s ORDER BY transaction_date DESC, id DESC LIMIT ? OFFSET ?",
		txColumns, strings.Join(where, " AND "))
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func (s *SQLiteStore) RecentTransactions(ctx context.Context, owner int64, n int) ([]core.Transaction, error) {
	limit := int64(-1)
	if n > 0 {
		limit = int64(n)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM transactions WHERE owner_id = ? ORDER BY created_at DESC, id DESC LIMIT ?",
		txColumns)

	rows, err := s.db.QueryContext(ctx, query, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func (s *SQLiteStore) GetTransaction(ctx context.Context, owner, id int64) (core.Transaction, error) {
	query := fmt.Sprintf("SELECT %s FROM transactions WHERE id = ? AND owner_id = ?", txColumns)

	t, err := scanTransaction(s.db.QueryRowContext(ctx, query, id, owner))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	now := s.now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (owner_id, category_id, amount, description, transaction_date, kind, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Owner, t.CategoryID, t.Amount, t.Description, t.Date, string(t.Kind),
		now.Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction id: %w", err)
	}
	t.ID = id
	return t, nil
}

func (s *SQLiteStore) UpdateTransaction(ctx context.Context, owner, id int64, p core.TransactionPatch) (core.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf("SELECT %s FROM transactions WHERE id = ? AND owner_id = ?", txColumns)
	t, err := scanTransaction(tx.QueryRowContext(ctx, query, id, owner))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load transaction: %w", err)
	}

	p.Apply(&t)
	t.UpdatedAt = s.now().UTC()

	_, err = tx.ExecContext(ctx,
		`UPDATE transactions
		 SET category_id = ?, amount = ?, description = ?, transaction_date = ?, kind = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		t.CategoryID, t.Amount, t.Description, t.Date, string(t.Kind),
		t.UpdatedAt.Format(timeLayout), id, owner)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit update: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) DeleteTransaction(ctx context.Context, owner, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM transactions WHERE id = ? AND owner_id = ?", id, owner)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ListCategories(ctx context.Context, owner int64) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, owner_id, name, kind, color, created_at FROM categories WHERE owner_id = ? ORDER BY id ASC",
		owner)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategoryRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) GetCategory(ctx context.Context, owner, id int64) (core.Category, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, owner_id, name, kind, color, created_at FROM categories WHERE id = ? AND owner_id = ?",
		id, owner)

	c, err := scanCategoryRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) InsertCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.CreatedAt = s.now().UTC()

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO categories (owner_id, name, kind, color, created_at) VALUES (?, ?, ?, ?, ?)",
		c.Owner, c.Name, string(c.Kind), c.Color, c.CreatedAt.Format(timeLayout))
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category id: %w", err)
	}
	c.ID = id
	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(r rowScanner) (core.Transaction, error) {
	var (
		t       core.Transaction
		kind    string
		created string
		updated string
	)
	if err := r.Scan(&t.ID, &t.Owner, &t.CategoryID, &t.Amount, &t.Description,
		&t.Date, &kind, &created, &updated); err != nil {
		return core.Transaction{}, err
	}

	t.Kind = core.Kind(kind)
	var err error
	if t.CreatedAt, err = parseTimestamp(created); err != nil {
		return core.Transaction{}, err
	}
	if t.UpdatedAt, err = parseTimestamp(updated); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func scanCategoryRow(r rowScanner) (core.Category, error) {
	var (
		c       core.Category
		kind    string
		created string
	)
	if err := r.Scan(&c.ID, &c.Owner, &c.Name, &kind, &c.Color, &created); err != nil {
		return core.Category{}, err
	}

	c.Kind = core.Kind(kind)
	var err error
	if c.CreatedAt, err = parseTimestamp(created); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

var _ ledger.Store = (*SQLiteStore)(nil)
