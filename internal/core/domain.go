package core

import (
	"errors"
	"strings"
	"time"
)

// Kind classifies a transaction or category as income or expense. It is
// stored independently on both: a transaction's kind is authoritative for
// aggregation and may legitimately differ from its category's kind.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// Valid reports whether k is one of the two known kinds.
func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidMonth      = errors.New("invalid month")
	ErrInvalidKind       = errors.New("invalid kind")
	ErrInvalidDateRange  = errors.New("start date after end date")
	ErrInvalidLimit      = errors.New("invalid limit")
	ErrInvalidOffset     = errors.New("invalid offset")
	ErrInvalidFormat     = errors.New("invalid export format")
	ErrEmptyDescription  = errors.New("empty description")
	ErrEmptyCategoryName = errors.New("empty category name")
	ErrEmptyPatch        = errors.New("empty update")
	ErrNotFound          = errors.New("not found")
	ErrCategoryOwnership = errors.New("category does not belong to owner")
)

// Category groups transactions under a name and a kind. Its kind is fixed at
// creation; a category belongs to exactly one owner.
type Category struct {
	ID        int64     `json:"id"`
	Owner     int64     `json:"user_id"`
	Name      string    `json:"name"`
	Kind      Kind      `json:"type"`
	Color     *string   `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the write-time invariants of a category.
func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategoryName
	}
	if !c.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}

// Transaction is one recorded income or expense. Amount is always positive;
// the sign of its contribution to a balance comes from Kind.
type Transaction struct {
	ID          int64     `json:"id"`
	Owner       int64     `json:"user_id"`
	CategoryID  int64     `json:"category_id"`
	Amount      Money     `json:"amount"`
	Description string    `json:"description"`
	Date        Date      `json:"transaction_date"`
	Kind        Kind      `json:"type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks the write-time invariants of a transaction.
func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}

// TransactionFilter selects a subset of an owner's transactions. All set
// fields are ANDed; date bounds are inclusive. Offset skips rows after
// filtering and ordering, before Limit truncates; either may be set alone.
type TransactionFilter struct {
	StartDate  *Date
	EndDate    *Date
	CategoryID *int64
	Kind       *Kind
	Limit      *int
	Offset     *int
}

// Validate checks the filter's argument contract.
func (f TransactionFilter) Validate() error {
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		return ErrInvalidDateRange
	}
	if f.Kind != nil && !f.Kind.Valid() {
		return ErrInvalidKind
	}
	if f.Limit != nil && *f.Limit <= 0 {
		return ErrInvalidLimit
	}
	if f.Offset != nil && *f.Offset < 0 {
		return ErrInvalidOffset
	}
	return nil
}

// TransactionPatch is a partial update. A nil field means "leave unchanged";
// a set pointer carries the new value. None of the updatable fields are
// nullable, so pointer presence encodes exactly present/absent.
type TransactionPatch struct {
	CategoryID  *int64
	Amount      *Money
	Description *string
	Date        *Date
	Kind        *Kind
}

// IsEmpty reports whether the patch changes nothing.
func (p TransactionPatch) IsEmpty() bool {
	return p.CategoryID == nil && p.Amount == nil && p.Description == nil &&
		p.Date == nil && p.Kind == nil
}

// Validate checks every present field against the transaction invariants.
func (p TransactionPatch) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			return err
		}
	}
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		return ErrEmptyDescription
	}
	if p.Date != nil && p.Date.IsZero() {
		return ErrInvalidDate
	}
	if p.Kind != nil && !p.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}

// Apply copies the present fields onto a transaction.
func (p TransactionPatch) Apply(t *Transaction) {
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Kind != nil {
		t.Kind = *p.Kind
	}
}
