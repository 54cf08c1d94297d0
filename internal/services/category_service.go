package services

import (
	"context"
	"fmt"

	"duit/internal/core"
	"duit/internal/ledger"
)

// CategoryService validates and persists category writes. Categories stay
// local only; the mirror pipeline carries their name with each transaction.
type CategoryService struct {
	store ledger.Store
}

func NewCategoryService(store ledger.Store) *CategoryService {
	return &CategoryService{store: store}
}

// Create stores a new category for the owner.
func (s *CategoryService) Create(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	created, err := s.store.InsertCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return created, nil
}

// List returns the owner's categories ordered by id.
func (s *CategoryService) List(ctx context.Context, owner int64) ([]core.Category, error) {
	return s.store.ListCategories(ctx, owner)
}

// Get returns one owned category.
func (s *CategoryService) Get(ctx context.Context, owner, id int64) (core.Category, error) {
	return s.store.GetCategory(ctx, owner, id)
}
