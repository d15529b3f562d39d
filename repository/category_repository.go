package repository

import (
	"context"
	"errors"
	"fmt"

	"auctionhouse/database"
	"auctionhouse/models"

	"github.com/jackc/pgx/v5"
)

// CategoryRepository implements the CategoryRepository interface
type CategoryRepository struct {
	q queryable
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *database.DB) *CategoryRepository {
	return &CategoryRepository{q: db.Pool}
}

// newCategoryRepositoryWithTx creates a new category repository with a transaction
func newCategoryRepositoryWithTx(tx queryable) *CategoryRepository {
	return &CategoryRepository{q: tx}
}

// GetByID retrieves a category by ID
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	var category models.Category
	err := r.q.QueryRow(ctx, `SELECT id, name, parent_id FROM categories WHERE id = $1`, id).
		Scan(&category.ID, &category.Name, &category.ParentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category %d: %w", id, err)
	}
	return &category, nil
}

// ListChildren returns the direct children of a category
func (r *CategoryRepository) ListChildren(ctx context.Context, parentID int64) ([]*models.Category, error) {
	categories, err := r.list(ctx, `SELECT id, name, parent_id FROM categories WHERE parent_id = $1 ORDER BY name`, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children of category %d: %w", parentID, err)
	}
	return categories, nil
}

// List returns every category
func (r *CategoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	categories, err := r.list(ctx, `SELECT id, name, parent_id FROM categories ORDER BY parent_id NULLS FIRST, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepository) list(ctx context.Context, query string, args ...any) ([]*models.Category, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		var category models.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.ParentID); err != nil {
			return nil, err
		}
		categories = append(categories, &category)
	}
	return categories, rows.Err()
}
