package repository

import (
	"context"
	"database/sql"
	"fmt"

	"timetracker/internal/model"
)

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// GetOrCreate inserts the category if it does not exist yet. Names are
// unique; a duplicate insert is ignored rather than treated as a conflict.
func (r *CategoryRepository) GetOrCreate(ctx context.Context, name string) (*model.Category, error) {
	if _, err := r.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO categories (name) VALUES (?)`,
		name,
	); err != nil {
		return nil, fmt.Errorf("create category %q: %w", name, err)
	}
	return &model.Category{Name: name}, nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT name FROM categories ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]model.Category, 0)
	for rows.Next() {
		var category model.Category
		if err := rows.Scan(&category.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return categories, nil
}
