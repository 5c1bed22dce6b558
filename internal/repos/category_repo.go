package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

type CategoryRow struct {
	Name     string `db:"category" json:"name"`
	Products int    `db:"products" json:"products"`
}

// List returns every category in use with its product count.
func (r *CategoryRepo) List(ctx context.Context) ([]CategoryRow, error) {
	out := []CategoryRow{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT category, COUNT(*) AS products
	  FROM products
	  WHERE category != ''
	  GROUP BY category
	  ORDER BY LOWER(category)
	`)
	return out, err
}
