package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"freshmart/internal/domain"
)

type ReviewRepo struct{ db *sqlx.DB }

func NewReviewRepo(db *sqlx.DB) *ReviewRepo { return &ReviewRepo{db: db} }

func (r *ReviewRepo) Add(ctx context.Context, productID, userID string, stars int, comment string) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO reviews(product_id, user_id, stars, comment, created_at)
	  VALUES(?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, productID, userID, stars, comment)
	return err
}

func (r *ReviewRepo) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	out := []domain.Review{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT rv.id, rv.product_id, rv.user_id, COALESCE(u.username,'') AS username,
	         rv.stars, rv.comment, rv.created_at
	  FROM reviews rv
	  LEFT JOIN users u ON u.id = rv.user_id
	  WHERE rv.product_id = ?
	  ORDER BY rv.id DESC
	`, productID)
	return out, err
}
