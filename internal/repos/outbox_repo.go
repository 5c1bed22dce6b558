package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type OutboxRepo struct{ db *sqlx.DB }

func NewOutboxRepo(db *sqlx.DB) *OutboxRepo { return &OutboxRepo{db: db} }

type OutboxEvent struct {
	ID          int64  `db:"id"`
	AggregateID string `db:"aggregate_id"`
	EventType   string `db:"event_type"`
	Payload     []byte `db:"payload"`
	CreatedAt   string `db:"created_at"`
}

// Unpublished returns the oldest events not yet handed to the broker.
func (r *OutboxRepo) Unpublished(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	var out []*OutboxEvent
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, aggregate_id, event_type, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT ?
	`, limit)
	return out, err
}

func (r *OutboxRepo) MarkPublished(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE outbox SET published_at = ? WHERE id = ? AND published_at IS NULL`,
		time.Now().UTC().Format(timeLayout), id)
	return err
}
