package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"freshmart/internal/domain"
)

// ErrReservationMissing means a line being purchased is no longer backed by
// the session's reservations.
var ErrReservationMissing = errors.New("reservation missing")

const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

type orderRow struct {
	ID        string `db:"id"`
	UserID    string `db:"user_id"`
	Total     string `db:"total"`
	CreatedAt string `db:"created_at"`
}

func (o orderRow) toDomain() (domain.Order, error) {
	out := domain.Order{ID: o.ID, UserID: o.UserID}
	var err error
	if err = out.Total.Scan(o.Total); err != nil {
		return domain.Order{}, fmt.Errorf("order %s total: %w", o.ID, err)
	}
	if out.CreatedAt, err = time.Parse(timeLayout, o.CreatedAt); err != nil {
		return domain.Order{}, fmt.Errorf("order %s created_at: %w", o.ID, err)
	}
	return out, nil
}

// Event is an outbox record written in the same transaction as the order.
type Event struct {
	AggregateID string
	Type        string
	Payload     []byte
}

// Place writes the order header and its lines, consumes the session's
// reservations for those lines, returns any other units the session still
// holds to stock and appends ev to the outbox. All of it commits or none does.
func (r *OrderRepo) Place(ctx context.Context, sessionID string, o domain.Order, ev *Event) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
		  INSERT INTO orders(id, user_id, total, created_at) VALUES(?, ?, ?, ?)
		`, o.ID, o.UserID, o.Total, o.CreatedAt.UTC().Format(timeLayout)); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for i, l := range o.Lines {
			if _, err := tx.ExecContext(ctx, `
			  INSERT INTO order_items(order_id, line_no, product_id, product_name, price, quantity, image)
			  VALUES(?, ?, ?, ?, ?, ?, ?)
			`, o.ID, i+1, l.ProductID, l.ProductName, l.Price, l.Quantity, l.Image); err != nil {
				return fmt.Errorf("insert order line %d: %w", i+1, err)
			}

			res, err := tx.ExecContext(ctx, `
			  UPDATE reservations SET qty = qty - ?
			  WHERE session_id = ? AND product_id = ? AND qty >= ?
			`, l.Quantity, sessionID, l.ProductID, l.Quantity)
			if err != nil {
				return fmt.Errorf("consume reservation: %w", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("line %s x%d: %w", l.ProductID, l.Quantity, ErrReservationMissing)
			}
		}

		if _, err := releaseAll(ctx, tx, sessionID); err != nil {
			return fmt.Errorf("release leftovers: %w", err)
		}

		if ev != nil {
			if _, err := tx.ExecContext(ctx, `
			  INSERT INTO outbox(aggregate_id, event_type, payload, created_at) VALUES(?, ?, ?, ?)
			`, ev.AggregateID, ev.Type, string(ev.Payload), time.Now().UTC().Format(timeLayout)); err != nil {
				return fmt.Errorf("insert outbox event: %w", err)
			}
		}
		return nil
	})
}

// Get returns the order header with its lines in line order.
func (r *OrderRepo) Get(ctx context.Context, orderID string) (domain.Order, error) {
	var row orderRow
	if err := r.db.GetContext(ctx, &row, `
		SELECT id, user_id, total, created_at FROM orders WHERE id = ?
	`, orderID); err != nil {
		return domain.Order{}, fmt.Errorf("get order %s: %w", orderID, err)
	}
	o, err := row.toDomain()
	if err != nil {
		return domain.Order{}, err
	}
	if err := r.db.SelectContext(ctx, &o.Lines, `
		SELECT order_id, line_no, product_id, product_name, price, quantity, image
		FROM order_items
		WHERE order_id = ?
		ORDER BY line_no
	`, orderID); err != nil {
		return domain.Order{}, fmt.Errorf("order %s lines: %w", orderID, err)
	}
	return o, nil
}

// ListByUser returns a user's orders, newest first, without lines.
func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	var rows []orderRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, total, created_at
		FROM orders
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID); err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		o, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// Count reports how many orders exist. /healthz uses it to check the database.
func (r *OrderRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM orders`)
	return n, err
}
