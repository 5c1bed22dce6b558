package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrInsufficientStock means the conditional decrement matched no row.
var ErrInsufficientStock = errors.New("insufficient stock")

// InventoryRepo is the storage side of the stock ledger. products.quantity
// holds units nobody has reserved; reservations holds what each session took.
type InventoryRepo struct{ db *sqlx.DB }

func NewInventoryRepo(db *sqlx.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// InventoryRow is used by the admin stock listing.
type InventoryRow struct {
	ProductID string `db:"product_id" json:"product_id"`
	Name      string `db:"name" json:"name"`
	Available int    `db:"available" json:"available"`
	Reserved  int    `db:"reserved" json:"reserved"`
}

func (r *InventoryRepo) ListAll(ctx context.Context) ([]InventoryRow, error) {
	rows := []InventoryRow{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT p.id AS product_id, p.name, p.quantity AS available,
		       COALESCE(SUM(rv.qty), 0) AS reserved
		FROM products p
		LEFT JOIN reservations rv ON rv.product_id = p.id
		GROUP BY p.id, p.name, p.quantity
		ORDER BY LOWER(p.name)
	`)
	return rows, err
}

// Qty returns unreserved stock. A missing product yields ErrNoRows.
func (r *InventoryRepo) Qty(ctx context.Context, productID string) (int, error) {
	var qty int
	if err := r.db.GetContext(ctx, &qty, `SELECT quantity FROM products WHERE id = ?`, productID); err != nil {
		return 0, fmt.Errorf("stock of %s: %w", productID, err)
	}
	return qty, nil
}

// Held returns how many units of productID the session has reserved.
func (r *InventoryRepo) Held(ctx context.Context, sessionID, productID string) (int, error) {
	var qty int
	err := r.db.GetContext(ctx, &qty, `
		SELECT COALESCE(SUM(qty), 0) FROM reservations WHERE session_id = ? AND product_id = ?
	`, sessionID, productID)
	return qty, err
}

// Reserve atomically subtracts n units if enough stock exists and records the
// hold for sessionID. Every hold of the session gets the new expiry.
func (r *InventoryRepo) Reserve(ctx context.Context, sessionID, productID string, n int, expiresAt time.Time) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET quantity = quantity - ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND quantity >= ?
		`, n, productID, n)
		if err != nil {
			return fmt.Errorf("decrement %s: %w", productID, err)
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			var exists int
			if err := tx.GetContext(ctx, &exists, `SELECT COUNT(*) FROM products WHERE id = ?`, productID); err != nil {
				return err
			}
			if exists == 0 {
				return fmt.Errorf("reserve %s: %w", productID, ErrNoRows)
			}
			return fmt.Errorf("reserve %d of %s: %w", n, productID, ErrInsufficientStock)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO reservations(session_id, product_id, qty, expires_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(session_id, product_id) DO UPDATE SET qty = qty + excluded.qty
		`, sessionID, productID, n, expiresAt.UnixMilli()); err != nil {
			return fmt.Errorf("record reservation: %w", err)
		}
		return touch(ctx, tx, sessionID, expiresAt)
	})
}

// Release returns up to n units held by sessionID to stock and reports how
// many were actually returned. Units the session never held are not credited.
func (r *InventoryRepo) Release(ctx context.Context, sessionID, productID string, n int, expiresAt time.Time) (int, error) {
	var released int
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var held int
		if err := tx.GetContext(ctx, &held, `
			SELECT COALESCE(SUM(qty), 0) FROM reservations WHERE session_id = ? AND product_id = ?
		`, sessionID, productID); err != nil {
			return err
		}
		released = min(n, held)
		if released <= 0 {
			released = 0
			return nil
		}
		if err := giveBack(ctx, tx, sessionID, productID, released); err != nil {
			return err
		}
		return touch(ctx, tx, sessionID, expiresAt)
	})
	if err != nil {
		return 0, err
	}
	return released, nil
}

// ExpiredHolders lists sessions whose reservations expired at or before now.
func (r *InventoryRepo) ExpiredHolders(ctx context.Context, now time.Time, limit int) ([]string, error) {
	var out []string
	err := r.db.SelectContext(ctx, &out, `
		SELECT DISTINCT session_id FROM reservations
		WHERE expires_at <= ?
		ORDER BY session_id
		LIMIT ?
	`, now.UnixMilli(), limit)
	return out, err
}

// ReleaseHolder returns every unit held by sessionID to stock, provided the
// session's holds are still expired at now. A session that touched its cart
// after being listed keeps its units and 0 is returned.
func (r *InventoryRepo) ReleaseHolder(ctx context.Context, sessionID string, now time.Time) (int, error) {
	var total int
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var live int
		if err := tx.GetContext(ctx, &live, `
			SELECT COUNT(*) FROM reservations WHERE session_id = ? AND expires_at > ?
		`, sessionID, now.UnixMilli()); err != nil {
			return err
		}
		if live > 0 {
			return nil
		}
		n, err := releaseAll(ctx, tx, sessionID)
		total = n
		return err
	})
	return total, err
}

// UpsertQty sets the unreserved stock of an existing product.
func (r *InventoryRepo) UpsertQty(ctx context.Context, productID string, qty int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products SET quantity = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, qty, productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set stock of %s: %w", productID, ErrNoRows)
	}
	return nil
}

func giveBack(ctx context.Context, tx *sqlx.Tx, sessionID, productID string, n int) error {
	if _, err := tx.ExecContext(ctx, `
		UPDATE reservations SET qty = qty - ? WHERE session_id = ? AND product_id = ?
	`, n, sessionID, productID); err != nil {
		return fmt.Errorf("shrink reservation: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM reservations WHERE session_id = ? AND product_id = ? AND qty <= 0
	`, sessionID, productID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE products SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, n, productID); err != nil {
		return fmt.Errorf("restock %s: %w", productID, err)
	}
	return nil
}

func releaseAll(ctx context.Context, tx *sqlx.Tx, sessionID string) (int, error) {
	type hold struct {
		ProductID string `db:"product_id"`
		Qty       int    `db:"qty"`
	}
	var holds []hold
	if err := tx.SelectContext(ctx, &holds, `
		SELECT product_id, qty FROM reservations WHERE session_id = ? AND qty > 0
	`, sessionID); err != nil {
		return 0, err
	}
	total := 0
	for _, h := range holds {
		if _, err := tx.ExecContext(ctx, `
			UPDATE products SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
		`, h.Qty, h.ProductID); err != nil {
			return 0, fmt.Errorf("restock %s: %w", h.ProductID, err)
		}
		total += h.Qty
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE session_id = ?`, sessionID); err != nil {
		return 0, err
	}
	return total, nil
}

func touch(ctx context.Context, tx *sqlx.Tx, sessionID string, expiresAt time.Time) error {
	_, err := tx.ExecContext(ctx, `UPDATE reservations SET expires_at = ? WHERE session_id = ?`,
		expiresAt.UnixMilli(), sessionID)
	return err
}
