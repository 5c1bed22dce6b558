package repos_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"freshmart/internal/domain"
	"freshmart/internal/repos"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func addProduct(t *testing.T, db *sqlx.DB, id, name, price string, qty int) {
	t.Helper()
	err := repos.NewProductRepo(db).Create(context.Background(), domain.Product{
		ID: id, Name: name, Category: "Test", Price: decimal.RequireFromString(price), Quantity: qty,
	})
	require.NoError(t, err)
}
