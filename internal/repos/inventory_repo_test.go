package repos_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freshmart/internal/repos"
)

func TestInventoryRepo_ReserveIsConditional(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "milk", "Milk", "2.50", 3)
	inv := repos.NewInventoryRepo(db)
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	require.NoError(t, inv.Reserve(ctx, "s1", "milk", 2, exp))
	err := inv.Reserve(ctx, "s2", "milk", 2, exp)
	require.ErrorIs(t, err, repos.ErrInsufficientStock)

	qty, err := inv.Qty(ctx, "milk")
	require.NoError(t, err)
	assert.Equal(t, 1, qty)

	held, err := inv.Held(ctx, "s1", "milk")
	require.NoError(t, err)
	assert.Equal(t, 2, held)
	held, err = inv.Held(ctx, "s2", "milk")
	require.NoError(t, err)
	assert.Zero(t, held)
}

func TestInventoryRepo_ReserveUnknownProduct(t *testing.T) {
	db := memdb(t)
	inv := repos.NewInventoryRepo(db)

	err := inv.Reserve(context.Background(), "s1", "ghost", 1, time.Now())
	assert.True(t, repos.IsNoRows(err), "got %v", err)

	_, err = inv.Qty(context.Background(), "ghost")
	assert.True(t, repos.IsNoRows(err))
}

func TestInventoryRepo_ReleaseIsBoundedByHold(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "bread", "Bread", "1.20", 5)
	inv := repos.NewInventoryRepo(db)
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	require.NoError(t, inv.Reserve(ctx, "s1", "bread", 2, exp))

	n, err := inv.Release(ctx, "s1", "bread", 10, exp)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// nothing left to give back
	n, err = inv.Release(ctx, "s1", "bread", 1, exp)
	require.NoError(t, err)
	assert.Zero(t, n)

	qty, _ := inv.Qty(ctx, "bread")
	assert.Equal(t, 5, qty)

	var rows int
	require.NoError(t, db.Get(&rows, `SELECT COUNT(*) FROM reservations`))
	assert.Zero(t, rows)
}

func TestInventoryRepo_ExpiredHoldersAndReleaseHolder(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "milk", "Milk", "2.50", 10)
	addProduct(t, db, "bread", "Bread", "1.20", 10)
	inv := repos.NewInventoryRepo(db)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, inv.Reserve(ctx, "old", "milk", 3, now.Add(-time.Minute)))
	require.NoError(t, inv.Reserve(ctx, "old", "bread", 1, now.Add(-time.Minute)))
	require.NoError(t, inv.Reserve(ctx, "fresh", "milk", 2, now.Add(time.Hour)))

	holders, err := inv.ExpiredHolders(ctx, now, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, holders)

	n, err := inv.ReleaseHolder(ctx, "fresh", now)
	require.NoError(t, err)
	assert.Zero(t, n, "live holds are not reaped")

	n, err = inv.ReleaseHolder(ctx, "old", now)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	milk, _ := inv.Qty(ctx, "milk")
	bread, _ := inv.Qty(ctx, "bread")
	assert.Equal(t, 8, milk)
	assert.Equal(t, 10, bread)

	rows, err := inv.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Bread", rows[0].Name)
	assert.Equal(t, 2, rows[1].Reserved)
}

func TestInventoryRepo_ReserveRefreshesSessionExpiry(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "milk", "Milk", "2.50", 10)
	addProduct(t, db, "bread", "Bread", "1.20", 10)
	inv := repos.NewInventoryRepo(db)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, inv.Reserve(ctx, "s1", "milk", 1, now.Add(-time.Minute)))
	require.NoError(t, inv.Reserve(ctx, "s1", "bread", 1, now.Add(time.Hour)))

	holders, err := inv.ExpiredHolders(ctx, now, 100)
	require.NoError(t, err)
	assert.Empty(t, holders)
}
