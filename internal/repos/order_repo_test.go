package repos_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freshmart/internal/domain"
	"freshmart/internal/repos"
)

func sampleOrder(id string) domain.Order {
	return domain.Order{
		ID:        id,
		UserID:    "u-1",
		Total:     decimal.RequireFromString("6.20"),
		CreatedAt: time.Now(),
		Lines: []domain.OrderLine{
			{ProductID: "milk", ProductName: "Milk", Price: decimal.RequireFromString("2.50"), Quantity: 2, Image: "milk.png"},
			{ProductID: "bread", ProductName: "Bread", Price: decimal.RequireFromString("1.20"), Quantity: 1},
		},
	}
}

func reserveSample(t *testing.T, inv *repos.InventoryRepo, sid string) {
	t.Helper()
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)
	require.NoError(t, inv.Reserve(ctx, sid, "milk", 2, exp))
	require.NoError(t, inv.Reserve(ctx, sid, "bread", 1, exp))
}

func TestOrderRepo_PlaceWritesEverything(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "milk", "Milk", "2.50", 5)
	addProduct(t, db, "bread", "Bread", "1.20", 5)
	inv := repos.NewInventoryRepo(db)
	orders := repos.NewOrderRepo(db)
	ctx := context.Background()
	reserveSample(t, inv, "s1")

	err := orders.Place(ctx, "s1", sampleOrder("o-1"), &repos.Event{AggregateID: "o-1", Type: "order.placed", Payload: []byte(`{}`)})
	require.NoError(t, err)

	got, err := orders.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.True(t, got.Total.Equal(decimal.RequireFromString("6.20")))
	require.Len(t, got.Lines, 2)
	assert.Equal(t, "Milk", got.Lines[0].ProductName)
	assert.Equal(t, 1, got.Lines[0].LineNo)
	assert.Equal(t, "milk.png", got.Lines[0].Image)

	// reservations consumed, not released
	milk, _ := inv.Qty(ctx, "milk")
	assert.Equal(t, 3, milk)
	var holds int
	require.NoError(t, db.Get(&holds, `SELECT COUNT(*) FROM reservations`))
	assert.Zero(t, holds)

	events, err := repos.NewOutboxRepo(db).Unpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "o-1", events[0].AggregateID)

	list, err := orders.ListByUser(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Lines)
}

func TestOrderRepo_LineFailureLeavesNoOrphan(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "milk", "Milk", "2.50", 5)
	addProduct(t, db, "bread", "Bread", "1.20", 5)
	inv := repos.NewInventoryRepo(db)
	orders := repos.NewOrderRepo(db)
	ctx := context.Background()
	reserveSample(t, inv, "s1")

	_, err := db.Exec(`CREATE TRIGGER fail_second_line BEFORE INSERT ON order_items
		WHEN NEW.line_no = 2 BEGIN SELECT RAISE(ABORT, 'disk full'); END;`)
	require.NoError(t, err)

	err = orders.Place(ctx, "s1", sampleOrder("o-1"), &repos.Event{AggregateID: "o-1", Type: "order.placed", Payload: []byte(`{}`)})
	require.ErrorContains(t, err, "disk full")

	n, err := orders.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	var lines, events int
	require.NoError(t, db.Get(&lines, `SELECT COUNT(*) FROM order_items`))
	require.NoError(t, db.Get(&events, `SELECT COUNT(*) FROM outbox`))
	assert.Zero(t, lines)
	assert.Zero(t, events)

	// the session still holds its units
	held, _ := inv.Held(ctx, "s1", "milk")
	assert.Equal(t, 2, held)
}

func TestOrderRepo_PlaceRequiresBackingReservation(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "milk", "Milk", "2.50", 5)
	addProduct(t, db, "bread", "Bread", "1.20", 5)
	orders := repos.NewOrderRepo(db)

	err := orders.Place(context.Background(), "nobody", sampleOrder("o-1"), nil)
	require.ErrorIs(t, err, repos.ErrReservationMissing)

	n, _ := orders.Count(context.Background())
	assert.Zero(t, n)
}

func TestOrderRepo_PlaceReleasesLeftoverHolds(t *testing.T) {
	db := memdb(t)
	addProduct(t, db, "milk", "Milk", "2.50", 5)
	addProduct(t, db, "bread", "Bread", "1.20", 5)
	addProduct(t, db, "eggs", "Eggs", "4.60", 5)
	inv := repos.NewInventoryRepo(db)
	ctx := context.Background()
	reserveSample(t, inv, "s1")
	require.NoError(t, inv.Reserve(ctx, "s1", "eggs", 2, time.Now().Add(time.Hour)))

	require.NoError(t, repos.NewOrderRepo(db).Place(ctx, "s1", sampleOrder("o-1"), nil))

	eggs, _ := inv.Qty(ctx, "eggs")
	assert.Equal(t, 5, eggs)
}

func TestOrderRepo_GetUnknown(t *testing.T) {
	db := memdb(t)
	_, err := repos.NewOrderRepo(db).Get(context.Background(), "missing")
	assert.True(t, repos.IsNoRows(err))
}
