package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freshmart/internal/domain"
	"freshmart/internal/repos"
	"freshmart/internal/services"
)

func fillBasket(t *testing.T, f *fixture, sid string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.carts.AddItem(ctx, sid, "milk", 2)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, sid, "bread", 1)
	require.NoError(t, err)
}

func orderCount(t *testing.T, f *fixture) int {
	t.Helper()
	n, err := repos.NewOrderRepo(f.db).Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestOrderService_PlaceMilkAndBread(t *testing.T) {
	f := newFixture(t, 10, 10)
	ctx := context.Background()
	fillBasket(t, f, "s1")

	id, err := f.orders.PlaceOrder(ctx, "u-1", "s1")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	o, err := f.orders.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("6.20")), "total %s", o.Total)
	require.Len(t, o.Lines, 2)
	assert.Equal(t, "Milk", o.Lines[0].ProductName)
	assert.Equal(t, 2, o.Lines[0].Quantity)
	assert.Equal(t, "Bread", o.Lines[1].ProductName)

	v, err := f.carts.View(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, v.Lines)

	// consumed, not released
	assert.Equal(t, 8, f.stock(t, "milk"))
	assert.Equal(t, 9, f.stock(t, "bread"))

	events, err := repos.NewOutboxRepo(f.db).Unpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, services.EventOrderPlaced, events[0].EventType)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, id, payload["order_id"])
	assert.Equal(t, "u-1", payload["user_id"])

	history, err := f.orders.History(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, id, history[0].ID)
}

func TestOrderService_EmptyCart(t *testing.T) {
	f := newFixture(t, 10, 10)

	_, err := f.orders.PlaceOrder(context.Background(), "u-1", "s1")
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.Zero(t, orderCount(t, f))
}

func TestOrderService_LineFailureWritesNothing(t *testing.T) {
	f := newFixture(t, 10, 10)
	ctx := context.Background()
	fillBasket(t, f, "s1")

	_, err := f.db.Exec(`CREATE TRIGGER no_bread BEFORE INSERT ON order_items
		WHEN NEW.product_name = 'Bread' BEGIN SELECT RAISE(ABORT, 'disk full'); END;`)
	require.NoError(t, err)

	_, err = f.orders.PlaceOrder(ctx, "u-1", "s1")
	require.ErrorIs(t, err, domain.ErrPersistence)
	assert.Zero(t, orderCount(t, f))

	var lines int
	require.NoError(t, f.db.Get(&lines, `SELECT COUNT(*) FROM order_items`))
	assert.Zero(t, lines)

	// cart and reservations untouched, so the shopper can retry
	assert.Equal(t, 2, f.cartQty(t, "s1", "milk"))
	assert.Equal(t, 8, f.stock(t, "milk"))
}

func TestOrderService_ExpiredReservation(t *testing.T) {
	f := newFixture(t, 10, 10)
	ctx := context.Background()
	fillBasket(t, f, "s1")

	_, err := f.inv.ReleaseHolder(ctx, "s1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, 10, f.stock(t, "milk"))

	_, err = f.orders.PlaceOrder(ctx, "u-1", "s1")
	assert.ErrorIs(t, err, domain.ErrReservationExpired)
	assert.Zero(t, orderCount(t, f))
	assert.Equal(t, 10, f.stock(t, "milk"))
}

func TestOrderService_ClearFailureKeepsOrder(t *testing.T) {
	f := newFixture(t, 10, 10)
	ctx := context.Background()
	fillBasket(t, f, "s1")

	store := &flakyStore{CartStore: f.store, failDelete: true}
	carts := services.NewCartService(store, f.ledger, f.prods)
	orders := services.NewOrderService(carts, repos.NewOrderRepo(f.db))

	id, err := orders.PlaceOrder(ctx, "u-1", "s1")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, orderCount(t, f))
}

func TestOrderService_GetForChecksOwner(t *testing.T) {
	f := newFixture(t, 10, 10)
	ctx := context.Background()
	fillBasket(t, f, "s1")
	id, err := f.orders.PlaceOrder(ctx, "u-1", "s1")
	require.NoError(t, err)

	_, err = f.orders.GetFor(ctx, &domain.User{ID: "u-1", Role: domain.RoleUser}, id)
	assert.NoError(t, err)
	_, err = f.orders.GetFor(ctx, &domain.User{ID: "u-2", Role: domain.RoleUser}, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.orders.GetFor(ctx, &domain.User{ID: "u-admin", Role: domain.RoleAdmin}, id)
	assert.NoError(t, err)
	_, err = f.orders.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
