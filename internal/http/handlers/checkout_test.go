package handlers_test

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutFlow(t *testing.T) {
	e := newEnv(t)
	sid := e.login(t, "mary@freshmart.test")

	resp, body := e.do(t, "POST", "/api/v1/cart/items", sid, map[string]any{"product_id": "milk-1l", "quantity": 2})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))
	resp, body = e.do(t, "POST", "/api/v1/cart/items", sid, map[string]any{"product_id": "bread-loaf", "quantity": 1})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))

	resp, body = e.do(t, "GET", "/api/v1/cart", sid, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	cart := decode(t, body)
	assert.Equal(t, "6.2", cart["total"])
	assert.Len(t, cart["lines"], 2)

	resp, body = e.do(t, "POST", "/api/v1/orders", sid, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))
	placed := decode(t, body)
	orderID, _ := placed["order_id"].(string)
	require.NotEmpty(t, orderID)

	resp, body = e.do(t, "GET", "/api/v1/orders/"+orderID, sid, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	order := decode(t, body)
	assert.Equal(t, "6.2", order["total"])
	assert.Len(t, order["lines"], 2)

	resp, body = e.do(t, "GET", "/api/v1/cart", sid, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, decode(t, body)["lines"])

	resp, body = e.do(t, "GET", "/orders/"+orderID+"/receipt", sid, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	html := string(body)
	assert.Contains(t, html, "Milk 1L")
	assert.Contains(t, html, "$6.20")
	assert.Contains(t, html, "$5.00")

	resp, body = e.do(t, "GET", "/api/v1/orders", sid, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), orderID)
}

func TestOrderVisibleOnlyToOwner(t *testing.T) {
	e := newEnv(t)
	mary := e.login(t, "mary@freshmart.test")
	resp, _ := e.do(t, "POST", "/api/v1/cart/items", mary, map[string]any{"product_id": "milk-1l", "quantity": 1})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp, body := e.do(t, "POST", "/api/v1/orders", mary, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	orderID := decode(t, body)["order_id"].(string)

	peter := e.login(t, "peter@freshmart.test")
	logs := captureLogs(t, func() {
		resp, _ = e.do(t, "GET", "/api/v1/orders/"+orderID, peter, nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		resp, _ = e.do(t, "GET", "/orders/"+orderID+"/receipt", peter, nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
	_, found := findAction(logs, "access.denied.order")
	assert.True(t, found)

	admin := e.login(t, "admin@freshmart.test")
	resp, _ = e.do(t, "GET", "/orders/"+orderID+"/receipt", admin, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCartErrorsMapToStatus(t *testing.T) {
	e := newEnv(t)
	sid := e.login(t, "mary@freshmart.test")

	cases := []struct {
		name   string
		body   map[string]any
		status int
		kind   string
	}{
		{"zero quantity", map[string]any{"product_id": "milk-1l", "quantity": 0}, fiber.StatusUnprocessableEntity, "INVALID_QUANTITY"},
		{"unknown product", map[string]any{"product_id": "caviar", "quantity": 1}, fiber.StatusNotFound, "NOT_FOUND"},
		{"sold out", map[string]any{"product_id": "eggs-12", "quantity": 1}, fiber.StatusConflict, "OUT_OF_STOCK"},
		{"more than stock", map[string]any{"product_id": "bread-loaf", "quantity": 26}, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
		{"bad id", map[string]any{"product_id": "../x", "quantity": 1}, fiber.StatusUnprocessableEntity, "INVALID_INPUT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := e.do(t, "POST", "/api/v1/cart/items", sid, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode, string(body))
			assert.Equal(t, tc.kind, decode(t, body)["error"])
		})
	}

	resp, body := e.do(t, "POST", "/api/v1/orders", sid, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "EMPTY_CART", decode(t, body)["error"])

	resp, body = e.do(t, "PATCH", "/api/v1/cart/items/milk-1l", sid, map[string]any{"quantity": 2})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, string(body))
}

func TestCartUpdateAndRemove(t *testing.T) {
	e := newEnv(t)
	sid := e.login(t, "mary@freshmart.test")

	resp, _ := e.do(t, "POST", "/api/v1/cart/items", sid, map[string]any{"product_id": "tomatoes", "quantity": 2})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body := e.do(t, "PATCH", "/api/v1/cart/items/tomatoes", sid, map[string]any{"quantity": 13})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", decode(t, body)["error"])

	resp, _ = e.do(t, "PATCH", "/api/v1/cart/items/tomatoes", sid, map[string]any{"quantity": 12})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body = e.do(t, "GET", "/api/v1/availability?productId=tomatoes", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "OUT_OF_STOCK", decode(t, body)["status"])

	resp, _ = e.do(t, "DELETE", "/api/v1/cart/items/tomatoes", sid, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body = e.do(t, "GET", "/api/v1/availability?productId=tomatoes", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	avail := decode(t, body)
	assert.Equal(t, "IN_STOCK", avail["status"])
	assert.EqualValues(t, 12, avail["qty"])
}

func TestCartRequiresLogin(t *testing.T) {
	e := newEnv(t)
	resp, body := e.do(t, "GET", "/api/v1/cart", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHENTICATED", decode(t, body)["error"])

	resp, _ = e.do(t, "POST", "/api/v1/orders", "made-up-sid", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
