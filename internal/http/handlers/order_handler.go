package handlers

import (
	"github.com/gofiber/fiber/v2"

	"freshmart/internal/domain"
	applog "freshmart/internal/log"
	"freshmart/internal/services"
	"freshmart/internal/validate"
)

type OrderHandler struct {
	Order *services.OrderService
}

// POST /api/v1/orders
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	sid := ensureSID(c)
	u := currentUser(c)

	orderID, err := h.Order.PlaceOrder(c.UserContext(), u.ID, sid)
	if err != nil {
		return fail(c, "order.place.fail", err)
	}
	applog.Audit(c, "order.place", map[string]any{"order_id": orderID})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"order_id":    orderID,
		"receipt_url": "/orders/" + orderID + "/receipt",
	})
}

func (h *OrderHandler) Get(c *fiber.Ctx) error {
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "order")
	}
	o, err := h.Order.GetFor(c.UserContext(), currentUser(c), oid)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			applog.Security(c, "access.denied.order", map[string]any{"order_id": oid})
		}
		return fail(c, "order.get.fail", err)
	}
	return c.JSON(o)
}

// History lists orders for the current logged-in user.
func (h *OrderHandler) History(c *fiber.Ctx) error {
	orders, err := h.Order.History(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return fail(c, "orders.history.fail", err)
	}
	return c.JSON(orders)
}

// GET /orders/:id/receipt renders the HTML receipt.
func (h *OrderHandler) Receipt(c *fiber.Ctx) error {
	u := currentUser(c)
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Order not found"})
	}
	o, err := h.Order.GetFor(c.UserContext(), u, oid)
	switch domain.KindOf(err) {
	case "":
	case domain.KindNotFound:
		applog.Security(c, "access.denied.order", map[string]any{"order_id": oid})
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Order not found"})
	default:
		applog.Error(c, "order.receipt.fail", err, map[string]any{"order_id": oid})
		c.Set(fiber.HeaderRetryAfter, "1")
		return c.Status(fiber.StatusServiceUnavailable).Render("notfound", fiber.Map{"Message": genericMessage})
	}
	return c.Render("receipt", fiber.Map{"Order": o, "User": u})
}
