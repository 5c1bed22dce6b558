package handlers

import (
	"github.com/gofiber/fiber/v2"

	"freshmart/internal/domain"
	applog "freshmart/internal/log"
	"freshmart/internal/services"
	"freshmart/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

type cartLineInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	cv, err := h.Cart.View(c.UserContext(), ensureSID(c))
	if err != nil {
		return fail(c, "cart.view.fail", err)
	}
	return c.JSON(cv)
}

// POST /api/v1/cart/items {"product_id": "...", "quantity": n}
func (h *CartHandler) Add(c *fiber.Ctx) error {
	sid := ensureSID(c)
	var in cartLineInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	pid, ok := validate.ID(in.ProductID)
	if !ok {
		return badRequest(c, "product_id")
	}
	cart, err := h.Cart.AddItem(c.UserContext(), sid, pid, in.Quantity)
	if err != nil {
		return fail(c, "cart.add.fail", err)
	}
	applog.Info(c, "cart.add", map[string]any{"product": pid, "qty": in.Quantity})
	return c.Status(fiber.StatusCreated).JSON(view(cart))
}

// PATCH /api/v1/cart/items/:id {"quantity": n}
func (h *CartHandler) Update(c *fiber.Ctx) error {
	sid := ensureSID(c)
	pid, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "product")
	}
	var in cartLineInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	cart, err := h.Cart.UpdateQuantity(c.UserContext(), sid, pid, in.Quantity)
	if err != nil {
		return fail(c, "cart.update.fail", err)
	}
	applog.Info(c, "cart.update", map[string]any{"product": pid, "qty": in.Quantity})
	return c.JSON(view(cart))
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	sid := ensureSID(c)
	pid, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "product")
	}
	cart, err := h.Cart.RemoveItem(c.UserContext(), sid, pid)
	if err != nil {
		return fail(c, "cart.remove.fail", err)
	}
	applog.Info(c, "cart.remove", map[string]any{"product": pid})
	return c.JSON(view(cart))
}

func view(cart *domain.Cart) services.CartView {
	return services.CartView{Lines: cart.Lines, Total: cart.Total()}
}
