package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "freshmart/internal/log"
	"freshmart/internal/services"
	"freshmart/internal/validate"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	productID := strings.TrimSpace(c.Query("productId"))
	if productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "INVALID_INPUT",
			"message": "missing productId",
		})
	}
	if _, ok := validate.ID(productID); !ok {
		return badRequest(c, "productId")
	}

	avail, err := h.Inv.CheckAvailability(c.UserContext(), productID)
	if err != nil {
		return fail(c, "inventory.check.fail", err)
	}
	return c.JSON(avail)
}

// GET /api/v1/admin/inventory
func (h *InventoryHandler) List(c *fiber.Ctx) error {
	rows, err := h.Inv.ListStock(c.UserContext())
	if err != nil {
		return fail(c, "admin.inventory.list.fail", err)
	}
	return c.JSON(rows)
}

// PUT /api/v1/admin/inventory/:id {"quantity": n}
func (h *InventoryHandler) Set(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "product")
	}
	var in struct {
		Quantity *int `json:"quantity"`
	}
	if err := c.BodyParser(&in); err != nil || in.Quantity == nil {
		return badRequest(c, "quantity")
	}
	if err := h.Inv.SetStock(c.UserContext(), pid, *in.Quantity); err != nil {
		return fail(c, "admin.inventory.save.fail", err)
	}
	applog.Audit(c, "admin.inventory.save", map[string]any{"product": pid, "qty": *in.Quantity})
	return c.SendStatus(fiber.StatusNoContent)
}
