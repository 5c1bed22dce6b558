package handlers

import (
	"github.com/gofiber/fiber/v2"

	"freshmart/internal/services"
	"freshmart/internal/validate"
)

type CatalogHandler struct {
	Catalog *services.CatalogService
}

// GET /api/v1/products?category=&page=
func (h *CatalogHandler) List(c *fiber.Ctx) error {
	cat, ok := validate.Category(c.Query("category"))
	if !ok {
		return badRequest(c, "category")
	}
	out, err := h.Catalog.ListProducts(c.UserContext(), cat, validate.Page(c.Query("page")), 24)
	if err != nil {
		return fail(c, "catalog.list.fail", err)
	}
	return c.JSON(out)
}

func (h *CatalogHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "product")
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		return fail(c, "catalog.get.fail", err)
	}
	return c.JSON(p)
}

func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	rows, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return fail(c, "catalog.categories.fail", err)
	}
	return c.JSON(rows)
}
