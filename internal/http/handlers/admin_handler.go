package handlers

import (
	"github.com/gofiber/fiber/v2"

	"freshmart/internal/domain"
	applog "freshmart/internal/log"
	"freshmart/internal/services"
	"freshmart/internal/validate"
)

type AdminHandler struct {
	Catalog *services.CatalogService
	Users   *services.AuthService
}

type productInput struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
	Image    string `json:"image"`
}

func (in productInput) product() (domain.Product, string) {
	id, ok := validate.ID(in.ID)
	if !ok {
		return domain.Product{}, "id"
	}
	name, ok := validate.Name(in.Name)
	if !ok {
		return domain.Product{}, "name"
	}
	cat, ok := validate.Category(in.Category)
	if !ok {
		return domain.Product{}, "category"
	}
	price, ok := validate.Price(in.Price)
	if !ok {
		return domain.Product{}, "price"
	}
	return domain.Product{ID: id, Name: name, Category: cat, Price: price, Quantity: in.Quantity, Image: in.Image}, ""
}

// POST /api/v1/admin/products
func (h *AdminHandler) Create(c *fiber.Ctx) error {
	var in productInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	p, bad := in.product()
	if bad != "" {
		return badRequest(c, bad)
	}
	if err := h.Catalog.CreateProduct(c.UserContext(), p); err != nil {
		return fail(c, "admin.product.create.fail", err)
	}
	applog.Audit(c, "admin.product.create", map[string]any{"product": p.ID, "qty": p.Quantity})
	return c.Status(fiber.StatusCreated).JSON(p)
}

// PUT /api/v1/admin/products/:id
func (h *AdminHandler) Update(c *fiber.Ctx) error {
	var in productInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	in.ID = c.Params("id")
	p, bad := in.product()
	if bad != "" {
		return badRequest(c, bad)
	}
	if err := h.Catalog.UpdateProduct(c.UserContext(), p); err != nil {
		return fail(c, "admin.product.update.fail", err)
	}
	applog.Audit(c, "admin.product.update", map[string]any{"product": p.ID, "qty": p.Quantity, "price": p.Price.String()})
	return c.JSON(p)
}

// DELETE /api/v1/admin/products/:id
func (h *AdminHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "product")
	}
	if err := h.Catalog.DeleteProduct(c.UserContext(), id); err != nil {
		return fail(c, "admin.product.delete.fail", err)
	}
	applog.Audit(c, "admin.product.delete", map[string]any{"product": id})
	return c.SendStatus(fiber.StatusNoContent)
}

// GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.Users.ListUsers(c.UserContext())
	if err != nil {
		return fail(c, "admin.user.list.fail", err)
	}
	return c.JSON(users)
}

// PUT /api/v1/admin/users/:id/role
func (h *AdminHandler) SetRole(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "user")
	}
	var in struct {
		Role string `json:"role" form:"role"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	role, ok := validate.Role(in.Role)
	if !ok {
		return badRequest(c, "role")
	}
	if err := h.Users.SetRole(c.UserContext(), currentUser(c), id, role); err != nil {
		return fail(c, "admin.user.role.fail", err)
	}
	applog.Audit(c, "admin.user.role", map[string]any{"user": id, "role": role})
	return c.SendStatus(fiber.StatusNoContent)
}

// DELETE /api/v1/admin/users/:id
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "user")
	}
	if err := h.Users.DeleteUser(c.UserContext(), currentUser(c), id); err != nil {
		return fail(c, "admin.user.delete.fail", err)
	}
	applog.Audit(c, "admin.user.delete", map[string]any{"user": id})
	return c.SendStatus(fiber.StatusNoContent)
}
