package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "freshmart/internal/log"
	"freshmart/internal/services"
	"freshmart/internal/validate"
)

type ReviewHandler struct {
	Reviews *services.ReviewService
}

func (h *ReviewHandler) List(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "product")
	}
	out, err := h.Reviews.List(c.UserContext(), pid)
	if err != nil {
		return fail(c, "review.list.fail", err)
	}
	return c.JSON(out)
}

func (h *ReviewHandler) Add(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "product")
	}
	var in struct {
		Stars   int    `json:"stars"`
		Comment string `json:"comment"`
	}
	if err := c.BodyParser(&in); err != nil || !validate.Stars(in.Stars) {
		return badRequest(c, "stars")
	}
	comment, ok := validate.Comment(in.Comment)
	if !ok {
		return badRequest(c, "comment")
	}
	u := currentUser(c)
	if err := h.Reviews.Add(c.UserContext(), pid, u.ID, in.Stars, comment); err != nil {
		return fail(c, "review.add.fail", err)
	}
	applog.Audit(c, "review.add", map[string]any{"product": pid, "stars": in.Stars})
	return c.SendStatus(fiber.StatusCreated)
}
