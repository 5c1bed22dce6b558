package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"freshmart/internal/domain"
	applog "freshmart/internal/log"
)

const genericMessage = "Something went wrong. Please try again."

func statusOf(k domain.Kind) int {
	switch k {
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindOutOfStock, domain.KindInsufficientStock, domain.KindQuantityExceedsStock, domain.KindReservationExpired:
		return fiber.StatusConflict
	case domain.KindInvalidQuantity, domain.KindInvalidInput:
		return fiber.StatusUnprocessableEntity
	case domain.KindEmptyCart:
		return fiber.StatusBadRequest
	case domain.KindPersistence:
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// fail renders a domain error as {"error": kind, "message": msg}. Anything
// else is handed to the app's ErrorHandler, which hides the details.
func fail(c *fiber.Ctx, action string, err error) error {
	var de *domain.Error
	if !errors.As(err, &de) {
		return err
	}
	c.Status(statusOf(de.Kind))
	if de.Retryable() {
		c.Set(fiber.HeaderRetryAfter, "1")
		applog.Error(c, action, err, nil)
	} else {
		applog.Warn(c, action, err, nil)
	}
	msg := de.Message
	if msg == "" {
		msg = string(de.Kind)
	}
	return c.JSON(fiber.Map{"error": de.Kind, "message": msg})
}

func badRequest(c *fiber.Ctx, field string) error {
	applog.Security(c, "validation.fail", map[string]any{"field": field})
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"error":   domain.KindInvalidInput,
		"message": "invalid " + field,
	})
}

func isAPI(c *fiber.Ctx) bool { return strings.HasPrefix(c.Path(), "/api/") }

// ErrorHandler logs the cause and shows a friendly message without internals.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := genericMessage
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		if code < fiber.StatusInternalServerError {
			msg = fe.Message
		}
	}
	if code >= fiber.StatusInternalServerError {
		applog.Error(c, "server.error", err, nil)
	}

	if isAPI(c) {
		return c.Status(code).JSON(fiber.Map{"error": "INTERNAL", "message": msg})
	}
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}
