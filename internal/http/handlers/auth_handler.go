package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"freshmart/internal/domain"
	applog "freshmart/internal/log"
	"freshmart/internal/services"
	"freshmart/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false, // enable true behind TLS
		})
	}
	return sid
}

type credentials struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Username string `json:"username" form:"username"`
	Address  string `json:"address" form:"address"`
	Contact  string `json:"contact" form:"contact"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in credentials
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	email, ok := validate.Email(in.Email)
	if !ok {
		return badRequest(c, "email")
	}
	name, ok := validate.Name(in.Username)
	if !ok {
		return badRequest(c, "username")
	}
	if !validate.Password(in.Password) {
		return badRequest(c, "password")
	}

	u, err := h.Auth.Register(c.UserContext(), email, name, in.Password, in.Address, in.Contact)
	if errors.Is(err, services.ErrEmailTaken) {
		applog.Security(c, "auth.register.fail", map[string]any{"email": email, "reason": "taken"})
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "EMAIL_TAKEN", "message": err.Error()})
	}
	if err != nil {
		return fail(c, "auth.register.fail", err)
	}
	applog.Audit(c, "auth.register", map[string]any{"email": email})
	return c.Status(fiber.StatusCreated).JSON(u)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := ensureSID(c)
	var in credentials
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	email, ok := validate.Email(in.Email)
	if !ok || !validate.Password(in.Password) {
		applog.Security(c, "auth.login.fail", map[string]any{"email": in.Email, "reason": "bad_format"})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "BAD_CREDENTIALS", "message": services.ErrBadCreds.Error()})
	}

	u, err := h.Auth.Login(c.UserContext(), sid, email, in.Password)
	if err != nil {
		applog.Security(c, "auth.login.fail", map[string]any{"email": email})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "BAD_CREDENTIALS", "message": services.ErrBadCreds.Error()})
	}
	c.Locals("user", u)
	applog.Audit(c, "auth.login.success", map[string]any{"email": email})
	return c.JSON(u)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if sid := c.Cookies("sid"); sid != "" {
		if err := h.Auth.Logout(c.UserContext(), sid); err != nil {
			applog.Error(c, "auth.logout.fail", err, nil)
		}
	}
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	applog.Audit(c, "auth.logout", nil)
	return c.SendStatus(fiber.StatusNoContent)
}

// GET /api/v1/profile
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	return c.JSON(currentUser(c))
}

// PUT /api/v1/profile
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	var in credentials
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	email, ok := validate.Email(in.Email)
	if !ok {
		return badRequest(c, "email")
	}
	name, ok := validate.Name(in.Username)
	if !ok {
		return badRequest(c, "username")
	}

	u, err := h.Auth.UpdateProfile(c.UserContext(), currentUser(c), email, name, in.Address, in.Contact)
	if errors.Is(err, services.ErrEmailTaken) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "EMAIL_TAKEN", "message": err.Error()})
	}
	if err != nil {
		return fail(c, "profile.update.fail", err)
	}
	c.Locals("user", u)
	applog.Audit(c, "profile.update", map[string]any{"email": u.Email})
	return c.JSON(u)
}

type passwordChange struct {
	Current string `json:"current_password" form:"current_password"`
	New     string `json:"new_password" form:"new_password"`
}

// PUT /api/v1/profile/password
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var in passwordChange
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	if !validate.Password(in.New) {
		return badRequest(c, "new_password")
	}
	if err := h.Auth.ChangePassword(c.UserContext(), currentUser(c), in.Current, in.New); err != nil {
		if domain.KindOf(err) == domain.KindInvalidInput {
			applog.Security(c, "profile.password.fail", nil)
		}
		return fail(c, "profile.password.fail", err)
	}
	applog.Audit(c, "profile.password", nil)
	return c.SendStatus(fiber.StatusNoContent)
}
