package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	applog "freshmart/internal/log"
	"freshmart/web"
)

// AppOptions toggles the middleware tests usually want off.
type AppOptions struct {
	CSRF      bool
	AccessLog bool
	// RateLimit is requests per minute per IP; 0 disables the limiter.
	RateLimit int
}

// NewApp builds the fiber app with middleware and every route.
func NewApp(d *Deps, opt AppOptions) *fiber.App {
	app := fiber.New(fiber.Config{
		Views:        web.Engine(),
		ErrorHandler: ErrorHandler,
		BodyLimit:    1 << 20, // 1 MiB
	})

	app.Use(requestid.New())
	if opt.AccessLog {
		app.Use(logger.New())
	}
	app.Use(helmet.New())
	app.Use(AttachUser(d.Auth))
	if opt.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        opt.RateLimit,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.limit.hit", nil)
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "RATE_LIMITED", "message": "rate limit exceeded, retry soon"})
			},
		}))
	}
	if opt.CSRF {
		app.Use(csrf.New(csrf.Config{
			KeyLookup:      "header:" + csrf.HeaderName,
			CookieName:     "csrf_",
			CookieSameSite: "Lax",
			CookieSecure:   false, // set true behind HTTPS
			Expiration:     time.Hour,
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				applog.Security(c, "csrf.fail", nil)
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "CSRF", "message": "security check failed, refresh and try again"})
			},
		}))
	}

	Routes(app, d)
	return app
}

func Routes(app *fiber.App, d *Deps) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		n, err := d.Orders.Count(c.UserContext())
		if err != nil {
			applog.Error(c, "health.db", err, nil)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"ok": false})
		}
		return c.JSON(fiber.Map{"ok": true, "orders": n})
	})

	api := app.Group("/api/v1")

	api.Post("/register", d.AuthHandler.Register)
	api.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "RATE_LIMITED", "message": "too many attempts, try again later"})
		},
	}), d.AuthHandler.Login)
	api.Post("/logout", d.AuthHandler.Logout)

	profile := api.Group("/profile", RequireUser())
	profile.Get("/", d.AuthHandler.Profile)
	profile.Put("/", d.AuthHandler.UpdateProfile)
	profile.Put("/password", d.AuthHandler.ChangePassword)

	api.Get("/products", d.CatalogHandler.List)
	api.Get("/products/:id", d.CatalogHandler.Get)
	api.Get("/categories", d.CatalogHandler.Categories)
	api.Get("/availability", d.InventoryHandler.Check)
	api.Get("/products/:id/reviews", d.ReviewHandler.List)
	api.Post("/products/:id/reviews", RequireUser(), d.ReviewHandler.Add)

	cart := api.Group("/cart", RequireUser())
	cart.Get("/", d.CartHandler.View)
	cart.Post("/items", d.CartHandler.Add)
	cart.Patch("/items/:id", d.CartHandler.Update)
	cart.Delete("/items/:id", d.CartHandler.Remove)

	orders := api.Group("/orders", RequireUser())
	orders.Post("/", d.OrderHandler.Place)
	orders.Get("/", d.OrderHandler.History)
	orders.Get("/:id", d.OrderHandler.Get)
	app.Get("/orders/:id/receipt", RequireUser(), d.OrderHandler.Receipt)

	admin := api.Group("/admin", RequireAdmin())
	admin.Post("/products", d.AdminHandler.Create)
	admin.Put("/products/:id", d.AdminHandler.Update)
	admin.Delete("/products/:id", d.AdminHandler.Delete)
	admin.Get("/inventory", d.InventoryHandler.List)
	admin.Put("/inventory/:id", d.InventoryHandler.Set)
	admin.Get("/users", d.AdminHandler.ListUsers)
	admin.Put("/users/:id/role", d.AdminHandler.SetRole)
	admin.Delete("/users/:id", d.AdminHandler.DeleteUser)

	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Page not found")
	})
}
