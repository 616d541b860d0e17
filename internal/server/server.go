// Package server assembles the fiber application: views, middleware and routes.
package server

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"clothsy/internal/domain"
	"clothsy/internal/http/handlers"
	applog "clothsy/internal/log"
	"clothsy/internal/services"
	"clothsy/web"
)

type Options struct {
	CookieSecure bool
	CORSOrigins  []string
	// RateLimit is requests per minute per IP; 0 disables the global limiter.
	RateLimit int
	// LoginLimit is login attempts per 10 minutes per IP; 0 disables it.
	LoginLimit int
	// AccessLog enables the fiber request logger.
	AccessLog bool
}

func DefaultOptions() Options {
	return Options{RateLimit: 120, LoginLimit: 5, AccessLog: true}
}

// Views builds the html engine over the embedded templates.
func Views() *html.Engine {
	engine := html.NewFileSystem(web.Templates(), ".html")
	engine.AddFunc("price", domain.FormatPrice)
	engine.AddFunc("nextStatuses", domain.NextStatuses)
	return engine
}

// ErrorHandler answers JSON under /api and renders the notfound page elsewhere,
// never echoing internal error text for 5xx.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= 500 {
		applog.Error(c, "server.error", err, nil)
	}
	if strings.HasPrefix(c.Path(), "/api/") {
		msg := "something went wrong"
		if code < 500 {
			msg = err.Error()
		}
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
	msg := "Something went wrong. Please try again."
	if code == fiber.StatusNotFound {
		msg = "Page not found"
	}
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

// New wires every route onto a fresh app.
func New(deps *handlers.Deps, auth *services.AuthService, opt Options) *fiber.App {
	app := fiber.New(fiber.Config{
		Views:        Views(),
		ErrorHandler: ErrorHandler,
		BodyLimit:    1 << 20, // 1 MiB
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	if opt.AccessLog {
		app.Use(logger.New())
	}
	app.Use(helmet.New(helmet.Config{
		// the dashboard has a small inline script for the live feed
		ContentSecurityPolicy: "default-src 'self'; script-src 'self' 'unsafe-inline'; connect-src 'self' ws: wss:; img-src 'self' https: data:",
	}))
	if len(opt.CORSOrigins) > 0 {
		app.Use("/api", cors.New(cors.Config{
			AllowOrigins: strings.Join(opt.CORSOrigins, ","),
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
			AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		}))
	}
	if opt.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        opt.RateLimit,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return strings.HasPrefix(c.Path(), "/static/")
			},
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.global.hit", nil)
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
			},
		}))
	}
	app.Use(handlers.AttachAdmin(auth))

	// CSRF protects the cookie-authenticated HTML forms only; the JSON API uses
	// bearer tokens.
	csrfMW := csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   opt.CookieSecure,
		CookieHTTPOnly: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"err": err.Error()})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	})
	exposeCSRF := func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	}

	app.Use("/static", filesystem.New(filesystem.Config{Root: web.Static(), MaxAge: 3600}))

	health := func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) }
	app.Get("/healthz", health)

	// ---------- Public API ----------
	api := app.Group("/api/v1")
	api.Get("/healthz", health)
	api.Get("/products", deps.ProductHandler.List)
	api.Get("/products/:id", deps.ProductHandler.Detail)
	api.Post("/orders", deps.OrderHandler.Place)
	api.Post("/subscribers", deps.SubscriberHandler.Subscribe)
	api.Post("/visits", deps.StatsHandler.RecordVisit)
	api.Post("/contact", deps.ContactHandler.Send)

	app.Get("/confirmation/:id", deps.OrderHandler.Confirmation)

	// ---------- Admin API ----------
	loginLimit := func(reached fiber.Handler) fiber.Handler {
		if opt.LoginLimit <= 0 {
			return func(c *fiber.Ctx) error { return c.Next() }
		}
		return limiter.New(limiter.Config{
			Max:          opt.LoginLimit,
			Expiration:   10 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string { return c.IP() + "|login" },
			LimitReached: reached,
		})
	}
	api.Post("/admin/login", loginLimit(func(c *fiber.Ctx) error {
		applog.Security(c, "rate.login.hit", nil)
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts, try again later"})
	}), deps.AuthHandler.APILogin)

	admin := api.Group("/admin", handlers.RequireAdminAPI(auth))
	admin.Get("/products", deps.ProductHandler.AdminList)
	admin.Post("/products", deps.ProductHandler.Create)
	admin.Patch("/products/:id", deps.ProductHandler.Update)
	admin.Delete("/products/:id", deps.ProductHandler.Delete)
	admin.Post("/products/:id/visibility", deps.ProductHandler.ToggleVisibility)
	admin.Get("/orders", deps.OrderHandler.List)
	admin.Get("/orders/export.csv", deps.OrderHandler.ExportCSV)
	admin.Get("/orders/export.xlsx", deps.OrderHandler.ExportXLSX)
	admin.Patch("/orders/:id/status", deps.OrderHandler.UpdateStatus)
	admin.Delete("/orders/:id", deps.OrderHandler.Delete)
	admin.Get("/subscribers", deps.SubscriberHandler.List)
	admin.Get("/subscribers/export.csv", deps.SubscriberHandler.ExportCSV)
	admin.Get("/stats", deps.StatsHandler.Stats)
	admin.Post("/stats/reconcile", deps.StatsHandler.Reconcile)
	admin.Post("/refresh", deps.StatsHandler.Refresh)
	admin.Get("/live", handlers.LiveUpgrade, deps.StatsHandler.Live())

	// ---------- Admin HTML ----------
	app.Get("/login", csrfMW, exposeCSRF, deps.AuthHandler.LoginForm)
	app.Post("/login", csrfMW, exposeCSRF, loginLimit(func(c *fiber.Ctx) error {
		applog.Security(c, "rate.login.hit", nil)
		return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
	}), deps.AuthHandler.Login)
	app.Post("/logout", csrfMW, deps.AuthHandler.Logout)

	pages := app.Group("/admin", handlers.RequireAdmin(auth), csrfMW, exposeCSRF)
	pages.Get("/", deps.AdminHandler.Dashboard)
	pages.Get("/orders", deps.AdminHandler.OrdersPage)
	pages.Post("/orders/:id/status", deps.AdminHandler.UpdateOrderStatus)

	// 404
	app.Use(func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/api/") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		}
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
	})
	return app
}
