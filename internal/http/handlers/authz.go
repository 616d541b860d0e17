package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "clothsy/internal/log"
	"clothsy/internal/services"
)

const tokenCookie = "admin_token"

// adminToken reads a bearer token, falling back to the session cookie set by the
// HTML login (browsers cannot add headers to websocket handshakes).
func adminToken(c *fiber.Ctx) string {
	if h := c.Get(fiber.HeaderAuthorization); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	return c.Cookies(tokenCookie)
}

// AttachAdmin puts the admin name into Locals when a valid token is present.
func AttachAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tok := adminToken(c); tok != "" {
			if who, err := auth.Verify(tok); err == nil {
				c.Locals("admin", who)
			}
		}
		return c.Next()
	}
}

// RequireAdmin guards the HTML admin pages.
func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok := adminToken(c)
		if tok == "" {
			return c.Redirect("/login")
		}
		who, err := auth.Verify(tok)
		if err != nil {
			applog.Security(c, "access.denied.admin", map[string]any{"reason": err.Error()})
			return c.Redirect("/login")
		}
		c.Locals("admin", who)
		return c.Next()
	}
}

// RequireAdminAPI guards the admin JSON API.
func RequireAdminAPI(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok := adminToken(c)
		if tok == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}
		who, err := auth.Verify(tok)
		if err != nil {
			applog.Security(c, "access.denied.admin", map[string]any{"reason": err.Error()})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}
		c.Locals("admin", who)
		return c.Next()
	}
}
