package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"clothsy/internal/log"
	"clothsy/internal/services"
	"clothsy/internal/validate"
)

type AuthHandler struct {
	Auth         *services.AuthService
	CookieSecure bool
}

type credentials struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// check applies the format rules before touching bcrypt.
func (h *AuthHandler) check(c *fiber.Ctx, cr credentials) (string, error) {
	if _, ok := validate.Name(cr.Username); !ok {
		log.Security(c, "auth.login.fail", map[string]any{"user": cr.Username, "reason": "bad_format"})
		return "", services.ErrBadCreds
	}
	if !validate.Password(cr.Password) {
		log.Security(c, "auth.login.fail", map[string]any{"user": cr.Username, "reason": "bad_password_format"})
		return "", services.ErrBadCreds
	}
	tok, err := h.Auth.Login(cr.Username, cr.Password)
	if err != nil {
		log.Security(c, "auth.login.fail", map[string]any{"user": cr.Username})
		return "", err
	}
	log.Audit(c, "auth.login.success", map[string]any{"user": cr.Username})
	return tok, nil
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{"Title": "Login"})
}

// Login handles the HTML form and keeps the token in an HttpOnly cookie.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var cr credentials
	if err := c.BodyParser(&cr); err != nil {
		return c.Status(fiber.StatusBadRequest).Render("login", fiber.Map{"Err": "Invalid request"})
	}
	tok, err := h.check(c, cr)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).Render("login", fiber.Map{
			"Err": "Invalid username or password", "CSRFToken": c.Cookies("csrf_"),
		})
	}
	c.Cookie(&fiber.Cookie{
		Name:     tokenCookie,
		Value:    tok,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   h.CookieSecure,
		Expires:  time.Now().Add(h.Auth.TTL()),
	})
	return c.Redirect("/admin")
}

// APILogin is POST /api/v1/admin/login.
func (h *AuthHandler) APILogin(c *fiber.Ctx) error {
	var cr credentials
	if err := c.BodyParser(&cr); err != nil {
		return badRequest(c, "invalid request body")
	}
	tok, err := h.check(c, cr)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid username or password"})
	}
	return c.JSON(fiber.Map{"token": tok, "expiresIn": int(h.Auth.TTL().Seconds())})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     tokenCookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   h.CookieSecure,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	log.Audit(c, "auth.logout", nil)
	return c.Redirect("/login")
}
