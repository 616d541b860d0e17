package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	applog "clothsy/internal/log"
	"clothsy/internal/notify"
	"clothsy/internal/validate"
)

type ContactHandler struct {
	Relay ContactSender
	// Wait makes delivery synchronous; tests use it.
	Wait bool
}

// Send validates the contact form and relays it best effort.
func (h *ContactHandler) Send(c *fiber.Ctx) error {
	var m notify.ContactMessage
	if err := c.BodyParser(&m); err != nil {
		return badRequest(c, "invalid body")
	}
	name, ok := validate.Name(m.Name)
	if !ok {
		return badRequest(c, "name is required")
	}
	email, ok := validate.Email(m.Email)
	if !ok {
		return badRequest(c, "email is not valid")
	}
	msg, ok := validate.Text(m.Message, 2000)
	if !ok || msg == "" {
		return badRequest(c, "message is required")
	}
	if m.Phone != "" {
		if m.Phone, ok = validate.Phone(m.Phone); !ok {
			return badRequest(c, "phone number is not valid")
		}
	}
	m.Name, m.Email, m.Message = name, email, msg

	if h.Relay == nil {
		applog.Warn(c, "contact.relay.disabled", nil, nil)
		return c.SendStatus(fiber.StatusAccepted)
	}
	send := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := h.Relay.Send(ctx, m); err != nil {
			applog.Error(nil, "contact.relay.fail", err, nil)
			return
		}
		applog.Info(nil, "contact.relay.sent", nil)
	}
	if h.Wait {
		send()
	} else {
		go send()
	}
	return c.SendStatus(fiber.StatusAccepted)
}
