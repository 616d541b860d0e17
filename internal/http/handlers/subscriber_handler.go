package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "clothsy/internal/log"
	"clothsy/internal/store"
)

type SubscriberHandler struct {
	Store *store.Store
}

// Subscribe answers 201 for a new address and 200 with duplicate=true when the
// address was already on the list.
func (h *SubscriberHandler) Subscribe(c *fiber.Ctx) error {
	var body struct {
		Email string `json:"email" form:"email"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	sub, outcome, err := h.Store.AddSubscriber(c.UserContext(), body.Email)
	if err != nil {
		return apiError(c, "subscribers.add", err, nil)
	}
	if outcome == store.AlreadySubscribed {
		applog.Info(c, "subscribers.duplicate", nil)
		return c.JSON(fiber.Map{"duplicate": true})
	}
	applog.Audit(c, "subscribers.add", map[string]any{"subscriber_id": sub.ID})
	return c.Status(fiber.StatusCreated).JSON(sub)
}

func (h *SubscriberHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.Store.Subscribers())
}

// ExportCSV downloads the mailing list as subscribers.csv.
func (h *SubscriberHandler) ExportCSV(c *fiber.Ctx) error {
	out, err := h.Store.ExportSubscribersCSV()
	if err != nil {
		return apiError(c, "admin.subscribers.export", err, nil)
	}
	c.Attachment("subscribers.csv")
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	applog.Audit(c, "admin.subscribers.export", nil)
	return c.SendString(out)
}
