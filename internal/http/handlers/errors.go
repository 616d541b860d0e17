package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"clothsy/internal/domain"
	applog "clothsy/internal/log"
	"clothsy/internal/services"
	"clothsy/internal/store"
)

// statusFor maps store and service errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, store.ErrInvalid):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, services.ErrOutOfStock):
		return fiber.StatusConflict
	case errors.Is(err, store.ErrRemote):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// apiError logs err under action and writes a JSON error without internal
// details for 5xx responses.
func apiError(c *fiber.Ctx, action string, err error, fields map[string]any) error {
	status := statusFor(err)
	msg := err.Error()
	switch {
	case status == fiber.StatusBadGateway:
		msg = "the data service is unavailable, please retry"
		applog.Error(c, action+".fail", err, fields)
	case status >= 500:
		msg = "something went wrong"
		applog.Error(c, action+".fail", err, fields)
	default:
		applog.Warn(c, action+".reject", err, fields)
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
