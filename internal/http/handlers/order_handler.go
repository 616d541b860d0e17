package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"clothsy/internal/domain"
	applog "clothsy/internal/log"
	"clothsy/internal/services"
	"clothsy/internal/store"
	"clothsy/internal/validate"
)

type OrderHandler struct {
	Store    *store.Store
	Checkout *services.CheckoutService
}

// Place is the public checkout: POST /api/v1/orders. Only the product id is
// trusted from the client; everything priced comes from the mirror.
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	var req services.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "body"})
		return badRequest(c, "invalid order body")
	}
	o, err := h.Checkout.Place(c.UserContext(), req)
	if err != nil {
		return apiError(c, "order.place", err, map[string]any{"product_id": req.ProductID})
	}
	applog.Audit(c, "order.place", map[string]any{
		"order_id": o.ID,
		"total":    o.Total().String(),
		"city":     o.CustomerCity,
	})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":    o.ID,
		"total": json.Number(o.Total().String()),
		"label": domain.FormatPrice(o.Total()),
	})
}

// Confirmation renders GET /confirmation/:id.
func (h *OrderHandler) Confirmation(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFoundPage(c, "Order not found")
	}
	o, ok := h.Store.Order(id)
	if !ok {
		return notFoundPage(c, "Order not found")
	}
	return render(c, "confirmation", fiber.Map{"Title": "Order " + o.ID, "Order": o})
}

// List is the admin order list, newest first, optionally filtered by ?status=.
func (h *OrderHandler) List(c *fiber.Ctx) error {
	orders := h.Store.Orders()
	if raw := c.Query("status"); raw != "" {
		st, ok := domain.ParseStatus(raw)
		if !ok {
			return badRequest(c, "unknown status")
		}
		filtered := orders[:0]
		for _, o := range orders {
			if o.Status == st {
				filtered = append(filtered, o)
			}
		}
		orders = filtered
	}
	return c.JSON(orders)
}

type statusBody struct {
	Status string `json:"status" form:"status"`
}

// UpdateStatus is PATCH /api/v1/admin/orders/:id/status.
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	var body statusBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid status body")
	}
	o, err := h.Store.UpdateOrderStatus(c.UserContext(), id, domain.OrderStatus(body.Status))
	if err != nil {
		return apiError(c, "admin.orders.update", err, map[string]any{"order_id": id, "status": body.Status})
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": o.Status})
	return c.JSON(o)
}

func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Store.DeleteOrder(c.UserContext(), id); err != nil {
		return apiError(c, "admin.orders.delete", err, map[string]any{"order_id": id})
	}
	applog.Audit(c, "admin.orders.delete", map[string]any{"order_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

func exportName(ext string) string {
	return fmt.Sprintf("orders_%s.%s", time.Now().Format("2006-01-02"), ext)
}

func (h *OrderHandler) ExportCSV(c *fiber.Ctx) error {
	out, err := h.Store.ExportOrdersCSV()
	if err != nil {
		return apiError(c, "admin.orders.export", err, map[string]any{"format": "csv"})
	}
	c.Attachment(exportName("csv"))
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	applog.Audit(c, "admin.orders.export", map[string]any{"format": "csv"})
	return c.SendString(out)
}

func (h *OrderHandler) ExportXLSX(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.Store.ExportOrdersXLSX(&buf); err != nil {
		return apiError(c, "admin.orders.export", err, map[string]any{"format": "xlsx"})
	}
	c.Attachment(exportName("xlsx"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	applog.Audit(c, "admin.orders.export", map[string]any{"format": "xlsx"})
	return c.Send(buf.Bytes())
}
