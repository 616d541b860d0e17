package handlers

import (
	"github.com/gofiber/fiber/v2"

	"clothsy/internal/domain"
	applog "clothsy/internal/log"
	"clothsy/internal/store"
)

// AdminHandler serves the server-rendered admin pages.
type AdminHandler struct {
	Store *store.Store
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	return render(c, "admin_dashboard", fiber.Map{
		"Title":     "Dashboard",
		"Stats":     h.Store.Stats(),
		"Statuses":  domain.Statuses,
		"TopCities": h.Store.TopCities(5),
		"Revenue":   h.Store.Revenue(),
	})
}

// GET /admin/orders
func (h *AdminHandler) OrdersPage(c *fiber.Ctx) error {
	return render(c, "admin_orders", fiber.Map{"Title": "Orders", "Orders": h.Store.Orders()})
}

// POST /admin/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	status := c.FormValue("status")
	if id == "" || status == "" {
		return c.Status(fiber.StatusBadRequest).SendString("missing id or status")
	}
	if _, err := h.Store.UpdateOrderStatus(c.UserContext(), id, domain.OrderStatus(status)); err != nil {
		applog.Error(c, "admin.orders.update.fail", err, map[string]any{"order_id": id, "status": status})
		c.Status(statusFor(err))
		return render(c, "admin_orders", fiber.Map{
			"Title": "Orders", "Orders": h.Store.Orders(), "Err": "Could not update order " + id,
		})
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": status})
	return c.Redirect("/admin/orders")
}
