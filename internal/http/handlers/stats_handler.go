package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"

	"clothsy/internal/live"
	applog "clothsy/internal/log"
	"clothsy/internal/store"
)

type StatsHandler struct {
	Store *store.Store
	Hub   *live.Hub
	// Wait makes RecordVisit synchronous; tests use it.
	Wait bool
}

// RecordVisit is POST /api/v1/visits. The visit is counted after the response.
func (h *StatsHandler) RecordVisit(c *fiber.Ctx) error {
	record := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		h.Store.RecordVisit(ctx)
	}
	if h.Wait {
		record()
	} else {
		go record()
	}
	return c.SendStatus(fiber.StatusAccepted)
}

// Stats returns the advisory aggregate next to the values recomputed from the
// mirror, so the admin can see drift.
func (h *StatsHandler) Stats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"advisory":  h.Store.Stats(),
		"computed":  h.Store.ComputeStats(),
		"topCities": h.Store.TopCities(5),
		"revenue":   json.Number(h.Store.Revenue().String()),
	})
}

// Reconcile writes the recomputed counters back to the aggregate.
func (h *StatsHandler) Reconcile(c *fiber.Ctx) error {
	st, err := h.Store.Reconcile(c.UserContext())
	if err != nil {
		return apiError(c, "admin.stats.reconcile", err, nil)
	}
	applog.Audit(c, "admin.stats.reconcile", nil)
	return c.JSON(st)
}

func (h *StatsHandler) Refresh(c *fiber.Ctx) error {
	h.Store.Refresh(c.UserContext())
	applog.Audit(c, "admin.refresh", nil)
	return c.JSON(fiber.Map{
		"products":    len(h.Store.Products()),
		"orders":      len(h.Store.Orders()),
		"subscribers": len(h.Store.Subscribers()),
	})
}

// Live upgrades to the change feed websocket.
func (h *StatsHandler) Live() fiber.Handler {
	return h.Hub.Handler()
}

// LiveUpgrade rejects plain HTTP requests to the change feed.
func LiveUpgrade(c *fiber.Ctx) error { return live.Upgrade(c) }
