package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"clothsy/internal/domain"
	"clothsy/internal/log"
	"clothsy/internal/store"
	"clothsy/internal/validate"
)

type ProductHandler struct {
	Store *store.Store
}

// List is the public catalogue: GET /api/v1/products[?category=&q=].
func (h *ProductHandler) List(c *fiber.Ctx) error {
	products := h.Store.VisibleProducts()
	if raw := c.Query("category"); raw != "" {
		cat, ok := domain.ParseCategory(raw)
		if !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "category"})
			return badRequest(c, "unknown category")
		}
		products = h.Store.ProductsByCategory(cat)
	}
	if raw := c.Query("q"); raw != "" {
		q, ok := validate.Text(raw, 60)
		if !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "q"})
			return badRequest(c, "search term is too long")
		}
		products = search(products, q)
	}
	return c.JSON(products)
}

func search(products []domain.Product, q string) []domain.Product {
	q = strings.ToLower(q)
	out := products[:0]
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Code), q) {
			out = append(out, p)
		}
	}
	return out
}

// Detail hides invisible products from the public.
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
	}
	p, ok := h.Store.Product(id)
	if !ok || !p.Visible {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
	}
	return c.JSON(p)
}

// AdminList includes hidden products.
func (h *ProductHandler) AdminList(c *fiber.Ctx) error {
	return c.JSON(h.Store.Products())
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var d domain.ProductDraft
	if err := c.BodyParser(&d); err != nil {
		return badRequest(c, "invalid product body")
	}
	p, err := h.Store.AddProduct(c.UserContext(), d)
	if err != nil {
		return apiError(c, "admin.products.add", err, map[string]any{"name": d.Name})
	}
	log.Audit(c, "admin.products.add", map[string]any{"product_id": p.ID, "name": p.Name})
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	var patch domain.ProductPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "invalid product patch")
	}
	p, err := h.Store.UpdateProduct(c.UserContext(), id, patch)
	if err != nil {
		return apiError(c, "admin.products.update", err, map[string]any{"product_id": id})
	}
	log.Audit(c, "admin.products.update", map[string]any{"product_id": id})
	return c.JSON(p)
}

// ToggleVisibility is POST /api/v1/admin/products/:id/visibility.
func (h *ProductHandler) ToggleVisibility(c *fiber.Ctx) error {
	id := c.Params("id")
	p, err := h.Store.ToggleProductVisibility(c.UserContext(), id)
	if err != nil {
		return apiError(c, "admin.products.visibility", err, map[string]any{"product_id": id})
	}
	log.Audit(c, "admin.products.visibility", map[string]any{"product_id": id, "visible": p.Visible})
	return c.JSON(p)
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Store.DeleteProduct(c.UserContext(), id); err != nil {
		return apiError(c, "admin.products.delete", err, map[string]any{"product_id": id})
	}
	log.Audit(c, "admin.products.delete", map[string]any{"product_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
