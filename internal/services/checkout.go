package services

import (
	"context"
	"errors"
	"fmt"

	"clothsy/internal/domain"
	"clothsy/internal/store"
	"clothsy/internal/validate"
)

var ErrOutOfStock = errors.New("product is out of stock")

// Catalog is the part of the store checkout needs.
type Catalog interface {
	Product(id string) (domain.Product, bool)
	AddOrder(ctx context.Context, d domain.OrderDraft) (domain.Order, error)
}

// CheckoutRequest is what the storefront form posts. Product details other than
// the id are never taken from the client.
type CheckoutRequest struct {
	ProductID       string `json:"productId" form:"productId"`
	Size            string `json:"size" form:"size"`
	Color           string `json:"color" form:"color"`
	Quantity        int    `json:"quantity" form:"quantity"`
	CustomerName    string `json:"customerName" form:"customerName"`
	CustomerPhone   string `json:"customerPhone" form:"customerPhone"`
	CustomerEmail   string `json:"customerEmail" form:"customerEmail"`
	CustomerAddress string `json:"customerAddress" form:"customerAddress"`
	CustomerCity    string `json:"customerCity" form:"customerCity"`
	Notes           string `json:"notes" form:"notes"`
}

type CheckoutService struct {
	Catalog Catalog
}

func NewCheckoutService(c Catalog) *CheckoutService { return &CheckoutService{Catalog: c} }

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", store.ErrInvalid, fmt.Sprintf(format, args...))
}

// Place validates the request against the mirrored product and records a
// cash-on-delivery order priced from the catalogue.
func (s *CheckoutService) Place(ctx context.Context, req CheckoutRequest) (domain.Order, error) {
	id, ok := validate.ID(req.ProductID)
	if !ok {
		return domain.Order{}, invalid("bad product id")
	}
	p, ok := s.Catalog.Product(id)
	if !ok || !p.Visible {
		return domain.Order{}, fmt.Errorf("product %s: %w", id, store.ErrNotFound)
	}
	if !p.InStock {
		return domain.Order{}, ErrOutOfStock
	}
	if len(p.Sizes) > 0 && !p.HasSize(req.Size) {
		return domain.Order{}, invalid("size %q is not offered", req.Size)
	}
	if len(p.Colors) > 0 && !p.HasColor(req.Color) {
		return domain.Order{}, invalid("color %q is not offered", req.Color)
	}
	if req.Quantity < 1 || req.Quantity > 50 {
		return domain.Order{}, invalid("quantity must be between 1 and 50")
	}

	name, ok := validate.Name(req.CustomerName)
	if !ok {
		return domain.Order{}, invalid("name is required")
	}
	phone, ok := validate.Phone(req.CustomerPhone)
	if !ok {
		return domain.Order{}, invalid("phone number is not valid")
	}
	city, ok := validate.City(req.CustomerCity)
	if !ok {
		return domain.Order{}, invalid("we do not deliver to %q", req.CustomerCity)
	}
	address, ok := validate.Text(req.CustomerAddress, 200)
	if !ok || address == "" {
		return domain.Order{}, invalid("address is required")
	}
	notes, ok := validate.Text(req.Notes, 500)
	if !ok {
		return domain.Order{}, invalid("notes are too long")
	}
	var email string
	if req.CustomerEmail != "" {
		if email, ok = validate.Email(req.CustomerEmail); !ok {
			return domain.Order{}, invalid("email is not valid")
		}
	}

	return s.Catalog.AddOrder(ctx, domain.OrderDraft{
		ProductID:       p.ID,
		ProductCode:     p.Code,
		ProductName:     p.Name,
		ProductImage:    p.MainImage(),
		ProductPrice:    p.Price,
		Size:            req.Size,
		Color:           req.Color,
		Quantity:        req.Quantity,
		CustomerName:    name,
		CustomerPhone:   phone,
		CustomerEmail:   email,
		CustomerAddress: address,
		CustomerCity:    city,
		Notes:           notes,
	})
}
