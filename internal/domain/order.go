package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidOrder = errors.New("invalid order")

// Order keeps a snapshot of the product as it was when the order was placed.
type Order struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"productId"`
	ProductCode     string          `json:"productCode"`
	ProductName     string          `json:"productName"`
	ProductImage    string          `json:"productImage"`
	ProductPrice    decimal.Decimal `json:"productPrice"`
	Size            string          `json:"size"`
	Color           string          `json:"color"`
	Quantity        int             `json:"quantity"`
	CustomerName    string          `json:"customerName"`
	CustomerPhone   string          `json:"customerPhone"`
	CustomerEmail   string          `json:"customerEmail,omitempty"`
	CustomerAddress string          `json:"customerAddress"`
	CustomerCity    string          `json:"customerCity"`
	Notes           string          `json:"notes"`
	Status          OrderStatus     `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Total is always derived; it is never persisted.
func (o Order) Total() decimal.Decimal {
	return o.ProductPrice.Mul(decimal.NewFromInt(int64(o.Quantity)))
}

// Variant is the "size / color" label used by notifications.
func (o Order) Variant() string {
	return o.Size + " / " + o.Color
}

type OrderDraft struct {
	ProductID       string          `json:"productId"`
	ProductCode     string          `json:"productCode"`
	ProductName     string          `json:"productName"`
	ProductImage    string          `json:"productImage"`
	ProductPrice    decimal.Decimal `json:"productPrice"`
	Size            string          `json:"size"`
	Color           string          `json:"color"`
	Quantity        int             `json:"quantity"`
	CustomerName    string          `json:"customerName"`
	CustomerPhone   string          `json:"customerPhone"`
	CustomerEmail   string          `json:"customerEmail,omitempty"`
	CustomerAddress string          `json:"customerAddress"`
	CustomerCity    string          `json:"customerCity"`
	Notes           string          `json:"notes"`
}

func (d OrderDraft) Validate() error {
	if d.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidOrder)
	}
	if d.ProductPrice.IsNegative() {
		return fmt.Errorf("%w: price must be >= 0", ErrInvalidOrder)
	}
	if strings.TrimSpace(d.ProductName) == "" {
		return fmt.Errorf("%w: product name is required", ErrInvalidOrder)
	}
	if strings.TrimSpace(d.CustomerName) == "" || strings.TrimSpace(d.CustomerPhone) == "" {
		return fmt.Errorf("%w: customer name and phone are required", ErrInvalidOrder)
	}
	return nil
}

// NewOrder stamps a draft with its identity and initial status.
func NewOrder(id string, d OrderDraft, at time.Time) Order {
	return Order{
		ID:              id,
		ProductID:       d.ProductID,
		ProductCode:     d.ProductCode,
		ProductName:     d.ProductName,
		ProductImage:    d.ProductImage,
		ProductPrice:    d.ProductPrice,
		Size:            d.Size,
		Color:           d.Color,
		Quantity:        d.Quantity,
		CustomerName:    d.CustomerName,
		CustomerPhone:   d.CustomerPhone,
		CustomerEmail:   d.CustomerEmail,
		CustomerAddress: d.CustomerAddress,
		CustomerCity:    d.CustomerCity,
		Notes:           d.Notes,
		Status:          StatusPending,
		CreatedAt:       at,
	}
}
