package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryMens        Category = "mens"
	CategoryWomens      Category = "womens"
	CategoryAccessories Category = "accessories"
)

var Categories = []Category{CategoryMens, CategoryWomens, CategoryAccessories}

// ParseCategory normalizes case and accepts the singular forms older rows carry ("men", "women").
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mens", "men":
		return CategoryMens, true
	case "womens", "women":
		return CategoryWomens, true
	case "accessories", "accessory":
		return CategoryAccessories, true
	}
	return "", false
}

type Product struct {
	ID            string           `json:"id"`
	Code          string           `json:"code"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	Sizes         StringList       `json:"sizes"`
	Colors        StringList       `json:"colors"`
	Images        StringList       `json:"images"`
	Model3D       string           `json:"model3d,omitempty"`
	Category      Category         `json:"category"`
	InStock       bool             `json:"inStock"`
	Visible       bool             `json:"visible"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// Clone returns a copy that shares no slices or pointers with p.
func (p Product) Clone() Product {
	out := p
	out.Sizes = p.Sizes.Clone()
	out.Colors = p.Colors.Clone()
	out.Images = p.Images.Clone()
	if p.OriginalPrice != nil {
		op := *p.OriginalPrice
		out.OriginalPrice = &op
	}
	return out
}

// MainImage is the first image or "" when the product has none.
func (p Product) MainImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

func (p Product) HasSize(s string) bool  { return p.Sizes.Contains(s) }
func (p Product) HasColor(s string) bool { return p.Colors.Contains(s) }

// ProductDraft is the admin input for a new product; id and createdAt are assigned remotely.
type ProductDraft struct {
	Code          string           `json:"code"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	Sizes         StringList       `json:"sizes"`
	Colors        StringList       `json:"colors"`
	Images        StringList       `json:"images"`
	Model3D       string           `json:"model3d,omitempty"`
	Category      Category         `json:"category"`
	InStock       bool             `json:"inStock"`
	Visible       bool             `json:"visible"`
}

var ErrInvalidProduct = errors.New("invalid product")

func (d ProductDraft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if d.Price.IsNegative() {
		return fmt.Errorf("%w: price must be >= 0", ErrInvalidProduct)
	}
	if d.OriginalPrice != nil && d.OriginalPrice.IsNegative() {
		return fmt.Errorf("%w: originalPrice must be >= 0", ErrInvalidProduct)
	}
	if _, ok := ParseCategory(string(d.Category)); !ok {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidProduct, d.Category)
	}
	return nil
}

// ProductPatch is a partial update. Nil fields are left untouched.
type ProductPatch struct {
	Code          *string          `json:"code,omitempty"`
	Name          *string          `json:"name,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	// ClearOriginalPrice removes the discount; JSON null cannot be told from absent.
	ClearOriginalPrice bool        `json:"clearOriginalPrice,omitempty"`
	Sizes              *StringList `json:"sizes,omitempty"`
	Colors             *StringList `json:"colors,omitempty"`
	Images             *StringList `json:"images,omitempty"`
	Model3D            *string     `json:"model3d,omitempty"`
	Category           *Category   `json:"category,omitempty"`
	InStock            *bool       `json:"inStock,omitempty"`
	Visible            *bool       `json:"visible,omitempty"`
}

func (p ProductPatch) Empty() bool {
	return p == ProductPatch{}
}

func (p ProductPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("%w: name cannot be blank", ErrInvalidProduct)
	}
	if p.Price != nil && p.Price.IsNegative() {
		return fmt.Errorf("%w: price must be >= 0", ErrInvalidProduct)
	}
	if p.ClearOriginalPrice && p.OriginalPrice != nil {
		return fmt.Errorf("%w: originalPrice and clearOriginalPrice are exclusive", ErrInvalidProduct)
	}
	if p.OriginalPrice != nil && p.OriginalPrice.IsNegative() {
		return fmt.Errorf("%w: originalPrice must be >= 0", ErrInvalidProduct)
	}
	if p.Category != nil {
		if _, ok := ParseCategory(string(*p.Category)); !ok {
			return fmt.Errorf("%w: unknown category %q", ErrInvalidProduct, *p.Category)
		}
	}
	return nil
}

// Apply returns prod with the patch applied.
func (p ProductPatch) Apply(prod Product) Product {
	out := prod.Clone()
	if p.Code != nil {
		out.Code = *p.Code
	}
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Price != nil {
		out.Price = *p.Price
	}
	if p.OriginalPrice != nil {
		op := *p.OriginalPrice
		out.OriginalPrice = &op
	}
	if p.ClearOriginalPrice {
		out.OriginalPrice = nil
	}
	if p.Sizes != nil {
		out.Sizes = p.Sizes.Clone()
	}
	if p.Colors != nil {
		out.Colors = p.Colors.Clone()
	}
	if p.Images != nil {
		out.Images = p.Images.Clone()
	}
	if p.Model3D != nil {
		out.Model3D = *p.Model3D
	}
	if p.Category != nil {
		c, _ := ParseCategory(string(*p.Category))
		out.Category = c
	}
	if p.InStock != nil {
		out.InStock = *p.InStock
	}
	if p.Visible != nil {
		out.Visible = *p.Visible
	}
	return out
}

// StringList is an ordered list stored as a JSON array column.
type StringList []string

func (l StringList) Clone() StringList {
	if l == nil {
		return nil
	}
	out := make(StringList, len(l))
	copy(out, l)
	return out
}

func (l StringList) Contains(s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}

// MarshalJSON writes nil as [] so clients always see an array.
func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("StringList: cannot scan %T", src)
	}
	if len(raw) == 0 {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

// FormatPrice renders an amount the way the storefront shows it.
func FormatPrice(d decimal.Decimal) string {
	return d.String() + " MAD"
}
