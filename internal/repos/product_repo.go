package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"clothsy/internal/domain"
	"clothsy/internal/store"
)

type ProductRepo struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db, now: time.Now} }

type productRow struct {
	ID            string              `db:"id"`
	Code          string              `db:"code"`
	Name          string              `db:"name"`
	Description   string              `db:"description"`
	Price         decimal.Decimal     `db:"price"`
	OriginalPrice decimal.NullDecimal `db:"original_price"`
	Sizes         domain.StringList   `db:"sizes"`
	Colors        domain.StringList   `db:"colors"`
	Images        domain.StringList   `db:"images"`
	Model3D       string              `db:"model_3d"`
	Category      string              `db:"category"`
	InStock       bool                `db:"in_stock"`
	Visible       bool                `db:"visible"`
	CreatedAt     string              `db:"created_at"`
}

func (r productRow) toDomain() domain.Product {
	cat, _ := domain.ParseCategory(r.Category)
	p := domain.Product{
		ID: r.ID, Code: r.Code, Name: r.Name, Description: r.Description, Price: r.Price,
		Sizes: r.Sizes, Colors: r.Colors, Images: r.Images, Model3D: r.Model3D,
		Category: cat, InStock: r.InStock, Visible: r.Visible, CreatedAt: parseTS(r.CreatedAt),
	}
	if r.OriginalPrice.Valid {
		op := r.OriginalPrice.Decimal
		p.OriginalPrice = &op
	}
	return p
}

const productCols = `id, code, name, description, price, original_price, sizes, colors, images,
  model_3d, category, in_stock, visible, created_at`

func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+productCols+` FROM products ORDER BY created_at DESC`); err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	var row productRow
	err := r.db.GetContext(ctx, &row, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return domain.Product{}, err
	}
	return row.toDomain(), nil
}

func (r *ProductRepo) Insert(ctx context.Context, d domain.ProductDraft) (domain.Product, error) {
	id := uuid.NewString()
	var op decimal.NullDecimal
	if d.OriginalPrice != nil {
		op = decimal.NewNullDecimal(*d.OriginalPrice)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products(`+productCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, d.Code, d.Name, d.Description, d.Price, op, d.Sizes, d.Colors, d.Images,
		d.Model3D, string(d.Category), d.InStock, d.Visible, formatTS(r.now()))
	if err != nil {
		return domain.Product{}, err
	}
	return r.Get(ctx, id)
}

// Update writes only the columns set in the patch and returns the stored row.
func (r *ProductRepo) Update(ctx context.Context, id string, p domain.ProductPatch) (domain.Product, error) {
	var sets []string
	var args []any
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if p.Code != nil {
		set("code", *p.Code)
	}
	if p.Name != nil {
		set("name", *p.Name)
	}
	if p.Description != nil {
		set("description", *p.Description)
	}
	if p.Price != nil {
		set("price", *p.Price)
	}
	if p.OriginalPrice != nil {
		set("original_price", decimal.NewNullDecimal(*p.OriginalPrice))
	}
	if p.ClearOriginalPrice {
		set("original_price", decimal.NullDecimal{})
	}
	if p.Sizes != nil {
		set("sizes", *p.Sizes)
	}
	if p.Colors != nil {
		set("colors", *p.Colors)
	}
	if p.Images != nil {
		set("images", *p.Images)
	}
	if p.Model3D != nil {
		set("model_3d", *p.Model3D)
	}
	if p.Category != nil {
		c, _ := domain.ParseCategory(string(*p.Category))
		set("category", string(c))
	}
	if p.InStock != nil {
		set("in_stock", *p.InStock)
	}
	if p.Visible != nil {
		set("visible", *p.Visible)
	}
	if len(sets) == 0 {
		return r.Get(ctx, id)
	}

	args = append(args, id)
	res, err := r.db.ExecContext(ctx, `UPDATE products SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return domain.Product{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, store.ErrNotFound)
	}
	return r.Get(ctx, id)
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	return err
}

func (r *ProductRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM products`)
	return n, err
}
