package repos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"clothsy/internal/domain"
	"clothsy/internal/store"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

type orderRow struct {
	ID              string          `db:"id"`
	ProductID       string          `db:"product_id"`
	ProductCode     string          `db:"product_code"`
	ProductName     string          `db:"product_name"`
	ProductImage    string          `db:"product_image"`
	ProductPrice    decimal.Decimal `db:"product_price"`
	Size            string          `db:"size"`
	Color           string          `db:"color"`
	Quantity        int             `db:"quantity"`
	CustomerName    string          `db:"customer_name"`
	CustomerPhone   string          `db:"customer_phone"`
	CustomerEmail   string          `db:"customer_email"`
	CustomerAddress string          `db:"customer_address"`
	CustomerCity    string          `db:"customer_city"`
	Notes           string          `db:"notes"`
	Status          string          `db:"status"`
	CreatedAt       string          `db:"created_at"`
}

func newOrderRow(o domain.Order) orderRow {
	return orderRow{
		ID: o.ID, ProductID: o.ProductID, ProductCode: o.ProductCode, ProductName: o.ProductName,
		ProductImage: o.ProductImage, ProductPrice: o.ProductPrice, Size: o.Size, Color: o.Color,
		Quantity: o.Quantity, CustomerName: o.CustomerName, CustomerPhone: o.CustomerPhone,
		CustomerEmail: o.CustomerEmail, CustomerAddress: o.CustomerAddress, CustomerCity: o.CustomerCity,
		Notes: o.Notes, Status: string(o.Status), CreatedAt: formatTS(o.CreatedAt),
	}
}

func (r orderRow) toDomain() domain.Order {
	st, ok := domain.ParseStatus(r.Status)
	if !ok {
		st = domain.StatusPending
	}
	return domain.Order{
		ID: r.ID, ProductID: r.ProductID, ProductCode: r.ProductCode, ProductName: r.ProductName,
		ProductImage: r.ProductImage, ProductPrice: r.ProductPrice, Size: r.Size, Color: r.Color,
		Quantity: r.Quantity, CustomerName: r.CustomerName, CustomerPhone: r.CustomerPhone,
		CustomerEmail: r.CustomerEmail, CustomerAddress: r.CustomerAddress, CustomerCity: r.CustomerCity,
		Notes: r.Notes, Status: st, CreatedAt: parseTS(r.CreatedAt),
	}
}

const orderCols = `id, product_id, product_code, product_name, product_image, product_price, size, color,
  quantity, customer_name, customer_phone, customer_email, customer_address, customer_city, notes, status, created_at`

func (r *OrderRepo) List(ctx context.Context) ([]domain.Order, error) {
	var rows []orderRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+orderCols+` FROM orders ORDER BY created_at DESC`); err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// Insert stores the order as given; the id and timestamp are assigned by the caller.
func (r *OrderRepo) Insert(ctx context.Context, o domain.Order) (domain.Order, error) {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO orders(`+orderCols+`)
		VALUES (:id, :product_id, :product_code, :product_name, :product_image, :product_price, :size, :color,
		  :quantity, :customer_name, :customer_phone, :customer_email, :customer_address, :customer_city, :notes, :status, :created_at)
	`, newOrderRow(o))
	if err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, id string, s domain.OrderStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, string(s), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("order %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (r *OrderRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	return err
}
