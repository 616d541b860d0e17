package postgrest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"clothsy/internal/domain"
	"clothsy/internal/store"
)

// Tables exposes the Supabase tables products, orders, subscribers and the stats tables.
func Tables(c *Client) store.Tables {
	return store.Tables{
		Products:    &ProductTable{c: c},
		Orders:      &OrderTable{c: c},
		Subscribers: &SubscriberTable{c: c},
		Stats:       &StatsTable{c: c},
	}
}

var newestFirst = url.Values{"order": {"created_at.desc"}}

// ---------- products ----------

type productRow struct {
	ID            string            `json:"id,omitempty"`
	Code          string            `json:"code"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Price         decimal.Decimal   `json:"price"`
	OriginalPrice *decimal.Decimal  `json:"original_price"`
	Sizes         domain.StringList `json:"sizes"`
	Colors        domain.StringList `json:"colors"`
	Images        domain.StringList `json:"images"`
	Model3D       *string           `json:"model_3d"`
	Category      string            `json:"category"`
	InStock       bool              `json:"in_stock"`
	Visible       bool              `json:"visible"`
	CreatedAt     *time.Time        `json:"created_at,omitempty"`
}

func (r productRow) toDomain() domain.Product {
	cat, ok := domain.ParseCategory(r.Category)
	if !ok {
		cat = domain.CategoryMens
	}
	p := domain.Product{
		ID: r.ID, Code: r.Code, Name: r.Name, Description: r.Description, Price: r.Price,
		OriginalPrice: r.OriginalPrice, Sizes: r.Sizes, Colors: r.Colors, Images: r.Images,
		Category: cat, InStock: r.InStock, Visible: r.Visible,
	}
	if r.Model3D != nil {
		p.Model3D = *r.Model3D
	}
	if r.CreatedAt != nil {
		p.CreatedAt = r.CreatedAt.UTC()
	}
	return p
}

type ProductTable struct{ c *Client }

func (t *ProductTable) List(ctx context.Context) ([]domain.Product, error) {
	var rows []productRow
	if err := t.c.Select(ctx, "products", cloneQuery(newestFirst), &rows); err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (t *ProductTable) Insert(ctx context.Context, d domain.ProductDraft) (domain.Product, error) {
	row := productRow{
		Code: d.Code, Name: d.Name, Description: d.Description, Price: d.Price,
		OriginalPrice: d.OriginalPrice, Sizes: d.Sizes, Colors: d.Colors, Images: d.Images,
		Category: string(d.Category), InStock: d.InStock, Visible: d.Visible,
	}
	if d.Model3D != "" {
		row.Model3D = &d.Model3D
	}
	var out []productRow
	if err := t.c.Insert(ctx, "products", row, &out); err != nil {
		return domain.Product{}, err
	}
	if len(out) == 0 {
		return domain.Product{}, errors.New("insert products: empty representation")
	}
	return out[0].toDomain(), nil
}

// Update sends only the patched columns.
func (t *ProductTable) Update(ctx context.Context, id string, p domain.ProductPatch) (domain.Product, error) {
	patch := map[string]any{}
	if p.Code != nil {
		patch["code"] = *p.Code
	}
	if p.Name != nil {
		patch["name"] = *p.Name
	}
	if p.Description != nil {
		patch["description"] = *p.Description
	}
	if p.Price != nil {
		patch["price"] = *p.Price
	}
	if p.OriginalPrice != nil {
		patch["original_price"] = *p.OriginalPrice
	}
	if p.ClearOriginalPrice {
		patch["original_price"] = nil
	}
	if p.Sizes != nil {
		patch["sizes"] = *p.Sizes
	}
	if p.Colors != nil {
		patch["colors"] = *p.Colors
	}
	if p.Images != nil {
		patch["images"] = *p.Images
	}
	if p.Model3D != nil {
		patch["model_3d"] = *p.Model3D
	}
	if p.Category != nil {
		c, _ := domain.ParseCategory(string(*p.Category))
		patch["category"] = string(c)
	}
	if p.InStock != nil {
		patch["in_stock"] = *p.InStock
	}
	if p.Visible != nil {
		patch["visible"] = *p.Visible
	}

	var out []productRow
	if err := t.c.Update(ctx, "products", Eq("id", id), patch, &out); err != nil {
		return domain.Product{}, err
	}
	if len(out) == 0 {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, store.ErrNotFound)
	}
	return out[0].toDomain(), nil
}

func (t *ProductTable) Delete(ctx context.Context, id string) error {
	return t.c.Delete(ctx, "products", Eq("id", id))
}

func (t *ProductTable) Count(ctx context.Context) (int, error) {
	return t.c.Count(ctx, "products")
}

// ---------- orders ----------

type orderRow struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	ProductCode     *string         `json:"product_code"`
	ProductName     string          `json:"product_name"`
	ProductImage    *string         `json:"product_image"`
	ProductPrice    decimal.Decimal `json:"product_price"`
	Size            string          `json:"size"`
	Color           string          `json:"color"`
	Quantity        int             `json:"quantity"`
	CustomerName    string          `json:"customer_name"`
	CustomerPhone   string          `json:"customer_phone"`
	CustomerEmail   *string         `json:"customer_email"`
	CustomerAddress string          `json:"customer_address"`
	CustomerCity    string          `json:"customer_city"`
	Notes           *string         `json:"notes"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ref(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r orderRow) toDomain() domain.Order {
	st, ok := domain.ParseStatus(r.Status)
	if !ok {
		st = domain.StatusPending
	}
	return domain.Order{
		ID: r.ID, ProductID: r.ProductID, ProductCode: deref(r.ProductCode), ProductName: r.ProductName,
		ProductImage: deref(r.ProductImage), ProductPrice: r.ProductPrice, Size: r.Size, Color: r.Color,
		Quantity: r.Quantity, CustomerName: r.CustomerName, CustomerPhone: r.CustomerPhone,
		CustomerEmail: deref(r.CustomerEmail), CustomerAddress: r.CustomerAddress,
		CustomerCity: r.CustomerCity, Notes: deref(r.Notes), Status: st, CreatedAt: r.CreatedAt.UTC(),
	}
}

type OrderTable struct{ c *Client }

func (t *OrderTable) List(ctx context.Context) ([]domain.Order, error) {
	var rows []orderRow
	if err := t.c.Select(ctx, "orders", cloneQuery(newestFirst), &rows); err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (t *OrderTable) Insert(ctx context.Context, o domain.Order) (domain.Order, error) {
	row := orderRow{
		ID: o.ID, ProductID: o.ProductID, ProductCode: ref(o.ProductCode), ProductName: o.ProductName,
		ProductImage: ref(o.ProductImage), ProductPrice: o.ProductPrice, Size: o.Size, Color: o.Color,
		Quantity: o.Quantity, CustomerName: o.CustomerName, CustomerPhone: o.CustomerPhone,
		CustomerEmail: ref(o.CustomerEmail), CustomerAddress: o.CustomerAddress,
		CustomerCity: o.CustomerCity, Notes: ref(o.Notes), Status: string(o.Status), CreatedAt: o.CreatedAt.UTC(),
	}
	var out []orderRow
	if err := t.c.Insert(ctx, "orders", row, &out); err != nil {
		return domain.Order{}, err
	}
	if len(out) == 0 {
		return o, nil
	}
	return out[0].toDomain(), nil
}

func (t *OrderTable) UpdateStatus(ctx context.Context, id string, s domain.OrderStatus) error {
	return t.c.Update(ctx, "orders", Eq("id", id), map[string]any{"status": string(s)}, nil)
}

func (t *OrderTable) Delete(ctx context.Context, id string) error {
	return t.c.Delete(ctx, "orders", Eq("id", id))
}

// ---------- subscribers ----------

type subscriberRow struct {
	ID           string     `json:"id,omitempty"`
	Email        string     `json:"email"`
	SubscribedAt *time.Time `json:"subscribed_at,omitempty"`
}

type SubscriberTable struct {
	c   *Client
	now func() time.Time
}

func (t *SubscriberTable) List(ctx context.Context) ([]domain.Subscriber, error) {
	var rows []subscriberRow
	q := url.Values{"order": {"subscribed_at.desc"}}
	if err := t.c.Select(ctx, "subscribers", q, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.Subscriber, 0, len(rows))
	for _, r := range rows {
		s := domain.Subscriber{ID: r.ID, Email: r.Email}
		if r.SubscribedAt != nil {
			s.SubscribedAt = r.SubscribedAt.UTC()
		}
		out = append(out, s)
	}
	return out, nil
}

// Insert maps a unique violation on email to store.ErrDuplicate.
func (t *SubscriberTable) Insert(ctx context.Context, email string) (domain.Subscriber, error) {
	now := time.Now
	if t.now != nil {
		now = t.now
	}
	at := now().UTC()
	var out []subscriberRow
	err := t.c.Insert(ctx, "subscribers", subscriberRow{Email: email, SubscribedAt: &at}, &out)
	var pe *Error
	if errors.As(err, &pe) && pe.duplicate() {
		return domain.Subscriber{}, fmt.Errorf("%w: %w", store.ErrDuplicate, err)
	}
	if err != nil {
		return domain.Subscriber{}, err
	}
	s := domain.Subscriber{Email: email, SubscribedAt: at}
	if len(out) > 0 {
		s.ID = out[0].ID
		if out[0].SubscribedAt != nil {
			s.SubscribedAt = out[0].SubscribedAt.UTC()
		}
	}
	return s, nil
}

func (t *SubscriberTable) Count(ctx context.Context) (int, error) {
	return t.c.Count(ctx, "subscribers")
}

// ---------- site_stats, order_stats, visits_by_date, orders_by_date ----------

type statsRow struct {
	TotalVisits      int `json:"total_visits"`
	TotalOrders      int `json:"total_orders"`
	TotalProducts    int `json:"total_products"`
	TotalSubscribers int `json:"total_subscribers"`
}

type statusRow struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// dailyRow covers both series tables; only the column named by the series is set.
type dailyRow struct {
	Date   string `json:"date"`
	Visits *int   `json:"visits,omitempty"`
	Orders *int   `json:"orders,omitempty"`
}

func (r dailyRow) count() int {
	switch {
	case r.Visits != nil:
		return *r.Visits
	case r.Orders != nil:
		return *r.Orders
	}
	return 0
}

// seriesColumn is the count column of a series table.
func seriesColumn(series domain.Series) string {
	if series == domain.SeriesOrders {
		return "orders"
	}
	return "visits"
}

// StatsTable spreads the aggregate over four tables: scalar counters on the
// single site_stats row (id = 1), one order_stats row per status and one row
// per day in visits_by_date and orders_by_date. PostgREST has no atomic
// increment without a custom RPC, so every Add reads the row and then writes
// the new value; concurrent writers from other processes can lose updates.
type StatsTable struct{ c *Client }

var statsRowQuery = Eq("id", "1")

func (t *StatsTable) row(ctx context.Context) (statsRow, error) {
	var rows []statsRow
	if err := t.c.Select(ctx, "site_stats", cloneQuery(statsRowQuery), &rows); err != nil {
		return statsRow{}, err
	}
	if len(rows) == 0 {
		return statsRow{}, fmt.Errorf("site_stats row 1: %w", store.ErrNotFound)
	}
	return rows[0], nil
}

func (t *StatsTable) series(ctx context.Context, series domain.Series) ([]domain.DailyCount, error) {
	q := url.Values{
		"order": {"date.desc"},
		"limit": {strconv.Itoa(domain.SeriesDays)},
	}
	var rows []dailyRow
	if err := t.c.Select(ctx, string(series), q, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.DailyCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.DailyCount{Date: r.Date, Count: r.count()})
	}
	return out, nil
}

func (t *StatsTable) Get(ctx context.Context) (domain.SiteStats, error) {
	r, err := t.row(ctx)
	if err != nil {
		return domain.SiteStats{}, err
	}
	out := domain.EmptyStats()
	out.TotalVisits = r.TotalVisits
	out.TotalOrders = r.TotalOrders
	out.TotalProducts = r.TotalProducts
	out.TotalSubscribers = r.TotalSubscribers

	var statuses []statusRow
	if err := t.c.Select(ctx, "order_stats", nil, &statuses); err != nil {
		return domain.SiteStats{}, err
	}
	for _, sr := range statuses {
		if st, ok := domain.ParseStatus(sr.Status); ok {
			out.OrdersByStatus[st] = sr.Count
		}
	}
	if out.VisitsByDate, err = t.series(ctx, domain.SeriesVisits); err != nil {
		return domain.SiteStats{}, err
	}
	if out.OrdersByDate, err = t.series(ctx, domain.SeriesOrders); err != nil {
		return domain.SiteStats{}, err
	}
	return out, nil
}

func (t *StatsTable) Add(ctx context.Context, c domain.Counter, delta int) error {
	r, err := t.row(ctx)
	if err != nil {
		return err
	}
	cur := domain.SiteStats{TotalVisits: r.TotalVisits, TotalOrders: r.TotalOrders,
		TotalProducts: r.TotalProducts, TotalSubscribers: r.TotalSubscribers}
	return t.Set(ctx, c, max(0, cur.Counter(c)+delta))
}

func (t *StatsTable) Set(ctx context.Context, c domain.Counter, v int) error {
	return t.c.Update(ctx, "site_stats", cloneQuery(statsRowQuery), map[string]any{string(c): v}, nil)
}

// upsert writes next(current) into the row of table matching key=val, inserting
// the row when it does not exist yet.
func (t *StatsTable) upsert(ctx context.Context, table, key, val, column string, next func(cur int) int) error {
	var rows []map[string]any
	if err := t.c.Select(ctx, table, Eq(key, val), &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return t.c.Insert(ctx, table, map[string]any{key: val, column: next(0)}, nil)
	}
	cur, _ := rows[0][column].(float64)
	return t.c.Update(ctx, table, Eq(key, val), map[string]any{column: next(int(cur))}, nil)
}

func (t *StatsTable) AddStatus(ctx context.Context, s domain.OrderStatus, delta int) error {
	return t.upsert(ctx, "order_stats", "status", string(s), "count", func(cur int) int { return max(0, cur+delta) })
}

func (t *StatsTable) SetStatus(ctx context.Context, s domain.OrderStatus, v int) error {
	return t.upsert(ctx, "order_stats", "status", string(s), "count", func(int) int { return v })
}

func (t *StatsTable) AddDaily(ctx context.Context, series domain.Series, day string, delta int) error {
	return t.upsert(ctx, string(series), "date", day, seriesColumn(series), func(cur int) int { return max(0, cur+delta) })
}

func cloneQuery(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}
