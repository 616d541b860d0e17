package repos

import (
	"log"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"clothsy/internal/domain"
	"clothsy/internal/store"
)

// tsLayout is fixed-width so created_at sorts correctly as TEXT.
const tsLayout = "2006-01-02T15:04:05.000000Z"

func formatTS(t time.Time) string { return t.UTC().Format(tsLayout) }

// parseTS also accepts the CURRENT_TIMESTAMP form used by hand-inserted rows.
func parseTS(s string) time.Time {
	for _, layout := range []string{tsLayout, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// every :memory: connection is its own database
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Tables exposes the sqlite database as the store's remote tables.
func Tables(db *sqlx.DB) store.Tables {
	return store.Tables{
		Products:    NewProductRepo(db),
		Orders:      NewOrderRepo(db),
		Subscribers: NewSubscriberRepo(db),
		Stats:       NewStatsRepo(db),
	}
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
-- Products
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL DEFAULT '',
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price TEXT NOT NULL,
  original_price TEXT,
  sizes TEXT NOT NULL DEFAULT '[]',
  colors TEXT NOT NULL DEFAULT '[]',
  images TEXT NOT NULL DEFAULT '[]',
  model_3d TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL CHECK (category IN ('mens','womens','accessories')),
  in_stock INTEGER NOT NULL DEFAULT 1,
  visible INTEGER NOT NULL DEFAULT 1,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);
CREATE INDEX IF NOT EXISTS idx_products_category   ON products(category);

-- Orders (product fields are a snapshot taken at checkout)
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL DEFAULT '',
  product_code TEXT NOT NULL DEFAULT '',
  product_name TEXT NOT NULL,
  product_image TEXT NOT NULL DEFAULT '',
  product_price TEXT NOT NULL,
  size TEXT NOT NULL DEFAULT '',
  color TEXT NOT NULL DEFAULT '',
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  customer_name TEXT NOT NULL,
  customer_phone TEXT NOT NULL,
  customer_email TEXT NOT NULL DEFAULT '',
  customer_address TEXT NOT NULL DEFAULT '',
  customer_city TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'pending',
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

-- Subscribers
CREATE TABLE IF NOT EXISTS subscribers(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  subscribed_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_subscribers_email ON subscribers(LOWER(email));

-- Stats aggregate: one row of totals plus status and day buckets
CREATE TABLE IF NOT EXISTS site_stats(
  id INTEGER PRIMARY KEY CHECK (id = 1),
  total_visits INTEGER NOT NULL DEFAULT 0,
  total_orders INTEGER NOT NULL DEFAULT 0,
  total_products INTEGER NOT NULL DEFAULT 0,
  total_subscribers INTEGER NOT NULL DEFAULT 0
);
INSERT OR IGNORE INTO site_stats(id) VALUES (1);

CREATE TABLE IF NOT EXISTS order_stats(
  status TEXT PRIMARY KEY,
  count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS daily_stats(
  series TEXT NOT NULL,
  day TEXT NOT NULL,
  count INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (series, day)
);
`
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	for _, st := range domain.Statuses {
		if _, err := db.Exec(`INSERT OR IGNORE INTO order_stats(status, count) VALUES (?, 0)`, string(st)); err != nil {
			return err
		}
	}
	return nil
}

// SeedDemo inserts a small catalogue when the products table is empty.
// Safe to run on every startup (idempotent).
func SeedDemo(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo products")

	now := time.Now().UTC()
	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	rows := []struct {
		id, code, name, desc, price, category, sizes, colors, images string
	}{
		{"linen-shirt", "CL-M-001", "Linen Shirt", "Relaxed fit, breathable linen.", "349", "mens",
			`["S","M","L","XL"]`, `["White","Sand"]`, `["products/linen-shirt/main.jpg"]`},
		{"kaftan-dress", "CL-W-001", "Kaftan Dress", "Hand-finished embroidery.", "499", "womens",
			`["S","M","L"]`, `["Emerald","Ivory"]`, `["products/kaftan-dress/main.jpg"]`},
		{"leather-belt", "CL-A-001", "Leather Belt", "Full-grain leather from Fes.", "179", "accessories",
			`["One Size"]`, `["Brown","Black"]`, `["products/leather-belt/main.jpg"]`},
	}
	for i, r := range rows {
		// spread created_at so the newest-first order is stable
		at := formatTS(now.Add(-time.Duration(i) * time.Second))
		if _, err := tx.Exec(`
			INSERT INTO products(id, code, name, description, price, category, sizes, colors, images, in_stock, visible, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, 1, ?)
		`, r.id, r.code, r.name, r.desc, r.price, r.category, r.sizes, r.colors, r.images, at); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`UPDATE site_stats SET total_products = (SELECT COUNT(*) FROM products) WHERE id = 1`); err != nil {
		return err
	}
	return tx.Commit()
}
