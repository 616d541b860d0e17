// Package store keeps the in-process mirror of products, orders, subscribers and
// site stats, and is the only path through which they are changed.
//
// Reads are served from memory and return copies. Every write goes to the remote
// tables first; the mirror is only touched after the remote call succeeded, and
// listeners are notified before the write returns.
package store

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"clothsy/internal/domain"
	"clothsy/internal/export"
	applog "clothsy/internal/log"
)

type Store struct {
	tables     Tables
	relay      Relay
	now        func() time.Time
	newOrderID func(now time.Time, taken func(string) bool) string

	// writeMu serializes mutating calls; mu guards the mirror itself.
	writeMu     sync.Mutex
	mu          sync.RWMutex
	products    []domain.Product
	orders      []domain.Order
	subscribers []domain.Subscriber
	stats       domain.SiteStats

	lmu       sync.Mutex
	listeners []listener
	lastID    uint64
}

type Option func(*Store)

func WithRelay(r Relay) Option { return func(s *Store) { s.relay = r } }

func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithOrderIDs replaces the order id generator. taken reports ids already in the mirror.
func WithOrderIDs(gen func(now time.Time, taken func(string) bool) string) Option {
	return func(s *Store) { s.newOrderID = gen }
}

func New(tables Tables, opts ...Option) *Store {
	s := &Store{
		tables:      tables,
		now:         time.Now,
		newOrderID:  OrderID,
		products:    []domain.Product{},
		orders:      []domain.Order{},
		subscribers: []domain.Subscriber{},
		stats:       domain.EmptyStats(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// OrderID builds "CLTH-" plus the last six digits of the epoch milliseconds,
// suffixing -2, -3, ... while the id is taken.
func OrderID(now time.Time, taken func(string) bool) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	id := "CLTH-" + ms
	for n := 2; taken(id); n++ {
		id = fmt.Sprintf("CLTH-%s-%d", ms, n)
	}
	return id
}

func remoteErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrRemote, op, err)
}

// ---------- Initialization ----------

// Initialize performs the first bulk fetch. It never fails: a collection that
// cannot be fetched is mirrored as empty and the failure is logged.
func (s *Store) Initialize(ctx context.Context) {
	s.Refresh(ctx)
}

// Refresh refetches all four collections and notifies listeners.
func (s *Store) Refresh(ctx context.Context) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	// Products first so orders can be enriched from them.
	products, err := s.tables.Products.List(ctx)
	if err != nil {
		applog.Error(nil, "store.products.fetch.fail", err, nil)
		products = []domain.Product{}
	}

	orders := []domain.Order{}
	subs := []domain.Subscriber{}
	stats := domain.EmptyStats()

	var wg conc.WaitGroup
	wg.Go(func() {
		list, err := s.tables.Orders.List(ctx)
		if err != nil {
			applog.Error(nil, "store.orders.fetch.fail", err, nil)
			return
		}
		orders = list
	})
	wg.Go(func() {
		list, err := s.tables.Subscribers.List(ctx)
		if err != nil {
			applog.Error(nil, "store.subscribers.fetch.fail", err, nil)
			return
		}
		subs = list
	})
	wg.Go(func() {
		st, err := s.tables.Stats.Get(ctx)
		if err != nil {
			applog.Error(nil, "store.stats.fetch.fail", err, nil)
			return
		}
		stats = st.Clone()
	})
	wg.Wait()

	enrichOrders(orders, products)

	s.mu.Lock()
	s.products = nonNil(products)
	s.orders = nonNil(orders)
	s.subscribers = nonNil(subs)
	s.stats = stats
	s.mu.Unlock()

	applog.Info(nil, "store.refresh", map[string]any{
		"products": len(products), "orders": len(orders), "subscribers": len(subs),
	})
	s.notify()
}

// enrichOrders fills image/code on orders whose rows predate those columns.
func enrichOrders(orders []domain.Order, products []domain.Product) {
	for i := range orders {
		o := &orders[i]
		if o.ProductImage != "" && o.ProductCode != "" {
			continue
		}
		for _, p := range products {
			if p.ID == o.ProductID || (o.ProductID == "" && p.Name == o.ProductName) {
				if o.ProductImage == "" {
					o.ProductImage = p.MainImage()
				}
				if o.ProductCode == "" {
					o.ProductCode = p.Code
				}
				break
			}
		}
	}
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

// ---------- Reads ----------

func (s *Store) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProducts(s.products, func(domain.Product) bool { return true })
}

// VisibleProducts is the public catalogue: visible products, in stock or not.
func (s *Store) VisibleProducts() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProducts(s.products, func(p domain.Product) bool { return p.Visible })
}

// ProductsByCategory returns the visible products of one category.
func (s *Store) ProductsByCategory(c domain.Category) []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProducts(s.products, func(p domain.Product) bool { return p.Visible && p.Category == c })
}

func (s *Store) Product(id string) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return domain.Product{}, false
}

func (s *Store) Orders() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

func (s *Store) Order(id string) (domain.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.orders {
		if o.ID == id {
			return o, true
		}
	}
	return domain.Order{}, false
}

func (s *Store) Subscribers() []domain.Subscriber {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Subscriber, len(s.subscribers))
	copy(out, s.subscribers)
	return out
}

// Stats returns the advisory aggregate as last read or updated by this process.
func (s *Store) Stats() domain.SiteStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats.Clone()
}

// ComputeStats recounts totals and status buckets from the mirrored collections.
// Visits and the day series are not recomputable and are copied from the aggregate.
func (s *Store) ComputeStats() domain.SiteStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.stats.Clone()
	out.TotalProducts = len(s.products)
	out.TotalOrders = len(s.orders)
	out.TotalSubscribers = len(s.subscribers)
	for _, st := range domain.Statuses {
		out.OrdersByStatus[st] = 0
	}
	for _, o := range s.orders {
		out.OrdersByStatus[o.Status]++
	}
	return out
}

func cloneProducts(in []domain.Product, keep func(domain.Product) bool) []domain.Product {
	out := make([]domain.Product, 0, len(in))
	for _, p := range in {
		if keep(p) {
			out = append(out, p.Clone())
		}
	}
	return out
}

// ---------- Export ----------

// ExportOrdersCSV renders the mirrored orders; no network access.
func (s *Store) ExportOrdersCSV() (string, error) {
	return export.OrdersCSV(s.Orders())
}

func (s *Store) ExportSubscribersCSV() (string, error) {
	return export.SubscribersCSV(s.Subscribers())
}

func (s *Store) ExportOrdersXLSX(w io.Writer) error {
	return export.WriteOrdersXLSX(w, s.Orders())
}
