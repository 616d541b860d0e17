package store

import (
	"context"
	"fmt"

	"clothsy/internal/domain"
	applog "clothsy/internal/log"
)

// AddOrder persists a new pending order, bumps the order aggregates and hands the
// order to the relay. Aggregate and relay failures never fail the order.
func (s *Store) AddOrder(ctx context.Context, d domain.OrderDraft) (domain.Order, error) {
	if err := d.Validate(); err != nil {
		return domain.Order{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	now := s.now().UTC()
	id := s.newOrderID(now, func(id string) bool {
		_, taken := s.Order(id)
		return taken
	})

	saved, err := s.tables.Orders.Insert(ctx, domain.NewOrder(id, d, now))
	if err != nil {
		return domain.Order{}, remoteErr("insert order", err)
	}

	s.mu.Lock()
	s.orders = append([]domain.Order{saved}, s.orders...)
	s.mu.Unlock()

	s.adjust(ctx, "orders.total", func(ctx context.Context) error {
		return s.tables.Stats.Add(ctx, domain.CounterOrders, 1)
	}, func(st *domain.SiteStats) { st.TotalOrders++ })
	s.adjustStatus(ctx, saved.Status, 1)
	day := domain.Day(now)
	s.adjust(ctx, "orders.daily", func(ctx context.Context) error {
		return s.tables.Stats.AddDaily(ctx, domain.SeriesOrders, day, 1)
	}, func(st *domain.SiteStats) { st.AddDaily(domain.SeriesOrders, day, 1) })

	if s.relay != nil {
		s.relay.Dispatch(saved)
	}

	applog.Info(nil, "store.orders.add", map[string]any{"order_id": saved.ID, "total": saved.Total().String()})
	s.notify()
	return saved, nil
}

// UpdateOrderStatus moves an order along the status machine. Transitions that are
// not permitted are rejected before any remote call.
func (s *Store) UpdateOrderStatus(ctx context.Context, id string, to domain.OrderStatus) (domain.Order, error) {
	if !to.Valid() {
		return domain.Order{}, fmt.Errorf("%w: unknown status %q", ErrInvalid, to)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur, ok := s.Order(id)
	if !ok {
		return domain.Order{}, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if err := domain.CheckTransition(cur.Status, to); err != nil {
		return domain.Order{}, err
	}

	if err := s.tables.Orders.UpdateStatus(ctx, id, to); err != nil {
		return domain.Order{}, remoteErr("update order status", err)
	}

	from := cur.Status
	cur.Status = to
	s.mu.Lock()
	for i := range s.orders {
		if s.orders[i].ID == id {
			s.orders[i].Status = to
			break
		}
	}
	s.mu.Unlock()

	s.adjustStatus(ctx, from, -1)
	s.adjustStatus(ctx, to, 1)
	s.notify()
	return cur, nil
}

func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur, ok := s.Order(id)
	if !ok {
		return fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if err := s.tables.Orders.Delete(ctx, id); err != nil {
		return remoteErr("delete order", err)
	}

	s.mu.Lock()
	out := s.orders[:0:0]
	for _, o := range s.orders {
		if o.ID != id {
			out = append(out, o)
		}
	}
	s.orders = out
	s.mu.Unlock()

	s.adjustStatus(ctx, cur.Status, -1)
	s.adjust(ctx, "orders.total", func(ctx context.Context) error {
		return s.tables.Stats.Add(ctx, domain.CounterOrders, -1)
	}, func(st *domain.SiteStats) {
		if st.TotalOrders > 0 {
			st.TotalOrders--
		}
	})
	s.notify()
	return nil
}
