package store

import (
	"context"
	"errors"

	"clothsy/internal/domain"
	applog "clothsy/internal/log"
)

// RecordVisit bumps the visit counter and today's bucket. Best effort: errors are
// logged and the caller is never told.
func (s *Store) RecordVisit(ctx context.Context) {
	// the hosted backend increments by read-then-write
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	day := domain.Day(s.now())
	okTotal := s.adjust(ctx, "visits.total", func(ctx context.Context) error {
		return s.tables.Stats.Add(ctx, domain.CounterVisits, 1)
	}, func(st *domain.SiteStats) { st.TotalVisits++ })
	okDaily := s.adjust(ctx, "visits.daily", func(ctx context.Context) error {
		return s.tables.Stats.AddDaily(ctx, domain.SeriesVisits, day, 1)
	}, func(st *domain.SiteStats) { st.AddDaily(domain.SeriesVisits, day, 1) })
	if okTotal || okDaily {
		s.notify()
	}
}

// Reconcile overwrites the stored aggregate with counts recomputed from the
// mirrored collections.
func (s *Store) Reconcile(ctx context.Context) (domain.SiteStats, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	computed := s.ComputeStats()
	var errs []error
	for _, c := range []domain.Counter{domain.CounterOrders, domain.CounterProducts, domain.CounterSubscribers} {
		if err := s.tables.Stats.Set(ctx, c, computed.Counter(c)); err != nil {
			errs = append(errs, err)
		}
	}
	for _, st := range domain.Statuses {
		if err := s.tables.Stats.SetStatus(ctx, st, computed.OrdersByStatus[st]); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		applog.Error(nil, "store.stats.reconcile.fail", err, nil)
		return domain.SiteStats{}, remoteErr("reconcile stats", err)
	}

	s.mu.Lock()
	s.stats = computed.Clone()
	s.mu.Unlock()

	applog.Info(nil, "store.stats.reconcile", map[string]any{
		"orders": computed.TotalOrders, "products": computed.TotalProducts, "subscribers": computed.TotalSubscribers,
	})
	s.notify()
	return computed, nil
}

// adjust runs a remote aggregate update and mirrors it locally on success.
func (s *Store) adjust(ctx context.Context, what string, remote func(context.Context) error, local func(*domain.SiteStats)) bool {
	if err := remote(ctx); err != nil {
		applog.Error(nil, "store.stats."+what+".fail", err, nil)
		return false
	}
	s.mu.Lock()
	local(&s.stats)
	s.mu.Unlock()
	return true
}

func (s *Store) adjustStatus(ctx context.Context, st domain.OrderStatus, delta int) {
	s.adjust(ctx, "status."+string(st), func(ctx context.Context) error {
		return s.tables.Stats.AddStatus(ctx, st, delta)
	}, func(stats *domain.SiteStats) {
		n := stats.OrdersByStatus[st] + delta
		if n < 0 {
			n = 0
		}
		stats.OrdersByStatus[st] = n
	})
}

// recount replaces a total with a fresh row count of its collection.
func (s *Store) recount(ctx context.Context, c domain.Counter, count func(context.Context) (int, error)) {
	n, err := count(ctx)
	if err != nil {
		applog.Error(nil, "store.stats.count.fail", err, map[string]any{"counter": string(c)})
		return
	}
	s.adjust(ctx, string(c), func(ctx context.Context) error {
		return s.tables.Stats.Set(ctx, c, n)
	}, func(st *domain.SiteStats) { st.SetCounter(c, n) })
}
