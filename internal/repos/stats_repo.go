package repos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"clothsy/internal/domain"
)

type StatsRepo struct{ db *sqlx.DB }

func NewStatsRepo(db *sqlx.DB) *StatsRepo { return &StatsRepo{db: db} }

type statsRow struct {
	TotalVisits      int `db:"total_visits"`
	TotalOrders      int `db:"total_orders"`
	TotalProducts    int `db:"total_products"`
	TotalSubscribers int `db:"total_subscribers"`
}

// column maps a counter to its column; only known counters reach SQL text.
func column(c domain.Counter) (string, error) {
	for _, known := range domain.Counters {
		if c == known {
			return string(c), nil
		}
	}
	return "", fmt.Errorf("unknown counter %q", c)
}

func (r *StatsRepo) Get(ctx context.Context) (domain.SiteStats, error) {
	var row statsRow
	if err := r.db.GetContext(ctx, &row, `
		SELECT total_visits, total_orders, total_products, total_subscribers FROM site_stats WHERE id = 1
	`); err != nil {
		return domain.SiteStats{}, err
	}
	out := domain.EmptyStats()
	out.TotalVisits = row.TotalVisits
	out.TotalOrders = row.TotalOrders
	out.TotalProducts = row.TotalProducts
	out.TotalSubscribers = row.TotalSubscribers

	var buckets []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &buckets, `SELECT status, count FROM order_stats`); err != nil {
		return domain.SiteStats{}, err
	}
	for _, b := range buckets {
		if st, ok := domain.ParseStatus(b.Status); ok {
			out.OrdersByStatus[st] = b.Count
		}
	}

	for _, series := range []domain.Series{domain.SeriesVisits, domain.SeriesOrders} {
		var days []domain.DailyCount
		if err := r.db.SelectContext(ctx, &days, `
			SELECT day AS date, count FROM daily_stats WHERE series = ? ORDER BY day DESC LIMIT ?
		`, string(series), domain.SeriesDays); err != nil {
			return domain.SiteStats{}, err
		}
		if days == nil {
			days = []domain.DailyCount{}
		}
		if series == domain.SeriesVisits {
			out.VisitsByDate = days
		} else {
			out.OrdersByDate = days
		}
	}
	return out, nil
}

// Add applies delta in one statement, never going below zero.
func (r *StatsRepo) Add(ctx context.Context, c domain.Counter, delta int) error {
	col, err := column(c)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `UPDATE site_stats SET `+col+` = MAX(0, `+col+` + ?) WHERE id = 1`, delta)
	return err
}

func (r *StatsRepo) Set(ctx context.Context, c domain.Counter, v int) error {
	col, err := column(c)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `UPDATE site_stats SET `+col+` = ? WHERE id = 1`, v)
	return err
}

func (r *StatsRepo) AddStatus(ctx context.Context, s domain.OrderStatus, delta int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO order_stats(status, count) VALUES (?, MAX(0, ?))
		ON CONFLICT(status) DO UPDATE SET count = MAX(0, count + ?)
	`, string(s), delta, delta)
	return err
}

func (r *StatsRepo) SetStatus(ctx context.Context, s domain.OrderStatus, v int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO order_stats(status, count) VALUES (?, ?)
		ON CONFLICT(status) DO UPDATE SET count = excluded.count
	`, string(s), v)
	return err
}

func (r *StatsRepo) AddDaily(ctx context.Context, series domain.Series, day string, delta int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO daily_stats(series, day, count) VALUES (?, ?, ?)
		ON CONFLICT(series, day) DO UPDATE SET count = count + excluded.count
	`, string(series), day, delta)
	return err
}
