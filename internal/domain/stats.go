package domain

import (
	"strings"
	"time"
)

type Subscriber struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	SubscribedAt time.Time `json:"subscribedAt"`
}

// NormalizeEmail is the form subscriber emails are stored and compared in.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Counter names a scalar column of the site_stats aggregate row.
type Counter string

const (
	CounterVisits      Counter = "total_visits"
	CounterOrders      Counter = "total_orders"
	CounterProducts    Counter = "total_products"
	CounterSubscribers Counter = "total_subscribers"
)

var Counters = []Counter{CounterVisits, CounterOrders, CounterProducts, CounterSubscribers}

// Series names a day-bucketed aggregate.
type Series string

const (
	SeriesVisits Series = "visits_by_date"
	SeriesOrders Series = "orders_by_date"
)

// SeriesDays is how many day buckets the dashboard reads back.
const SeriesDays = 7

type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// SiteStats is a denormalized, advisory aggregate.
type SiteStats struct {
	TotalVisits      int                 `json:"totalVisits"`
	TotalOrders      int                 `json:"totalOrders"`
	TotalProducts    int                 `json:"totalProducts"`
	TotalSubscribers int                 `json:"totalSubscribers"`
	OrdersByStatus   map[OrderStatus]int `json:"ordersByStatus"`
	VisitsByDate     []DailyCount        `json:"visitsByDate"`
	OrdersByDate     []DailyCount        `json:"ordersByDate"`
}

// EmptyStats has every status bucket present at zero.
func EmptyStats() SiteStats {
	s := SiteStats{
		OrdersByStatus: make(map[OrderStatus]int, len(Statuses)),
		VisitsByDate:   []DailyCount{},
		OrdersByDate:   []DailyCount{},
	}
	for _, st := range Statuses {
		s.OrdersByStatus[st] = 0
	}
	return s
}

func (s SiteStats) Clone() SiteStats {
	out := s
	out.OrdersByStatus = make(map[OrderStatus]int, len(Statuses))
	for _, st := range Statuses {
		out.OrdersByStatus[st] = 0
	}
	for k, v := range s.OrdersByStatus {
		out.OrdersByStatus[k] = v
	}
	out.VisitsByDate = append([]DailyCount{}, s.VisitsByDate...)
	out.OrdersByDate = append([]DailyCount{}, s.OrdersByDate...)
	return out
}

// Counter returns the value of a scalar counter.
func (s SiteStats) Counter(c Counter) int {
	switch c {
	case CounterVisits:
		return s.TotalVisits
	case CounterOrders:
		return s.TotalOrders
	case CounterProducts:
		return s.TotalProducts
	case CounterSubscribers:
		return s.TotalSubscribers
	}
	return 0
}

func (s *SiteStats) SetCounter(c Counter, v int) {
	switch c {
	case CounterVisits:
		s.TotalVisits = v
	case CounterOrders:
		s.TotalOrders = v
	case CounterProducts:
		s.TotalProducts = v
	case CounterSubscribers:
		s.TotalSubscribers = v
	}
}

// AddDaily bumps the bucket for day in the series, creating it at the head when missing.
func (s *SiteStats) AddDaily(series Series, day string, delta int) {
	list := &s.VisitsByDate
	if series == SeriesOrders {
		list = &s.OrdersByDate
	}
	for i := range *list {
		if (*list)[i].Date == day {
			(*list)[i].Count += delta
			return
		}
	}
	*list = append([]DailyCount{{Date: day, Count: delta}}, *list...)
	if len(*list) > SeriesDays {
		*list = (*list)[:SeriesDays]
	}
}

// Day is the bucket key for t (UTC calendar date).
func Day(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
