package store

import (
	"sort"

	"github.com/shopspring/decimal"

	"clothsy/internal/domain"
)

type CityCount struct {
	City   string `json:"city"`
	Orders int    `json:"orders"`
}

// TopCities ranks cities by number of mirrored orders, most first; ties keep
// alphabetical order.
func (s *Store) TopCities(n int) []CityCount {
	counts := map[string]int{}
	for _, o := range s.Orders() {
		counts[o.CustomerCity]++
	}
	out := make([]CityCount, 0, len(counts))
	for city, c := range counts {
		out = append(out, CityCount{City: city, Orders: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Orders != out[j].Orders {
			return out[i].Orders > out[j].Orders
		}
		return out[i].City < out[j].City
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Revenue sums the totals of every order that was not cancelled.
func (s *Store) Revenue() decimal.Decimal {
	sum := decimal.Zero
	for _, o := range s.Orders() {
		if o.Status == domain.StatusCancelled {
			continue
		}
		sum = sum.Add(o.Total())
	}
	return sum
}
