package store_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clothsy/internal/domain"
	"clothsy/internal/store"
)

func TestTopCitiesAndRevenue(t *testing.T) {
	s := newStore(t, newFakeRemote())
	ctx := context.Background()
	p, err := s.AddProduct(ctx, shirt())
	require.NoError(t, err)

	place := func(city string, qty int) domain.Order {
		d := orderFor(p, qty)
		d.CustomerCity = city
		o, err := s.AddOrder(ctx, d)
		require.NoError(t, err)
		return o
	}
	place("Rabat", 1)
	place("Casablanca", 2)
	place("Casablanca", 1)
	cancelled := place("Fes", 5)
	_, err = s.UpdateOrderStatus(ctx, cancelled.ID, domain.StatusCancelled)
	require.NoError(t, err)

	assert.Equal(t, []store.CityCount{
		{City: "Casablanca", Orders: 2},
		{City: "Fes", Orders: 1},
	}, s.TopCities(2))
	assert.Len(t, s.TopCities(0), 3)

	// 4 non-cancelled units at 200
	assert.True(t, s.Revenue().Equal(decimal.NewFromInt(800)), s.Revenue().String())
}
