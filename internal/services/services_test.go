package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clothsy/internal/domain"
	"clothsy/internal/services"
	"clothsy/internal/store"
)

func newAuth(t *testing.T) *services.AuthService {
	t.Helper()
	admins, err := services.ParseAdminUsers("admin1:clothsy2025, admin2:other-pass")
	require.NoError(t, err)
	require.Len(t, admins, 2)
	return services.NewAuthService(admins, "test-secret", time.Hour)
}

func TestLoginAndVerify(t *testing.T) {
	auth := newAuth(t)
	tok, err := auth.Login("admin1", "clothsy2025")
	require.NoError(t, err)
	assert.True(t, auth.IsAuthenticated(tok))

	who, err := auth.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "admin1", who)

	_, err = auth.Login("admin1", "wrong")
	require.ErrorIs(t, err, services.ErrBadCreds)
	_, err = auth.Login("ghost", "clothsy2025")
	require.ErrorIs(t, err, services.ErrBadCreds)
}

func TestRejectsForeignTokens(t *testing.T) {
	auth := newAuth(t)
	assert.False(t, auth.IsAuthenticated(""))
	assert.False(t, auth.IsAuthenticated("not.a.token"))

	// signed with another secret
	other := services.NewAuthService([]domain.AdminUser{{Username: "admin1"}}, "other-secret", time.Hour)
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer: "clothsy", Subject: "admin1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	assert.True(t, other.IsAuthenticated(forged))
	assert.False(t, auth.IsAuthenticated(forged))

	// unsigned
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer: "clothsy", Subject: "admin1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	assert.False(t, auth.IsAuthenticated(none))
}

func TestExpiredToken(t *testing.T) {
	admins, err := services.ParseAdminUsers("admin1:clothsy2025")
	require.NoError(t, err)
	auth := services.NewAuthService(admins, "s", time.Millisecond)
	tok, err := auth.Login("admin1", "clothsy2025")
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)
	_, err = auth.Verify(tok)
	require.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestParseAdminUsers(t *testing.T) {
	admins, err := services.ParseAdminUsers("")
	require.NoError(t, err)
	assert.Empty(t, admins)

	_, err = services.ParseAdminUsers("nopassword")
	require.Error(t, err)

	hash := "$2a$10$abcdefghijklmnopqrstuuN5LmGl1H0I3.2hA8dxkxfM8W1O7p8pO"
	admins, err = services.ParseAdminUsers("ops:" + hash)
	require.NoError(t, err)
	assert.Equal(t, hash, admins[0].Hash)
}

type fakeCatalog struct {
	products map[string]domain.Product
	placed   []domain.OrderDraft
}

func (f *fakeCatalog) Product(id string) (domain.Product, bool) {
	p, ok := f.products[id]
	return p, ok
}

func (f *fakeCatalog) AddOrder(_ context.Context, d domain.OrderDraft) (domain.Order, error) {
	f.placed = append(f.placed, d)
	return domain.NewOrder("CLTH-000001", d, time.Now()), nil
}

func catalog() *fakeCatalog {
	return &fakeCatalog{products: map[string]domain.Product{
		"p1": {ID: "p1", Code: "CL-1", Name: "Linen Shirt", Price: decimal.NewFromInt(200),
			Sizes: domain.StringList{"M", "L"}, Colors: domain.StringList{"White"},
			Images: domain.StringList{"a.jpg", "b.jpg"}, InStock: true, Visible: true},
		"hidden": {ID: "hidden", Name: "Draft", Visible: false, InStock: true},
		"gone":   {ID: "gone", Name: "Sold out", Visible: true, InStock: false},
	}}
}

func request() services.CheckoutRequest {
	return services.CheckoutRequest{
		ProductID: "p1", Size: "M", Color: "White", Quantity: 3,
		CustomerName: "Yassine", CustomerPhone: "06 12 34 56 78", CustomerAddress: "12 Rue Atlas",
		CustomerCity: "rabat",
	}
}

func TestCheckoutSnapshotsCatalogue(t *testing.T) {
	c := catalog()
	o, err := services.NewCheckoutService(c).Place(context.Background(), request())
	require.NoError(t, err)
	require.Len(t, c.placed, 1)

	d := c.placed[0]
	assert.Equal(t, "Linen Shirt", d.ProductName)
	assert.Equal(t, "CL-1", d.ProductCode)
	assert.Equal(t, "a.jpg", d.ProductImage)
	assert.Equal(t, "Rabat", d.CustomerCity)
	assert.Equal(t, "0612345678", d.CustomerPhone)
	assert.True(t, o.Total().Equal(decimal.NewFromInt(600)))
}

func TestCheckoutRejections(t *testing.T) {
	cases := map[string]struct {
		mut  func(r *services.CheckoutRequest)
		want error
	}{
		"hidden product":  {func(r *services.CheckoutRequest) { r.ProductID = "hidden" }, store.ErrNotFound},
		"unknown product": {func(r *services.CheckoutRequest) { r.ProductID = "nope" }, store.ErrNotFound},
		"out of stock":    {func(r *services.CheckoutRequest) { r.ProductID = "gone" }, services.ErrOutOfStock},
		"size":            {func(r *services.CheckoutRequest) { r.Size = "XXL" }, store.ErrInvalid},
		"color":           {func(r *services.CheckoutRequest) { r.Color = "Pink" }, store.ErrInvalid},
		"quantity":        {func(r *services.CheckoutRequest) { r.Quantity = 0 }, store.ErrInvalid},
		"city":            {func(r *services.CheckoutRequest) { r.CustomerCity = "Paris" }, store.ErrInvalid},
		"phone":           {func(r *services.CheckoutRequest) { r.CustomerPhone = "123" }, store.ErrInvalid},
		"address":         {func(r *services.CheckoutRequest) { r.CustomerAddress = " " }, store.ErrInvalid},
		"email":           {func(r *services.CheckoutRequest) { r.CustomerEmail = "x@" }, store.ErrInvalid},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c := catalog()
			req := request()
			tc.mut(&req)
			_, err := services.NewCheckoutService(c).Place(context.Background(), req)
			require.True(t, errors.Is(err, tc.want), "got %v", err)
			assert.Empty(t, c.placed)
		})
	}
}
