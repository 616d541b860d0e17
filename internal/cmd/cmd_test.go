package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"clothsy/internal/domain"
	"clothsy/internal/repos"
	"clothsy/internal/store"
)

func TestHashPassword(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"hash-password", "clothsy2025"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	hash := strings.TrimSpace(out.String())
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("clothsy2025")))
}

func TestHashPasswordRejectsShort(t *testing.T) {
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"hash-password", "short"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil); rootCmd.SetErr(nil) })
	require.Error(t, rootCmd.ExecuteContext(context.Background()))
}

func seededStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	st := store.New(repos.Tables(db))
	st.Initialize(context.Background())

	p, err := st.AddProduct(context.Background(), domain.ProductDraft{
		Name: "Kaftan", Price: decimal.NewFromInt(450), Category: domain.CategoryWomens, InStock: true, Visible: true,
	})
	require.NoError(t, err)
	_, err = st.AddOrder(context.Background(), domain.OrderDraft{
		ProductID: p.ID, ProductName: p.Name, ProductPrice: p.Price, Quantity: 2,
		CustomerName: "Salma", CustomerPhone: "0612345678", CustomerCity: "Fes",
	})
	require.NoError(t, err)
	return st
}

func TestExportOrders(t *testing.T) {
	st := seededStore(t)

	var out bytes.Buffer
	require.NoError(t, exportOrders(st, "csv", "", &out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "Salma")
	assert.True(t, strings.HasSuffix(lines[1], ",2,900,pending"), lines[1])

	path := filepath.Join(t.TempDir(), "orders.xlsx")
	require.NoError(t, exportOrders(st, "xlsx", path, &out))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	require.Error(t, exportOrders(st, "xlsx", "", &out))
	require.Error(t, exportOrders(st, "pdf", "", &out))
}
