package amazon

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/amazon-tagger/internal/domain/model"
)

const ordersCSV = `Order Date,Order ID,Shipment Date,Carrier Name & Tracking Number,Subtotal,Shipping Charge,Tax Charged,Total Promotions,Total Charged
01/03/2024,111-1,01/05/2024,UPS(1Z1),$20.00,$0.00,$0.96,$0.00,$20.96
`

const refundsCSV = `Order ID,Order Date,Title,Category,Quantity,Refund Date,Refund Amount,Refund Tax Amount,Refund Reason
111-1,01/03/2024,Paperback,ABIS_BOOK,1,02/01/2024,$8.00,$0.00,Customer Return
`

func TestProvider_Name(t *testing.T) {
	p := NewProvider(nil, nil)

	assert.Equal(t, "amazon", p.Name())
	assert.Equal(t, "Amazon", p.DisplayName())
}

func TestLoadReports(t *testing.T) {
	res, err := LoadReports(strings.NewReader(itemsCSV), strings.NewReader(ordersCSV), strings.NewReader(refundsCSV))

	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	require.Len(t, res.Orders, 1)
	order := res.Orders[0]
	assert.Equal(t, "111-1", order.OrderID)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "20.96", order.TotalCharged.Plain())
	require.Len(t, res.Refunds, 1)
	assert.Equal(t, "8.00", res.Refunds[0].Amount.Plain())
}

func TestLoadReports_NoRefunds(t *testing.T) {
	res, err := LoadReports(strings.NewReader(itemsCSV), strings.NewReader(ordersCSV), nil)

	require.NoError(t, err)
	assert.Len(t, res.Orders, 1)
	assert.Empty(t, res.Refunds)
}

func TestLoadReports_ParseWarningsComeFirst(t *testing.T) {
	orders := ordersCSV + "01/03/2024,111-9,01/05/2024,,$1.00,$0.00,$0.00,$0.00,lots\n"

	res, err := LoadReports(strings.NewReader(itemsCSV), strings.NewReader(orders), nil)

	require.NoError(t, err)
	require.NotEmpty(t, res.Warnings)
	assert.True(t, model.IsMalformed(res.Warnings[0]))
	assert.Len(t, res.Orders, 1)
}

func TestProvider_Load(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	p := NewProvider(nil, &ProviderConfig{
		ItemsPath:   write("items.csv", itemsCSV),
		OrdersPath:  write("orders.csv", ordersCSV),
		RefundsPath: write("refunds.csv", refundsCSV),
	})

	res, err := p.Load(context.Background())

	require.NoError(t, err)
	assert.Len(t, res.Orders, 1)
	assert.Len(t, res.Refunds, 1)
	assert.Equal(t, 2, res.Stats.Items)
}

func TestProvider_Load_Errors(t *testing.T) {
	t.Run("missing paths", func(t *testing.T) {
		_, err := NewProvider(nil, &ProviderConfig{}).Load(context.Background())
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewProvider(nil, &ProviderConfig{
			ItemsPath:  filepath.Join(t.TempDir(), "nope.csv"),
			OrdersPath: filepath.Join(t.TempDir(), "nope.csv"),
		}).Load(context.Background())
		assert.Error(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		dir := t.TempDir()
		items := filepath.Join(dir, "items.csv")
		orders := filepath.Join(dir, "orders.csv")
		require.NoError(t, os.WriteFile(items, []byte(itemsCSV), 0o600))
		require.NoError(t, os.WriteFile(orders, []byte(ordersCSV), 0o600))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewProvider(nil, &ProviderConfig{ItemsPath: items, OrdersPath: orders}).Load(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
