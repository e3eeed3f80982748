package invoices

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestItemTotal(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		quantity int
		discount int
		want     string
	}{
		{"no discount", "50", 1, 0, "50"},
		{"ten percent off two units", "100", 2, 10, "180"},
		{"full discount", "99.99", 3, 100, "0"},
		{"zero price", "0", 1, 0, "0"},
		{"rounding to cents", "0.10", 3, 33, "0.20"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ItemTotal(dec(tc.price), tc.quantity, tc.discount)
			require.True(t, got.Equal(dec(tc.want)), "got %s want %s", got, tc.want)
		})
	}
}

func TestComputeTotalsCreateScenario(t *testing.T) {
	items := []LineInput{
		{Price: dec("100"), Quantity: 2, DiscountPercent: 10},
		{Price: dec("50"), Quantity: 1, DiscountPercent: 0},
	}

	totals := ComputeTotals(items, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero)

	require.True(t, totals.Subtotal.Equal(dec("230")))
	require.True(t, totals.Total.Equal(dec("230")))
	require.True(t, totals.Pending.Equal(dec("230")))
	require.Equal(t, StatusPendente, totals.Status)
}

func TestComputeTotalsEmptyItems(t *testing.T) {
	totals := ComputeTotals(nil, dec("5"), dec("3"), dec("2"), decimal.Zero)

	require.True(t, totals.Subtotal.Equal(decimal.Zero))
	// Adjustments apply even with no items: -5 + 3 + 2.
	require.True(t, totals.Total.Equal(decimal.Zero))
}

func TestComputeTotalsAdjustments(t *testing.T) {
	items := []LineInput{{Price: dec("200"), Quantity: 1, DiscountPercent: 0}}

	totals := ComputeTotals(items, dec("20"), dec("15"), dec("34.50"), dec("50"))

	require.True(t, totals.Subtotal.Equal(dec("200")))
	require.True(t, totals.Total.Equal(dec("229.50")))
	require.True(t, totals.Pending.Equal(dec("179.50")))
	require.Equal(t, StatusParcial, totals.Status)
}

func TestComputeTotalsNegativeNotClamped(t *testing.T) {
	items := []LineInput{{Price: dec("10"), Quantity: 1, DiscountPercent: 0}}

	totals := ComputeTotals(items, dec("50"), decimal.Zero, decimal.Zero, decimal.Zero)

	require.True(t, totals.Total.Equal(dec("-40")))
	require.True(t, totals.Pending.Equal(dec("-40")))
	// Zero paid against a negative total still counts as fully covered.
	require.Equal(t, StatusPago, totals.Status)
}

func TestComputeTotalsDeterministic(t *testing.T) {
	items := []LineInput{
		{Price: dec("33.33"), Quantity: 3, DiscountPercent: 7},
		{Price: dec("0.99"), Quantity: 100, DiscountPercent: 15},
	}

	first := ComputeTotals(items, dec("1.50"), dec("2.25"), dec("0.75"), dec("10"))
	second := ComputeTotals(items, dec("1.50"), dec("2.25"), dec("0.75"), dec("10"))

	require.True(t, first.Subtotal.Equal(second.Subtotal))
	require.True(t, first.Total.Equal(second.Total))
	require.True(t, first.Pending.Equal(second.Pending))
	require.Equal(t, first.Status, second.Status)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name  string
		paid  string
		total string
		want  InvoiceStatus
	}{
		{"unpaid", "0", "230", StatusPendente},
		{"partial", "100", "230", StatusParcial},
		{"exact", "230", "230", StatusPago},
		{"overpaid", "300", "230", StatusPago},
		{"negative paid", "-5", "230", StatusPendente},
		{"zero against zero", "0", "0", StatusPago},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, StatusFor(dec(tc.paid), dec(tc.total)))
		})
	}
}

func TestStatusPurity(t *testing.T) {
	// Two invoices with equal (paid, total) must carry equal status regardless
	// of how they got there.
	a := StatusFor(dec("115"), dec("230"))
	b := StatusFor(dec("115"), dec("230"))
	require.Equal(t, a, b)
}

func BenchmarkComputeTotals(b *testing.B) {
	items := make([]LineInput, 0, 50)
	for i := 0; i < 50; i++ {
		items = append(items, LineInput{Price: dec("33.33"), Quantity: i + 1, DiscountPercent: i % 20})
	}
	discount, transshipment, taxes, paid := dec("10"), dec("5"), dec("17.5"), dec("1000")

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ComputeTotals(items, discount, transshipment, taxes, paid)
	}
}

func TestRecomputeTotalsFromStoredItems(t *testing.T) {
	inv := Invoice{
		DiscountAmount:      decimal.Zero,
		TransshipmentAmount: decimal.Zero,
		TaxesAmount:         decimal.Zero,
		PaidAmount:          dec("230"),
	}
	items := []InvoiceItem{
		{Price: dec("100"), Quantity: 2, DiscountPercent: 10},
	}

	totals := RecomputeTotals(inv, items)

	require.True(t, totals.Subtotal.Equal(dec("180")))
	require.True(t, totals.Total.Equal(dec("180")))
	require.True(t, totals.Pending.Equal(dec("-50")))
	require.Equal(t, StatusPago, totals.Status)
}
