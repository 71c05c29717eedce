package invoicing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/paperbill/paperbill/internal/render"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeTotalsReferenceScenario(t *testing.T) {
	items := []LineItem{
		{Description: "Consulting", Quantity: d("3"), UnitPrice: d("100.00")},
		{Description: "Travel", Quantity: d("1"), UnitPrice: d("49.99")},
	}
	totals := ComputeTotals(items, d("8.25"), 2)

	require.Len(t, totals.LineTotals, 2)
	require.True(t, totals.LineTotals[0].Equal(d("300.00")))
	require.True(t, totals.LineTotals[1].Equal(d("49.99")))
	require.True(t, totals.Subtotal.Equal(d("349.99")))
	require.True(t, totals.TaxAmount.Equal(d("28.87")))
	require.True(t, totals.Total.Equal(d("378.86")))
}

func TestComputeTotalsEmptyItemsYieldZeros(t *testing.T) {
	totals := ComputeTotals(nil, d("19"), 2)
	require.Empty(t, totals.LineTotals)
	require.True(t, totals.Subtotal.IsZero())
	require.True(t, totals.TaxAmount.IsZero())
	require.True(t, totals.Total.IsZero())
}

func TestComputeTotalsSumsRoundedLineTotals(t *testing.T) {
	// Each line is 1.005 before rounding. Rounding per line gives
	// 1.01 + 1.01 = 2.02; rounding the raw sum (2.01) would differ.
	items := []LineItem{
		{Quantity: d("0.5"), UnitPrice: d("2.01")},
		{Quantity: d("0.5"), UnitPrice: d("2.01")},
	}
	totals := ComputeTotals(items, decimal.Zero, 2)
	require.True(t, totals.LineTotals[0].Equal(d("1.01")))
	require.True(t, totals.Subtotal.Equal(d("2.02")), "subtotal must sum rounded line totals, got %s", totals.Subtotal)
}

func TestComputeTotalsRoundsHalfUp(t *testing.T) {
	items := []LineItem{{Quantity: d("1"), UnitPrice: d("2.125")}}
	totals := ComputeTotals(items, decimal.Zero, 2)
	require.True(t, totals.LineTotals[0].Equal(d("2.13")))
}

func TestComputeTotalsKeepsCentsForCashRoundedCurrencies(t *testing.T) {
	// TWD rounds to whole units in cash, but its standard minor unit is
	// two digits. Totals must not lose the cents.
	items := []LineItem{{Quantity: d("1"), UnitPrice: d("100.25")}}
	totals := ComputeTotals(items, decimal.Zero, render.CurrencyScale("TWD"))
	require.True(t, totals.Subtotal.Equal(d("100.25")), "got %s", totals.Subtotal)
	require.True(t, totals.Total.Equal(d("100.25")))
}

func TestComputeTotalsTotalEqualsSubtotalPlusTax(t *testing.T) {
	items := []LineItem{
		{Quantity: d("2.5"), UnitPrice: d("19.99")},
		{Quantity: d("0.75"), UnitPrice: d("120.40")},
		{Quantity: d("13"), UnitPrice: d("0.07")},
	}
	for _, rate := range []string{"0", "7", "8.25", "19", "21.5"} {
		totals := ComputeTotals(items, d(rate), 2)
		require.True(t, totals.Total.Equal(totals.Subtotal.Add(totals.TaxAmount)), "rate %s", rate)
		recomputed := totals.Subtotal.Mul(d(rate)).Div(decimal.NewFromInt(100)).Round(2)
		require.True(t, totals.TaxAmount.Equal(recomputed), "rate %s", rate)
	}
}

func TestComputeTotalsZeroMinorUnits(t *testing.T) {
	items := []LineItem{{Quantity: d("3"), UnitPrice: d("100.4")}}
	totals := ComputeTotals(items, d("10"), 0)
	require.True(t, totals.LineTotals[0].Equal(d("301")))
	require.True(t, totals.TaxAmount.Equal(d("30")))
	require.True(t, totals.Total.Equal(d("331")))
}
