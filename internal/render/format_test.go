package render

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCurrencyScale(t *testing.T) {
	require.EqualValues(t, 2, CurrencyScale("USD"))
	require.EqualValues(t, 0, CurrencyScale("JPY"))
	require.EqualValues(t, 2, CurrencyScale("not-a-code"))
}

func TestCurrencyScaleUsesStandardMinorUnits(t *testing.T) {
	// TWD and HUF round to whole units in cash but carry two standard
	// minor-unit digits; invoices must keep the cents.
	require.EqualValues(t, 2, CurrencyScale("TWD"))
	require.EqualValues(t, 2, CurrencyScale("HUF"))
}

func TestFormatMoney(t *testing.T) {
	require.Equal(t, "$1,234.50", FormatMoney(decimal.RequireFromString("1234.50"), "USD", "en"))
	require.Equal(t, "¥1,200", FormatMoney(decimal.NewFromInt(1200), "JPY", "en"))
	require.Equal(t, "TWD 100.25", FormatMoney(decimal.RequireFromString("100.25"), "TWD", "en"))
	require.Equal(t, "€1.234,50", FormatMoney(decimal.RequireFromString("1234.50"), "EUR", "de"))
}

func TestFormatMoneyStaysExactBeyondFloatPrecision(t *testing.T) {
	got := FormatMoney(decimal.RequireFromString("123456789012345.67"), "USD", "en")
	require.Equal(t, "$123,456,789,012,345.67", got)
}

func TestFormatMoneyUnknownCurrencyFallsBackToCode(t *testing.T) {
	got := FormatMoney(decimal.RequireFromString("10.00"), "XXZ", "en")
	require.Equal(t, "XXZ 10.00", got)
}

func TestFormatDate(t *testing.T) {
	ts := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	require.Equal(t, "01 Mar 2024", FormatDate(ts, "UTC"))
	// Jakarta is UTC+7, so the late-evening UTC timestamp lands on the next day.
	require.Equal(t, "02 Mar 2024", FormatDate(ts, "Asia/Jakarta"))
	require.Equal(t, "", FormatDate(time.Time{}, "UTC"))
}
