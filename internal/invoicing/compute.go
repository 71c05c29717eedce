package invoicing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ComputeTotals derives line totals and aggregates from the raw line items.
// Each line total is quantity*unitPrice rounded half-up to the currency's
// minor units; the subtotal is the plain sum of those already-rounded line
// totals, and tax is computed from the subtotal, so the printed document
// always foots. An empty item list yields zeros, which is a valid draft
// state; the send path rejects it, not this function.
func ComputeTotals(items []LineItem, taxRatePercent decimal.Decimal, minorUnits int32) Totals {
	lineTotals := make([]decimal.Decimal, 0, len(items))
	subtotal := decimal.Zero
	for _, it := range items {
		lt := it.Quantity.Mul(it.UnitPrice).Round(minorUnits)
		lineTotals = append(lineTotals, lt)
		subtotal = subtotal.Add(lt)
	}
	taxAmount := subtotal.Mul(taxRatePercent).Div(hundred).Round(minorUnits)
	return Totals{
		LineTotals: lineTotals,
		Subtotal:   subtotal,
		TaxAmount:  taxAmount,
		Total:      subtotal.Add(taxAmount),
	}
}
