package invoices

import "github.com/shopspring/decimal"

// moneyPlaces is the scale used for all stored monetary values.
const moneyPlaces = 2

var oneHundred = decimal.NewFromInt(100)

// LineInput carries the source fields an item total is derived from.
type LineInput struct {
	Price           decimal.Decimal
	Quantity        int
	DiscountPercent int
}

// Totals holds the derived invoice fields. They are always computed together
// so a reader never sees a subtotal from one item set paired with a total from
// another.
type Totals struct {
	Subtotal decimal.Decimal
	Total    decimal.Decimal
	Pending  decimal.Decimal
	Status   InvoiceStatus
}

// ItemTotal computes price × quantity × (1 − discount/100) rounded to two
// decimal places. It always works from the source fields, never from a
// previously rounded accumulator, so repeated recomputation cannot drift.
func ItemTotal(price decimal.Decimal, quantity, discountPercent int) decimal.Decimal {
	gross := price.Mul(decimal.NewFromInt(int64(quantity)))
	discount := gross.Mul(decimal.NewFromInt(int64(discountPercent))).Div(oneHundred)
	return gross.Sub(discount).Round(moneyPlaces)
}

// ComputeTotals derives subtotal, total, pending and status from the full item
// set plus the invoice-level adjustments and the paid amount. Negative totals
// and pending amounts are permitted: over-adjustment and over-payment are not
// clamped.
func ComputeTotals(items []LineInput, discount, transshipment, taxes, paid decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(ItemTotal(item.Price, item.Quantity, item.DiscountPercent))
	}

	total := subtotal.Sub(discount).Add(transshipment).Add(taxes).Round(moneyPlaces)
	pending := total.Sub(paid).Round(moneyPlaces)

	return Totals{
		Subtotal: subtotal.Round(moneyPlaces),
		Total:    total,
		Pending:  pending,
		Status:   StatusFor(paid, total),
	}
}

// StatusFor re-evaluates the payment status from the current paid and total
// amounts alone; the previous status never participates.
func StatusFor(paid, total decimal.Decimal) InvoiceStatus {
	switch {
	case paid.GreaterThanOrEqual(total):
		return StatusPago
	case paid.IsPositive():
		return StatusParcial
	default:
		return StatusPendente
	}
}

// RecomputeTotals derives the invoice totals from its stored items and current
// adjustment and paid amounts. Used by the write paths and by the integrity
// scan job to detect drift.
func RecomputeTotals(inv Invoice, items []InvoiceItem) Totals {
	return ComputeTotals(lineInputs(items), inv.DiscountAmount, inv.TransshipmentAmount, inv.TaxesAmount, inv.PaidAmount)
}

// lineInputs converts stored items into calculator inputs.
func lineInputs(items []InvoiceItem) []LineInput {
	lines := make([]LineInput, 0, len(items))
	for _, item := range items {
		lines = append(lines, LineInput{
			Price:           item.Price,
			Quantity:        item.Quantity,
			DiscountPercent: item.DiscountPercent,
		})
	}
	return lines
}
