// Package pricing computes line and document totals for quotations and sales.
//
// Values are kept at full decimal precision. Rounding to two places happens
// only when a value is presented (see Round).
package pricing

import (
	"github.com/shopspring/decimal"
)

// TaxRate is the fixed ISV rate applied when tax is enabled.
var TaxRate = decimal.RequireFromString("0.15")

var hundred = decimal.NewFromInt(100)

// QuotationLine is an area-priced line. Every field is optional; a line only
// contributes when all four are present and non-negative.
type QuotationLine struct {
	Width              decimal.NullDecimal
	Height             decimal.NullDecimal
	PricePerSquareInch decimal.NullDecimal
	Quantity           decimal.NullDecimal
}

// Complete reports whether every input is present and non-negative.
func (l QuotationLine) Complete() bool {
	return usable(l.Width) && usable(l.Height) && usable(l.PricePerSquareInch) && usable(l.Quantity)
}

// SquareInches is width × height, or zero when either is unusable.
func (l QuotationLine) SquareInches() decimal.Decimal {
	if !usable(l.Width) || !usable(l.Height) {
		return decimal.Zero
	}
	return l.Width.Decimal.Mul(l.Height.Decimal)
}

// Total is width × height × price × quantity, or zero for an incomplete line.
func (l QuotationLine) Total() decimal.Decimal {
	if !l.Complete() {
		return decimal.Zero
	}
	return l.SquareInches().Mul(l.PricePerSquareInch.Decimal).Mul(l.Quantity.Decimal)
}

// SaleLine is a quantity-priced line.
type SaleLine struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Total is unit price × quantity. Negative inputs contribute zero.
func (l SaleLine) Total() decimal.Decimal {
	if l.UnitPrice.IsNegative() || l.Quantity < 0 {
		return decimal.Zero
	}
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Adjustments are the document-level inputs applied on top of the subtotal.
type Adjustments struct {
	DiscountPercentage decimal.Decimal
	ApplyTax           bool
}

// Totals is the computed document summary.
type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

// Compute derives discount, tax and total from a subtotal.
// total = subtotal - subtotal*discount/100 + (subtotal*0.15 when tax applies).
func Compute(subtotal decimal.Decimal, adj Adjustments) Totals {
	pct := adj.DiscountPercentage
	if pct.IsNegative() {
		pct = decimal.Zero
	}

	discount := subtotal.Mul(pct).Div(hundred)
	tax := decimal.Zero
	if adj.ApplyTax {
		tax = subtotal.Mul(TaxRate)
	}

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxAmount:      tax,
		Total:          subtotal.Sub(discount).Add(tax),
	}
}

// QuotationTotals sums the lines and applies the adjustments.
func QuotationTotals(lines []QuotationLine, adj Adjustments) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Total())
	}
	return Compute(subtotal, adj)
}

// SaleTotals sums the lines and applies the adjustments.
func SaleTotals(lines []SaleLine, adj Adjustments) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Total())
	}
	return Compute(subtotal, adj)
}

// Round is the presentation rounding: two decimal places, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Format renders an amount for API responses.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func usable(v decimal.NullDecimal) bool {
	return v.Valid && !v.Decimal.IsNegative()
}
