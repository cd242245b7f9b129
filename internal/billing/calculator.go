// Package billing holds the pure invoice-line arithmetic. It has no
// storage dependencies so totals can be recomputed anywhere.
package billing

import "github.com/shopspring/decimal"

// LineTotals are the four derived amounts of an invoice line, rounded to
// currency precision (2 decimals).
type LineTotals struct {
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"descuento_amount"`
	VATAmount      float64 `json:"iva_amount"`
	Total          float64 `json:"total"`
}

var hundred = decimal.NewFromInt(100)

// ComputeLine derives the amounts for one line:
//
//	gross    = unitPrice * quantity
//	discount = gross * discountPct/100
//	subtotal = gross - discount        (net of discount, before VAT)
//	vat      = subtotal * vatPct/100
//	total    = subtotal + vat
//
// Arithmetic is exact decimal; rounding happens once on the outputs, never
// on intermediates, so multi-line invoices do not compound rounding error.
func ComputeLine(unitPrice float64, quantity int, vatPct, discountPct float64) LineTotals {
	gross := decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromInt(int64(quantity)))
	discount := gross.Mul(decimal.NewFromFloat(discountPct)).Div(hundred)
	subtotal := gross.Sub(discount)
	vat := subtotal.Mul(decimal.NewFromFloat(vatPct)).Div(hundred)
	total := subtotal.Add(vat)

	return LineTotals{
		Subtotal:       round2(subtotal),
		DiscountAmount: round2(discount),
		VATAmount:      round2(vat),
		Total:          round2(total),
	}
}

// SumLines rolls line amounts up into header totals. Summation is done in
// decimal over the already-rounded line values, matching what is persisted
// per line.
func SumLines(lines []LineTotals) (subtotal, vat, total float64) {
	sub := decimal.Zero
	tax := decimal.Zero
	for _, l := range lines {
		sub = sub.Add(decimal.NewFromFloat(l.Subtotal))
		tax = tax.Add(decimal.NewFromFloat(l.VATAmount))
	}
	return round2(sub), round2(tax), round2(sub.Add(tax))
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
