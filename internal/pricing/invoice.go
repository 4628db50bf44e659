package pricing

import "github.com/shopspring/decimal"

// InvoiceLine is the numeric part of one invoice item. Discount and GST are
// percentages applied to this line only.
type InvoiceLine struct {
	Quantity float64
	Price    float64
	Discount float64
	GST      float64
}

type InvoiceTotals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	GSTAmount      decimal.Decimal
	GrandTotal     decimal.Decimal
	BalanceDue     decimal.Decimal
}

// LineTotal is quantity × price, before discount and tax.
func LineTotal(line InvoiceLine) decimal.Decimal {
	return num(line.Quantity).Mul(num(line.Price))
}

// InvoiceTotalsFor sums the lines with discount taken first and GST charged on
// the discounted amount of each line.
func InvoiceTotalsFor(lines []InvoiceLine, amountPaid float64) InvoiceTotals {
	subtotal := decimal.Zero
	discount := decimal.Zero
	gst := decimal.Zero

	for _, line := range lines {
		lineSubtotal := LineTotal(line)
		lineDiscount := percentOf(lineSubtotal, num(line.Discount))
		afterDiscount := lineSubtotal.Sub(lineDiscount)

		subtotal = subtotal.Add(lineSubtotal)
		discount = discount.Add(lineDiscount)
		gst = gst.Add(percentOf(afterDiscount, num(line.GST)))
	}

	grand := subtotal.Sub(discount).Add(gst)
	return InvoiceTotals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		GSTAmount:      gst,
		GrandTotal:     grand,
		BalanceDue:     grand.Sub(num(amountPaid)),
	}
}

// EffectiveDiscountPercent is the aggregate discount rate stored on the
// invoice record. It is a reporting value and must not be fed back into a
// calculation.
func (t InvoiceTotals) EffectiveDiscountPercent() decimal.Decimal {
	if !t.Subtotal.IsPositive() {
		return decimal.Zero
	}
	return t.DiscountAmount.Div(t.Subtotal).Mul(hundred)
}

// EffectiveGSTPercent is the aggregate tax rate over the discounted base.
func (t InvoiceTotals) EffectiveGSTPercent() decimal.Decimal {
	base := t.Subtotal.Sub(t.DiscountAmount)
	if !base.IsPositive() {
		return decimal.Zero
	}
	return t.GSTAmount.Div(base).Mul(hundred)
}

// Settled reports whether nothing is owed (balance zero or overpaid).
func (t InvoiceTotals) Settled() bool {
	return !t.BalanceDue.IsPositive()
}
