package pricing

import "strings"

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "Paid"
	PaymentPending PaymentStatus = "Pending"
	PaymentOverdue PaymentStatus = "Overdue"
)

// PaymentStatusFor only ever yields Paid or Pending. Overdue is a stored label.
func PaymentStatusFor(totals InvoiceTotals, amountPaid float64) PaymentStatus {
	if totals.GrandTotal.IsPositive() && num(amountPaid).GreaterThanOrEqual(totals.GrandTotal) {
		return PaymentPaid
	}
	return PaymentPending
}

// ParsePaymentStatus accepts any casing. ok is false for unknown labels.
func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "paid":
		return PaymentPaid, true
	case "pending":
		return PaymentPending, true
	case "overdue":
		return PaymentOverdue, true
	}
	return "", false
}
