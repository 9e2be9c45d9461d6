package billing

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ChargeTotal computes a line item total from quantity and unit price.
func ChargeTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// Compute derives invoice totals from the ledger and billing parameters.
// The order of operations is fixed: subtotal, then discount on the subtotal,
// then tax on the post-discount amount - never on the raw subtotal - then
// total and balance. It is a pure function: same inputs, same totals.
func Compute(charges []*Charge, discountPercent, taxPercent, paid decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, c := range charges {
		subtotal = subtotal.Add(c.Total)
	}

	discount := subtotal.Mul(discountPercent).Div(hundred)
	taxBase := subtotal.Sub(discount)
	tax := taxBase.Mul(taxPercent).Div(hundred)
	total := taxBase.Add(tax)
	balance := total.Sub(paid)

	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Total:    total,
		Paid:     paid,
		Balance:  balance,
		Status:   statusFor(paid, balance),
	}
}

// statusFor derives the three-state invoice status: Paid when nothing is
// owed, Partial when something has been paid and something is still owed,
// Pending otherwise.
func statusFor(paid, balance decimal.Decimal) InvoiceStatus {
	switch {
	case balance.IsZero():
		return StatusPaid
	case paid.IsPositive() && balance.IsPositive():
		return StatusPartial
	default:
		return StatusPending
	}
}

// BedDays computes the billable bed days for a stay: the stay duration
// rounded up to whole days, with a minimum of one day.
func BedDays(admittedAt, until time.Time) int {
	days := int(math.Ceil(until.Sub(admittedAt).Hours() / 24))
	if days < 1 {
		days = 1
	}
	return days
}
