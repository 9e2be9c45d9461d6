package billing

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChargeCategory classifies a billable line item.
type ChargeCategory string

const (
	CategoryBed          ChargeCategory = "bed"
	CategoryConsultation ChargeCategory = "consultation"
	CategoryProcedure    ChargeCategory = "procedure"
	CategoryLab          ChargeCategory = "lab"
	CategoryRadiology    ChargeCategory = "radiology"
	CategoryPharmacy     ChargeCategory = "pharmacy"
	CategoryOT           ChargeCategory = "ot"
	CategoryOther        ChargeCategory = "other"
)

var chargeCategories = map[ChargeCategory]bool{
	CategoryBed:          true,
	CategoryConsultation: true,
	CategoryProcedure:    true,
	CategoryLab:          true,
	CategoryRadiology:    true,
	CategoryPharmacy:     true,
	CategoryOT:           true,
	CategoryOther:        true,
}

// ParseChargeCategory validates a category value received at the boundary.
func ParseChargeCategory(s string) (ChargeCategory, error) {
	c := ChargeCategory(s)
	if !chargeCategories[c] {
		return "", errValidation("invalid charge category: %q", s)
	}
	return c, nil
}

// PaymentMode is how a payment was tendered.
type PaymentMode string

const (
	ModeCash      PaymentMode = "cash"
	ModeCard      PaymentMode = "card"
	ModeUPI       PaymentMode = "upi"
	ModeInsurance PaymentMode = "insurance"
	ModeCheque    PaymentMode = "cheque"
)

var paymentModes = map[PaymentMode]bool{
	ModeCash:      true,
	ModeCard:      true,
	ModeUPI:       true,
	ModeInsurance: true,
	ModeCheque:    true,
}

// ParsePaymentMode validates a payment mode value received at the boundary.
func ParsePaymentMode(s string) (PaymentMode, error) {
	m := PaymentMode(s)
	if !paymentModes[m] {
		return "", errValidation("invalid payment mode: %q", s)
	}
	return m, nil
}

// InvoiceStatus is derived from paid vs total, never stored.
type InvoiceStatus string

const (
	StatusPending InvoiceStatus = "Pending"
	StatusPartial InvoiceStatus = "Partial"
	StatusPaid    InvoiceStatus = "Paid"
)

// Charge maps to the ipd_charge table. Charges are append-only: once added
// they are never edited in place, only replaced wholesale with the bill.
type Charge struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	AdmissionID uuid.UUID       `db:"admission_id" json:"admission_id"`
	Category    ChargeCategory  `db:"category" json:"category"`
	Description string          `db:"description" json:"description"`
	Quantity    int             `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	Total       decimal.Decimal `db:"total" json:"total"`
	ChargeDate  time.Time       `db:"charge_date" json:"charge_date"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// Payment maps to the ipd_payment table. Payments are append-only; there is
// no refund or reversal path.
type Payment struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	AdmissionID uuid.UUID       `db:"admission_id" json:"admission_id"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Mode        PaymentMode     `db:"mode" json:"mode"`
	Reference   *string         `db:"reference" json:"reference,omitempty"`
	PaidAt      time.Time       `db:"paid_at" json:"paid_at"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// BillParams maps to the ipd_bill table: the persisted billing parameters for
// one admission. Totals are never stored; they are recomputed from the ledger
// and these parameters on every read.
type BillParams struct {
	AdmissionID     uuid.UUID       `db:"admission_id" json:"admission_id"`
	DiscountPercent decimal.Decimal `db:"discount_percent" json:"discount_percent"`
	TaxPercent      decimal.Decimal `db:"tax_percent" json:"tax_percent"`
	Finalized       bool            `db:"finalized" json:"finalized"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// Totals holds the derived financial summary for one admission's ledger.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
	Paid     decimal.Decimal `json:"paid"`
	Balance  decimal.Decimal `json:"balance"`
	Status   InvoiceStatus   `json:"status"`
}

// Rounded returns a copy with all amounts rounded to two decimal places for
// presentation. Internal computation keeps full precision.
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal: t.Subtotal.Round(2),
		Discount: t.Discount.Round(2),
		Tax:      t.Tax.Round(2),
		Total:    t.Total.Round(2),
		Paid:     t.Paid.Round(2),
		Balance:  t.Balance.Round(2),
		Status:   t.Status,
	}
}

// Invoice is the full derived view of one admission's bill.
type Invoice struct {
	AdmissionID     uuid.UUID       `json:"admission_id"`
	PatientRef      string          `json:"patient_ref"`
	PatientName     string          `json:"patient_name"`
	AdmittedAt      time.Time       `json:"admitted_at"`
	DischargedAt    *time.Time      `json:"discharged_at,omitempty"`
	TotalDays       int             `json:"total_days"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
	Finalized       bool            `json:"finalized"`
	Charges         []*Charge       `json:"charges"`
	Payments        []*Payment      `json:"payments"`
	Totals          Totals          `json:"totals"`
}

// ValidationError marks input errors reported before any persistence happens.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func errValidation(format string, args ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
