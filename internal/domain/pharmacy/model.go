package pharmacy

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Medicine maps to the medicine table. Stock is decremented by sales inside
// the sale transaction, never updated blindly.
type Medicine struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	Name         string          `db:"name" json:"name"`
	Category     string          `db:"category" json:"category"`
	BatchNo      string          `db:"batch_no" json:"batch_no"`
	ExpiryDate   time.Time       `db:"expiry_date" json:"expiry_date"`
	Stock        int             `db:"stock" json:"stock"`
	ReorderLevel int             `db:"reorder_level" json:"reorder_level"`
	UnitPrice    decimal.Decimal `db:"unit_price" json:"unit_price"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// SaleItem is one line of a counter sale.
type SaleItem struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	SaleID     uuid.UUID       `db:"sale_id" json:"sale_id"`
	MedicineID uuid.UUID       `db:"medicine_id" json:"medicine_id"`
	Name       string          `db:"name" json:"name"`
	Quantity   int             `db:"quantity" json:"quantity"`
	UnitPrice  decimal.Decimal `db:"unit_price" json:"unit_price"`
	Total      decimal.Decimal `db:"total" json:"total"`
}

// PaymentMode is how a counter sale was tendered.
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

// Sale maps to the pharmacy_sale table. Counter sales apply an optional
// discount but no tax.
type Sale struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	BillNo          string          `db:"bill_no" json:"bill_no"`
	MRN             *string         `db:"mrn" json:"mrn,omitempty"`
	Items           []*SaleItem     `json:"items"`
	Subtotal        decimal.Decimal `db:"subtotal" json:"subtotal"`
	DiscountPercent decimal.Decimal `db:"discount_percent" json:"discount_percent"`
	Total           decimal.Decimal `db:"total" json:"total"`
	Mode            PaymentMode     `db:"mode" json:"mode"`
	SoldAt          time.Time       `db:"sold_at" json:"sold_at"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

// ValidationError marks input errors reported before any persistence happens.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func errValidation(format string, args ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
