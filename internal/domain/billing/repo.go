package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrParamsNotFound is returned when no bill parameters exist yet for an
// admission; callers fall back to configured defaults.
var ErrParamsNotFound = errors.New("bill parameters not found")

type Repository interface {
	// Charges
	AddCharge(ctx context.Context, c *Charge) error
	ListCharges(ctx context.Context, admissionID uuid.UUID) ([]*Charge, error)
	ReplaceCharges(ctx context.Context, admissionID uuid.UUID, charges []*Charge) error

	// Payments
	AddPayment(ctx context.Context, p *Payment) error
	ListPayments(ctx context.Context, admissionID uuid.UUID) ([]*Payment, error)

	// Bill parameters
	GetParams(ctx context.Context, admissionID uuid.UUID) (*BillParams, error)
	UpsertParams(ctx context.Context, p *BillParams) error
}

// TxRunner runs a function inside a single database transaction so that a
// bill snapshot save is atomic.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}
