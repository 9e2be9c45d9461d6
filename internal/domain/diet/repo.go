package diet

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("diet order not found")

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetActiveByAdmission(ctx context.Context, admissionID uuid.UUID) (*Order, error)
	Update(ctx context.Context, o *Order) error
	ListActive(ctx context.Context, limit, offset int) ([]*Order, int, error)
}
