package pharmacy

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMedicineNotFound  = errors.New("medicine not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrSaleNotFound      = errors.New("sale not found")
)

type Repository interface {
	// Medicines
	CreateMedicine(ctx context.Context, m *Medicine) error
	GetMedicine(ctx context.Context, id uuid.UUID) (*Medicine, error)
	UpdateMedicine(ctx context.Context, m *Medicine) error
	ListMedicines(ctx context.Context, search string, limit, offset int) ([]*Medicine, int, error)
	LowStock(ctx context.Context) ([]*Medicine, error)
	ExpiringBefore(ctx context.Context, cutoff time.Time) ([]*Medicine, error)
	// DecrementStock reports ErrInsufficientStock when the medicine has fewer
	// units than requested; nothing is changed in that case.
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) error

	// Sales
	CreateSale(ctx context.Context, s *Sale) error
	GetSale(ctx context.Context, id uuid.UUID) (*Sale, error)
	ListSales(ctx context.Context, limit, offset int) ([]*Sale, int, error)
}

// TxRunner runs a function inside a single database transaction so a sale and
// its stock decrements are atomic.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}
