package admission

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("admission not found")

// ListFilter narrows the admissions listing.
type ListFilter struct {
	Status Status
	WardID uuid.UUID
}

type Repository interface {
	Create(ctx context.Context, a *Admission) error
	GetByID(ctx context.Context, id uuid.UUID) (*Admission, error)
	Update(ctx context.Context, a *Admission) error
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Admission, int, error)
}
