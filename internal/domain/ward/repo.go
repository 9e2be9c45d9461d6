package ward

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrWardNotFound = errors.New("ward not found")
	ErrBedNotFound  = errors.New("bed not found")
)

type Repository interface {
	// Wards
	CreateWard(ctx context.Context, w *Ward) error
	GetWard(ctx context.Context, id uuid.UUID) (*Ward, error)
	UpdateWard(ctx context.Context, w *Ward) error
	ListWards(ctx context.Context, limit, offset int) ([]*Ward, int, error)

	// Beds
	CreateBed(ctx context.Context, b *Bed) error
	GetBed(ctx context.Context, id uuid.UUID) (*Bed, error)
	UpdateBed(ctx context.Context, b *Bed) error
	ListBeds(ctx context.Context, wardID uuid.UUID, status BedStatus) ([]*Bed, error)
	// SetBedStatus transitions a bed from one status to another; it reports
	// ErrBedNotFound when the bed is not currently in the expected status, so
	// assignment races resolve to a single winner.
	SetBedStatus(ctx context.Context, id uuid.UUID, from, to BedStatus) error

	// Occupancy
	Occupancy(ctx context.Context) ([]*Occupancy, error)
}
