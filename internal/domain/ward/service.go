package ward

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) validateWard(w *Ward) error {
	if strings.TrimSpace(w.Name) == "" {
		return errValidation("ward name is required")
	}
	if _, err := ParseWardType(string(w.Type)); err != nil {
		return err
	}
	if w.DailyRate.IsNegative() {
		return errValidation("daily rate must not be negative, got %s", w.DailyRate)
	}
	return nil
}

func (s *Service) CreateWard(ctx context.Context, w *Ward) error {
	if err := s.validateWard(w); err != nil {
		return err
	}
	w.Name = strings.TrimSpace(w.Name)
	w.Active = true
	return s.repo.CreateWard(ctx, w)
}

func (s *Service) GetWard(ctx context.Context, id uuid.UUID) (*Ward, error) {
	return s.repo.GetWard(ctx, id)
}

func (s *Service) UpdateWard(ctx context.Context, w *Ward) error {
	if err := s.validateWard(w); err != nil {
		return err
	}
	w.Name = strings.TrimSpace(w.Name)
	return s.repo.UpdateWard(ctx, w)
}

func (s *Service) ListWards(ctx context.Context, limit, offset int) ([]*Ward, int, error) {
	return s.repo.ListWards(ctx, limit, offset)
}

func (s *Service) CreateBed(ctx context.Context, b *Bed) error {
	if strings.TrimSpace(b.Number) == "" {
		return errValidation("bed number is required")
	}
	if _, err := s.repo.GetWard(ctx, b.WardID); err != nil {
		return err
	}
	b.Number = strings.TrimSpace(b.Number)
	if b.Status == "" {
		b.Status = BedAvailable
	} else if _, err := ParseBedStatus(string(b.Status)); err != nil {
		return err
	}
	return s.repo.CreateBed(ctx, b)
}

// UpdateBed renumbers a bed and moves it into or out of maintenance.
// Occupied beds cannot be edited: occupancy changes only through admission
// and discharge, and a bed never becomes occupied by direct edit.
func (s *Service) UpdateBed(ctx context.Context, id uuid.UUID, number, status string) (*Bed, error) {
	bed, err := s.repo.GetBed(ctx, id)
	if err != nil {
		return nil, err
	}
	if n := strings.TrimSpace(number); n != "" {
		bed.Number = n
	}
	if status != "" {
		st, err := ParseBedStatus(status)
		if err != nil {
			return nil, err
		}
		if st != bed.Status {
			if bed.Status == BedOccupied {
				return nil, errValidation("bed %s is occupied; discharge the patient first", bed.Number)
			}
			if st == BedOccupied {
				return nil, errValidation("beds become occupied through admission, not by edit")
			}
			bed.Status = st
		}
	}
	if err := s.repo.UpdateBed(ctx, bed); err != nil {
		return nil, err
	}
	return bed, nil
}

func (s *Service) GetBed(ctx context.Context, id uuid.UUID) (*Bed, error) {
	return s.repo.GetBed(ctx, id)
}

func (s *Service) ListBeds(ctx context.Context, wardID uuid.UUID, status string) ([]*Bed, error) {
	var st BedStatus
	if status != "" {
		parsed, err := ParseBedStatus(status)
		if err != nil {
			return nil, err
		}
		st = parsed
	}
	return s.repo.ListBeds(ctx, wardID, st)
}

// AssignBed moves an available bed to occupied. Assigning a bed that is
// occupied or under maintenance fails.
func (s *Service) AssignBed(ctx context.Context, id uuid.UUID) error {
	bed, err := s.repo.GetBed(ctx, id)
	if err != nil {
		return err
	}
	if bed.Status != BedAvailable {
		return errValidation("bed %s is %s, not available", bed.Number, bed.Status)
	}
	return s.repo.SetBedStatus(ctx, id, BedAvailable, BedOccupied)
}

// ReleaseBed moves an occupied bed back to available on discharge.
func (s *Service) ReleaseBed(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetBedStatus(ctx, id, BedOccupied, BedAvailable)
}

// DailyRate returns the billing rate for the ward a bed belongs to.
func (s *Service) DailyRate(ctx context.Context, wardID uuid.UUID) (decimal.Decimal, error) {
	w, err := s.repo.GetWard(ctx, wardID)
	if err != nil {
		return decimal.Zero, err
	}
	return w.DailyRate, nil
}

func (s *Service) Occupancy(ctx context.Context) ([]*Occupancy, error) {
	return s.repo.Occupancy(ctx)
}
