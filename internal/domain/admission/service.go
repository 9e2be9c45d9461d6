package admission

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WardRef is the slice of a ward the admission module needs.
type WardRef struct {
	ID        uuid.UUID
	Name      string
	DailyRate decimal.Decimal
}

// WardSource supplies ward details and bed state transitions. Implemented by
// an adapter over the ward service to avoid a package cycle.
type WardSource interface {
	Ward(ctx context.Context, wardID uuid.UUID) (*WardRef, error)
	AssignBed(ctx context.Context, bedID uuid.UUID) error
	ReleaseBed(ctx context.Context, bedID uuid.UUID) error
}

type Service struct {
	repo  Repository
	wards WardSource

	now func() time.Time
}

func NewService(repo Repository, wards WardSource) *Service {
	return &Service{
		repo:  repo,
		wards: wards,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Admit validates the admission, occupies the requested bed, and creates the
// record. The bed assignment happens first so a taken bed fails the admit.
func (s *Service) Admit(ctx context.Context, a *Admission) error {
	if strings.TrimSpace(a.MRN) == "" {
		return errValidation("mrn is required")
	}
	if strings.TrimSpace(a.PatientName) == "" {
		return errValidation("patient name is required")
	}
	if a.Age < 0 || a.Age > 150 {
		return errValidation("age out of range: %d", a.Age)
	}
	if _, err := ParseGender(string(a.Gender)); err != nil {
		return err
	}
	if a.WardID == uuid.Nil {
		return errValidation("ward_id is required")
	}
	if a.BedID == uuid.Nil {
		return errValidation("bed_id is required")
	}
	if _, err := s.wards.Ward(ctx, a.WardID); err != nil {
		return errValidation("unknown ward: %v", err)
	}

	if err := s.wards.AssignBed(ctx, a.BedID); err != nil {
		return err
	}

	a.MRN = strings.TrimSpace(a.MRN)
	a.PatientName = strings.TrimSpace(a.PatientName)
	if a.AdmittedAt.IsZero() {
		a.AdmittedAt = s.now()
	}
	a.Status = StatusAdmitted
	a.DischargedAt = nil

	if err := s.repo.Create(ctx, a); err != nil {
		// Undo the bed hold so a failed insert does not strand the bed.
		_ = s.wards.ReleaseBed(ctx, a.BedID)
		return err
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Admission, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Admission, int, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

// Update changes the editable demographic and clinical fields. Ward, bed and
// stay dates are managed by Admit and Discharge, not here.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch *Admission) (*Admission, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(patch.PatientName) != "" {
		a.PatientName = strings.TrimSpace(patch.PatientName)
	}
	if patch.Age != 0 {
		if patch.Age < 0 || patch.Age > 150 {
			return nil, errValidation("age out of range: %d", patch.Age)
		}
		a.Age = patch.Age
	}
	if patch.Gender != "" {
		if _, err := ParseGender(string(patch.Gender)); err != nil {
			return nil, err
		}
		a.Gender = patch.Gender
	}
	if strings.TrimSpace(patch.AttendingDoctor) != "" {
		a.AttendingDoctor = strings.TrimSpace(patch.AttendingDoctor)
	}
	if strings.TrimSpace(patch.Diagnosis) != "" {
		a.Diagnosis = strings.TrimSpace(patch.Diagnosis)
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Discharge closes the admission and frees its bed. Discharging an already
// discharged admission fails.
func (s *Service) Discharge(ctx context.Context, id uuid.UUID, at time.Time) (*Admission, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == StatusDischarged {
		return nil, errValidation("admission %s is already discharged", id)
	}
	if at.IsZero() {
		at = s.now()
	}
	if at.Before(a.AdmittedAt) {
		return nil, errValidation("discharge time precedes admission time")
	}

	a.Status = StatusDischarged
	a.DischargedAt = &at
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	if err := s.wards.ReleaseBed(ctx, a.BedID); err != nil {
		return nil, err
	}
	return a, nil
}

// WardFor resolves the ward details for an admission, used by billing to
// derive bed charges.
func (s *Service) WardFor(ctx context.Context, a *Admission) (*WardRef, error) {
	return s.wards.Ward(ctx, a.WardID)
}
