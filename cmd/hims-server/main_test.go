package main

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hims/hims/internal/domain/admission"
)

// in-memory admission repo for adapter tests
type fakeAdmissionRepo struct {
	byID map[uuid.UUID]*admission.Admission
}

func (r *fakeAdmissionRepo) Create(ctx context.Context, a *admission.Admission) error {
	r.byID[a.ID] = a
	return nil
}

func (r *fakeAdmissionRepo) GetByID(ctx context.Context, id uuid.UUID) (*admission.Admission, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, admission.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAdmissionRepo) Update(ctx context.Context, a *admission.Admission) error {
	r.byID[a.ID] = a
	return nil
}

func (r *fakeAdmissionRepo) List(ctx context.Context, f admission.ListFilter, limit, offset int) ([]*admission.Admission, int, error) {
	return nil, 0, nil
}

type fakeWardSource struct {
	ref      admission.WardRef
	released []uuid.UUID
}

func (w *fakeWardSource) Ward(ctx context.Context, wardID uuid.UUID) (*admission.WardRef, error) {
	return &w.ref, nil
}

func (w *fakeWardSource) AssignBed(ctx context.Context, bedID uuid.UUID) error { return nil }

func (w *fakeWardSource) ReleaseBed(ctx context.Context, bedID uuid.UUID) error {
	w.released = append(w.released, bedID)
	return nil
}

func TestAdmissionSourceAdapterInfo(t *testing.T) {
	wardID := uuid.New()
	ws := &fakeWardSource{ref: admission.WardRef{
		ID:        wardID,
		Name:      "General Ward",
		DailyRate: decimal.NewFromInt(1500),
	}}
	repo := &fakeAdmissionRepo{byID: map[uuid.UUID]*admission.Admission{}}
	svc := admission.NewService(repo, ws)

	admittedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	a := &admission.Admission{
		ID:          uuid.New(),
		MRN:         "MRN-1001",
		PatientName: "Asha Verma",
		Age:         42,
		Gender:      admission.GenderFemale,
		WardID:      wardID,
		BedID:       uuid.New(),
		AdmittedAt:  admittedAt,
		Status:      admission.StatusAdmitted,
	}
	repo.byID[a.ID] = a

	adapter := &admissionSourceAdapter{admissions: svc}
	info, err := adapter.Info(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.MRN != "MRN-1001" || info.PatientName != "Asha Verma" {
		t.Errorf("patient fields = %q/%q, want MRN-1001/Asha Verma", info.MRN, info.PatientName)
	}
	if info.WardName != "General Ward" || !info.DailyRate.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("ward fields = %q/%s, want General Ward/1500", info.WardName, info.DailyRate)
	}
	if !info.AdmittedAt.Equal(admittedAt) || info.DischargedAt != nil {
		t.Errorf("stay fields = %v/%v, want %v/nil", info.AdmittedAt, info.DischargedAt, admittedAt)
	}
}

func TestAdmissionSourceAdapterDischarge(t *testing.T) {
	wardID := uuid.New()
	ws := &fakeWardSource{ref: admission.WardRef{ID: wardID, Name: "ICU", DailyRate: decimal.NewFromInt(5000)}}
	repo := &fakeAdmissionRepo{byID: map[uuid.UUID]*admission.Admission{}}
	svc := admission.NewService(repo, ws)

	bedID := uuid.New()
	a := &admission.Admission{
		ID:          uuid.New(),
		MRN:         "MRN-2002",
		PatientName: "Ravi Nair",
		Age:         61,
		Gender:      admission.GenderMale,
		WardID:      wardID,
		BedID:       bedID,
		AdmittedAt:  time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Status:      admission.StatusAdmitted,
	}
	repo.byID[a.ID] = a

	adapter := &admissionSourceAdapter{admissions: svc}
	at := time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)
	if err := adapter.Discharge(context.Background(), a.ID, at); err != nil {
		t.Fatalf("Discharge: %v", err)
	}

	got := repo.byID[a.ID]
	if got.Status != admission.StatusDischarged || got.DischargedAt == nil {
		t.Fatalf("admission not discharged: status=%s dischargedAt=%v", got.Status, got.DischargedAt)
	}
	if len(ws.released) != 1 || ws.released[0] != bedID {
		t.Errorf("released beds = %v, want [%s]", ws.released, bedID)
	}
}
