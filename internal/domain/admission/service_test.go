package admission

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// -- Mock Repository --

type mockAdmissionRepo struct {
	items      map[uuid.UUID]*Admission
	failCreate bool
}

func newMockAdmissionRepo() *mockAdmissionRepo {
	return &mockAdmissionRepo{items: make(map[uuid.UUID]*Admission)}
}

func (m *mockAdmissionRepo) Create(_ context.Context, a *Admission) error {
	if m.failCreate {
		return fmt.Errorf("insert failed")
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = time.Now()
	m.items[a.ID] = a
	return nil
}

func (m *mockAdmissionRepo) GetByID(_ context.Context, id uuid.UUID) (*Admission, error) {
	a, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (m *mockAdmissionRepo) Update(_ context.Context, a *Admission) error {
	if _, ok := m.items[a.ID]; !ok {
		return ErrNotFound
	}
	m.items[a.ID] = a
	return nil
}

func (m *mockAdmissionRepo) List(_ context.Context, filter ListFilter, limit, offset int) ([]*Admission, int, error) {
	var result []*Admission
	for _, a := range m.items {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.WardID != uuid.Nil && a.WardID != filter.WardID {
			continue
		}
		result = append(result, a)
	}
	return result, len(result), nil
}

// -- Mock WardSource --

type mockWardSource struct {
	wards    map[uuid.UUID]*WardRef
	occupied map[uuid.UUID]bool
}

func newMockWardSource() *mockWardSource {
	return &mockWardSource{
		wards:    make(map[uuid.UUID]*WardRef),
		occupied: make(map[uuid.UUID]bool),
	}
}

func (m *mockWardSource) Ward(_ context.Context, wardID uuid.UUID) (*WardRef, error) {
	w, ok := m.wards[wardID]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return w, nil
}

func (m *mockWardSource) AssignBed(_ context.Context, bedID uuid.UUID) error {
	if m.occupied[bedID] {
		return fmt.Errorf("bed taken")
	}
	m.occupied[bedID] = true
	return nil
}

func (m *mockWardSource) ReleaseBed(_ context.Context, bedID uuid.UUID) error {
	if !m.occupied[bedID] {
		return fmt.Errorf("bed not occupied")
	}
	delete(m.occupied, bedID)
	return nil
}

// -- Helpers --

func newTestService() (*Service, *mockAdmissionRepo, *mockWardSource, uuid.UUID, uuid.UUID) {
	repo := newMockAdmissionRepo()
	wards := newMockWardSource()

	wardID := uuid.New()
	bedID := uuid.New()
	wards.wards[wardID] = &WardRef{ID: wardID, Name: "General Ward", DailyRate: decimal.NewFromInt(1500)}

	svc := NewService(repo, wards)
	return svc, repo, wards, wardID, bedID
}

func validAdmission(wardID, bedID uuid.UUID) *Admission {
	return &Admission{
		MRN:             "MRN-1001",
		PatientName:     "Asha Verma",
		Age:             42,
		Gender:          GenderFemale,
		WardID:          wardID,
		BedID:           bedID,
		AttendingDoctor: "Dr. Rao",
		Diagnosis:       "Dengue fever",
	}
}

// -- Tests --

func TestAdmit(t *testing.T) {
	svc, repo, wards, wardID, bedID := newTestService()

	a := validAdmission(wardID, bedID)
	if err := svc.Admit(context.Background(), a); err != nil {
		t.Fatalf("Admit failed: %v", err)
	}
	if a.Status != StatusAdmitted {
		t.Errorf("expected admitted status, got %s", a.Status)
	}
	if a.AdmittedAt.IsZero() {
		t.Error("admitted_at should default to now")
	}
	if !wards.occupied[bedID] {
		t.Error("bed should be occupied")
	}
	if len(repo.items) != 1 {
		t.Errorf("expected 1 stored admission, got %d", len(repo.items))
	}
}

func TestAdmitValidation(t *testing.T) {
	svc, _, _, wardID, bedID := newTestService()
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*Admission)
	}{
		{"empty mrn", func(a *Admission) { a.MRN = " " }},
		{"empty name", func(a *Admission) { a.PatientName = "" }},
		{"bad age", func(a *Admission) { a.Age = 200 }},
		{"bad gender", func(a *Admission) { a.Gender = "unknown" }},
		{"missing ward", func(a *Admission) { a.WardID = uuid.Nil }},
		{"missing bed", func(a *Admission) { a.BedID = uuid.Nil }},
	}
	for _, tc := range cases {
		a := validAdmission(wardID, bedID)
		tc.mutate(a)
		if err := svc.Admit(ctx, a); !IsValidation(err) {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestAdmitTakenBed(t *testing.T) {
	svc, _, wards, wardID, bedID := newTestService()
	wards.occupied[bedID] = true

	if err := svc.Admit(context.Background(), validAdmission(wardID, bedID)); err == nil {
		t.Fatal("expected error for occupied bed")
	}
}

func TestAdmitReleasesBedOnInsertFailure(t *testing.T) {
	svc, repo, wards, wardID, bedID := newTestService()
	repo.failCreate = true

	if err := svc.Admit(context.Background(), validAdmission(wardID, bedID)); err == nil {
		t.Fatal("expected insert failure")
	}
	if wards.occupied[bedID] {
		t.Error("bed should have been released after failed insert")
	}
}

func TestDischarge(t *testing.T) {
	svc, _, wards, wardID, bedID := newTestService()
	ctx := context.Background()

	a := validAdmission(wardID, bedID)
	if err := svc.Admit(ctx, a); err != nil {
		t.Fatalf("Admit failed: %v", err)
	}

	got, err := svc.Discharge(ctx, a.ID, time.Time{})
	if err != nil {
		t.Fatalf("Discharge failed: %v", err)
	}
	if got.Status != StatusDischarged || got.DischargedAt == nil {
		t.Errorf("expected discharged with timestamp, got %+v", got)
	}
	if wards.occupied[bedID] {
		t.Error("bed should be free after discharge")
	}

	// Second discharge must fail.
	if _, err := svc.Discharge(ctx, a.ID, time.Time{}); !IsValidation(err) {
		t.Errorf("expected validation error for double discharge, got %v", err)
	}
}

func TestDischargeBeforeAdmission(t *testing.T) {
	svc, _, _, wardID, bedID := newTestService()
	ctx := context.Background()

	a := validAdmission(wardID, bedID)
	a.AdmittedAt = time.Now()
	if err := svc.Admit(ctx, a); err != nil {
		t.Fatalf("Admit failed: %v", err)
	}

	if _, err := svc.Discharge(ctx, a.ID, a.AdmittedAt.Add(-time.Hour)); !IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestUpdateEditableFields(t *testing.T) {
	svc, _, _, wardID, bedID := newTestService()
	ctx := context.Background()

	a := validAdmission(wardID, bedID)
	if err := svc.Admit(ctx, a); err != nil {
		t.Fatalf("Admit failed: %v", err)
	}

	got, err := svc.Update(ctx, a.ID, &Admission{Diagnosis: "Dengue with warning signs"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Diagnosis != "Dengue with warning signs" {
		t.Errorf("diagnosis not updated: %s", got.Diagnosis)
	}
	if got.PatientName != "Asha Verma" {
		t.Errorf("untouched field changed: %s", got.PatientName)
	}
}

func TestListFilters(t *testing.T) {
	svc, _, wards, wardID, _ := newTestService()
	ctx := context.Background()

	otherWard := uuid.New()
	wards.wards[otherWard] = &WardRef{ID: otherWard, Name: "ICU", DailyRate: decimal.NewFromInt(5000)}

	first := validAdmission(wardID, uuid.New())
	second := validAdmission(otherWard, uuid.New())
	second.MRN = "MRN-1002"
	if err := svc.Admit(ctx, first); err != nil {
		t.Fatalf("Admit failed: %v", err)
	}
	if err := svc.Admit(ctx, second); err != nil {
		t.Fatalf("Admit failed: %v", err)
	}
	if _, err := svc.Discharge(ctx, second.ID, time.Time{}); err != nil {
		t.Fatalf("Discharge failed: %v", err)
	}

	admitted, total, err := svc.List(ctx, ListFilter{Status: StatusAdmitted}, 20, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || admitted[0].ID != first.ID {
		t.Errorf("expected only the first admission, got %d", total)
	}

	byWard, total, err := svc.List(ctx, ListFilter{WardID: otherWard}, 20, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || byWard[0].ID != second.ID {
		t.Errorf("expected only the ICU admission, got %d", total)
	}
}
