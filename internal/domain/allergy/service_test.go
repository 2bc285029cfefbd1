package allergy

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type mockRepo struct {
	allergies map[uuid.UUID]*PatientMedicationAllergy
}

func newMockRepo() *mockRepo {
	return &mockRepo{allergies: make(map[uuid.UUID]*PatientMedicationAllergy)}
}

func (m *mockRepo) Create(_ context.Context, a *PatientMedicationAllergy) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	m.allergies[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*PatientMedicationAllergy, error) {
	a, ok := m.allergies[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, a *PatientMedicationAllergy) error {
	if _, ok := m.allergies[a.ID]; !ok {
		return ErrNotFound
	}
	cp := *a
	m.allergies[a.ID] = &cp
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*PatientMedicationAllergy, int, error) {
	var out []*PatientMedicationAllergy
	for _, a := range m.allergies {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) ListActiveByPatient(_ context.Context, patientID uuid.UUID) ([]*PatientMedicationAllergy, error) {
	var out []*PatientMedicationAllergy
	for _, a := range m.allergies {
		if a.PatientID == patientID && a.Status == StatusActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func newTestService() *Service {
	return NewService(newMockRepo(), zerolog.Nop())
}

func TestCreate_DefaultsToActive(t *testing.T) {
	svc := newTestService()
	a := &PatientMedicationAllergy{
		PatientID:  uuid.New(),
		Substance:  "Penicillin",
		Severity:   "SEVERE",
		RecordedBy: "nurse-1",
	}
	if err := svc.Create(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != StatusActive {
		t.Errorf("expected ACTIVE, got %s", a.Status)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := newTestService()
	base := PatientMedicationAllergy{
		PatientID:  uuid.New(),
		Substance:  "Penicillin",
		RecordedBy: "nurse-1",
	}

	noSubstance := base
	noSubstance.Substance = "  "
	if err := svc.Create(context.Background(), &noSubstance); err == nil {
		t.Error("expected error for blank substance")
	}

	badSeverity := base
	badSeverity.Severity = "AWFUL"
	if err := svc.Create(context.Background(), &badSeverity); err == nil {
		t.Error("expected error for invalid severity")
	}

	noRecorder := base
	noRecorder.RecordedBy = ""
	if err := svc.Create(context.Background(), &noRecorder); err == nil {
		t.Error("expected error for missing recorded_by")
	}
}

func TestInactivate_RemovesFromActiveSet(t *testing.T) {
	svc := newTestService()
	patientID := uuid.New()
	a := &PatientMedicationAllergy{PatientID: patientID, Substance: "Sulfa", RecordedBy: "nurse-1"}
	if err := svc.Create(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.Inactivate(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusInactive {
		t.Errorf("expected INACTIVE, got %s", got.Status)
	}

	active, err := svc.ActiveForPatient(context.Background(), patientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("expected no active allergies, got %d", len(active))
	}
}

func TestInactivate_UnknownID(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Inactivate(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdate_PreservesPatientAndRecorder(t *testing.T) {
	svc := newTestService()
	a := &PatientMedicationAllergy{PatientID: uuid.New(), Substance: "Aspirin", RecordedBy: "nurse-1"}
	if err := svc.Create(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	patch := &PatientMedicationAllergy{ID: a.ID, PatientID: uuid.New(), Substance: "Aspirin", Severity: "MILD", RecordedBy: "someone-else"}
	if err := svc.Update(context.Background(), patch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if patch.PatientID != a.PatientID {
		t.Error("update must not reassign the patient")
	}
	if patch.RecordedBy != "nurse-1" {
		t.Error("update must not change recorded_by")
	}
}
