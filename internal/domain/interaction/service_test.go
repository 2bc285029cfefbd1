package interaction

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careops/careops/internal/domain/alert"
	"github.com/careops/careops/internal/domain/allergy"
	"github.com/careops/careops/internal/domain/prescription"
)

type mockAllergySource struct {
	allergies []*allergy.PatientMedicationAllergy
}

func (m *mockAllergySource) ActiveForPatient(_ context.Context, _ uuid.UUID) ([]*allergy.PatientMedicationAllergy, error) {
	return m.allergies, nil
}

type mockPrescriptionSource struct {
	active []*prescription.Prescription
}

func (m *mockPrescriptionSource) ListActiveByPatient(_ context.Context, _ uuid.UUID) ([]*prescription.Prescription, error) {
	return m.active, nil
}

type mockAlertWriter struct {
	created []*alert.InteractionAlert
}

func (m *mockAlertWriter) Create(_ context.Context, a *alert.InteractionAlert) error {
	a.ID = uuid.New()
	a.Status = alert.StatusActive
	m.created = append(m.created, a)
	return nil
}

func newTestEvaluator(allergies []*allergy.PatientMedicationAllergy, active []*prescription.Prescription) (*Evaluator, *mockAlertWriter) {
	writer := &mockAlertWriter{}
	ev := NewEvaluator(
		&mockAllergySource{allergies: allergies},
		&mockPrescriptionSource{active: active},
		writer,
		DefaultRules(),
		zerolog.Nop(),
	)
	return ev, writer
}

func activeRx(medication string) *prescription.Prescription {
	return &prescription.Prescription{
		ID:             uuid.New(),
		PatientID:      uuid.New(),
		MedicationName: medication,
		Status:         prescription.StatusActive,
	}
}

func TestCheck_NoFindings(t *testing.T) {
	ev, writer := newTestEvaluator(nil, nil)

	res, err := ev.Check(context.Background(), uuid.New(), "Amoxicillin", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.HasSevereInteractions {
		t.Error("expected no severe interactions")
	}
	if len(res.Alerts) != 0 {
		t.Errorf("expected no alerts, got %d", len(res.Alerts))
	}
	if len(writer.created) != 0 {
		t.Errorf("expected nothing persisted, got %d", len(writer.created))
	}
}

func TestCheck_AllergyMatchIsContraindication(t *testing.T) {
	ev, writer := newTestEvaluator([]*allergy.PatientMedicationAllergy{
		{Substance: "Penicillin", Severity: "SEVERE", Status: allergy.StatusActive},
	}, nil)

	res, err := ev.Check(context.Background(), uuid.New(), "Penicillin V 500mg", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.HasSevereInteractions {
		t.Error("allergy match must set has_severe_interactions")
	}
	if len(res.Alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(res.Alerts))
	}
	a := res.Alerts[0]
	if a.InteractionType != alert.TypeDrugAllergy {
		t.Errorf("expected DRUG_ALLERGY, got %s", a.InteractionType)
	}
	if a.Severity != alert.SeverityContraindication {
		t.Errorf("expected CONTRAINDICATION, got %s", a.Severity)
	}
	if !a.RequiresAcknowledgment {
		t.Error("allergy alert must require acknowledgment")
	}
	if len(writer.created) != 1 {
		t.Error("alert must be persisted before Check returns")
	}
}

func TestCheck_AllergySubstanceClassMatch(t *testing.T) {
	class := "sulfonamide"
	ev, _ := newTestEvaluator([]*allergy.PatientMedicationAllergy{
		{Substance: "Bactrim", SubstanceClass: &class, Status: allergy.StatusActive},
	}, nil)

	res, err := ev.Check(context.Background(), uuid.New(), "Sulfonamide antibiotic", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.HasSevereInteractions {
		t.Error("substance class match must block")
	}
}

func TestCheck_SeverePairBlocks(t *testing.T) {
	ev, _ := newTestEvaluator(nil, []*prescription.Prescription{activeRx("Warfarin")})

	res, err := ev.Check(context.Background(), uuid.New(), "Fluconazole", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.HasSevereInteractions {
		t.Error("warfarin/fluconazole must block")
	}
	if len(res.Alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(res.Alerts))
	}
	a := res.Alerts[0]
	if a.InteractionType != alert.TypeDrugDrug || a.Severity != alert.SeveritySevere {
		t.Errorf("expected severe DRUG_DRUG, got %s %s", a.Severity, a.InteractionType)
	}
	if a.ConflictingPrescriptionID == nil {
		t.Error("drug-drug alert must reference the conflicting prescription")
	}
}

func TestCheck_MildPairAlertsWithoutBlocking(t *testing.T) {
	ev, writer := newTestEvaluator(nil, []*prescription.Prescription{activeRx("Warfarin")})

	res, err := ev.Check(context.Background(), uuid.New(), "Aspirin", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.HasSevereInteractions {
		t.Error("mild pair must not block")
	}
	if len(res.Alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(res.Alerts))
	}
	if res.Alerts[0].Severity != alert.SeverityMild {
		t.Errorf("pair without a severity entry defaults to MILD, got %s", res.Alerts[0].Severity)
	}
	if res.Alerts[0].RequiresAcknowledgment {
		t.Error("mild alert must not require acknowledgment")
	}
	if len(writer.created) != 1 {
		t.Error("non-blocking alert must still be persisted")
	}
}

func TestCheck_ModeratePairUsesSeverityEntry(t *testing.T) {
	ev, _ := newTestEvaluator(nil, []*prescription.Prescription{activeRx("Warfarin")})

	res, err := ev.Check(context.Background(), uuid.New(), "Ibuprofen", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.HasSevereInteractions {
		t.Error("moderate pair must not block")
	}
	if len(res.Alerts) != 1 || res.Alerts[0].Severity != alert.SeverityModerate {
		t.Fatalf("expected one MODERATE alert, got %+v", res.Alerts)
	}
}

func TestCheck_DuplicateTherapy(t *testing.T) {
	existing := activeRx("Metformin")
	ev, _ := newTestEvaluator(nil, []*prescription.Prescription{existing})

	res, err := ev.Check(context.Background(), uuid.New(), "metformin", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.HasSevereInteractions {
		t.Error("duplicate therapy must not block on its own")
	}
	if len(res.Alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(res.Alerts))
	}
	a := res.Alerts[0]
	if a.InteractionType != alert.TypeDuplicateTherapy || a.Severity != alert.SeverityModerate {
		t.Errorf("expected MODERATE DUPLICATE_THERAPY, got %s %s", a.Severity, a.InteractionType)
	}
	if !a.RequiresAcknowledgment {
		t.Error("duplicate therapy alert must require acknowledgment")
	}
}

func TestCheck_ExcludeSkipsSelf(t *testing.T) {
	existing := activeRx("Warfarin")
	ev, _ := newTestEvaluator(nil, []*prescription.Prescription{existing})

	res, err := ev.Check(context.Background(), uuid.New(), "Warfarin", &existing.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Alerts) != 0 {
		t.Errorf("self-comparison must be skipped, got %d alerts", len(res.Alerts))
	}
}

func TestCheck_IndependentFindingsAccumulate(t *testing.T) {
	ev, _ := newTestEvaluator(
		[]*allergy.PatientMedicationAllergy{{Substance: "Aspirin", Status: allergy.StatusActive}},
		[]*prescription.Prescription{activeRx("Warfarin"), activeRx("Aspirin")},
	)

	res, err := ev.Check(context.Background(), uuid.New(), "Aspirin", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// allergy contraindication + drug-drug with warfarin + duplicate therapy
	if len(res.Alerts) != 3 {
		t.Fatalf("expected 3 alerts, got %d", len(res.Alerts))
	}
	if !res.HasSevereInteractions {
		t.Error("allergy finding must set has_severe_interactions")
	}
}

func TestCheck_BlankMedication(t *testing.T) {
	ev, _ := newTestEvaluator(nil, nil)
	if _, err := ev.Check(context.Background(), uuid.New(), "   ", nil); err == nil {
		t.Error("expected error for blank medication name")
	}
}
