package interaction

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careops/careops/internal/domain/alert"
	"github.com/careops/careops/internal/domain/allergy"
	"github.com/careops/careops/internal/domain/prescription"
	"github.com/careops/careops/internal/platform/metrics"
)

// AllergySource supplies the patient's ACTIVE allergies.
type AllergySource interface {
	ActiveForPatient(ctx context.Context, patientID uuid.UUID) ([]*allergy.PatientMedicationAllergy, error)
}

// PrescriptionSource supplies the patient's ACTIVE prescriptions.
type PrescriptionSource interface {
	ListActiveByPatient(ctx context.Context, patientID uuid.UUID) ([]*prescription.Prescription, error)
}

// AlertWriter persists alerts as they are found. Alerts are written before
// the evaluation returns so they survive a caller's subsequent rejection.
type AlertWriter interface {
	Create(ctx context.Context, a *alert.InteractionAlert) error
}

// Evaluator runs the three safety checks (allergy, drug-drug, duplicate
// therapy) against a candidate medication. It implements
// prescription.SafetyChecker.
type Evaluator struct {
	allergies     AllergySource
	prescriptions PrescriptionSource
	alerts        AlertWriter
	rules         RuleSource
	log           zerolog.Logger
	mc            *metrics.Collector
}

func NewEvaluator(allergies AllergySource, prescriptions PrescriptionSource, alerts AlertWriter, rules RuleSource, log zerolog.Logger) *Evaluator {
	return &Evaluator{
		allergies:     allergies,
		prescriptions: prescriptions,
		alerts:        alerts,
		rules:         rules,
		log:           log,
	}
}

// SetCollector attaches an optional metrics collector.
func (e *Evaluator) SetCollector(mc *metrics.Collector) { e.mc = mc }

// Check evaluates medicationName against the patient's active allergies and
// prescriptions. excludeID skips self-comparison when re-checking an
// existing prescription. Every alert is persisted before Check returns.
func (e *Evaluator) Check(ctx context.Context, patientID uuid.UUID, medicationName string, excludeID *uuid.UUID) (*prescription.SafetyResult, error) {
	medicationName = strings.TrimSpace(medicationName)
	if medicationName == "" {
		return nil, fmt.Errorf("medication name is required")
	}
	if e.mc != nil {
		e.mc.EvaluationsTotal.Inc()
	}

	res := &prescription.SafetyResult{Alerts: []*alert.InteractionAlert{}}

	if err := e.checkAllergies(ctx, patientID, medicationName, res); err != nil {
		return nil, err
	}

	active, err := e.prescriptions.ListActiveByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("load active prescriptions: %w", err)
	}
	if err := e.checkDrugDrug(ctx, patientID, medicationName, active, excludeID, res); err != nil {
		return nil, err
	}
	if err := e.checkDuplicateTherapy(ctx, patientID, medicationName, active, excludeID, res); err != nil {
		return nil, err
	}

	e.log.Info().
		Str("patient_id", patientID.String()).
		Str("medication", medicationName).
		Int("alerts", len(res.Alerts)).
		Bool("severe", res.HasSevereInteractions).
		Msg("interaction check completed")
	return res, nil
}

func (e *Evaluator) checkAllergies(ctx context.Context, patientID uuid.UUID, medicationName string, res *prescription.SafetyResult) error {
	allergies, err := e.allergies.ActiveForPatient(ctx, patientID)
	if err != nil {
		return fmt.Errorf("load allergies: %w", err)
	}

	medLower := strings.ToLower(medicationName)
	for _, a := range allergies {
		matched := strings.Contains(medLower, strings.ToLower(a.Substance))
		if !matched && a.SubstanceClass != nil && *a.SubstanceClass != "" {
			matched = strings.Contains(medLower, strings.ToLower(*a.SubstanceClass))
		}
		if !matched {
			continue
		}

		evidence := fmt.Sprintf("Patient has a documented %s allergy to %s", a.Severity, a.Substance)
		recommendation := "Do not administer. Select an alternative agent."
		al := &alert.InteractionAlert{
			PatientID:              patientID,
			InteractionType:        alert.TypeDrugAllergy,
			Severity:               alert.SeverityContraindication,
			Description:            fmt.Sprintf("%s conflicts with the patient's %s allergy", medicationName, a.Substance),
			Evidence:               &evidence,
			Recommendation:         &recommendation,
			RequiresAcknowledgment: true,
		}
		if err := e.persist(ctx, al, res); err != nil {
			return err
		}
		if al.IsSevereFinding() {
			res.HasSevereInteractions = true
		}
	}
	return nil
}

func (e *Evaluator) checkDrugDrug(ctx context.Context, patientID uuid.UUID, medicationName string, active []*prescription.Prescription, excludeID *uuid.UUID, res *prescription.SafetyResult) error {
	for _, existing := range active {
		if excludeID != nil && existing.ID == *excludeID {
			continue
		}
		if !e.rules.InteractsWith(medicationName, existing.MedicationName) {
			continue
		}

		sev, known := e.rules.SeverityFor(medicationName, existing.MedicationName)
		if !known {
			sev = alert.SeverityMild
		}

		conflictID := existing.ID
		evidence := fmt.Sprintf("%s and %s are a known interacting pair", medicationName, existing.MedicationName)
		recommendation := "Review the combination and monitor the patient."
		if sev.Blocks() {
			recommendation = "Avoid this combination or override with documented justification."
		}
		al := &alert.InteractionAlert{
			PatientID:                 patientID,
			InteractionType:           alert.TypeDrugDrug,
			Severity:                  sev,
			Description:               fmt.Sprintf("%s interacts with active prescription %s", medicationName, existing.MedicationName),
			Evidence:                  &evidence,
			Recommendation:            &recommendation,
			RequiresAcknowledgment:    sev.Blocks(),
			ConflictingPrescriptionID: &conflictID,
		}
		if err := e.persist(ctx, al, res); err != nil {
			return err
		}
		if al.IsSevereFinding() {
			res.HasSevereInteractions = true
		}
	}
	return nil
}

func (e *Evaluator) checkDuplicateTherapy(ctx context.Context, patientID uuid.UUID, medicationName string, active []*prescription.Prescription, excludeID *uuid.UUID, res *prescription.SafetyResult) error {
	medLower := strings.ToLower(medicationName)
	for _, existing := range active {
		if excludeID != nil && existing.ID == *excludeID {
			continue
		}
		if strings.ToLower(existing.MedicationName) != medLower {
			continue
		}

		conflictID := existing.ID
		evidence := fmt.Sprintf("Prescription %s already covers %s", existing.ID, existing.MedicationName)
		recommendation := "Confirm the duplicate order is intentional."
		al := &alert.InteractionAlert{
			PatientID:                 patientID,
			InteractionType:           alert.TypeDuplicateTherapy,
			Severity:                  alert.SeverityModerate,
			Description:               fmt.Sprintf("Duplicate therapy: patient already has an active prescription for %s", existing.MedicationName),
			Evidence:                  &evidence,
			Recommendation:            &recommendation,
			RequiresAcknowledgment:    true,
			ConflictingPrescriptionID: &conflictID,
		}
		if err := e.persist(ctx, al, res); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) persist(ctx context.Context, al *alert.InteractionAlert, res *prescription.SafetyResult) error {
	if err := e.alerts.Create(ctx, al); err != nil {
		return fmt.Errorf("persist alert: %w", err)
	}
	res.Alerts = append(res.Alerts, al)
	return nil
}
