package administration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careops/careops/internal/domain/prescription"
	"github.com/careops/careops/internal/platform/metrics"
)

const defaultHistoryDays = 30

// PrescriptionSource supplies the prescription an administration is recorded
// against.
type PrescriptionSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*prescription.Prescription, error)
}

// Service records dosing events. A record may only be created while the
// prescription is ACTIVE and for the prescription's own patient.
type Service struct {
	records       Repository
	prescriptions PrescriptionSource
	log           zerolog.Logger
	mc            *metrics.Collector
}

func NewService(records Repository, prescriptions PrescriptionSource, log zerolog.Logger) *Service {
	return &Service{records: records, prescriptions: prescriptions, log: log}
}

// SetCollector attaches an optional metrics collector.
func (s *Service) SetCollector(mc *metrics.Collector) { s.mc = mc }

func (s *Service) Create(ctx context.Context, a *MedicationAdministration) error {
	if a.PrescriptionID == uuid.Nil {
		return fmt.Errorf("prescription_id is required")
	}
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if a.AdministeredBy == "" {
		return fmt.Errorf("administered_by is required")
	}
	if a.DoseGiven == "" {
		return fmt.Errorf("dose_given is required")
	}
	if a.AdministeredAt.IsZero() {
		a.AdministeredAt = time.Now().UTC()
	}

	rx, err := s.prescriptions.GetByID(ctx, a.PrescriptionID)
	if err != nil {
		return err
	}
	if rx.Status != prescription.StatusActive {
		return fmt.Errorf("record administration against prescription in status %s: %w", rx.Status, ErrPrescriptionNotActive)
	}
	if rx.PatientID != a.PatientID {
		return ErrPatientMismatch
	}

	if err := s.records.Create(ctx, a); err != nil {
		return err
	}
	s.log.Info().
		Str("administration_id", a.ID.String()).
		Str("prescription_id", a.PrescriptionID.String()).
		Str("patient_id", a.PatientID.String()).
		Str("administered_by", a.AdministeredBy).
		Msg("administration recorded")
	if s.mc != nil {
		s.mc.AdministrationsTotal.Inc()
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*MedicationAdministration, error) {
	return s.records.GetByID(ctx, id)
}

// Update applies narrative-only changes. Identity and dosing fields on an
// existing record never change.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch NarrativePatch) (*MedicationAdministration, error) {
	a, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Notes != nil {
		a.Notes = patch.Notes
	}
	if patch.RefusalReason != nil {
		a.RefusalReason = patch.RefusalReason
	}
	if patch.OmissionReason != nil {
		a.OmissionReason = patch.OmissionReason
	}
	if patch.AdverseReaction != nil {
		a.AdverseReaction = patch.AdverseReaction
	}
	if err := s.records.UpdateNarrative(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicationAdministration, int, error) {
	return s.records.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByPrescription(ctx context.Context, prescriptionID uuid.UUID, limit, offset int) ([]*MedicationAdministration, int, error) {
	return s.records.ListByPrescription(ctx, prescriptionID, limit, offset)
}

// HistoryWindow returns the patient's administrations inside the last
// `days` days, newest first. Non-positive days falls back to the 30-day
// default.
func (s *Service) HistoryWindow(ctx context.Context, patientID uuid.UUID, days int) ([]*MedicationAdministration, error) {
	if days <= 0 {
		days = defaultHistoryDays
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	return s.records.ListByPatientSince(ctx, patientID, since)
}
