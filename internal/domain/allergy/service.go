package allergy

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service is the allergy registry. It owns create/update/inactivate and the
// ActiveForPatient read the interaction evaluator depends on.
type Service struct {
	allergies Repository
	log       zerolog.Logger
}

func NewService(allergies Repository, log zerolog.Logger) *Service {
	return &Service{allergies: allergies, log: log}
}

func (s *Service) Create(ctx context.Context, a *PatientMedicationAllergy) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	a.Substance = strings.TrimSpace(a.Substance)
	if a.Substance == "" {
		return fmt.Errorf("substance is required")
	}
	if a.Severity != "" && !validSeverity[a.Severity] {
		return fmt.Errorf("invalid severity: %s", a.Severity)
	}
	if a.RecordedBy == "" {
		return fmt.Errorf("recorded_by is required")
	}
	if a.Status == "" {
		a.Status = StatusActive
	}
	if !a.Status.Valid() {
		return fmt.Errorf("invalid status: %s", a.Status)
	}

	if err := s.allergies.Create(ctx, a); err != nil {
		return err
	}
	s.log.Info().
		Str("allergy_id", a.ID.String()).
		Str("patient_id", a.PatientID.String()).
		Str("substance", a.Substance).
		Msg("allergy recorded")
	return nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*PatientMedicationAllergy, error) {
	return s.allergies.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, a *PatientMedicationAllergy) error {
	existing, err := s.allergies.GetByID(ctx, a.ID)
	if err != nil {
		return err
	}
	a.Substance = strings.TrimSpace(a.Substance)
	if a.Substance == "" {
		return fmt.Errorf("substance is required")
	}
	if a.Severity != "" && !validSeverity[a.Severity] {
		return fmt.Errorf("invalid severity: %s", a.Severity)
	}
	if a.Status == "" {
		a.Status = existing.Status
	}
	if !a.Status.Valid() {
		return fmt.Errorf("invalid status: %s", a.Status)
	}
	a.PatientID = existing.PatientID
	a.RecordedBy = existing.RecordedBy
	return s.allergies.Update(ctx, a)
}

// Inactivate retires an allergy record without deleting it.
func (s *Service) Inactivate(ctx context.Context, id uuid.UUID) (*PatientMedicationAllergy, error) {
	a, err := s.allergies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Status = StatusInactive
	if err := s.allergies.Update(ctx, a); err != nil {
		return nil, err
	}
	s.log.Info().Str("allergy_id", id.String()).Msg("allergy inactivated")
	return a, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*PatientMedicationAllergy, int, error) {
	return s.allergies.ListByPatient(ctx, patientID, limit, offset)
}

// ActiveForPatient returns only ACTIVE allergies. This is the read the
// interaction evaluator consumes.
func (s *Service) ActiveForPatient(ctx context.Context, patientID uuid.UUID) ([]*PatientMedicationAllergy, error) {
	return s.allergies.ListActiveByPatient(ctx, patientID)
}
