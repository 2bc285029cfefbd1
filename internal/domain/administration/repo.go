package administration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *MedicationAdministration) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicationAdministration, error)
	UpdateNarrative(ctx context.Context, a *MedicationAdministration) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicationAdministration, int, error)
	ListByPrescription(ctx context.Context, prescriptionID uuid.UUID, limit, offset int) ([]*MedicationAdministration, int, error)
	ListByPatientSince(ctx context.Context, patientID uuid.UUID, since time.Time) ([]*MedicationAdministration, error)
}
