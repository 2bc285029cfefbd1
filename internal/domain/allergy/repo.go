package allergy

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *PatientMedicationAllergy) error
	GetByID(ctx context.Context, id uuid.UUID) (*PatientMedicationAllergy, error)
	Update(ctx context.Context, a *PatientMedicationAllergy) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*PatientMedicationAllergy, int, error)
	ListActiveByPatient(ctx context.Context, patientID uuid.UUID) ([]*PatientMedicationAllergy, error)
}
