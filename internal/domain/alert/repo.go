package alert

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *InteractionAlert) error
	GetByID(ctx context.Context, id uuid.UUID) (*InteractionAlert, error)
	// Update applies a lifecycle transition. Implementations guard on the
	// stored status still being ACTIVE and return ErrNotActive when another
	// transition won the race.
	Update(ctx context.Context, a *InteractionAlert) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*InteractionAlert, int, error)
	ListActiveByPatient(ctx context.Context, patientID uuid.UUID) ([]*InteractionAlert, error)
}
