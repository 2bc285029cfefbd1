package prescription

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	// Update writes the full mutable field set, guarded by the version the
	// caller read. Returns ErrVersionConflict on a stale version and
	// increments Version on success.
	Update(ctx context.Context, p *Prescription) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Prescription, int, error)
	ListActiveByPatient(ctx context.Context, patientID uuid.UUID) ([]*Prescription, error)
}
