package prescription

import (
	"context"

	"github.com/google/uuid"

	"github.com/careops/careops/internal/domain/alert"
)

// SafetyResult is the outcome of one interaction evaluation. The alerts have
// already been persisted by the evaluator regardless of the caller's decision.
type SafetyResult struct {
	HasSevereInteractions bool                      `json:"has_severe_interactions"`
	Alerts                []*alert.InteractionAlert `json:"alerts"`
}

// SafetyChecker evaluates a candidate medication against a patient's active
// allergies and prescriptions. excludeID skips self-comparison when
// re-checking an existing prescription.
type SafetyChecker interface {
	Check(ctx context.Context, patientID uuid.UUID, medicationName string, excludeID *uuid.UUID) (*SafetyResult, error)
}
