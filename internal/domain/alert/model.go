package alert

import (
	"time"

	"github.com/google/uuid"
)

// Severity orders interaction alerts from most to least dangerous.
type Severity string

const (
	SeverityContraindication Severity = "CONTRAINDICATION"
	SeveritySevere           Severity = "SEVERE"
	SeverityModerate         Severity = "MODERATE"
	SeverityMild             Severity = "MILD"
	SeverityUnknown          Severity = "UNKNOWN"
)

// Rank returns the ordering of a severity; higher is more dangerous.
func (s Severity) Rank() int {
	switch s {
	case SeverityContraindication:
		return 4
	case SeveritySevere:
		return 3
	case SeverityModerate:
		return 2
	case SeverityMild:
		return 1
	case SeverityUnknown:
		return 0
	}
	return 0
}

// Blocks reports whether this severity gates a workflow action on its own.
func (s Severity) Blocks() bool {
	switch s {
	case SeverityContraindication, SeveritySevere:
		return true
	case SeverityModerate, SeverityMild, SeverityUnknown:
		return false
	}
	return false
}

func (s Severity) Valid() bool {
	switch s {
	case SeverityContraindication, SeveritySevere, SeverityModerate, SeverityMild, SeverityUnknown:
		return true
	}
	return false
}

// InteractionType classifies what kind of finding produced an alert.
type InteractionType string

const (
	TypeDrugAllergy      InteractionType = "DRUG_ALLERGY"
	TypeDrugDrug         InteractionType = "DRUG_DRUG"
	TypeDuplicateTherapy InteractionType = "DUPLICATE_THERAPY"
	TypeDrugCondition    InteractionType = "DRUG_CONDITION"
	TypeDoseCheck        InteractionType = "DOSE_CHECK"
)

func (t InteractionType) Valid() bool {
	switch t {
	case TypeDrugAllergy, TypeDrugDrug, TypeDuplicateTherapy, TypeDrugCondition, TypeDoseCheck:
		return true
	}
	return false
}

// Status is the lifecycle state of an alert.
type Status string

const (
	StatusActive       Status = "ACTIVE"
	StatusAcknowledged Status = "ACKNOWLEDGED"
	StatusOverridden   Status = "OVERRIDDEN"
	StatusResolved     Status = "RESOLVED"
)

// CanTransitionTo reports whether the lifecycle permits moving to next.
// Alerts move out of ACTIVE exactly once and then freeze.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusActive:
		return next == StatusAcknowledged || next == StatusOverridden || next == StatusResolved
	case StatusAcknowledged, StatusOverridden, StatusResolved:
		return false
	}
	return false
}

// InteractionAlert maps to the interaction_alert table. Alerts are the audit
// trail of the safety engine and are never deleted.
type InteractionAlert struct {
	ID                        uuid.UUID       `db:"id" json:"id"`
	PatientID                 uuid.UUID       `db:"patient_id" json:"patient_id"`
	InteractionType           InteractionType `db:"interaction_type" json:"interaction_type"`
	Severity                  Severity        `db:"severity" json:"severity"`
	Status                    Status          `db:"status" json:"status"`
	Description               string          `db:"description" json:"description"`
	Evidence                  *string         `db:"evidence" json:"evidence,omitempty"`
	Recommendation            *string         `db:"recommendation" json:"recommendation,omitempty"`
	RequiresAcknowledgment    bool            `db:"requires_acknowledgment" json:"requires_acknowledgment"`
	PrescriptionID            *uuid.UUID      `db:"prescription_id" json:"prescription_id,omitempty"`
	ConflictingPrescriptionID *uuid.UUID      `db:"conflicting_prescription_id" json:"conflicting_prescription_id,omitempty"`
	AcknowledgedBy            *string         `db:"acknowledged_by" json:"acknowledged_by,omitempty"`
	AcknowledgedAt            *time.Time      `db:"acknowledged_at" json:"acknowledged_at,omitempty"`
	OverriddenBy              *string         `db:"overridden_by" json:"overridden_by,omitempty"`
	OverrideReason            *string         `db:"override_reason" json:"override_reason,omitempty"`
	OverriddenAt              *time.Time      `db:"overridden_at" json:"overridden_at,omitempty"`
	ResolvedBy                *string         `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt                *time.Time      `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt                 time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt                 time.Time       `db:"updated_at" json:"updated_at"`
}

// IsSevereFinding reports whether the alert still counts toward the "severe
// interaction present" gate: a blocking severity that no clinician has
// overridden yet.
func (a *InteractionAlert) IsSevereFinding() bool {
	return a.Severity.Blocks() && a.Status != StatusOverridden
}
