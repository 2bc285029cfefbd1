package allergy

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an allergy record. Allergies are
// inactivated rather than deleted so the audit trail survives.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusResolved Status = "RESOLVED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusResolved:
		return true
	}
	return false
}

// Severity describes how badly the patient reacts to the substance. This is
// distinct from alert severity; it is informational and does not gate anything.
var validSeverity = map[string]bool{
	"MILD":             true,
	"MODERATE":         true,
	"SEVERE":           true,
	"LIFE_THREATENING": true,
}

// PatientMedicationAllergy maps to the patient_medication_allergy table.
// Only ACTIVE records participate in interaction checks.
type PatientMedicationAllergy struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	Substance      string     `db:"substance" json:"substance"`
	SubstanceClass *string    `db:"substance_class" json:"substance_class,omitempty"`
	Severity       string     `db:"severity" json:"severity"`
	Status         Status     `db:"status" json:"status"`
	Reaction       *string    `db:"reaction" json:"reaction,omitempty"`
	Notes          *string    `db:"notes" json:"notes,omitempty"`
	OnsetDate      *time.Time `db:"onset_date" json:"onset_date,omitempty"`
	RecordedBy     string     `db:"recorded_by" json:"recorded_by"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
