package administration

import (
	"time"

	"github.com/google/uuid"
)

// MedicationAdministration maps to the medication_administration table.
// Records are append-only dosing events; once written, only the narrative
// fields may change.
type MedicationAdministration struct {
	ID              uuid.UUID `db:"id" json:"id"`
	PrescriptionID  uuid.UUID `db:"prescription_id" json:"prescription_id"`
	PatientID       uuid.UUID `db:"patient_id" json:"patient_id"`
	AdministeredBy  string    `db:"administered_by" json:"administered_by"`
	AdministeredAt  time.Time `db:"administered_at" json:"administered_at"`
	DoseGiven       string    `db:"dose_given" json:"dose_given"`
	Route           *string   `db:"route" json:"route,omitempty"`
	Notes           *string   `db:"notes" json:"notes,omitempty"`
	RefusalReason   *string   `db:"refusal_reason" json:"refusal_reason,omitempty"`
	OmissionReason  *string   `db:"omission_reason" json:"omission_reason,omitempty"`
	AdverseReaction *string   `db:"adverse_reaction" json:"adverse_reaction,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// NarrativePatch enumerates the fields Update may change on an existing
// record. Identity and dosing fields are immutable.
type NarrativePatch struct {
	Notes           *string `json:"notes,omitempty"`
	RefusalReason   *string `json:"refusal_reason,omitempty"`
	OmissionReason  *string `json:"omission_reason,omitempty"`
	AdverseReaction *string `json:"adverse_reaction,omitempty"`
}
