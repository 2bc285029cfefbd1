package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Status is the prescription lifecycle state. CANCELLED and EXPIRED are
// terminal.
type Status string

const (
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusActive          Status = "ACTIVE"
	StatusCancelled       Status = "CANCELLED"
	StatusExpired         Status = "EXPIRED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPendingApproval, StatusActive, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// CanTransitionTo encodes the legal lifecycle edges. Refill is not an edge;
// it keeps the prescription ACTIVE.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPendingApproval:
		return next == StatusActive || next == StatusCancelled
	case StatusActive:
		return next == StatusCancelled || next == StatusExpired
	case StatusCancelled, StatusExpired:
		return false
	}
	return false
}

// Terminal reports whether no further lifecycle transition is permitted.
func (s Status) Terminal() bool {
	switch s {
	case StatusCancelled, StatusExpired:
		return true
	case StatusPendingApproval, StatusActive:
		return false
	}
	return false
}

// Prescription maps to the prescription table. The version column backs
// optimistic locking on status and refill mutations.
type Prescription struct {
	ID                       uuid.UUID  `db:"id" json:"id"`
	PatientID                uuid.UUID  `db:"patient_id" json:"patient_id"`
	PrescriberID             string     `db:"prescriber_id" json:"prescriber_id"`
	MedicationName           string     `db:"medication_name" json:"medication_name"`
	Strength                 string     `db:"strength" json:"strength"`
	DosageForm               string     `db:"dosage_form" json:"dosage_form"`
	Route                    string     `db:"route" json:"route"`
	Frequency                string     `db:"frequency" json:"frequency"`
	Quantity                 int        `db:"quantity" json:"quantity"`
	Instructions             *string    `db:"instructions" json:"instructions,omitempty"`
	RefillsAllowed           int        `db:"refills_allowed" json:"refills_allowed"`
	RefillsRemaining         int        `db:"refills_remaining" json:"refills_remaining"`
	Status                   Status     `db:"status" json:"status"`
	ContraindicationsChecked bool       `db:"contraindications_checked" json:"contraindications_checked"`
	ApprovedBy               *string    `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt               *time.Time `db:"approved_at" json:"approved_at,omitempty"`
	CancelledBy              *string    `db:"cancelled_by" json:"cancelled_by,omitempty"`
	CancelReason             *string    `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CancelledAt              *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	Version                  int        `db:"version" json:"version"`
	CreatedAt                time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt                time.Time  `db:"updated_at" json:"updated_at"`
}

// ListFilter enumerates the supported prescription query predicates. Zero
// values mean "not filtered".
type ListFilter struct {
	PatientID    uuid.UUID
	PrescriberID string
	Status       Status
	Medication   string
}

// UpdatePatch enumerates the fields UpdatePrescription may change. Nil
// pointers leave the current value alone.
type UpdatePatch struct {
	MedicationName *string `json:"medication_name,omitempty"`
	Strength       *string `json:"strength,omitempty"`
	DosageForm     *string `json:"dosage_form,omitempty"`
	Route          *string `json:"route,omitempty"`
	Frequency      *string `json:"frequency,omitempty"`
	Quantity       *int    `json:"quantity,omitempty"`
	Instructions   *string `json:"instructions,omitempty"`
	RefillsAllowed *int    `json:"refills_allowed,omitempty"`
	Status         *Status `json:"status,omitempty"`
}
