package administration

import "errors"

var (
	ErrNotFound              = errors.New("administration record not found")
	ErrPrescriptionNotActive = errors.New("prescription is not active")
	ErrPatientMismatch       = errors.New("administration patient does not match prescription patient")
)
