package prescription

import (
	"errors"
	"fmt"

	"github.com/careops/careops/internal/domain/alert"
)

var (
	ErrNotFound           = errors.New("prescription not found")
	ErrInvalidState       = errors.New("operation not permitted in current state")
	ErrNoRefillsRemaining = errors.New("no refills remaining")
	ErrVersionConflict    = errors.New("prescription was modified concurrently")
)

// RejectedError is returned when the safety evaluation blocks a create or
// activation. It carries the alerts so callers can show the clinician why
// without a second lookup.
type RejectedError struct {
	Alerts []*alert.InteractionAlert
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("prescription rejected: %d severe interaction alert(s)", len(e.Alerts))
}
