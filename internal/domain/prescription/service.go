package prescription

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careops/careops/internal/platform/metrics"
	"github.com/careops/careops/pkg/keymutex"
)

// TxRunner runs fn atomically. Wiring typically wraps db.WithTx so the
// repository calls made by fn share one transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// Service owns the prescription state machine. The safety checker is invoked
// at the two points where new exposure is introduced: creation and
// activation. Evaluate-then-write sequences are serialized per patient, and
// status/refill read-modify-writes per prescription.
type Service struct {
	prescriptions Repository
	checker       SafetyChecker
	patientMu     *keymutex.KeyMutex
	rxMu          *keymutex.KeyMutex
	tx            TxRunner
	log           zerolog.Logger
	mc            *metrics.Collector
}

func NewService(prescriptions Repository, checker SafetyChecker, log zerolog.Logger) *Service {
	return &Service{
		prescriptions: prescriptions,
		checker:       checker,
		patientMu:     keymutex.New(),
		rxMu:          keymutex.New(),
		tx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		},
		log: log,
	}
}

// SetCollector attaches an optional metrics collector.
func (s *Service) SetCollector(mc *metrics.Collector) { s.mc = mc }

// SetTxRunner attaches a transaction runner for the evaluate-then-persist
// sequence in Create. Without one the sequence runs on plain connections.
func (s *Service) SetTxRunner(tx TxRunner) { s.tx = tx }

func validateNew(p *Prescription) error {
	if p.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if p.PrescriberID == "" {
		return fmt.Errorf("prescriber_id is required")
	}
	p.MedicationName = strings.TrimSpace(p.MedicationName)
	if p.MedicationName == "" {
		return fmt.Errorf("medication_name is required")
	}
	if p.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	if p.RefillsAllowed < 0 {
		return fmt.Errorf("refills_allowed must not be negative")
	}
	return nil
}

// Create evaluates the candidate medication and, when no severe finding
// blocks it, persists the prescription in PENDING_APPROVAL. The safety
// alerts are already persisted when a RejectedError is returned.
func (s *Service) Create(ctx context.Context, p *Prescription) (*Prescription, error) {
	if err := validateNew(p); err != nil {
		return nil, err
	}

	patientKey := p.PatientID.String()
	s.patientMu.Lock(patientKey)
	defer s.patientMu.Unlock(patientKey)

	// The evaluation and the insert share one transaction. A severe finding
	// still commits, so the alerts it wrote survive the rejection.
	var rejected *RejectedError
	err := s.tx(ctx, func(ctx context.Context) error {
		res, err := s.checker.Check(ctx, p.PatientID, p.MedicationName, nil)
		if err != nil {
			return fmt.Errorf("safety check: %w", err)
		}
		if res.HasSevereInteractions {
			rejected = &RejectedError{Alerts: res.Alerts}
			return nil
		}

		p.Status = StatusPendingApproval
		p.RefillsRemaining = p.RefillsAllowed
		p.ContraindicationsChecked = true
		return s.prescriptions.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	if rejected != nil {
		s.log.Warn().
			Str("patient_id", p.PatientID.String()).
			Str("medication", p.MedicationName).
			Int("alerts", len(rejected.Alerts)).
			Msg("prescription creation blocked by severe interaction")
		if s.mc != nil {
			s.mc.BlockedTotal.WithLabelValues("create").Inc()
		}
		return nil, rejected
	}
	s.log.Info().
		Str("prescription_id", p.ID.String()).
		Str("patient_id", p.PatientID.String()).
		Str("medication", p.MedicationName).
		Msg("prescription created")
	if s.mc != nil {
		s.mc.PrescriptionsTotal.WithLabelValues(string(StatusPendingApproval)).Inc()
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.prescriptions.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Prescription, int, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, fmt.Errorf("invalid status filter: %s", f.Status)
	}
	return s.prescriptions.List(ctx, f, limit, offset)
}

func (s *Service) ListActiveByPatient(ctx context.Context, patientID uuid.UUID) ([]*Prescription, error) {
	return s.prescriptions.ListActiveByPatient(ctx, patientID)
}

// Approve transitions PENDING_APPROVAL to ACTIVE and records the approver.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, approverID string) (*Prescription, error) {
	if approverID == "" {
		return nil, fmt.Errorf("approver id is required")
	}
	s.rxMu.Lock(id.String())
	defer s.rxMu.Unlock(id.String())

	p, err := s.prescriptions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusPendingApproval {
		return nil, fmt.Errorf("approve prescription in status %s: %w", p.Status, ErrInvalidState)
	}

	now := time.Now().UTC()
	p.Status = StatusActive
	p.ApprovedBy = &approverID
	p.ApprovedAt = &now

	if err := s.prescriptions.Update(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info().Str("prescription_id", id.String()).Str("approved_by", approverID).Msg("prescription approved")
	if s.mc != nil {
		s.mc.PrescriptionsTotal.WithLabelValues(string(StatusActive)).Inc()
	}
	return p, nil
}

// Update patches the mutable fields. Setting status to ACTIVE from any other
// state re-runs the safety evaluation; a severe finding rejects the update
// and leaves the prescription untouched.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch UpdatePatch) (*Prescription, error) {
	s.rxMu.Lock(id.String())
	defer s.rxMu.Unlock(id.String())

	p, err := s.prescriptions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.MedicationName != nil {
		name := strings.TrimSpace(*patch.MedicationName)
		if name == "" {
			return nil, fmt.Errorf("medication_name must not be blank")
		}
		p.MedicationName = name
	}
	if patch.Strength != nil {
		p.Strength = *patch.Strength
	}
	if patch.DosageForm != nil {
		p.DosageForm = *patch.DosageForm
	}
	if patch.Route != nil {
		p.Route = *patch.Route
	}
	if patch.Frequency != nil {
		p.Frequency = *patch.Frequency
	}
	if patch.Quantity != nil {
		if *patch.Quantity <= 0 {
			return nil, fmt.Errorf("quantity must be positive")
		}
		p.Quantity = *patch.Quantity
	}
	if patch.Instructions != nil {
		p.Instructions = patch.Instructions
	}
	if patch.RefillsAllowed != nil {
		if *patch.RefillsAllowed < 0 {
			return nil, fmt.Errorf("refills_allowed must not be negative")
		}
		p.RefillsAllowed = *patch.RefillsAllowed
		if p.RefillsRemaining > p.RefillsAllowed {
			p.RefillsRemaining = p.RefillsAllowed
		}
	}

	if patch.Status != nil && *patch.Status != p.Status {
		next := *patch.Status
		if !next.Valid() {
			return nil, fmt.Errorf("invalid status: %s", next)
		}
		if !p.Status.CanTransitionTo(next) {
			return nil, fmt.Errorf("transition %s -> %s: %w", p.Status, next, ErrInvalidState)
		}
		if next == StatusActive {
			patientKey := p.PatientID.String()
			s.patientMu.Lock(patientKey)
			defer s.patientMu.Unlock(patientKey)

			res, err := s.checker.Check(ctx, p.PatientID, p.MedicationName, &p.ID)
			if err != nil {
				return nil, fmt.Errorf("safety check: %w", err)
			}
			if res.HasSevereInteractions {
				if s.mc != nil {
					s.mc.BlockedTotal.WithLabelValues("activate").Inc()
				}
				return nil, &RejectedError{Alerts: res.Alerts}
			}
			p.ContraindicationsChecked = true
		}
		p.Status = next
	}

	if err := s.prescriptions.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Cancel is legal from any non-terminal state.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason, actorID string) (*Prescription, error) {
	if reason == "" {
		return nil, fmt.Errorf("cancel reason is required")
	}
	s.rxMu.Lock(id.String())
	defer s.rxMu.Unlock(id.String())

	p, err := s.prescriptions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status.Terminal() {
		return nil, fmt.Errorf("cancel prescription in status %s: %w", p.Status, ErrInvalidState)
	}

	now := time.Now().UTC()
	p.Status = StatusCancelled
	p.CancelledBy = &actorID
	p.CancelReason = &reason
	p.CancelledAt = &now

	if err := s.prescriptions.Update(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info().Str("prescription_id", id.String()).Str("cancelled_by", actorID).Str("reason", reason).Msg("prescription cancelled")
	if s.mc != nil {
		s.mc.PrescriptionsTotal.WithLabelValues(string(StatusCancelled)).Inc()
	}
	return p, nil
}

// Refill decrements the remaining-refill counter by one. It never changes
// status and never lets the counter go negative.
func (s *Service) Refill(ctx context.Context, id uuid.UUID, actorID string) (*Prescription, error) {
	s.rxMu.Lock(id.String())
	defer s.rxMu.Unlock(id.String())

	p, err := s.prescriptions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusActive {
		return nil, fmt.Errorf("refill prescription in status %s: %w", p.Status, ErrInvalidState)
	}
	if p.RefillsRemaining <= 0 {
		return nil, ErrNoRefillsRemaining
	}

	p.RefillsRemaining--
	if err := s.prescriptions.Update(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info().
		Str("prescription_id", id.String()).
		Str("refilled_by", actorID).
		Int("refills_remaining", p.RefillsRemaining).
		Msg("prescription refilled")
	if s.mc != nil {
		s.mc.RefillsTotal.Inc()
	}
	return p, nil
}

// Remove hard-deletes a prescription. Administrative data correction only;
// clinical workflow uses Cancel.
func (s *Service) Remove(ctx context.Context, id uuid.UUID) error {
	if err := s.prescriptions.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Warn().Str("prescription_id", id.String()).Msg("prescription removed")
	return nil
}
