package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careops/careops/internal/platform/metrics"
)

// Service owns the alert lifecycle: creation by the rule evaluator and the
// single ACTIVE -> {ACKNOWLEDGED, OVERRIDDEN, RESOLVED} transition made by a
// clinician.
type Service struct {
	alerts Repository
	log    zerolog.Logger
	mc     *metrics.Collector
}

func NewService(alerts Repository, log zerolog.Logger) *Service {
	return &Service{alerts: alerts, log: log}
}

// SetCollector attaches an optional metrics collector.
func (s *Service) SetCollector(mc *metrics.Collector) { s.mc = mc }

func (s *Service) Create(ctx context.Context, a *InteractionAlert) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if !a.InteractionType.Valid() {
		return fmt.Errorf("invalid interaction type: %s", a.InteractionType)
	}
	if a.Severity == "" {
		a.Severity = SeverityUnknown
	}
	if !a.Severity.Valid() {
		return fmt.Errorf("invalid severity: %s", a.Severity)
	}
	if a.Description == "" {
		return fmt.Errorf("description is required")
	}
	a.Status = StatusActive

	if err := s.alerts.Create(ctx, a); err != nil {
		return err
	}

	s.log.Info().
		Str("alert_id", a.ID.String()).
		Str("patient_id", a.PatientID.String()).
		Str("type", string(a.InteractionType)).
		Str("severity", string(a.Severity)).
		Msg("interaction alert created")
	if s.mc != nil {
		s.mc.AlertsTotal.WithLabelValues(string(a.InteractionType), string(a.Severity)).Inc()
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*InteractionAlert, error) {
	return s.alerts.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*InteractionAlert, int, error) {
	return s.alerts.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListActiveByPatient(ctx context.Context, patientID uuid.UUID) ([]*InteractionAlert, error) {
	return s.alerts.ListActiveByPatient(ctx, patientID)
}

// Acknowledge marks an ACTIVE alert as seen by a clinician.
func (s *Service) Acknowledge(ctx context.Context, id uuid.UUID, acknowledgedBy string) (*InteractionAlert, error) {
	if acknowledgedBy == "" {
		return nil, fmt.Errorf("acknowledged_by is required")
	}
	a, err := s.alerts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.Status.CanTransitionTo(StatusAcknowledged) {
		return nil, fmt.Errorf("acknowledge alert %s in status %s: %w", id, a.Status, ErrNotActive)
	}

	now := time.Now().UTC()
	a.Status = StatusAcknowledged
	a.AcknowledgedBy = &acknowledgedBy
	a.AcknowledgedAt = &now

	if err := s.alerts.Update(ctx, a); err != nil {
		return nil, err
	}
	s.log.Info().Str("alert_id", id.String()).Str("by", acknowledgedBy).Msg("alert acknowledged")
	return a, nil
}

// Override dismisses an ACTIVE alert, recording who accepted the risk and why.
// Overridden alerts no longer count toward the severe-interaction gate.
func (s *Service) Override(ctx context.Context, id uuid.UUID, overriddenBy, reason string) (*InteractionAlert, error) {
	if overriddenBy == "" {
		return nil, fmt.Errorf("overridden_by is required")
	}
	if reason == "" {
		return nil, fmt.Errorf("override reason is required")
	}
	a, err := s.alerts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.Status.CanTransitionTo(StatusOverridden) {
		return nil, fmt.Errorf("override alert %s in status %s: %w", id, a.Status, ErrNotActive)
	}

	now := time.Now().UTC()
	a.Status = StatusOverridden
	a.OverriddenBy = &overriddenBy
	a.OverrideReason = &reason
	a.OverriddenAt = &now

	if err := s.alerts.Update(ctx, a); err != nil {
		return nil, err
	}
	s.log.Info().Str("alert_id", id.String()).Str("by", overriddenBy).Str("reason", reason).Msg("alert overridden")
	return a, nil
}

// Resolve closes an ACTIVE alert whose underlying finding no longer applies.
func (s *Service) Resolve(ctx context.Context, id uuid.UUID, resolvedBy string) (*InteractionAlert, error) {
	if resolvedBy == "" {
		return nil, fmt.Errorf("resolved_by is required")
	}
	a, err := s.alerts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.Status.CanTransitionTo(StatusResolved) {
		return nil, fmt.Errorf("resolve alert %s in status %s: %w", id, a.Status, ErrNotActive)
	}

	now := time.Now().UTC()
	a.Status = StatusResolved
	a.ResolvedBy = &resolvedBy
	a.ResolvedAt = &now

	if err := s.alerts.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}
