package alert

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type mockRepo struct {
	mu     sync.Mutex
	alerts map[uuid.UUID]*InteractionAlert
}

func newMockRepo() *mockRepo {
	return &mockRepo{alerts: make(map[uuid.UUID]*InteractionAlert)}
}

func (m *mockRepo) Create(_ context.Context, a *InteractionAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	m.alerts[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*InteractionAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, a *InteractionAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.alerts[a.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Status != StatusActive {
		return ErrNotActive
	}
	cp := *a
	m.alerts[a.ID] = &cp
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*InteractionAlert, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*InteractionAlert
	for _, a := range m.alerts {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) ListActiveByPatient(_ context.Context, patientID uuid.UUID) ([]*InteractionAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*InteractionAlert
	for _, a := range m.alerts {
		if a.PatientID == patientID && a.Status == StatusActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo, zerolog.Nop()), repo
}

func seedAlert(t *testing.T, svc *Service) *InteractionAlert {
	t.Helper()
	a := &InteractionAlert{
		PatientID:       uuid.New(),
		InteractionType: TypeDrugDrug,
		Severity:        SeveritySevere,
		Description:     "Warfarin + Aspirin: increased bleeding risk",
	}
	if err := svc.Create(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return a
}

func TestCreate_DefaultsStatusActive(t *testing.T) {
	svc, _ := newTestService()
	a := seedAlert(t, svc)
	if a.Status != StatusActive {
		t.Errorf("expected status ACTIVE, got %s", a.Status)
	}
}

func TestCreate_RejectsInvalidType(t *testing.T) {
	svc, _ := newTestService()
	err := svc.Create(context.Background(), &InteractionAlert{
		PatientID:       uuid.New(),
		InteractionType: "BOGUS",
		Severity:        SeverityMild,
		Description:     "x",
	})
	if err == nil {
		t.Fatal("expected error for invalid interaction type")
	}
}

func TestAcknowledge(t *testing.T) {
	svc, _ := newTestService()
	a := seedAlert(t, svc)

	got, err := svc.Acknowledge(context.Background(), a.ID, "dr-jones")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusAcknowledged {
		t.Errorf("expected ACKNOWLEDGED, got %s", got.Status)
	}
	if got.AcknowledgedBy == nil || *got.AcknowledgedBy != "dr-jones" {
		t.Error("acknowledged_by not recorded")
	}
	if got.AcknowledgedAt == nil {
		t.Error("acknowledged_at not recorded")
	}
}

func TestOverride_RequiresReason(t *testing.T) {
	svc, _ := newTestService()
	a := seedAlert(t, svc)

	if _, err := svc.Override(context.Background(), a.ID, "dr-jones", ""); err == nil {
		t.Fatal("expected error for missing reason")
	}
	got, err := svc.Override(context.Background(), a.ID, "dr-jones", "benefit outweighs risk")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusOverridden {
		t.Errorf("expected OVERRIDDEN, got %s", got.Status)
	}
	if got.OverrideReason == nil || *got.OverrideReason != "benefit outweighs risk" {
		t.Error("override reason not recorded")
	}
}

func TestTransition_OnlyFromActive(t *testing.T) {
	svc, _ := newTestService()
	a := seedAlert(t, svc)

	if _, err := svc.Resolve(context.Background(), a.ID, "dr-jones"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Acknowledge(context.Background(), a.ID, "dr-jones"); !errors.Is(err, ErrNotActive) {
		t.Errorf("expected ErrNotActive, got %v", err)
	}
	if _, err := svc.Override(context.Background(), a.ID, "dr-jones", "reason"); !errors.Is(err, ErrNotActive) {
		t.Errorf("expected ErrNotActive, got %v", err)
	}
}

// barrierRepo holds every GetByID until readers goroutines have all read, so
// two transitions both observe the alert as ACTIVE before either writes.
type barrierRepo struct {
	*mockRepo
	readers sync.WaitGroup
}

func (b *barrierRepo) GetByID(ctx context.Context, id uuid.UUID) (*InteractionAlert, error) {
	a, err := b.mockRepo.GetByID(ctx, id)
	b.readers.Done()
	b.readers.Wait()
	return a, err
}

func TestTransition_ConcurrentLosesExactlyOnce(t *testing.T) {
	repo := &barrierRepo{mockRepo: newMockRepo()}
	svc := NewService(repo, zerolog.Nop())
	a := seedAlert(t, svc)

	repo.readers.Add(2)
	errs := make(chan error, 2)
	go func() {
		_, err := svc.Acknowledge(context.Background(), a.ID, "dr-jones")
		errs <- err
	}()
	go func() {
		_, err := svc.Override(context.Background(), a.ID, "dr-smith", "benefit outweighs risk")
		errs <- err
	}()

	var failures int
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			if !errors.Is(err, ErrNotActive) {
				t.Fatalf("expected ErrNotActive for the losing transition, got %v", err)
			}
			failures++
		}
	}
	if failures != 1 {
		t.Fatalf("expected exactly one transition to lose, got %d failures", failures)
	}

	final, err := repo.mockRepo.GetByID(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	switch final.Status {
	case StatusAcknowledged:
		if final.AcknowledgedBy == nil || final.OverriddenBy != nil {
			t.Error("acknowledged record carries the wrong actor fields")
		}
	case StatusOverridden:
		if final.OverriddenBy == nil || final.AcknowledgedBy != nil {
			t.Error("overridden record carries the wrong actor fields")
		}
	default:
		t.Errorf("expected a completed transition, got status %s", final.Status)
	}
}

func TestTransition_UnknownAlert(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Acknowledge(context.Background(), uuid.New(), "dr-jones"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListActiveByPatient_ExcludesHandled(t *testing.T) {
	svc, _ := newTestService()
	a := seedAlert(t, svc)
	b := &InteractionAlert{
		PatientID:       a.PatientID,
		InteractionType: TypeDuplicateTherapy,
		Severity:        SeverityModerate,
		Description:     "duplicate therapy",
	}
	if err := svc.Create(context.Background(), b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Acknowledge(context.Background(), a.ID, "dr-jones"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	active, err := svc.ListActiveByPatient(context.Background(), a.PatientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(active) != 1 || active[0].ID != b.ID {
		t.Errorf("expected only the unhandled alert, got %d alerts", len(active))
	}
}
