package prescription

import "testing"

func TestStatusTransitions(t *testing.T) {
	legal := map[Status][]Status{
		StatusPendingApproval: {StatusActive, StatusCancelled},
		StatusActive:          {StatusCancelled, StatusExpired},
		StatusCancelled:       {},
		StatusExpired:         {},
	}
	all := []Status{StatusPendingApproval, StatusActive, StatusCancelled, StatusExpired}

	for from, allowed := range legal {
		ok := make(map[Status]bool)
		for _, to := range allowed {
			ok[to] = true
		}
		for _, to := range all {
			if got := from.CanTransitionTo(to); got != ok[to] {
				t.Errorf("%s -> %s: got %v, want %v", from, to, got, ok[to])
			}
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusPendingApproval.Terminal() || StatusActive.Terminal() {
		t.Error("PENDING_APPROVAL and ACTIVE are not terminal")
	}
	if !StatusCancelled.Terminal() || !StatusExpired.Terminal() {
		t.Error("CANCELLED and EXPIRED are terminal")
	}
}
