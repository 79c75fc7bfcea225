package booking

import "testing"

func TestParseStatus(t *testing.T) {
	if _, err := ParseStatus("approved"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseStatus("shipped"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestCanTransition_HappyPath(t *testing.T) {
	path := []Status{StatusDraft, StatusPendingApproval, StatusApproved, StatusInProgress, StatusCompleted}
	for i := 0; i < len(path)-1; i++ {
		if !CanTransition(path[i], path[i+1]) {
			t.Fatalf("expected %s -> %s to be allowed", path[i], path[i+1])
		}
	}
}

func TestCanTransition_RevisionLoop(t *testing.T) {
	if !CanTransition(StatusPendingApproval, StatusRevisionRequested) {
		t.Fatalf("expected pending_approval -> revision_requested")
	}
	if !CanTransition(StatusRevisionRequested, StatusPendingApproval) {
		t.Fatalf("expected revision_requested -> pending_approval")
	}
}

func TestCanTransition_TerminalStatesHaveNoExits(t *testing.T) {
	all := []Status{
		StatusDraft, StatusPendingVerification, StatusPendingApproval, StatusRevisionRequested,
		StatusApproved, StatusRejected, StatusInProgress, StatusCompleted, StatusCancelled,
	}
	for _, terminal := range []Status{StatusRejected, StatusCompleted, StatusCancelled} {
		for _, to := range all {
			if CanTransition(terminal, to) {
				t.Fatalf("expected no transition out of %s, found %s", terminal, to)
			}
		}
	}
}

func TestCanTransition_EngineCannotSkipApproval(t *testing.T) {
	for _, from := range []Status{StatusDraft, StatusPendingVerification, StatusPendingApproval} {
		if CanTransition(from, StatusInProgress) {
			t.Fatalf("expected %s -> in_progress to be forbidden", from)
		}
		if CanTransition(from, StatusCompleted) {
			t.Fatalf("expected %s -> completed to be forbidden", from)
		}
	}
}

func TestStatusIsTerminal(t *testing.T) {
	for _, s := range []Status{StatusRejected, StatusCompleted, StatusCancelled} {
		if !s.IsTerminal() {
			t.Fatalf("expected %s terminal", s)
		}
	}
	for _, s := range []Status{StatusDraft, StatusApproved, StatusInProgress} {
		if s.IsTerminal() {
			t.Fatalf("expected %s not terminal", s)
		}
	}
}
