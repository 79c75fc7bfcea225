package sample

import "testing"

func TestParseStatus(t *testing.T) {
	if _, err := ParseStatus("in_analysis"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseStatus("lost"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestClassification(t *testing.T) {
	cases := []struct {
		status   Status
		active   bool
		terminal bool
	}{
		{StatusPending, false, false},
		{StatusReceived, true, false},
		{StatusInAnalysis, true, false},
		{StatusReturnRequested, true, false},
		{StatusAnalysisComplete, false, true},
		{StatusReturned, false, true},
	}
	for _, c := range cases {
		if got := c.status.IsActive(); got != c.active {
			t.Fatalf("%s: IsActive() = %v, want %v", c.status, got, c.active)
		}
		if got := c.status.IsTerminal(); got != c.terminal {
			t.Fatalf("%s: IsTerminal() = %v, want %v", c.status, got, c.terminal)
		}
	}
}
