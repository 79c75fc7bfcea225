package sample

import "fmt"

type Status string

const (
	StatusPending          Status = "pending"
	StatusReceived         Status = "received"
	StatusInAnalysis       Status = "in_analysis"
	StatusReturnRequested  Status = "return_requested"
	StatusAnalysisComplete Status = "analysis_complete"
	StatusReturned         Status = "returned"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusReceived, StatusInAnalysis, StatusReturnRequested,
		StatusAnalysisComplete, StatusReturned:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown sample status: %s", s)
	}
}

// IsActive reports whether the sample is currently being processed by the lab.
func (s Status) IsActive() bool {
	switch s {
	case StatusReceived, StatusInAnalysis, StatusReturnRequested:
		return true
	}
	return false
}

// IsTerminal reports whether no further lab processing will occur.
func (s Status) IsTerminal() bool {
	return s == StatusAnalysisComplete || s == StatusReturned
}
