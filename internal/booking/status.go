package booking

import "fmt"

type Status string

const (
	StatusDraft               Status = "draft"
	StatusPendingVerification Status = "pending_user_verification"
	StatusPendingApproval     Status = "pending_approval"
	StatusRevisionRequested   Status = "revision_requested"
	StatusApproved            Status = "approved"
	StatusRejected            Status = "rejected"
	StatusInProgress          Status = "in_progress"
	StatusCompleted           Status = "completed"
	StatusCancelled           Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusDraft, StatusPendingVerification, StatusPendingApproval, StatusRevisionRequested,
		StatusApproved, StatusRejected, StatusInProgress, StatusCompleted, StatusCancelled:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown booking status: %s", s)
	}
}

// allowedTransitions covers the externally driven edges (submission, review)
// and the lifecycle engine's derived edges. Cancellation bypasses the table:
// its guards differ between the user and admin paths (admins may cancel a
// completed booking, users may not).
var allowedTransitions = map[Status]map[Status]bool{
	StatusDraft:               {StatusPendingVerification: true, StatusPendingApproval: true},
	StatusPendingVerification: {StatusPendingApproval: true},
	StatusPendingApproval:     {StatusApproved: true, StatusRejected: true, StatusRevisionRequested: true},
	StatusRevisionRequested:   {StatusPendingApproval: true, StatusApproved: true, StatusRejected: true},
	StatusApproved:            {StatusInProgress: true, StatusCompleted: true},
	StatusInProgress:          {StatusApproved: true, StatusCompleted: true},
	StatusRejected:            {},
	StatusCompleted:           {}, // only admin override or admin cancel can leave
	StatusCancelled:           {},
}

func CanTransition(from, to Status) bool {
	m, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return m[to]
}

// IsTerminal reports whether the status ends the booking's lifecycle.
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusCompleted || s == StatusCancelled
}
