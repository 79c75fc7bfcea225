package booking

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"labportal/internal/audit"
	"labportal/internal/sample"
)

// BookingRequest is the aggregate root of a customer's service request.
type BookingRequest struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"userId"`
	ReferenceNumber    string          `json:"referenceNumber"`
	Status             Status          `json:"status"`
	TotalAmount        decimal.Decimal `json:"totalAmount"`
	PreferredStartDate *time.Time      `json:"preferredStartDate,omitempty"`
	PreferredEndDate   *time.Time      `json:"preferredEndDate,omitempty"`
	ReleasedAt         *time.Time      `json:"releasedAt,omitempty"`
	ReviewNotes        string          `json:"reviewNotes,omitempty"`
	ReviewedAt         *time.Time      `json:"reviewedAt,omitempty"`
	ReviewedBy         *string         `json:"reviewedBy,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// CancelUpdate is the row update applied when a booking is cancelled.
type CancelUpdate struct {
	ReviewedBy  string
	ReviewNotes string
	ReviewedAt  time.Time
	// AllowCompleted permits cancelling a completed booking (admin path only).
	AllowCompleted bool
}

// ReviewUpdate stamps the reviewer fields alongside a review transition.
type ReviewUpdate struct {
	ReviewedBy  string
	ReviewNotes string
	ReviewedAt  time.Time
}

// Store is the persistence contract the workflows run against. The pgx
// implementation encapsulates transactionality: every mutating method is a
// conditional update (rows-affected checked) so a lost race reports false
// instead of clobbering a concurrent transition.
type Store interface {
	GetBooking(ctx context.Context, id string) (*BookingRequest, error)
	// SampleStatuses returns the status of every tracked sample belonging to
	// service items of this booking that require a sample.
	SampleStatuses(ctx context.Context, bookingID string) ([]sample.Status, error)
	// WorkspaceEndDates returns the end date of every reserved workspace slot.
	WorkspaceEndDates(ctx context.Context, bookingID string) ([]time.Time, error)
	// ApplyStatus moves the booking from one status to another. A non-nil
	// releasedAt is stamped only if the column is still null.
	ApplyStatus(ctx context.Context, id string, from, to Status, releasedAt *time.Time) (bool, error)
	// CompleteOverride forces completion, always overwriting released_at, and
	// writes the audit entry in the same transaction.
	CompleteOverride(ctx context.Context, id string, from Status, releasedAt time.Time, entry audit.Entry) (bool, error)
	Cancel(ctx context.Context, id string, upd CancelUpdate, entry audit.Entry) (bool, error)
	UpdateTimeline(ctx context.Context, id string, start, end *time.Time) (bool, error)
	// Transition applies an externally driven edge (submit, review) with the
	// reviewer fields, writing the audit entry in the same transaction.
	Transition(ctx context.Context, id string, from, to Status, rev ReviewUpdate, entry audit.Entry) (bool, error)
}
