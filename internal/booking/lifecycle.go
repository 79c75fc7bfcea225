package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"labportal/internal/audit"
	"labportal/internal/notify"
	"labportal/internal/sample"
)

// Notifier is the outbound in-app notification channel. Every call from this
// package is best-effort: failures are logged and swallowed, never surfaced.
type Notifier interface {
	Send(ctx context.Context, msg notify.Message) error
	SendAll(ctx context.Context, userIDs []string, msg notify.Message) error
}

// AdminDirectory resolves the broadcast list for admin-facing notifications.
type AdminDirectory interface {
	ListActiveAdminIDs(ctx context.Context) ([]string, error)
}

// Service owns every booking status transition: the lifecycle recompute, the
// admin force-complete override, cancellation, and the review edges.
type Service struct {
	store    Store
	notifier Notifier
	admins   AdminDirectory
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(store Store, notifier Notifier, admins AdminDirectory, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		admins:   admins,
		log:      log,
		now:      time.Now,
	}
}

type RecomputeResult struct {
	BookingID      string     `json:"bookingId"`
	PreviousStatus Status     `json:"previousStatus"`
	NewStatus      Status     `json:"newStatus"`
	Changed        bool       `json:"changed"`
	ReleasedAt     *time.Time `json:"releasedAt,omitempty"`
}

// Recompute derives the booking's aggregate status from its samples and
// workspace slots and applies it. Only approved and in_progress bookings are
// eligible; terminal and pre-approval statuses pass through unchanged. The
// operation is idempotent: a second call with no intervening sample change
// reports Changed=false.
func (s *Service) Recompute(ctx context.Context, bookingID string) (RecomputeResult, error) {
	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return RecomputeResult{}, err
	}

	res := RecomputeResult{
		BookingID:      b.ID,
		PreviousStatus: b.Status,
		NewStatus:      b.Status,
		ReleasedAt:     b.ReleasedAt,
	}

	if b.Status != StatusApproved && b.Status != StatusInProgress {
		return res, nil
	}

	samples, err := s.store.SampleStatuses(ctx, bookingID)
	if err != nil {
		return RecomputeResult{}, err
	}

	now := s.now()
	next := b.Status
	if len(samples) == 0 {
		// Workspace-only or sample-less booking: complete once every reserved
		// slot has ended.
		ends, err := s.store.WorkspaceEndDates(ctx, bookingID)
		if err != nil {
			return RecomputeResult{}, err
		}
		next = deriveWorkspaceStatus(ends, now)
	} else {
		next = deriveSampleStatus(samples)
	}

	if next == b.Status {
		return res, nil
	}

	var releasedAt *time.Time
	if next == StatusCompleted {
		releasedAt = &now
	}
	applied, err := s.store.ApplyStatus(ctx, bookingID, b.Status, next, releasedAt)
	if err != nil {
		return RecomputeResult{}, err
	}
	if !applied {
		// A concurrent transition won; report unchanged rather than guessing.
		s.log.Debug().Str("booking_id", bookingID).Msg("recompute lost status race")
		return res, nil
	}

	res.NewStatus = next
	res.Changed = true
	if next == StatusCompleted {
		if b.ReleasedAt == nil {
			res.ReleasedAt = &now
		}
		s.notifyCompletion(ctx, b)
	}
	return res, nil
}

// deriveSampleStatus classifies tracked samples and picks the aggregate
// booking status.
func deriveSampleStatus(samples []sample.Status) Status {
	terminal := 0
	active := 0
	for _, st := range samples {
		switch {
		case st.IsTerminal():
			terminal++
		case st.IsActive():
			active++
		}
	}
	switch {
	case terminal == len(samples):
		return StatusCompleted
	case active > 0:
		return StatusInProgress
	default:
		return StatusApproved
	}
}

func deriveWorkspaceStatus(ends []time.Time, now time.Time) Status {
	if len(ends) == 0 {
		return StatusApproved
	}
	for _, end := range ends {
		if end.After(now) {
			return StatusApproved
		}
	}
	return StatusCompleted
}

// ForceComplete is the admin override: completion without sample-state
// derivation. The HTTP layer must have verified the admin role already.
// released_at is always overwritten here, even when previously set.
func (s *Service) ForceComplete(ctx context.Context, bookingID, adminUserID, reason string) (RecomputeResult, error) {
	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return RecomputeResult{}, err
	}

	res := RecomputeResult{
		BookingID:      b.ID,
		PreviousStatus: b.Status,
		NewStatus:      b.Status,
		ReleasedAt:     b.ReleasedAt,
	}
	if b.Status == StatusCompleted {
		return res, nil
	}

	now := s.now()
	entry := audit.Entry{
		UserID:   adminUserID,
		Action:   "BOOKING_FORCE_COMPLETED",
		Entity:   "booking_request",
		EntityID: b.ID,
		Metadata: map[string]any{"previousStatus": b.Status, "reason": reason},
	}
	applied, err := s.store.CompleteOverride(ctx, bookingID, b.Status, now, entry)
	if err != nil {
		return RecomputeResult{}, err
	}
	if !applied {
		return res, nil
	}

	res.NewStatus = StatusCompleted
	res.Changed = true
	res.ReleasedAt = &now
	s.notifyCompletion(ctx, b)
	return res, nil
}

func (s *Service) notifyCompletion(ctx context.Context, b *BookingRequest) {
	err := s.notifier.Send(ctx, notify.Message{
		UserID:    b.UserID,
		Kind:      notify.KindBookingCompleted,
		Title:     "Booking completed",
		Body:      fmt.Sprintf("Your booking %s has been completed and released.", b.ReferenceNumber),
		BookingID: b.ID,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("booking_id", b.ID).Msg("completion notification failed")
	}
}
