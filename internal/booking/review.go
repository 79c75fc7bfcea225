package booking

import (
	"context"
	"fmt"

	"labportal/internal/audit"
	"labportal/internal/fault"
	"labportal/internal/notify"
)

type ReviewAction string

const (
	ReviewApprove         ReviewAction = "approve"
	ReviewReject          ReviewAction = "reject"
	ReviewRequestRevision ReviewAction = "request_revision"
)

func (a ReviewAction) target() (Status, bool) {
	switch a {
	case ReviewApprove:
		return StatusApproved, true
	case ReviewReject:
		return StatusRejected, true
	case ReviewRequestRevision:
		return StatusRevisionRequested, true
	}
	return "", false
}

// Submit moves the owner's draft into the review queue.
func (s *Service) Submit(ctx context.Context, bookingID, userID string) (*BookingRequest, error) {
	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, fault.Forbidden("NOT_BOOKING_OWNER", "You do not own this booking")
	}
	if !CanTransition(b.Status, StatusPendingApproval) {
		return nil, fault.Validation("INVALID_STATE_TRANSITION",
			fmt.Sprintf("Booking cannot be submitted from status %s", b.Status))
	}

	entry := audit.Entry{
		UserID:   userID,
		Action:   "BOOKING_SUBMITTED",
		Entity:   "booking_request",
		EntityID: b.ID,
		Metadata: map[string]any{"from": b.Status},
	}
	applied, err := s.store.Transition(ctx, bookingID, b.Status, StatusPendingApproval, ReviewUpdate{}, entry)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, fault.Validation("INVALID_STATE_TRANSITION", "Booking was changed concurrently, reload and retry")
	}

	if adminIDs, err := s.admins.ListActiveAdminIDs(ctx); err == nil {
		if err := s.notifier.SendAll(ctx, adminIDs, notify.Message{
			Kind:      notify.KindBookingReviewed,
			Title:     "Booking awaiting review",
			Body:      fmt.Sprintf("Booking %s was submitted for approval.", b.ReferenceNumber),
			BookingID: b.ID,
		}); err != nil {
			s.log.Warn().Err(err).Str("booking_id", b.ID).Msg("submission admin alert failed")
		}
	}
	return s.store.GetBooking(ctx, bookingID)
}

// Review applies an admin decision (approve, reject, request revision),
// stamping the reviewer fields and notifying the booking owner.
func (s *Service) Review(ctx context.Context, bookingID, adminUserID string, action ReviewAction, notes string) (*BookingRequest, error) {
	to, ok := action.target()
	if !ok {
		return nil, fault.Validation("INVALID_REVIEW_ACTION", "Unknown review action")
	}

	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(b.Status, to) {
		return nil, fault.Validation("INVALID_STATE_TRANSITION",
			fmt.Sprintf("Cannot %s a booking in status %s", action, b.Status))
	}

	rev := ReviewUpdate{ReviewedBy: adminUserID, ReviewNotes: notes, ReviewedAt: s.now()}
	entry := audit.Entry{
		UserID:   adminUserID,
		Action:   "BOOKING_REVIEWED",
		Entity:   "booking_request",
		EntityID: b.ID,
		Metadata: map[string]any{"from": b.Status, "to": to, "action": action},
	}
	applied, err := s.store.Transition(ctx, bookingID, b.Status, to, rev, entry)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, fault.Validation("INVALID_STATE_TRANSITION", "Booking was changed concurrently, reload and retry")
	}

	if err := s.notifier.Send(ctx, notify.Message{
		UserID:    b.UserID,
		Kind:      notify.KindBookingReviewed,
		Title:     "Booking review update",
		Body:      fmt.Sprintf("Your booking %s is now %s.", b.ReferenceNumber, to),
		BookingID: b.ID,
	}); err != nil {
		s.log.Warn().Err(err).Str("booking_id", b.ID).Msg("review notification failed")
	}
	return s.store.GetBooking(ctx, bookingID)
}
