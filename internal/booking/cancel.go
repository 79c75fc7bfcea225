package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"labportal/internal/audit"
	"labportal/internal/fault"
	"labportal/internal/notify"
)

// CancelByUser terminates the caller's own booking. Completed bookings cannot
// be unwound by their owner; that path is reserved for admins.
func (s *Service) CancelByUser(ctx context.Context, bookingID, userID, reason string) (*BookingRequest, error) {
	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, fault.Forbidden("NOT_BOOKING_OWNER", "You do not own this booking")
	}
	if b.Status == StatusCancelled {
		return nil, fault.Validation("ALREADY_CANCELLED", "Booking is already cancelled")
	}
	if b.Status == StatusCompleted {
		return nil, fault.Validation("BOOKING_COMPLETED", "Cannot cancel a completed booking")
	}

	now := s.now()
	upd := CancelUpdate{
		ReviewedBy:  userID,
		ReviewNotes: cancelNote("customer", reason),
		ReviewedAt:  now,
	}
	entry := audit.Entry{
		UserID:   userID,
		Action:   "BOOKING_CANCELLED",
		Entity:   "booking_request",
		EntityID: b.ID,
		Metadata: map[string]any{"previousStatus": b.Status, "reason": reason, "by": "customer"},
	}
	applied, err := s.store.Cancel(ctx, bookingID, upd, entry)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, fault.Validation("ALREADY_CANCELLED", "Booking is already cancelled")
	}

	if err := s.notifier.Send(ctx, notify.Message{
		UserID:    b.UserID,
		Kind:      notify.KindBookingCancelled,
		Title:     "Booking cancelled",
		Body:      fmt.Sprintf("Your booking %s has been cancelled.", b.ReferenceNumber),
		BookingID: b.ID,
	}); err != nil {
		s.log.Warn().Err(err).Str("booking_id", b.ID).Msg("cancellation confirmation failed")
	}
	if adminIDs, err := s.admins.ListActiveAdminIDs(ctx); err != nil {
		s.log.Warn().Err(err).Msg("admin directory lookup failed")
	} else if err := s.notifier.SendAll(ctx, adminIDs, notify.Message{
		Kind:      notify.KindBookingCancelled,
		Title:     "Booking cancelled by customer",
		Body:      fmt.Sprintf("Booking %s was cancelled by its owner.", b.ReferenceNumber),
		BookingID: b.ID,
	}); err != nil {
		s.log.Warn().Err(err).Str("booking_id", b.ID).Msg("cancellation admin alert failed")
	}

	return s.store.GetBooking(ctx, bookingID)
}

// CancelByAdmin terminates any booking, including a completed one. This is an
// intentional asymmetry from the user path.
func (s *Service) CancelByAdmin(ctx context.Context, bookingID, adminUserID, reason string) (*BookingRequest, error) {
	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status == StatusCancelled {
		return nil, fault.Validation("ALREADY_CANCELLED", "Booking is already cancelled")
	}

	now := s.now()
	upd := CancelUpdate{
		ReviewedBy:     adminUserID,
		ReviewNotes:    cancelNote("admin", reason),
		ReviewedAt:     now,
		AllowCompleted: true,
	}
	entry := audit.Entry{
		UserID:   adminUserID,
		Action:   "BOOKING_CANCELLED",
		Entity:   "booking_request",
		EntityID: b.ID,
		Metadata: map[string]any{"previousStatus": b.Status, "reason": reason, "by": "admin"},
	}
	applied, err := s.store.Cancel(ctx, bookingID, upd, entry)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, fault.Validation("ALREADY_CANCELLED", "Booking is already cancelled")
	}

	if err := s.notifier.Send(ctx, notify.Message{
		UserID:    b.UserID,
		Kind:      notify.KindBookingCancelled,
		Title:     "Booking cancelled",
		Body:      fmt.Sprintf("Your booking %s was cancelled by the laboratory.", b.ReferenceNumber),
		BookingID: b.ID,
	}); err != nil {
		s.log.Warn().Err(err).Str("booking_id", b.ID).Msg("cancellation notification failed")
	}

	return s.store.GetBooking(ctx, bookingID)
}

// UpdateTimeline overwrites the preferred start/end dates. Both are nullable.
func (s *Service) UpdateTimeline(ctx context.Context, bookingID string, start, end *time.Time) error {
	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.Status == StatusCancelled {
		return fault.Validation("BOOKING_CANCELLED", "Cannot update a cancelled booking")
	}
	applied, err := s.store.UpdateTimeline(ctx, bookingID, start, end)
	if err != nil {
		return err
	}
	if !applied {
		return fault.Validation("BOOKING_CANCELLED", "Cannot update a cancelled booking")
	}
	return nil
}

func cancelNote(by, reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "no reason given"
	}
	return fmt.Sprintf("Cancelled by %s: %s", by, reason)
}
