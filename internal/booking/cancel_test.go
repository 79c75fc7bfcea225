package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labportal/internal/fault"
	"labportal/internal/notify"
)

func TestCancelByUser_Guards(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		svc, _ := newTestService(newMemStore())
		_, err := svc.CancelByUser(context.Background(), "missing", "user-1", "")
		assert.True(t, fault.IsNotFound(err))
	})

	t.Run("not owner", func(t *testing.T) {
		store := newMemStore()
		seedBooking(store, "b1", StatusApproved)
		svc, _ := newTestService(store)

		_, err := svc.CancelByUser(context.Background(), "b1", "user-2", "")
		assert.True(t, fault.IsForbidden(err))
	})

	t.Run("already cancelled", func(t *testing.T) {
		store := newMemStore()
		seedBooking(store, "b1", StatusCancelled)
		svc, _ := newTestService(store)

		_, err := svc.CancelByUser(context.Background(), "b1", "user-1", "")
		assert.True(t, fault.IsValidation(err))
	})

	t.Run("completed cannot be unwound by user", func(t *testing.T) {
		store := newMemStore()
		seedBooking(store, "b1", StatusCompleted)
		svc, _ := newTestService(store)

		_, err := svc.CancelByUser(context.Background(), "b1", "user-1", "")
		assert.True(t, fault.IsValidation(err))
	})
}

func TestCancelByUser_Success(t *testing.T) {
	store := newMemStore()
	seedBooking(store, "b1", StatusInProgress)
	svc, n := newTestService(store)

	b, err := svc.CancelByUser(context.Background(), "b1", "user-1", "changed plans")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, b.Status)
	require.NotNil(t, b.ReviewedBy)
	assert.Equal(t, "user-1", *b.ReviewedBy)
	assert.Equal(t, "Cancelled by customer: changed plans", b.ReviewNotes)
	assert.NotNil(t, b.ReviewedAt)

	require.Len(t, store.audits, 1)
	assert.Equal(t, "BOOKING_CANCELLED", store.audits[0].Action)

	// Confirmation to the owner plus one alert per active admin.
	msgs := n.ofKind(notify.KindBookingCancelled)
	require.Len(t, msgs, 3)
	assert.Equal(t, "user-1", msgs[0].UserID)
}

func TestCancelByAdmin(t *testing.T) {
	t.Run("already cancelled", func(t *testing.T) {
		store := newMemStore()
		seedBooking(store, "b1", StatusCancelled)
		svc, _ := newTestService(store)

		_, err := svc.CancelByAdmin(context.Background(), "b1", "admin-1", "")
		assert.True(t, fault.IsValidation(err))
	})

	t.Run("completed booking can be cancelled by admin", func(t *testing.T) {
		store := newMemStore()
		seedBooking(store, "b1", StatusCompleted)
		svc, n := newTestService(store)

		b, err := svc.CancelByAdmin(context.Background(), "b1", "admin-1", "billing dispute")
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, b.Status)
		require.NotNil(t, b.ReviewedBy)
		assert.Equal(t, "admin-1", *b.ReviewedBy)
		assert.Equal(t, "Cancelled by admin: billing dispute", b.ReviewNotes)

		// Only the affected user is notified on the admin path.
		msgs := n.ofKind(notify.KindBookingCancelled)
		require.Len(t, msgs, 1)
		assert.Equal(t, "user-1", msgs[0].UserID)
	})
}

func TestUpdateTimeline(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		svc, _ := newTestService(newMemStore())
		err := svc.UpdateTimeline(context.Background(), "missing", nil, nil)
		assert.True(t, fault.IsNotFound(err))
	})

	t.Run("cancelled booking rejects update", func(t *testing.T) {
		store := newMemStore()
		seedBooking(store, "b1", StatusCancelled)
		svc, _ := newTestService(store)

		err := svc.UpdateTimeline(context.Background(), "b1", nil, nil)
		assert.True(t, fault.IsValidation(err))
	})

	t.Run("overwrites both dates", func(t *testing.T) {
		store := newMemStore()
		seedBooking(store, "b1", StatusApproved)
		svc, _ := newTestService(store)

		start := time.Now().Add(24 * time.Hour)
		err := svc.UpdateTimeline(context.Background(), "b1", &start, nil)
		require.NoError(t, err)

		b, err := store.GetBooking(context.Background(), "b1")
		require.NoError(t, err)
		require.NotNil(t, b.PreferredStartDate)
		assert.True(t, b.PreferredStartDate.Equal(start))
		assert.Nil(t, b.PreferredEndDate)
	})
}

func TestSubmitAndReview(t *testing.T) {
	t.Run("submit moves draft to pending_approval", func(t *testing.T) {
		store := newMemStore()
		seedBooking(store, "b1", StatusDraft)
		svc, n := newTestService(store)

		b, err := svc.Submit(context.Background(), "b1", "user-1")
		require.NoError(t, err)
		assert.Equal(t, StatusPendingApproval, b.Status)
		assert.Len(t, n.ofKind(notify.KindBookingReviewed), 2) // both admins
	})

	t.Run("submit by non-owner forbidden", func(t *testing.T) {
		store := newMemStore()
		seedBooking(store, "b1", StatusDraft)
		svc, _ := newTestService(store)

		_, err := svc.Submit(context.Background(), "b1", "user-2")
		assert.True(t, fault.IsForbidden(err))
	})

	t.Run("approve stamps reviewer fields", func(t *testing.T) {
		store := newMemStore()
		seedBooking(store, "b1", StatusPendingApproval)
		svc, n := newTestService(store)

		b, err := svc.Review(context.Background(), "b1", "admin-1", ReviewApprove, "looks good")
		require.NoError(t, err)
		assert.Equal(t, StatusApproved, b.Status)
		require.NotNil(t, b.ReviewedBy)
		assert.Equal(t, "admin-1", *b.ReviewedBy)
		assert.Equal(t, "looks good", b.ReviewNotes)
		assert.Len(t, n.ofKind(notify.KindBookingReviewed), 1)
	})

	t.Run("review on wrong status fails", func(t *testing.T) {
		store := newMemStore()
		seedBooking(store, "b1", StatusDraft)
		svc, _ := newTestService(store)

		_, err := svc.Review(context.Background(), "b1", "admin-1", ReviewApprove, "")
		assert.True(t, fault.IsValidation(err))
	})

	t.Run("unknown action fails", func(t *testing.T) {
		store := newMemStore()
		seedBooking(store, "b1", StatusPendingApproval)
		svc, _ := newTestService(store)

		_, err := svc.Review(context.Background(), "b1", "admin-1", ReviewAction("escalate"), "")
		assert.True(t, fault.IsValidation(err))
	})
}
