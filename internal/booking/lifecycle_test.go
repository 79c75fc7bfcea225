package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labportal/internal/fault"
	"labportal/internal/notify"
	"labportal/internal/sample"
)

var errTestNotify = errors.New("notify unavailable")

func newTestService(store *memStore) (*Service, *fakeNotifier) {
	n := &fakeNotifier{}
	svc := NewService(store, n, fakeAdmins{ids: []string{"admin-1", "admin-2"}}, zerolog.Nop())
	return svc, n
}

func seedBooking(store *memStore, id string, status Status) *BookingRequest {
	b := &BookingRequest{
		ID:              id,
		UserID:          "user-1",
		ReferenceNumber: "LAB-2026-TEST01",
		Status:          status,
		TotalAmount:     decimal.RequireFromString("500.00"),
	}
	store.put(b)
	return b
}

func TestRecompute_NotFound(t *testing.T) {
	svc, _ := newTestService(newMemStore())
	_, err := svc.Recompute(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, fault.IsNotFound(err))
}

func TestRecompute_IneligibleStatusesPassThrough(t *testing.T) {
	for _, status := range []Status{
		StatusDraft, StatusPendingApproval, StatusRevisionRequested,
		StatusRejected, StatusCompleted, StatusCancelled,
	} {
		store := newMemStore()
		seedBooking(store, "b1", status)
		store.samples["b1"] = []sample.Status{sample.StatusAnalysisComplete}
		svc, _ := newTestService(store)

		res, err := svc.Recompute(context.Background(), "b1")
		require.NoError(t, err, "status %s", status)
		assert.False(t, res.Changed, "status %s", status)
		assert.Equal(t, status, res.NewStatus, "status %s", status)
	}
}

func TestRecompute_SampleDerivation(t *testing.T) {
	cases := []struct {
		name    string
		current Status
		samples []sample.Status
		want    Status
	}{
		{"all pending keeps approved", StatusApproved, []sample.Status{sample.StatusPending, sample.StatusPending}, StatusApproved},
		{"one active moves to in_progress", StatusApproved, []sample.Status{sample.StatusPending, sample.StatusReceived}, StatusInProgress},
		{"mixed active and terminal stays in_progress", StatusInProgress, []sample.Status{sample.StatusInAnalysis, sample.StatusReturned}, StatusInProgress},
		{"all terminal completes", StatusInProgress, []sample.Status{sample.StatusAnalysisComplete, sample.StatusReturned}, StatusCompleted},
		{"in_progress falls back to approved when only pending", StatusInProgress, []sample.Status{sample.StatusPending}, StatusApproved},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			store := newMemStore()
			seedBooking(store, "b1", c.current)
			store.samples["b1"] = c.samples
			svc, _ := newTestService(store)

			res, err := svc.Recompute(context.Background(), "b1")
			require.NoError(t, err)
			assert.Equal(t, c.want, res.NewStatus)
			assert.Equal(t, c.want != c.current, res.Changed)
		})
	}
}

func TestRecompute_TerminalSamplesStampReleasedAt(t *testing.T) {
	store := newMemStore()
	seedBooking(store, "b1", StatusInProgress)
	store.samples["b1"] = []sample.Status{sample.StatusAnalysisComplete}
	svc, n := newTestService(store)

	res, err := svc.Recompute(context.Background(), "b1")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, StatusCompleted, res.NewStatus)
	require.NotNil(t, res.ReleasedAt)

	got, err := store.GetBooking(context.Background(), "b1")
	require.NoError(t, err)
	require.NotNil(t, got.ReleasedAt)
	assert.Len(t, n.ofKind(notify.KindBookingCompleted), 1)
}

func TestRecompute_Idempotent(t *testing.T) {
	store := newMemStore()
	seedBooking(store, "b1", StatusApproved)
	store.samples["b1"] = []sample.Status{sample.StatusReceived}
	svc, _ := newTestService(store)

	first, err := svc.Recompute(context.Background(), "b1")
	require.NoError(t, err)
	assert.True(t, first.Changed)
	assert.Equal(t, StatusInProgress, first.NewStatus)

	second, err := svc.Recompute(context.Background(), "b1")
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.Equal(t, StatusInProgress, second.NewStatus)
}

func TestRecompute_CompletedIsMonotonic(t *testing.T) {
	store := newMemStore()
	seedBooking(store, "b1", StatusInProgress)
	store.samples["b1"] = []sample.Status{sample.StatusReturned}
	svc, _ := newTestService(store)

	res, err := svc.Recompute(context.Background(), "b1")
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, res.NewStatus)

	// A sample regression after completion must not reopen the booking.
	store.samples["b1"] = []sample.Status{sample.StatusInAnalysis}
	res, err = svc.Recompute(context.Background(), "b1")
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, StatusCompleted, res.NewStatus)
}

func TestRecompute_WorkspaceOnly(t *testing.T) {
	now := time.Now()

	t.Run("open slot keeps approved", func(t *testing.T) {
		store := newMemStore()
		seedBooking(store, "b1", StatusApproved)
		store.ends["b1"] = []time.Time{now.Add(-time.Hour), now.Add(time.Hour)}
		svc, _ := newTestService(store)

		res, err := svc.Recompute(context.Background(), "b1")
		require.NoError(t, err)
		assert.False(t, res.Changed)
		assert.Equal(t, StatusApproved, res.NewStatus)
	})

	t.Run("all slots ended completes", func(t *testing.T) {
		store := newMemStore()
		seedBooking(store, "b1", StatusApproved)
		store.ends["b1"] = []time.Time{now.Add(-2 * time.Hour), now.Add(-time.Hour)}
		svc, _ := newTestService(store)

		res, err := svc.Recompute(context.Background(), "b1")
		require.NoError(t, err)
		assert.True(t, res.Changed)
		assert.Equal(t, StatusCompleted, res.NewStatus)
	})

	t.Run("no samples and no slots keeps approved", func(t *testing.T) {
		store := newMemStore()
		seedBooking(store, "b1", StatusApproved)
		svc, _ := newTestService(store)

		res, err := svc.Recompute(context.Background(), "b1")
		require.NoError(t, err)
		assert.False(t, res.Changed)
	})
}

func TestRecompute_NotificationFailureDoesNotFail(t *testing.T) {
	store := newMemStore()
	seedBooking(store, "b1", StatusInProgress)
	store.samples["b1"] = []sample.Status{sample.StatusReturned}
	svc, n := newTestService(store)
	n.failing = true

	res, err := svc.Recompute(context.Background(), "b1")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, StatusCompleted, res.NewStatus)
}

func TestRecompute_FullScenario(t *testing.T) {
	store := newMemStore()
	seedBooking(store, "b1", StatusApproved)
	store.samples["b1"] = []sample.Status{sample.StatusPending}
	svc, n := newTestService(store)

	res, err := svc.Recompute(context.Background(), "b1")
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, StatusApproved, res.NewStatus)

	store.samples["b1"] = []sample.Status{sample.StatusReceived}
	res, err = svc.Recompute(context.Background(), "b1")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, StatusInProgress, res.NewStatus)

	store.samples["b1"] = []sample.Status{sample.StatusAnalysisComplete}
	res, err = svc.Recompute(context.Background(), "b1")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, StatusCompleted, res.NewStatus)
	require.NotNil(t, res.ReleasedAt)

	assert.Len(t, n.ofKind(notify.KindBookingCompleted), 1)
}

func TestForceComplete(t *testing.T) {
	t.Run("no-op when already completed", func(t *testing.T) {
		store := newMemStore()
		seedBooking(store, "b1", StatusCompleted)
		svc, n := newTestService(store)

		res, err := svc.ForceComplete(context.Background(), "b1", "admin-1", "stuck in lab queue")
		require.NoError(t, err)
		assert.False(t, res.Changed)
		assert.Empty(t, n.sent)
		assert.Empty(t, store.audits)
	})

	t.Run("completes and overwrites released_at", func(t *testing.T) {
		store := newMemStore()
		b := seedBooking(store, "b1", StatusInProgress)
		old := time.Now().Add(-48 * time.Hour)
		b.ReleasedAt = &old
		store.put(b)
		svc, n := newTestService(store)

		res, err := svc.ForceComplete(context.Background(), "b1", "admin-1", "customer confirmed pickup")
		require.NoError(t, err)
		assert.True(t, res.Changed)
		assert.Equal(t, StatusCompleted, res.NewStatus)
		require.NotNil(t, res.ReleasedAt)
		assert.True(t, res.ReleasedAt.After(old))

		require.Len(t, store.audits, 1)
		assert.Equal(t, "BOOKING_FORCE_COMPLETED", store.audits[0].Action)
		assert.Equal(t, "admin-1", store.audits[0].UserID)
		assert.Len(t, n.ofKind(notify.KindBookingCompleted), 1)
	})
}
