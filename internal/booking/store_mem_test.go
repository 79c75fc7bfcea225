package booking

import (
	"context"
	"sync"
	"time"

	"labportal/internal/audit"
	"labportal/internal/fault"
	"labportal/internal/notify"
	"labportal/internal/sample"
)

// memStore is an in-memory Store used by the workflow tests. It mirrors the
// pgx repository's conditional-update semantics: mutations succeed only when
// the expected current status still holds.
type memStore struct {
	mu       sync.Mutex
	bookings map[string]*BookingRequest
	samples  map[string][]sample.Status
	ends     map[string][]time.Time
	audits   []audit.Entry
}

func newMemStore() *memStore {
	return &memStore{
		bookings: make(map[string]*BookingRequest),
		samples:  make(map[string][]sample.Status),
		ends:     make(map[string][]time.Time),
	}
}

func (m *memStore) put(b *BookingRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	m.bookings[b.ID] = &cp
}

func (m *memStore) GetBooking(_ context.Context, id string) (*BookingRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, fault.NotFound("BOOKING_NOT_FOUND", "Booking not found")
	}
	cp := *b
	return &cp, nil
}

func (m *memStore) SampleStatuses(_ context.Context, bookingID string) ([]sample.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sample.Status(nil), m.samples[bookingID]...), nil
}

func (m *memStore) WorkspaceEndDates(_ context.Context, bookingID string) ([]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Time(nil), m.ends[bookingID]...), nil
}

func (m *memStore) ApplyStatus(_ context.Context, id string, from, to Status, releasedAt *time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	if releasedAt != nil && b.ReleasedAt == nil {
		b.ReleasedAt = releasedAt
	}
	return true, nil
}

func (m *memStore) CompleteOverride(_ context.Context, id string, from Status, releasedAt time.Time, entry audit.Entry) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = StatusCompleted
	b.ReleasedAt = &releasedAt
	m.audits = append(m.audits, entry)
	return true, nil
}

func (m *memStore) Cancel(_ context.Context, id string, upd CancelUpdate, entry audit.Entry) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status == StatusCancelled {
		return false, nil
	}
	if !upd.AllowCompleted && b.Status == StatusCompleted {
		return false, nil
	}
	b.Status = StatusCancelled
	b.ReviewedBy = &upd.ReviewedBy
	b.ReviewNotes = upd.ReviewNotes
	at := upd.ReviewedAt
	b.ReviewedAt = &at
	m.audits = append(m.audits, entry)
	return true, nil
}

func (m *memStore) UpdateTimeline(_ context.Context, id string, start, end *time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status == StatusCancelled {
		return false, nil
	}
	b.PreferredStartDate = start
	b.PreferredEndDate = end
	return true, nil
}

func (m *memStore) Transition(_ context.Context, id string, from, to Status, rev ReviewUpdate, entry audit.Entry) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	if rev.ReviewedBy != "" {
		b.ReviewedBy = &rev.ReviewedBy
		b.ReviewNotes = rev.ReviewNotes
		at := rev.ReviewedAt
		b.ReviewedAt = &at
	}
	m.audits = append(m.audits, entry)
	return true, nil
}

// fakeNotifier records every message; failing lets tests assert that
// notification errors are swallowed.
type fakeNotifier struct {
	mu      sync.Mutex
	sent    []notify.Message
	failing bool
}

func (f *fakeNotifier) Send(_ context.Context, msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errTestNotify
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeNotifier) SendAll(_ context.Context, userIDs []string, msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errTestNotify
	}
	for _, id := range userIDs {
		m := msg
		m.UserID = id
		f.sent = append(f.sent, m)
	}
	return nil
}

func (f *fakeNotifier) ofKind(kind string) []notify.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []notify.Message
	for _, m := range f.sent {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

type fakeAdmins struct{ ids []string }

func (f fakeAdmins) ListActiveAdminIDs(context.Context) ([]string, error) {
	return f.ids, nil
}
