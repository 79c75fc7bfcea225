package booking

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"labportal/internal/audit"
	"labportal/internal/fault"
	"labportal/internal/sample"
	"labportal/pkg/db"
)

// Repository is the pgx-backed Store. Race-sensitive transitions are
// conditional updates keyed on the status read by the workflow, so a lost
// race shows up as zero rows affected instead of a silent overwrite.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

const bookingColumns = `
id, user_id, reference_number, status, total_amount::text,
preferred_start_date, preferred_end_date, released_at,
COALESCE(review_notes,''), reviewed_at, reviewed_by, created_at, updated_at
`

func scanBooking(row pgx.Row) (*BookingRequest, error) {
	var b BookingRequest
	if err := row.Scan(
		&b.ID, &b.UserID, &b.ReferenceNumber, &b.Status, &b.TotalAmount,
		&b.PreferredStartDate, &b.PreferredEndDate, &b.ReleasedAt,
		&b.ReviewNotes, &b.ReviewedAt, &b.ReviewedBy, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repository) GetBooking(ctx context.Context, id string) (*BookingRequest, error) {
	const q = `SELECT ` + bookingColumns + ` FROM booking_requests WHERE id = $1`
	b, err := scanBooking(r.db.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.NotFound("BOOKING_NOT_FOUND", "Booking not found")
		}
		return nil, err
	}
	return b, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]BookingRequest, error) {
	const q = `
SELECT ` + bookingColumns + `
FROM booking_requests
WHERE user_id = $1
ORDER BY created_at DESC
`
	return r.list(ctx, q, userID)
}

func (r *Repository) ListAll(ctx context.Context) ([]BookingRequest, error) {
	const q = `
SELECT ` + bookingColumns + `
FROM booking_requests
ORDER BY created_at DESC
`
	return r.list(ctx, q)
}

func (r *Repository) list(ctx context.Context, q string, args ...any) ([]BookingRequest, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BookingRequest
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *Repository) SampleStatuses(ctx context.Context, bookingID string) ([]sample.Status, error) {
	const q = `
SELECT st.status
FROM sample_tracking st
JOIN booking_service_items bsi ON bsi.id = st.booking_service_item_id
JOIN services s ON s.id = bsi.service_id
WHERE bsi.booking_request_id = $1 AND s.requires_sample
`
	rows, err := r.db.Query(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sample.Status
	for rows.Next() {
		var st sample.Status
		if err := rows.Scan(&st); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (r *Repository) WorkspaceEndDates(ctx context.Context, bookingID string) ([]time.Time, error) {
	const q = `
SELECT end_date
FROM workspace_bookings
WHERE booking_request_id = $1
`
	rows, err := r.db.Query(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) ApplyStatus(ctx context.Context, id string, from, to Status, releasedAt *time.Time) (bool, error) {
	const q = `
UPDATE booking_requests
SET status = $1,
    released_at = COALESCE(released_at, $2),
    updated_at = NOW()
WHERE id = $3 AND status = $4
`
	tag, err := r.db.Exec(ctx, q, string(to), releasedAt, id, string(from))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) CompleteOverride(ctx context.Context, id string, from Status, releasedAt time.Time, entry audit.Entry) (bool, error) {
	applied := false
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		const q = `
UPDATE booking_requests
SET status = 'completed',
    released_at = $1,
    updated_at = NOW()
WHERE id = $2 AND status = $3
`
		tag, err := tx.Exec(ctx, q, releasedAt, id, string(from))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		applied = true
		return audit.Insert(ctx, tx, entry)
	})
	return applied, err
}

func (r *Repository) Cancel(ctx context.Context, id string, upd CancelUpdate, entry audit.Entry) (bool, error) {
	applied := false
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		const q = `
UPDATE booking_requests
SET status = 'cancelled',
    reviewed_by = $1,
    review_notes = $2,
    reviewed_at = $3,
    updated_at = NOW()
WHERE id = $4
  AND status <> 'cancelled'
  AND ($5 OR status <> 'completed')
`
		tag, err := tx.Exec(ctx, q, upd.ReviewedBy, upd.ReviewNotes, upd.ReviewedAt, id, upd.AllowCompleted)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		applied = true
		return audit.Insert(ctx, tx, entry)
	})
	return applied, err
}

func (r *Repository) UpdateTimeline(ctx context.Context, id string, start, end *time.Time) (bool, error) {
	const q = `
UPDATE booking_requests
SET preferred_start_date = $1,
    preferred_end_date = $2,
    updated_at = NOW()
WHERE id = $3 AND status <> 'cancelled'
`
	tag, err := r.db.Exec(ctx, q, start, end, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) Transition(ctx context.Context, id string, from, to Status, rev ReviewUpdate, entry audit.Entry) (bool, error) {
	applied := false
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var tag pgconn.CommandTag
		var err error
		if rev.ReviewedBy == "" {
			const q = `
UPDATE booking_requests
SET status = $1, updated_at = NOW()
WHERE id = $2 AND status = $3
`
			tag, err = tx.Exec(ctx, q, string(to), id, string(from))
		} else {
			const q = `
UPDATE booking_requests
SET status = $1,
    reviewed_by = $2,
    review_notes = $3,
    reviewed_at = $4,
    updated_at = NOW()
WHERE id = $5 AND status = $6
`
			tag, err = tx.Exec(ctx, q, string(to), rev.ReviewedBy, rev.ReviewNotes, rev.ReviewedAt, id, string(from))
		}
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		applied = true
		return audit.Insert(ctx, tx, entry)
	})
	return applied, err
}
