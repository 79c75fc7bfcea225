package sample

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"labportal/internal/fault"
)

// Tracking is the lab-processing state record for one physical sample.
type Tracking struct {
	ID                   string    `json:"id"`
	BookingServiceItemID string    `json:"bookingServiceItemId"`
	BookingRequestID     string    `json:"bookingRequestId"`
	SampleIdentifier     string    `json:"sampleIdentifier"`
	Status               Status    `json:"status"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Tracking, error) {
	const q = `
SELECT st.id, st.booking_service_item_id, bsi.booking_request_id,
       st.sample_identifier, st.status, st.created_at, st.updated_at
FROM sample_tracking st
JOIN booking_service_items bsi ON bsi.id = st.booking_service_item_id
WHERE st.id = $1
`
	var t Tracking
	if err := r.db.QueryRow(ctx, q, id).Scan(
		&t.ID, &t.BookingServiceItemID, &t.BookingRequestID,
		&t.SampleIdentifier, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.NotFound("SAMPLE_NOT_FOUND", "Sample not found")
		}
		return nil, err
	}
	return &t, nil
}

func (r *Repository) ListByBooking(ctx context.Context, bookingID string) ([]Tracking, error) {
	const q = `
SELECT st.id, st.booking_service_item_id, bsi.booking_request_id,
       st.sample_identifier, st.status, st.created_at, st.updated_at
FROM sample_tracking st
JOIN booking_service_items bsi ON bsi.id = st.booking_service_item_id
WHERE bsi.booking_request_id = $1
ORDER BY st.created_at
`
	rows, err := r.db.Query(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Tracking
	for rows.Next() {
		var t Tracking
		if err := rows.Scan(
			&t.ID, &t.BookingServiceItemID, &t.BookingRequestID,
			&t.SampleIdentifier, &t.Status, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, status Status) error {
	const q = `
UPDATE sample_tracking
SET status = $1, updated_at = NOW()
WHERE id = $2
`
	tag, err := r.db.Exec(ctx, q, string(status), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFound("SAMPLE_NOT_FOUND", "Sample not found")
	}
	return nil
}
