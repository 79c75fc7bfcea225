package workspace

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Slot is a reserved block of physical lab workspace within a booking.
type Slot struct {
	ID               string    `json:"id"`
	BookingRequestID string    `json:"bookingRequestId"`
	StartDate        time.Time `json:"startDate"`
	EndDate          time.Time `json:"endDate"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListByBooking(ctx context.Context, bookingID string) ([]Slot, error) {
	const q = `
SELECT id, booking_request_id, start_date, end_date
FROM workspace_bookings
WHERE booking_request_id = $1
ORDER BY start_date
`
	rows, err := r.db.Query(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Slot
	for rows.Next() {
		var s Slot
		if err := rows.Scan(&s.ID, &s.BookingRequestID, &s.StartDate, &s.EndDate); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
