package serviceitem

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"labportal/internal/fault"
)

// Record is one priced line within a booking. Quantity and totals change only
// through the modification workflow's transactional resolution.
type Record struct {
	ID               string          `json:"id"`
	BookingRequestID string          `json:"bookingRequestId"`
	ServiceID        string          `json:"serviceId"`
	ServiceName      string          `json:"serviceName"`
	RequiresSample   bool            `json:"requiresSample"`
	Quantity         int             `json:"quantity"`
	DurationMonths   int             `json:"durationMonths"`
	UnitPrice        decimal.Decimal `json:"unitPrice"`
	TotalPrice       decimal.Decimal `json:"totalPrice"`
	CreatedAt        time.Time       `json:"createdAt"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const itemColumns = `
bsi.id, bsi.booking_request_id, bsi.service_id, s.name, s.requires_sample,
bsi.quantity, bsi.duration_months, bsi.unit_price::text, bsi.total_price::text, bsi.created_at
`

func (r *Repository) GetByID(ctx context.Context, id string) (*Record, error) {
	const q = `
SELECT ` + itemColumns + `
FROM booking_service_items bsi
JOIN services s ON s.id = bsi.service_id
WHERE bsi.id = $1
`
	var rec Record
	if err := r.db.QueryRow(ctx, q, id).Scan(
		&rec.ID, &rec.BookingRequestID, &rec.ServiceID, &rec.ServiceName, &rec.RequiresSample,
		&rec.Quantity, &rec.DurationMonths, &rec.UnitPrice, &rec.TotalPrice, &rec.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.NotFound("SERVICE_ITEM_NOT_FOUND", "Service item not found")
		}
		return nil, err
	}
	return &rec, nil
}

func (r *Repository) ListByBooking(ctx context.Context, bookingID string) ([]Record, error) {
	const q = `
SELECT ` + itemColumns + `
FROM booking_service_items bsi
JOIN services s ON s.id = bsi.service_id
WHERE bsi.booking_request_id = $1
ORDER BY bsi.created_at
`
	rows, err := r.db.Query(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.BookingRequestID, &rec.ServiceID, &rec.ServiceName, &rec.RequiresSample,
			&rec.Quantity, &rec.DurationMonths, &rec.UnitPrice, &rec.TotalPrice, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
