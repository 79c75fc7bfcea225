package modification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"labportal/internal/fault"
	"labportal/pkg/db"
)

// Repository is the pgx-backed Store. The single-pending-per-item invariant
// is enforced twice: the workflow's read check for a friendly message, and a
// partial unique index (booking_service_item_id WHERE status = 'pending')
// that closes the check-then-act window under concurrent creates.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

func (r *Repository) GetItem(ctx context.Context, itemID string) (*ItemContext, error) {
	const q = `
SELECT bsi.id, bsi.booking_request_id, br.status, br.reference_number,
       br.user_id, u.user_type, bsi.service_id, bsi.quantity,
       bsi.unit_price::text, bsi.total_price::text
FROM booking_service_items bsi
JOIN booking_requests br ON br.id = bsi.booking_request_id
JOIN users u ON u.id = br.user_id
WHERE bsi.id = $1
`
	var ic ItemContext
	if err := r.db.QueryRow(ctx, q, itemID).Scan(
		&ic.ItemID, &ic.BookingID, &ic.BookingStatus, &ic.BookingRef,
		&ic.OwnerID, &ic.OwnerUserType, &ic.ServiceID, &ic.Quantity,
		&ic.UnitPrice, &ic.TotalPrice,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.NotFound("SERVICE_ITEM_NOT_FOUND", "Service item not found")
		}
		return nil, err
	}
	return &ic, nil
}

func (r *Repository) HasPending(ctx context.Context, itemID string) (bool, error) {
	const q = `
SELECT EXISTS (
  SELECT 1 FROM sample_modifications
  WHERE booking_service_item_id = $1 AND status = 'pending'
)
`
	var exists bool
	if err := r.db.QueryRow(ctx, q, itemID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *Repository) Create(ctx context.Context, m *Modification) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	const q = `
INSERT INTO sample_modifications
  (id, booking_service_item_id, original_quantity, new_quantity,
   original_total_price, new_total_price, reason, status,
   created_by, created_by_side, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`
	_, err := r.db.Exec(ctx, q,
		m.ID, m.BookingServiceItemID, m.OriginalQuantity, m.NewQuantity,
		m.OriginalTotalPrice, m.NewTotalPrice, m.Reason, string(m.Status),
		m.CreatedBy, string(m.CreatedBySide), m.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fault.Validation("MODIFICATION_PENDING", "A pending modification already exists for this service item")
		}
		return err
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*Modification, *ItemContext, error) {
	const q = `
SELECT id, booking_service_item_id, original_quantity, new_quantity,
       original_total_price::text, new_total_price::text, reason, status,
       created_by, created_by_side, approved_by, created_at, approved_at
FROM sample_modifications
WHERE id = $1
`
	var m Modification
	if err := r.db.QueryRow(ctx, q, id).Scan(
		&m.ID, &m.BookingServiceItemID, &m.OriginalQuantity, &m.NewQuantity,
		&m.OriginalTotalPrice, &m.NewTotalPrice, &m.Reason, &m.Status,
		&m.CreatedBy, &m.CreatedBySide, &m.ApprovedBy, &m.CreatedAt, &m.ApprovedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, fault.NotFound("MODIFICATION_NOT_FOUND", "Modification not found")
		}
		return nil, nil, err
	}

	item, err := r.GetItem(ctx, m.BookingServiceItemID)
	if err != nil {
		return nil, nil, err
	}
	return &m, item, nil
}

func (r *Repository) Resolve(ctx context.Context, id string, approved bool, responderID string, resolvedAt time.Time) (bool, error) {
	applied := false
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		// Conditional on 'pending': of two concurrent responses only one can
		// flip the row; the loser sees zero rows and reports already-processed.
		const qResolve = `
UPDATE sample_modifications
SET status = CASE WHEN $1 THEN 'approved' ELSE 'rejected' END,
    approved_by = $2,
    approved_at = $3
WHERE id = $4 AND status = 'pending'
RETURNING booking_service_item_id, new_quantity,
          new_total_price::text, original_total_price::text
`
		var itemID string
		var newQuantity int
		var newTotal, originalTotal string
		err := tx.QueryRow(ctx, qResolve, approved, responderID, resolvedAt, id).
			Scan(&itemID, &newQuantity, &newTotal, &originalTotal)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		applied = true

		if !approved {
			return nil
		}

		const qItem = `
UPDATE booking_service_items
SET quantity = $1,
    total_price = CAST($2 AS numeric),
    updated_at = NOW()
WHERE id = $3
`
		if _, err := tx.Exec(ctx, qItem, newQuantity, newTotal, itemID); err != nil {
			return err
		}

		// The delta may be negative; the booking total moves by exactly
		// new_total_price - original_total_price.
		const qBooking = `
UPDATE booking_requests
SET total_amount = total_amount + (CAST($1 AS numeric) - CAST($2 AS numeric)),
    updated_at = NOW()
WHERE id = (SELECT booking_request_id FROM booking_service_items WHERE id = $3)
`
		_, err = tx.Exec(ctx, qBooking, newTotal, originalTotal, itemID)
		return err
	})
	return applied, err
}
