package pricing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository looks up tiered service prices. Each service carries one price
// row per user type (internal, academic, industry).
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// UnitPrice returns the unit price for a service at the given pricing tier.
// The second return is false when no row matches the tier; callers fall back
// to the stored unit price of the line item.
func (r *Repository) UnitPrice(ctx context.Context, serviceID, userType string) (decimal.Decimal, bool, error) {
	const q = `
SELECT unit_price::text
FROM service_pricing
WHERE service_id = $1 AND user_type = $2
`
	var price decimal.Decimal
	if err := r.db.QueryRow(ctx, q, serviceID, userType).Scan(&price); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, err
	}
	return price, true, nil
}
