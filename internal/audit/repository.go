package audit

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Entry struct {
	UserID   string
	Action   string
	Entity   string
	EntityID string
	Metadata any
}

// Insert writes an audit entry inside the caller's transaction. Used where
// the entry must be durable alongside the state change (cancellation, admin
// override, review actions).
func Insert(ctx context.Context, tx pgx.Tx, e Entry) error {
	_, err := tx.Exec(ctx, insertSQL, e.UserID, e.Action, e.Entity, e.EntityID, marshalMetadata(e.Metadata))
	return err
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Record writes an informational entry outside any transaction (modification
// responses). Failures here never undo the state change they describe.
func (r *Repository) Record(ctx context.Context, e Entry) error {
	_, err := r.db.Exec(ctx, insertSQL, e.UserID, e.Action, e.Entity, e.EntityID, marshalMetadata(e.Metadata))
	return err
}

const insertSQL = `
INSERT INTO audit_logs (user_id, action, entity, entity_id, metadata)
VALUES ($1, $2, $3, $4, CAST($5 AS jsonb))
`

func marshalMetadata(metadata any) *string {
	if metadata == nil {
		return nil
	}
	b, _ := json.Marshal(metadata)
	s := string(b)
	return &s
}
