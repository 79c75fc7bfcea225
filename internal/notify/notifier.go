package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Kinds of in-app notifications the workflow core emits.
const (
	KindBookingCompleted     = "booking_completed"
	KindBookingCancelled     = "booking_cancelled"
	KindBookingReviewed      = "booking_reviewed"
	KindModificationProposed = "modification_proposed"
	KindModificationResolved = "modification_resolved"
)

type Message struct {
	UserID    string `json:"userId"`
	Kind      string `json:"kind"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	BookingID string `json:"bookingId,omitempty"`
}

// Notifier persists an in-app notification row and publishes it to the
// recipient's Redis channel for live delivery. All calls are best-effort
// from the workflow core's point of view: callers log and swallow errors.
type Notifier struct {
	db  *pgxpool.Pool
	rdb *redis.Client
	log zerolog.Logger
}

func NewNotifier(db *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *Notifier {
	return &Notifier{db: db, rdb: rdb, log: log}
}

func (n *Notifier) Send(ctx context.Context, msg Message) error {
	const q = `
INSERT INTO notifications (user_id, kind, title, body, booking_id)
VALUES ($1, $2, $3, $4, NULLIF($5, ''))
`
	if _, err := n.db.Exec(ctx, q, msg.UserID, msg.Kind, msg.Title, msg.Body, msg.BookingID); err != nil {
		return err
	}

	// Live delivery is optional; without Redis the row alone is enough.
	if n.rdb == nil {
		return nil
	}
	payload, _ := json.Marshal(msg)
	channel := fmt.Sprintf("notifications:user:%s", msg.UserID)
	if err := n.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		n.log.Warn().Err(err).Str("channel", channel).Msg("notification publish failed")
	}
	return nil
}

// SendAll fans a message out to a recipient list, typically the active admin
// directory. The first persistence error is returned; remaining recipients
// are still attempted.
func (n *Notifier) SendAll(ctx context.Context, userIDs []string, msg Message) error {
	var firstErr error
	for _, id := range userIDs {
		m := msg
		m.UserID = id
		if err := n.Send(ctx, m); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
