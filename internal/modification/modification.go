package modification

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"labportal/internal/booking"
	"labportal/internal/fault"
	"labportal/internal/user"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Side identifies which party created a modification. The counterparty rule
// keys off this, not off roles at response time.
type Side string

const (
	SideAdmin    Side = "admin"
	SideCustomer Side = "customer"
)

// Modification is a proposed quantity change to a service item, held pending
// until the counterparty approves or rejects it. Terminal once resolved.
type Modification struct {
	ID                   string          `json:"id"`
	BookingServiceItemID string          `json:"bookingServiceItemId"`
	OriginalQuantity     int             `json:"originalQuantity"`
	NewQuantity          int             `json:"newQuantity"`
	OriginalTotalPrice   decimal.Decimal `json:"originalTotalPrice"`
	NewTotalPrice        decimal.Decimal `json:"newTotalPrice"`
	Reason               string          `json:"reason"`
	Status               Status          `json:"status"`
	CreatedBy            string          `json:"createdBy"`
	CreatedBySide        Side            `json:"createdBySide"`
	ApprovedBy           *string         `json:"approvedBy,omitempty"`
	CreatedAt            time.Time       `json:"createdAt"`
	ApprovedAt           *time.Time      `json:"approvedAt,omitempty"`
}

// ItemContext is the parent chain the workflow validates against: the service
// item, its booking, and the booking owner's pricing tier.
type ItemContext struct {
	ItemID        string
	BookingID     string
	BookingStatus booking.Status
	BookingRef    string
	OwnerID       string
	OwnerUserType string
	ServiceID     string
	Quantity      int
	UnitPrice     decimal.Decimal
	TotalPrice    decimal.Decimal
}

// Store is the persistence contract. Resolve encapsulates the transactional
// price-delta application; it is a conditional update on status='pending' so
// two concurrent responses cannot both apply.
type Store interface {
	GetItem(ctx context.Context, itemID string) (*ItemContext, error)
	HasPending(ctx context.Context, itemID string) (bool, error)
	// Create inserts a pending modification. A concurrent pending row for the
	// same item surfaces as the duplicate-pending validation fault (backed by
	// a partial unique index).
	Create(ctx context.Context, m *Modification) error
	Get(ctx context.Context, id string) (*Modification, *ItemContext, error)
	// Resolve flips pending to approved/rejected. On approval it also applies
	// the quantity and price to the item and the delta to the booking total,
	// all in one transaction. Returns false when the row was no longer pending.
	Resolve(ctx context.Context, id string, approved bool, responderID string, resolvedAt time.Time) (bool, error)
}

// CanRespond is the single authorization predicate for responding, applied on
// both the customer and the admin route. The responder must be the
// counterparty of whoever created the modification, never the creator:
// admin-initiated means only the booking owner may respond, customer-initiated
// means only an admin may.
func CanRespond(m *Modification, responder *user.User, ownerID string) error {
	if responder.ID == m.CreatedBy {
		return fault.Forbidden("RESPONDER_IS_CREATOR", "The creator of a modification cannot respond to it")
	}
	switch m.CreatedBySide {
	case SideAdmin:
		if responder.ID != ownerID {
			return fault.Forbidden("NOT_COUNTERPARTY", "Only the booking owner may respond to this modification")
		}
	case SideCustomer:
		if !responder.IsAdmin() {
			return fault.Forbidden("NOT_COUNTERPARTY", "Only an administrator may respond to this modification")
		}
	default:
		return fault.Forbidden("NOT_COUNTERPARTY", "Unknown modification origin")
	}
	return nil
}
