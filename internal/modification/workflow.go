package modification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"labportal/internal/audit"
	"labportal/internal/booking"
	"labportal/internal/fault"
	"labportal/internal/notify"
	"labportal/internal/user"
)

// MinReasonLength is the shortest acceptable justification for a proposal.
const MinReasonLength = 10

type Notifier interface {
	Send(ctx context.Context, msg notify.Message) error
	SendAll(ctx context.Context, userIDs []string, msg notify.Message) error
}

type AdminDirectory interface {
	ListActiveAdminIDs(ctx context.Context) ([]string, error)
}

// PriceSource looks up the tier unit price for a service. A miss falls back
// to the unit price stored on the line item.
type PriceSource interface {
	UnitPrice(ctx context.Context, serviceID, userType string) (decimal.Decimal, bool, error)
}

// Auditor records informational audit entries outside the state-change
// transaction.
type Auditor interface {
	Record(ctx context.Context, e audit.Entry) error
}

// Workflow implements the two-party proposal/approval state machine for
// service-item quantity changes.
type Workflow struct {
	store    Store
	prices   PriceSource
	notifier Notifier
	admins   AdminDirectory
	auditor  Auditor
	log      zerolog.Logger
	now      func() time.Time
}

func NewWorkflow(store Store, prices PriceSource, notifier Notifier, admins AdminDirectory, auditor Auditor, log zerolog.Logger) *Workflow {
	return &Workflow{
		store:    store,
		prices:   prices,
		notifier: notifier,
		admins:   admins,
		auditor:  auditor,
		log:      log,
		now:      time.Now,
	}
}

// Create proposes a quantity change for a service item on behalf of either
// party. Preconditions are checked in order: item exists, caller may propose,
// booking is adjustable (customer path), no pending proposal, reason long
// enough, quantity positive.
func (w *Workflow) Create(ctx context.Context, itemID string, creator *user.User, side Side, newQuantity int, reason string) (*Modification, error) {
	item, err := w.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if side == SideCustomer {
		if item.OwnerID != creator.ID {
			return nil, fault.Forbidden("NOT_BOOKING_OWNER", "You do not own this booking")
		}
		switch item.BookingStatus {
		case booking.StatusApproved, booking.StatusInProgress:
		default:
			return nil, fault.Validation("BOOKING_NOT_ADJUSTABLE",
				fmt.Sprintf("Modifications are not allowed while the booking is %s", item.BookingStatus))
		}
	}

	pending, err := w.store.HasPending(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, fault.Validation("MODIFICATION_PENDING", "A pending modification already exists for this service item")
	}

	if len(strings.TrimSpace(reason)) < MinReasonLength {
		return nil, fault.Validation("REASON_TOO_SHORT",
			fmt.Sprintf("Reason must be at least %d characters", MinReasonLength))
	}
	if newQuantity <= 0 {
		return nil, fault.Validation("QUANTITY_INVALID", "New quantity must be greater than zero")
	}

	// Price against the booking owner's tier; fall back to the unit price the
	// item was booked at when no tier row exists.
	unitPrice, ok, err := w.prices.UnitPrice(ctx, item.ServiceID, item.OwnerUserType)
	if err != nil {
		return nil, err
	}
	if !ok {
		unitPrice = item.UnitPrice
	}

	m := &Modification{
		BookingServiceItemID: itemID,
		OriginalQuantity:     item.Quantity,
		NewQuantity:          newQuantity,
		OriginalTotalPrice:   item.TotalPrice,
		NewTotalPrice:        unitPrice.Mul(decimal.NewFromInt(int64(newQuantity))),
		Reason:               strings.TrimSpace(reason),
		Status:               StatusPending,
		CreatedBy:            creator.ID,
		CreatedBySide:        side,
		CreatedAt:            w.now(),
	}
	if err := w.store.Create(ctx, m); err != nil {
		return nil, err
	}

	w.notifyProposed(ctx, m, item)
	return m, nil
}

// Respond resolves a pending modification. Only the counterparty of the
// creator may respond; approval applies the quantity/price change and the
// booking-total delta atomically, rejection has no pricing side effect.
func (w *Workflow) Respond(ctx context.Context, modificationID string, approved bool, responder *user.User) (*Modification, error) {
	m, item, err := w.store.Get(ctx, modificationID)
	if err != nil {
		return nil, err
	}
	if m.Status != StatusPending {
		return nil, fault.Validation("ALREADY_PROCESSED", "Modification has already been processed")
	}
	if err := CanRespond(m, responder, item.OwnerID); err != nil {
		return nil, err
	}

	now := w.now()
	applied, err := w.store.Resolve(ctx, m.ID, approved, responder.ID, now)
	if err != nil {
		return nil, err
	}
	if !applied {
		// A concurrent response won the conditional update.
		return nil, fault.Validation("ALREADY_PROCESSED", "Modification has already been processed")
	}

	m.Status = StatusRejected
	outcome := "rejected"
	if approved {
		m.Status = StatusApproved
		outcome = "approved"
	}
	m.ApprovedBy = &responder.ID
	m.ApprovedAt = &now

	// Informational entry: the resolution already committed, so a failure
	// here is logged, never propagated.
	if err := w.auditor.Record(ctx, audit.Entry{
		UserID:   responder.ID,
		Action:   "MODIFICATION_" + strings.ToUpper(outcome),
		Entity:   "sample_modification",
		EntityID: m.ID,
		Metadata: map[string]any{
			"bookingServiceItemId": m.BookingServiceItemID,
			"originalQuantity":     m.OriginalQuantity,
			"newQuantity":          m.NewQuantity,
			"priceDelta":           m.NewTotalPrice.Sub(m.OriginalTotalPrice).String(),
		},
	}); err != nil {
		w.log.Warn().Err(err).Str("modification_id", m.ID).Msg("modification audit failed")
	}

	w.notifyResolved(ctx, m, item, outcome)
	return m, nil
}

func (w *Workflow) notifyProposed(ctx context.Context, m *Modification, item *ItemContext) {
	msg := notify.Message{
		Kind:      notify.KindModificationProposed,
		Title:     "Modification proposed",
		Body:      fmt.Sprintf("A quantity change (%d to %d) was proposed for booking %s.", m.OriginalQuantity, m.NewQuantity, item.BookingRef),
		BookingID: item.BookingID,
	}
	var err error
	if m.CreatedBySide == SideAdmin {
		msg.UserID = item.OwnerID
		err = w.notifier.Send(ctx, msg)
	} else {
		var adminIDs []string
		adminIDs, err = w.admins.ListActiveAdminIDs(ctx)
		if err == nil {
			err = w.notifier.SendAll(ctx, adminIDs, msg)
		}
	}
	if err != nil {
		w.log.Warn().Err(err).Str("modification_id", m.ID).Msg("proposal notification failed")
	}
}

func (w *Workflow) notifyResolved(ctx context.Context, m *Modification, item *ItemContext, outcome string) {
	// The other party here is whoever created the proposal.
	err := w.notifier.Send(ctx, notify.Message{
		UserID:    m.CreatedBy,
		Kind:      notify.KindModificationResolved,
		Title:     "Modification " + outcome,
		Body:      fmt.Sprintf("Your proposed quantity change for booking %s was %s.", item.BookingRef, outcome),
		BookingID: item.BookingID,
	})
	if err != nil {
		w.log.Warn().Err(err).Str("modification_id", m.ID).Msg("resolution notification failed")
	}
}
