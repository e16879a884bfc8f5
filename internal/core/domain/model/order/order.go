package order

import (
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/oklog/ulid/v2"
)

// InitialVersion is the version of a freshly created order.
const InitialVersion int64 = 1

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
)

// Order is the aggregate root of the fulfillment lifecycle. Its state changes
// only through Apply, which consults the transition table and bumps the
// version on every effective change.
//
// Invariants:
//   - version starts at InitialVersion and grows by exactly one per applied event
//   - status is never Unknown
//   - a Preparing or later order always has a branch
//   - a DispatchedToCourier or later order always has a tracking id
type Order struct {
	id      kernel.UUID
	status  Status
	version int64

	branchID      *kernel.UUID
	trackingID    *string
	courierStatus *string

	dispatchAttempts int
	dispatchFailed   bool
	needsBranch      bool
	paymentConfirmed bool

	totalAmount int64
	couponCode  *string
	address     kernel.Address
	items       []Item

	createdAt time.Time
	updatedAt time.Time

	isConstructed bool
}

// NewOrder creates an order in the Created state.
//
// Parameters:
//   - id: order identifier
//   - address: validated delivery address
//   - items: at least one line item
//   - totalAmount: cart total in minor currency units, not negative
//   - couponCode: optional, empty for none
//   - now: creation timestamp
func NewOrder(
	id kernel.UUID,
	address kernel.Address,
	items []Item,
	totalAmount int64,
	couponCode string,
	now time.Time,
) (*Order, error) {
	o := &Order{
		status:        Created,
		version:       InitialVersion,
		createdAt:     now.UTC(),
		updatedAt:     now.UTC(),
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setAddress(address),
		o.setItems(items),
		o.setTotalAmount(totalAmount),
	); err != nil {
		return nil, err
	}

	if couponCode != "" {
		o.couponCode = &couponCode
	}
	return o, nil
}

// Snapshot is the flat persisted form of an Order. Repositories convert
// their rows to and from it.
type Snapshot struct {
	ID               kernel.UUID
	Status           Status
	Version          int64
	BranchID         *kernel.UUID
	TrackingID       *string
	CourierStatus    *string
	DispatchAttempts int
	DispatchFailed   bool
	NeedsBranch      bool
	PaymentConfirmed bool
	TotalAmount      int64
	CouponCode       *string
	Address          kernel.Address
	Items            []Item
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// RestoreOrder rebuilds an order from storage, re-checking the invariants a
// corrupted row could break.
func RestoreOrder(s Snapshot) (*Order, error) {
	o := &Order{
		branchID:         s.BranchID,
		trackingID:       s.TrackingID,
		courierStatus:    s.CourierStatus,
		dispatchAttempts: s.DispatchAttempts,
		dispatchFailed:   s.DispatchFailed,
		needsBranch:      s.NeedsBranch,
		paymentConfirmed: s.PaymentConfirmed,
		couponCode:       s.CouponCode,
		createdAt:        s.CreatedAt,
		updatedAt:        s.UpdatedAt,
		isConstructed:    true,
	}

	var versionErr error
	if s.Version < InitialVersion {
		versionErr = errs.NewVersionIsInvalidError("version", fmt.Errorf("%d is less than %d", s.Version, InitialVersion))
	}

	if err := errors.Join(
		o.setID(s.ID),
		s.Status.Validate(),
		versionErr,
		o.setAddress(s.Address),
		o.setItems(s.Items),
		o.setTotalAmount(s.TotalAmount),
	); err != nil {
		return nil, err
	}

	o.status = s.Status
	o.version = s.Version
	return o, nil
}

// Snapshot returns a copy of the order's state.
func (o *Order) Snapshot() Snapshot {
	items := make([]Item, len(o.items))
	copy(items, o.items)

	return Snapshot{
		ID:               o.id,
		Status:           o.status,
		Version:          o.version,
		BranchID:         o.branchID,
		TrackingID:       o.trackingID,
		CourierStatus:    o.courierStatus,
		DispatchAttempts: o.dispatchAttempts,
		DispatchFailed:   o.dispatchFailed,
		NeedsBranch:      o.needsBranch,
		PaymentConfirmed: o.paymentConfirmed,
		TotalAmount:      o.totalAmount,
		CouponCode:       o.couponCode,
		Address:          o.address,
		Items:            items,
		CreatedAt:        o.createdAt,
		UpdatedAt:        o.updatedAt,
	}
}

// Validate ensures the Order instance was properly constructed.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

func (o *Order) ID() kernel.UUID {
	return o.id
}

func (o *Order) Status() Status {
	return o.status
}

func (o *Order) Version() int64 {
	return o.version
}

// Branch returns the assigned branch, nil while unassigned.
func (o *Order) Branch() *kernel.UUID {
	return o.branchID
}

func (o *Order) TrackingID() *string {
	return o.trackingID
}

// CourierStatus is the raw status string last reported by the courier platform.
func (o *Order) CourierStatus() *string {
	return o.courierStatus
}

func (o *Order) DispatchAttempts() int {
	return o.dispatchAttempts
}

// DispatchFailed is set when dispatch exhausted its attempts and stays set
// until a later dispatch succeeds.
func (o *Order) DispatchFailed() bool {
	return o.dispatchFailed
}

func (o *Order) NeedsBranch() bool {
	return o.needsBranch
}

func (o *Order) PaymentConfirmed() bool {
	return o.paymentConfirmed
}

func (o *Order) TotalAmount() int64 {
	return o.totalAmount
}

func (o *Order) CouponCode() *string {
	return o.couponCode
}

func (o *Order) Address() kernel.Address {
	return o.address
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}

func (o *Order) Items() []Item {
	return append([]Item(nil), o.items...)
}

func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// Apply runs event through the transition table.
//
// Returns:
//   - the audit record and applied=true when the order changed
//   - a zero record and applied=false for an idempotent terminal re-delivery
//   - *InvalidTransitionError when the event is illegal in the current state;
//     the order is left untouched
//   - a validation error when event data the transition needs is missing
func (o *Order) Apply(event Event, data EventData, actor Actor, now time.Time) (AuditRecord, bool, error) {
	if err := o.Validate(); err != nil {
		return AuditRecord{}, false, err
	}

	if IsTerminalRedelivery(o.status, event) {
		return AuditRecord{}, false, nil
	}

	next, ok := Next(o.status, event)
	if !ok {
		return AuditRecord{}, false, NewInvalidTransitionError(o.status, event, "")
	}

	if err := o.checkGuards(event, data); err != nil {
		return AuditRecord{}, false, err
	}

	from := o.status
	o.applyEffects(event, data)
	o.status = next
	o.version++
	o.updatedAt = now.UTC()

	return AuditRecord{
		ID:         ulid.Make().String(),
		OrderID:    o.id,
		From:       from,
		To:         next,
		Event:      event,
		Actor:      actor,
		Version:    o.version,
		OccurredAt: o.updatedAt,
	}, true, nil
}

func (o *Order) checkGuards(event Event, data EventData) error {
	switch event {
	case BranchAssigned:
		if data.BranchID == nil {
			return errs.NewValueIsRequiredError("branch id")
		}
		return data.BranchID.Validate()
	case PreparationStarted:
		if o.branchID == nil {
			return NewInvalidTransitionError(o.status, event, "branch is not assigned")
		}
	case DispatchSucceeded:
		if data.TrackingID == "" {
			return errs.NewValueIsRequiredError("tracking id")
		}
	}
	if data.DispatchAttempts < 0 {
		return errs.NewValueIsInvalidErrorWithCause("dispatch attempts", fmt.Errorf("%d is negative", data.DispatchAttempts))
	}
	return nil
}

func (o *Order) applyEffects(event Event, data EventData) {
	switch event {
	case BranchAssigned:
		id := *data.BranchID
		o.branchID = &id
		o.needsBranch = false
	case BranchUnassigned:
		o.branchID = nil
		o.needsBranch = true
	case PaymentConfirmed:
		o.paymentConfirmed = true
	case DispatchSucceeded:
		tracking := data.TrackingID
		o.trackingID = &tracking
		o.dispatchAttempts += data.DispatchAttempts
		o.dispatchFailed = false
	case DispatchFailed:
		o.dispatchAttempts += data.DispatchAttempts
		o.dispatchFailed = true
	}

	if data.CourierStatus != "" {
		raw := data.CourierStatus
		o.courierStatus = &raw
	}
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setAddress(address kernel.Address) error {
	if err := address.Validate(); err != nil {
		return err
	}
	o.address = address
	return nil
}

func (o *Order) setItems(items []Item) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredError("items")
	}
	o.items = append([]Item(nil), items...)
	return nil
}

func (o *Order) setTotalAmount(total int64) error {
	if total < 0 {
		return errs.NewValueIsInvalidErrorWithCause("total amount is invalid", fmt.Errorf("%d is negative", total))
	}
	o.totalAmount = total
	return nil
}
