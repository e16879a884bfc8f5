package kernel

import (
	"errors"
	"strings"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

// ErrAddressIsNotConstructed is returned for a zero-value Address.
var ErrAddressIsNotConstructed = errs.NewValueIsRequiredError("address must be created via NewAddress")

// ZoneID names a delivery zone. Zones are computed by the storefront's
// geocoding collaborator; here they are opaque, case-insensitive labels.
type ZoneID string

// NormalizeZoneID trims and lower-cases a zone label.
func NormalizeZoneID(s string) ZoneID {
	return ZoneID(strings.ToLower(strings.TrimSpace(s)))
}

// Address is the delivery destination of an order.
type Address struct { //nolint:recvcheck //using for validation
	street string
	zone   ZoneID
	guard  guard.ConstructorGuard
}

// NewAddress validates and builds an Address. Both street and zone are required.
func NewAddress(street string, zone string) (Address, error) {
	addr := Address{guard: guard.NewConstructorGuard()}

	if err := errors.Join(addr.setStreet(street), addr.setZone(zone)); err != nil {
		return Address{}, err
	}
	return addr, nil
}

// Validate rejects addresses not built through NewAddress.
func (a Address) Validate() error {
	return a.guard.Validate(ErrAddressIsNotConstructed)
}

func (a Address) Street() string {
	return a.street
}

func (a Address) Zone() ZoneID {
	return a.zone
}

func (a *Address) setStreet(street string) error {
	street = strings.TrimSpace(street)
	if street == "" {
		return errs.NewValueIsRequiredError("street")
	}
	a.street = street
	return nil
}

func (a *Address) setZone(zone string) error {
	z := NormalizeZoneID(zone)
	if z == "" {
		return errs.NewValueIsRequiredError("zone")
	}
	a.zone = z
	return nil
}
