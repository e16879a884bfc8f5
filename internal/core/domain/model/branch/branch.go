// Package branch models the bakery's operating branches and the delivery
// zones each one serves.
package branch

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

var ErrBranchIsNotConstructed = errors.New("Branch must be created via NewBranch constructor")

// Branch is an operating location. Lower Priority values win when several
// branches serve the same zone.
type Branch struct {
	id       kernel.UUID
	code     string
	zones    []kernel.ZoneID
	active   bool
	priority int

	isConstructed bool
}

// NewBranch validates and builds a Branch. Zones are normalized and
// de-duplicated.
func NewBranch(id kernel.UUID, code string, zones []string, active bool, priority int) (*Branch, error) {
	b := &Branch{
		id:            id,
		code:          strings.ToUpper(strings.TrimSpace(code)),
		active:        active,
		priority:      priority,
		isConstructed: true,
	}

	var codeErr, priorityErr error
	if b.code == "" {
		codeErr = errs.NewValueIsRequiredError("branch code")
	}
	if priority < 0 {
		priorityErr = errs.NewValueIsInvalidErrorWithCause("priority", fmt.Errorf("%d is negative", priority))
	}
	if err := errors.Join(id.Validate(), codeErr, priorityErr); err != nil {
		return nil, err
	}

	for _, z := range zones {
		zone := kernel.NormalizeZoneID(z)
		if zone != "" && !slices.Contains(b.zones, zone) {
			b.zones = append(b.zones, zone)
		}
	}
	return b, nil
}

func (b *Branch) Validate() error {
	if b == nil || !b.isConstructed {
		return ErrBranchIsNotConstructed
	}
	return nil
}

func (b *Branch) ID() kernel.UUID {
	return b.id
}

func (b *Branch) Code() string {
	return b.code
}

func (b *Branch) Zones() []kernel.ZoneID {
	return slices.Clone(b.zones)
}

func (b *Branch) Active() bool {
	return b.active
}

func (b *Branch) Priority() int {
	return b.priority
}

// Serves reports whether the branch is active and covers zone.
func (b *Branch) Serves(zone kernel.ZoneID) bool {
	return b.active && slices.Contains(b.zones, kernel.NormalizeZoneID(string(zone)))
}
