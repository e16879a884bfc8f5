package services

import (
	"cmp"
	"slices"

	"fulfillment/internal/core/domain/model/branch"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
)

// Assignment is the result of resolving a branch for an address. A nil
// Branch means Unassigned: no active branch serves the zone. That is a
// normal outcome which parks the order for a human, not an error.
type Assignment struct {
	Branch *branch.Branch
}

// Assigned reports whether a branch was found.
func (a Assignment) Assigned() bool {
	return a.Branch != nil
}

// Event converts the assignment into the order event that records it.
func (a Assignment) Event() (order.Event, order.EventData) {
	if a.Branch == nil {
		return order.BranchUnassigned, order.EventData{}
	}
	id := a.Branch.ID()
	return order.BranchAssigned, order.EventData{BranchID: &id}
}

// BranchResolver picks the operating branch for a delivery address.
//
// Business rules:
//   - Only active branches are considered
//   - A branch matches when its zone set contains the address zone
//   - Among matches the lowest priority value wins, then the branch code
//     so the choice is deterministic
//
// Example usage:
//
//	resolver := services.NewBranchResolver()
//	assignment, err := resolver.Resolve(o.Address(), branches)
//	if err != nil {
//	    return err
//	}
//	event, data := assignment.Event()
type BranchResolver struct{}

func NewBranchResolver() BranchResolver {
	return BranchResolver{}
}

// Resolve returns the winning branch, or an empty Assignment when none
// matches. Errors are reserved for invalid inputs.
func (BranchResolver) Resolve(address kernel.Address, branches []*branch.Branch) (Assignment, error) {
	if err := address.Validate(); err != nil {
		return Assignment{}, err
	}

	candidates := make([]*branch.Branch, 0, len(branches))
	for _, b := range branches {
		if err := b.Validate(); err != nil {
			return Assignment{}, err
		}
		if b.Serves(address.Zone()) {
			candidates = append(candidates, b)
		}
	}
	if len(candidates) == 0 {
		return Assignment{}, nil
	}

	best := slices.MinFunc(candidates, func(a, b *branch.Branch) int {
		return cmp.Or(cmp.Compare(a.Priority(), b.Priority()), cmp.Compare(a.Code(), b.Code()))
	})
	return Assignment{Branch: best}, nil
}
