// Package order holds the Order aggregate and its lifecycle state machine.
//
// The lifecycle is a finite table from (Status, Event) to the next Status.
// Anything absent from the table is an InvalidTransitionError and leaves the
// order untouched. Delivered and Cancelled are terminal; re-delivering the
// event that led there is accepted as a no-op so at-least-once webhook
// retries never fail.
//
// Every effective transition increments the order version by one and yields
// an AuditRecord. Persisting the order is a compare-and-swap on the version
// the change was based on.
package order
