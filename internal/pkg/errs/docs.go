// Package errs provides the typed error taxonomy shared by the fulfillment
// service.
//
// Every error type follows the same shape:
//   - a sentinel variable (e.g. ErrValueIsRequired) usable with errors.Is
//   - a struct carrying the details, recoverable with errors.As
//   - constructors with and without a cause
//   - Unwrap returning the sentinel
//
// Validation failures (ValueIsRequiredError, ValueIsInvalidError,
// ValueIsOutOfRangeError) are surfaced to callers as 400-class results.
// ConcurrencyConflictError marks an optimistic version check that lost a race.
// PreconditionFailedError marks an operation refused before any side effect.
// ObjectNotFoundError is returned by repositories for missing rows.
package errs
