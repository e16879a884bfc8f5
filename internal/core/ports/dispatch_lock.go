package ports

import (
	"context"
	"errors"
	"time"
)

// ErrLockHeld is returned by TryAcquire when another holder owns the key.
var ErrLockHeld = errors.New("lock is held")

// Lock is an acquired lease. Release is safe to call more than once and
// never releases a lease that expired and was taken by someone else.
type Lock interface {
	Release(ctx context.Context) error
}

// Locker hands out short-lived exclusive leases keyed by string.
type Locker interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}
