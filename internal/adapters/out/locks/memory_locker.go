package locks

import (
	"context"
	"sync"
	"time"

	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// MemoryLocker is an in-process ports.Locker with the same expiry and
// token semantics as RedisLocker.
type MemoryLocker struct {
	mu     sync.Mutex
	leases map[string]lease
	seq    uint64
	now    func() time.Time
}

type lease struct {
	token   uint64
	expires time.Time
}

var _ ports.Locker = (*MemoryLocker)(nil)

// NewMemoryLocker uses time.Now when now is nil.
func NewMemoryLocker(now func() time.Time) *MemoryLocker {
	if now == nil {
		now = time.Now
	}
	return &MemoryLocker{leases: make(map[string]lease), now: now}
}

func (l *MemoryLocker) TryAcquire(_ context.Context, key string, ttl time.Duration) (ports.Lock, error) {
	if key == "" {
		return nil, errs.NewValueIsRequiredError("lock key")
	}
	if ttl <= 0 {
		return nil, errs.NewValueIsOutOfRangeError("lock ttl", ttl, time.Millisecond, "unbounded")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if held, ok := l.leases[key]; ok && now.Before(held.expires) {
		return nil, ports.ErrLockHeld
	}

	l.seq++
	l.leases[key] = lease{token: l.seq, expires: now.Add(ttl)}
	return &memoryLock{locker: l, key: key, token: l.seq}, nil
}

type memoryLock struct {
	locker *MemoryLocker
	key    string
	token  uint64
}

func (m *memoryLock) Release(context.Context) error {
	m.locker.mu.Lock()
	defer m.locker.mu.Unlock()

	if held, ok := m.locker.leases[m.key]; ok && held.token == m.token {
		delete(m.locker.leases, m.key)
	}
	return nil
}
