package commands_test

import (
	"context"
	"errors"
	"maps"
	"sync"
	"testing"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/webhook"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// memoryStore keeps orders and webhook events in maps with copy-on-begin
// transactions, enough to exercise dedupe and version races end to end.
type memoryStore struct {
	mu     sync.Mutex
	orders map[kernel.UUID]order.Snapshot
	events map[string]webhook.Event
	audit  []order.AuditRecord

	// updateFailures makes that many Update calls fail with a version
	// conflict, as if another writer had won the race.
	updateFailures int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		orders: map[kernel.UUID]order.Snapshot{},
		events: map[string]webhook.Event{},
	}
}

func (s *memoryStore) put(o *order.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID()] = o.Snapshot()
}

func (s *memoryStore) order(t *testing.T, id kernel.UUID) *order.Order {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := order.RestoreOrder(s.orders[id])
	if err != nil {
		t.Fatalf("restore order: %v", err)
	}
	return o
}

func (s *memoryStore) event(key string) (webhook.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[key]
	return e, ok
}

func (s *memoryStore) eventCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *memoryStore) auditCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.audit)
}

func (s *memoryStore) Create() commands.WebhookUoW {
	return &memoryUoW{store: s}
}

type memoryUoW struct {
	store *memoryStore

	active bool
	orders map[kernel.UUID]order.Snapshot
	events map[string]webhook.Event
	audit  []order.AuditRecord
}

func (u *memoryUoW) Begin(context.Context) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	u.orders = maps.Clone(u.store.orders)
	u.events = maps.Clone(u.store.events)
	u.audit = nil
	u.active = true
	return nil
}

func (u *memoryUoW) Commit(context.Context) error {
	if !u.active {
		return errors.New("no active transaction")
	}
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	u.store.orders = u.orders
	u.store.events = u.events
	u.store.audit = append(u.store.audit, u.audit...)
	u.active = false
	return nil
}

func (u *memoryUoW) Rollback(context.Context) error {
	if !u.active {
		return errors.New("no active transaction")
	}
	u.active = false
	return nil
}

func (u *memoryUoW) OrderRepository() ports.OrderRepository {
	return memoryOrderRepo{u}
}

func (u *memoryUoW) WebhookEventRepository() ports.WebhookEventRepository {
	return memoryEventRepo{u}
}

type memoryOrderRepo struct{ u *memoryUoW }

func (r memoryOrderRepo) Add(_ context.Context, o *order.Order) error {
	r.u.orders[o.ID()] = o.Snapshot()
	return nil
}

func (r memoryOrderRepo) Update(_ context.Context, o *order.Order, expectedVersion int64) error {
	r.u.store.mu.Lock()
	fail := r.u.store.updateFailures > 0
	if fail {
		r.u.store.updateFailures--
	}
	r.u.store.mu.Unlock()

	current, ok := r.u.orders[o.ID()]
	if !ok {
		return errs.NewObjectNotFoundError("order", o.ID())
	}
	if fail || current.Version != expectedVersion {
		return errs.NewConcurrencyConflictError("order", o.ID().String(), expectedVersion, -1)
	}
	r.u.orders[o.ID()] = o.Snapshot()
	return nil
}

func (r memoryOrderRepo) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	s, ok := r.u.orders[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id)
	}
	return order.RestoreOrder(s)
}

func (r memoryOrderRepo) AppendAudit(_ context.Context, record order.AuditRecord) error {
	r.u.audit = append(r.u.audit, record)
	return nil
}

func (r memoryOrderRepo) ListAudit(_ context.Context, id kernel.UUID) ([]order.AuditRecord, error) {
	var out []order.AuditRecord
	for _, rec := range r.u.audit {
		if rec.OrderID.IsEqual(id) {
			out = append(out, rec)
		}
	}
	return out, nil
}

type memoryEventRepo struct{ u *memoryUoW }

func (r memoryEventRepo) InsertIfAbsent(_ context.Context, e webhook.Event) (bool, error) {
	if _, ok := r.u.events[e.DedupeKey]; ok {
		return false, nil
	}
	r.u.events[e.DedupeKey] = e
	return true, nil
}

func (r memoryEventRepo) UpdateOutcome(_ context.Context, e webhook.Event) error {
	if _, ok := r.u.events[e.DedupeKey]; !ok {
		return errs.NewObjectNotFoundError("dedupe key", e.DedupeKey)
	}
	r.u.events[e.DedupeKey] = e
	return nil
}

func (r memoryEventRepo) Get(_ context.Context, key string) (webhook.Event, error) {
	e, ok := r.u.events[key]
	if !ok {
		return webhook.Event{}, errs.NewObjectNotFoundError("dedupe key", key)
	}
	return e, nil
}

func (r memoryEventRepo) ListDeferred(_ context.Context, maxAttempts, limit int) ([]webhook.Event, error) {
	var out []webhook.Event
	for _, e := range r.u.events {
		if e.Outcome == webhook.OutcomeDeferred && e.ReconcileAttempts < maxAttempts && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r memoryEventRepo) CountDeferred(context.Context) (int64, error) {
	var n int64
	for _, e := range r.u.events {
		if e.Outcome == webhook.OutcomeDeferred {
			n++
		}
	}
	return n, nil
}

func (r memoryEventRepo) PurgeReceivedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for key, e := range r.u.events {
		if e.ReceivedAt.Before(cutoff) {
			delete(r.u.events, key)
			n++
		}
	}
	return n, nil
}
