package commands_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/branch"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type courierFunc func(ctx context.Context, req ports.DeliveryRequest) (string, error)

func (f courierFunc) CreateDelivery(ctx context.Context, req ports.DeliveryRequest) (string, error) {
	return f(ctx, req)
}

func fastDispatchConfig() commands.DispatchConfig {
	return commands.DispatchConfig{
		MaxAttempts:     3,
		AttemptTimeout:  50 * time.Millisecond,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		Multiplier:      2,
		Jitter:          0.5,
	}
}

type dispatchFixture struct {
	stored   *order.Order
	branch   *branch.Branch
	factory  *MockUoWFactory
	repo     *MockOrderRepository
	branches *MockBranchRepository
	locker   *MockLocker
	lock     *MockLock
}

// newDispatchFixture wires the two read transactions every dispatch opens
// before talking to the platform.
func newDispatchFixture(t *testing.T) *dispatchFixture {
	t.Helper()
	b := testBranch(t, "NORTH", 1, "north-1")
	f := &dispatchFixture{
		stored:   restoredOrder(t, order.Preparing, 5, withBranch(b.ID())),
		branch:   b,
		factory:  new(MockUoWFactory),
		repo:     new(MockOrderRepository),
		branches: new(MockBranchRepository),
		locker:   new(MockLocker),
		lock:     new(MockLock),
	}

	for range 2 {
		uow := new(MockUoW)
		uow.On("Begin", mock.Anything).Return(nil).Once()
		uow.On("OrderRepository").Return(f.repo).Once()
		uow.On("BranchRepository").Return(f.branches).Once()
		uow.On("Rollback", mock.Anything).Return(nil).Once()
		f.factory.On("Create").Return(uow).Once()
	}
	f.repo.On("Get", mock.Anything, f.stored.ID()).Return(cloneOrder(t, f.stored), nil).Once()
	f.repo.On("Get", mock.Anything, f.stored.ID()).Return(cloneOrder(t, f.stored), nil).Once()
	f.branches.On("Get", mock.Anything, b.ID()).Return(b, nil).Twice()

	f.locker.On("TryAcquire", mock.Anything, "dispatch:"+f.stored.ID().String(), mock.AnythingOfType("time.Duration")).
		Return(f.lock, nil).Once()
	f.lock.On("Release", mock.Anything).Return(nil).Once()
	return f
}

// expectRecord wires the transaction that stores the dispatch outcome and
// returns the order as it was handed to Update.
func (f *dispatchFixture) expectRecord(t *testing.T) *order.Order {
	t.Helper()
	recorded := cloneOrder(t, f.stored)

	uow := new(MockUoW)
	uow.On("Begin", mock.Anything).Return(nil).Once()
	uow.On("OrderRepository").Return(f.repo).Once()
	uow.On("Commit", mock.Anything).Return(nil).Once()
	uow.On("Rollback", mock.Anything).Return(nil).Once()
	f.factory.On("Create").Return(uow).Once()

	f.repo.On("Get", mock.Anything, f.stored.ID()).Return(recorded, nil).Once()
	f.repo.On("Update", mock.Anything, recorded, int64(5)).Return(nil).Once()
	f.repo.On("AppendAudit", mock.Anything, mock.MatchedBy(func(r order.AuditRecord) bool {
		return r.Actor == order.ActorGateway && r.Version == 6
	})).Return(nil).Once()
	return recorded
}

func (f *dispatchFixture) command(t *testing.T) commands.DispatchOrderCommand {
	t.Helper()
	cmd, err := commands.NewDispatchOrderCommand(f.stored.ID())
	require.NoError(t, err)
	return cmd
}

func TestDispatchOrderCommandHandler_Handle_RetriesThenSucceeds(t *testing.T) {
	ctx := t.Context()
	f := newDispatchFixture(t)
	recorded := f.expectRecord(t)

	var calls atomic.Int32
	var seen []ports.DeliveryRequest
	client := courierFunc(func(_ context.Context, req ports.DeliveryRequest) (string, error) {
		seen = append(seen, req)
		if calls.Add(1) == 1 {
			return "", fmt.Errorf("%w: 503", ports.ErrDispatchUnavailable)
		}
		return "TRK-42", nil
	})

	h := commands.NewDispatchOrderCommandHandler(f.factory, f.locker, client, fastDispatchConfig(), nil, nil, fixedClock(), nil)
	result, err := h.Handle(ctx, f.command(t))
	require.NoError(t, err)

	assert.Equal(t, "TRK-42", result.TrackingID)
	assert.Equal(t, 2, result.Attempts)
	assert.Same(t, recorded, result.Order)
	assert.Equal(t, order.DispatchedToCourier, recorded.Status())
	assert.Equal(t, int64(6), recorded.Version())
	require.NotNil(t, recorded.TrackingID())
	assert.Equal(t, "TRK-42", *recorded.TrackingID())
	assert.Equal(t, 2, recorded.DispatchAttempts())

	require.Len(t, seen, 2)
	assert.Equal(t, f.stored.ID().String()+":5", seen[0].IdempotencyKey)
	assert.Equal(t, seen[0].IdempotencyKey, seen[1].IdempotencyKey)
	assert.Equal(t, "NORTH", seen[0].BranchCode)
	assert.Equal(t, "north-1", seen[0].Zone)
	assert.Len(t, seen[0].Items, 2)

	f.factory.AssertExpectations(t)
	f.repo.AssertExpectations(t)
	f.lock.AssertExpectations(t)
}

func TestDispatchOrderCommandHandler_Handle_TimeoutsExhaust(t *testing.T) {
	ctx := t.Context()
	f := newDispatchFixture(t)
	recorded := f.expectRecord(t)

	var calls atomic.Int32
	client := courierFunc(func(ctx context.Context, _ ports.DeliveryRequest) (string, error) {
		calls.Add(1)
		<-ctx.Done()
		return "", ctx.Err()
	})

	h := commands.NewDispatchOrderCommandHandler(f.factory, f.locker, client, fastDispatchConfig(), nil, nil, fixedClock(), nil)
	_, err := h.Handle(ctx, f.command(t))
	require.ErrorIs(t, err, commands.ErrDispatchExhausted)
	require.ErrorIs(t, err, ports.ErrDispatchTimeout)

	var exhausted *commands.DispatchExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, int32(3), calls.Load())

	assert.Equal(t, order.Preparing, recorded.Status())
	assert.True(t, recorded.DispatchFailed())
	assert.Equal(t, 3, recorded.DispatchAttempts())
	assert.Nil(t, recorded.TrackingID())
	f.lock.AssertExpectations(t)
}

func TestDispatchOrderCommandHandler_Handle_RejectionIsNotRetried(t *testing.T) {
	ctx := t.Context()
	f := newDispatchFixture(t)
	recorded := f.expectRecord(t)

	var calls atomic.Int32
	client := courierFunc(func(context.Context, ports.DeliveryRequest) (string, error) {
		calls.Add(1)
		return "", fmt.Errorf("%w: 422 unknown zone", ports.ErrDispatchRejected)
	})

	h := commands.NewDispatchOrderCommandHandler(f.factory, f.locker, client, fastDispatchConfig(), nil, nil, fixedClock(), nil)
	_, err := h.Handle(ctx, f.command(t))
	require.ErrorIs(t, err, commands.ErrDispatchExhausted)
	require.ErrorIs(t, err, ports.ErrDispatchRejected)
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, recorded.DispatchFailed())
}

func TestDispatchOrderCommandHandler_Handle_PreconditionFailed(t *testing.T) {
	ctx := t.Context()
	created := restoredOrder(t, order.Created, 2, withBranch(kernel.NewUUID()))

	repo := new(MockOrderRepository)
	uow := new(MockUoW)
	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("OrderRepository").Return(repo).Once()
	uow.On("Rollback", ctx).Return(nil).Once()
	repo.On("Get", ctx, created.ID()).Return(created, nil).Once()

	factory := new(MockUoWFactory)
	factory.On("Create").Return(uow).Once()
	locker := new(MockLocker)
	client := new(MockCourierClient)

	cmd, err := commands.NewDispatchOrderCommand(created.ID())
	require.NoError(t, err)

	h := commands.NewDispatchOrderCommandHandler(factory, locker, client, fastDispatchConfig(), nil, nil, fixedClock(), nil)
	_, err = h.Handle(ctx, cmd)
	require.ErrorIs(t, err, errs.ErrPreconditionFailed)
	locker.AssertNotCalled(t, "TryAcquire", mock.Anything, mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "CreateDelivery", mock.Anything, mock.Anything)
}

func TestDispatchOrderCommandHandler_Handle_LockHeld(t *testing.T) {
	ctx := t.Context()
	b := testBranch(t, "NORTH", 1, "north-1")
	stored := restoredOrder(t, order.Preparing, 5, withBranch(b.ID()))

	repo := new(MockOrderRepository)
	branches := new(MockBranchRepository)
	uow := new(MockUoW)
	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("OrderRepository").Return(repo).Once()
	uow.On("BranchRepository").Return(branches).Once()
	uow.On("Rollback", ctx).Return(nil).Once()
	repo.On("Get", ctx, stored.ID()).Return(stored, nil).Once()
	branches.On("Get", ctx, b.ID()).Return(b, nil).Once()

	factory := new(MockUoWFactory)
	factory.On("Create").Return(uow).Once()
	locker := new(MockLocker)
	locker.On("TryAcquire", ctx, mock.Anything, mock.Anything).Return(nil, ports.ErrLockHeld).Once()
	client := new(MockCourierClient)

	cmd, err := commands.NewDispatchOrderCommand(stored.ID())
	require.NoError(t, err)

	h := commands.NewDispatchOrderCommandHandler(factory, locker, client, fastDispatchConfig(), nil, nil, fixedClock(), nil)
	_, err = h.Handle(ctx, cmd)
	require.ErrorIs(t, err, commands.ErrDispatchInProgress)
	client.AssertNotCalled(t, "CreateDelivery", mock.Anything, mock.Anything)
	factory.AssertExpectations(t)
}

func TestDefaultDispatchConfig(t *testing.T) {
	cfg := commands.DefaultDispatchConfig()
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.AttemptTimeout)
	assert.InDelta(t, commands.DefaultDispatchJitter, cfg.Jitter, 1e-9)
	assert.InDelta(t, commands.DefaultDispatchMultiplier, cfg.Multiplier, 1e-9)
	// Three 10s attempts plus two jittered 5s waits.
	assert.GreaterOrEqual(t, cfg.LockTTL, 30*time.Second+15*time.Second)
}
