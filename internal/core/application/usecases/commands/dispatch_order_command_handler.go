package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"fulfillment/internal/core/domain/model/branch"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/metrics"
)

// DispatchResult describes a successful dispatch.
type DispatchResult struct {
	Order      *order.Order
	TrackingID string
	Attempts   int
}

// DispatchOrderCommandHandler is the courier dispatch gateway. It holds a
// per-order lease for the whole exchange with the platform, so at most one
// create-delivery sequence runs for an order at a time.
type DispatchOrderCommandHandler struct {
	uowFactory UoWFactory
	locker     ports.Locker
	client     ports.CourierClient
	cfg        DispatchConfig
	notifier   statusNotifier
	metrics    *metrics.Metrics
	clock      Clock
	logger     *slog.Logger
}

func NewDispatchOrderCommandHandler(
	uowFactory UoWFactory,
	locker ports.Locker,
	client ports.CourierClient,
	cfg DispatchConfig,
	publisher ports.OrderEventPublisher,
	m *metrics.Metrics,
	clock Clock,
	logger *slog.Logger,
) DispatchOrderCommandHandler {
	logger = loggerOrDefault(logger, "courier-dispatch")
	return DispatchOrderCommandHandler{
		uowFactory: uowFactory,
		locker:     locker,
		client:     client,
		cfg:        cfg.withDefaults(),
		notifier:   statusNotifier{publisher: publisher, metrics: m, logger: logger},
		metrics:    m,
		clock:      clock,
		logger:     logger,
	}
}

func dispatchLockKey(orderID kernel.UUID) string {
	return "dispatch:" + orderID.String()
}

// Handle errors:
//   - errs.ErrPreconditionFailed: order is not Preparing with a branch; no call was made
//   - ErrDispatchInProgress: another dispatch holds the order's lease
//   - *DispatchExhaustedError: attempts ran out or the platform refused; the
//     order now carries the dispatchFailed flag
func (h DispatchOrderCommandHandler) Handle(ctx context.Context, cmd DispatchOrderCommand) (DispatchResult, error) {
	if err := cmd.Validate(); err != nil {
		return DispatchResult{}, err
	}
	if _, _, err := h.loadDispatchable(ctx, cmd.OrderID()); err != nil {
		return DispatchResult{}, err
	}

	lock, err := h.locker.TryAcquire(ctx, dispatchLockKey(cmd.OrderID()), h.cfg.LockTTL)
	if errors.Is(err, ports.ErrLockHeld) {
		return DispatchResult{}, ErrDispatchInProgress
	}
	if err != nil {
		return DispatchResult{}, fmt.Errorf("acquire dispatch lock: %w", err)
	}

	defer func() {
		if releaseErr := lock.Release(context.WithoutCancel(ctx)); releaseErr != nil {
			h.logger.WarnContext(ctx, "failed to release dispatch lock",
				"order_id", cmd.OrderID().String(), "error", releaseErr)
		}
	}()

	// The previous holder may have finished between the first read and the lease.
	o, b, err := h.loadDispatchable(ctx, cmd.OrderID())
	if err != nil {
		return DispatchResult{}, err
	}

	started := time.Now()
	trackingID, attempts, callErr := h.callWithRetry(ctx, deliveryRequest(o, b))
	h.metrics.DispatchFinished(time.Since(started))

	// The outcome must be recorded even if the caller gave up meanwhile.
	persistCtx := context.WithoutCancel(ctx)

	if callErr != nil {
		h.logger.ErrorContext(ctx, "dispatch exhausted",
			"order_id", o.ID().String(), "attempts", attempts, "error", callErr)
		_, recordErr := h.record(persistCtx, o, order.DispatchFailed, order.EventData{DispatchAttempts: attempts})
		if recordErr != nil {
			return DispatchResult{}, errors.Join(NewDispatchExhaustedError(o.ID(), attempts, callErr), recordErr)
		}
		return DispatchResult{}, NewDispatchExhaustedError(o.ID(), attempts, callErr)
	}

	updated, err := h.record(persistCtx, o, order.DispatchSucceeded, order.EventData{
		TrackingID:       trackingID,
		DispatchAttempts: attempts,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "courier accepted delivery but order could not be updated",
			"order_id", o.ID().String(), "tracking_id", trackingID, "error", err)
		return DispatchResult{}, err
	}

	h.logger.InfoContext(ctx, "order dispatched",
		"order_id", o.ID().String(), "tracking_id", trackingID, "attempts", attempts)
	return DispatchResult{Order: updated, TrackingID: trackingID, Attempts: attempts}, nil
}

// loadDispatchable reads the order and its branch in a short read-only
// transaction and checks the dispatch precondition.
func (h DispatchOrderCommandHandler) loadDispatchable(
	ctx context.Context,
	orderID kernel.UUID,
) (*order.Order, *branch.Branch, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := uow.OrderRepository().Get(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if o.Status() != order.Preparing {
		return nil, nil, errs.NewPreconditionFailedError("dispatch",
			fmt.Sprintf("order is %s, must be %s", o.Status(), order.Preparing))
	}
	if o.Branch() == nil {
		return nil, nil, errs.NewPreconditionFailedError("dispatch", "order has no branch")
	}

	b, err := uow.BranchRepository().Get(ctx, *o.Branch())
	if err != nil {
		return nil, nil, err
	}
	return o, b, nil
}

func (h DispatchOrderCommandHandler) callWithRetry(ctx context.Context, req ports.DeliveryRequest) (string, int, error) {
	var (
		trackingID string
		attempts   int
	)

	operation := func() error {
		attempts++

		attemptCtx, cancel := context.WithTimeout(ctx, h.cfg.AttemptTimeout)
		defer cancel()

		id, err := h.client.CreateDelivery(attemptCtx, req)
		if err == nil && id == "" {
			err = fmt.Errorf("%w: empty tracking id", ports.ErrDispatchUnavailable)
		}
		if err != nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, ports.ErrDispatchTimeout) {
			err = fmt.Errorf("%w: %w", ports.ErrDispatchTimeout, err)
		}

		h.metrics.DispatchAttempt(attemptResult(err))
		if err != nil {
			h.logger.WarnContext(ctx, "dispatch attempt failed",
				"order_id", req.OrderID, "attempt", attempts, "error", err)
			if errors.Is(err, ports.ErrDispatchRejected) {
				return backoff.Permanent(err)
			}
			return err
		}

		trackingID = id
		return nil
	}

	err := backoff.Retry(operation, h.cfg.backOff(ctx))
	return trackingID, attempts, err
}

// record applies the dispatch outcome, provided nobody moved the order
// while the platform was being called.
func (h DispatchOrderCommandHandler) record(
	ctx context.Context,
	loaded *order.Order,
	event order.Event,
	data order.EventData,
) (*order.Order, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	outcome, err := transitionByID(ctx, uow.OrderRepository(),
		loaded.ID(), loaded.Version(), event, data, order.ActorGateway, h.clock)
	if err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.notifier.committed(ctx, outcome)
	return outcome.Order, nil
}

func deliveryRequest(o *order.Order, b *branch.Branch) ports.DeliveryRequest {
	items := o.Items()
	lines := make([]ports.DeliveryItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, ports.DeliveryItem{SKU: item.SKU, Name: item.Name, Quantity: item.Quantity})
	}

	return ports.DeliveryRequest{
		OrderID:        o.ID().String(),
		BranchCode:     b.Code(),
		Street:         o.Address().Street(),
		Zone:           string(o.Address().Zone()),
		Items:          lines,
		IdempotencyKey: fmt.Sprintf("%s:%d", o.ID(), o.Version()),
	}
}

func attemptResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ports.ErrDispatchTimeout):
		return "timeout"
	case errors.Is(err, ports.ErrDispatchRejected):
		return "rejected"
	default:
		return "unavailable"
	}
}
