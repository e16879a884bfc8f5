package commands

import (
	"context"
	"log/slog"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/metrics"
)

// TransitionOrderCommandHandler is the entry point of the order state
// machine for admin actions: start preparation, cancel, and any other event
// an operator may push by hand.
//
// Example:
//
//	handler := NewTransitionOrderCommandHandler(uowFactory, publisher, m, nil, logger)
//	updated, err := handler.Handle(ctx, cmd)
//	switch {
//	case errors.Is(err, order.ErrInvalidTransition):
//	    // 409, order untouched
//	case errors.Is(err, errs.ErrConcurrencyConflict):
//	    // 409, caller reloads and decides
//	}
type TransitionOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	notifier   statusNotifier
	clock      Clock
}

func NewTransitionOrderCommandHandler(
	uowFactory OrderUoWFactory,
	publisher ports.OrderEventPublisher,
	m *metrics.Metrics,
	clock Clock,
	logger *slog.Logger,
) TransitionOrderCommandHandler {
	return TransitionOrderCommandHandler{
		uowFactory: uowFactory,
		notifier: statusNotifier{
			publisher: publisher,
			metrics:   m,
			logger:    loggerOrDefault(logger, "order-state-machine"),
		},
		clock: clock,
	}
}

// Handle applies the command's event and returns the order as stored
// afterwards. Terminal re-deliveries return the unchanged order without
// error.
func (h TransitionOrderCommandHandler) Handle(ctx context.Context, cmd TransitionOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	outcome, err := transitionByID(ctx, uow.OrderRepository(),
		cmd.OrderID(), cmd.ExpectedVersion(), cmd.Event(), cmd.Data(), cmd.Actor(), h.clock)
	if err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.notifier.committed(ctx, outcome)
	return outcome.Order, nil
}
