package commands

import (
	"context"
	"log/slog"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/metrics"
)

// AssignBranchResult tells whether a branch was found. Unassigned is not
// an error: the order stays in BranchPending for a human.
type AssignBranchResult struct {
	Order    *order.Order
	Assigned bool
}

// AssignBranchCommandHandler resolves the branch for an order in Created
// or BranchPending and records the result through the state machine.
type AssignBranchCommandHandler struct {
	uowFactory UoWFactory
	resolver   services.BranchResolver
	notifier   statusNotifier
	clock      Clock
}

func NewAssignBranchCommandHandler(
	uowFactory UoWFactory,
	publisher ports.OrderEventPublisher,
	m *metrics.Metrics,
	clock Clock,
	logger *slog.Logger,
) AssignBranchCommandHandler {
	return AssignBranchCommandHandler{
		uowFactory: uowFactory,
		resolver:   services.NewBranchResolver(),
		notifier: statusNotifier{
			publisher: publisher,
			metrics:   m,
			logger:    loggerOrDefault(logger, "assign-branch"),
		},
		clock: clock,
	}
}

func (h AssignBranchCommandHandler) Handle(ctx context.Context, cmd AssignBranchCommand) (AssignBranchResult, error) {
	if err := cmd.Validate(); err != nil {
		return AssignBranchResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return AssignBranchResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	o, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return AssignBranchResult{}, err
	}

	branches, err := uow.BranchRepository().ListActive(ctx)
	if err != nil {
		return AssignBranchResult{}, err
	}

	assignment, err := h.resolver.Resolve(o.Address(), branches)
	if err != nil {
		return AssignBranchResult{}, err
	}
	event, data := assignment.Event()

	outcome, err := applyTransition(ctx, orderRepo, o, event, data, order.ActorAdmin, h.clock)
	if err != nil {
		return AssignBranchResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return AssignBranchResult{}, err
	}

	h.notifier.committed(ctx, outcome)
	return AssignBranchResult{Order: outcome.Order, Assigned: assignment.Assigned()}, nil
}
