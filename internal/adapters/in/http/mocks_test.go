package http_test

import (
	"context"

	"fulfillment/internal/core/application/secrets"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/secret"
	"fulfillment/internal/core/domain/model/webhook"

	"github.com/stretchr/testify/mock"
)

type MockWebhookHandler struct{ mock.Mock }

func (m *MockWebhookHandler) Handle(
	ctx context.Context,
	cmd commands.HandleCourierWebhookCommand,
) (commands.AckResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.AckResult), args.Error(1)
}

type MockDispatchHandler struct{ mock.Mock }

func (m *MockDispatchHandler) Handle(ctx context.Context, cmd commands.DispatchOrderCommand) (commands.DispatchResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.DispatchResult), args.Error(1)
}

type MockTransitionHandler struct{ mock.Mock }

func (m *MockTransitionHandler) Handle(ctx context.Context, cmd commands.TransitionOrderCommand) (*order.Order, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

type MockCreateOrderHandler struct{ mock.Mock }

func (m *MockCreateOrderHandler) Handle(
	ctx context.Context,
	cmd commands.CreateOrderCommand,
) (commands.CreateOrderResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.CreateOrderResult), args.Error(1)
}

type MockRedeemHandler struct{ mock.Mock }

func (m *MockRedeemHandler) Handle(ctx context.Context, cmd commands.RedeemCouponCommand) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}

type MockValidateCouponHandler struct{ mock.Mock }

func (m *MockValidateCouponHandler) Handle(
	ctx context.Context,
	query queries.ValidateCouponQuery,
) (queries.ValidateCouponQueryResponse, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(queries.ValidateCouponQueryResponse), args.Error(1)
}

type MockSecretAdmin struct{ mock.Mock }

func (m *MockSecretAdmin) Store(ctx context.Context, platform webhook.Platform, plaintext []byte) (secret.Record, error) {
	args := m.Called(ctx, platform, plaintext)
	return args.Get(0).(secret.Record), args.Error(1)
}

func (m *MockSecretAdmin) Rotate(ctx context.Context) (secrets.RotationResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(secrets.RotationResult), args.Error(1)
}

func (m *MockSecretAdmin) PurgeKeyVersion(ctx context.Context, keyVersion int) (int64, error) {
	args := m.Called(ctx, keyVersion)
	return args.Get(0).(int64), args.Error(1)
}
