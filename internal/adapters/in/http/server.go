package http

import (
	"context"
	"log/slog"
	"net/http"

	"fulfillment/internal/core/application/secrets"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/secret"
	"fulfillment/internal/core/domain/model/webhook"

	"github.com/labstack/echo/v4"
)

type CreateOrderHandler interface {
	Handle(ctx context.Context, cmd commands.CreateOrderCommand) (commands.CreateOrderResult, error)
}

type AssignBranchHandler interface {
	Handle(ctx context.Context, cmd commands.AssignBranchCommand) (commands.AssignBranchResult, error)
}

type TransitionOrderHandler interface {
	Handle(ctx context.Context, cmd commands.TransitionOrderCommand) (*order.Order, error)
}

type ConfirmPaymentHandler interface {
	Handle(ctx context.Context, cmd commands.ConfirmPaymentCommand) (commands.ConfirmPaymentResult, error)
}

type DispatchOrderHandler interface {
	Handle(ctx context.Context, cmd commands.DispatchOrderCommand) (commands.DispatchResult, error)
}

type CourierWebhookHandler interface {
	Handle(ctx context.Context, cmd commands.HandleCourierWebhookCommand) (commands.AckResult, error)
}

type RedeemCouponHandler interface {
	Handle(ctx context.Context, cmd commands.RedeemCouponCommand) error
}

type ValidateCouponHandler interface {
	Handle(ctx context.Context, query queries.ValidateCouponQuery) (queries.ValidateCouponQueryResponse, error)
}

type OrdersNeedingAttentionHandler interface {
	Handle(
		ctx context.Context,
		query queries.GetOrdersNeedingAttentionQuery,
	) (queries.GetOrdersNeedingAttentionQueryResponse, error)
}

// SecretAdmin is the administrative side of the secret vault.
type SecretAdmin interface {
	Store(ctx context.Context, platform webhook.Platform, plaintext []byte) (secret.Record, error)
	Rotate(ctx context.Context) (secrets.RotationResult, error)
	PurgeKeyVersion(ctx context.Context, keyVersion int) (int64, error)
}

// Handlers groups the use cases exposed over HTTP.
type Handlers struct {
	CreateOrder     CreateOrderHandler
	AssignBranch    AssignBranchHandler
	TransitionOrder TransitionOrderHandler
	ConfirmPayment  ConfirmPaymentHandler
	DispatchOrder   DispatchOrderHandler
	CourierWebhook  CourierWebhookHandler
	RedeemCoupon    RedeemCouponHandler
	ValidateCoupon  ValidateCouponHandler
	OrdersAttention OrdersNeedingAttentionHandler
	Secrets         SecretAdmin
}

// Server exposes the courier webhook endpoint and the admin API.
type Server struct {
	handlers Handlers
	logger   *slog.Logger
}

func NewServer(handlers Handlers, logger *slog.Logger) *Server {
	return &Server{
		handlers: handlers,
		logger:   logger.With("component", "http"),
	}
}

// RegisterRoutes mounts every route on e. adminMiddleware runs in front of
// the admin routes only; the webhook route authenticates by signature and
// must see the body untouched.
func (s *Server) RegisterRoutes(e *echo.Echo, adminMiddleware ...echo.MiddlewareFunc) {
	e.GET("/health", s.Health)
	e.POST("/webhooks/:platform", s.HandleCourierWebhook)

	admin := func(method, path string, h echo.HandlerFunc) {
		e.Add(method, path, h, adminMiddleware...)
	}
	admin(http.MethodPost, "/orders", s.CreateOrder)
	admin(http.MethodGet, "/orders/attention", s.GetOrdersNeedingAttention)
	admin(http.MethodPost, "/orders/:orderId/assign-branch", s.AssignBranch)
	admin(http.MethodPost, "/orders/:orderId/prepare", s.StartPreparation)
	admin(http.MethodPost, "/orders/:orderId/confirm-payment", s.ConfirmPayment)
	admin(http.MethodPost, "/dispatch", s.DispatchOrder)
	admin(http.MethodPost, "/cancel", s.CancelOrder)
	admin(http.MethodPost, "/coupons/validate", s.ValidateCoupon)
	admin(http.MethodPost, "/coupons/redeem", s.RedeemCoupon)
	admin(http.MethodPut, "/secrets/:platform", s.StoreSecret)
	admin(http.MethodPost, "/secrets/rotate", s.RotateSecrets)
	admin(http.MethodDelete, "/secrets/versions/:version", s.PurgeKeyVersion)
}

// Health handles GET /health.
func (s *Server) Health(c echo.Context) error {
	return c.String(http.StatusOK, "healthy")
}
