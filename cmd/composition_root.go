package cmd

import (
	"log/slog"
	"net/http"
	"time"

	httpin "fulfillment/internal/adapters/in/http"
	"fulfillment/internal/adapters/out/courier"
	"fulfillment/internal/adapters/out/postgres"
	"fulfillment/internal/adapters/out/postgres/couponrepo"
	"fulfillment/internal/core/application/secrets"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/jobs"
	"fulfillment/internal/pkg/metrics"

	"gorm.io/gorm"
)

// Infrastructure is what main builds from the environment before any
// handler exists.
type Infrastructure struct {
	Cipher    secrets.Cipher
	Locker    ports.Locker
	Publisher ports.OrderEventPublisher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

type CompositionRoot struct {
	cfg        Config
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	infra      Infrastructure
	courier    ports.CourierClient
	vault      *secrets.Vault
}

func NewCompositionRoot(cfg Config, gormDB *gorm.DB, infra Infrastructure) *CompositionRoot {
	uowFactory := postgres.NewGormUnitOfWorkFactory(gormDB)

	var secretUoWs secrets.UoWFactory = FuncSecretUoWFactory(func() secrets.UoW {
		return uowFactory.Create()
	})

	return &CompositionRoot{
		cfg:        cfg,
		gormDB:     gormDB,
		uowFactory: uowFactory,
		infra:      infra,
		courier: courier.NewHTTPClient(cfg.CourierBaseURL, cfg.CourierAPIKey, &http.Client{
			Timeout: cfg.DispatchTuning.AttemptTimeout + time.Second,
		}),
		vault: secrets.NewVault(secretUoWs, infra.Cipher, cfg.SecretCacheTTL, nil, infra.Logger),
	}
}

func (c *CompositionRoot) UoWFactory() ports.UnitOfWorkFactory {
	return c.uowFactory
}

func (c *CompositionRoot) Vault() *secrets.Vault {
	return c.vault
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.fullUoWs(), c.infra.Publisher, c.infra.Metrics, nil, c.infra.Logger)
}

func (c *CompositionRoot) CreateAssignBranchCommandHandler() commands.AssignBranchCommandHandler {
	return commands.NewAssignBranchCommandHandler(c.fullUoWs(), c.infra.Publisher, c.infra.Metrics, nil, c.infra.Logger)
}

func (c *CompositionRoot) CreateTransitionOrderCommandHandler() commands.TransitionOrderCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewTransitionOrderCommandHandler(f, c.infra.Publisher, c.infra.Metrics, nil, c.infra.Logger)
}

func (c *CompositionRoot) CreateConfirmPaymentCommandHandler() commands.ConfirmPaymentCommandHandler {
	return commands.NewConfirmPaymentCommandHandler(c.fullUoWs(), c.infra.Publisher, c.infra.Metrics, nil, c.infra.Logger)
}

func (c *CompositionRoot) CreateDispatchOrderCommandHandler() commands.DispatchOrderCommandHandler {
	return commands.NewDispatchOrderCommandHandler(
		c.fullUoWs(),
		c.infra.Locker,
		c.courier,
		c.cfg.Dispatch(),
		c.infra.Publisher,
		c.infra.Metrics,
		nil,
		c.infra.Logger,
	)
}

func (c *CompositionRoot) CreateRedeemCouponCommandHandler() commands.RedeemCouponCommandHandler {
	var f commands.CouponUoWFactory = FuncCouponUoWFactory(func() commands.CouponUoW {
		return c.uowFactory.Create()
	})
	return commands.NewRedeemCouponCommandHandler(f, c.infra.Metrics, nil)
}

func (c *CompositionRoot) CreateHandleCourierWebhookCommandHandler() commands.HandleCourierWebhookCommandHandler {
	return commands.NewHandleCourierWebhookCommandHandler(
		c.webhookUoWs(),
		c.vault,
		c.cfg.WebhookTolerance,
		c.infra.Publisher,
		c.infra.Metrics,
		nil,
		c.infra.Logger,
	)
}

func (c *CompositionRoot) CreateReconcileWebhookEventsCommandHandler() commands.ReconcileWebhookEventsCommandHandler {
	return commands.NewReconcileWebhookEventsCommandHandler(
		c.webhookUoWs(), c.infra.Publisher, c.infra.Metrics, nil, c.infra.Logger)
}

func (c *CompositionRoot) CreatePurgeWebhookEventsCommandHandler() commands.PurgeWebhookEventsCommandHandler {
	return commands.NewPurgeWebhookEventsCommandHandler(c.webhookUoWs(), c.infra.Metrics, nil, c.infra.Logger)
}

func (c *CompositionRoot) CreateValidateCouponQueryHandler() queries.ValidateCouponQueryHandler {
	return queries.NewValidateCouponQueryHandler(couponrepo.NewGormCouponRepository(c.gormDB), nil)
}

func (c *CompositionRoot) CreateGetOrdersNeedingAttentionQueryHandler() queries.GetOrdersNeedingAttentionQueryHandler {
	return queries.NewGetOrdersNeedingAttentionQueryHandler(c.gormDB)
}

// CreateHTTPHandlers wires every use case the HTTP server exposes.
func (c *CompositionRoot) CreateHTTPHandlers() httpin.Handlers {
	return httpin.Handlers{
		CreateOrder:     c.CreateCreateOrderCommandHandler(),
		AssignBranch:    c.CreateAssignBranchCommandHandler(),
		TransitionOrder: c.CreateTransitionOrderCommandHandler(),
		ConfirmPayment:  c.CreateConfirmPaymentCommandHandler(),
		DispatchOrder:   c.CreateDispatchOrderCommandHandler(),
		CourierWebhook:  c.CreateHandleCourierWebhookCommandHandler(),
		RedeemCoupon:    c.CreateRedeemCouponCommandHandler(),
		ValidateCoupon:  c.CreateValidateCouponQueryHandler(),
		OrdersAttention: c.CreateGetOrdersNeedingAttentionQueryHandler(),
		Secrets:         c.vault,
	}
}

func (c *CompositionRoot) CreateJobManager() (*jobs.JobManager, error) {
	return jobs.NewJobManager(
		jobs.Config{
			ReconcileSchedule:    c.cfg.ReconcileSchedule,
			ReconcileMaxAttempts: c.cfg.ReconcileMaxAttempts,
			ReconcileBatchSize:   c.cfg.ReconcileBatchSize,
			RetentionSchedule:    c.cfg.RetentionSchedule,
			Retention:            c.cfg.WebhookRetention,
			ReplayTolerance:      c.cfg.WebhookTolerance,
			RunTimeout:           time.Minute,
		},
		c.CreateReconcileWebhookEventsCommandHandler(),
		c.CreatePurgeWebhookEventsCommandHandler(),
		c.infra.Logger,
	)
}

func (c *CompositionRoot) fullUoWs() commands.UoWFactory {
	return FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) webhookUoWs() commands.WebhookUoWFactory {
	return FuncWebhookUoWFactory(func() commands.WebhookUoW {
		return c.uowFactory.Create()
	})
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncCouponUoWFactory func() commands.CouponUoW

func (f FuncCouponUoWFactory) Create() commands.CouponUoW {
	return f()
}

type FuncWebhookUoWFactory func() commands.WebhookUoW

func (f FuncWebhookUoWFactory) Create() commands.WebhookUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}

type FuncSecretUoWFactory func() secrets.UoW

func (f FuncSecretUoWFactory) Create() secrets.UoW {
	return f()
}
