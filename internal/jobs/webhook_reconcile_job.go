package jobs

import (
	"context"
	"log/slog"
	"time"

	"fulfillment/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

type ReconcileHandler interface {
	Handle(ctx context.Context, cmd commands.ReconcileWebhookEventsCommand) (commands.ReconcileResult, error)
}

// WebhookReconcileJob retries deferred webhook events on a schedule.
type WebhookReconcileJob struct {
	handler ReconcileHandler
	cmd     commands.ReconcileWebhookEventsCommand
	spec    string
	timeout time.Duration
	cron    *cron.Cron
	logger  *slog.Logger
}

func NewWebhookReconcileJob(
	handler ReconcileHandler,
	cmd commands.ReconcileWebhookEventsCommand,
	spec string,
	timeout time.Duration,
	logger *slog.Logger,
) *WebhookReconcileJob {
	return &WebhookReconcileJob{
		handler: handler,
		cmd:     cmd,
		spec:    spec,
		timeout: timeout,
		cron:    newCron(),
		logger:  logger.With("component", "webhook_reconcile_job"),
	}
}

func (j *WebhookReconcileJob) Start() error {
	if _, err := j.cron.AddFunc(j.spec, func() { j.Run(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Webhook reconcile job started", "schedule", j.spec)
	return nil
}

// Run performs a single reconciliation pass.
func (j *WebhookReconcileJob) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	result, err := j.handler.Handle(ctx, j.cmd)
	if err != nil {
		j.logger.ErrorContext(ctx, "Webhook reconcile job failed", "error", err)
		return
	}
	if result.Examined == 0 {
		return
	}

	log := j.logger.InfoContext
	if result.Failed > 0 {
		log = j.logger.WarnContext
	}
	log(ctx, "Webhook reconcile pass finished",
		"examined", result.Examined,
		"applied", result.Applied,
		"still_deferred", result.StillDeferred,
		"failed", result.Failed,
	)
}

// Stop waits for a running pass to finish.
func (j *WebhookReconcileJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Webhook reconcile job stopped")
}

func newCron() *cron.Cron {
	return cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
}
