package jobs

import (
	"context"
	"log/slog"
	"time"

	"fulfillment/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

type PurgeHandler interface {
	Handle(ctx context.Context, cmd commands.PurgeWebhookEventsCommand) (int64, error)
}

// WebhookRetentionJob deletes webhook dedupe rows past the retention window.
type WebhookRetentionJob struct {
	handler PurgeHandler
	cmd     commands.PurgeWebhookEventsCommand
	spec    string
	timeout time.Duration
	cron    *cron.Cron
	logger  *slog.Logger
}

func NewWebhookRetentionJob(
	handler PurgeHandler,
	cmd commands.PurgeWebhookEventsCommand,
	spec string,
	timeout time.Duration,
	logger *slog.Logger,
) *WebhookRetentionJob {
	return &WebhookRetentionJob{
		handler: handler,
		cmd:     cmd,
		spec:    spec,
		timeout: timeout,
		cron:    newCron(),
		logger:  logger.With("component", "webhook_retention_job"),
	}
}

func (j *WebhookRetentionJob) Start() error {
	if _, err := j.cron.AddFunc(j.spec, func() { j.Run(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Webhook retention job started",
		"schedule", j.spec, "retention", j.cmd.Retention().String())
	return nil
}

// Run performs a single purge.
func (j *WebhookRetentionJob) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	deleted, err := j.handler.Handle(ctx, j.cmd)
	if err != nil {
		j.logger.ErrorContext(ctx, "Webhook retention job failed", "error", err)
		return
	}
	if deleted > 0 {
		j.logger.InfoContext(ctx, "Purged expired webhook events", "deleted", deleted)
	}
}

func (j *WebhookRetentionJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Webhook retention job stopped")
}
