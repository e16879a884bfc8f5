package jobs

import (
	"fmt"
	"log/slog"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
)

// Config holds the schedules and limits of the background jobs.
type Config struct {
	ReconcileSchedule    string
	ReconcileMaxAttempts int
	ReconcileBatchSize   int
	RetentionSchedule    string
	Retention            time.Duration
	ReplayTolerance      time.Duration
	// RunTimeout bounds a single run of any job.
	RunTimeout time.Duration
}

// JobManager coordinates all scheduled jobs in the application.
type JobManager struct {
	reconcileJob *WebhookReconcileJob
	retentionJob *WebhookRetentionJob
}

// NewJobManager validates the job settings and builds every job.
func NewJobManager(
	cfg Config,
	reconcileHandler ReconcileHandler,
	purgeHandler PurgeHandler,
	logger *slog.Logger,
) (*JobManager, error) {
	reconcileCmd, err := commands.NewReconcileWebhookEventsCommand(cfg.ReconcileMaxAttempts, cfg.ReconcileBatchSize)
	if err != nil {
		return nil, fmt.Errorf("webhook reconcile job: %w", err)
	}
	purgeCmd, err := commands.NewPurgeWebhookEventsCommand(cfg.Retention, cfg.ReplayTolerance)
	if err != nil {
		return nil, fmt.Errorf("webhook retention job: %w", err)
	}

	timeout := cfg.RunTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}

	return &JobManager{
		reconcileJob: NewWebhookReconcileJob(reconcileHandler, reconcileCmd, cfg.ReconcileSchedule, timeout, logger),
		retentionJob: NewWebhookRetentionJob(purgeHandler, purgeCmd, cfg.RetentionSchedule, timeout, logger),
	}, nil
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.reconcileJob.Start(); err != nil {
		return fmt.Errorf("failed to start webhook reconcile job: %w", err)
	}

	if err := jm.retentionJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.reconcileJob.Stop()
		return fmt.Errorf("failed to start webhook retention job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs and waits for running passes.
func (jm *JobManager) StopAll() {
	jm.reconcileJob.Stop()
	jm.retentionJob.Stop()
}
