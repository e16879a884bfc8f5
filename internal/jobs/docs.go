// Package jobs provides scheduled background tasks for the fulfillment
// service.
//
// Jobs are cron-based, using github.com/robfig/cron/v3 with a seconds field.
// A run that is still going when the next tick fires is skipped, so a slow
// database never piles up overlapping runs.
//
// # Available Jobs
//
// 1. WebhookReconcileJob - gives deferred courier webhook events another
// transition try, bounded by a per-event attempt cap
// 2. WebhookRetentionJob - purges webhook dedupe rows older than the
// retention window
//
// # Usage
//
//	jobManager, err := jobs.NewJobManager(jobs.Config{...}, reconcileHandler, purgeHandler, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
package jobs
