package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fulfillment/internal/core/domain/model/secret"
	"fulfillment/internal/core/domain/model/webhook"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/metrics"
)

// webhookTransitionTries is the first attempt plus one reload-and-retry on
// a version conflict.
const webhookTransitionTries = 2

// AckResult is the acknowledgement of an accepted callback. Rejections are
// returned as errors instead.
type AckResult struct {
	DedupeKey string
	// Duplicate is set when the event was seen before; nothing was reapplied.
	Duplicate bool
	Outcome   webhook.Outcome
}

// HandleCourierWebhookCommandHandler ingests courier status callbacks:
// freshness, signature, decoding, dedupe and transition, in that order.
// The dedupe row, the order transition and the outcome are written in one
// transaction.
type HandleCourierWebhookCommandHandler struct {
	uowFactory WebhookUoWFactory
	secrets    ports.SecretProvider
	tolerance  time.Duration
	notifier   statusNotifier
	metrics    *metrics.Metrics
	clock      Clock
	logger     *slog.Logger
}

func NewHandleCourierWebhookCommandHandler(
	uowFactory WebhookUoWFactory,
	secrets ports.SecretProvider,
	tolerance time.Duration,
	publisher ports.OrderEventPublisher,
	m *metrics.Metrics,
	clock Clock,
	logger *slog.Logger,
) HandleCourierWebhookCommandHandler {
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	logger = loggerOrDefault(logger, "webhook-ingestion")
	return HandleCourierWebhookCommandHandler{
		uowFactory: uowFactory,
		secrets:    secrets,
		tolerance:  tolerance,
		notifier:   statusNotifier{publisher: publisher, metrics: m, logger: logger},
		metrics:    m,
		clock:      clock,
		logger:     logger,
	}
}

// Handle errors:
//   - webhook.ErrReplayDetected: timestamp missing or outside the tolerance
//   - webhook.ErrSignatureInvalid: no secret for the platform or HMAC mismatch
//   - errs.ErrValueIsInvalid / errs.ErrValueIsRequired: malformed body
//
// Anything else is a storage failure and nothing was persisted.
func (h HandleCourierWebhookCommandHandler) Handle(
	ctx context.Context,
	cmd HandleCourierWebhookCommand,
) (AckResult, error) {
	if err := cmd.Validate(); err != nil {
		return AckResult{}, err
	}

	started := time.Now()
	result, err := h.handle(ctx, cmd)
	h.metrics.WebhookProcessed(cmd.Platform().String(), webhookMetricOutcome(result, err), time.Since(started))
	return result, err
}

func (h HandleCourierWebhookCommandHandler) handle(
	ctx context.Context,
	cmd HandleCourierWebhookCommand,
) (AckResult, error) {
	now := h.clock.now()
	log := h.logger.With("platform", cmd.Platform().String())

	ts, err := webhook.ParseTimestamp(cmd.Timestamp())
	if err == nil {
		err = webhook.CheckFreshness(ts, now, h.tolerance)
	}
	if err != nil {
		log.WarnContext(ctx, "webhook rejected", "error", err)
		return AckResult{}, err
	}

	signingKey, err := h.secrets.SigningSecret(ctx, cmd.Platform())
	if errors.Is(err, secret.ErrNoSecret) {
		log.WarnContext(ctx, "webhook rejected, platform has no signing secret")
		return AckResult{}, fmt.Errorf("%w: no signing secret for %s", webhook.ErrSignatureInvalid, cmd.Platform())
	}
	if err != nil {
		return AckResult{}, fmt.Errorf("load signing secret: %w", err)
	}

	if err = webhook.VerifySignature(signingKey, cmd.Timestamp(), cmd.Body(), cmd.Signature()); err != nil {
		log.WarnContext(ctx, "webhook rejected", "error", err)
		return AckResult{}, err
	}

	payload, err := webhook.ParsePayload(cmd.Body())
	if err != nil {
		return AckResult{}, err
	}

	update, ok := payload.(webhook.StatusUpdate)
	if !ok {
		kind := ""
		if u, isUnrecognized := payload.(webhook.Unrecognized); isUnrecognized {
			kind = u.Kind
		}
		log.InfoContext(ctx, "ignoring unrecognized webhook payload", "kind", kind)
		return AckResult{Outcome: webhook.OutcomeIgnored}, nil
	}

	return h.ingest(ctx, log, webhook.NewEvent(cmd.Platform(), update, now))
}

func (h HandleCourierWebhookCommandHandler) ingest(
	ctx context.Context,
	log *slog.Logger,
	ev webhook.Event,
) (AckResult, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return AckResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	events := uow.WebhookEventRepository()
	inserted, err := events.InsertIfAbsent(ctx, ev)
	if err != nil {
		return AckResult{}, err
	}
	if !inserted {
		log.InfoContext(ctx, "duplicate webhook event", "dedupe_key", ev.DedupeKey)
		return AckResult{DedupeKey: ev.DedupeKey, Duplicate: true}, nil
	}

	outcome, err := resolveWebhookEvent(ctx, uow.OrderRepository(), &ev, webhookTransitionTries, h.clock)
	if err != nil {
		return AckResult{}, err
	}
	if err = events.UpdateOutcome(ctx, ev); err != nil {
		return AckResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return AckResult{}, err
	}

	switch ev.Outcome {
	case webhook.OutcomeApplied, webhook.OutcomeIgnored:
	case webhook.OutcomeDeferred:
		log.WarnContext(ctx, "webhook event deferred after repeated version conflicts",
			"dedupe_key", ev.DedupeKey, "order_id", ev.OrderID.String())
	default:
		log.WarnContext(ctx, "webhook event not applied",
			"dedupe_key", ev.DedupeKey, "order_id", ev.OrderID.String(),
			"status", ev.ExternalStatus, "outcome", string(ev.Outcome))
	}
	h.notifier.committed(ctx, outcome)

	return AckResult{DedupeKey: ev.DedupeKey, Outcome: ev.Outcome}, nil
}

func webhookMetricOutcome(result AckResult, err error) string {
	switch {
	case errors.Is(err, webhook.ErrReplayDetected):
		return "replay_detected"
	case errors.Is(err, webhook.ErrSignatureInvalid):
		return "signature_invalid"
	case errors.Is(err, errs.ErrValueIsInvalid), errors.Is(err, errs.ErrValueIsRequired):
		return "validation_error"
	case err != nil:
		return "error"
	case result.Duplicate:
		return "duplicate"
	default:
		return string(result.Outcome)
	}
}
