package webhookrepo

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/webhook"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormWebhookEventRepository implements ports.WebhookEventRepository using GORM.
type GormWebhookEventRepository struct {
	db *gorm.DB
}

func NewGormWebhookEventRepository(db *gorm.DB) *GormWebhookEventRepository {
	return &GormWebhookEventRepository{db: db}
}

// InsertIfAbsent relies on the primary key: of two concurrent inserts of the
// same key exactly one affects a row.
func (r *GormWebhookEventRepository) InsertIfAbsent(ctx context.Context, event webhook.Event) (bool, error) {
	if event.DedupeKey == "" {
		return false, errs.NewValueIsRequiredError("dedupe key")
	}

	dto := fromDomain(event)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&dto)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// UpdateOutcome writes the processing result fields only.
func (r *GormWebhookEventRepository) UpdateOutcome(ctx context.Context, event webhook.Event) error {
	result := r.db.WithContext(ctx).
		Model(&EventDTO{}).
		Where("dedupe_key = ?", event.DedupeKey).
		Updates(map[string]any{
			"outcome":            string(event.Outcome),
			"applied_at":         event.AppliedAt,
			"reconcile_attempts": event.ReconcileAttempts,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("webhook event", event.DedupeKey)
	}
	return nil
}

func (r *GormWebhookEventRepository) Get(ctx context.Context, dedupeKey string) (webhook.Event, error) {
	var dto EventDTO
	if err := r.db.WithContext(ctx).First(&dto, "dedupe_key = ?", dedupeKey).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return webhook.Event{}, errs.NewObjectNotFoundError("webhook event", dedupeKey)
		}
		return webhook.Event{}, err
	}
	return toDomain(dto)
}

// ListDeferred returns the oldest deferred events retried fewer than
// maxAttempts times.
func (r *GormWebhookEventRepository) ListDeferred(ctx context.Context, maxAttempts, limit int) ([]webhook.Event, error) {
	var dtos []EventDTO
	err := r.db.WithContext(ctx).
		Where("outcome = ? AND reconcile_attempts < ?", string(webhook.OutcomeDeferred), maxAttempts).
		Order("received_at").
		Limit(limit).
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	events := make([]webhook.Event, 0, len(dtos))
	for _, dto := range dtos {
		e, convErr := toDomain(dto)
		if convErr != nil {
			return nil, convErr
		}
		events = append(events, e)
	}
	return events, nil
}

func (r *GormWebhookEventRepository) CountDeferred(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&EventDTO{}).
		Where("outcome = ?", string(webhook.OutcomeDeferred)).
		Count(&n).Error
	return n, err
}

func (r *GormWebhookEventRepository) PurgeReceivedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("received_at < ?", cutoff).Delete(&EventDTO{})
	return result.RowsAffected, result.Error
}
