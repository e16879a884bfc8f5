package secretrepo

import (
	"context"

	"fulfillment/internal/core/domain/model/secret"
	"fulfillment/internal/core/domain/model/webhook"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSecretRepository implements ports.SecretRepository using GORM.
type GormSecretRepository struct {
	db *gorm.DB
}

func NewGormSecretRepository(db *gorm.DB) *GormSecretRepository {
	return &GormSecretRepository{db: db}
}

func (r *GormSecretRepository) ListByPlatform(ctx context.Context, platform webhook.Platform) ([]secret.Record, error) {
	var dtos []RecordDTO
	err := r.db.WithContext(ctx).
		Where("platform = ?", string(platform)).
		Order("is_current DESC, key_version DESC").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}
	return toRecords(dtos), nil
}

func (r *GormSecretRepository) ListCurrent(ctx context.Context) ([]secret.Record, error) {
	var dtos []RecordDTO
	if err := r.db.WithContext(ctx).Where("is_current").Order("platform").Find(&dtos).Error; err != nil {
		return nil, err
	}
	return toRecords(dtos), nil
}

// SaveCurrent issues two statements; run it inside a unit of work so no
// reader sees a platform without a current record.
func (r *GormSecretRepository) SaveCurrent(ctx context.Context, record secret.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	db := r.db.WithContext(ctx)
	err := db.Model(&RecordDTO{}).
		Where("platform = ? AND is_current", string(record.Platform)).
		UpdateColumn("is_current", false).Error
	if err != nil {
		return err
	}

	dto := fromDomain(record)
	dto.Current = true
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "platform"}, {Name: "key_version"}},
		DoUpdates: clause.AssignmentColumns([]string{"ciphertext", "nonce", "algorithm", "is_current", "created_at"}),
	}).Create(&dto).Error
}

func (r *GormSecretRepository) DeleteKeyVersion(ctx context.Context, keyVersion int) (int64, error) {
	result := r.db.WithContext(ctx).Where("key_version = ?", keyVersion).Delete(&RecordDTO{})
	return result.RowsAffected, result.Error
}

func toRecords(dtos []RecordDTO) []secret.Record {
	records := make([]secret.Record, 0, len(dtos))
	for _, dto := range dtos {
		records = append(records, toDomain(dto))
	}
	return records
}
