// Package secretrepo stores sealed platform secrets, one row per platform and
// master key version.
package secretrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/secret"
	"fulfillment/internal/core/domain/model/webhook"
)

type RecordDTO struct {
	Platform   string    `gorm:"primaryKey"`
	KeyVersion int       `gorm:"primaryKey;index"`
	Ciphertext []byte    `gorm:"type:bytea;not null"`
	Nonce      []byte    `gorm:"type:bytea;not null"`
	Algorithm  string    `gorm:"not null"`
	Current    bool      `gorm:"column:is_current;not null;default:false"`
	CreatedAt  time.Time `gorm:"autoCreateTime:false"`
}

func (RecordDTO) TableName() string {
	return "secret_records"
}

func fromDomain(r secret.Record) RecordDTO {
	return RecordDTO{
		Platform:   string(r.Platform),
		KeyVersion: r.KeyVersion,
		Ciphertext: r.Ciphertext,
		Nonce:      r.Nonce,
		Algorithm:  r.Algorithm,
		Current:    r.Current,
		CreatedAt:  r.CreatedAt,
	}
}

func toDomain(dto RecordDTO) secret.Record {
	return secret.Record{
		Platform:   webhook.Platform(dto.Platform),
		KeyVersion: dto.KeyVersion,
		Ciphertext: dto.Ciphertext,
		Nonce:      dto.Nonce,
		Algorithm:  dto.Algorithm,
		Current:    dto.Current,
		CreatedAt:  dto.CreatedAt.UTC(),
	}
}
