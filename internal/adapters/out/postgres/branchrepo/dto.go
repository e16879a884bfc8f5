// Package branchrepo persists bakery branches with their delivery zones in
// a Postgres text[] column.
package branchrepo

import (
	"fulfillment/internal/core/domain/model/branch"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type BranchDTO struct {
	ID       uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Code     string         `gorm:"not null;uniqueIndex"`
	Zones    pq.StringArray `gorm:"type:text[];not null"`
	Active   bool           `gorm:"not null;default:true"`
	Priority int            `gorm:"not null;default:0;index"`
}

func (BranchDTO) TableName() string {
	return "branches"
}

func fromDomain(b *branch.Branch) BranchDTO {
	zones := b.Zones()
	raw := make(pq.StringArray, 0, len(zones))
	for _, z := range zones {
		raw = append(raw, string(z))
	}

	return BranchDTO{
		ID:       b.ID().Bytes(),
		Code:     b.Code(),
		Zones:    raw,
		Active:   b.Active(),
		Priority: b.Priority(),
	}
}

func toDomain(dto BranchDTO) (*branch.Branch, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	return branch.NewBranch(id, dto.Code, dto.Zones, dto.Active, dto.Priority)
}
