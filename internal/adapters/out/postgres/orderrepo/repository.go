package orderrepo

import (
	"context"
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormOrderRepository implements ports.OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Add saves a new order to the database.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	return r.db.WithContext(ctx).Create(&dto).Error
}

// Update overwrites the order row only if its stored version still equals
// expectedVersion.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order, expectedVersion int64) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("id = ? AND version = ?", dto.ID, expectedVersion).
		Select("*").
		Omit("id", "created_at").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var actual int64
	err := r.db.WithContext(ctx).Model(&OrderDTO{}).Select("version").Where("id = ?", dto.ID).Take(&actual).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NewObjectNotFoundError("order", aggregate.ID().String())
	}
	if err != nil {
		return err
	}
	return errs.NewConcurrencyConflictError("order", aggregate.ID().String(), expectedVersion, actual)
}

// Get retrieves an order by ID.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

func (r *GormOrderRepository) AppendAudit(ctx context.Context, record order.AuditRecord) error {
	if err := record.OrderID.Validate(); err != nil {
		return err
	}
	if record.ID == "" {
		return errs.NewValueIsRequiredError("audit id")
	}

	dto := auditFromDomain(record)
	return r.db.WithContext(ctx).Create(&dto).Error
}

// ListAudit returns the order's transitions, oldest first.
func (r *GormOrderRepository) ListAudit(ctx context.Context, id kernel.UUID) ([]order.AuditRecord, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dtos []AuditDTO
	if err := r.db.WithContext(ctx).Where("order_id = ?", id.Bytes()).Order("version").Find(&dtos).Error; err != nil {
		return nil, err
	}

	records := make([]order.AuditRecord, 0, len(dtos))
	for _, dto := range dtos {
		rec, err := auditToDomain(dto)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
