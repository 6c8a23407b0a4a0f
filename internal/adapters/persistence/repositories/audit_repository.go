package repositories

import (
	"context"

	"pustaka-desk/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit log repository
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// List pages through entries newest first, optionally filtered by entity
func (r *auditRepository) List(ctx context.Context, entity string, offset, limit int) ([]*models.AuditLog, int64, error) {
	byEntity := func(db *gorm.DB) *gorm.DB {
		if entity != "" {
			return db.Where("entity = ?", entity)
		}
		return db
	}

	var total int64
	err := r.db.WithContext(ctx).Model(&models.AuditLog{}).Scopes(byEntity).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var entries []*models.AuditLog
	err = r.db.WithContext(ctx).Scopes(byEntity).Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error
	return entries, total, err
}
