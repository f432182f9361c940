package repository

import (
	"context"

	"billing-service/models"

	"gorm.io/gorm"
)

// AuditRepository persists write-only transition records.
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

type GormAuditRepository struct {
	db *gorm.DB
}

func NewGormAuditRepository(db *gorm.DB) AuditRepository {
	return &GormAuditRepository{db: db}
}

func (r *GormAuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
