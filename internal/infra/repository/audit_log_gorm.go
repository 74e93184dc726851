package repository

import (
	"context"

	"shoporder/internal/domain/model"
	repo "shoporder/internal/repository"

	"gorm.io/gorm"
)

const (
	auditLogDefaultLimit = 50
	auditLogMaxLimit     = 200
)

type AuditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) *AuditLogGormRepository {
	return &AuditLogGormRepository{db: db}
}

func (r *AuditLogGormRepository) Create(ctx context.Context, log model.AuditLog) error {
	return translate(r.db.WithContext(ctx).Create(&log).Error)
}

func (r *AuditLogGormRepository) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, int64, error) {
	page, limit := normalizePage(f.Page, f.Limit, auditLogDefaultLimit, auditLogMaxLimit)
	q := r.db.WithContext(ctx).Model(&model.AuditLog{}).Scopes(auditLogFilter(f))

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var logs []model.AuditLog
	err := q.Order("id DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&logs).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return logs, total, nil
}

func auditLogFilter(f repo.AuditLogFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.ActorUserID > 0 {
			db = db.Where("actor_user_id = ?", f.ActorUserID)
		}
		if f.Action != "" {
			db = db.Where("action = ?", f.Action)
		}
		if f.ResourceType != "" {
			db = db.Where("resource_type = ?", f.ResourceType)
		}
		if f.ResourceID > 0 {
			db = db.Where("resource_id = ?", f.ResourceID)
		}
		if f.From != nil {
			db = db.Where("created_at >= ?", *f.From)
		}
		if f.To != nil {
			db = db.Where("created_at <= ?", *f.To)
		}
		return db
	}
}
