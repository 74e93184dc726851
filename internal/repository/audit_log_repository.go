package repository

import (
	"context"
	"time"

	"shoporder/internal/domain/model"
)

// 空の項目は絞り込まない
type AuditLogFilter struct {
	ActorUserID  int64
	Action       model.AuditAction
	ResourceType model.AuditResourceType
	ResourceID   int64
	From         *time.Time
	To           *time.Time
	Page         int
	Limit        int
}

type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	// 新しい順
	List(ctx context.Context, f AuditLogFilter) ([]model.AuditLog, int64, error)
}
