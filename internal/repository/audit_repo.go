package repository

import (
	"context"

	"staffhub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditRepository is append-only. There is deliberately no update or delete.
type AuditRepository interface {
	Record(ctx context.Context, entry *model.AuditLog) error
	ListByResource(ctx context.Context, resourceType string, resourceID uuid.UUID) ([]model.AuditLog, error)
}

type auditRepo struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) AuditRepository { return &auditRepo{db: db} }

func (r *auditRepo) Record(ctx context.Context, entry *model.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepo) ListByResource(ctx context.Context, resourceType string, resourceID uuid.UUID) ([]model.AuditLog, error) {
	var entries []model.AuditLog
	err := r.db.WithContext(ctx).
		Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("created_at").
		Find(&entries).Error
	return entries, err
}
