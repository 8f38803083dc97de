package repository

import (
	"context"

	"flowmrp/internal/model"

	"gorm.io/gorm"
)

// AuditRepository persists audit entries. Only the audit worker writes here.
type AuditRepository interface {
	Create(ctx context.Context, e *model.AuditEntry) error
}

type auditRepo struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) AuditRepository { return &auditRepo{db: db} }

func (r *auditRepo) Create(ctx context.Context, e *model.AuditEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}
