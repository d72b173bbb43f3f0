package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/mustafamuse/irshad-center-sub014/internal/audit/domain"
)

const defaultListLimit = 50

type repositoryImpl struct{}

// Provide constructs the gorm-backed audit log store.
func Provide() domain.Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Insert(ctx context.Context, db *gorm.DB, entry *domain.AuditLog) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repositoryImpl) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.AuditLog, error) {
	query := db.WithContext(ctx).Model(&domain.AuditLog{})

	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.TargetType != "" {
		query = query.Where("target_type = ?", filter.TargetType)
	}
	if filter.TargetID != "" {
		query = query.Where("target_id = ?", filter.TargetID)
	}
	if filter.ActorType != "" {
		query = query.Where("actor_type = ?", filter.ActorType)
	}
	if filter.StartAt != nil {
		query = query.Where("created_at >= ?", *filter.StartAt)
	}
	if filter.EndAt != nil {
		query = query.Where("created_at < ?", *filter.EndAt)
	}
	if filter.Cursor != nil {
		query = query.Where(
			"(created_at, id) < (?, ?)",
			filter.Cursor.CreatedAt, filter.Cursor.ID,
		)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var rows []*domain.AuditLog
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
