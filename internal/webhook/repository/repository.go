package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mustafamuse/irshad-center-sub014/internal/webhook/domain"
)

type repositoryImpl struct{}

// Provide constructs the gorm-backed idempotency ledger.
func Provide() domain.Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) InsertEvent(ctx context.Context, db *gorm.DB, event *domain.ProcessedEvent) (bool, error) {
	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_event_id"}, {Name: "source"}},
			DoNothing: true,
		}).
		Create(event)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) DeleteEvent(ctx context.Context, db *gorm.DB, externalEventID, source string) error {
	return db.WithContext(ctx).
		Where("external_event_id = ? AND source = ?", externalEventID, source).
		Delete(&domain.ProcessedEvent{}).Error
}

func (r *repositoryImpl) MarkProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, processedAt time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.ProcessedEvent{}).
		Where("id = ?", id).
		Update("processed_at", processedAt).Error
}

func (r *repositoryImpl) FindEvent(ctx context.Context, db *gorm.DB, externalEventID, source string) (*domain.ProcessedEvent, error) {
	var event domain.ProcessedEvent
	err := db.WithContext(ctx).
		Where("external_event_id = ? AND source = ?", externalEventID, source).
		Take(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}
