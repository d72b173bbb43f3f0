package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mustafamuse/irshad-center-sub014/internal/enrollment/domain"
)

type repositoryImpl struct{}

// Provide constructs the gorm-backed enrollment store.
func Provide() domain.Store {
	return &repositoryImpl{}
}

func (r *repositoryImpl) GetActiveEnrollment(ctx context.Context, db *gorm.DB, profileID string) (*domain.Enrollment, error) {
	var row domain.Enrollment
	err := db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrEnrollmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) UpdateStatus(ctx context.Context, db *gorm.DB, profileID string, status domain.Status, reason string, endDate *time.Time) error {
	switch status {
	case domain.StatusRegistered, domain.StatusEnrolled, domain.StatusOnLeave, domain.StatusWithdrawn:
	default:
		return domain.ErrInvalidStatus
	}

	updates := map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if endDate != nil {
		updates["end_date"] = *endDate
	}

	result := db.WithContext(ctx).
		Model(&domain.Enrollment{}).
		Where("profile_id = ?", profileID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrEnrollmentNotFound
	}
	return nil
}
