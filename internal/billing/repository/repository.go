package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/mustafamuse/irshad-center-sub014/internal/billing/domain"
)

type repositoryImpl struct{}

// Provide constructs the gorm-backed billing store.
func Provide() domain.Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) FindLinkByCustomer(ctx context.Context, db *gorm.DB, program string, customerID string) (*domain.AccountProgramLink, error) {
	var link domain.AccountProgramLink
	err := db.WithContext(ctx).
		Where("program = ? AND customer_id = ?", program, customerID).
		Take(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *repositoryImpl) InsertAccount(ctx context.Context, db *gorm.DB, account *domain.BillingAccount) error {
	return db.WithContext(ctx).Create(account).Error
}

func (r *repositoryImpl) InsertLink(ctx context.Context, db *gorm.DB, link *domain.AccountProgramLink) error {
	return db.WithContext(ctx).Create(link).Error
}

func (r *repositoryImpl) MarkPaymentMethodCaptured(ctx context.Context, db *gorm.DB, linkID snowflake.ID, capturedAt time.Time) error {
	// COALESCE keeps the first capture timestamp on redelivery.
	return db.WithContext(ctx).Exec(
		`UPDATE account_program_links
		 SET payment_method_captured = TRUE,
		     payment_method_captured_at = COALESCE(payment_method_captured_at, ?),
		     updated_at = ?
		 WHERE id = ?`,
		capturedAt,
		capturedAt,
		linkID,
	).Error
}

func (r *repositoryImpl) FindSubscriptionByExternalID(ctx context.Context, db *gorm.DB, program string, externalID string) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := db.WithContext(ctx).
		Where("program = ? AND external_id = ?", program, externalID).
		Take(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *repositoryImpl) LockSubscriptionByExternalID(ctx context.Context, tx *gorm.DB, program string, externalID string) (*domain.Subscription, error) {
	query := `SELECT *
		 FROM subscriptions
		 WHERE program = ? AND external_id = ?`
	// sqlite has no row locks; test serialization comes from the single
	// connection.
	if tx.Dialector.Name() == "postgres" {
		query += ` FOR UPDATE`
	}

	var sub domain.Subscription
	err := tx.WithContext(ctx).Raw(query, program, externalID).Scan(&sub).Error
	if err != nil {
		return nil, err
	}
	if sub.ID == 0 {
		return nil, nil
	}
	return &sub, nil
}

func (r *repositoryImpl) InsertSubscription(ctx context.Context, db *gorm.DB, sub *domain.Subscription) error {
	return db.WithContext(ctx).Create(sub).Error
}

func (r *repositoryImpl) UpdateSubscription(ctx context.Context, db *gorm.DB, sub *domain.Subscription) error {
	sub.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).Save(sub).Error
}

func (r *repositoryImpl) ListActiveAssignments(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) ([]domain.BillingAssignment, error) {
	var assignments []domain.BillingAssignment
	err := db.WithContext(ctx).
		Where("subscription_id = ? AND active = ?", subscriptionID, true).
		Order("profile_id ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *repositoryImpl) FindAssignment(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, profileID string) (*domain.BillingAssignment, error) {
	var assignment domain.BillingAssignment
	err := db.WithContext(ctx).
		Where("subscription_id = ? AND profile_id = ?", subscriptionID, profileID).
		Order("created_at DESC").
		Limit(1).
		Take(&assignment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repositoryImpl) InsertAssignment(ctx context.Context, db *gorm.DB, assignment *domain.BillingAssignment) error {
	return db.WithContext(ctx).Create(assignment).Error
}

func (r *repositoryImpl) DeactivateAssignment(ctx context.Context, db *gorm.DB, assignmentID snowflake.ID, endDate time.Time) error {
	// COALESCE keeps the original end date when a terminal event is
	// redelivered.
	return db.WithContext(ctx).Exec(
		`UPDATE billing_assignments
		 SET active = FALSE,
		     end_date = COALESCE(end_date, ?),
		     updated_at = ?
		 WHERE id = ? AND active = TRUE`,
		endDate,
		time.Now().UTC(),
		assignmentID,
	).Error
}

func (r *repositoryImpl) ReactivateAssignment(ctx context.Context, db *gorm.DB, assignmentID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE billing_assignments
		 SET active = TRUE,
		     end_date = NULL,
		     updated_at = ?
		 WHERE id = ?`,
		time.Now().UTC(),
		assignmentID,
	).Error
}

func (r *repositoryImpl) SumActiveAssignments(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount), 0)
		 FROM billing_assignments
		 WHERE subscription_id = ? AND active = TRUE`,
		subscriptionID,
	).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repositoryImpl) DeactivateProfileAssignments(ctx context.Context, db *gorm.DB, profileID string, exceptSubscriptionID snowflake.ID, endDate time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE billing_assignments
		 SET active = FALSE,
		     end_date = COALESCE(end_date, ?),
		     updated_at = ?
		 WHERE profile_id = ? AND subscription_id <> ? AND active = TRUE`,
		endDate,
		time.Now().UTC(),
		profileID,
		exceptSubscriptionID,
	).Error
}

func (r *repositoryImpl) InsertHistory(ctx context.Context, db *gorm.DB, entry *domain.SubscriptionHistory) error {
	return db.WithContext(ctx).Create(entry).Error
}
