package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the billing store. Methods take the database handle per
// call so service code can pass either the root connection or an open
// transaction.
type Repository interface {
	FindLinkByCustomer(ctx context.Context, db *gorm.DB, program string, customerID string) (*AccountProgramLink, error)
	InsertAccount(ctx context.Context, db *gorm.DB, account *BillingAccount) error
	InsertLink(ctx context.Context, db *gorm.DB, link *AccountProgramLink) error
	MarkPaymentMethodCaptured(ctx context.Context, db *gorm.DB, linkID snowflake.ID, capturedAt time.Time) error

	FindSubscriptionByExternalID(ctx context.Context, db *gorm.DB, program string, externalID string) (*Subscription, error)
	// LockSubscriptionByExternalID loads the row FOR UPDATE inside tx.
	LockSubscriptionByExternalID(ctx context.Context, tx *gorm.DB, program string, externalID string) (*Subscription, error)
	InsertSubscription(ctx context.Context, db *gorm.DB, sub *Subscription) error
	UpdateSubscription(ctx context.Context, db *gorm.DB, sub *Subscription) error

	ListActiveAssignments(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) ([]BillingAssignment, error)
	// FindAssignment returns the most recent assignment for the pair,
	// active or not.
	FindAssignment(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, profileID string) (*BillingAssignment, error)
	InsertAssignment(ctx context.Context, db *gorm.DB, assignment *BillingAssignment) error
	DeactivateAssignment(ctx context.Context, db *gorm.DB, assignmentID snowflake.ID, endDate time.Time) error
	ReactivateAssignment(ctx context.Context, db *gorm.DB, assignmentID snowflake.ID) error
	SumActiveAssignments(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) (int64, error)
	// DeactivateProfileAssignments ends every other active assignment a
	// profile holds, so a profile is funded by at most one at a time.
	DeactivateProfileAssignments(ctx context.Context, db *gorm.DB, profileID string, exceptSubscriptionID snowflake.ID, endDate time.Time) error

	InsertHistory(ctx context.Context, db *gorm.DB, entry *SubscriptionHistory) error
}
