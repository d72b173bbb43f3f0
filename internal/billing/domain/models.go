package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// BillingAccount is one payer entity (a parent or family unit), independent
// of which program(s) it pays for. Created on first checkout; never
// deleted, only amended.
type BillingAccount struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Email     string       `gorm:"type:text;not null;default:''"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (BillingAccount) TableName() string { return "billing_accounts" }

// AccountProgramLink ties a billing account to its external customer
// identity inside one program's provider account. At most one link per
// (account, program), and a customer id is unique within a program.
type AccountProgramLink struct {
	ID                      snowflake.ID `gorm:"primaryKey"`
	AccountID               snowflake.ID `gorm:"not null;index;uniqueIndex:ux_account_program,priority:1"`
	Program                 string       `gorm:"type:text;not null;uniqueIndex:ux_account_program,priority:2;uniqueIndex:ux_program_customer,priority:1"`
	CustomerID              string       `gorm:"type:text;not null;uniqueIndex:ux_program_customer,priority:2"`
	PaymentMethodCaptured   bool         `gorm:"not null;default:false"`
	PaymentMethodCapturedAt *time.Time   `gorm:"column:payment_method_captured_at"`
	CreatedAt               time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt               time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (AccountProgramLink) TableName() string { return "account_program_links" }

// Subscription mirrors one externally managed recurring charge. Rows are
// never physically deleted; terminal lifecycles are status transitions.
type Subscription struct {
	ID                 snowflake.ID                 `gorm:"primaryKey"`
	AccountID          snowflake.ID                 `gorm:"not null;index"`
	Program            string                       `gorm:"type:text;not null;index"`
	ExternalID         string                       `gorm:"type:text;not null;uniqueIndex:ux_subscriptions_external_id"`
	Status             ExternalStatus               `gorm:"type:text;not null"`
	Amount             int64                        `gorm:"not null"`
	Currency           string                       `gorm:"type:text;not null"`
	Interval           string                       `gorm:"type:text;not null;default:'month'"`
	CurrentPeriodStart time.Time                    `gorm:"not null"`
	CurrentPeriodEnd   time.Time                    `gorm:"not null"`
	PaidUntil          *time.Time                   `gorm:"column:paid_until"`
	GraceStartedAt     *time.Time                   `gorm:"column:grace_started_at"`
	SupersededIDs      datatypes.JSONSlice[string]  `gorm:"column:superseded_ids"`
	CreatedAt          time.Time                    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time                    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// BillingAssignment allocates part of one subscription's funding to one
// enrollment profile. Deactivated, never deleted, so the audit trail
// survives funding moves.
type BillingAssignment struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	SubscriptionID snowflake.ID `gorm:"not null;index;uniqueIndex:ux_assignment_active,priority:1,where:active"`
	ProfileID      string       `gorm:"type:text;not null;index;uniqueIndex:ux_assignment_active,priority:2,where:active"`
	Amount         int64        `gorm:"not null"`
	Active         bool         `gorm:"not null;default:true"`
	StartDate      time.Time    `gorm:"not null"`
	EndDate        *time.Time   `gorm:"column:end_date"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (BillingAssignment) TableName() string { return "billing_assignments" }

// SubscriptionHistory is the append-only audit record written once per
// successfully reconciled provider event. Never mutated, never read back
// by the engine.
type SubscriptionHistory struct {
	ID              snowflake.ID   `gorm:"primaryKey"`
	SubscriptionID  snowflake.ID   `gorm:"not null;index"`
	EventType       string         `gorm:"type:text;not null"`
	ExternalEventID string         `gorm:"type:text;not null"`
	Status          ExternalStatus `gorm:"type:text;not null"`
	Amount          int64          `gorm:"not null"`
	OccurredAt      time.Time      `gorm:"not null"`
	CreatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (SubscriptionHistory) TableName() string { return "subscription_history" }
