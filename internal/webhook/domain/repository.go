package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the idempotency ledger store.
type Repository interface {
	// InsertEvent writes the ledger row. It returns false when the unique
	// key already holds the event, which is the duplicate signal.
	InsertEvent(ctx context.Context, db *gorm.DB, event *ProcessedEvent) (bool, error)
	// DeleteEvent is the compensating rollback for retryable failures; it
	// re-opens the event id for a legitimate redelivery.
	DeleteEvent(ctx context.Context, db *gorm.DB, externalEventID, source string) error
	MarkProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, processedAt time.Time) error
	FindEvent(ctx context.Context, db *gorm.DB, externalEventID, source string) (*ProcessedEvent, error)
}
