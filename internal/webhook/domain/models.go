package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ProcessedEvent is one row of the idempotency ledger. The unique key on
// (external_event_id, source) makes the insert act as a distributed-mutex
// substitute: only one concurrent attempt wins the row for a given event.
type ProcessedEvent struct {
	ID              snowflake.ID `gorm:"primaryKey"`
	ExternalEventID string       `gorm:"type:text;not null;uniqueIndex:ux_processed_events,priority:1"`
	Source          string       `gorm:"type:text;not null;uniqueIndex:ux_processed_events,priority:2"`
	EventType       string       `gorm:"type:text;not null"`
	ReceivedAt      time.Time    `gorm:"not null"`
	ProcessedAt     *time.Time   `gorm:"column:processed_at"`
}

// TableName sets the database table name.
func (ProcessedEvent) TableName() string { return "processed_events" }
