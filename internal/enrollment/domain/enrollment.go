package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Status is the internal enrollment status vocabulary. Every external
// subscription status maps to exactly one of these.
type Status string

const (
	StatusRegistered Status = "REGISTERED"
	StatusEnrolled   Status = "ENROLLED"
	StatusOnLeave    Status = "ON_LEAVE"
	StatusWithdrawn  Status = "WITHDRAWN"
)

var (
	ErrEnrollmentNotFound = errors.New("enrollment_not_found")
	ErrInvalidStatus      = errors.New("invalid_enrollment_status")
)

// Enrollment is the slice of a profile this engine is allowed to touch:
// its identifier, current status and the attributes the rate calculator
// needs. Name, schedule and the rest of the profile are owned elsewhere.
type Enrollment struct {
	ProfileID string     `gorm:"primaryKey;type:text"`
	Program   string     `gorm:"type:text;not null;index"`
	Status    Status     `gorm:"type:text;not null"`
	RateCode  string     `gorm:"type:text;not null;default:''"`
	EndDate   *time.Time `gorm:"column:end_date"`
	UpdatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Enrollment) TableName() string { return "enrollments" }

// Store is the profile/enrollment collaborator. The engine reads a
// profile's status and writes a new one as a state-machine effect; it
// never owns the profile.
type Store interface {
	GetActiveEnrollment(ctx context.Context, db *gorm.DB, profileID string) (*Enrollment, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, profileID string, status Status, reason string, endDate *time.Time) error
}
