package domain

import (
	enrollmentdomain "github.com/mustafamuse/irshad-center-sub014/internal/enrollment/domain"
)

// ExternalStatus is the provider's subscription status vocabulary. The
// engine never infers transitions; it applies whatever status the provider
// reports.
type ExternalStatus string

const (
	StatusIncomplete        ExternalStatus = "incomplete"
	StatusIncompleteExpired ExternalStatus = "incomplete_expired"
	StatusTrialing          ExternalStatus = "trialing"
	StatusActive            ExternalStatus = "active"
	StatusPastDue           ExternalStatus = "past_due"
	StatusPaused            ExternalStatus = "paused"
	StatusCanceled          ExternalStatus = "canceled"
	StatusUnpaid            ExternalStatus = "unpaid"
)

// ExternalStatuses lists every status the provider can report.
func ExternalStatuses() []ExternalStatus {
	return []ExternalStatus{
		StatusIncomplete,
		StatusIncompleteExpired,
		StatusTrialing,
		StatusActive,
		StatusPastDue,
		StatusPaused,
		StatusCanceled,
		StatusUnpaid,
	}
}

// ParseExternalStatus validates a provider-reported status.
func ParseExternalStatus(value string) (ExternalStatus, bool) {
	status := ExternalStatus(value)
	switch status {
	case StatusIncomplete, StatusIncompleteExpired, StatusTrialing, StatusActive,
		StatusPastDue, StatusPaused, StatusCanceled, StatusUnpaid:
		return status, true
	default:
		return "", false
	}
}

// MapToEnrollmentStatus maps an external status to the internal enrollment
// status. The mapping is total: every external status has exactly one
// internal counterpart. past_due keeps the profile ENROLLED (grace period,
// access is not downgraded).
func MapToEnrollmentStatus(status ExternalStatus) (enrollmentdomain.Status, bool) {
	switch status {
	case StatusActive, StatusPastDue:
		return enrollmentdomain.StatusEnrolled, true
	case StatusTrialing, StatusIncomplete:
		return enrollmentdomain.StatusRegistered, true
	case StatusPaused:
		return enrollmentdomain.StatusOnLeave, true
	case StatusCanceled, StatusUnpaid, StatusIncompleteExpired:
		return enrollmentdomain.StatusWithdrawn, true
	default:
		return "", false
	}
}

// IsTerminal reports whether the status ends the subscription lifecycle.
func (s ExternalStatus) IsTerminal() bool {
	switch s {
	case StatusCanceled, StatusUnpaid, StatusIncompleteExpired:
		return true
	default:
		return false
	}
}

// GrantsAccess reports whether profiles funded by a subscription in this
// status keep access.
func (s ExternalStatus) GrantsAccess() bool {
	switch s {
	case StatusActive, StatusPastDue, StatusTrialing:
		return true
	default:
		return false
	}
}
