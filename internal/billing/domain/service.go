package domain

import (
	"context"
	"errors"
	"time"

	"github.com/mustafamuse/irshad-center-sub014/internal/program"
)

// SubscriptionChange is the validated effect of one provider subscription
// event (created/updated/deleted), expressed in internal terms.
type SubscriptionChange struct {
	Program         program.Program
	EventType       string
	ExternalEventID string
	SubscriptionID  string
	CustomerID      string
	Status          ExternalStatus
	Amount          int64
	Currency        string
	Interval        string
	PeriodStart     time.Time
	PeriodEnd       time.Time
	OccurredAt      time.Time

	// ReplacesSubscriptionID is set when this subscription supersedes an
	// earlier one; the old external id is appended to the history list.
	ReplacesSubscriptionID string

	// ProfileIDs names the profiles this subscription funds, when the
	// provider metadata carries them. Empty means "keep the profiles the
	// active assignments already name".
	ProfileIDs []string

	// AmountOverrides carries explicit per-profile amounts in minor units.
	// Profiles without an override receive an equal share.
	AmountOverrides map[string]int64
}

// InvoiceChange is the validated effect of one invoice event.
type InvoiceChange struct {
	Program         program.Program
	EventType       string
	ExternalEventID string
	InvoiceID       string
	SubscriptionID  string
	CustomerID      string
	Amount          int64
	Currency        string
	PeriodEnd       time.Time
	OccurredAt      time.Time
	Paid            bool
}

// CheckoutChange is the validated effect of a completed checkout session.
type CheckoutChange struct {
	Program         program.Program
	EventType       string
	ExternalEventID string
	CustomerID      string
	SubscriptionID  string
	ProfileIDs      []string
	OccurredAt      time.Time
}

// Service applies reconciliation effects to billing state. Every Apply*
// call runs its writes in a single transaction; a concurrent event for the
// same subscription fully precedes or fully follows, never interleaves.
type Service interface {
	ApplySubscriptionChange(ctx context.Context, change SubscriptionChange) error
	ApplyInvoiceChange(ctx context.Context, change InvoiceChange) error
	ApplyCheckoutChange(ctx context.Context, change CheckoutChange) error

	// ResolveSubscription loads the subscription, its active assignments
	// and the funded profile ids for an external subscription id.
	ResolveSubscription(ctx context.Context, p program.Program, externalID string) (*Subscription, []BillingAssignment, error)
}

var (
	ErrAccountNotKnown      = errors.New("account_not_known")
	ErrSubscriptionNotKnown = errors.New("subscription_not_known")
	ErrAllocationInvariant  = errors.New("allocation_invariant_violation")
	ErrInvalidChange        = errors.New("invalid_change")
	ErrInvalidStatus        = errors.New("invalid_external_status")
)
