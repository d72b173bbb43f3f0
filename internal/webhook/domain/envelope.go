package domain

import (
	"strings"
	"time"

	billingdomain "github.com/mustafamuse/irshad-center-sub014/internal/billing/domain"
	"github.com/mustafamuse/irshad-center-sub014/internal/program"
)

// Event is the validated envelope produced at the boundary. Exactly one of
// Subscription, Invoice or Checkout is set; the rest of the engine only
// ever sees this strongly typed form.
type Event struct {
	ProviderEventID string
	Type            string
	Program         program.Program
	OccurredAt      time.Time

	Subscription *SubscriptionEvent
	Invoice      *InvoiceEvent
	Checkout     *CheckoutEvent
}

// SubscriptionEvent covers subscription created/updated/deleted.
type SubscriptionEvent struct {
	SubscriptionID string
	CustomerID     string
	Status         billingdomain.ExternalStatus
	Amount         int64
	Currency       string
	Interval       string
	PeriodStart    time.Time
	PeriodEnd      time.Time

	// ReplacesSubscriptionID is carried in provider metadata when this
	// subscription supersedes an earlier one.
	ReplacesSubscriptionID string
	// ProfileIDs and AmountOverrides come from provider metadata set at
	// checkout time: which enrollment profiles this subscription funds and
	// any explicit per-profile amounts in minor units.
	ProfileIDs      []string
	AmountOverrides map[string]int64
}

// InvoiceEvent covers invoice paid/failed.
type InvoiceEvent struct {
	InvoiceID      string
	SubscriptionID string
	CustomerID     string
	Amount         int64
	Currency       string
	PeriodEnd      time.Time
	Paid           bool
}

// CheckoutEvent covers a completed hosted-checkout session.
type CheckoutEvent struct {
	CustomerID     string
	SubscriptionID string
	ProfileIDs     []string
}

// Validate checks the envelope once at the boundary.
func (e *Event) Validate() error {
	if e == nil {
		return ErrInvalidEvent
	}
	e.ProviderEventID = strings.TrimSpace(e.ProviderEventID)
	e.Type = strings.TrimSpace(e.Type)
	if e.ProviderEventID == "" || e.Type == "" || e.OccurredAt.IsZero() {
		return ErrInvalidEvent
	}

	set := 0
	if e.Subscription != nil {
		set++
		if strings.TrimSpace(e.Subscription.SubscriptionID) == "" ||
			strings.TrimSpace(e.Subscription.CustomerID) == "" {
			return ErrInvalidEvent
		}
		if _, ok := billingdomain.ParseExternalStatus(string(e.Subscription.Status)); !ok {
			return ErrInvalidEvent
		}
		if e.Subscription.Amount < 0 {
			return ErrInvalidEvent
		}
	}
	if e.Invoice != nil {
		set++
		if strings.TrimSpace(e.Invoice.SubscriptionID) == "" {
			return ErrInvalidEvent
		}
		if e.Invoice.Amount < 0 {
			return ErrInvalidEvent
		}
	}
	if e.Checkout != nil {
		set++
		if strings.TrimSpace(e.Checkout.CustomerID) == "" {
			return ErrInvalidEvent
		}
	}
	if set != 1 {
		return ErrInvalidEvent
	}
	return nil
}
