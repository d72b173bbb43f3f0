package service

import (
	"context"
	"strings"

	"gorm.io/gorm"

	billingdomain "github.com/mustafamuse/irshad-center-sub014/internal/billing/domain"
)

// ApplyInvoiceChange advances paid-until on a paid invoice and appends
// history. Lifecycle transitions come only from subscription events, so a
// failed invoice records history without touching status.
func (s *Service) ApplyInvoiceChange(ctx context.Context, change billingdomain.InvoiceChange) error {
	if strings.TrimSpace(change.SubscriptionID) == "" ||
		strings.TrimSpace(change.ExternalEventID) == "" ||
		change.OccurredAt.IsZero() {
		return billingdomain.ErrInvalidChange
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		sub, err := s.repo.LockSubscriptionByExternalID(ctx, tx, change.Program.String(), change.SubscriptionID)
		if err != nil {
			return err
		}
		if sub == nil {
			return billingdomain.ErrSubscriptionNotKnown
		}

		if change.Paid {
			until := change.PeriodEnd
			if until.IsZero() {
				until = change.OccurredAt
			}
			if sub.PaidUntil == nil || until.After(*sub.PaidUntil) {
				sub.PaidUntil = &until
			}
			if err := s.repo.UpdateSubscription(ctx, tx, sub); err != nil {
				return err
			}
		}

		return s.appendHistory(ctx, tx, sub.ID, change.EventType, change.ExternalEventID, sub.Status, change.Amount, change.OccurredAt)
	})
}

// ApplyCheckoutChange ensures the payer's billing account and program link
// exist and stamps payment-method capture. The capture timestamp is
// written once; redelivery keeps the original.
func (s *Service) ApplyCheckoutChange(ctx context.Context, change billingdomain.CheckoutChange) error {
	if strings.TrimSpace(change.CustomerID) == "" ||
		strings.TrimSpace(change.ExternalEventID) == "" ||
		change.OccurredAt.IsZero() {
		return billingdomain.ErrInvalidChange
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		link, err := s.ensureAccountLink(ctx, tx, change.Program, change.CustomerID)
		if err != nil {
			return err
		}
		if err := s.repo.MarkPaymentMethodCaptured(ctx, tx, link.ID, change.OccurredAt); err != nil {
			return err
		}

		if strings.TrimSpace(change.SubscriptionID) == "" {
			return nil
		}
		sub, err := s.repo.LockSubscriptionByExternalID(ctx, tx, change.Program.String(), change.SubscriptionID)
		if err != nil {
			return err
		}
		if sub == nil {
			// The subscription.created event has not landed yet; it will
			// carry the funding details when it does.
			return nil
		}
		return s.appendHistory(ctx, tx, sub.ID, change.EventType, change.ExternalEventID, sub.Status, sub.Amount, change.OccurredAt)
	})
}
