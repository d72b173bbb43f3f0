package service

import (
	"context"
	"errors"
	"fmt"

	billingdomain "github.com/mustafamuse/irshad-center-sub014/internal/billing/domain"
	enrollmentdomain "github.com/mustafamuse/irshad-center-sub014/internal/enrollment/domain"
	"github.com/mustafamuse/irshad-center-sub014/internal/webhook/domain"
)

// amountMismatchError carries both amounts for the operator alert while
// still classifying as ErrAmountMismatch.
type amountMismatchError struct {
	subscriptionID string
	reported       int64
	expected       int64
}

func (e *amountMismatchError) Error() string {
	return fmt.Sprintf("amount_mismatch: subscription %s reported %d expected %d",
		e.subscriptionID, e.reported, e.expected)
}

func (e *amountMismatchError) Unwrap() error { return domain.ErrAmountMismatch }

// classify is the sole authority turning component errors into
// dispositions. Anything unrecognized is a storage-layer surprise and
// retries: redelivery is safe, silent loss is not.
func classify(err error) domain.Disposition {
	switch {
	case err == nil:
		return domain.Accepted("processed")

	case errors.Is(err, domain.ErrAmountMismatch):
		return domain.RejectedFatal("amount_mismatch")
	case errors.Is(err, billingdomain.ErrAllocationInvariant):
		return domain.RejectedFatal("allocation_invariant")
	case errors.Is(err, billingdomain.ErrInvalidChange),
		errors.Is(err, billingdomain.ErrInvalidStatus),
		errors.Is(err, enrollmentdomain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidEvent):
		return domain.RejectedFatal("invalid_change")

	case errors.Is(err, billingdomain.ErrSubscriptionNotKnown):
		return domain.RetryRequested("subscription_not_known")
	case errors.Is(err, billingdomain.ErrAccountNotKnown):
		return domain.RetryRequested("account_not_known")
	case errors.Is(err, enrollmentdomain.ErrEnrollmentNotFound):
		return domain.RetryRequested("enrollment_not_found")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return domain.RetryRequested("timeout")

	default:
		return domain.RetryRequested("storage_error")
	}
}
