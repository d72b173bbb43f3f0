package domain

import (
	"context"
	"errors"

	"github.com/mustafamuse/irshad-center-sub014/internal/program"
)

// Delivery is one raw provider delivery as handed over by the transport
// layer: the byte-exact body used for signing, the signature header and an
// explicit program selector. Any re-serialization of the body before
// verification is a defect.
type Delivery struct {
	Program         program.Program
	Payload         []byte
	SignatureHeader string
}

// Service is the reconciliation engine. One call per delivery; the
// disposition is a value, never an inferred exception path.
type Service interface {
	Reconcile(ctx context.Context, delivery Delivery) Disposition
}

var (
	ErrInvalidSignature      = errors.New("invalid_signature")
	ErrInvalidPayload        = errors.New("invalid_payload")
	ErrInvalidEvent          = errors.New("invalid_event")
	ErrEventIgnored          = errors.New("event_ignored")
	ErrAmountMismatch        = errors.New("amount_mismatch")
	ErrEventAlreadyHandled   = errors.New("event_already_handled")
	ErrProviderNotConfigured = errors.New("provider_not_configured")
)
