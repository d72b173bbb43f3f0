package domain

import (
	"context"

	"github.com/mustafamuse/irshad-center-sub014/internal/program"
)

// ProviderAdapter verifies and parses one program's provider deliveries.
// One adapter instance exists per program, each constructed explicitly
// with that program's credentials; there is no shared or global client.
type ProviderAdapter interface {
	// Verify checks the signature over the byte-exact payload. It must
	// fail closed: missing secret, missing header and mismatch are all
	// ErrInvalidSignature.
	Verify(ctx context.Context, payload []byte, signatureHeader string) error
	// Parse maps a verified payload to a validated envelope, or
	// ErrEventIgnored for event types the engine does not handle.
	Parse(ctx context.Context, payload []byte) (*Event, error)
	Program() program.Program
}
