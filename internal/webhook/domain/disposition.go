package domain

// DispositionKind is the caller-visible outcome class.
type DispositionKind string

const (
	// DispositionAccepted acknowledges the event: fully processed, a
	// known duplicate, or an event type the engine deliberately ignores.
	DispositionAccepted DispositionKind = "accepted"
	// DispositionRetry asks the provider to redeliver: an out-of-order
	// dependency, a write conflict, or an unknown-outcome timeout. The
	// idempotency ledger entry is rolled back first.
	DispositionRetry DispositionKind = "retry"
	// DispositionFatal rejects the event for human investigation. The
	// ledger entry (if written) stays in place so the known-bad event is
	// never silently reprocessed.
	DispositionFatal DispositionKind = "fatal"
)

// Disposition is the typed result of one reconciliation attempt.
type Disposition struct {
	Kind   DispositionKind
	Reason string
}

func Accepted(reason string) Disposition {
	return Disposition{Kind: DispositionAccepted, Reason: reason}
}

func RetryRequested(reason string) Disposition {
	return Disposition{Kind: DispositionRetry, Reason: reason}
}

func RejectedFatal(reason string) Disposition {
	return Disposition{Kind: DispositionFatal, Reason: reason}
}
