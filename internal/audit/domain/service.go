package domain

import "context"

// Entry is one action to record. ActorType defaults to system; the
// reconciliation engine has no human actors.
type Entry struct {
	ActorType  ActorType
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	Metadata   map[string]any
}

// Service appends audit rows. Recording failures are logged and swallowed
// by the implementation; an audit write must never change a disposition.
type Service interface {
	Record(ctx context.Context, entry Entry)
	List(ctx context.Context, filter ListFilter) ([]*AuditLog, error)
}
