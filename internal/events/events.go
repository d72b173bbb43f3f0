package events

// Reconciliation event types published to the outbox. Fatal dispositions
// and grace-limit breaches feed the operational alerting channel; status
// changes feed downstream dashboards (eventually consistent, no
// read-your-writes guarantee).
const (
	EventSubscriptionStatusChanged = "reconcile.subscription_status_changed"
	EventProfileStatusChanged      = "reconcile.profile_status_changed"
	EventReconcileFatal            = "reconcile.fatal"
	EventGraceExceeded             = "reconcile.grace_exceeded"
)

// StatusChangedPayload captures the minimal data downstream readers need
// to pick up a subscription transition.
type StatusChangedPayload struct {
	SubscriptionID  string `json:"subscription_id"`
	Program         string `json:"program"`
	ExternalEventID string `json:"external_event_id"`
	FromStatus      string `json:"from_status,omitempty"`
	ToStatus        string `json:"to_status"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p StatusChangedPayload) ToMap() map[string]any {
	payload := map[string]any{
		"subscription_id":   p.SubscriptionID,
		"program":           p.Program,
		"external_event_id": p.ExternalEventID,
		"to_status":         p.ToStatus,
	}
	if p.FromStatus != "" {
		payload["from_status"] = p.FromStatus
	}
	return payload
}

// FatalPayload carries enough context for manual reconciliation of a
// rejected event.
type FatalPayload struct {
	Program         string `json:"program"`
	ExternalEventID string `json:"external_event_id"`
	EventType       string `json:"event_type"`
	Reason          string `json:"reason"`
	SubscriptionID  string `json:"subscription_id,omitempty"`
	ReportedAmount  int64  `json:"reported_amount,omitempty"`
	ExpectedAmount  int64  `json:"expected_amount,omitempty"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p FatalPayload) ToMap() map[string]any {
	payload := map[string]any{
		"program":           p.Program,
		"external_event_id": p.ExternalEventID,
		"event_type":        p.EventType,
		"reason":            p.Reason,
	}
	if p.SubscriptionID != "" {
		payload["subscription_id"] = p.SubscriptionID
	}
	if p.ReportedAmount != 0 || p.ExpectedAmount != 0 {
		payload["reported_amount"] = p.ReportedAmount
		payload["expected_amount"] = p.ExpectedAmount
	}
	return payload
}
