package stripe

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	billingdomain "github.com/mustafamuse/irshad-center-sub014/internal/billing/domain"
	"github.com/mustafamuse/irshad-center-sub014/internal/config"
	"github.com/mustafamuse/irshad-center-sub014/internal/program"
	"github.com/mustafamuse/irshad-center-sub014/internal/webhook/domain"
)

// Metadata keys set by the registration flow at checkout time.
const (
	metadataProfileIDs     = "profile_ids"
	metadataReplaces       = "replaces_subscription_id"
	metadataOverridePrefix = "amount_override_"
)

// Adapter verifies and parses Stripe deliveries for exactly one program's
// Stripe account.
type Adapter struct {
	prog  program.Program
	creds config.StripeCredentials
}

// NewAdapter constructs the adapter for one program. The credentials are
// pinned at construction; nothing about the payload can reroute a
// delivery to the other program's secret.
func NewAdapter(p program.Program, creds config.StripeCredentials) *Adapter {
	return &Adapter{prog: p, creds: creds}
}

func (a *Adapter) Program() program.Program { return a.prog }

// Verify checks the Stripe-Signature header over the byte-exact payload.
// Fails closed: a missing secret, a missing header and a bad signature are
// indistinguishable to the caller.
func (a *Adapter) Verify(ctx context.Context, payload []byte, signatureHeader string) error {
	if strings.TrimSpace(a.creds.WebhookSecret) == "" || strings.TrimSpace(signatureHeader) == "" {
		return domain.ErrInvalidSignature
	}
	if err := webhook.ValidatePayload(payload, signatureHeader, a.creds.WebhookSecret); err != nil {
		return domain.ErrInvalidSignature
	}
	return nil
}

// Parse maps a verified payload to a validated envelope.
func (a *Adapter) Parse(ctx context.Context, payload []byte) (*domain.Event, error) {
	if !json.Valid(payload) {
		return nil, domain.ErrInvalidPayload
	}
	var raw stripe.Event
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, domain.ErrInvalidPayload
	}

	event := &domain.Event{
		ProviderEventID: raw.ID,
		Type:            string(raw.Type),
		Program:         a.prog,
		OccurredAt:      time.Unix(raw.Created, 0).UTC(),
	}

	switch raw.Type {
	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		sub, err := parseSubscription(raw.Data.Raw)
		if err != nil {
			return nil, err
		}
		event.Subscription = sub
	case "invoice.paid":
		inv, err := parseInvoice(raw.Data.Raw, true)
		if err != nil {
			return nil, err
		}
		event.Invoice = inv
	case "invoice.payment_failed":
		inv, err := parseInvoice(raw.Data.Raw, false)
		if err != nil {
			return nil, err
		}
		event.Invoice = inv
	case "checkout.session.completed":
		checkout, err := parseCheckout(raw.Data.Raw)
		if err != nil {
			return nil, err
		}
		event.Checkout = checkout
	default:
		return nil, domain.ErrEventIgnored
	}

	if err := event.Validate(); err != nil {
		return nil, err
	}
	return event, nil
}

func parseSubscription(raw json.RawMessage) (*domain.SubscriptionEvent, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, domain.ErrInvalidPayload
	}

	status, ok := billingdomain.ParseExternalStatus(string(sub.Status))
	if !ok {
		return nil, domain.ErrInvalidEvent
	}

	out := &domain.SubscriptionEvent{
		SubscriptionID: sub.ID,
		Status:         status,
		Currency:       string(sub.Currency),
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}

	if sub.Items != nil {
		for _, item := range sub.Items.Data {
			if item == nil || item.Price == nil {
				continue
			}
			quantity := item.Quantity
			if quantity == 0 {
				quantity = 1
			}
			out.Amount += item.Price.UnitAmount * quantity
			if item.Price.Recurring != nil && out.Interval == "" {
				out.Interval = string(item.Price.Recurring.Interval)
			}
			if out.PeriodStart.IsZero() && item.CurrentPeriodStart > 0 {
				out.PeriodStart = time.Unix(item.CurrentPeriodStart, 0).UTC()
			}
			if out.PeriodEnd.IsZero() && item.CurrentPeriodEnd > 0 {
				out.PeriodEnd = time.Unix(item.CurrentPeriodEnd, 0).UTC()
			}
		}
	}

	out.ProfileIDs = splitProfileIDs(sub.Metadata[metadataProfileIDs])
	out.ReplacesSubscriptionID = strings.TrimSpace(sub.Metadata[metadataReplaces])
	out.AmountOverrides = parseOverrides(sub.Metadata)
	return out, nil
}

func parseInvoice(raw json.RawMessage, paid bool) (*domain.InvoiceEvent, error) {
	var inv stripe.Invoice
	if err := json.Unmarshal(raw, &inv); err != nil {
		return nil, domain.ErrInvalidPayload
	}

	out := &domain.InvoiceEvent{
		InvoiceID: inv.ID,
		Currency:  string(inv.Currency),
		Paid:      paid,
	}
	if inv.Customer != nil {
		out.CustomerID = inv.Customer.ID
	}
	if paid {
		out.Amount = inv.AmountPaid
	} else {
		out.Amount = inv.AmountDue
	}
	if inv.PeriodEnd > 0 {
		out.PeriodEnd = time.Unix(inv.PeriodEnd, 0).UTC()
	}

	out.SubscriptionID = invoiceSubscriptionID(&inv, raw)
	if out.SubscriptionID == "" {
		return nil, domain.ErrInvalidEvent
	}
	return out, nil
}

// invoiceSubscriptionID reads the subscription reference from the invoice
// parent details, falling back to the legacy top-level field for accounts
// still on an older API version.
func invoiceSubscriptionID(inv *stripe.Invoice, raw json.RawMessage) string {
	if inv.Parent != nil && inv.Parent.SubscriptionDetails != nil && inv.Parent.SubscriptionDetails.Subscription != nil {
		return inv.Parent.SubscriptionDetails.Subscription.ID
	}
	var legacy struct {
		Subscription string `json:"subscription"`
	}
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return ""
	}
	return strings.TrimSpace(legacy.Subscription)
}

func parseCheckout(raw json.RawMessage) (*domain.CheckoutEvent, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, domain.ErrInvalidPayload
	}

	out := &domain.CheckoutEvent{
		ProfileIDs: splitProfileIDs(session.Metadata[metadataProfileIDs]),
	}
	if session.Customer != nil {
		out.CustomerID = session.Customer.ID
	}
	if session.Subscription != nil {
		out.SubscriptionID = session.Subscription.ID
	}
	return out, nil
}

func splitProfileIDs(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}

func parseOverrides(metadata map[string]string) map[string]int64 {
	var overrides map[string]int64
	for key, value := range metadata {
		if !strings.HasPrefix(key, metadataOverridePrefix) {
			continue
		}
		profileID := strings.TrimSpace(strings.TrimPrefix(key, metadataOverridePrefix))
		if profileID == "" {
			continue
		}
		amount, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil || amount < 0 {
			continue
		}
		if overrides == nil {
			overrides = make(map[string]int64)
		}
		overrides[profileID] = amount
	}
	return overrides
}
