package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/mustafamuse/irshad-center-sub014/internal/audit/domain"
	billingdomain "github.com/mustafamuse/irshad-center-sub014/internal/billing/domain"
	"github.com/mustafamuse/irshad-center-sub014/internal/clock"
	"github.com/mustafamuse/irshad-center-sub014/internal/events"
	"github.com/mustafamuse/irshad-center-sub014/internal/observability/metrics"
	"github.com/mustafamuse/irshad-center-sub014/internal/rates"
	"github.com/mustafamuse/irshad-center-sub014/internal/webhook/adapters"
	"github.com/mustafamuse/irshad-center-sub014/internal/webhook/domain"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clk      clock.Clock
	Registry *adapters.Registry
	Ledger   domain.Repository
	Billing  billingdomain.Service
	Rates    rates.Calculator
	Audit    auditdomain.Service
	Outbox   *events.Outbox
	Metrics  *metrics.ReconcileMetrics
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clk      clock.Clock
	registry *adapters.Registry
	ledger   domain.Repository
	billing  billingdomain.Service
	rates    rates.Calculator
	audit    auditdomain.Service
	outbox   *events.Outbox
	metrics  *metrics.ReconcileMetrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("webhook.service"),
		genID:    p.GenID,
		clk:      p.Clk,
		registry: p.Registry,
		ledger:   p.Ledger,
		billing:  p.Billing,
		rates:    p.Rates,
		audit:    p.Audit,
		outbox:   p.Outbox,
		metrics:  p.Metrics,
	}
}

// Reconcile runs one delivery through the full pipeline: verify, parse,
// claim the idempotency ledger row, apply the billing effect, classify.
// The returned disposition is final; callers only translate it to a
// transport status.
func (s *Service) Reconcile(ctx context.Context, delivery domain.Delivery) domain.Disposition {
	start := time.Now()
	disposition := s.reconcile(ctx, delivery)
	s.metrics.ObserveDisposition(delivery.Program.String(), string(disposition.Kind), time.Since(start))
	return disposition
}

func (s *Service) reconcile(ctx context.Context, delivery domain.Delivery) domain.Disposition {
	adapter, ok := s.registry.Get(delivery.Program)
	if !ok {
		s.log.Error("no adapter for program", zap.String("program", delivery.Program.String()))
		return s.fatal(ctx, fatalContext{
			program: delivery.Program.String(),
			reason:  "provider_not_configured",
		})
	}

	if err := adapter.Verify(ctx, delivery.Payload, delivery.SignatureHeader); err != nil {
		// Warn, not error: the public endpoint sees scanner noise.
		s.log.Warn("signature verification failed",
			zap.String("program", delivery.Program.String()),
		)
		return s.fatal(ctx, fatalContext{
			program: delivery.Program.String(),
			reason:  "invalid_signature",
		})
	}

	event, err := adapter.Parse(ctx, delivery.Payload)
	if errors.Is(err, domain.ErrEventIgnored) {
		return domain.Accepted("ignored")
	}
	if err != nil {
		s.log.Warn("payload rejected",
			zap.String("program", delivery.Program.String()),
			zap.Error(err),
		)
		return s.fatal(ctx, fatalContext{
			program: delivery.Program.String(),
			reason:  "invalid_payload",
		})
	}

	log := s.log.With(
		zap.String("program", event.Program.String()),
		zap.String("event_id", event.ProviderEventID),
		zap.String("event_type", event.Type),
	)

	source := event.Program.Source()
	row := &domain.ProcessedEvent{
		ID:              s.genID.Generate(),
		ExternalEventID: event.ProviderEventID,
		Source:          source,
		EventType:       event.Type,
		ReceivedAt:      s.clk.Now(),
	}
	inserted, err := s.ledger.InsertEvent(ctx, s.db, row)
	if err != nil {
		log.Error("ledger insert failed", zap.Error(err))
		return domain.RetryRequested("storage_error")
	}
	if !inserted {
		s.metrics.IncDuplicate(event.Program.String())
		log.Info("duplicate delivery acknowledged")
		return domain.Accepted("duplicate")
	}

	applyErr := s.apply(ctx, event)
	disposition := classify(applyErr)

	switch disposition.Kind {
	case domain.DispositionAccepted:
		now := s.clk.Now()
		if err := s.ledger.MarkProcessed(ctx, s.db, row.ID, now); err != nil {
			// The billing writes are committed; the ledger row still blocks
			// redelivery, so this is observability loss only.
			log.Error("mark processed failed", zap.Error(err))
		}
		log.Info("event reconciled")
		return disposition

	case domain.DispositionRetry:
		// Re-open the event id before asking for redelivery. A failed
		// rollback wedges this event until an operator clears the row.
		if err := s.ledger.DeleteEvent(ctx, s.db, event.ProviderEventID, source); err != nil {
			log.Error("ledger rollback failed, event wedged", zap.Error(err))
		}
		log.Warn("retry requested",
			zap.String("reason", disposition.Reason),
			zap.Error(applyErr),
		)
		return disposition

	default:
		log.Error("event rejected",
			zap.String("reason", disposition.Reason),
			zap.Error(applyErr),
		)
		fc := fatalContext{
			program:   event.Program.String(),
			eventID:   event.ProviderEventID,
			eventType: event.Type,
			reason:    disposition.Reason,
		}
		var mismatch *amountMismatchError
		if errors.As(applyErr, &mismatch) {
			fc.subscriptionID = mismatch.subscriptionID
			fc.reported = mismatch.reported
			fc.expected = mismatch.expected
		}
		return s.fatal(ctx, fc)
	}
}

// apply maps the envelope to a billing change and checks amount integrity
// first, so a mismatch rejects before any state mutates.
func (s *Service) apply(ctx context.Context, event *domain.Event) error {
	switch {
	case event.Subscription != nil:
		return s.applySubscription(ctx, event)
	case event.Invoice != nil:
		return s.applyInvoice(ctx, event)
	case event.Checkout != nil:
		return s.applyCheckout(ctx, event)
	default:
		return domain.ErrInvalidEvent
	}
}

func (s *Service) applySubscription(ctx context.Context, event *domain.Event) error {
	sub := event.Subscription

	// Explicit per-profile overrides are an administrative decision; the
	// published rate table no longer describes the expected total.
	if len(sub.ProfileIDs) > 0 && len(sub.AmountOverrides) == 0 && sub.Amount > 0 && !sub.Status.IsTerminal() {
		expected, ok, err := s.rates.ExpectedCharge(ctx, s.db, event.Program, sub.ProfileIDs)
		if err != nil {
			return err
		}
		if ok && expected != sub.Amount {
			return &amountMismatchError{
				subscriptionID: sub.SubscriptionID,
				reported:       sub.Amount,
				expected:       expected,
			}
		}
	}

	return s.billing.ApplySubscriptionChange(ctx, billingdomain.SubscriptionChange{
		Program:                event.Program,
		EventType:              event.Type,
		ExternalEventID:        event.ProviderEventID,
		SubscriptionID:         sub.SubscriptionID,
		CustomerID:             sub.CustomerID,
		Status:                 sub.Status,
		Amount:                 sub.Amount,
		Currency:               sub.Currency,
		Interval:               sub.Interval,
		PeriodStart:            sub.PeriodStart,
		PeriodEnd:              sub.PeriodEnd,
		OccurredAt:             event.OccurredAt,
		ReplacesSubscriptionID: sub.ReplacesSubscriptionID,
		ProfileIDs:             sub.ProfileIDs,
		AmountOverrides:        sub.AmountOverrides,
	})
}

func (s *Service) applyInvoice(ctx context.Context, event *domain.Event) error {
	inv := event.Invoice

	if inv.Paid && inv.Amount > 0 {
		_, assignments, err := s.billing.ResolveSubscription(ctx, event.Program, inv.SubscriptionID)
		if err != nil {
			return err
		}
		profileIDs := make([]string, 0, len(assignments))
		for _, assignment := range assignments {
			profileIDs = append(profileIDs, assignment.ProfileID)
		}
		expected, ok, err := s.rates.ExpectedCharge(ctx, s.db, event.Program, profileIDs)
		if err != nil {
			return err
		}
		if ok && expected != inv.Amount {
			return &amountMismatchError{
				subscriptionID: inv.SubscriptionID,
				reported:       inv.Amount,
				expected:       expected,
			}
		}
	}

	return s.billing.ApplyInvoiceChange(ctx, billingdomain.InvoiceChange{
		Program:         event.Program,
		EventType:       event.Type,
		ExternalEventID: event.ProviderEventID,
		InvoiceID:       inv.InvoiceID,
		SubscriptionID:  inv.SubscriptionID,
		CustomerID:      inv.CustomerID,
		Amount:          inv.Amount,
		Currency:        inv.Currency,
		PeriodEnd:       inv.PeriodEnd,
		OccurredAt:      event.OccurredAt,
		Paid:            inv.Paid,
	})
}

func (s *Service) applyCheckout(ctx context.Context, event *domain.Event) error {
	checkout := event.Checkout
	return s.billing.ApplyCheckoutChange(ctx, billingdomain.CheckoutChange{
		Program:         event.Program,
		EventType:       event.Type,
		ExternalEventID: event.ProviderEventID,
		CustomerID:      checkout.CustomerID,
		SubscriptionID:  checkout.SubscriptionID,
		ProfileIDs:      checkout.ProfileIDs,
		OccurredAt:      event.OccurredAt,
	})
}

type fatalContext struct {
	program        string
	eventID        string
	eventType      string
	reason         string
	subscriptionID string
	reported       int64
	expected       int64
}

// fatal records the rejection for operators (audit row + outbox alert) and
// returns the disposition. The ledger row, when one was written, stays in
// place so the known-bad event is never silently reprocessed.
func (s *Service) fatal(ctx context.Context, fc fatalContext) domain.Disposition {
	s.metrics.IncFatal(fc.program, fc.reason)

	payload := events.FatalPayload{
		Program:         fc.program,
		ExternalEventID: fc.eventID,
		EventType:       fc.eventType,
		Reason:          fc.reason,
		SubscriptionID:  fc.subscriptionID,
		ReportedAmount:  fc.reported,
		ExpectedAmount:  fc.expected,
	}

	s.audit.Record(ctx, auditdomain.Entry{
		ActorType:  auditdomain.ActorTypeSystem,
		Action:     events.EventReconcileFatal,
		TargetType: "webhook_event",
		TargetID:   fc.eventID,
		Metadata:   payload.ToMap(),
	})

	if fc.eventID != "" {
		err := s.outbox.Publish(ctx, events.Event{
			Type:      events.EventReconcileFatal,
			Payload:   payload.ToMap(),
			DedupeKey: "fatal:" + fc.program + ":" + fc.eventID,
		})
		if err != nil {
			s.log.Error("fatal alert publish failed",
				zap.String("event_id", fc.eventID),
				zap.Error(err),
			)
		}
	}

	return domain.RejectedFatal(fc.reason)
}
