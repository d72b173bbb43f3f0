package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	billingdomain "github.com/mustafamuse/irshad-center-sub014/internal/billing/domain"
	"github.com/mustafamuse/irshad-center-sub014/internal/clock"
	"github.com/mustafamuse/irshad-center-sub014/internal/config"
	enrollmentdomain "github.com/mustafamuse/irshad-center-sub014/internal/enrollment/domain"
	"github.com/mustafamuse/irshad-center-sub014/internal/events"
	"github.com/mustafamuse/irshad-center-sub014/internal/program"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clk      clock.Clock
	Cfg      config.Config
	Repo     billingdomain.Repository
	Profiles enrollmentdomain.Store
	Outbox   *events.Outbox
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clk      clock.Clock
	cfg      config.Config
	repo     billingdomain.Repository
	profiles enrollmentdomain.Store
	outbox   *events.Outbox
}

func NewService(p Params) billingdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("billing.service"),
		genID:    p.GenID,
		clk:      p.Clk,
		cfg:      p.Cfg,
		repo:     p.Repo,
		profiles: p.Profiles,
		outbox:   p.Outbox,
	}
}

// ResolveSubscription is the advisory read used before the transactional
// apply. A missing subscription is the distinguished out-of-order outcome.
func (s *Service) ResolveSubscription(ctx context.Context, p program.Program, externalID string) (*billingdomain.Subscription, []billingdomain.BillingAssignment, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, nil, billingdomain.ErrInvalidChange
	}
	sub, err := s.repo.FindSubscriptionByExternalID(ctx, s.db, p.String(), externalID)
	if err != nil {
		return nil, nil, err
	}
	if sub == nil {
		return nil, nil, billingdomain.ErrSubscriptionNotKnown
	}
	assignments, err := s.repo.ListActiveAssignments(ctx, s.db, sub.ID)
	if err != nil {
		return nil, nil, err
	}
	return sub, assignments, nil
}

// ApplySubscriptionChange runs the state machine and the allocator for one
// provider subscription event inside a single transaction. The allocation
// invariant is checked immediately before commit.
func (s *Service) ApplySubscriptionChange(ctx context.Context, change billingdomain.SubscriptionChange) error {
	if err := validateSubscriptionChange(change); err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.applySubscription(ctx, tx, change)
	})
}

func (s *Service) applySubscription(ctx context.Context, tx *gorm.DB, change billingdomain.SubscriptionChange) error {
	sub, err := s.repo.LockSubscriptionByExternalID(ctx, tx, change.Program.String(), change.SubscriptionID)
	if err != nil {
		return err
	}

	var prevStatus billingdomain.ExternalStatus
	created := sub == nil
	if created {
		sub, err = s.createSubscription(ctx, tx, change)
		if err != nil {
			return err
		}
	} else {
		prevStatus = sub.Status
		s.updateSubscriptionRow(sub, change)
		if err := s.repo.UpdateSubscription(ctx, tx, sub); err != nil {
			return err
		}
	}

	if err := s.checkGracePeriod(ctx, tx, sub, prevStatus, change); err != nil {
		return err
	}

	profileIDs, err := s.fundedProfiles(ctx, tx, sub, change)
	if err != nil {
		return err
	}

	// Funding moves to a replacement subscription deactivate the profiles'
	// old assignments instead of deleting them.
	if change.ReplacesSubscriptionID != "" {
		for _, profileID := range profileIDs {
			if err := s.repo.DeactivateProfileAssignments(ctx, tx, profileID, sub.ID, change.OccurredAt); err != nil {
				return err
			}
		}
	}

	if err := s.applyProfileStatuses(ctx, tx, sub, change, profileIDs); err != nil {
		return err
	}

	if err := s.allocate(ctx, tx, sub, change, profileIDs, prevStatus); err != nil {
		return err
	}

	// Invariant gate, inside the transaction, immediately before commit:
	// active assignment amounts must not exceed the subscription amount.
	allocated, err := s.repo.SumActiveAssignments(ctx, tx, sub.ID)
	if err != nil {
		return err
	}
	if allocated > sub.Amount {
		s.log.Error("allocation invariant violated",
			zap.String("subscription_id", change.SubscriptionID),
			zap.Int64("allocated", allocated),
			zap.Int64("subscription_amount", sub.Amount),
		)
		return billingdomain.ErrAllocationInvariant
	}

	if err := s.appendHistory(ctx, tx, sub.ID, change.EventType, change.ExternalEventID, change.Status, change.Amount, change.OccurredAt); err != nil {
		return err
	}

	if created || prevStatus != change.Status {
		payload := events.StatusChangedPayload{
			SubscriptionID:  change.SubscriptionID,
			Program:         change.Program.String(),
			ExternalEventID: change.ExternalEventID,
			FromStatus:      string(prevStatus),
			ToStatus:        string(change.Status),
		}
		if err := s.outbox.PublishTx(ctx, tx, events.Event{
			Type:      events.EventSubscriptionStatusChanged,
			Payload:   payload.ToMap(),
			DedupeKey: "status:" + change.ExternalEventID,
		}); err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) createSubscription(ctx context.Context, tx *gorm.DB, change billingdomain.SubscriptionChange) (*billingdomain.Subscription, error) {
	link, err := s.ensureAccountLink(ctx, tx, change.Program, change.CustomerID)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	sub := &billingdomain.Subscription{
		ID:                 s.genID.Generate(),
		AccountID:          link.AccountID,
		Program:            change.Program.String(),
		ExternalID:         change.SubscriptionID,
		Status:             change.Status,
		Amount:             change.Amount,
		Currency:           strings.ToUpper(change.Currency),
		Interval:           intervalOr(change.Interval),
		CurrentPeriodStart: change.PeriodStart,
		CurrentPeriodEnd:   change.PeriodEnd,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if change.ReplacesSubscriptionID != "" {
		sub.SupersededIDs = append(sub.SupersededIDs, change.ReplacesSubscriptionID)
	}
	applyPaidUntil(sub, change)
	if err := s.repo.InsertSubscription(ctx, tx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Service) updateSubscriptionRow(sub *billingdomain.Subscription, change billingdomain.SubscriptionChange) {
	sub.Status = change.Status
	if change.Amount > 0 {
		sub.Amount = change.Amount
	}
	if change.Currency != "" {
		sub.Currency = strings.ToUpper(change.Currency)
	}
	if change.Interval != "" {
		sub.Interval = change.Interval
	}
	if !change.PeriodStart.IsZero() {
		sub.CurrentPeriodStart = change.PeriodStart
	}
	if !change.PeriodEnd.IsZero() {
		sub.CurrentPeriodEnd = change.PeriodEnd
	}
	if replaced := change.ReplacesSubscriptionID; replaced != "" && !containsID(sub.SupersededIDs, replaced) {
		sub.SupersededIDs = append(sub.SupersededIDs, replaced)
	}
	applyPaidUntil(sub, change)
}

// checkGracePeriod stamps grace entry once, clears it on recovery, and
// alerts operators when a subscription has been past_due longer than the
// configured maximum. The engine never downgrades on its own.
func (s *Service) checkGracePeriod(ctx context.Context, tx *gorm.DB, sub *billingdomain.Subscription, prevStatus billingdomain.ExternalStatus, change billingdomain.SubscriptionChange) error {
	switch {
	case change.Status == billingdomain.StatusPastDue && sub.GraceStartedAt == nil:
		at := change.OccurredAt
		sub.GraceStartedAt = &at
	case change.Status == billingdomain.StatusActive && sub.GraceStartedAt != nil:
		sub.GraceStartedAt = nil
	}
	if err := s.repo.UpdateSubscription(ctx, tx, sub); err != nil {
		return err
	}

	if change.Status != billingdomain.StatusPastDue || sub.GraceStartedAt == nil {
		return nil
	}
	elapsed := change.OccurredAt.Sub(*sub.GraceStartedAt)
	if elapsed <= s.cfg.GraceMaxDuration {
		return nil
	}
	s.log.Warn("grace period exceeded",
		zap.String("subscription_id", change.SubscriptionID),
		zap.Duration("elapsed", elapsed),
		zap.Duration("max", s.cfg.GraceMaxDuration),
	)
	return s.outbox.PublishTx(ctx, tx, events.Event{
		Type: events.EventGraceExceeded,
		Payload: map[string]any{
			"subscription_id": change.SubscriptionID,
			"program":         change.Program.String(),
			"elapsed_seconds": int64(elapsed.Seconds()),
		},
		DedupeKey: "grace_exceeded:" + change.SubscriptionID,
	})
}

// fundedProfiles resolves the profile set an event applies to: explicit
// metadata when present, otherwise the profiles the active assignments
// already name.
func (s *Service) fundedProfiles(ctx context.Context, tx *gorm.DB, sub *billingdomain.Subscription, change billingdomain.SubscriptionChange) ([]string, error) {
	if len(change.ProfileIDs) > 0 {
		return dedupeSorted(change.ProfileIDs), nil
	}
	assignments, err := s.repo.ListActiveAssignments(ctx, tx, sub.ID)
	if err != nil {
		return nil, err
	}
	profileIDs := make([]string, 0, len(assignments))
	for _, assignment := range assignments {
		profileIDs = append(profileIDs, assignment.ProfileID)
	}
	return dedupeSorted(profileIDs), nil
}

// applyProfileStatuses writes the mapped enrollment status to every funded
// profile whose current status differs. The end date is stamped only on a
// transition into WITHDRAWN; re-applying a terminal status never re-stamps.
func (s *Service) applyProfileStatuses(ctx context.Context, tx *gorm.DB, sub *billingdomain.Subscription, change billingdomain.SubscriptionChange, profileIDs []string) error {
	mapped, ok := billingdomain.MapToEnrollmentStatus(change.Status)
	if !ok {
		return billingdomain.ErrInvalidStatus
	}

	for _, profileID := range profileIDs {
		enr, err := s.profiles.GetActiveEnrollment(ctx, tx, profileID)
		if err != nil {
			return err
		}
		if enr.Status == mapped {
			continue
		}
		var endDate *time.Time
		if mapped == enrollmentdomain.StatusWithdrawn {
			at := change.OccurredAt
			endDate = &at
		}
		reason := "subscription_" + string(change.Status)
		if err := s.profiles.UpdateStatus(ctx, tx, profileID, mapped, reason, endDate); err != nil {
			return err
		}
		payload := map[string]any{
			"profile_id":        profileID,
			"subscription_id":   change.SubscriptionID,
			"external_event_id": change.ExternalEventID,
			"from_status":       string(enr.Status),
			"to_status":         string(mapped),
		}
		if err := s.outbox.PublishTx(ctx, tx, events.Event{
			Type:      events.EventProfileStatusChanged,
			Payload:   payload,
			DedupeKey: "profile:" + change.ExternalEventID + ":" + profileID,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) appendHistory(ctx context.Context, tx *gorm.DB, subscriptionID snowflake.ID, eventType, externalEventID string, status billingdomain.ExternalStatus, amount int64, occurredAt time.Time) error {
	return s.repo.InsertHistory(ctx, tx, &billingdomain.SubscriptionHistory{
		ID:              s.genID.Generate(),
		SubscriptionID:  subscriptionID,
		EventType:       eventType,
		ExternalEventID: externalEventID,
		Status:          status,
		Amount:          amount,
		OccurredAt:      occurredAt,
		CreatedAt:       s.clk.Now(),
	})
}

func (s *Service) ensureAccountLink(ctx context.Context, tx *gorm.DB, p program.Program, customerID string) (*billingdomain.AccountProgramLink, error) {
	link, err := s.repo.FindLinkByCustomer(ctx, tx, p.String(), customerID)
	if err != nil {
		return nil, err
	}
	if link != nil {
		return link, nil
	}

	now := s.clk.Now()
	account := &billingdomain.BillingAccount{
		ID:        s.genID.Generate(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertAccount(ctx, tx, account); err != nil {
		return nil, err
	}
	link = &billingdomain.AccountProgramLink{
		ID:         s.genID.Generate(),
		AccountID:  account.ID,
		Program:    p.String(),
		CustomerID: customerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.InsertLink(ctx, tx, link); err != nil {
		return nil, err
	}
	return link, nil
}

func validateSubscriptionChange(change billingdomain.SubscriptionChange) error {
	if strings.TrimSpace(change.SubscriptionID) == "" ||
		strings.TrimSpace(change.CustomerID) == "" ||
		strings.TrimSpace(change.ExternalEventID) == "" {
		return billingdomain.ErrInvalidChange
	}
	if change.Amount < 0 || change.OccurredAt.IsZero() {
		return billingdomain.ErrInvalidChange
	}
	if _, ok := billingdomain.ParseExternalStatus(string(change.Status)); !ok {
		return billingdomain.ErrInvalidStatus
	}
	return nil
}

func applyPaidUntil(sub *billingdomain.Subscription, change billingdomain.SubscriptionChange) {
	if change.Status != billingdomain.StatusActive && change.Status != billingdomain.StatusTrialing {
		return
	}
	if change.PeriodEnd.IsZero() {
		return
	}
	if sub.PaidUntil == nil || change.PeriodEnd.After(*sub.PaidUntil) {
		end := change.PeriodEnd
		sub.PaidUntil = &end
	}
}

func intervalOr(value string) string {
	if strings.TrimSpace(value) == "" {
		return "month"
	}
	return value
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func dedupeSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
