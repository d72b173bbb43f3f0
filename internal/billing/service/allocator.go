package service

import (
	"context"

	"gorm.io/gorm"

	billingdomain "github.com/mustafamuse/irshad-center-sub014/internal/billing/domain"
)

// allocate distributes the subscription's funding across its profiles.
// Existing active assignments are left untouched (idempotent
// re-processing); inactive ones are reactivated when the subscription
// returns to a status that grants access; missing ones are created with an
// explicit override amount or an equal share, with the division remainder
// on the lexicographically-first profile so amounts sum to the
// subscription total.
func (s *Service) allocate(ctx context.Context, tx *gorm.DB, sub *billingdomain.Subscription, change billingdomain.SubscriptionChange, profileIDs []string, prevStatus billingdomain.ExternalStatus) error {
	if change.Status.IsTerminal() {
		return s.deactivateAll(ctx, tx, sub, change)
	}
	if len(profileIDs) == 0 {
		return nil
	}

	shares := splitAmount(sub.Amount, profileIDs, change.AmountOverrides)

	reactivating := change.Status.GrantsAccess() && prevStatus != "" && !prevStatus.GrantsAccess()

	for _, profileID := range profileIDs {
		existing, err := s.repo.FindAssignment(ctx, tx, sub.ID, profileID)
		if err != nil {
			return err
		}
		switch {
		case existing == nil:
			assignment := &billingdomain.BillingAssignment{
				ID:             s.genID.Generate(),
				SubscriptionID: sub.ID,
				ProfileID:      profileID,
				Amount:         shares[profileID],
				Active:         true,
				StartDate:      change.OccurredAt,
				CreatedAt:      s.clk.Now(),
				UpdatedAt:      s.clk.Now(),
			}
			if err := s.repo.InsertAssignment(ctx, tx, assignment); err != nil {
				return err
			}
		case !existing.Active && reactivating:
			if err := s.repo.ReactivateAssignment(ctx, tx, existing.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) deactivateAll(ctx context.Context, tx *gorm.DB, sub *billingdomain.Subscription, change billingdomain.SubscriptionChange) error {
	assignments, err := s.repo.ListActiveAssignments(ctx, tx, sub.ID)
	if err != nil {
		return err
	}
	for _, assignment := range assignments {
		if err := s.repo.DeactivateAssignment(ctx, tx, assignment.ID, change.OccurredAt); err != nil {
			return err
		}
	}
	return nil
}

// splitAmount computes per-profile amounts. profileIDs must already be
// sorted; the first entry absorbs the division remainder.
func splitAmount(total int64, profileIDs []string, overrides map[string]int64) map[string]int64 {
	shares := make(map[string]int64, len(profileIDs))

	remaining := total
	unassigned := make([]string, 0, len(profileIDs))
	for _, profileID := range profileIDs {
		if amount, ok := overrides[profileID]; ok && amount >= 0 {
			shares[profileID] = amount
			remaining -= amount
			continue
		}
		unassigned = append(unassigned, profileID)
	}
	if len(unassigned) == 0 {
		return shares
	}
	if remaining < 0 {
		remaining = 0
	}

	share := remaining / int64(len(unassigned))
	remainder := remaining - share*int64(len(unassigned))
	for i, profileID := range unassigned {
		amount := share
		if i == 0 {
			amount += remainder
		}
		shares[profileID] = amount
	}
	return shares
}
