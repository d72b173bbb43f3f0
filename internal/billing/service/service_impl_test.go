package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	billingdomain "github.com/mustafamuse/irshad-center-sub014/internal/billing/domain"
	billingrepo "github.com/mustafamuse/irshad-center-sub014/internal/billing/repository"
	"github.com/mustafamuse/irshad-center-sub014/internal/clock"
	"github.com/mustafamuse/irshad-center-sub014/internal/config"
	enrollmentdomain "github.com/mustafamuse/irshad-center-sub014/internal/enrollment/domain"
	enrollmentrepo "github.com/mustafamuse/irshad-center-sub014/internal/enrollment/repository"
	"github.com/mustafamuse/irshad-center-sub014/internal/events"
	"github.com/mustafamuse/irshad-center-sub014/internal/program"
)

var testNow = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func setupBillingTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS billing_accounts (
			id BIGINT PRIMARY KEY,
			email TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS account_program_links (
			id BIGINT PRIMARY KEY,
			account_id BIGINT NOT NULL,
			program TEXT NOT NULL,
			customer_id TEXT NOT NULL,
			payment_method_captured BOOLEAN NOT NULL DEFAULT FALSE,
			payment_method_captured_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE (account_id, program),
			UNIQUE (program, customer_id)
		)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id BIGINT PRIMARY KEY,
			account_id BIGINT NOT NULL,
			program TEXT NOT NULL,
			external_id TEXT NOT NULL UNIQUE,
			status TEXT NOT NULL,
			amount BIGINT NOT NULL,
			currency TEXT NOT NULL,
			interval TEXT NOT NULL DEFAULT 'month',
			current_period_start TIMESTAMP NOT NULL,
			current_period_end TIMESTAMP NOT NULL,
			paid_until TIMESTAMP,
			grace_started_at TIMESTAMP,
			superseded_ids TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS billing_assignments (
			id BIGINT PRIMARY KEY,
			subscription_id BIGINT NOT NULL,
			profile_id TEXT NOT NULL,
			amount BIGINT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			start_date TIMESTAMP NOT NULL,
			end_date TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS subscription_history (
			id BIGINT PRIMARY KEY,
			subscription_id BIGINT NOT NULL,
			event_type TEXT NOT NULL,
			external_event_id TEXT NOT NULL,
			status TEXT NOT NULL,
			amount BIGINT NOT NULL,
			occurred_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS enrollments (
			profile_id TEXT PRIMARY KEY,
			program TEXT NOT NULL,
			status TEXT NOT NULL,
			rate_code TEXT NOT NULL DEFAULT '',
			end_date TIMESTAMP,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS billing_events (
			id BIGINT PRIMARY KEY,
			event_type TEXT NOT NULL,
			payload TEXT NOT NULL DEFAULT '{}',
			dedupe_key TEXT UNIQUE,
			published BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return &Service{
		db:       db,
		log:      zap.NewNop(),
		genID:    node,
		clk:      clock.Fixed(testNow),
		cfg:      config.Config{GraceMaxDuration: 14 * 24 * time.Hour},
		repo:     billingrepo.Provide(),
		profiles: enrollmentrepo.Provide(),
		outbox:   events.NewOutbox(db, node),
	}
}

func insertEnrollment(t *testing.T, db *gorm.DB, profileID string, status enrollmentdomain.Status) {
	t.Helper()
	err := db.Exec(
		`INSERT INTO enrollments (profile_id, program, status, rate_code, updated_at)
		 VALUES (?, 'dugsi', ?, 'standard', ?)`,
		profileID, status, testNow,
	).Error
	if err != nil {
		t.Fatalf("insert enrollment: %v", err)
	}
}

func subscriptionChange(status billingdomain.ExternalStatus, profileIDs ...string) billingdomain.SubscriptionChange {
	return billingdomain.SubscriptionChange{
		Program:         program.Dugsi,
		EventType:       "customer.subscription.created",
		ExternalEventID: "evt_" + string(status),
		SubscriptionID:  "sub_100",
		CustomerID:      "cus_100",
		Status:          status,
		Amount:          25000,
		Currency:        "usd",
		Interval:        "month",
		PeriodStart:     testNow,
		PeriodEnd:       testNow.AddDate(0, 1, 0),
		OccurredAt:      testNow,
		ProfileIDs:      profileIDs,
	}
}

func activeAssignments(t *testing.T, db *gorm.DB, externalID string) []billingdomain.BillingAssignment {
	t.Helper()
	var sub billingdomain.Subscription
	if err := db.Where("external_id = ?", externalID).Take(&sub).Error; err != nil {
		t.Fatalf("load subscription: %v", err)
	}
	var assignments []billingdomain.BillingAssignment
	err := db.
		Where("subscription_id = ? AND active = ?", sub.ID, true).
		Order("profile_id ASC").
		Find(&assignments).Error
	if err != nil {
		t.Fatalf("load assignments: %v", err)
	}
	return assignments
}

func TestApplySubscriptionCreatesAccountAndSplitsFunding(t *testing.T) {
	db := setupBillingTestDB(t)
	svc := newTestService(t, db)
	insertEnrollment(t, db, "prof_a", enrollmentdomain.StatusRegistered)
	insertEnrollment(t, db, "prof_b", enrollmentdomain.StatusRegistered)

	change := subscriptionChange(billingdomain.StatusActive, "prof_a", "prof_b")
	if err := svc.ApplySubscriptionChange(context.Background(), change); err != nil {
		t.Fatalf("apply: %v", err)
	}

	assignments := activeAssignments(t, db, "sub_100")
	if len(assignments) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(assignments))
	}
	if assignments[0].Amount != 12500 || assignments[1].Amount != 12500 {
		t.Fatalf("expected equal shares of 12500, got %d and %d", assignments[0].Amount, assignments[1].Amount)
	}

	var enr enrollmentdomain.Enrollment
	if err := db.Where("profile_id = ?", "prof_a").Take(&enr).Error; err != nil {
		t.Fatalf("load enrollment: %v", err)
	}
	if enr.Status != enrollmentdomain.StatusEnrolled {
		t.Fatalf("expected ENROLLED, got %s", enr.Status)
	}

	var links int64
	if err := db.Table("account_program_links").Where("customer_id = ?", "cus_100").Count(&links).Error; err != nil {
		t.Fatalf("count links: %v", err)
	}
	if links != 1 {
		t.Fatalf("expected 1 account link, got %d", links)
	}
}

func TestApplySubscriptionReapplyIsIdempotent(t *testing.T) {
	db := setupBillingTestDB(t)
	svc := newTestService(t, db)
	insertEnrollment(t, db, "prof_a", enrollmentdomain.StatusRegistered)
	insertEnrollment(t, db, "prof_b", enrollmentdomain.StatusRegistered)

	change := subscriptionChange(billingdomain.StatusActive, "prof_a", "prof_b")
	for i := 0; i < 2; i++ {
		if err := svc.ApplySubscriptionChange(context.Background(), change); err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
	}

	assignments := activeAssignments(t, db, "sub_100")
	if len(assignments) != 2 {
		t.Fatalf("expected 2 assignments after reapply, got %d", len(assignments))
	}
	var total int64
	for _, assignment := range assignments {
		total += assignment.Amount
	}
	if total != 25000 {
		t.Fatalf("expected total 25000, got %d", total)
	}
}

func TestApplySubscriptionRemainderGoesToFirstProfile(t *testing.T) {
	db := setupBillingTestDB(t)
	svc := newTestService(t, db)
	for _, id := range []string{"prof_a", "prof_b", "prof_c"} {
		insertEnrollment(t, db, id, enrollmentdomain.StatusRegistered)
	}

	change := subscriptionChange(billingdomain.StatusActive, "prof_c", "prof_a", "prof_b")
	change.Amount = 10000
	if err := svc.ApplySubscriptionChange(context.Background(), change); err != nil {
		t.Fatalf("apply: %v", err)
	}

	assignments := activeAssignments(t, db, "sub_100")
	if len(assignments) != 3 {
		t.Fatalf("expected 3 assignments, got %d", len(assignments))
	}
	// Sorted by profile id: prof_a absorbs the remainder.
	if assignments[0].Amount != 3334 || assignments[1].Amount != 3333 || assignments[2].Amount != 3333 {
		t.Fatalf("unexpected shares: %d %d %d", assignments[0].Amount, assignments[1].Amount, assignments[2].Amount)
	}
}

func TestApplySubscriptionHonorsOverrides(t *testing.T) {
	db := setupBillingTestDB(t)
	svc := newTestService(t, db)
	insertEnrollment(t, db, "prof_a", enrollmentdomain.StatusRegistered)
	insertEnrollment(t, db, "prof_b", enrollmentdomain.StatusRegistered)

	change := subscriptionChange(billingdomain.StatusActive, "prof_a", "prof_b")
	change.AmountOverrides = map[string]int64{"prof_a": 10000}
	if err := svc.ApplySubscriptionChange(context.Background(), change); err != nil {
		t.Fatalf("apply: %v", err)
	}

	assignments := activeAssignments(t, db, "sub_100")
	if assignments[0].Amount != 10000 || assignments[1].Amount != 15000 {
		t.Fatalf("expected 10000/15000, got %d/%d", assignments[0].Amount, assignments[1].Amount)
	}
}

func TestApplySubscriptionOverAllocationFails(t *testing.T) {
	db := setupBillingTestDB(t)
	svc := newTestService(t, db)
	insertEnrollment(t, db, "prof_a", enrollmentdomain.StatusRegistered)
	insertEnrollment(t, db, "prof_b", enrollmentdomain.StatusRegistered)

	change := subscriptionChange(billingdomain.StatusActive, "prof_a", "prof_b")
	change.AmountOverrides = map[string]int64{"prof_a": 20000, "prof_b": 20000}
	err := svc.ApplySubscriptionChange(context.Background(), change)
	if !errors.Is(err, billingdomain.ErrAllocationInvariant) {
		t.Fatalf("expected allocation invariant error, got %v", err)
	}

	// The transaction rolled back: nothing was committed.
	var count int64
	if err := db.Table("subscriptions").Count(&count).Error; err != nil {
		t.Fatalf("count subscriptions: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback, found %d subscriptions", count)
	}
}

func TestCancellationWithdrawsProfilesOnce(t *testing.T) {
	db := setupBillingTestDB(t)
	svc := newTestService(t, db)
	insertEnrollment(t, db, "prof_a", enrollmentdomain.StatusRegistered)

	create := subscriptionChange(billingdomain.StatusActive, "prof_a")
	if err := svc.ApplySubscriptionChange(context.Background(), create); err != nil {
		t.Fatalf("create: %v", err)
	}

	cancelAt := testNow.AddDate(0, 2, 0)
	cancel := subscriptionChange(billingdomain.StatusCanceled)
	cancel.EventType = "customer.subscription.deleted"
	cancel.ExternalEventID = "evt_cancel_1"
	cancel.OccurredAt = cancelAt
	if err := svc.ApplySubscriptionChange(context.Background(), cancel); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if got := activeAssignments(t, db, "sub_100"); len(got) != 0 {
		t.Fatalf("expected no active assignments, got %d", len(got))
	}

	var enr enrollmentdomain.Enrollment
	if err := db.Where("profile_id = ?", "prof_a").Take(&enr).Error; err != nil {
		t.Fatalf("load enrollment: %v", err)
	}
	if enr.Status != enrollmentdomain.StatusWithdrawn {
		t.Fatalf("expected WITHDRAWN, got %s", enr.Status)
	}
	if enr.EndDate == nil || !enr.EndDate.Equal(cancelAt) {
		t.Fatalf("expected end date %v, got %v", cancelAt, enr.EndDate)
	}

	// Redelivery of the terminal event must not move the end date.
	later := cancel
	later.ExternalEventID = "evt_cancel_2"
	later.OccurredAt = cancelAt.AddDate(0, 1, 0)
	if err := svc.ApplySubscriptionChange(context.Background(), later); err != nil {
		t.Fatalf("re-cancel: %v", err)
	}
	var assignment billingdomain.BillingAssignment
	if err := db.Where("profile_id = ?", "prof_a").Take(&assignment).Error; err != nil {
		t.Fatalf("load assignment: %v", err)
	}
	if assignment.EndDate == nil || !assignment.EndDate.Equal(cancelAt) {
		t.Fatalf("expected assignment end date %v to survive redelivery, got %v", cancelAt, assignment.EndDate)
	}
}

func TestPastDueKeepsAccessAndStampsGraceOnce(t *testing.T) {
	db := setupBillingTestDB(t)
	svc := newTestService(t, db)
	insertEnrollment(t, db, "prof_a", enrollmentdomain.StatusRegistered)

	create := subscriptionChange(billingdomain.StatusActive, "prof_a")
	if err := svc.ApplySubscriptionChange(context.Background(), create); err != nil {
		t.Fatalf("create: %v", err)
	}

	graceStart := testNow.AddDate(0, 1, 0)
	pastDue := subscriptionChange(billingdomain.StatusPastDue)
	pastDue.EventType = "customer.subscription.updated"
	pastDue.ExternalEventID = "evt_pd_1"
	pastDue.OccurredAt = graceStart
	if err := svc.ApplySubscriptionChange(context.Background(), pastDue); err != nil {
		t.Fatalf("past_due: %v", err)
	}

	var enr enrollmentdomain.Enrollment
	if err := db.Where("profile_id = ?", "prof_a").Take(&enr).Error; err != nil {
		t.Fatalf("load enrollment: %v", err)
	}
	if enr.Status != enrollmentdomain.StatusEnrolled {
		t.Fatalf("past_due must keep ENROLLED, got %s", enr.Status)
	}

	var sub billingdomain.Subscription
	if err := db.Where("external_id = ?", "sub_100").Take(&sub).Error; err != nil {
		t.Fatalf("load subscription: %v", err)
	}
	if sub.GraceStartedAt == nil || !sub.GraceStartedAt.Equal(graceStart) {
		t.Fatalf("expected grace started %v, got %v", graceStart, sub.GraceStartedAt)
	}

	// A later past_due keeps the original grace start.
	again := pastDue
	again.ExternalEventID = "evt_pd_2"
	again.OccurredAt = graceStart.AddDate(0, 0, 7)
	if err := svc.ApplySubscriptionChange(context.Background(), again); err != nil {
		t.Fatalf("past_due again: %v", err)
	}
	if err := db.Where("external_id = ?", "sub_100").Take(&sub).Error; err != nil {
		t.Fatalf("reload subscription: %v", err)
	}
	if sub.GraceStartedAt == nil || !sub.GraceStartedAt.Equal(graceStart) {
		t.Fatalf("grace start moved to %v", sub.GraceStartedAt)
	}

	// Recovery clears the grace stamp.
	recovered := subscriptionChange(billingdomain.StatusActive)
	recovered.EventType = "customer.subscription.updated"
	recovered.ExternalEventID = "evt_active_2"
	recovered.OccurredAt = graceStart.AddDate(0, 0, 10)
	if err := svc.ApplySubscriptionChange(context.Background(), recovered); err != nil {
		t.Fatalf("recover: %v", err)
	}
	// Reload into a zeroed struct: gorm leaves the previous pointer value in
	// place when the column scans as NULL.
	sub = billingdomain.Subscription{}
	if err := db.Where("external_id = ?", "sub_100").Take(&sub).Error; err != nil {
		t.Fatalf("reload subscription: %v", err)
	}
	if sub.GraceStartedAt != nil {
		t.Fatalf("expected grace cleared, got %v", sub.GraceStartedAt)
	}
}

func TestGraceExceededPublishesAlertWithoutDowngrade(t *testing.T) {
	db := setupBillingTestDB(t)
	svc := newTestService(t, db)
	insertEnrollment(t, db, "prof_a", enrollmentdomain.StatusRegistered)

	create := subscriptionChange(billingdomain.StatusPastDue, "prof_a")
	if err := svc.ApplySubscriptionChange(context.Background(), create); err != nil {
		t.Fatalf("create: %v", err)
	}

	late := subscriptionChange(billingdomain.StatusPastDue)
	late.EventType = "customer.subscription.updated"
	late.ExternalEventID = "evt_late"
	late.OccurredAt = testNow.AddDate(0, 0, 20)
	if err := svc.ApplySubscriptionChange(context.Background(), late); err != nil {
		t.Fatalf("late past_due: %v", err)
	}

	var alerts int64
	err := db.Table("billing_events").
		Where("event_type = ?", events.EventGraceExceeded).
		Count(&alerts).Error
	if err != nil {
		t.Fatalf("count alerts: %v", err)
	}
	if alerts != 1 {
		t.Fatalf("expected 1 grace alert, got %d", alerts)
	}

	var enr enrollmentdomain.Enrollment
	if err := db.Where("profile_id = ?", "prof_a").Take(&enr).Error; err != nil {
		t.Fatalf("load enrollment: %v", err)
	}
	if enr.Status != enrollmentdomain.StatusEnrolled {
		t.Fatalf("grace overrun must not downgrade, got %s", enr.Status)
	}
}

func TestReplacementMovesFunding(t *testing.T) {
	db := setupBillingTestDB(t)
	svc := newTestService(t, db)
	insertEnrollment(t, db, "prof_a", enrollmentdomain.StatusRegistered)

	first := subscriptionChange(billingdomain.StatusActive, "prof_a")
	if err := svc.ApplySubscriptionChange(context.Background(), first); err != nil {
		t.Fatalf("first: %v", err)
	}

	replacement := subscriptionChange(billingdomain.StatusActive, "prof_a")
	replacement.SubscriptionID = "sub_200"
	replacement.ExternalEventID = "evt_replacement"
	replacement.ReplacesSubscriptionID = "sub_100"
	replacement.OccurredAt = testNow.AddDate(0, 3, 0)
	if err := svc.ApplySubscriptionChange(context.Background(), replacement); err != nil {
		t.Fatalf("replacement: %v", err)
	}

	if got := activeAssignments(t, db, "sub_100"); len(got) != 0 {
		t.Fatalf("expected old funding deactivated, got %d active", len(got))
	}
	newAssignments := activeAssignments(t, db, "sub_200")
	if len(newAssignments) != 1 || newAssignments[0].ProfileID != "prof_a" {
		t.Fatalf("expected prof_a funded by replacement, got %+v", newAssignments)
	}

	var sub billingdomain.Subscription
	if err := db.Where("external_id = ?", "sub_200").Take(&sub).Error; err != nil {
		t.Fatalf("load replacement: %v", err)
	}
	if len(sub.SupersededIDs) != 1 || sub.SupersededIDs[0] != "sub_100" {
		t.Fatalf("expected superseded [sub_100], got %v", sub.SupersededIDs)
	}
}

func TestApplyInvoicePaidAdvancesPaidUntil(t *testing.T) {
	db := setupBillingTestDB(t)
	svc := newTestService(t, db)
	insertEnrollment(t, db, "prof_a", enrollmentdomain.StatusRegistered)

	create := subscriptionChange(billingdomain.StatusActive, "prof_a")
	if err := svc.ApplySubscriptionChange(context.Background(), create); err != nil {
		t.Fatalf("create: %v", err)
	}

	periodEnd := testNow.AddDate(0, 2, 0)
	invoice := billingdomain.InvoiceChange{
		Program:         program.Dugsi,
		EventType:       "invoice.paid",
		ExternalEventID: "evt_inv_1",
		InvoiceID:       "in_1",
		SubscriptionID:  "sub_100",
		CustomerID:      "cus_100",
		Amount:          25000,
		Currency:        "usd",
		PeriodEnd:       periodEnd,
		OccurredAt:      testNow.AddDate(0, 1, 0),
		Paid:            true,
	}
	if err := svc.ApplyInvoiceChange(context.Background(), invoice); err != nil {
		t.Fatalf("invoice: %v", err)
	}

	var sub billingdomain.Subscription
	if err := db.Where("external_id = ?", "sub_100").Take(&sub).Error; err != nil {
		t.Fatalf("load subscription: %v", err)
	}
	if sub.PaidUntil == nil || !sub.PaidUntil.Equal(periodEnd) {
		t.Fatalf("expected paid_until %v, got %v", periodEnd, sub.PaidUntil)
	}

	// An older paid invoice must not rewind paid_until.
	stale := invoice
	stale.ExternalEventID = "evt_inv_0"
	stale.PeriodEnd = testNow.AddDate(0, 1, 0)
	if err := svc.ApplyInvoiceChange(context.Background(), stale); err != nil {
		t.Fatalf("stale invoice: %v", err)
	}
	if err := db.Where("external_id = ?", "sub_100").Take(&sub).Error; err != nil {
		t.Fatalf("reload subscription: %v", err)
	}
	if sub.PaidUntil == nil || !sub.PaidUntil.Equal(periodEnd) {
		t.Fatalf("paid_until rewound to %v", sub.PaidUntil)
	}
}

func TestApplyInvoiceUnknownSubscription(t *testing.T) {
	db := setupBillingTestDB(t)
	svc := newTestService(t, db)

	invoice := billingdomain.InvoiceChange{
		Program:         program.Dugsi,
		EventType:       "invoice.paid",
		ExternalEventID: "evt_inv_1",
		InvoiceID:       "in_1",
		SubscriptionID:  "sub_missing",
		OccurredAt:      testNow,
		Paid:            true,
	}
	err := svc.ApplyInvoiceChange(context.Background(), invoice)
	if !errors.Is(err, billingdomain.ErrSubscriptionNotKnown) {
		t.Fatalf("expected subscription_not_known, got %v", err)
	}
}

func TestApplyCheckoutStampsCaptureOnce(t *testing.T) {
	db := setupBillingTestDB(t)
	svc := newTestService(t, db)

	checkout := billingdomain.CheckoutChange{
		Program:         program.Dugsi,
		EventType:       "checkout.session.completed",
		ExternalEventID: "evt_co_1",
		CustomerID:      "cus_100",
		OccurredAt:      testNow,
	}
	if err := svc.ApplyCheckoutChange(context.Background(), checkout); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	var link billingdomain.AccountProgramLink
	if err := db.Where("customer_id = ?", "cus_100").Take(&link).Error; err != nil {
		t.Fatalf("load link: %v", err)
	}
	if !link.PaymentMethodCaptured || link.PaymentMethodCapturedAt == nil {
		t.Fatalf("expected capture stamped, got %+v", link)
	}
	firstCapture := *link.PaymentMethodCapturedAt

	redelivery := checkout
	redelivery.ExternalEventID = "evt_co_2"
	redelivery.OccurredAt = testNow.AddDate(0, 0, 1)
	if err := svc.ApplyCheckoutChange(context.Background(), redelivery); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if err := db.Where("customer_id = ?", "cus_100").Take(&link).Error; err != nil {
		t.Fatalf("reload link: %v", err)
	}
	if !link.PaymentMethodCapturedAt.Equal(firstCapture) {
		t.Fatalf("capture timestamp moved from %v to %v", firstCapture, link.PaymentMethodCapturedAt)
	}
}

func TestResolveSubscriptionUnknown(t *testing.T) {
	db := setupBillingTestDB(t)
	svc := newTestService(t, db)

	_, _, err := svc.ResolveSubscription(context.Background(), program.Dugsi, "sub_missing")
	if !errors.Is(err, billingdomain.ErrSubscriptionNotKnown) {
		t.Fatalf("expected subscription_not_known, got %v", err)
	}
}
