package sync

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/jes-wd/freya-sync/internal/queue"
	"github.com/jes-wd/freya-sync/internal/subscriptions"
	"github.com/jes-wd/freya-sync/pkg/config"
	"github.com/jes-wd/freya-sync/pkg/db/models"
	"github.com/jes-wd/freya-sync/pkg/enums"
	"github.com/jes-wd/freya-sync/pkg/logger"
	"github.com/jes-wd/freya-sync/pkg/omnisend"
	"github.com/jes-wd/freya-sync/pkg/pagination"
)

type propertyWrite struct {
	email    string
	property string
	value    *string
}

type stubWriter struct {
	writes []propertyWrite
	err    error
}

func (s *stubWriter) SetProperty(_ context.Context, email, name string, value *string) error {
	s.writes = append(s.writes, propertyWrite{email: email, property: name, value: value})
	return s.err
}

type stubUpserter struct {
	contacts []*omnisend.Contact
	err      error
}

func (s *stubUpserter) CreateContact(_ context.Context, contact *omnisend.Contact) (*omnisend.Contact, error) {
	s.contacts = append(s.contacts, contact)
	if s.err != nil {
		return nil, s.err
	}
	return contact, nil
}

type stubForms struct {
	form  *models.Form
	rules []models.SuppressionCondition
}

func (s *stubForms) FindByID(_ context.Context, _ int64) (*models.Form, error) {
	if s.form == nil {
		return nil, fmt.Errorf("form not found")
	}
	return s.form, nil
}

func (s *stubForms) ListConditions(_ context.Context, _ int64) ([]models.SuppressionCondition, error) {
	return s.rules, nil
}

type stubSubs struct {
	sub          *models.Subscription
	hasSibling   bool
	siblingCalls int
}

func (s *stubSubs) FindByID(_ context.Context, _ int64) (*models.Subscription, error) {
	if s.sub == nil {
		return nil, fmt.Errorf("subscription not found")
	}
	return s.sub, nil
}

func (s *stubSubs) ListPage(_ context.Context, _ pagination.Page) ([]models.Subscription, error) {
	return nil, nil
}

func (s *stubSubs) ListUpdatedSince(_ context.Context, _ time.Time, _ int) ([]models.Subscription, error) {
	return nil, nil
}

func (s *stubSubs) HasOtherActiveOrOnHold(_ context.Context, _, _ int64) (bool, error) {
	s.siblingCalls++
	return s.hasSibling, nil
}

func (s *stubSubs) HasOtherActiveOrOnHoldWithTag(_ context.Context, _, _ int64, _ string) (bool, error) {
	s.siblingCalls++
	return s.hasSibling, nil
}

type stubDeferrer struct {
	fresh    bool
	marks    []string
	enqueued []string
	at       time.Time
}

func (s *stubDeferrer) MarkOnce(_ context.Context, _, hash string, _ time.Duration) (bool, error) {
	s.marks = append(s.marks, hash)
	return s.fresh, nil
}

func (s *stubDeferrer) EnqueueDelayed(_ context.Context, _, payload string, at time.Time) error {
	s.enqueued = append(s.enqueued, payload)
	s.at = at
	return nil
}

func strPtr(v string) *string { return &v }

func prodApp() config.AppConfig {
	return config.AppConfig{PublicHost: "www.freyameds.com", ProductionHost: "freyameds.com"}
}

func testSubscription(status enums.SubscriptionStatus, startedAgo time.Duration, now time.Time) *models.Subscription {
	return &models.Subscription{
		ID:        100,
		UserID:    7,
		Status:    status,
		StartDate: now.Add(-startedAgo),
		User:      &models.User{ID: 7, Email: "jane@example.com"},
		Items: []models.SubscriptionItem{
			{ProductID: 1, Product: &models.Product{ID: 1, FreyaProductType: strPtr("vitality")}},
		},
	}
}

func newTestService(t *testing.T, params ServiceParams) *Service {
	t.Helper()
	if params.Logger == nil {
		params.Logger = logger.New(logger.Options{ServiceName: "sync-test", Output: io.Discard})
	}
	if params.Reconciler == nil {
		params.Reconciler = &stubWriter{}
	}
	if params.Contacts == nil {
		params.Contacts = &stubUpserter{}
	}
	if params.Forms == nil {
		params.Forms = &stubForms{}
	}
	if params.Subscriptions == nil {
		params.Subscriptions = &stubSubs{}
	}
	if params.Deferrer == nil {
		params.Deferrer = &stubDeferrer{}
	}
	svc, err := NewService(params)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestStatusChangeActiveWithinWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	writer := &stubWriter{}
	subs := &stubSubs{sub: testSubscription(enums.SubscriptionStatusActive, 10*24*time.Hour, now)}

	svc := newTestService(t, ServiceParams{
		Reconciler:    writer,
		Subscriptions: subs,
		Policy:        subscriptions.NewPolicy(14 * 24 * time.Hour).WithClock(func() time.Time { return now }),
		App:           prodApp(),
	})

	err := svc.OnSubscriptionStatusChanged(context.Background(), 100, enums.SubscriptionStatusActive, enums.SubscriptionStatusPending)
	if err != nil {
		t.Fatalf("OnSubscriptionStatusChanged: %v", err)
	}
	if len(writer.writes) != 1 {
		t.Fatalf("expected 1 property write, got %d", len(writer.writes))
	}
	write := writer.writes[0]
	if write.email != "jane@example.com" {
		t.Fatalf("unexpected email %q", write.email)
	}
	if write.property != "woocommerce_subscription_status_nad" {
		t.Fatalf("unexpected property %q", write.property)
	}
	if write.value == nil || *write.value != "active" {
		t.Fatalf("unexpected value %v", write.value)
	}
	if subs.siblingCalls != 0 {
		t.Fatalf("active transition must not check siblings")
	}
}

func TestStatusChangeActiveOutsideWindowWritesNil(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	writer := &stubWriter{}
	subs := &stubSubs{sub: testSubscription(enums.SubscriptionStatusActive, 20*24*time.Hour, now)}

	svc := newTestService(t, ServiceParams{
		Reconciler:    writer,
		Subscriptions: subs,
		Policy:        subscriptions.NewPolicy(14 * 24 * time.Hour).WithClock(func() time.Time { return now }),
		App:           prodApp(),
	})

	if err := svc.OnSubscriptionStatusChanged(context.Background(), 100, enums.SubscriptionStatusActive, enums.SubscriptionStatusOnHold); err != nil {
		t.Fatalf("OnSubscriptionStatusChanged: %v", err)
	}
	if len(writer.writes) != 1 {
		t.Fatalf("expected the nil write to reach the reconciler, got %d", len(writer.writes))
	}
	if writer.writes[0].value != nil {
		t.Fatalf("expected nil value, got %q", *writer.writes[0].value)
	}
}

func TestStatusChangeCancelledWithSibling(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	writer := &stubWriter{}
	subs := &stubSubs{
		sub:        testSubscription(enums.SubscriptionStatusCancelled, 40*24*time.Hour, now),
		hasSibling: true,
	}

	svc := newTestService(t, ServiceParams{
		Reconciler:    writer,
		Subscriptions: subs,
		Policy:        subscriptions.NewPolicy(14 * 24 * time.Hour).WithClock(func() time.Time { return now }),
		App:           prodApp(),
	})

	if err := svc.OnSubscriptionStatusChanged(context.Background(), 100, enums.SubscriptionStatusCancelled, enums.SubscriptionStatusActive); err != nil {
		t.Fatalf("OnSubscriptionStatusChanged: %v", err)
	}
	if subs.siblingCalls != 1 {
		t.Fatalf("expected sibling check, got %d calls", subs.siblingCalls)
	}
	if len(writer.writes) != 1 || writer.writes[0].value != nil {
		t.Fatalf("cancelled with a live sibling must not write a value")
	}
}

func TestStatusChangeCancelledWithoutSibling(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	writer := &stubWriter{}
	subs := &stubSubs{sub: testSubscription(enums.SubscriptionStatusCancelled, 40*24*time.Hour, now)}

	svc := newTestService(t, ServiceParams{
		Reconciler:    writer,
		Subscriptions: subs,
		Policy:        subscriptions.NewPolicy(14 * 24 * time.Hour).WithClock(func() time.Time { return now }),
		App:           prodApp(),
	})

	if err := svc.OnSubscriptionStatusChanged(context.Background(), 100, enums.SubscriptionStatusCancelled, enums.SubscriptionStatusActive); err != nil {
		t.Fatalf("OnSubscriptionStatusChanged: %v", err)
	}
	if len(writer.writes) != 1 || writer.writes[0].value == nil || *writer.writes[0].value != "cancelled" {
		t.Fatalf("expected cancelled write, got %+v", writer.writes)
	}
}

func TestStatusChangeOnHoldAlwaysWrites(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	writer := &stubWriter{}
	subs := &stubSubs{sub: testSubscription(enums.SubscriptionStatusOnHold, 400*24*time.Hour, now), hasSibling: true}

	svc := newTestService(t, ServiceParams{
		Reconciler:    writer,
		Subscriptions: subs,
		Policy:        subscriptions.NewPolicy(14 * 24 * time.Hour).WithClock(func() time.Time { return now }),
		App:           prodApp(),
	})

	if err := svc.OnSubscriptionStatusChanged(context.Background(), 100, enums.SubscriptionStatusOnHold, enums.SubscriptionStatusActive); err != nil {
		t.Fatalf("OnSubscriptionStatusChanged: %v", err)
	}
	if subs.siblingCalls != 0 {
		t.Fatalf("on-hold must not check siblings")
	}
	if len(writer.writes) != 1 || writer.writes[0].value == nil || *writer.writes[0].value != "on-hold" {
		t.Fatalf("expected on-hold write, got %+v", writer.writes)
	}
}

func TestStatusChangeIgnoresUnhandledStatus(t *testing.T) {
	writer := &stubWriter{}
	svc := newTestService(t, ServiceParams{
		Reconciler: writer,
		Policy:     subscriptions.NewPolicy(14 * 24 * time.Hour),
		App:        prodApp(),
	})

	if err := svc.OnSubscriptionStatusChanged(context.Background(), 100, enums.SubscriptionStatusPending, enums.SubscriptionStatusActive); err != nil {
		t.Fatalf("OnSubscriptionStatusChanged: %v", err)
	}
	if len(writer.writes) != 0 {
		t.Fatalf("pending must not touch the contact")
	}
}

func TestStatusChangeSkipsOffProductionHost(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	writer := &stubWriter{}
	subs := &stubSubs{sub: testSubscription(enums.SubscriptionStatusActive, time.Hour, now)}

	svc := newTestService(t, ServiceParams{
		Reconciler:    writer,
		Subscriptions: subs,
		Policy:        subscriptions.NewPolicy(14 * 24 * time.Hour).WithClock(func() time.Time { return now }),
		App:           config.AppConfig{PublicHost: "staging.freyameds.com", ProductionHost: "freyameds.com"},
	})

	if err := svc.OnSubscriptionStatusChanged(context.Background(), 100, enums.SubscriptionStatusActive, enums.SubscriptionStatusPending); err != nil {
		t.Fatalf("OnSubscriptionStatusChanged: %v", err)
	}
	if len(writer.writes) != 0 {
		t.Fatalf("staging host must not mutate the contact")
	}
}

func testForm() *models.Form {
	return &models.Form{
		ID:    42,
		Title: "Intake",
		Settings: &models.FormSetting{
			FormID:       42,
			FeedEnabled:  true,
			EmailFieldID: "3",
		},
	}
}

func TestFormSubmittedSyncsContact(t *testing.T) {
	upserter := &stubUpserter{}
	svc := newTestService(t, ServiceParams{
		Contacts: upserter,
		Forms:    &stubForms{form: testForm()},
		Policy:   subscriptions.NewPolicy(14 * 24 * time.Hour),
		App:      prodApp(),
	})

	tracking, err := svc.OnFormSubmitted(context.Background(), 42, map[string]string{"3": "jane@example.com"})
	if err != nil {
		t.Fatalf("OnFormSubmitted: %v", err)
	}
	if len(upserter.contacts) != 1 {
		t.Fatalf("expected 1 contact push, got %d", len(upserter.contacts))
	}
	if upserter.contacts[0].Email() != "jane@example.com" {
		t.Fatalf("unexpected contact email %q", upserter.contacts[0].Email())
	}
	if tracking["email"] != "jane@example.com" {
		t.Fatalf("unexpected tracking identifiers %v", tracking)
	}
}

func TestFormSubmittedSuppressedByCondition(t *testing.T) {
	upserter := &stubUpserter{}
	svc := newTestService(t, ServiceParams{
		Contacts: upserter,
		Forms: &stubForms{
			form: testForm(),
			rules: []models.SuppressionCondition{
				{FormID: 42, FieldID: "5", Operator: enums.ConditionOperatorIs, Value: "yes"},
			},
		},
		Policy: subscriptions.NewPolicy(14 * 24 * time.Hour),
		App:    prodApp(),
	})

	tracking, err := svc.OnFormSubmitted(context.Background(), 42, map[string]string{
		"3": "jane@example.com",
		"5": "yes",
	})
	if err != nil {
		t.Fatalf("OnFormSubmitted: %v", err)
	}
	if tracking != nil {
		t.Fatalf("suppressed submission must not return tracking identifiers")
	}
	if len(upserter.contacts) != 0 {
		t.Fatalf("suppressed submission must not push a contact")
	}
}

func TestFormSubmittedSkipsUnmappableEntry(t *testing.T) {
	upserter := &stubUpserter{}
	svc := newTestService(t, ServiceParams{
		Contacts: upserter,
		Forms:    &stubForms{form: testForm()},
		Policy:   subscriptions.NewPolicy(14 * 24 * time.Hour),
		App:      prodApp(),
	})

	tracking, err := svc.OnFormSubmitted(context.Background(), 42, map[string]string{"3": "   "})
	if err != nil {
		t.Fatalf("OnFormSubmitted: %v", err)
	}
	if tracking != nil || len(upserter.contacts) != 0 {
		t.Fatalf("blank email must skip the sync")
	}
}

func TestFormSubmittedPushFailureIsNonFatal(t *testing.T) {
	upserter := &stubUpserter{err: fmt.Errorf("boom")}
	svc := newTestService(t, ServiceParams{
		Contacts: upserter,
		Forms:    &stubForms{form: testForm()},
		Policy:   subscriptions.NewPolicy(14 * 24 * time.Hour),
		App:      prodApp(),
	})

	tracking, err := svc.OnFormSubmitted(context.Background(), 42, map[string]string{"3": "jane@example.com"})
	if err != nil {
		t.Fatalf("push failure must not surface: %v", err)
	}
	if tracking != nil {
		t.Fatalf("failed push must not return tracking identifiers")
	}
}

func partialConfig() config.PartialEntryConfig {
	return config.PartialEntryConfig{
		FormID:       9,
		EmailFieldID: "2",
		TagFieldID:   "4",
		ProcessDelay: 5 * time.Second,
		DedupeTTL:    24 * time.Hour,
	}
}

func TestPartialEntrySchedulesTask(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	deferrer := &stubDeferrer{fresh: true}
	svc := newTestService(t, ServiceParams{
		Deferrer:     deferrer,
		Policy:       subscriptions.NewPolicy(14 * 24 * time.Hour),
		App:          prodApp(),
		PartialEntry: partialConfig(),
	}).WithClock(func() time.Time { return now })

	err := svc.OnPartialEntrySaved(context.Background(), 9, map[string]string{"2": "jane@example.com", "4": "glp_1"})
	if err != nil {
		t.Fatalf("OnPartialEntrySaved: %v", err)
	}
	if len(deferrer.enqueued) != 1 {
		t.Fatalf("expected 1 scheduled task, got %d", len(deferrer.enqueued))
	}
	task, err := queue.DecodePartialEntryTask(deferrer.enqueued[0])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if task.Email != "jane@example.com" || task.Tag != "glp_1" {
		t.Fatalf("unexpected task %+v", task)
	}
	if !deferrer.at.Equal(now.Add(5 * time.Second)) {
		t.Fatalf("expected 5s delay, got %v", deferrer.at.Sub(now))
	}
}

func TestPartialEntryDeduped(t *testing.T) {
	deferrer := &stubDeferrer{fresh: false}
	svc := newTestService(t, ServiceParams{
		Deferrer:     deferrer,
		Policy:       subscriptions.NewPolicy(14 * 24 * time.Hour),
		App:          prodApp(),
		PartialEntry: partialConfig(),
	})

	err := svc.OnPartialEntrySaved(context.Background(), 9, map[string]string{"2": "jane@example.com", "4": "glp_1"})
	if err != nil {
		t.Fatalf("OnPartialEntrySaved: %v", err)
	}
	if len(deferrer.marks) != 1 {
		t.Fatalf("expected dedupe check, got %d", len(deferrer.marks))
	}
	if len(deferrer.enqueued) != 0 {
		t.Fatalf("deduped entry must not schedule a task")
	}
}

func TestPartialEntryIgnoresOtherForms(t *testing.T) {
	deferrer := &stubDeferrer{fresh: true}
	svc := newTestService(t, ServiceParams{
		Deferrer:     deferrer,
		Policy:       subscriptions.NewPolicy(14 * 24 * time.Hour),
		App:          prodApp(),
		PartialEntry: partialConfig(),
	})

	if err := svc.OnPartialEntrySaved(context.Background(), 10, map[string]string{"2": "jane@example.com"}); err != nil {
		t.Fatalf("OnPartialEntrySaved: %v", err)
	}
	if err := svc.OnPartialEntrySaved(context.Background(), 9, map[string]string{"4": "glp_1"}); err != nil {
		t.Fatalf("OnPartialEntrySaved: %v", err)
	}
	if len(deferrer.marks) != 0 || len(deferrer.enqueued) != 0 {
		t.Fatalf("wrong form or missing email must be ignored")
	}
}

func TestProcessPartialEntryTagsContact(t *testing.T) {
	upserter := &stubUpserter{}
	svc := newTestService(t, ServiceParams{
		Contacts:     upserter,
		Policy:       subscriptions.NewPolicy(14 * 24 * time.Hour),
		App:          prodApp(),
		PartialEntry: partialConfig(),
	})

	err := svc.ProcessPartialEntry(context.Background(), queue.PartialEntryTask{Email: "jane@example.com", Tag: "glp_1"})
	if err != nil {
		t.Fatalf("ProcessPartialEntry: %v", err)
	}
	if len(upserter.contacts) != 1 {
		t.Fatalf("expected 1 contact push, got %d", len(upserter.contacts))
	}
	pushed := upserter.contacts[0]
	if pushed.Email() != "jane@example.com" {
		t.Fatalf("unexpected email %q", pushed.Email())
	}
	if len(pushed.Tags) != 1 || pushed.Tags[0] != "glp_1" {
		t.Fatalf("unexpected tags %v", pushed.Tags)
	}
}

func TestProcessPartialEntrySkipsOffProductionHost(t *testing.T) {
	upserter := &stubUpserter{}
	svc := newTestService(t, ServiceParams{
		Contacts: upserter,
		Policy:   subscriptions.NewPolicy(14 * 24 * time.Hour),
		App:      config.AppConfig{PublicHost: "staging.freyameds.com", ProductionHost: "freyameds.com"},
	})

	if err := svc.ProcessPartialEntry(context.Background(), queue.PartialEntryTask{Email: "jane@example.com"}); err != nil {
		t.Fatalf("ProcessPartialEntry: %v", err)
	}
	if len(upserter.contacts) != 0 {
		t.Fatalf("staging host must not mutate the contact")
	}
}
