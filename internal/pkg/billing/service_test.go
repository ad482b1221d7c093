package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/clubstack/clubstack/app/models"
)

// fakeRepository is an in-memory Repository with the same upsert and
// no-op-on-missing semantics as the GORM implementation.
type fakeRepository struct {
	nextID        uint
	byMember      map[uint]*models.Subscription
	webhookEvents map[string]*models.WebhookEvent
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		byMember:      make(map[uint]*models.Subscription),
		webhookEvents: make(map[string]*models.WebhookEvent),
	}
}

func (f *fakeRepository) UpsertSubscription(sub *models.Subscription) error {
	if existing, ok := f.byMember[sub.MemberID]; ok {
		existing.ProviderSubscriptionID = sub.ProviderSubscriptionID
		existing.ProviderCustomerID = sub.ProviderCustomerID
		existing.Status = sub.Status
		existing.Amount = sub.Amount
		existing.CurrentPeriodStart = sub.CurrentPeriodStart
		existing.CurrentPeriodEnd = sub.CurrentPeriodEnd
		*sub = *existing
		return nil
	}
	f.nextID++
	sub.ID = f.nextID
	stored := *sub
	f.byMember[sub.MemberID] = &stored
	return nil
}

func (f *fakeRepository) GetSubscriptionByMemberID(memberID uint) (*models.Subscription, error) {
	if sub, ok := f.byMember[memberID]; ok {
		copied := *sub
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetSubscriptionByProviderID(providerSubscriptionID string) (*models.Subscription, error) {
	for _, sub := range f.byMember {
		if sub.ProviderSubscriptionID == providerSubscriptionID {
			copied := *sub
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) SetStatusByProviderID(providerSubscriptionID, status string) error {
	for _, sub := range f.byMember {
		if sub.ProviderSubscriptionID == providerSubscriptionID {
			sub.Status = status
		}
	}
	return nil
}

func (f *fakeRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	key := event.Provider + ":" + event.ProviderEventID
	if stored, ok := f.webhookEvents[key]; ok {
		copied := *stored
		return false, &copied, nil
	}
	f.nextID++
	event.ID = f.nextID
	stored := *event
	f.webhookEvents[key] = &stored
	copied := stored
	return true, &copied, nil
}

func (f *fakeRepository) MarkWebhookProcessed(id uint, processingError string) error {
	for _, event := range f.webhookEvents {
		if event.ID == id {
			now := time.Now()
			event.ProcessedAt = &now
			event.ProcessingError = processingError
			return nil
		}
	}
	return fmt.Errorf("webhook event %d not found", id)
}

func checkoutEvent(memberID uint, providerSubID string, amount int64) CheckoutCompleted {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	return CheckoutCompleted{
		MemberID:               memberID,
		ClubID:                 1,
		PlanID:                 2,
		ProviderSubscriptionID: providerSubID,
		ProviderCustomerID:     "cus_123",
		Amount:                 amount,
		CurrentPeriodStart:     &start,
		CurrentPeriodEnd:       &end,
	}
}

func TestApplyCheckoutCompletedIdempotent(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.ApplyCheckoutCompleted(ctx, checkoutEvent(1, "sub_1", 3000))
	if err != nil {
		t.Fatalf("first apply: %v", err)
	}
	second, err := svc.ApplyCheckoutCompleted(ctx, checkoutEvent(1, "sub_1", 3000))
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}

	if len(repo.byMember) != 1 {
		t.Fatalf("expected exactly one subscription row, got %d", len(repo.byMember))
	}
	if first.ID != second.ID {
		t.Fatalf("expected replay to hit the same row, got ids %d and %d", first.ID, second.ID)
	}
	if second.Status != models.SubscriptionStatusActive {
		t.Fatalf("expected status active, got %q", second.Status)
	}
	if second.Amount != 3000 || second.ProviderSubscriptionID != "sub_1" || second.ProviderCustomerID != "cus_123" {
		t.Fatalf("expected identical field values after replay, got %+v", second)
	}
}

func TestLastWriteWinsOutOfOrder(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.ApplyCheckoutCompleted(ctx, checkoutEvent(1, "sub_1", 3000)); err != nil {
		t.Fatalf("checkout completed: %v", err)
	}
	// Logical order would be updated-then-failed; arrival order is reversed.
	if err := svc.ApplyInvoicePaymentFailed(ctx, "sub_1"); err != nil {
		t.Fatalf("invoice payment failed: %v", err)
	}
	if err := svc.ApplySubscriptionUpdated(ctx, "sub_1", "active"); err != nil {
		t.Fatalf("subscription updated: %v", err)
	}

	sub, err := svc.GetSubscriptionForMember(ctx, 1)
	if err != nil {
		t.Fatalf("get subscription: %v", err)
	}
	if sub.Status != models.SubscriptionStatusActive {
		t.Fatalf("expected last write to win with status active, got %q", sub.Status)
	}
}

func TestUnknownSubscriptionEventsAreNoOps(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	if err := svc.ApplySubscriptionUpdated(ctx, "sub_missing", "active"); err != nil {
		t.Fatalf("subscription updated on missing row: %v", err)
	}
	if err := svc.ApplySubscriptionDeleted(ctx, "sub_missing"); err != nil {
		t.Fatalf("subscription deleted on missing row: %v", err)
	}
	if err := svc.ApplyInvoicePaymentFailed(ctx, "sub_missing"); err != nil {
		t.Fatalf("invoice payment failed on missing row: %v", err)
	}
	if len(repo.byMember) != 0 {
		t.Fatalf("expected no rows to be created, got %d", len(repo.byMember))
	}
}

func TestSubscriptionStatusPassthrough(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.ApplyCheckoutCompleted(ctx, checkoutEvent(1, "sub_1", 3000)); err != nil {
		t.Fatalf("checkout completed: %v", err)
	}
	// A non-active provider status is passed through raw.
	if err := svc.ApplySubscriptionUpdated(ctx, "sub_1", "Unpaid"); err != nil {
		t.Fatalf("subscription updated: %v", err)
	}

	sub, err := svc.GetSubscriptionForMember(ctx, 1)
	if err != nil {
		t.Fatalf("get subscription: %v", err)
	}
	if sub.Status != "Unpaid" {
		t.Fatalf("expected raw provider status to pass through, got %q", sub.Status)
	}
}

func TestSubscriptionLifecycleEndToEnd(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	sub, err := svc.ApplyCheckoutCompleted(ctx, checkoutEvent(1, "sub_1", 3000))
	if err != nil {
		t.Fatalf("checkout completed: %v", err)
	}
	if sub.Status != models.SubscriptionStatusActive {
		t.Fatalf("expected active after checkout, got %q", sub.Status)
	}

	if err := svc.ApplyInvoicePaymentFailed(ctx, "sub_1"); err != nil {
		t.Fatalf("invoice payment failed: %v", err)
	}
	sub, _ = svc.GetSubscriptionForMember(ctx, 1)
	if sub.Status != models.SubscriptionStatusPastDue {
		t.Fatalf("expected past_due after failed invoice, got %q", sub.Status)
	}

	if err := svc.ApplySubscriptionDeleted(ctx, "sub_1"); err != nil {
		t.Fatalf("subscription deleted: %v", err)
	}
	sub, _ = svc.GetSubscriptionForMember(ctx, 1)
	if sub == nil {
		t.Fatalf("expected row to be retained after cancellation")
	}
	if sub.Status != models.SubscriptionStatusCanceled {
		t.Fatalf("expected canceled, got %q", sub.Status)
	}
	if sub.Amount != 3000 {
		t.Fatalf("expected amount to survive cancellation, got %d", sub.Amount)
	}
}

func TestRecordWebhookEventDeduplicates(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	in := WebhookEventInput{
		Provider:        models.BillingProviderStripe,
		ProviderEventID: "evt_1",
		EventType:       EventSubscriptionUpdated,
		PayloadJSON:     `{"id":"evt_1"}`,
		SignatureValid:  true,
	}

	created, stored, err := svc.RecordWebhookEvent(ctx, in)
	if err != nil {
		t.Fatalf("record webhook event: %v", err)
	}
	if !created || stored == nil {
		t.Fatalf("expected first delivery to create the event")
	}

	created, dup, err := svc.RecordWebhookEvent(ctx, in)
	if err != nil {
		t.Fatalf("record duplicate webhook event: %v", err)
	}
	if created {
		t.Fatalf("expected duplicate delivery to be deduplicated")
	}
	if dup.ID != stored.ID {
		t.Fatalf("expected duplicate to resolve to the stored event")
	}
}

func TestFailedDeliveryIsReprocessedOnRedelivery(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.ApplyCheckoutCompleted(ctx, checkoutEvent(1, "sub_1", 3000)); err != nil {
		t.Fatalf("checkout completed: %v", err)
	}

	in := WebhookEventInput{
		Provider:        models.BillingProviderStripe,
		ProviderEventID: "evt_fail",
		EventType:       EventInvoicePaymentFailed,
		PayloadJSON:     `{"id":"evt_fail"}`,
		SignatureValid:  true,
	}

	// First delivery: recorded, but applying the transition fails.
	created, stored, err := svc.RecordWebhookEvent(ctx, in)
	if err != nil {
		t.Fatalf("record webhook event: %v", err)
	}
	if !created {
		t.Fatalf("expected first delivery to create the event")
	}
	if err := svc.MarkWebhookProcessed(ctx, stored.ID, errors.New("database unavailable")); err != nil {
		t.Fatalf("mark processed: %v", err)
	}

	// Redelivery: deduplicated, but the stored record shows the failure so
	// the transition must be applied again.
	created, redelivered, err := svc.RecordWebhookEvent(ctx, in)
	if err != nil {
		t.Fatalf("record redelivered webhook event: %v", err)
	}
	if created {
		t.Fatalf("expected redelivery to be deduplicated")
	}
	if !ShouldReprocess(redelivered) {
		t.Fatalf("expected failed delivery to be eligible for reprocessing")
	}

	if err := svc.ApplyInvoicePaymentFailed(ctx, "sub_1"); err != nil {
		t.Fatalf("apply on redelivery: %v", err)
	}
	if err := svc.MarkWebhookProcessed(ctx, redelivered.ID, nil); err != nil {
		t.Fatalf("mark processed: %v", err)
	}

	sub, err := svc.GetSubscriptionForMember(ctx, 1)
	if err != nil {
		t.Fatalf("get subscription: %v", err)
	}
	if sub.Status != models.SubscriptionStatusPastDue {
		t.Fatalf("expected past_due after redelivery, got %q", sub.Status)
	}

	// Third delivery: now successfully processed, nothing left to do.
	created, done, err := svc.RecordWebhookEvent(ctx, in)
	if err != nil {
		t.Fatalf("record settled webhook event: %v", err)
	}
	if created || ShouldReprocess(done) {
		t.Fatalf("expected successfully processed delivery to be a pure no-op")
	}
}

func TestRecordWebhookEventHashFallback(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	created, stored, err := svc.RecordWebhookEvent(ctx, WebhookEventInput{
		Provider:    models.BillingProviderStripe,
		EventType:   EventInvoicePaymentFailed,
		PayloadJSON: `{"no":"id"}`,
	})
	if err != nil {
		t.Fatalf("record webhook event: %v", err)
	}
	if !created {
		t.Fatalf("expected event to be created")
	}
	if stored.ProviderEventID == "" {
		t.Fatalf("expected a derived event id for payloads without one")
	}
}
