package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/clubstack/clubstack/app/models"
)

// Service reconciles the local subscription table against the asynchronous,
// at-least-once, unordered event stream from the payment provider. Every
// transition is idempotent: replaying an event produces the same end state,
// and the last applied event wins. No event is rejected for being "too old";
// the accepted tradeoff is transient inconsistency when events for one
// subscription arrive out of their logical order.
type Service struct {
	repo Repository
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// ApplyCheckoutCompleted creates or updates the member's subscription from a
// checkout.session.completed event. The upsert is keyed by the unique
// member_id, so a second delivery re-writes the same values.
func (s *Service) ApplyCheckoutCompleted(ctx context.Context, in CheckoutCompleted) (*models.Subscription, error) {
	_ = ctx
	if in.MemberID == 0 || strings.TrimSpace(in.ProviderSubscriptionID) == "" {
		return nil, errors.New("member_id and provider_subscription_id are required")
	}

	sub := &models.Subscription{
		MemberID:               in.MemberID,
		ProviderSubscriptionID: strings.TrimSpace(in.ProviderSubscriptionID),
		ProviderCustomerID:     strings.TrimSpace(in.ProviderCustomerID),
		Status:                 models.SubscriptionStatusActive,
		Amount:                 in.Amount,
		CurrentPeriodStart:     in.CurrentPeriodStart,
		CurrentPeriodEnd:       in.CurrentPeriodEnd,
	}
	if err := s.repo.UpsertSubscription(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// ApplySubscriptionUpdated writes the provider's reported status onto the
// matching local subscription. An unknown provider subscription id is a
// no-op, not an error.
func (s *Service) ApplySubscriptionUpdated(ctx context.Context, providerSubscriptionID, providerStatus string) error {
	_ = ctx
	id := strings.TrimSpace(providerSubscriptionID)
	if id == "" {
		return errors.New("provider_subscription_id is required")
	}

	// The provider's status string is stored verbatim; only a missing status
	// falls back to active.
	status := strings.TrimSpace(providerStatus)
	if status == "" {
		status = models.SubscriptionStatusActive
	}
	return s.repo.SetStatusByProviderID(id, status)
}

// ApplySubscriptionDeleted marks the matching subscription canceled. The row
// is retained; cancellation is a status change, not a deletion.
func (s *Service) ApplySubscriptionDeleted(ctx context.Context, providerSubscriptionID string) error {
	_ = ctx
	id := strings.TrimSpace(providerSubscriptionID)
	if id == "" {
		return errors.New("provider_subscription_id is required")
	}
	return s.repo.SetStatusByProviderID(id, models.SubscriptionStatusCanceled)
}

// ApplyInvoicePaymentFailed marks the matching subscription past_due.
func (s *Service) ApplyInvoicePaymentFailed(ctx context.Context, providerSubscriptionID string) error {
	_ = ctx
	id := strings.TrimSpace(providerSubscriptionID)
	if id == "" {
		return errors.New("provider_subscription_id is required")
	}
	return s.repo.SetStatusByProviderID(id, models.SubscriptionStatusPastDue)
}

// GetSubscriptionForMember returns the member's subscription row, or nil when
// none exists.
func (s *Service) GetSubscriptionForMember(ctx context.Context, memberID uint) (*models.Subscription, error) {
	_ = ctx
	sub, err := s.repo.GetSubscriptionByMemberID(memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}

// RecordWebhookEvent persists webhook payloads idempotently.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.WebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.WebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// ShouldReprocess reports whether a previously recorded delivery still needs
// its transition applied: processing never finished, or finished with an
// error. The provider redelivers failed events, and every transition is
// idempotent, so re-applying is safe.
func ShouldReprocess(record *models.WebhookEvent) bool {
	if record == nil {
		return false
	}
	return record.ProcessedAt == nil || record.ProcessingError != ""
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}
