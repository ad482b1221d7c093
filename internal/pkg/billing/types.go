package billing

import "time"

// Event type names as delivered by the payment provider.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventSubscriptionUpdated      = "customer.subscription.updated"
	EventSubscriptionDeleted      = "customer.subscription.deleted"
	EventInvoicePaymentFailed     = "invoice.payment_failed"
)

// CheckoutCompleted is the normalized shape of a checkout.session.completed
// delivery: the metadata correlation triple plus the provider identifiers and
// billing figures the reconciler persists.
type CheckoutCompleted struct {
	MemberID               uint
	ClubID                 uint
	PlanID                 uint
	ProviderSubscriptionID string
	ProviderCustomerID     string
	Amount                 int64
	CurrentPeriodStart     *time.Time
	CurrentPeriodEnd       *time.Time
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}
