package models

import "time"

const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
)

// Subscription mirrors a member's billing state at the payment provider.
// At most one row exists per member (unique member_id); status is written
// exclusively by the webhook reconciler and the checkout-completion event,
// never from user input. Cancellation is a status change, the row is kept.
type Subscription struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	MemberID               uint       `gorm:"not null;uniqueIndex:ux_subscriptions_member" json:"member_id"`
	ProviderSubscriptionID string     `gorm:"type:varchar(191);not null;index:idx_subscriptions_provider_sub" json:"provider_subscription_id"`
	ProviderCustomerID     string     `gorm:"type:varchar(191);default:''" json:"provider_customer_id"`
	Status                 string     `gorm:"type:varchar(32);not null;default:'active';index" json:"status"`
	Amount                 int64      `gorm:"not null;default:0" json:"amount"`
	CurrentPeriodStart     *time.Time `gorm:"type:timestamp;default:null" json:"current_period_start,omitempty"`
	CurrentPeriodEnd       *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	CreatedAt              time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
