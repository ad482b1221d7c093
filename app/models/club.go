package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Club is a tenant: a membership organization (sports club, dance school)
// whose members, plans and classes are managed through the platform.
type Club struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	Slug     string `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug" validate:"required,min=2,max=100"`
	Currency string `gorm:"type:varchar(3);not null;default:'eur'" json:"currency" validate:"len=3"`

	// Stripe Connect linkage. ChargesEnabled is synced from the provider via
	// the connect status check; charges route through the connected account
	// only while it is enabled.
	StripeAccountID      string `gorm:"type:varchar(191);default:''" json:"stripe_account_id"`
	StripeChargesEnabled bool   `gorm:"default:false" json:"stripe_charges_enabled"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Club) Validate() error {
	v := validator.New()

	return v.Struct(c)
}

// HasActiveConnectedAccount reports whether charges can be routed through the
// club's own Stripe account.
func (c *Club) HasActiveConnectedAccount() bool {
	return c.StripeAccountID != "" && c.StripeChargesEnabled
}
