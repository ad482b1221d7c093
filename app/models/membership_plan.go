package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	PlanIntervalMonth = "month"
	PlanIntervalYear  = "year"
)

// MembershipPlan is a club-scoped recurring price. Amount is in minor
// currency units (cents).
type MembershipPlan struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	ClubID   uint   `gorm:"not null;index" json:"club_id" validate:"required"`
	Name     string `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	Amount   int64  `gorm:"not null" json:"amount" validate:"gt=0"`
	Currency string `gorm:"type:varchar(3);not null;default:'eur'" json:"currency" validate:"len=3"`
	Interval string `gorm:"type:varchar(16);not null;default:'month'" json:"interval" validate:"oneof=month year"`
	IsActive bool   `gorm:"default:true;index" json:"is_active"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *MembershipPlan) Validate() error {
	v := validator.New()

	return v.Struct(p)
}
