package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MemberStatusActive   = "active"
	MemberStatusInactive = "inactive"
)

// Member is a person enrolled in a club. The UUID is the public identifier
// used in URLs and in checkout metadata; the numeric ID stays internal.
type Member struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UUID      string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	ClubID    uint       `gorm:"not null;index" json:"club_id" validate:"required"`
	FirstName string     `gorm:"type:varchar(100);not null" json:"first_name" validate:"required,min=1,max=100"`
	LastName  string     `gorm:"type:varchar(100);not null" json:"last_name" validate:"required,min=1,max=100"`
	Email     string     `gorm:"type:varchar(200);index" json:"email" validate:"omitempty,email,max=200"`
	Phone     string     `gorm:"type:varchar(50);default:''" json:"phone" validate:"max=50"`
	Status    string     `gorm:"type:varchar(20);not null;default:'active'" json:"status" validate:"oneof=active inactive"`
	JoinedAt  *time.Time `gorm:"type:timestamp;default:null" json:"joined_at,omitempty"`

	Club         *Club         `gorm:"foreignKey:ClubID" json:"-"`
	Subscription *Subscription `gorm:"foreignKey:MemberID" json:"subscription,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (m *Member) Validate() error {
	v := validator.New()

	return v.Struct(m)
}

// BeforeCreate assigns the public UUID if the caller did not set one.
func (m *Member) BeforeCreate(tx *gorm.DB) error {
	if m.UUID == "" {
		m.UUID = uuid.New().String()
	}
	return nil
}

// FullName returns the member's display name.
func (m *Member) FullName() string {
	return m.FirstName + " " + m.LastName
}
