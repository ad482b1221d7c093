package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// ClassSession is a scheduled class (training, lesson) members check in to.
// CheckinCount is a denormalized counter flushed periodically from Redis.
type ClassSession struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ClubID       uint      `gorm:"not null;index" json:"club_id" validate:"required"`
	Title        string    `gorm:"type:varchar(200);not null" json:"title" validate:"required,min=2,max=200"`
	StartsAt     time.Time `gorm:"type:timestamp;not null;index" json:"starts_at" validate:"required"`
	EndsAt       time.Time `gorm:"type:timestamp;not null" json:"ends_at" validate:"required"`
	Capacity     int       `gorm:"default:0" json:"capacity" validate:"gte=0"`
	CheckinCount int       `gorm:"default:0" json:"checkin_count"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *ClassSession) Validate() error {
	v := validator.New()

	return v.Struct(s)
}

// Attendance records a member's check-in to a class session. The composite
// unique index makes check-in idempotent.
type Attendance struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ClassSessionID uint      `gorm:"not null;index:ux_attendances_session_member,unique,priority:1" json:"class_session_id"`
	MemberID       uint      `gorm:"not null;index:ux_attendances_session_member,unique,priority:2" json:"member_id"`
	CheckedInAt    time.Time `gorm:"type:timestamp;not null" json:"checked_in_at"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}
