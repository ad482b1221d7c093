package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/clubstack/clubstack/app/models"
)

// UserRepository defines the interface for staff-user database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	List(offset, limit int) ([]models.User, error)
}

// ClubRepository defines the interface for club (tenant) database operations
type ClubRepository interface {
	Create(club *models.Club) error
	GetByID(id uint) (*models.Club, error)
	GetBySlug(slug string) (*models.Club, error)
	Update(club *models.Club) error
	Delete(id uint) error
	List(offset, limit int) ([]models.Club, error)
	Count() (int64, error)
}

// MemberRepository defines the interface for member database operations
type MemberRepository interface {
	Create(member *models.Member) error
	GetByID(id uint) (*models.Member, error)
	GetByUUID(uuid string) (*models.Member, error)
	GetByClubID(clubID uint, offset, limit int) ([]models.Member, error)
	Update(member *models.Member) error
	Delete(id uint) error
	CountByClubID(clubID uint) (int64, error)
	Search(clubID uint, query string) ([]models.Member, error)
}

// PlanRepository defines the interface for membership plan database operations
type PlanRepository interface {
	Create(plan *models.MembershipPlan) error
	GetByID(id uint) (*models.MembershipPlan, error)
	GetActiveByClubID(clubID uint) ([]models.MembershipPlan, error)
	Update(plan *models.MembershipPlan) error
	Delete(id uint) error
}

// ClassRepository defines the interface for class scheduling and attendance
type ClassRepository interface {
	Create(session *models.ClassSession) error
	GetByID(id uint) (*models.ClassSession, error)
	GetByClubID(clubID uint, from, to time.Time) ([]models.ClassSession, error)
	Update(session *models.ClassSession) error
	Delete(id uint) error
	CheckIn(sessionID, memberID uint, at time.Time) (bool, error)
	ListAttendance(sessionID uint) ([]models.Attendance, error)
	AddCheckinCount(sessionID uint, delta int) error
}

// Repositories bundles all repository implementations
type Repositories struct {
	User   UserRepository
	Club   ClubRepository
	Member MemberRepository
	Plan   PlanRepository
	Class  ClassRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:   NewUserRepository(db),
		Club:   NewClubRepository(db),
		Member: NewMemberRepository(db),
		Plan:   NewPlanRepository(db),
		Class:  NewClassRepository(db),
	}
}
