package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/clubstack/clubstack/app/models"
)

// classRepository implements the ClassRepository interface
type classRepository struct {
	db *gorm.DB
}

// NewClassRepository creates a new class session repository instance
func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) Create(session *models.ClassSession) error {
	return r.db.Create(session).Error
}

func (r *classRepository) GetByID(id uint) (*models.ClassSession, error) {
	var session models.ClassSession
	err := r.db.First(&session, id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *classRepository) GetByClubID(clubID uint, from, to time.Time) ([]models.ClassSession, error) {
	var sessions []models.ClassSession
	err := r.db.Where("club_id = ? AND starts_at >= ? AND starts_at < ?", clubID, from, to).
		Order("starts_at ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *classRepository) Update(session *models.ClassSession) error {
	return r.db.Save(session).Error
}

func (r *classRepository) Delete(id uint) error {
	return r.db.Delete(&models.ClassSession{}, id).Error
}

// CheckIn records a member's attendance. The unique (session, member) index
// makes repeated check-ins no-ops; the bool reports whether a new row was
// created.
func (r *classRepository) CheckIn(sessionID, memberID uint, at time.Time) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "class_session_id"},
			{Name: "member_id"},
		},
		DoNothing: true,
	}).Create(&models.Attendance{
		ClassSessionID: sessionID,
		MemberID:       memberID,
		CheckedInAt:    at,
	})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *classRepository) ListAttendance(sessionID uint) ([]models.Attendance, error) {
	var attendance []models.Attendance
	err := r.db.Where("class_session_id = ?", sessionID).
		Order("checked_in_at ASC").
		Find(&attendance).Error
	return attendance, err
}

// AddCheckinCount applies a batched counter increment flushed from Redis.
func (r *classRepository) AddCheckinCount(sessionID uint, delta int) error {
	return r.db.Model(&models.ClassSession{}).
		Where("id = ?", sessionID).
		UpdateColumn("checkin_count", gorm.Expr("checkin_count + ?", delta)).Error
}
