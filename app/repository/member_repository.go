package repository

import (
	"gorm.io/gorm"

	"github.com/clubstack/clubstack/app/models"
)

// memberRepository implements the MemberRepository interface
type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new member repository instance
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Create(member *models.Member) error {
	return r.db.Create(member).Error
}

func (r *memberRepository) GetByID(id uint) (*models.Member, error) {
	var member models.Member
	err := r.db.Preload("Subscription").First(&member, id).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) GetByUUID(uuid string) (*models.Member, error) {
	var member models.Member
	err := r.db.Preload("Subscription").Where("uuid = ?", uuid).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) GetByClubID(clubID uint, offset, limit int) ([]models.Member, error) {
	var members []models.Member
	err := r.db.Preload("Subscription").
		Where("club_id = ?", clubID).
		Offset(offset).Limit(limit).
		Order("last_name ASC, first_name ASC").
		Find(&members).Error
	return members, err
}

func (r *memberRepository) Update(member *models.Member) error {
	return r.db.Save(member).Error
}

func (r *memberRepository) Delete(id uint) error {
	return r.db.Delete(&models.Member{}, id).Error
}

func (r *memberRepository) CountByClubID(clubID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Member{}).Where("club_id = ?", clubID).Count(&count).Error
	return count, err
}

func (r *memberRepository) Search(clubID uint, query string) ([]models.Member, error) {
	var members []models.Member
	pattern := "%" + query + "%"
	err := r.db.Preload("Subscription").
		Where("club_id = ? AND (first_name LIKE ? OR last_name LIKE ? OR email LIKE ?)", clubID, pattern, pattern, pattern).
		Order("last_name ASC").
		Find(&members).Error
	return members, err
}
