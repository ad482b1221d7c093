package repository

import (
	"gorm.io/gorm"

	"github.com/clubstack/clubstack/app/models"
)

// clubRepository implements the ClubRepository interface
type clubRepository struct {
	db *gorm.DB
}

// NewClubRepository creates a new club repository instance
func NewClubRepository(db *gorm.DB) ClubRepository {
	return &clubRepository{db: db}
}

func (r *clubRepository) Create(club *models.Club) error {
	return r.db.Create(club).Error
}

func (r *clubRepository) GetByID(id uint) (*models.Club, error) {
	var club models.Club
	err := r.db.First(&club, id).Error
	if err != nil {
		return nil, err
	}
	return &club, nil
}

func (r *clubRepository) GetBySlug(slug string) (*models.Club, error) {
	var club models.Club
	err := r.db.Where("slug = ?", slug).First(&club).Error
	if err != nil {
		return nil, err
	}
	return &club, nil
}

func (r *clubRepository) Update(club *models.Club) error {
	return r.db.Save(club).Error
}

func (r *clubRepository) Delete(id uint) error {
	return r.db.Delete(&models.Club{}, id).Error
}

func (r *clubRepository) List(offset, limit int) ([]models.Club, error) {
	var clubs []models.Club
	err := r.db.Offset(offset).Limit(limit).Order("name ASC").Find(&clubs).Error
	return clubs, err
}

func (r *clubRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Club{}).Count(&count).Error
	return count, err
}
