package repository

import (
	"gorm.io/gorm"

	"github.com/clubstack/clubstack/app/models"
)

// planRepository implements the PlanRepository interface
type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new membership plan repository instance
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) Create(plan *models.MembershipPlan) error {
	return r.db.Create(plan).Error
}

func (r *planRepository) GetByID(id uint) (*models.MembershipPlan, error) {
	var plan models.MembershipPlan
	err := r.db.First(&plan, id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepository) GetActiveByClubID(clubID uint) ([]models.MembershipPlan, error) {
	var plans []models.MembershipPlan
	err := r.db.Where("club_id = ? AND is_active = ?", clubID, true).
		Order("amount ASC").
		Find(&plans).Error
	return plans, err
}

func (r *planRepository) Update(plan *models.MembershipPlan) error {
	return r.db.Save(plan).Error
}

func (r *planRepository) Delete(id uint) error {
	return r.db.Delete(&models.MembershipPlan{}, id).Error
}
