package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/clubstack/clubstack/app/models"
	"github.com/clubstack/clubstack/app/repository"
)

type planRequest struct {
	ClubID   uint   `json:"club_id"`
	Name     string `json:"name"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Interval string `json:"interval"`
	IsActive *bool  `json:"is_active"`
}

// HandlePlanCreate creates a recurring membership plan for a club.
func HandlePlanCreate(c *fiber.Ctx) error {
	var req planRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequestJSON(c, "Invalid request body")
	}
	if !canAccessClub(c, req.ClubID) {
		return forbiddenJSON(c)
	}

	plan := models.MembershipPlan{
		ClubID:   req.ClubID,
		Name:     strings.TrimSpace(req.Name),
		Amount:   req.Amount,
		Currency: strings.ToLower(req.Currency),
		Interval: req.Interval,
		IsActive: true,
	}
	if plan.Currency == "" {
		plan.Currency = "eur"
	}
	if plan.Interval == "" {
		plan.Interval = models.PlanIntervalMonth
	}
	if err := plan.Validate(); err != nil {
		return badRequestJSON(c, err.Error())
	}

	if err := repository.GetGlobalFactory().GetPlanRepository().Create(&plan); err != nil {
		return internalErrorJSON(c, "Failed to create plan")
	}
	return c.Status(fiber.StatusCreated).JSON(plan)
}

// HandlePlanList lists the active plans of a club.
func HandlePlanList(c *fiber.Ctx) error {
	clubID := parseIDParam(c, "clubId")
	if clubID == 0 {
		return badRequestJSON(c, "Invalid club id")
	}
	if !canAccessClub(c, clubID) {
		return forbiddenJSON(c)
	}

	plans, err := repository.GetGlobalFactory().GetPlanRepository().GetActiveByClubID(clubID)
	if err != nil {
		return internalErrorJSON(c, "Failed to list plans")
	}
	return c.JSON(fiber.Map{"plans": plans, "total": len(plans)})
}

// HandlePlanUpdate updates plan pricing or deactivates it. Existing
// subscriptions keep billing at the price they were created with; changes
// only affect new checkouts.
func HandlePlanUpdate(c *fiber.Ctx) error {
	plan, errResp := loadPlanChecked(c)
	if errResp != nil {
		return errResp
	}

	var req planRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequestJSON(c, "Invalid request body")
	}
	if req.Name != "" {
		plan.Name = strings.TrimSpace(req.Name)
	}
	if req.Amount > 0 {
		plan.Amount = req.Amount
	}
	if req.Currency != "" {
		plan.Currency = strings.ToLower(req.Currency)
	}
	if req.Interval != "" {
		plan.Interval = req.Interval
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}
	if err := plan.Validate(); err != nil {
		return badRequestJSON(c, err.Error())
	}

	if err := repository.GetGlobalFactory().GetPlanRepository().Update(plan); err != nil {
		return internalErrorJSON(c, "Failed to update plan")
	}
	return c.JSON(plan)
}

// HandlePlanDelete removes a plan.
func HandlePlanDelete(c *fiber.Ctx) error {
	plan, errResp := loadPlanChecked(c)
	if errResp != nil {
		return errResp
	}
	if err := repository.GetGlobalFactory().GetPlanRepository().Delete(plan.ID); err != nil {
		return internalErrorJSON(c, "Failed to delete plan")
	}
	return c.JSON(fiber.Map{"deleted": true})
}

func loadPlanChecked(c *fiber.Ctx) (*models.MembershipPlan, error) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return nil, badRequestJSON(c, "Invalid plan id")
	}

	plan, err := repository.GetGlobalFactory().GetPlanRepository().GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundJSON(c, "Plan not found")
		}
		return nil, internalErrorJSON(c, "Failed to load plan")
	}
	if !canAccessClub(c, plan.ClubID) {
		return nil, forbiddenJSON(c)
	}
	return plan, nil
}
