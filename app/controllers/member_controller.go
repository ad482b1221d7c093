package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/clubstack/clubstack/app/models"
	"github.com/clubstack/clubstack/app/repository"
)

type memberRequest struct {
	ClubID    uint   `json:"club_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Status    string `json:"status"`
}

// HandleMemberCreate enrolls a new member into a club.
func HandleMemberCreate(c *fiber.Ctx) error {
	var req memberRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequestJSON(c, "Invalid request body")
	}
	if !canAccessClub(c, req.ClubID) {
		return forbiddenJSON(c)
	}

	now := time.Now()
	member := models.Member{
		ClubID:    req.ClubID,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(strings.ToLower(req.Email)),
		Phone:     strings.TrimSpace(req.Phone),
		Status:    models.MemberStatusActive,
		JoinedAt:  &now,
	}
	if req.Status != "" {
		member.Status = req.Status
	}
	if err := member.Validate(); err != nil {
		return badRequestJSON(c, err.Error())
	}

	if err := repository.GetGlobalFactory().GetMemberRepository().Create(&member); err != nil {
		return internalErrorJSON(c, "Failed to create member")
	}
	return c.Status(fiber.StatusCreated).JSON(member)
}

// HandleMemberList lists a club's members with optional search.
func HandleMemberList(c *fiber.Ctx) error {
	clubID := parseIDParam(c, "clubId")
	if clubID == 0 {
		return badRequestJSON(c, "Invalid club id")
	}
	if !canAccessClub(c, clubID) {
		return forbiddenJSON(c)
	}

	memberRepo := repository.GetGlobalFactory().GetMemberRepository()
	if query := strings.TrimSpace(c.Query("q")); query != "" {
		members, err := memberRepo.Search(clubID, query)
		if err != nil {
			return internalErrorJSON(c, "Failed to search members")
		}
		return c.JSON(fiber.Map{"members": members, "total": len(members)})
	}

	offset, limit := paginationParams(c)
	members, err := memberRepo.GetByClubID(clubID, offset, limit)
	if err != nil {
		return internalErrorJSON(c, "Failed to list members")
	}
	total, _ := memberRepo.CountByClubID(clubID)
	return c.JSON(fiber.Map{"members": members, "total": total})
}

// HandleMemberGet returns a member including their subscription state.
func HandleMemberGet(c *fiber.Ctx) error {
	member, err := loadMemberChecked(c)
	if err != nil {
		return err
	}
	return c.JSON(member)
}

// HandleMemberUpdate updates member contact data and status.
func HandleMemberUpdate(c *fiber.Ctx) error {
	member, errResp := loadMemberChecked(c)
	if errResp != nil {
		return errResp
	}

	var req memberRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequestJSON(c, "Invalid request body")
	}
	if req.FirstName != "" {
		member.FirstName = strings.TrimSpace(req.FirstName)
	}
	if req.LastName != "" {
		member.LastName = strings.TrimSpace(req.LastName)
	}
	if req.Email != "" {
		member.Email = strings.TrimSpace(strings.ToLower(req.Email))
	}
	if req.Phone != "" {
		member.Phone = strings.TrimSpace(req.Phone)
	}
	if req.Status != "" {
		member.Status = req.Status
	}
	if err := member.Validate(); err != nil {
		return badRequestJSON(c, err.Error())
	}

	if err := repository.GetGlobalFactory().GetMemberRepository().Update(member); err != nil {
		return internalErrorJSON(c, "Failed to update member")
	}
	return c.JSON(member)
}

// HandleMemberDelete removes a member from the club.
func HandleMemberDelete(c *fiber.Ctx) error {
	member, errResp := loadMemberChecked(c)
	if errResp != nil {
		return errResp
	}
	if err := repository.GetGlobalFactory().GetMemberRepository().Delete(member.ID); err != nil {
		return internalErrorJSON(c, "Failed to delete member")
	}
	return c.JSON(fiber.Map{"deleted": true})
}

// loadMemberChecked loads the :id member and enforces club access. The
// second return value is a ready fiber response when loading failed.
func loadMemberChecked(c *fiber.Ctx) (*models.Member, error) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return nil, badRequestJSON(c, "Invalid member id")
	}

	member, err := repository.GetGlobalFactory().GetMemberRepository().GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundJSON(c, "Member not found")
		}
		return nil, internalErrorJSON(c, "Failed to load member")
	}
	if !canAccessClub(c, member.ClubID) {
		return nil, forbiddenJSON(c)
	}
	return member, nil
}
