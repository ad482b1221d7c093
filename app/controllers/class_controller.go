package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/clubstack/clubstack/app/models"
	"github.com/clubstack/clubstack/app/repository"
	"github.com/clubstack/clubstack/internal/pkg/metrics/counter"
)

type classRequest struct {
	ClubID   uint      `json:"club_id"`
	Title    string    `json:"title"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Capacity int       `json:"capacity"`
}

// HandleClassCreate schedules a class session for a club.
func HandleClassCreate(c *fiber.Ctx) error {
	var req classRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequestJSON(c, "Invalid request body")
	}
	if !canAccessClub(c, req.ClubID) {
		return forbiddenJSON(c)
	}
	if !req.EndsAt.After(req.StartsAt) {
		return badRequestJSON(c, "Class must end after it starts")
	}

	session := models.ClassSession{
		ClubID:   req.ClubID,
		Title:    strings.TrimSpace(req.Title),
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
		Capacity: req.Capacity,
	}
	if err := session.Validate(); err != nil {
		return badRequestJSON(c, err.Error())
	}

	if err := repository.GetGlobalFactory().GetClassRepository().Create(&session); err != nil {
		return internalErrorJSON(c, "Failed to create class session")
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

// HandleClassList lists a club's class sessions within a time range.
// Defaults to the coming week.
func HandleClassList(c *fiber.Ctx) error {
	clubID := parseIDParam(c, "clubId")
	if clubID == 0 {
		return badRequestJSON(c, "Invalid club id")
	}
	if !canAccessClub(c, clubID) {
		return forbiddenJSON(c)
	}

	from := time.Now()
	to := from.Add(7 * 24 * time.Hour)
	if v := c.Query("from"); v != "" {
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			from = parsed
		}
	}
	if v := c.Query("to"); v != "" {
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			to = parsed
		}
	}

	sessions, err := repository.GetGlobalFactory().GetClassRepository().GetByClubID(clubID, from, to)
	if err != nil {
		return internalErrorJSON(c, "Failed to list class sessions")
	}
	return c.JSON(fiber.Map{"sessions": sessions, "total": len(sessions)})
}

// HandleClassUpdate reschedules or resizes a class session.
func HandleClassUpdate(c *fiber.Ctx) error {
	session, errResp := loadClassChecked(c)
	if errResp != nil {
		return errResp
	}

	var req classRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequestJSON(c, "Invalid request body")
	}
	if req.Title != "" {
		session.Title = strings.TrimSpace(req.Title)
	}
	if !req.StartsAt.IsZero() {
		session.StartsAt = req.StartsAt
	}
	if !req.EndsAt.IsZero() {
		session.EndsAt = req.EndsAt
	}
	if req.Capacity > 0 {
		session.Capacity = req.Capacity
	}
	if !session.EndsAt.After(session.StartsAt) {
		return badRequestJSON(c, "Class must end after it starts")
	}
	if err := session.Validate(); err != nil {
		return badRequestJSON(c, err.Error())
	}

	if err := repository.GetGlobalFactory().GetClassRepository().Update(session); err != nil {
		return internalErrorJSON(c, "Failed to update class session")
	}
	return c.JSON(session)
}

// HandleClassDelete cancels a class session.
func HandleClassDelete(c *fiber.Ctx) error {
	session, errResp := loadClassChecked(c)
	if errResp != nil {
		return errResp
	}
	if err := repository.GetGlobalFactory().GetClassRepository().Delete(session.ID); err != nil {
		return internalErrorJSON(c, "Failed to delete class session")
	}
	return c.JSON(fiber.Map{"deleted": true})
}

// HandleClassCheckIn records a member's attendance. The attendance row is
// the source of truth; the per-session counter is bumped in Redis and
// flushed to the denormalized column in the background.
func HandleClassCheckIn(c *fiber.Ctx) error {
	session, errResp := loadClassChecked(c)
	if errResp != nil {
		return errResp
	}

	var req struct {
		MemberID uint `json:"member_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.MemberID == 0 {
		return badRequestJSON(c, "member_id is required")
	}

	member, err := repository.GetGlobalFactory().GetMemberRepository().GetByID(req.MemberID)
	if err != nil {
		return notFoundJSON(c, "Member not found")
	}
	if member.ClubID != session.ClubID {
		return badRequestJSON(c, "Member belongs to a different club")
	}

	created, err := repository.GetGlobalFactory().GetClassRepository().CheckIn(session.ID, member.ID, time.Now())
	if err != nil {
		return internalErrorJSON(c, "Failed to record check-in")
	}
	if !created {
		return c.JSON(fiber.Map{"checked_in": true, "already_checked_in": true})
	}

	if err := counter.AddClassCheckin(session.ID); err != nil {
		log.Errorf("[Class] Failed to bump check-in counter for session %d: %v", session.ID, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"checked_in": true, "already_checked_in": false})
}

// HandleClassAttendance lists who checked in to a session.
func HandleClassAttendance(c *fiber.Ctx) error {
	session, errResp := loadClassChecked(c)
	if errResp != nil {
		return errResp
	}

	attendance, err := repository.GetGlobalFactory().GetClassRepository().ListAttendance(session.ID)
	if err != nil {
		return internalErrorJSON(c, "Failed to list attendance")
	}
	return c.JSON(fiber.Map{"attendance": attendance, "total": len(attendance)})
}

func loadClassChecked(c *fiber.Ctx) (*models.ClassSession, error) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return nil, badRequestJSON(c, "Invalid class session id")
	}

	session, err := repository.GetGlobalFactory().GetClassRepository().GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundJSON(c, "Class session not found")
		}
		return nil, internalErrorJSON(c, "Failed to load class session")
	}
	if !canAccessClub(c, session.ClubID) {
		return nil, forbiddenJSON(c)
	}
	return session, nil
}
