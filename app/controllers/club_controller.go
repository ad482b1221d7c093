package controllers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/clubstack/clubstack/app/models"
	"github.com/clubstack/clubstack/app/repository"
	"github.com/clubstack/clubstack/internal/pkg/billing"
	"github.com/clubstack/clubstack/internal/pkg/cache"
	"github.com/clubstack/clubstack/internal/pkg/usercontext"
)

const connectStatusCacheTTL = 5 * time.Minute

type clubRequest struct {
	Name            string `json:"name"`
	Slug            string `json:"slug"`
	Currency        string `json:"currency"`
	StripeAccountID string `json:"stripe_account_id"`
}

// HandleClubCreate creates a new tenant (admin only, enforced by routing).
func HandleClubCreate(c *fiber.Ctx) error {
	var req clubRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequestJSON(c, "Invalid request body")
	}

	club := models.Club{
		Name:            strings.TrimSpace(req.Name),
		Slug:            strings.TrimSpace(strings.ToLower(req.Slug)),
		Currency:        strings.ToLower(req.Currency),
		StripeAccountID: strings.TrimSpace(req.StripeAccountID),
	}
	if club.Currency == "" {
		club.Currency = "eur"
	}
	if err := club.Validate(); err != nil {
		return badRequestJSON(c, err.Error())
	}

	clubRepo := repository.GetGlobalFactory().GetClubRepository()
	if existing, err := clubRepo.GetBySlug(club.Slug); err == nil && existing != nil {
		return errorJSON(c, fiber.StatusConflict, "conflict", "A club with this slug already exists")
	}
	if err := clubRepo.Create(&club); err != nil {
		return internalErrorJSON(c, "Failed to create club")
	}

	return c.Status(fiber.StatusCreated).JSON(club)
}

// HandleClubList lists clubs. Staff users only see their own club.
func HandleClubList(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	clubRepo := repository.GetGlobalFactory().GetClubRepository()

	if !userCtx.IsAdmin {
		club, err := clubRepo.GetByID(userCtx.ClubID)
		if err != nil {
			return notFoundJSON(c, "Club not found")
		}
		return c.JSON(fiber.Map{"clubs": []models.Club{*club}, "total": 1})
	}

	offset, limit := paginationParams(c)
	clubs, err := clubRepo.List(offset, limit)
	if err != nil {
		return internalErrorJSON(c, "Failed to list clubs")
	}
	total, _ := clubRepo.Count()
	return c.JSON(fiber.Map{"clubs": clubs, "total": total})
}

// HandleClubGet returns a single club.
func HandleClubGet(c *fiber.Ctx) error {
	id := parseIDParam(c, "id")
	if id == 0 {
		return badRequestJSON(c, "Invalid club id")
	}
	if !canAccessClub(c, id) {
		return forbiddenJSON(c)
	}

	club, err := repository.GetGlobalFactory().GetClubRepository().GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundJSON(c, "Club not found")
		}
		return internalErrorJSON(c, "Failed to load club")
	}
	return c.JSON(club)
}

// HandleClubUpdate updates club settings.
func HandleClubUpdate(c *fiber.Ctx) error {
	id := parseIDParam(c, "id")
	if id == 0 {
		return badRequestJSON(c, "Invalid club id")
	}
	if !canAccessClub(c, id) {
		return forbiddenJSON(c)
	}

	clubRepo := repository.GetGlobalFactory().GetClubRepository()
	club, err := clubRepo.GetByID(id)
	if err != nil {
		return notFoundJSON(c, "Club not found")
	}

	var req clubRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequestJSON(c, "Invalid request body")
	}
	if req.Name != "" {
		club.Name = strings.TrimSpace(req.Name)
	}
	if req.Currency != "" {
		club.Currency = strings.ToLower(req.Currency)
	}
	if req.StripeAccountID != club.StripeAccountID {
		// Changing the connected account invalidates the synced charges flag
		club.StripeAccountID = strings.TrimSpace(req.StripeAccountID)
		club.StripeChargesEnabled = false
		cache.Delete(connectStatusCacheKey(club.ID))
	}
	if err := club.Validate(); err != nil {
		return badRequestJSON(c, err.Error())
	}
	if err := clubRepo.Update(club); err != nil {
		return internalErrorJSON(c, "Failed to update club")
	}
	return c.JSON(club)
}

// HandleClubDelete removes a club (admin only, enforced by routing).
func HandleClubDelete(c *fiber.Ctx) error {
	id := parseIDParam(c, "id")
	if id == 0 {
		return badRequestJSON(c, "Invalid club id")
	}
	if err := repository.GetGlobalFactory().GetClubRepository().Delete(id); err != nil {
		return internalErrorJSON(c, "Failed to delete club")
	}
	return c.JSON(fiber.Map{"deleted": true})
}

// HandleClubConnectStatus reports whether the club's connected payment
// account can accept charges. The provider answer is cached briefly and the
// synced flag is persisted so checkout fee routing stays accurate.
func HandleClubConnectStatus(c *fiber.Ctx) error {
	id := parseIDParam(c, "id")
	if id == 0 {
		return badRequestJSON(c, "Invalid club id")
	}
	if !canAccessClub(c, id) {
		return forbiddenJSON(c)
	}

	clubRepo := repository.GetGlobalFactory().GetClubRepository()
	club, err := clubRepo.GetByID(id)
	if err != nil {
		return notFoundJSON(c, "Club not found")
	}
	if club.StripeAccountID == "" {
		return c.JSON(fiber.Map{"connected": false, "charges_enabled": false})
	}

	cacheKey := connectStatusCacheKey(club.ID)
	if cached, err := cache.Get(cacheKey); err == nil {
		return c.JSON(fiber.Map{
			"connected":       true,
			"charges_enabled": cached == "1",
			"account_id":      club.StripeAccountID,
		})
	}

	enabled, err := billing.GetConnectedAccountChargesEnabled(c.Context(), club.StripeAccountID)
	if err != nil {
		log.Errorf("[Club] Connect status check failed for club %d: %v", club.ID, err)
		// Fall back to the last synced flag rather than failing the request
		return c.JSON(fiber.Map{
			"connected":       true,
			"charges_enabled": club.StripeChargesEnabled,
			"account_id":      club.StripeAccountID,
			"stale":           true,
		})
	}

	cachedVal := "0"
	if enabled {
		cachedVal = "1"
	}
	_ = cache.Set(cacheKey, cachedVal, connectStatusCacheTTL)

	if club.StripeChargesEnabled != enabled {
		club.StripeChargesEnabled = enabled
		if err := clubRepo.Update(club); err != nil {
			log.Errorf("[Club] Failed to persist charges flag for club %d: %v", club.ID, err)
		}
	}

	return c.JSON(fiber.Map{
		"connected":       true,
		"charges_enabled": enabled,
		"account_id":      club.StripeAccountID,
	})
}

func connectStatusCacheKey(clubID uint) string {
	return fmt.Sprintf("club:connect_status:%d", clubID)
}
