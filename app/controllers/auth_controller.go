package controllers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"
	"github.com/sujit-baniya/flash"
	"gorm.io/gorm"

	"github.com/clubstack/clubstack/app/models"
	"github.com/clubstack/clubstack/app/repository"
	"github.com/clubstack/clubstack/internal/pkg/database"
	"github.com/clubstack/clubstack/internal/pkg/session"
	"github.com/clubstack/clubstack/internal/pkg/usercontext"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	ClubID   uint   `json:"club_id"`
}

// HandleAuthLogin authenticates a staff user and opens a session.
func HandleAuthLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequestJSON(c, "Invalid request body")
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		return badRequestJSON(c, "Email and password are required")
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByEmail(req.Email)
	if err != nil || user == nil || !models.CheckPasswordHash(req.Password, user.Password) {
		return errorJSON(c, fiber.StatusUnauthorized, "unauthorized", "Invalid email or password")
	}
	if user.Status != models.STATUS_ACTIVE {
		return errorJSON(c, fiber.StatusForbidden, "forbidden", "Account is not active")
	}

	if err := openSession(c, user); err != nil {
		return internalErrorJSON(c, "Failed to create session")
	}

	now := time.Now()
	user.LastLoginAt = &now
	_ = userRepo.Update(user)

	return c.JSON(fiber.Map{
		"id":       user.ID,
		"name":     user.Name,
		"email":    user.Email,
		"club_id":  user.ClubID,
		"is_admin": user.IsAdmin(),
	})
}

// HandleAuthLogout destroys the current session.
func HandleAuthLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		_ = sess.Destroy()
	}
	return c.JSON(fiber.Map{"logged_out": true})
}

// HandleAuthRegister creates a staff user. Platform admins may attach the
// user to any club; unauthenticated self-registration is not offered.
func HandleAuthRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequestJSON(c, "Invalid request body")
	}

	user, err := models.CreateUser(req.Name, strings.TrimSpace(strings.ToLower(req.Email)), req.Password)
	if err != nil {
		return badRequestJSON(c, err.Error())
	}
	user.ClubID = req.ClubID

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	if existing, err := userRepo.GetByEmail(user.Email); err == nil && existing != nil {
		return errorJSON(c, fiber.StatusConflict, "conflict", "A user with this email already exists")
	}
	if err := userRepo.Create(user); err != nil {
		// A concurrent register can slip past the lookup and trip the
		// unique email index instead.
		if isDuplicateKeyError(err) {
			return errorJSON(c, fiber.StatusConflict, "conflict", "A user with this email already exists")
		}
		return internalErrorJSON(c, "Failed to create user")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      user.ID,
		"name":    user.Name,
		"email":   user.Email,
		"club_id": user.ClubID,
	})
}

// HandleOAuthLogin starts the provider flow (GET /oauth/:provider).
func HandleOAuthLogin(c *fiber.Ctx) error {
	return gothfiber.BeginAuthHandler(c)
}

// HandleOAuthCallback completes the provider flow and logs the user in.
// Unknown emails are rejected; staff accounts are provisioned by an admin
// first, OAuth only authenticates them.
func HandleOAuthCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		fm := fiber.Map{"type": "error", "message": fmt.Sprintf("OAuth failed: %v", err)}
		return flash.WithError(c, fm).Redirect("/login")
	}
	if u.Email == "" {
		fm := fiber.Map{"type": "error", "message": "OAuth provider did not return an email address"}
		return flash.WithError(c, fm).Redirect("/login")
	}

	db := database.GetDB()
	var user models.User
	if err := db.Where("email = ?", strings.ToLower(u.Email)).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			fm := fiber.Map{"type": "error", "message": "No staff account exists for this email"}
			return flash.WithError(c, fm).Redirect("/login")
		}
		return internalErrorJSON(c, "Failed to load user")
	}
	if user.Status != models.STATUS_ACTIVE {
		fm := fiber.Map{"type": "error", "message": "Account is not active"}
		return flash.WithError(c, fm).Redirect("/login")
	}

	if err := openSession(c, &user); err != nil {
		return internalErrorJSON(c, "Failed to create session")
	}
	_ = db.Model(&user).UpdateColumn("last_login_at", time.Now()).Error

	return c.Redirect("/")
}

// isDuplicateKeyError recognizes a unique-index violation. GORM only
// translates MySQL error 1062 when error translation is enabled, so the raw
// driver message is matched as well.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "Duplicate entry")
}

func openSession(c *fiber.Ctx, user *models.User) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return err
	}
	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, user.ID)
	sess.Set(usercontext.KeyUsername, user.Name)
	sess.Set(usercontext.KeyClubID, user.ClubID)
	sess.Set(usercontext.KeyIsAdmin, user.IsAdmin())
	return sess.Save()
}
