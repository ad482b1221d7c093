package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/clubstack/clubstack/internal/pkg/usercontext"
)

// parseIDParam reads a numeric route parameter, returning 0 when missing or
// not a number.
func parseIDParam(c *fiber.Ctx, name string) uint {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}

// canAccessClub reports whether the current user may operate on the given
// club. Platform admins may touch every tenant, staff only their own.
func canAccessClub(c *fiber.Ctx, clubID uint) bool {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return false
	}
	if userCtx.IsAdmin {
		return true
	}
	return userCtx.ClubID == clubID
}

func errorJSON(c *fiber.Ctx, status int, code string, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}

func notFoundJSON(c *fiber.Ctx, message string) error {
	return errorJSON(c, fiber.StatusNotFound, "not_found", message)
}

func forbiddenJSON(c *fiber.Ctx) error {
	return errorJSON(c, fiber.StatusForbidden, "forbidden", "You do not have access to this club")
}

func badRequestJSON(c *fiber.Ctx, message string) error {
	return errorJSON(c, fiber.StatusBadRequest, "bad_request", message)
}

func internalErrorJSON(c *fiber.Ctx, message string) error {
	return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", message)
}

// paginationParams reads offset/limit query values with sane bounds
func paginationParams(c *fiber.Ctx) (offset, limit int) {
	offset = c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	limit = c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return offset, limit
}
