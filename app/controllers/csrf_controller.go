package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/clubstack/clubstack/internal/pkg/security"
)

// HandleGetCSRFToken issues a fresh token, sets it as a cookie and returns
// it in the body so API clients can echo it in the x-csrf-token header.
func HandleGetCSRFToken(c *fiber.Ctx) error {
	token, err := security.SetCookie(c)
	if err != nil {
		return internalErrorJSON(c, "Failed to issue security token")
	}
	return c.JSON(fiber.Map{
		"token":       token,
		"header_name": security.HeaderName,
		"cookie_name": security.CookieName,
	})
}
