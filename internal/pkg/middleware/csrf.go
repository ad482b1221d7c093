package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/clubstack/clubstack/internal/pkg/security"
)

// RequireCSRF rejects state-changing requests whose x-csrf-token header does
// not match the session's csrf_token cookie or fails signature/expiry checks.
// Safe methods pass through untouched.
func RequireCSRF(c *fiber.Ctx) error {
	switch c.Method() {
	case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
		return c.Next()
	}

	header := c.Get(security.HeaderName)
	cookie := c.Cookies(security.CookieName)
	if !security.VerifyRequest(header, cookie) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Invalid or expired security token. Please refresh the page and try again.",
		})
	}
	return c.Next()
}
