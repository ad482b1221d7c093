package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/clubstack/clubstack/internal/pkg/usercontext"
)

// contextProbe reports whether the user context middleware populated the
// request locals before the handler ran.
func contextProbe(c *fiber.Ctx) error {
	if c.Locals(usercontext.KeyFromProtected) == nil {
		return c.SendString("skipped")
	}
	return c.SendString("populated")
}

func newUserContextTestApp() *fiber.App {
	app := fiber.New()
	app.Use(UserContextMiddleware)
	app.Post("/auth/register", contextProbe)
	app.Post("/auth/login", contextProbe)
	app.Get("/oauth/google", contextProbe)
	app.Get("/oauth/google/callback", contextProbe)
	app.Get("/api/v1/clubs", contextProbe)
	return app
}

func TestUserContextMiddlewareCoversAuthRoutes(t *testing.T) {
	app := newUserContextTestApp()

	tests := []struct {
		name   string
		method string
		path   string
		want   string
	}{
		{name: "register gets user context", method: http.MethodPost, path: "/auth/register", want: "populated"},
		{name: "login gets user context", method: http.MethodPost, path: "/auth/login", want: "populated"},
		{name: "api routes get user context", method: http.MethodGet, path: "/api/v1/clubs", want: "populated"},
		{name: "oauth begin is left to goth", method: http.MethodGet, path: "/oauth/google", want: "skipped"},
		{name: "oauth callback is left to goth", method: http.MethodGet, path: "/oauth/google/callback", want: "skipped"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, tt.want, string(body))
		})
	}
}

// An anonymous request to the admin-only registration route must fail on the
// auth check, not because the middleware never established a user context.
func TestRequireAdminSeesAnonymousContextOnRegister(t *testing.T) {
	app := fiber.New()
	app.Use(UserContextMiddleware)
	app.Post("/auth/register", RequireAdmin, func(c *fiber.Ctx) error {
		return c.SendString("registered")
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/register", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// A logged-in platform admin reaches the registration handler.
func TestRequireAdminAllowsAdminContext(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("USER_CONTEXT", usercontext.UserContext{UserID: 1, IsLoggedIn: true, IsAdmin: true})
		c.Locals(usercontext.KeyFromProtected, true)
		c.Locals(usercontext.KeyIsAdmin, true)
		return c.Next()
	})
	app.Post("/auth/register", RequireAdmin, func(c *fiber.Ctx) error {
		return c.SendString("registered")
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/register", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "registered", string(body))
}
