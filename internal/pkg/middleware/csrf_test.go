package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/clubstack/clubstack/internal/pkg/security"
)

func TestMain(m *testing.M) {
	os.Setenv("CSRF_SECRET", "test-secret-for-middleware")
	os.Exit(m.Run())
}

func newCSRFTestApp() *fiber.App {
	app := fiber.New()
	app.Get("/resource", RequireCSRF, func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Post("/resource", RequireCSRF, func(c *fiber.Ctx) error {
		return c.SendString("mutated")
	})
	return app
}

func TestRequireCSRFSafeMethodsPass(t *testing.T) {
	app := newCSRFTestApp()

	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequireCSRFAcceptsMatchingTokens(t *testing.T) {
	app := newCSRFTestApp()

	token, err := security.GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/resource", nil)
	req.Header.Set(security.HeaderName, token)
	req.AddCookie(&http.Cookie{Name: security.CookieName, Value: token})

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequireCSRFRejectsBadRequests(t *testing.T) {
	token, err := security.GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	other, err := security.GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	tests := []struct {
		name   string
		header string
		cookie string
	}{
		{name: "missing header", header: "", cookie: token},
		{name: "missing cookie", header: token, cookie: ""},
		{name: "header cookie mismatch", header: token, cookie: other},
		{name: "garbage token", header: "not-a-token", cookie: "not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newCSRFTestApp()

			req := httptest.NewRequest(http.MethodPost, "/resource", nil)
			if tt.header != "" {
				req.Header.Set(security.HeaderName, tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: security.CookieName, Value: tt.cookie})
			}

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)

			body, _ := io.ReadAll(resp.Body)
			if !strings.Contains(string(body), "Invalid or expired security token") {
				t.Fatalf("unexpected error body: %s", body)
			}
		})
	}
}
