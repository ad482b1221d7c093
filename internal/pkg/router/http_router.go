package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/clubstack/clubstack/app/controllers"
	"github.com/clubstack/clubstack/internal/pkg/middleware"
	"github.com/clubstack/clubstack/internal/pkg/oauth"
	"github.com/clubstack/clubstack/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	h.registerAuthRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func (h HttpRouter) registerAuthRoutes(app *fiber.App) {
	// Password login. CSRF applies to every state-changing route, including
	// the login itself; clients fetch a token from /api/v1/csrf first.
	app.Post("/auth/login", middleware.RequireCSRF, controllers.HandleAuthLogin)
	app.Post("/auth/logout", middleware.RequireCSRF, controllers.HandleAuthLogout)
	app.Post("/auth/register", middleware.RequireCSRF, middleware.RequireAdmin, controllers.HandleAuthRegister)

	// OAuth flow. Goth manages its own state cookie; the callback is a
	// top-level browser redirect, not an API call. These live under /oauth/
	// so the user context middleware leaves them alone without shadowing
	// the password auth routes above.
	app.Get("/oauth/:provider", controllers.HandleOAuthLogin)
	app.Get("/oauth/:provider/callback", controllers.HandleOAuthCallback)
}
