package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/clubstack/clubstack/app/controllers"
	"github.com/clubstack/clubstack/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{Max: 120}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "ClubStack API",
		})
	})

	v1 := api.Group("/v1")

	// Anonymous: token issuance and the provider webhook. The webhook is
	// authenticated by its signature, never by session or CSRF token.
	v1.Get("/csrf", controllers.HandleGetCSRFToken)
	v1.Post("/billing/webhook", controllers.HandleBillingWebhook)

	// Everything below needs a logged-in staff user; mutations additionally
	// need the CSRF token.
	authed := v1.Group("", middleware.RequireAuth, middleware.RequireCSRF)

	// Clubs
	authed.Post("/clubs", middleware.RequireAdmin, controllers.HandleClubCreate)
	authed.Get("/clubs", controllers.HandleClubList)
	authed.Get("/clubs/:id", controllers.HandleClubGet)
	authed.Put("/clubs/:id", controllers.HandleClubUpdate)
	authed.Delete("/clubs/:id", middleware.RequireAdmin, controllers.HandleClubDelete)
	authed.Get("/clubs/:id/connect/status", controllers.HandleClubConnectStatus)

	// Members
	authed.Post("/members", controllers.HandleMemberCreate)
	authed.Get("/clubs/:clubId/members", controllers.HandleMemberList)
	authed.Get("/members/:id", controllers.HandleMemberGet)
	authed.Put("/members/:id", controllers.HandleMemberUpdate)
	authed.Delete("/members/:id", controllers.HandleMemberDelete)
	authed.Get("/members/:id/subscription", controllers.HandleMemberSubscription)

	// Membership plans
	authed.Post("/plans", controllers.HandlePlanCreate)
	authed.Get("/clubs/:clubId/plans", controllers.HandlePlanList)
	authed.Put("/plans/:id", controllers.HandlePlanUpdate)
	authed.Delete("/plans/:id", controllers.HandlePlanDelete)

	// Class sessions and attendance
	authed.Post("/classes", controllers.HandleClassCreate)
	authed.Get("/clubs/:clubId/classes", controllers.HandleClassList)
	authed.Put("/classes/:id", controllers.HandleClassUpdate)
	authed.Delete("/classes/:id", controllers.HandleClassDelete)
	authed.Post("/classes/:id/checkin", controllers.HandleClassCheckIn)
	authed.Get("/classes/:id/attendance", controllers.HandleClassAttendance)

	// Checkout creation
	authed.Post("/billing/checkout", controllers.HandleCreateCheckout)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
