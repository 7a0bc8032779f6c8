package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"

	"github.com/mercavio/marketplace-admin/internal/config"
	"github.com/mercavio/marketplace-admin/internal/handlers"
	"github.com/mercavio/marketplace-admin/internal/middleware"
	"github.com/mercavio/marketplace-admin/internal/models"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	healthHandler *handlers.HealthHandler,
	incidenceHandler *handlers.IncidenceHandler,
	appealHandler *handlers.AppealHandler,
	userHandler *handlers.UserHandler,
	auditHandler *handlers.AuditHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	// Health (public)
	api.Get("/health", healthHandler.Check)

	// Everything else requires a resolved actor
	protected := api.Group("",
		middleware.JWTProtected(cfg),
		middleware.ResolveActor(db, cfg),
	)

	staff := middleware.RequireRole(models.RoleAdmin, models.RoleModerator)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	// Reports and appeals: any active account; the services check
	// ownership and eligibility themselves.
	protected.Post("/reports", incidenceHandler.CreateReport)
	protected.Post("/incidences/:id/appeal", appealHandler.Create)
	protected.Get("/incidences/:id/appeal", appealHandler.GetByIncidence)

	// Moderation surface
	protected.Get("/incidences", staff, incidenceHandler.List)
	protected.Get("/incidences/:id", incidenceHandler.Get)
	protected.Post("/incidences/:id/claim", staff, incidenceHandler.Claim)
	protected.Post("/incidences/:id/decision", staff, incidenceHandler.Decide)

	protected.Get("/appeals", staff, appealHandler.List)
	protected.Post("/appeals/:id/decision", staff, appealHandler.Decide)

	// User management; the permission matrix inside the service is the
	// real gate, the route-level role check just trims the surface.
	protected.Get("/users", staff, userHandler.List)
	protected.Get("/users/:id", userHandler.Get)
	protected.Put("/users/:id", staff, userHandler.Edit)
	protected.Post("/users/:id/status", staff, userHandler.ChangeStatus)

	// Admin panel
	admin := protected.Group("/admin", adminOnly)
	admin.Post("/appeals/:id/assign", appealHandler.Assign)
	admin.Post("/appeals/:id/auto-assign", appealHandler.AutoAssign)
	admin.Post("/incidences/sweep", incidenceHandler.Sweep)
	admin.Get("/audit", auditHandler.List)
}
