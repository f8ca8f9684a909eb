package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/icondo/parcel-service/internal/api/http/handlers"
	"github.com/icondo/parcel-service/internal/auth"
	"github.com/icondo/parcel-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Parcels        *handlers.ParcelsHandler
	Uploads        *handlers.UploadsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
	// UploadsDir is served under /uploads when photos live on local disk.
	UploadsDir string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}
	if cfg.UploadsDir != "" {
		app.Static("/uploads", cfg.UploadsDir, fiber.Static{Browse: false})
	}

	api := app.Group("/api")
	api.Post("/auth/login", cfg.Auth.Login)

	protected := api.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	staffOnly := auth.RequireStaff()
	residentOnly := auth.RequireResident()

	users := protected.Group("/users")
	users.Get("/profile", cfg.Users.Profile)
	users.Get("/residents", staffOnly, cfg.Users.ListResidents)
	users.Post("/residents", staffOnly, cfg.Users.RegisterResident)

	parcels := protected.Group("/parcels")
	parcels.Post("/", staffOnly, cfg.Parcels.Create)
	parcels.Get("/history", cfg.Parcels.History)
	parcels.Get("/history/export", staffOnly, cfg.Parcels.ExportHistory)
	parcels.Get("/resident/:id", cfg.Parcels.ListForResident)
	parcels.Post("/scan", staffOnly, cfg.Parcels.Scan)
	parcels.Get("/:id", cfg.Parcels.Get)
	parcels.Put("/:id/collect", staffOnly, cfg.Parcels.Collect)
	parcels.Get("/:id/qrcode", residentOnly, cfg.Parcels.PickupCode)

	uploads := protected.Group("/uploads", staffOnly)
	uploads.Post("/photos", cfg.Uploads.Multipart)
	uploads.Post("/photos/base64", cfg.Uploads.Base64)
}
