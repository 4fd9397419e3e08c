package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/drive-service/internal/api/http/handlers"
	"github.com/spec-kit/drive-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	Files   *handlers.FilesHandler
	Users   *handlers.UsersHandler
	Session *auth.SessionMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/me", cfg.Session.Handle, cfg.Auth.Me)

	files := app.Group("/files", cfg.Session.Handle)
	files.Get("/", cfg.Files.List)
	files.Get("/usage", cfg.Files.Usage)
	files.Get("/raw/*", cfg.Files.Raw)
	files.Post("/upload", cfg.Files.Upload)
	files.Get("/:id/download", cfg.Files.Download)
	files.Delete("/:id", cfg.Files.Delete)

	admin := app.Group("/admin", cfg.Session.Handle, auth.RequireAdmin())
	admin.Get("/users", cfg.Users.List)
	admin.Post("/users", cfg.Users.Create)
	admin.Get("/users/:id", cfg.Users.Get)
	admin.Put("/users/:id", cfg.Users.Update)
	admin.Delete("/users/:id", cfg.Users.Delete)
}
