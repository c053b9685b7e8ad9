package handler

import (
	"time"

	"license-key-server/internal/logger"
	"license-key-server/internal/metrics"
	"license-key-server/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

type AppConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  string
	// MetricsPath is left unmounted when empty.
	MetricsPath string
}

// NewApp builds the Fiber application with the full middleware chain and routes.
func NewApp(h *Handler, cfg AppConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "license-key-server",
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorHandler: ErrorHandler(h.log),
	})

	app.Use(requestid.New(requestid.Config{ContextKey: logger.RequestIDLocal}))
	app.Use(logger.Middleware(h.log))
	app.Use(recover.New())
	app.Use(metrics.Middleware())

	origins := cfg.CORSOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{AllowOrigins: origins}))

	if cfg.MetricsPath != "" {
		app.Get(cfg.MetricsPath, metrics.Handler())
	}
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	h.Register(app)
	return app
}

// Register mounts every route on r.
func (h *Handler) Register(r fiber.Router) {
	authRequired := middleware.Auth(h.auth)
	adminOnly := middleware.AdminOnly()

	r.Post("/check_license", h.HandleCheckLicense)

	api := r.Group("/api/v1")
	api.Post("/check_license", h.HandleCheckLicense)

	auth := api.Group("/auth")
	auth.Post("/validate-token", h.HandleValidateToken)

	users := api.Group("/users")
	users.Post("/login", h.HandleUserLogin)
	users.Post("/register", authRequired, adminOnly, h.HandleUserRegister)
	users.Get("/info", authRequired, h.HandleUserInfo)
	users.Get("/login-logs", authRequired, h.HandleGetLoginLogs)

	api.Post("/active_system", authRequired, adminOnly, h.HandleRegisterSystem)
	api.Get("/active_system", authRequired, h.HandleListSystems)
	api.Post("/generate", authRequired, adminOnly, h.HandleLicenseGenerate)
	api.Get("/logs", authRequired, adminOnly, h.HandleGetLogs)

	licenses := api.Group("/licenses", authRequired)
	licenses.Get("/", h.HandleGetAllLicenses)
	licenses.Get("/statistics", h.HandleLicenseStatistics)
	licenses.Get("/:key", h.HandleGetLicense)
	licenses.Get("/:key/usage", h.HandleLicenseUsage)
	licenses.Delete("/:key", adminOnly, h.HandleLicenseDelete)
}
