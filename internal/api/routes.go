package api

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/jeovahfialho/b3-darf/internal/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(app *fiber.App, handler *Handler, cfg *config.Config) {
	// Global middlewares
	app.Use(RequestID())
	app.Use(ErrorHandler())

	// Health checks (sem rate limiting)
	app.Get("/health", handler.HealthCheck)
	app.Get("/ready", handler.ReadinessCheck)

	if cfg.MetricsEnabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 - com rate limiting e métricas
	v1 := app.Group("/api/v1")
	v1.Use(RateLimiter(cfg.RateLimit))
	v1.Use(PrometheusMiddleware())

	operations := v1.Group("/operations")
	operations.Post("/", handler.CreateOperation)
	operations.Get("/", handler.ListOperations)
	operations.Delete("/:id", handler.DeleteOperation)

	portfolio := v1.Group("/portfolio")
	portfolio.Get("/summary", handler.GetPortfolioSummary)
	portfolio.Get("/positions", handler.GetPositions)
	portfolio.Get("/positions/:asset_code", handler.GetPosition)

	darf := v1.Group("/darf")
	darf.Get("/calculate/:year/:month", handler.CalculateDarf)
	darf.Get("/:year", handler.CalculateAnnualDarf)

	v1.Get("/assets/types", handler.GetAssetTypes)

	admin := v1.Group("/admin")
	admin.Use(BasicAuth(cfg.AdminUser, cfg.AdminPassword))
	admin.Delete("/cache/:pattern", handler.InvalidateCache)
	admin.Get("/stats", handler.GetSystemStats)
	admin.Post("/import", handler.ImportOperations)
}
