package handlers

import (
	"gamewallet/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes bundles what SetupRoutes mounts.
type Routes struct {
	Ledger   *LedgerHandler
	Health   *HealthHandler
	Auth     *middleware.AuthMiddleware
	Gatherer prometheus.Gatherer
}

func SetupRoutes(app *fiber.App, r Routes) {
	app.Get("/health", r.Health.Health)

	gatherer := r.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := app.Group("/api/v1", r.Auth.Handler, middleware.ResolveTenant)
	api.Post("/transfers", r.Ledger.Transfer)
	api.Post("/rollbacks", r.Ledger.Rollback)
	api.Get("/entries/:key", r.Ledger.GetEntry)
	api.Get("/accounts/:id/entries", r.Ledger.AccountHistory)
}
