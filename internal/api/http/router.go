package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/mfl-intake/internal/api/http/handlers"
	"github.com/spec-kit/mfl-intake/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health            *handlers.HealthHandler
	Sessions          *handlers.SessionsHandler
	Intake            *handlers.IntakeHandler
	Tickets           *handlers.TicketsHandler
	Monitor           *handlers.MonitorHandler
	SessionMiddleware *auth.SessionMiddleware
	// Gatherer backs /metrics; the route is skipped when nil.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	intake := app.Group("/intake")
	intake.Post("/sessions", cfg.Sessions.Open)

	protected := intake.Group("", cfg.SessionMiddleware.Handle)
	protected.Get("/session", cfg.Sessions.Current)
	protected.Delete("/session", cfg.Sessions.Close)
	protected.Get("/form", cfg.Intake.Form)

	protected.Post("/tickets", cfg.Intake.Submit)
	protected.Post("/duplicates/confirm", cfg.Intake.Confirm)
	protected.Post("/duplicates/cancel", cfg.Intake.Cancel)

	protected.Get("/tickets", cfg.Tickets.List)
	protected.Patch("/tickets/view", cfg.Tickets.UpdateView)
	protected.Post("/tickets/view/navigate", cfg.Tickets.Navigate)

	protected.Get("/monitor", cfg.Monitor.Current)
	protected.Post("/monitor/refresh", cfg.Monitor.Refresh)
	protected.Delete("/monitor", cfg.Monitor.Stop)
}
