package handler

import (
	"github.com/gofiber/fiber/v2"

	"eegweb/internal/http/view"
	"eegweb/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Static artifacts and /metrics are mounted by the caller.
func RegisterRoutes(app *fiber.App, svc service.AnalysisService, views *view.Views, defaultTimescale float64, deps ...Pinger) {
	app.Get("/", Index(views))
	app.Post("/upload", Upload(svc, views, defaultTimescale))
	app.Post("/update", Update(svc, views, defaultTimescale))

	// Checks that both stores are reachable
	app.Get("/health", HealthCheck(deps...))

	// Simple liveness probe
	app.Get("/healthz", LivenessProbe())
}
