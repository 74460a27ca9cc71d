// handlers/dashboard_routes.go
package handlers

import (
	"studyjam-tracker/services"

	"github.com/gofiber/fiber/v2"
)

func SetupDashboardRoutes(app *fiber.App, statsService *services.StatsService, timelineService *services.TimelineService) {
	// 🔓 Public dashboard routes
	app.Get("/participants", statsService.ListParticipants)
	app.Get("/participants/:id", timelineService.GetParticipant)
	app.Post("/participants/:id/verify", timelineService.VerifyAndGetTimeline)
	app.Get("/stats/summary", statsService.Summary)
}
