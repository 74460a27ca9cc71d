// handlers/roster_routes.go
package handlers

import (
	"studyjam-tracker/middleware"
	"studyjam-tracker/services"

	"github.com/gofiber/fiber/v2"
)

func SetupRosterRoutes(app *fiber.App, rosterService *services.RosterService) {
	// 🔐 Operator routes — ingestion and deletion require auth context
	admin := app.Group("/s/admin", middleware.UserContextMiddleware())

	admin.Post("/uploads", rosterService.UploadRosters)
	admin.Get("/uploads", rosterService.ListUploads)
	admin.Delete("/uploads/:id", rosterService.DeleteUpload)
}
