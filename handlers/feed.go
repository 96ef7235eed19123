// handlers/feed.go
package handlers

import (
	"match-board-system/middleware"
	"match-board-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupFeedRoutes(app *fiber.App, transmissionService *services.TransmissionService) {
	// 🔓 Public feed — a player's board page is readable by anyone behind the gateway
	app.Get("/players/:id/feed", transmissionService.GetPlayerFeed)

	// 🔐 Submitting and retracting require user context
	secured := app.Group("/", middleware.UserContextMiddleware())
	secured.Post("/transmissions", transmissionService.SubmitTransmission)
	secured.Get("/transmissions/mine", transmissionService.GetMyTransmissions)
	secured.Get("/transmissions/eligible-matches", transmissionService.GetEligibleMatches)
	secured.Post("/transmissions/:id/retract", transmissionService.RetractTransmission)

	// 🔒 Admin moderation
	admin := secured.Group("/admin", middleware.RequireAdmin())
	admin.Post("/transmissions/:id/retract", transmissionService.AdminRetractTransmission)
	admin.Patch("/transmissions/:id", transmissionService.AdminEditTransmission)
	admin.Delete("/transmissions/:id", transmissionService.AdminRemoveTransmission)
}
