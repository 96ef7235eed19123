// handlers/match.go
package handlers

import (
	"match-board-system/middleware"
	"match-board-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupMatchRoutes(app *fiber.App, matchService *services.MatchService) {
	// 🔓 Public routes — *no user context*, but **still require Gateway auth**
	app.Get("/matches", matchService.GetAllMatches)
	app.Get("/matches/:id", matchService.GetMatchByID)
	app.Get("/matches/:id/subscribers", matchService.GetMatchSubscribers)

	// 🔐 Secured routes — require user context (userID, roles)
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/matches/:id/quote", matchService.QuoteSubscription)
	secured.Post("/matches/:id/subscribe", matchService.SubscribeToMatch)
	secured.Delete("/matches/:id/subscribe", matchService.UnsubscribeFromMatch)

	// 🔒 Admin-only routes
	admin := secured.Group("/admin", middleware.RequireAdmin())
	admin.Post("/matches", matchService.CreateMatch)
	admin.Put("/matches/:id", matchService.UpdateMatch)
	admin.Delete("/matches/:id", matchService.DeleteMatch)
	admin.Put("/matches/:id/attendance/:player_id", matchService.MarkAttendance)
	admin.Post("/matches/:id/finalize", matchService.FinalizeMatch)
}
