// handlers/player.go
package handlers

import (
	"match-board-system/middleware"
	"match-board-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupPlayerRoutes(app *fiber.App, playerService *services.PlayerService, notificationService *services.NotificationService) {
	// 🔓 Public directory
	app.Get("/players", playerService.GetAllPlayers)
	app.Get("/players/search", playerService.SearchPlayers)
	app.Get("/players/:id", playerService.GetPlayerByID)

	// 🔐 Self-service
	secured := app.Group("/", middleware.UserContextMiddleware())
	secured.Get("/players/me/profile", playerService.GetMe)
	secured.Patch("/players/me/profile", playerService.UpdateMyProfile)
	secured.Post("/players/me/avatar", playerService.UploadMyAvatar)

	secured.Get("/notifications", notificationService.GetMyNotifications)
	secured.Get("/notifications/unread-count", notificationService.GetUnreadCount)
	secured.Patch("/notifications/:id/read", notificationService.MarkNotificationRead)
	secured.Post("/notifications/read-all", notificationService.MarkAllNotificationsRead)

	// 🔒 Admin-only
	admin := secured.Group("/admin", middleware.RequireAdmin())
	admin.Patch("/players/:id/vip", playerService.SetVipStatus)
}
