package services

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"match-board-system/models"
	"match-board-system/store"
)

type NotificationService struct {
	Store store.Store
}

func NewNotificationService(st store.Store) *NotificationService {
	return &NotificationService{Store: st}
}

// Emit is fire-and-forget: a failed notification is logged and never
// rolls back the domain mutation that triggered it.
func (s *NotificationService) Emit(playerID, notifType, message string, matchID *string) {
	n := &models.Notification{
		ID:       uuid.NewString(),
		PlayerID: playerID,
		Type:     notifType,
		Message:  message,
		MatchID:  matchID,
	}
	if err := s.Store.CreateNotification(n); err != nil {
		log.Printf("⚠️ [NOTIFY] failed to create %s notification for player %s: %v", notifType, playerID, err)
	}
}

// GetMyNotifications lists the caller's notifications, newest first.
// ?unread=true filters to unread only.
func (s *NotificationService) GetMyNotifications(c *fiber.Ctx) error {
	player, err := s.currentPlayer(c)
	if err != nil {
		return respondErr(c, err)
	}
	unreadOnly := c.Query("unread") == "true"
	notes, err := s.Store.ListNotifications(player.ID, unreadOnly)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch notifications"})
	}
	return c.JSON(notes)
}

func (s *NotificationService) GetUnreadCount(c *fiber.Ctx) error {
	player, err := s.currentPlayer(c)
	if err != nil {
		return respondErr(c, err)
	}
	n, err := s.Store.CountUnread(player.ID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to count notifications"})
	}
	return c.JSON(fiber.Map{"unread": n})
}

func (s *NotificationService) MarkNotificationRead(c *fiber.Ctx) error {
	player, err := s.currentPlayer(c)
	if err != nil {
		return respondErr(c, err)
	}
	if err := s.Store.MarkRead(c.Params("id"), player.ID, time.Now()); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"message": "notification marked read"})
}

func (s *NotificationService) MarkAllNotificationsRead(c *fiber.Ctx) error {
	player, err := s.currentPlayer(c)
	if err != nil {
		return respondErr(c, err)
	}
	if err := s.Store.MarkAllRead(player.ID, time.Now()); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to mark notifications read"})
	}
	return c.JSON(fiber.Map{"message": "all notifications marked read"})
}

func (s *NotificationService) currentPlayer(c *fiber.Ctx) (*models.Player, error) {
	return playerFromContext(c, s.Store)
}
