package services

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"match-board-system/models"
	"match-board-system/store"
	"match-board-system/utils"
)

// PlayerService exposes the player directory: listings, search, ranks,
// and self-service profile edits. Reputation fields on the returned
// players are read-only here; only the engines write them.
type PlayerService struct {
	Store store.Store
}

func NewPlayerService(st store.Store) *PlayerService {
	return &PlayerService{Store: st}
}

var displayNameCaser = cases.Title(language.Und, cases.NoLower)

// normalizeDisplayName trims and title-cases a submitted display name.
// Already-capitalized words are left alone so names like "McGee" survive.
func normalizeDisplayName(name string) string {
	return displayNameCaser.String(strings.Join(strings.Fields(name), " "))
}

// --- handlers ---

// GetAllPlayers returns the paged directory. Supports ?sort=reputation|praise|shame|name,
// ?page and ?size.
func (s *PlayerService) GetAllPlayers(c *fiber.Ctx) error {
	page, size := pagination(c)
	sort := models.PlayerSort(c.Query("sort", string(models.SortByReputation)))
	switch sort {
	case models.SortByReputation, models.SortByPraise, models.SortByShame, models.SortByName:
	default:
		return c.Status(400).JSON(fiber.Map{"error": "unknown sort: " + string(sort)})
	}

	players, total, err := s.Store.ListPlayersPaged(page, size, sort)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch players"})
	}
	return c.JSON(fiber.Map{
		"players": players,
		"total":   total,
		"page":    page,
		"size":    size,
	})
}

// SearchPlayers matches display name or nickname, accent-insensitively,
// so "Jose" finds "José".
func (s *PlayerService) SearchPlayers(c *fiber.Ctx) error {
	term := strings.TrimSpace(c.Query("q"))
	if term == "" {
		return c.Status(400).JSON(fiber.Map{"error": "q is required"})
	}
	page, size := pagination(c)
	players, total, err := s.Store.SearchPlayers(models.Fold(term), page, size)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to search players"})
	}
	return c.JSON(fiber.Map{
		"players": players,
		"total":   total,
		"page":    page,
		"size":    size,
	})
}

// GetPlayerByID returns one player together with their prestige/shame
// ranks among players that have a non-zero count on the metric.
func (s *PlayerService) GetPlayerByID(c *fiber.Ctx) error {
	player, err := s.Store.GetPlayer(c.Params("id"), false)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "player not found"})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch player"})
	}
	rank, err := s.Store.PlayerRank(player.ID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch player rank"})
	}
	return c.JSON(fiber.Map{
		"player": player,
		"rank":   rank,
	})
}

// GetMe returns the caller's own directory record.
func (s *PlayerService) GetMe(c *fiber.Ctx) error {
	player, err := playerFromContext(c, s.Store)
	if err != nil {
		return respondErr(c, err)
	}
	rank, err := s.Store.PlayerRank(player.ID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch player rank"})
	}
	return c.JSON(fiber.Map{
		"player": player,
		"rank":   rank,
	})
}

// UpdateMyProfile lets the caller change display name and nickname.
// Counts and VIP status are not editable here.
func (s *PlayerService) UpdateMyProfile(c *fiber.Ctx) error {
	type Req struct {
		DisplayName *string `json:"display_name"`
		Nickname    *string `json:"nickname"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	player, err := playerFromContext(c, s.Store)
	if err != nil {
		return respondErr(c, err)
	}

	fields := map[string]interface{}{}
	if req.DisplayName != nil {
		name := normalizeDisplayName(*req.DisplayName)
		if name == "" {
			return c.Status(400).JSON(fiber.Map{"error": "display_name cannot be blank"})
		}
		fields["display_name"] = name
	}
	if req.Nickname != nil {
		fields["nickname"] = strings.TrimSpace(*req.Nickname)
	}
	if len(fields) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "nothing to update"})
	}

	if err := s.Store.UpdateProfile(player.ID, fields); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update profile"})
	}
	updated, err := s.Store.GetPlayer(player.ID, false)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch player"})
	}
	return c.JSON(updated)
}

// UploadMyAvatar accepts a multipart "avatar" file, pushes it to R2 and
// stores the public URL on the profile.
func (s *PlayerService) UploadMyAvatar(c *fiber.Ctx) error {
	avatarFile, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "avatar is required"})
	}
	if avatarFile.Size > 5*1024*1024 { // 5MB
		return c.Status(400).JSON(fiber.Map{"error": "file too large (max 5MB)"})
	}
	player, err := playerFromContext(c, s.Store)
	if err != nil {
		return respondErr(c, err)
	}

	ext := filepath.Ext(avatarFile.Filename)
	if ext == "" {
		ext = ".png"
	}
	key := "avatars/" + uuid.NewString() + ext
	avatarURL, err := utils.UploadFileToR2(avatarFile, key)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to upload avatar to R2"})
	}

	if err := s.Store.UpdateProfile(player.ID, map[string]interface{}{"avatar_url": avatarURL}); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update profile"})
	}
	return c.JSON(fiber.Map{"avatar_url": avatarURL})
}

// SetVipStatus is the admin override for the VIP flag, normally kept in
// sync by the membership worker.
func (s *PlayerService) SetVipStatus(c *fiber.Ctx) error {
	type Req struct {
		IsVip bool `json:"is_vip"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	id := c.Params("id")
	if _, err := s.Store.GetPlayer(id, false); errors.Is(err, store.ErrNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "player not found"})
	} else if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch player"})
	}
	if err := s.Store.UpdateProfile(id, map[string]interface{}{"is_vip": req.IsVip}); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update player"})
	}
	return c.JSON(fiber.Map{"message": "vip status updated", "is_vip": req.IsVip})
}
