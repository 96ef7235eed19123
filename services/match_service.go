package services

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"match-board-system/models"
	"match-board-system/store"
)

// MatchService owns the match lifecycle: Scheduled → Locked (time) →
// Finalized (admin, irreversible). It is the only writer of Match and
// MatchSubscription records.
type MatchService struct {
	Store    store.Store
	Notifier *NotificationService
}

func NewMatchService(st store.Store, notifier *NotificationService) *MatchService {
	return &MatchService{Store: st, Notifier: notifier}
}

// --- engine ---

func (s *MatchService) createMatch(name, location string, startAt, now time.Time) (*models.Match, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errValidation("name is required")
	}
	if !startAt.After(now) {
		return nil, errValidation("start_at must be in the future")
	}
	m := &models.Match{
		ID:       uuid.NewString(),
		Name:     name,
		Slug:     slug.Make(name),
		Location: location,
		StartAt:  startAt,
	}
	if err := s.Store.CreateMatch(m); err != nil {
		return nil, err
	}
	m.State = m.StateAt(now)
	return m, nil
}

func (s *MatchService) updateMatch(id, name, location string, startAt, now time.Time) (*models.Match, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errValidation("name is required")
	}
	var updated *models.Match
	err := s.Store.Atomic(func(tx store.Store) error {
		m, err := tx.GetMatch(id, true)
		if errors.Is(err, store.ErrNotFound) {
			return errNotFound("match not found")
		}
		if err != nil {
			return err
		}
		if m.FinalizedAt != nil {
			return errState("match is already finalized")
		}
		if err := tx.UpdateMatch(id, map[string]interface{}{
			"name":     name,
			"slug":     slug.Make(name),
			"location": location,
			"start_at": startAt,
		}); err != nil {
			return err
		}
		updated, err = tx.GetMatch(id, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	updated.State = updated.StateAt(now)
	return updated, nil
}

func (s *MatchService) deleteMatch(id string) error {
	return s.Store.Atomic(func(tx store.Store) error {
		m, err := tx.GetMatch(id, true)
		if errors.Is(err, store.ErrNotFound) {
			return errNotFound("match not found")
		}
		if err != nil {
			return err
		}
		if m.FinalizedAt != nil {
			return errState("match is already finalized")
		}
		return tx.DeleteMatchCascade(id)
	})
}

// subscribe signs a player up while the match is still Scheduled. The
// fee breakdown is computed from the player's VIP flag and frozen on
// the subscription row.
func (s *MatchService) subscribe(matchID, playerID string, rentEquipment bool, now time.Time) (*models.MatchSubscription, PriceBreakdown, error) {
	var sub *models.MatchSubscription
	var breakdown PriceBreakdown
	err := s.Store.Atomic(func(tx store.Store) error {
		m, err := tx.GetMatch(matchID, true)
		if errors.Is(err, store.ErrNotFound) {
			return errNotFound("match not found")
		}
		if err != nil {
			return err
		}
		switch m.StateAt(now) {
		case models.MatchFinalized:
			return errState("match is already finalized")
		case models.MatchLocked:
			return errState("match is locked, subscriptions are closed")
		}
		p, err := tx.GetPlayer(playerID, false)
		if errors.Is(err, store.ErrNotFound) {
			return errNotFound("player not found")
		}
		if err != nil {
			return err
		}
		breakdown = ComputePriceBreakdown(p.IsVip, rentEquipment)
		sub = &models.MatchSubscription{
			ID:            uuid.NewString(),
			MatchID:       matchID,
			PlayerID:      playerID,
			RentEquipment: rentEquipment,
			AmountCents:   breakdown.TotalCents,
			DiscountCents: breakdown.DiscountCents,
		}
		if err := tx.CreateSubscription(sub); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return errState("player is already subscribed to this match")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, PriceBreakdown{}, err
	}
	return sub, breakdown, nil
}

func (s *MatchService) unsubscribe(matchID, playerID string, now time.Time) error {
	return s.Store.Atomic(func(tx store.Store) error {
		m, err := tx.GetMatch(matchID, true)
		if errors.Is(err, store.ErrNotFound) {
			return errNotFound("match not found")
		}
		if err != nil {
			return err
		}
		switch m.StateAt(now) {
		case models.MatchFinalized:
			return errState("match is already finalized")
		case models.MatchLocked:
			return errState("match is locked, subscriptions are closed")
		}
		if err := tx.DeleteSubscription(matchID, playerID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return errState("player is not subscribed to this match")
			}
			return err
		}
		return nil
	})
}

// --- handlers ---

func (s *MatchService) CreateMatch(c *fiber.Ctx) error {
	type Req struct {
		Name     string `json:"name"`
		Location string `json:"location"`
		StartAt  string `json:"start_at"` // RFC3339
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	startAt, err := time.Parse(time.RFC3339, req.StartAt)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid start_at (use RFC3339)"})
	}
	m, err := s.createMatch(req.Name, req.Location, startAt, time.Now())
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(201).JSON(m)
}

func (s *MatchService) GetAllMatches(c *fiber.Ctx) error {
	matches, err := s.Store.ListMatches()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch matches"})
	}
	now := time.Now()
	for i := range matches {
		matches[i].State = matches[i].StateAt(now)
		n, _ := s.Store.CountSubscriptions(matches[i].ID)
		matches[i].SubscribersCount = n
	}
	return c.JSON(matches)
}

func (s *MatchService) GetMatchByID(c *fiber.Ctx) error {
	m, err := s.Store.GetMatch(c.Params("id"), false)
	if err != nil {
		return respondErr(c, err)
	}
	now := time.Now()
	m.State = m.StateAt(now)
	subs, err := s.Store.ListSubscriptions(m.ID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch subscriptions"})
	}
	m.Subscriptions = subs
	m.SubscribersCount = int64(len(subs))
	attendance, err := s.Store.ListAttendance(m.ID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch attendance"})
	}
	return c.JSON(fiber.Map{
		"match":      m,
		"attendance": attendance,
	})
}

func (s *MatchService) UpdateMatch(c *fiber.Ctx) error {
	type Req struct {
		Name     string `json:"name"`
		Location string `json:"location"`
		StartAt  string `json:"start_at"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	startAt, err := time.Parse(time.RFC3339, req.StartAt)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid start_at (use RFC3339)"})
	}
	m, err := s.updateMatch(c.Params("id"), req.Name, req.Location, startAt, time.Now())
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(m)
}

func (s *MatchService) DeleteMatch(c *fiber.Ctx) error {
	if err := s.deleteMatch(c.Params("id")); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"message": "match deleted"})
}

// QuoteSubscription previews the caller's fee for a match sign-up.
func (s *MatchService) QuoteSubscription(c *fiber.Ctx) error {
	player, err := playerFromContext(c, s.Store)
	if err != nil {
		return respondErr(c, err)
	}
	rent := c.Query("rent_equipment") == "true"
	return c.JSON(ComputePriceBreakdown(player.IsVip, rent))
}

func (s *MatchService) SubscribeToMatch(c *fiber.Ctx) error {
	type Req struct {
		RentEquipment bool `json:"rent_equipment"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	player, err := playerFromContext(c, s.Store)
	if err != nil {
		return respondErr(c, err)
	}
	sub, breakdown, err := s.subscribe(c.Params("id"), player.ID, req.RentEquipment, time.Now())
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"message":      "subscription created",
		"subscription": sub,
		"price":        breakdown,
	})
}

func (s *MatchService) UnsubscribeFromMatch(c *fiber.Ctx) error {
	player, err := playerFromContext(c, s.Store)
	if err != nil {
		return respondErr(c, err)
	}
	if err := s.unsubscribe(c.Params("id"), player.ID, time.Now()); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"message": "subscription removed"})
}

func (s *MatchService) GetMatchSubscribers(c *fiber.Ctx) error {
	subs, err := s.Store.ListSubscriptions(c.Params("id"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch subscribers"})
	}
	return c.JSON(subs)
}
