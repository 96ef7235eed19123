package services

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"match-board-system/models"
	"match-board-system/store"
)

// markAttendance upserts the explicit presence/absence record for a
// subscribed player. Only allowed while the match is Locked: before
// lock nobody has shown up yet, after finalize the books are closed.
// Marking never advances match state.
func (s *MatchService) markAttendance(matchID, playerID string, attended bool, adminID string, now time.Time) (*models.AttendanceRecord, error) {
	var rec *models.AttendanceRecord
	err := s.Store.Atomic(func(tx store.Store) error {
		m, err := tx.GetMatch(matchID, true)
		if errors.Is(err, store.ErrNotFound) {
			return errNotFound("match not found")
		}
		if err != nil {
			return err
		}
		switch m.StateAt(now) {
		case models.MatchScheduled:
			return errState("match has not started yet")
		case models.MatchFinalized:
			return errState("match is already finalized")
		}
		if _, err := tx.GetSubscription(matchID, playerID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return errState("player is not subscribed to this match")
			}
			return err
		}
		rec = &models.AttendanceRecord{
			ID:       uuid.NewString(),
			MatchID:  matchID,
			PlayerID: playerID,
			Attended: attended,
			MarkedAt: now,
			MarkedBy: adminID,
		}
		// Re-marking keeps the original row.
		if prev, err := tx.GetAttendance(matchID, playerID); err == nil {
			rec.ID = prev.ID
		}
		return tx.UpsertAttendance(rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// MarkAttendance handles PUT /matches/:id/attendance/:player_id (admin).
func (s *MatchService) MarkAttendance(c *fiber.Ctx) error {
	type Req struct {
		Attended bool `json:"attended"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	adminID, _ := c.Locals("user_id").(string)
	rec, err := s.markAttendance(c.Params("id"), c.Params("player_id"), req.Attended, adminID, time.Now())
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(rec)
}
