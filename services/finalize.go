package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"match-board-system/models"
	"match-board-system/store"
)

// AbsencePenalty is the report-count increment for an unexcused
// absence: five times a single praise's weight, so skipping out is
// reputationally expensive.
const AbsencePenalty = 5

// FinalizeSummary reports what a finalize run changed.
type FinalizeSummary struct {
	MatchID     string   `json:"match_id"`
	Attended    int      `json:"attended"`
	Absent      int      `json:"absent"`
	AbsenteeIDs []string `json:"absentee_ids"`
}

// finalize converts attendance into reputation changes and closes the
// match. Everything — aggregate updates, absence transmissions, the
// finalized stamp — happens in one Atomic block, so a crash mid-way
// leaves no partially-penalized state behind. A subscribed player with
// no attendance record counts as absent. Notifications go out after
// commit; their failure is logged, never propagated.
func (s *MatchService) finalize(matchID, adminID string, now time.Time) (*FinalizeSummary, error) {
	summary := &FinalizeSummary{MatchID: matchID}
	var matchName string

	err := s.Store.Atomic(func(tx store.Store) error {
		m, err := tx.GetMatch(matchID, true)
		if errors.Is(err, store.ErrNotFound) {
			return errNotFound("match not found")
		}
		if err != nil {
			return err
		}
		if m.FinalizedAt != nil {
			return errState("match is already finalized")
		}
		if m.StartAt.After(now) {
			return errState("match has not started yet")
		}
		matchName = m.Name

		subs, err := tx.ListSubscriptions(matchID)
		if err != nil {
			return err
		}
		records, err := tx.ListAttendance(matchID)
		if err != nil {
			return err
		}
		attended := make(map[string]bool, len(records))
		for _, rec := range records {
			attended[rec.PlayerID] = rec.Attended
		}

		for _, sub := range subs {
			p, err := tx.GetPlayer(sub.PlayerID, true)
			if err != nil {
				return fmt.Errorf("finalize: loading player %s: %w", sub.PlayerID, err)
			}
			praise, report := p.PraiseCount, p.ReportCount
			if attended[sub.PlayerID] {
				praise++
				summary.Attended++
			} else {
				report += AbsencePenalty
				summary.Absent++
				summary.AbsenteeIDs = append(summary.AbsenteeIDs, p.ID)
			}
			if err := tx.UpdateAggregates(p.ID, praise, report, Reputation(praise, report)); err != nil {
				return fmt.Errorf("finalize: updating player %s: %w", p.ID, err)
			}
			if !attended[sub.PlayerID] {
				entry := &models.Transmission{
					ID:       uuid.NewString(),
					Type:     models.TransmissionReport,
					TargetID: p.ID,
					MatchID:  &matchID,
					Content:  fmt.Sprintf("Unexcused absence from %s", m.Name),
				}
				if err := tx.AppendTransmission(entry); err != nil {
					return fmt.Errorf("finalize: absence entry for player %s: %w", p.ID, err)
				}
			}
		}

		// Stamped last, still inside the transaction: a match is only
		// ever finalized together with all its consequences.
		return tx.StampFinalized(matchID, adminID, now)
	})
	if err != nil {
		return nil, err
	}

	for _, pid := range summary.AbsenteeIDs {
		s.Notifier.Emit(pid, models.NotifyAbsenceReported,
			fmt.Sprintf("You were reported absent from %s", matchName), &matchID)
	}
	log.Printf("✅ [FINALIZE] match %s finalized by %s (%d attended, %d absent)",
		matchID, adminID, summary.Attended, summary.Absent)
	return summary, nil
}

// FinalizeMatch handles POST /matches/:id/finalize (admin).
func (s *MatchService) FinalizeMatch(c *fiber.Ctx) error {
	adminID, _ := c.Locals("user_id").(string)
	summary, err := s.finalize(c.Params("id"), adminID, time.Now())
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(summary)
}
