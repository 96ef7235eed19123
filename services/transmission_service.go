package services

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"match-board-system/models"
	"match-board-system/store"
)

// TransmissionWindow bounds how long after finalization attendees may
// submit praise/reports. Measured from finalize time, so the window
// only ever shrinks and never reopens.
const TransmissionWindow = 3 * 24 * time.Hour

// TransmissionService is the eligibility gate and the feed. It is the
// sole authority on who may submit about whom — any client-side list
// of valid targets is advisory.
type TransmissionService struct {
	Store    store.Store
	Notifier *NotificationService
}

func NewTransmissionService(st store.Store, notifier *NotificationService) *TransmissionService {
	return &TransmissionService{Store: st, Notifier: notifier}
}

// --- engine ---

// canSubmit runs the deny rules in order against the given store view.
func canSubmit(tx store.Store, submitterID, targetID, matchID string, now time.Time) error {
	if submitterID == targetID {
		return errEligibility("cannot praise or report yourself")
	}
	if matchID == "" {
		return errEligibility("a match is required")
	}
	m, err := tx.GetMatch(matchID, false)
	if errors.Is(err, store.ErrNotFound) {
		return errNotFound("match not found")
	}
	if err != nil {
		return err
	}
	if m.FinalizedAt == nil {
		return errEligibility("match is not finalized")
	}
	rec, err := tx.GetAttendance(matchID, submitterID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !rec.Attended) {
		return errEligibility("submitter did not attend this match")
	}
	if err != nil {
		return err
	}
	if now.Sub(*m.FinalizedAt) > TransmissionWindow {
		return errEligibility("submission window for this match has closed")
	}
	exists, err := tx.TripleExists(submitterID, targetID, matchID)
	if err != nil {
		return err
	}
	if exists {
		return errEligibility("already submitted about this player for this match")
	}
	return nil
}

// submit appends the entry and bumps the target's aggregates as one
// unit with the duplicate check. The store's unique index on the
// (submitter, target, match) triple backstops concurrent submits that
// both pass the check.
func (s *TransmissionService) submit(submitterID, targetID, matchID, entryType, content string, now time.Time) (*models.Transmission, error) {
	if entryType != models.TransmissionPraise && entryType != models.TransmissionReport {
		return nil, errValidation("type must be praise or report")
	}
	var entry *models.Transmission
	err := s.Store.Atomic(func(tx store.Store) error {
		if err := canSubmit(tx, submitterID, targetID, matchID, now); err != nil {
			return err
		}
		target, err := tx.GetPlayer(targetID, true)
		if errors.Is(err, store.ErrNotFound) {
			return errNotFound("target player not found")
		}
		if err != nil {
			return err
		}
		entry = &models.Transmission{
			ID:          uuid.NewString(),
			Type:        entryType,
			TargetID:    targetID,
			SubmitterID: &submitterID,
			MatchID:     &matchID,
			Content:     strings.TrimSpace(content),
		}
		if err := tx.AppendTransmission(entry); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return errEligibility("already submitted about this player for this match")
			}
			return err
		}
		praise, report := target.PraiseCount, target.ReportCount
		if entryType == models.TransmissionPraise {
			praise++
		} else {
			report++
		}
		return tx.UpdateAggregates(targetID, praise, report, Reputation(praise, report))
	})
	if err != nil {
		return nil, err
	}

	notifType := models.NotifyPraiseReceived
	msg := "You received a praise"
	if entryType == models.TransmissionReport {
		notifType = models.NotifyReportReceived
		msg = "You received a report"
	}
	s.Notifier.Emit(targetID, notifType, msg, &matchID)
	return entry, nil
}

// eligibleMatches lists the matches the player may currently submit
// about: attended, finalized, window still open.
func (s *TransmissionService) eligibleMatches(playerID string, now time.Time) ([]models.Match, error) {
	subs, err := s.Store.ListSubscriptionsByPlayer(playerID)
	if err != nil {
		return nil, err
	}
	out := []models.Match{}
	for _, sub := range subs {
		m, err := s.Store.GetMatch(sub.MatchID, false)
		if err != nil {
			continue
		}
		if m.FinalizedAt == nil || now.Sub(*m.FinalizedAt) > TransmissionWindow {
			continue
		}
		rec, err := s.Store.GetAttendance(m.ID, playerID)
		if err != nil || !rec.Attended {
			continue
		}
		m.State = models.MatchFinalized
		out = append(out, *m)
	}
	return out, nil
}

// reversalFor is how much a feed entry contributed to its target's
// counts: player entries count one, system absence entries carry the
// finalize penalty they document.
func reversalFor(entry *models.Transmission) int {
	if entry.SubmitterID == nil {
		return AbsencePenalty
	}
	return 1
}

// retract lets the submitter withdraw their own report, reversing its
// effect on the target's counts.
func (s *TransmissionService) retract(entryID, submitterID string) (*models.Transmission, error) {
	var entry *models.Transmission
	err := s.Store.Atomic(func(tx store.Store) error {
		var err error
		entry, err = tx.GetTransmission(entryID)
		if errors.Is(err, store.ErrNotFound) {
			return errNotFound("entry not found")
		}
		if err != nil {
			return err
		}
		if entry.SubmitterID == nil || *entry.SubmitterID != submitterID {
			return errAuthorization("only the submitter can retract this entry")
		}
		if entry.Type != models.TransmissionReport {
			return errValidation("only reports can be retracted")
		}
		if entry.IsRetracted {
			return errState("entry is already retracted")
		}
		if err := tx.SetRetracted(entryID); err != nil {
			return err
		}
		entry.IsRetracted = true
		return reverseAggregates(tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func reverseAggregates(tx store.Store, entry *models.Transmission) error {
	target, err := tx.GetPlayer(entry.TargetID, true)
	if err != nil {
		return err
	}
	praise, report := target.PraiseCount, target.ReportCount
	if entry.Type == models.TransmissionPraise {
		praise -= reversalFor(entry)
		if praise < 0 {
			praise = 0
		}
	} else {
		report -= reversalFor(entry)
		if report < 0 {
			report = 0
		}
	}
	return tx.UpdateAggregates(target.ID, praise, report, Reputation(praise, report))
}

func (s *TransmissionService) adminRetract(entryID string) (*models.Transmission, error) {
	var entry *models.Transmission
	err := s.Store.Atomic(func(tx store.Store) error {
		var err error
		entry, err = tx.GetTransmission(entryID)
		if errors.Is(err, store.ErrNotFound) {
			return errNotFound("entry not found")
		}
		if err != nil {
			return err
		}
		if entry.IsRetracted {
			return errState("entry is already retracted")
		}
		if err := tx.SetRetracted(entryID); err != nil {
			return err
		}
		entry.IsRetracted = true
		return reverseAggregates(tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *TransmissionService) adminEdit(entryID, content string) (*models.Transmission, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errValidation("content is required")
	}
	var entry *models.Transmission
	err := s.Store.Atomic(func(tx store.Store) error {
		var err error
		entry, err = tx.GetTransmission(entryID)
		if errors.Is(err, store.ErrNotFound) {
			return errNotFound("entry not found")
		}
		if err != nil {
			return err
		}
		if err := tx.SetContent(entryID, content); err != nil {
			return err
		}
		entry.Content = content
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// adminRemove deletes the entry outright. A not-yet-retracted entry
// still counts against its target, so removal reverses the aggregates
// first — the surviving log and the counts must keep agreeing.
func (s *TransmissionService) adminRemove(entryID string) error {
	return s.Store.Atomic(func(tx store.Store) error {
		entry, err := tx.GetTransmission(entryID)
		if errors.Is(err, store.ErrNotFound) {
			return errNotFound("entry not found")
		}
		if err != nil {
			return err
		}
		if !entry.IsRetracted {
			if err := reverseAggregates(tx, entry); err != nil {
				return err
			}
		}
		return tx.RemoveTransmission(entryID)
	})
}

// --- handlers ---

func (s *TransmissionService) SubmitTransmission(c *fiber.Ctx) error {
	type Req struct {
		TargetID string `json:"target_id"`
		MatchID  string `json:"match_id"`
		Type     string `json:"type"`
		Content  string `json:"content"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	submitter, err := playerFromContext(c, s.Store)
	if err != nil {
		return respondErr(c, err)
	}
	entry, err := s.submit(submitter.ID, req.TargetID, req.MatchID, req.Type, req.Content, time.Now())
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(201).JSON(entry)
}

func (s *TransmissionService) GetEligibleMatches(c *fiber.Ctx) error {
	player, err := playerFromContext(c, s.Store)
	if err != nil {
		return respondErr(c, err)
	}
	matches, err := s.eligibleMatches(player.ID, time.Now())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch eligible matches"})
	}
	return c.JSON(matches)
}

// GetPlayerFeed returns the paged transmissions about a player.
func (s *TransmissionService) GetPlayerFeed(c *fiber.Ctx) error {
	page, size := pagination(c)
	entries, total, err := s.Store.ListByTarget(c.Params("id"), page, size)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch feed"})
	}
	return c.JSON(fiber.Map{
		"entries": entries,
		"total":   total,
		"page":    page,
		"size":    size,
	})
}

func (s *TransmissionService) GetMyTransmissions(c *fiber.Ctx) error {
	player, err := playerFromContext(c, s.Store)
	if err != nil {
		return respondErr(c, err)
	}
	entries, err := s.Store.ListBySubmitter(player.ID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch transmissions"})
	}
	return c.JSON(entries)
}

func (s *TransmissionService) RetractTransmission(c *fiber.Ctx) error {
	player, err := playerFromContext(c, s.Store)
	if err != nil {
		return respondErr(c, err)
	}
	entry, err := s.retract(c.Params("id"), player.ID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(entry)
}

func (s *TransmissionService) AdminRetractTransmission(c *fiber.Ctx) error {
	entry, err := s.adminRetract(c.Params("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(entry)
}

func (s *TransmissionService) AdminEditTransmission(c *fiber.Ctx) error {
	type Req struct {
		Content string `json:"content"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	entry, err := s.adminEdit(c.Params("id"), req.Content)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(entry)
}

func (s *TransmissionService) AdminRemoveTransmission(c *fiber.Ctx) error {
	if err := s.adminRemove(c.Params("id")); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"message": "entry removed"})
}

func pagination(c *fiber.Ctx) (page, size int) {
	page = c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	size = c.QueryInt("size", 20)
	if size < 1 || size > 100 {
		size = 20
	}
	return page, size
}
