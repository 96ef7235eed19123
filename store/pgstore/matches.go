package pgstore

import (
	"time"

	"gorm.io/gorm/clause"

	"match-board-system/models"
	"match-board-system/store"
)

func (s *PgStore) CreateMatch(m *models.Match) error {
	return translate(s.db.Create(m).Error)
}

func (s *PgStore) GetMatch(id string, forUpdate bool) (*models.Match, error) {
	q := s.db
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var m models.Match
	if err := q.First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (s *PgStore) ListMatches() ([]models.Match, error) {
	var matches []models.Match
	if err := s.db.Order("start_at DESC").Find(&matches).Error; err != nil {
		return nil, translate(err)
	}
	return matches, nil
}

func (s *PgStore) ListMatchesLockedUnnotified(now time.Time) ([]models.Match, error) {
	var matches []models.Match
	err := s.db.
		Where("finalized_at IS NULL AND start_at <= ? AND lock_notified_at IS NULL", now).
		Find(&matches).Error
	if err != nil {
		return nil, translate(err)
	}
	return matches, nil
}

func (s *PgStore) UpdateMatch(id string, fields map[string]interface{}) error {
	if _, ok := fields["start_at"]; ok {
		// A moved start time reopens the lock notice.
		fields["lock_notified_at"] = nil
	}
	res := s.db.Model(&models.Match{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PgStore) DeleteMatchCascade(id string) error {
	// Dependents first to respect FK ordering.
	if err := s.db.Where("match_id = ?", id).Delete(&models.AttendanceRecord{}).Error; err != nil {
		return translate(err)
	}
	if err := s.db.Where("match_id = ?", id).Delete(&models.MatchSubscription{}).Error; err != nil {
		return translate(err)
	}
	res := s.db.Delete(&models.Match{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// StampFinalized only lands on a not-yet-finalized row; the guard makes
// a raced second finalize fail even without the row lock.
func (s *PgStore) StampFinalized(id, adminID string, at time.Time) error {
	res := s.db.Model(&models.Match{}).
		Where("id = ? AND finalized_at IS NULL", id).
		Updates(map[string]interface{}{
			"finalized_at": at,
			"finalized_by": adminID,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PgStore) StampLockNotified(id string, at time.Time) error {
	res := s.db.Model(&models.Match{}).Where("id = ?", id).Update("lock_notified_at", at)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PgStore) CreateSubscription(sub *models.MatchSubscription) error {
	return translate(s.db.Create(sub).Error)
}

func (s *PgStore) GetSubscription(matchID, playerID string) (*models.MatchSubscription, error) {
	var sub models.MatchSubscription
	err := s.db.First(&sub, "match_id = ? AND player_id = ?", matchID, playerID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

func (s *PgStore) DeleteSubscription(matchID, playerID string) error {
	res := s.db.Where("match_id = ? AND player_id = ?", matchID, playerID).
		Delete(&models.MatchSubscription{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PgStore) ListSubscriptions(matchID string) ([]models.MatchSubscription, error) {
	var subs []models.MatchSubscription
	err := s.db.Where("match_id = ?", matchID).Order("created_at ASC").Find(&subs).Error
	if err != nil {
		return nil, translate(err)
	}
	return subs, nil
}

func (s *PgStore) ListSubscriptionsByPlayer(playerID string) ([]models.MatchSubscription, error) {
	var subs []models.MatchSubscription
	err := s.db.Where("player_id = ?", playerID).Order("created_at ASC").Find(&subs).Error
	if err != nil {
		return nil, translate(err)
	}
	return subs, nil
}

func (s *PgStore) CountSubscriptions(matchID string) (int64, error) {
	var n int64
	err := s.db.Model(&models.MatchSubscription{}).Where("match_id = ?", matchID).Count(&n).Error
	return n, translate(err)
}

func (s *PgStore) UpsertAttendance(rec *models.AttendanceRecord) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "match_id"}, {Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"attended", "marked_at", "marked_by",
		}),
	}).Create(rec).Error
	return translate(err)
}

func (s *PgStore) GetAttendance(matchID, playerID string) (*models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	err := s.db.First(&rec, "match_id = ? AND player_id = ?", matchID, playerID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

func (s *PgStore) ListAttendance(matchID string) ([]models.AttendanceRecord, error) {
	var recs []models.AttendanceRecord
	err := s.db.Where("match_id = ?", matchID).Order("marked_at ASC").Find(&recs).Error
	if err != nil {
		return nil, translate(err)
	}
	return recs, nil
}
