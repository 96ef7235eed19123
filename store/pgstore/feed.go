package pgstore

import (
	"time"

	"match-board-system/models"
	"match-board-system/store"
)

func (s *PgStore) AppendTransmission(t *models.Transmission) error {
	return translate(s.db.Create(t).Error)
}

func (s *PgStore) GetTransmission(id string) (*models.Transmission, error) {
	var t models.Transmission
	if err := s.db.First(&t, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (s *PgStore) ListByTarget(targetID string, page, size int) ([]models.Transmission, int64, error) {
	q := s.db.Model(&models.Transmission{}).Where("target_id = ?", targetID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var entries []models.Transmission
	err := q.Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&entries).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return entries, total, nil
}

func (s *PgStore) ListBySubmitter(submitterID string) ([]models.Transmission, error) {
	var entries []models.Transmission
	err := s.db.Where("submitter_id = ?", submitterID).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, translate(err)
	}
	return entries, nil
}

func (s *PgStore) SetRetracted(id string) error {
	res := s.db.Model(&models.Transmission{}).Where("id = ?", id).Update("is_retracted", true)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PgStore) SetContent(id, content string) error {
	res := s.db.Model(&models.Transmission{}).Where("id = ?", id).Update("content", content)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PgStore) RemoveTransmission(id string) error {
	res := s.db.Delete(&models.Transmission{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PgStore) TripleExists(submitterID, targetID, matchID string) (bool, error) {
	var n int64
	err := s.db.Model(&models.Transmission{}).
		Where("submitter_id = ? AND target_id = ? AND match_id = ?", submitterID, targetID, matchID).
		Count(&n).Error
	if err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}

func (s *PgStore) CreateNotification(n *models.Notification) error {
	return translate(s.db.Create(n).Error)
}

func (s *PgStore) ListNotifications(playerID string, unreadOnly bool) ([]models.Notification, error) {
	q := s.db.Where("player_id = ?", playerID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	var notes []models.Notification
	if err := q.Order("created_at DESC").Find(&notes).Error; err != nil {
		return nil, translate(err)
	}
	return notes, nil
}

func (s *PgStore) CountUnread(playerID string) (int64, error) {
	var n int64
	err := s.db.Model(&models.Notification{}).
		Where("player_id = ? AND read_at IS NULL", playerID).
		Count(&n).Error
	return n, translate(err)
}

func (s *PgStore) MarkRead(id, playerID string, at time.Time) error {
	res := s.db.Model(&models.Notification{}).
		Where("id = ? AND player_id = ?", id, playerID).
		Update("read_at", at)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PgStore) MarkAllRead(playerID string, at time.Time) error {
	return translate(s.db.Model(&models.Notification{}).
		Where("player_id = ? AND read_at IS NULL", playerID).
		Update("read_at", at).Error)
}
