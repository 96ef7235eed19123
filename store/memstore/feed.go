package memstore

import (
	"sort"
	"time"

	"match-board-system/models"
	"match-board-system/store"
)

func (d *data) appendTransmission(t *models.Transmission) error {
	// Enforce the (submitter, target, match) uniqueness the relational
	// store gets from its index. System entries (nil submitter) are
	// exempt, matching partial-index semantics on NULL.
	if t.SubmitterID != nil && t.MatchID != nil {
		for _, e := range d.transmissions {
			if e.SubmitterID != nil && e.MatchID != nil &&
				*e.SubmitterID == *t.SubmitterID && e.TargetID == t.TargetID && *e.MatchID == *t.MatchID {
				return store.ErrDuplicate
			}
		}
	}
	cp := *t
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	d.transmissions[cp.ID] = &cp
	return nil
}

func (d *data) getTransmission(id string) (*models.Transmission, error) {
	t, ok := d.transmissions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (d *data) listByTarget(targetID string, page, size int) ([]models.Transmission, int64, error) {
	var all []models.Transmission
	for _, t := range d.transmissions {
		if t.TargetID == targetID {
			all = append(all, *t)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	start := (page - 1) * size
	if start >= len(all) {
		return []models.Transmission{}, total, nil
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (d *data) listBySubmitter(submitterID string) ([]models.Transmission, error) {
	var out []models.Transmission
	for _, t := range d.transmissions {
		if t.SubmitterID != nil && *t.SubmitterID == submitterID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (d *data) setRetracted(id string) error {
	t, ok := d.transmissions[id]
	if !ok {
		return store.ErrNotFound
	}
	cp := *t
	cp.IsRetracted = true
	d.transmissions[id] = &cp
	return nil
}

func (d *data) setContent(id, content string) error {
	t, ok := d.transmissions[id]
	if !ok {
		return store.ErrNotFound
	}
	cp := *t
	cp.Content = content
	d.transmissions[id] = &cp
	return nil
}

func (d *data) removeTransmission(id string) error {
	if _, ok := d.transmissions[id]; !ok {
		return store.ErrNotFound
	}
	delete(d.transmissions, id)
	return nil
}

func (d *data) tripleExists(submitterID, targetID, matchID string) (bool, error) {
	for _, t := range d.transmissions {
		if t.SubmitterID != nil && t.MatchID != nil &&
			*t.SubmitterID == submitterID && t.TargetID == targetID && *t.MatchID == matchID {
			return true, nil
		}
	}
	return false, nil
}

func (d *data) createNotification(n *models.Notification) error {
	cp := *n
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	d.notifications[cp.ID] = &cp
	return nil
}

func (d *data) listNotifications(playerID string, unreadOnly bool) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range d.notifications {
		if n.PlayerID != playerID {
			continue
		}
		if unreadOnly && n.ReadAt != nil {
			continue
		}
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (d *data) countUnread(playerID string) (int64, error) {
	var n int64
	for _, note := range d.notifications {
		if note.PlayerID == playerID && note.ReadAt == nil {
			n++
		}
	}
	return n, nil
}

func (d *data) markRead(id, playerID string, at time.Time) error {
	n, ok := d.notifications[id]
	if !ok || n.PlayerID != playerID {
		return store.ErrNotFound
	}
	cp := *n
	cp.ReadAt = &at
	d.notifications[id] = &cp
	return nil
}

func (d *data) markAllRead(playerID string, at time.Time) error {
	for id, n := range d.notifications {
		if n.PlayerID == playerID && n.ReadAt == nil {
			cp := *n
			cp.ReadAt = &at
			d.notifications[id] = &cp
		}
	}
	return nil
}

// Locked wrappers.

func (s *MemStore) AppendTransmission(t *models.Transmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.appendTransmission(t)
}

func (s *MemStore) GetTransmission(id string) (*models.Transmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.getTransmission(id)
}

func (s *MemStore) ListByTarget(targetID string, page, size int) ([]models.Transmission, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.listByTarget(targetID, page, size)
}

func (s *MemStore) ListBySubmitter(submitterID string) ([]models.Transmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.listBySubmitter(submitterID)
}

func (s *MemStore) SetRetracted(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.setRetracted(id)
}

func (s *MemStore) SetContent(id, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.setContent(id, content)
}

func (s *MemStore) RemoveTransmission(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.removeTransmission(id)
}

func (s *MemStore) TripleExists(submitterID, targetID, matchID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.tripleExists(submitterID, targetID, matchID)
}

func (s *MemStore) CreateNotification(n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.createNotification(n)
}

func (s *MemStore) ListNotifications(playerID string, unreadOnly bool) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.listNotifications(playerID, unreadOnly)
}

func (s *MemStore) CountUnread(playerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.countUnread(playerID)
}

func (s *MemStore) MarkRead(id, playerID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.markRead(id, playerID, at)
}

func (s *MemStore) MarkAllRead(playerID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.markAllRead(playerID, at)
}

// Transaction-view wrappers.

func (t *txView) AppendTransmission(tr *models.Transmission) error {
	return t.d.appendTransmission(tr)
}

func (t *txView) GetTransmission(id string) (*models.Transmission, error) {
	return t.d.getTransmission(id)
}

func (t *txView) ListByTarget(targetID string, page, size int) ([]models.Transmission, int64, error) {
	return t.d.listByTarget(targetID, page, size)
}

func (t *txView) ListBySubmitter(submitterID string) ([]models.Transmission, error) {
	return t.d.listBySubmitter(submitterID)
}

func (t *txView) SetRetracted(id string) error { return t.d.setRetracted(id) }

func (t *txView) SetContent(id, content string) error { return t.d.setContent(id, content) }

func (t *txView) RemoveTransmission(id string) error { return t.d.removeTransmission(id) }

func (t *txView) TripleExists(submitterID, targetID, matchID string) (bool, error) {
	return t.d.tripleExists(submitterID, targetID, matchID)
}

func (t *txView) CreateNotification(n *models.Notification) error {
	return t.d.createNotification(n)
}

func (t *txView) ListNotifications(playerID string, unreadOnly bool) ([]models.Notification, error) {
	return t.d.listNotifications(playerID, unreadOnly)
}

func (t *txView) CountUnread(playerID string) (int64, error) { return t.d.countUnread(playerID) }

func (t *txView) MarkRead(id, playerID string, at time.Time) error {
	return t.d.markRead(id, playerID, at)
}

func (t *txView) MarkAllRead(playerID string, at time.Time) error {
	return t.d.markAllRead(playerID, at)
}
