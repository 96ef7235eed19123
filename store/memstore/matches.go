package memstore

import (
	"sort"
	"time"

	"match-board-system/models"
	"match-board-system/store"
)

func (d *data) createMatch(m *models.Match) error {
	if _, ok := d.matches[m.ID]; ok {
		return store.ErrDuplicate
	}
	cp := *m
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	d.matches[cp.ID] = &cp
	return nil
}

// getMatch ignores forUpdate: the store mutex already serializes every
// Atomic block, so there is no finer-grained lock to take.
func (d *data) getMatch(id string, _ bool) (*models.Match, error) {
	m, ok := d.matches[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (d *data) listMatches() ([]models.Match, error) {
	out := make([]models.Match, 0, len(d.matches))
	for _, m := range d.matches {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.After(out[j].StartAt) })
	return out, nil
}

func (d *data) listMatchesLockedUnnotified(now time.Time) ([]models.Match, error) {
	var out []models.Match
	for _, m := range d.matches {
		if m.FinalizedAt == nil && !m.StartAt.After(now) && m.LockNotifiedAt == nil {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (d *data) updateMatch(id string, fields map[string]interface{}) error {
	m, ok := d.matches[id]
	if !ok {
		return store.ErrNotFound
	}
	cp := *m
	if v, ok := fields["name"].(string); ok {
		cp.Name = v
	}
	if v, ok := fields["slug"].(string); ok {
		cp.Slug = v
	}
	if v, ok := fields["location"].(string); ok {
		cp.Location = v
	}
	if v, ok := fields["start_at"].(time.Time); ok {
		cp.StartAt = v
		// A moved start time reopens the lock notice.
		cp.LockNotifiedAt = nil
	}
	d.matches[id] = &cp
	return nil
}

func (d *data) deleteMatchCascade(id string) error {
	if _, ok := d.matches[id]; !ok {
		return store.ErrNotFound
	}
	delete(d.matches, id)
	for k, s := range d.subscriptions {
		if s.MatchID == id {
			delete(d.subscriptions, k)
		}
	}
	for k, a := range d.attendance {
		if a.MatchID == id {
			delete(d.attendance, k)
		}
	}
	return nil
}

func (d *data) stampFinalized(id, adminID string, at time.Time) error {
	m, ok := d.matches[id]
	if !ok {
		return store.ErrNotFound
	}
	cp := *m
	cp.FinalizedAt = &at
	cp.FinalizedBy = &adminID
	d.matches[id] = &cp
	return nil
}

func (d *data) stampLockNotified(id string, at time.Time) error {
	m, ok := d.matches[id]
	if !ok {
		return store.ErrNotFound
	}
	cp := *m
	cp.LockNotifiedAt = &at
	d.matches[id] = &cp
	return nil
}

func (d *data) createSubscription(s *models.MatchSubscription) error {
	k := pairKey(s.MatchID, s.PlayerID)
	if _, ok := d.subscriptions[k]; ok {
		return store.ErrDuplicate
	}
	cp := *s
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	d.subscriptions[k] = &cp
	return nil
}

func (d *data) getSubscription(matchID, playerID string) (*models.MatchSubscription, error) {
	s, ok := d.subscriptions[pairKey(matchID, playerID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (d *data) deleteSubscription(matchID, playerID string) error {
	k := pairKey(matchID, playerID)
	if _, ok := d.subscriptions[k]; !ok {
		return store.ErrNotFound
	}
	delete(d.subscriptions, k)
	return nil
}

func (d *data) listSubscriptions(matchID string) ([]models.MatchSubscription, error) {
	var out []models.MatchSubscription
	for _, s := range d.subscriptions {
		if s.MatchID == matchID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (d *data) listSubscriptionsByPlayer(playerID string) ([]models.MatchSubscription, error) {
	var out []models.MatchSubscription
	for _, s := range d.subscriptions {
		if s.PlayerID == playerID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (d *data) countSubscriptions(matchID string) (int64, error) {
	var n int64
	for _, s := range d.subscriptions {
		if s.MatchID == matchID {
			n++
		}
	}
	return n, nil
}

func (d *data) upsertAttendance(rec *models.AttendanceRecord) error {
	cp := *rec
	// Re-marking keeps the original record identity, as the relational
	// upsert does.
	if prev, ok := d.attendance[pairKey(rec.MatchID, rec.PlayerID)]; ok {
		cp.ID = prev.ID
	}
	d.attendance[pairKey(rec.MatchID, rec.PlayerID)] = &cp
	return nil
}

func (d *data) getAttendance(matchID, playerID string) (*models.AttendanceRecord, error) {
	a, ok := d.attendance[pairKey(matchID, playerID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (d *data) listAttendance(matchID string) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	for _, a := range d.attendance {
		if a.MatchID == matchID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MarkedAt.Before(out[j].MarkedAt) })
	return out, nil
}

// Locked wrappers.

func (s *MemStore) CreateMatch(m *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.createMatch(m)
}

func (s *MemStore) GetMatch(id string, forUpdate bool) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.getMatch(id, forUpdate)
}

func (s *MemStore) ListMatches() ([]models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.listMatches()
}

func (s *MemStore) ListMatchesLockedUnnotified(now time.Time) ([]models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.listMatchesLockedUnnotified(now)
}

func (s *MemStore) UpdateMatch(id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.updateMatch(id, fields)
}

func (s *MemStore) DeleteMatchCascade(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.deleteMatchCascade(id)
}

func (s *MemStore) StampFinalized(id, adminID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.stampFinalized(id, adminID, at)
}

func (s *MemStore) StampLockNotified(id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.stampLockNotified(id, at)
}

func (s *MemStore) CreateSubscription(sub *models.MatchSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.createSubscription(sub)
}

func (s *MemStore) GetSubscription(matchID, playerID string) (*models.MatchSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.getSubscription(matchID, playerID)
}

func (s *MemStore) DeleteSubscription(matchID, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.deleteSubscription(matchID, playerID)
}

func (s *MemStore) ListSubscriptions(matchID string) ([]models.MatchSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.listSubscriptions(matchID)
}

func (s *MemStore) ListSubscriptionsByPlayer(playerID string) ([]models.MatchSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.listSubscriptionsByPlayer(playerID)
}

func (s *MemStore) CountSubscriptions(matchID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.countSubscriptions(matchID)
}

func (s *MemStore) UpsertAttendance(rec *models.AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.upsertAttendance(rec)
}

func (s *MemStore) GetAttendance(matchID, playerID string) (*models.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.getAttendance(matchID, playerID)
}

func (s *MemStore) ListAttendance(matchID string) ([]models.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.listAttendance(matchID)
}

// Transaction-view wrappers.

func (t *txView) CreateMatch(m *models.Match) error { return t.d.createMatch(m) }

func (t *txView) GetMatch(id string, forUpdate bool) (*models.Match, error) {
	return t.d.getMatch(id, forUpdate)
}

func (t *txView) ListMatches() ([]models.Match, error) { return t.d.listMatches() }

func (t *txView) ListMatchesLockedUnnotified(now time.Time) ([]models.Match, error) {
	return t.d.listMatchesLockedUnnotified(now)
}

func (t *txView) UpdateMatch(id string, fields map[string]interface{}) error {
	return t.d.updateMatch(id, fields)
}

func (t *txView) DeleteMatchCascade(id string) error { return t.d.deleteMatchCascade(id) }

func (t *txView) StampFinalized(id, adminID string, at time.Time) error {
	return t.d.stampFinalized(id, adminID, at)
}

func (t *txView) StampLockNotified(id string, at time.Time) error {
	return t.d.stampLockNotified(id, at)
}

func (t *txView) CreateSubscription(s *models.MatchSubscription) error {
	return t.d.createSubscription(s)
}

func (t *txView) GetSubscription(matchID, playerID string) (*models.MatchSubscription, error) {
	return t.d.getSubscription(matchID, playerID)
}

func (t *txView) DeleteSubscription(matchID, playerID string) error {
	return t.d.deleteSubscription(matchID, playerID)
}

func (t *txView) ListSubscriptions(matchID string) ([]models.MatchSubscription, error) {
	return t.d.listSubscriptions(matchID)
}

func (t *txView) ListSubscriptionsByPlayer(playerID string) ([]models.MatchSubscription, error) {
	return t.d.listSubscriptionsByPlayer(playerID)
}

func (t *txView) CountSubscriptions(matchID string) (int64, error) {
	return t.d.countSubscriptions(matchID)
}

func (t *txView) UpsertAttendance(rec *models.AttendanceRecord) error {
	return t.d.upsertAttendance(rec)
}

func (t *txView) GetAttendance(matchID, playerID string) (*models.AttendanceRecord, error) {
	return t.d.getAttendance(matchID, playerID)
}

func (t *txView) ListAttendance(matchID string) ([]models.AttendanceRecord, error) {
	return t.d.listAttendance(matchID)
}
