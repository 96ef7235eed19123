// Package memstore is the in-memory store.Store implementation. All
// state lives in maps owned by the MemStore struct and guarded by one
// mutex — nothing is package-level. Atomic runs against a snapshot and
// swaps it in only on success, so a failed function leaves no trace.
package memstore

import (
	"sync"

	"match-board-system/models"
	"match-board-system/store"
)

type data struct {
	players       map[string]*models.Player
	matches       map[string]*models.Match
	subscriptions map[string]*models.MatchSubscription // keyed matchID+"/"+playerID
	attendance    map[string]*models.AttendanceRecord  // keyed matchID+"/"+playerID
	transmissions map[string]*models.Transmission
	notifications map[string]*models.Notification
}

func newData() *data {
	return &data{
		players:       make(map[string]*models.Player),
		matches:       make(map[string]*models.Match),
		subscriptions: make(map[string]*models.MatchSubscription),
		attendance:    make(map[string]*models.AttendanceRecord),
		transmissions: make(map[string]*models.Transmission),
		notifications: make(map[string]*models.Notification),
	}
}

// clone copies the maps only. Writes always replace entries with fresh
// structs (never mutate in place), so sharing row pointers between the
// live data and a snapshot is safe.
func (d *data) clone() *data {
	c := newData()
	for k, v := range d.players {
		c.players[k] = v
	}
	for k, v := range d.matches {
		c.matches[k] = v
	}
	for k, v := range d.subscriptions {
		c.subscriptions[k] = v
	}
	for k, v := range d.attendance {
		c.attendance[k] = v
	}
	for k, v := range d.transmissions {
		c.transmissions[k] = v
	}
	for k, v := range d.notifications {
		c.notifications[k] = v
	}
	return c
}

func pairKey(matchID, playerID string) string { return matchID + "/" + playerID }

// MemStore implements store.Store.
type MemStore struct {
	mu sync.Mutex
	d  *data
}

func New() *MemStore {
	return &MemStore{d: newData()}
}

// Atomic runs fn against a snapshot view. The snapshot becomes the live
// state only if fn returns nil. The mutex is held throughout, which
// also gives concurrent callers the serialized view the engine expects.
func (s *MemStore) Atomic(fn func(store.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.d.clone()
	if err := fn(&txView{d: snap}); err != nil {
		return err
	}
	s.d = snap
	return nil
}

// txView is the unlocked view handed to Atomic callbacks. Nested Atomic
// just runs the function: it is already inside the outer snapshot.
type txView struct {
	d *data
}

func (t *txView) Atomic(fn func(store.Store) error) error { return fn(t) }

var (
	_ store.Store = (*MemStore)(nil)
	_ store.Store = (*txView)(nil)
)
