// Package store defines the persistence contracts the engine runs on.
// Two implementations exist: pgstore (GORM over Postgres) and memstore
// (mutex-owned maps, used by tests and database-less local runs). The
// engine only ever talks to these interfaces.
package store

import (
	"errors"
	"time"

	"match-board-system/models"
)

// Sentinel errors shared by both implementations. Services translate
// these into caller-facing domain errors.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// PlayerDirectory owns Player rows. UpdateAggregates is the single
// write path for praise/report/reputation — the three fields are always
// persisted together.
type PlayerDirectory interface {
	// GetPlayer fetches a player; forUpdate locks the row for the
	// duration of the surrounding Atomic on stores that support it.
	// Required before any read-recompute-write of the aggregates.
	GetPlayer(id string, forUpdate bool) (*models.Player, error)
	GetPlayerByExternalID(externalID string) (*models.Player, error)
	ListPlayers() ([]models.Player, error)
	ListPlayersPaged(page, size int, sort models.PlayerSort) ([]models.Player, int64, error)
	SearchPlayers(term string, page, size int) ([]models.Player, int64, error)
	UpsertPlayer(p *models.Player) error
	UpdateProfile(id string, fields map[string]interface{}) error
	UpdateAggregates(id string, praiseCount, reportCount, reputation int) error
	PlayerRank(id string) (*models.PlayerRank, error)
}

// TransmissionLog is the append-mostly praise/report feed.
type TransmissionLog interface {
	AppendTransmission(t *models.Transmission) error
	GetTransmission(id string) (*models.Transmission, error)
	ListByTarget(targetID string, page, size int) ([]models.Transmission, int64, error)
	ListBySubmitter(submitterID string) ([]models.Transmission, error)
	SetRetracted(id string) error
	SetContent(id, content string) error
	RemoveTransmission(id string) error
	TripleExists(submitterID, targetID, matchID string) (bool, error)
}

// MatchStore owns Match and MatchSubscription rows.
type MatchStore interface {
	CreateMatch(m *models.Match) error
	// GetMatch fetches a match; forUpdate locks the row for the
	// duration of the surrounding Atomic on stores that support it.
	GetMatch(id string, forUpdate bool) (*models.Match, error)
	ListMatches() ([]models.Match, error)
	ListMatchesLockedUnnotified(now time.Time) ([]models.Match, error)
	UpdateMatch(id string, fields map[string]interface{}) error
	DeleteMatchCascade(id string) error
	StampFinalized(id, adminID string, at time.Time) error
	StampLockNotified(id string, at time.Time) error

	CreateSubscription(s *models.MatchSubscription) error
	GetSubscription(matchID, playerID string) (*models.MatchSubscription, error)
	DeleteSubscription(matchID, playerID string) error
	ListSubscriptions(matchID string) ([]models.MatchSubscription, error)
	ListSubscriptionsByPlayer(playerID string) ([]models.MatchSubscription, error)
	CountSubscriptions(matchID string) (int64, error)
}

// AttendanceStore owns AttendanceRecord rows.
type AttendanceStore interface {
	UpsertAttendance(rec *models.AttendanceRecord) error
	GetAttendance(matchID, playerID string) (*models.AttendanceRecord, error)
	ListAttendance(matchID string) ([]models.AttendanceRecord, error)
}

// NotificationStore owns Notification rows.
type NotificationStore interface {
	CreateNotification(n *models.Notification) error
	ListNotifications(playerID string, unreadOnly bool) ([]models.Notification, error)
	CountUnread(playerID string) (int64, error)
	MarkRead(id, playerID string, at time.Time) error
	MarkAllRead(playerID string, at time.Time) error
}

// Store aggregates all collaborators plus the transaction boundary.
// Atomic runs fn against a transactional view; every write inside
// either commits as a unit or leaves no trace.
type Store interface {
	PlayerDirectory
	TransmissionLog
	MatchStore
	AttendanceStore
	NotificationStore

	Atomic(fn func(Store) error) error
}
