// Package pgstore is the relational store.Store implementation on GORM
// over Postgres. Atomicity comes from database transactions; the
// (submitter, target, match) and (match, player) uniqueness guarantees
// come from unique indexes, not application checks.
package pgstore

import (
	"errors"

	"gorm.io/gorm"

	"match-board-system/models"
	"match-board-system/store"
)

type PgStore struct {
	db *gorm.DB
}

func New(db *gorm.DB) *PgStore {
	return &PgStore{db: db}
}

// Migrate creates/updates the schema. Requires gorm.Config.TranslateError
// so unique-index violations surface as gorm.ErrDuplicatedKey.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Player{},
		&models.Match{},
		&models.MatchSubscription{},
		&models.AttendanceRecord{},
		&models.Transmission{},
		&models.Notification{},
	)
}

// Atomic runs fn inside a database transaction.
func (s *PgStore) Atomic(fn func(store.Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&PgStore{db: tx})
	})
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return store.ErrDuplicate
	default:
		return err
	}
}

var _ store.Store = (*PgStore)(nil)
