package models

import "time"

// Notification types emitted by the engine.
const (
	NotifyAbsenceReported = "absence_reported"
	NotifyPraiseReceived  = "praise_received"
	NotifyReportReceived  = "report_received"
	NotifyMatchLocked     = "match_locked"
)

// Notification is a per-player event row. Read state is mutated
// independently of the entity that caused it.
type Notification struct {
	ID       string     `gorm:"primaryKey;type:uuid" json:"id"`
	PlayerID string     `gorm:"not null;index" json:"player_id"`
	Type     string     `gorm:"not null;type:varchar(32)" json:"type"`
	Message  string     `gorm:"type:text" json:"message"`
	MatchID  *string    `gorm:"index" json:"match_id,omitempty"`
	ReadAt   *time.Time `json:"read_at,omitempty"`

	Timestamps
}
