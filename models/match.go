package models

import "time"

// Match lifecycle states. State is never stored as a column — it is
// derived from StartAt/FinalizedAt so it cannot drift.
const (
	MatchScheduled = "scheduled" // start_at in the future, not finalized
	MatchLocked    = "locked"    // start_at passed, not finalized
	MatchFinalized = "finalized" // finalized_at set, terminal
)

// Match is a scheduled event players subscribe to and are later marked
// present/absent for.
type Match struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string     `gorm:"not null" json:"name"`
	Slug        string     `gorm:"index" json:"slug"`
	Location    string     `json:"location"`
	StartAt     time.Time  `gorm:"not null;index" json:"start_at"`
	FinalizedAt *time.Time `gorm:"index" json:"finalized_at,omitempty"`
	FinalizedBy *string    `json:"finalized_by,omitempty"`

	// Stamped by the lock-notice sweep so it never notifies twice.
	LockNotifiedAt *time.Time `json:"lock_notified_at,omitempty"`

	Timestamps

	// Relationships
	Subscriptions []MatchSubscription `json:"subscriptions,omitempty" gorm:"foreignKey:MatchID"`

	// Calculated fields (not stored in DB)
	State            string `json:"state" gorm:"-"`
	SubscribersCount int64  `json:"subscribers_count,omitempty" gorm:"-"`
}

// StateAt derives the lifecycle state at the given instant.
func (m *Match) StateAt(now time.Time) string {
	if m.FinalizedAt != nil {
		return MatchFinalized
	}
	if !m.StartAt.After(now) {
		return MatchLocked
	}
	return MatchScheduled
}

// MatchSubscription records a player's sign-up, with the fee breakdown
// frozen at subscribe time.
type MatchSubscription struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	MatchID  string `gorm:"not null;index;uniqueIndex:idx_match_player_sub" json:"match_id"`
	PlayerID string `gorm:"not null;index;uniqueIndex:idx_match_player_sub" json:"player_id"`

	RentEquipment bool  `gorm:"default:false" json:"rent_equipment"`
	AmountCents   int64 `gorm:"default:0" json:"amount_cents"`
	DiscountCents int64 `gorm:"default:0" json:"discount_cents"`

	Timestamps
}

// AttendanceRecord means the player was explicitly marked. A subscribed
// player with no record is treated as absent at finalize time.
type AttendanceRecord struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	MatchID  string `gorm:"not null;index;uniqueIndex:idx_match_player_att" json:"match_id"`
	PlayerID string `gorm:"not null;index;uniqueIndex:idx_match_player_att" json:"player_id"`

	Attended bool      `gorm:"not null" json:"attended"`
	MarkedAt time.Time `gorm:"not null" json:"marked_at"`
	MarkedBy string    `json:"marked_by"`
}
