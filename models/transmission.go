package models

// Transmission types.
const (
	TransmissionPraise = "praise"
	TransmissionReport = "report"
)

// Transmission is a praise or report feed entry about a player.
// SubmitterID is nil for system-generated absence reports. MatchID is
// nil only on legacy free-form entries; player-submitted entries always
// carry the match they refer to. The (submitter, target, match) unique
// index is what makes concurrent double-submits lose at the DB, not
// just at the application check.
type Transmission struct {
	ID          string  `gorm:"primaryKey;type:uuid" json:"id"`
	Type        string  `gorm:"not null;type:varchar(16);check:type IN ('praise','report')" json:"type"`
	TargetID    string  `gorm:"not null;index;uniqueIndex:idx_submitter_target_match" json:"target_id"`
	SubmitterID *string `gorm:"index;uniqueIndex:idx_submitter_target_match" json:"submitter_id,omitempty"`
	MatchID     *string `gorm:"index;uniqueIndex:idx_submitter_target_match" json:"match_id,omitempty"`
	Content     string  `gorm:"type:text" json:"content"`
	IsRetracted bool    `gorm:"default:false" json:"is_retracted"`

	Timestamps
}

func (Transmission) TableName() string { return "transmissions" }
