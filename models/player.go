package models

import (
	"strings"

	"github.com/gosimple/unidecode"
)

// Fold lowercases and strips accents so "José" and "jose" compare equal.
func Fold(s string) string {
	return strings.ToLower(unidecode.Unidecode(s))
}

// PlayerSearchKey is the folded haystack the search endpoint matches
// against. Both stores maintain it on every name write, so a folded
// needle behaves identically against either backend.
func PlayerSearchKey(displayName, nickname string) string {
	return Fold(strings.TrimSpace(displayName + " " + nickname))
}

// Player is the directory record for a community member.
// PraiseCount/ReportCount are cumulative; Reputation is always the
// calculator output for exactly those two counts; the three fields are
// only ever written together.
type Player struct {
	ID             string  `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string  `gorm:"uniqueIndex;not null" json:"external_user_id"` // membership service UUID
	DisplayName    string  `gorm:"not null" json:"display_name"`
	Nickname       string  `gorm:"index" json:"nickname"`
	SearchKey      string  `gorm:"index" json:"-"` // PlayerSearchKey(DisplayName, Nickname)
	AvatarURL      *string `json:"avatar_url,omitempty"`
	IsVip          bool    `gorm:"default:false" json:"is_vip"`

	PraiseCount int `gorm:"not null;default:0" json:"praise_count"`
	ReportCount int `gorm:"not null;default:0" json:"report_count"`
	Reputation  int `gorm:"not null;default:6" json:"reputation"`

	Timestamps
}

// PlayerRank holds 1-based positions among players with a non-zero
// count on the respective metric. Nil means the player has zero.
type PlayerRank struct {
	PrestigeRank *int `json:"prestige_rank"`
	ShameRank    *int `json:"shame_rank"`
}

// PlayerSort selects the ordering for paged directory listings.
type PlayerSort string

const (
	SortByReputation PlayerSort = "reputation"
	SortByPraise     PlayerSort = "praise"
	SortByShame      PlayerSort = "shame"
	SortByName       PlayerSort = "name"
)
