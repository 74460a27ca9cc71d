package models

import (
	"time"
)

// DailySnapshot freezes a participant's counts as of one report date.
// Append-only: rows are never mutated, only replaced on re-upload of the same
// (participant, date) pair via the composite unique index below.
type DailySnapshot struct {
	ID            string `gorm:"primaryKey;type:uuid" json:"id"`
	ParticipantID string `gorm:"type:uuid;not null;uniqueIndex:idx_participant_day" json:"participant_id"`
	SnapshotDate  string `gorm:"type:varchar(10);not null;uniqueIndex:idx_participant_day;index" json:"date"` // YYYY-MM-DD

	SkillBadgesCount int    `gorm:"default:0" json:"skill_badges_count"`
	ArcadeGamesCount int    `gorm:"default:0" json:"arcade_games_count"`
	SkillBadgeNames  string `gorm:"type:text" json:"skill_badge_names"`
	ArcadeGameNames  string `gorm:"type:text" json:"arcade_game_names"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
