package models

import (
	"time"
)

// Participant is the current-state record for one program member.
// user_email is the natural key — every upload matches against it, and the
// latest uploaded row overwrites all fields except ID.
type Participant struct {
	ID               string `gorm:"primaryKey;type:uuid" json:"id"`
	UserName         string `gorm:"index;not null" json:"user_name"`
	UserEmail        string `gorm:"uniqueIndex;not null" json:"user_email"`
	ProfileURL       string `gorm:"type:text" json:"profile_url"`
	ProfileStatus    string `json:"profile_status"`
	RedemptionStatus string `json:"redemption_status"`
	AllCompleted     string `json:"all_completed"`

	SkillBadgesCount int    `gorm:"default:0" json:"skill_badges_count"`
	SkillBadgeNames  string `gorm:"type:text" json:"skill_badge_names"` // "|"-joined
	ArcadeGamesCount int    `gorm:"default:0" json:"arcade_games_count"`
	ArcadeGameNames  string `gorm:"type:text" json:"arcade_game_names"` // "|"-joined

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
