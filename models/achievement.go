package models

import (
	"time"

	"github.com/gosimple/slug"
)

// AchievementType enumerates one-time milestones.
type AchievementType string

const (
	AchievementFirstWin     AchievementType = "FIRST_WIN"
	AchievementStreak3      AchievementType = "STREAK_3"
	AchievementStreak5      AchievementType = "STREAK_5"
	AchievementStreak10     AchievementType = "STREAK_10"
	AchievementPerfectScore AchievementType = "PERFECT_SCORE"
)

// StudentAchievement is an unlocked milestone. At most one row per
// (user, type) pair — the evaluator enforces idempotent unlock.
type StudentAchievement struct {
	ID             string          `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string          `gorm:"index:idx_user_achievement,unique;not null" json:"external_user_id"`
	Type           AchievementType `gorm:"index:idx_user_achievement,unique;type:varchar(32);not null" json:"type"`
	Title          string          `gorm:"not null" json:"title"`
	Description    string          `json:"description"`
	IconSlug       string          `json:"icon_slug"` // asset lookup key for clients
	RewardAmount   float64         `json:"reward_amount"`
	UnlockedAt     time.Time       `json:"unlocked_at" gorm:"autoCreateTime"`
}

// AchievementDef is a static catalog entry. RewardAmount is informational —
// it is not pushed into the points ledger automatically.
type AchievementDef struct {
	Type         AchievementType
	Title        string
	Description  string
	RewardAmount float64
}

// AchievementCatalog drives the evaluator. Streak entries are exact-match
// triggers: the streak must land precisely on the value in the triggering
// submission.
var AchievementCatalog = []AchievementDef{
	{
		Type:         AchievementFirstWin,
		Title:        "First Victory",
		Description:  "Won your first learning game",
		RewardAmount: 1.00,
	},
	{
		Type:         AchievementStreak3,
		Title:        "On a Roll",
		Description:  "Won 3 games in a row",
		RewardAmount: 2.00,
	},
	{
		Type:         AchievementStreak5,
		Title:        "Unstoppable",
		Description:  "Won 5 games in a row",
		RewardAmount: 3.50,
	},
	{
		Type:         AchievementStreak10,
		Title:        "Legendary Streak",
		Description:  "Won 10 games in a row",
		RewardAmount: 7.50,
	},
	{
		Type:         AchievementPerfectScore,
		Title:        "Perfectionist",
		Description:  "Scored 90% or above in a game",
		RewardAmount: 2.50,
	},
}

// IconSlugFor derives the client asset key from the catalog title,
// e.g. "On a Roll" -> "on-a-roll".
func IconSlugFor(def AchievementDef) string {
	return slug.Make(def.Title)
}
