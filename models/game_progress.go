package models

import (
	"time"

	"gorm.io/gorm"
)

// GameProgress tracks gamified play statistics per student (denormalized for
// dashboard reads). One row per external user id; mutated only by the
// progress service, once per submitted result.
//
// Invariants maintained by the service:
//   - LongestStreak >= CurrentStreak
//   - Level = ExperiencePoints/100 + 1
//   - AverageScore = TotalScore/TotalGamesPlayed when TotalGamesPlayed > 0
type GameProgress struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // links to auth service

	TotalGamesPlayed int64   `json:"total_games_played" gorm:"default:0"`
	TotalScore       int64   `json:"total_score" gorm:"default:0"`
	AverageScore     float64 `json:"average_score" gorm:"default:0"`

	CurrentStreak int64 `json:"current_streak" gorm:"default:0"`
	LongestStreak int64 `json:"longest_streak" gorm:"default:0"`
	GamesWon      int64 `json:"games_won" gorm:"default:0"`
	PerfectScores int64 `json:"perfect_scores" gorm:"default:0"`

	TotalRewardsEarned float64 `json:"total_rewards_earned" gorm:"default:0"`
	ExperiencePoints   int64   `json:"experience_points" gorm:"default:0"`
	Level              int     `json:"level" gorm:"default:1"`

	LastPlayedAt *time.Time `json:"last_played_at,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
