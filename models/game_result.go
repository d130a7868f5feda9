package models

import "time"

const (
	DifficultyEasy   = "EASY"
	DifficultyMedium = "MEDIUM"
	DifficultyHard   = "HARD"
)

// GameResult records a single completed learning game. Immutable once written —
// the tracker only ever inserts these.
type GameResult struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string    `gorm:"index;not null" json:"external_user_id"`
	GameType       string    `gorm:"type:varchar(64);not null" json:"game_type"` // e.g., "quiz_rush", "flashcard_duel"
	Difficulty     string    `gorm:"type:varchar(16);not null;check:difficulty IN ('EASY','MEDIUM','HARD')" json:"difficulty"`
	Score          int64     `json:"score"`
	MaxScore       int64     `gorm:"not null" json:"max_score"`
	PlayedAt       time.Time `json:"played_at" gorm:"autoCreateTime"`
}

// ScorePercent is the 0–100 percentage used by the reward tiers.
func (r *GameResult) ScorePercent() float64 {
	if r.MaxScore <= 0 {
		return 0
	}
	return float64(r.Score) / float64(r.MaxScore) * 100
}
