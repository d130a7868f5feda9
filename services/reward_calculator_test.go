package services

import (
	"testing"

	"learning-rewards-engine/models"

	"github.com/stretchr/testify/assert"
)

func TestComputeReward_Tiers(t *testing.T) {
	cfg := DefaultRewardConfig

	tests := []struct {
		name         string
		scorePercent float64
		wantAmount   float64
		wantDesc     string
	}{
		{"below threshold", 59.9, 0, "Keep practicing!"},
		{"base tier lower bound", 60, 1.00, "Good Effort"},
		{"base tier upper bound", 69.9, 1.00, "Good Effort"},
		{"great tier lower bound", 70, 1.25, "Great Job"},
		{"great tier upper bound", 79.9, 1.25, "Great Job"},
		{"excellent tier lower bound", 80, 1.50, "Excellent Work"},
		{"excellent tier upper bound", 89.9, 1.50, "Excellent Work"},
		{"perfect tier lower bound", 90, 2.00, "Perfect Performance"},
		{"perfect score", 100, 2.00, "Perfect Performance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, desc := ComputeReward(cfg, tt.scorePercent, 0)
			assert.Equal(t, tt.wantAmount, amount)
			assert.Equal(t, tt.wantDesc, desc)
		})
	}
}

func TestComputeReward_StreakBonus(t *testing.T) {
	cfg := DefaultRewardConfig

	amount, desc := ComputeReward(cfg, 100, 3)
	assert.Equal(t, 2.30, amount)
	assert.Equal(t, "Perfect Performance (+$0.30 streak bonus)", desc)

	// Streak bonus is capped at StreakCap regardless of streak length.
	amount, _ = ComputeReward(cfg, 100, 5)
	assert.Equal(t, 2.50, amount)
	amount, _ = ComputeReward(cfg, 100, 50)
	assert.Equal(t, 2.50, amount)

	// No streak bonus below the win threshold.
	amount, desc = ComputeReward(cfg, 40, 10)
	assert.Equal(t, 0.0, amount)
	assert.Equal(t, "Keep practicing!", desc)
}

func TestComputeXP(t *testing.T) {
	cfg := DefaultRewardConfig

	assert.Equal(t, int64(50), ComputeXP(cfg, models.DifficultyEasy, 10, 10))
	assert.Equal(t, int64(100), ComputeXP(cfg, models.DifficultyMedium, 10, 10))
	assert.Equal(t, int64(150), ComputeXP(cfg, models.DifficultyHard, 10, 10))

	// Scaled by score/maxScore, truncated.
	assert.Equal(t, int64(75), ComputeXP(cfg, models.DifficultyHard, 5, 10))
	assert.Equal(t, int64(49), ComputeXP(cfg, models.DifficultyEasy, 99, 100))

	// Unknown difficulty and degenerate max score earn nothing.
	assert.Equal(t, int64(0), ComputeXP(cfg, "NIGHTMARE", 10, 10))
	assert.Equal(t, int64(0), ComputeXP(cfg, models.DifficultyEasy, 0, 0))
}

func TestLevelForXP(t *testing.T) {
	assert.Equal(t, 1, LevelForXP(0))
	assert.Equal(t, 1, LevelForXP(99))
	assert.Equal(t, 2, LevelForXP(100))
	assert.Equal(t, 2, LevelForXP(199))
	assert.Equal(t, 3, LevelForXP(200))
	assert.Equal(t, 1, LevelForXP(-5))
}
