package services

import (
	"math"

	"learning-rewards-engine/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// RewardConfig defines the reward tiers (tunable via config/env later).
// All thresholds are score percentages; amounts are discount currency units.
type RewardConfig struct {
	WinThreshold       float64 // below this → no reward, not a win
	GreatThreshold     float64
	ExcellentThreshold float64
	PerfectThreshold   float64

	BaseAmount     float64
	GreatBonus     float64
	ExcellentBonus float64
	PerfectBonus   float64

	StreakUnit float64 // per consecutive win
	StreakCap  float64 // streak bonus never exceeds this

	DailyRewardCap     float64 // max discount currency per user per UTC day
	ReferencePrice     float64 // assumed course price for the discount-percent field
	RewardValidityDays int     // 0 = rewards never expire

	// BaseXP per difficulty, scaled by score/maxScore. Must be monotonically
	// increasing EASY < MEDIUM < HARD.
	BaseXP map[string]int64
}

var DefaultRewardConfig = RewardConfig{
	WinThreshold:       60,
	GreatThreshold:     70,
	ExcellentThreshold: 80,
	PerfectThreshold:   90,

	BaseAmount:     1.00,
	GreatBonus:     0.25,
	ExcellentBonus: 0.50,
	PerfectBonus:   1.00,

	StreakUnit: 0.10,
	StreakCap:  0.50,

	DailyRewardCap:     10.00,
	ReferencePrice:     100.00,
	RewardValidityDays: 30,

	BaseXP: map[string]int64{
		models.DifficultyEasy:   50,
		models.DifficultyMedium: 100,
		models.DifficultyHard:   150,
	},
}

const xpPerLevel = 100

// amountPrinter formats currency amounts in reward descriptions.
var amountPrinter = message.NewPrinter(language.English)

// ComputeReward maps a score percentage + current streak to a discount amount
// and a human-readable description. Pure: no clock, no store, no randomness.
func ComputeReward(cfg RewardConfig, scorePercent float64, currentStreak int64) (float64, string) {
	if scorePercent < cfg.WinThreshold {
		return 0, "Keep practicing!"
	}

	var amount float64
	var label string
	switch {
	case scorePercent >= cfg.PerfectThreshold:
		amount = cfg.BaseAmount + cfg.PerfectBonus
		label = "Perfect Performance"
	case scorePercent >= cfg.ExcellentThreshold:
		amount = cfg.BaseAmount + cfg.ExcellentBonus
		label = "Excellent Work"
	case scorePercent >= cfg.GreatThreshold:
		amount = cfg.BaseAmount + cfg.GreatBonus
		label = "Great Job"
	default:
		amount = cfg.BaseAmount
		label = "Good Effort"
	}

	streakBonus := math.Min(float64(currentStreak)*cfg.StreakUnit, cfg.StreakCap)
	amount += streakBonus

	description := label
	if streakBonus > 0 {
		description = amountPrinter.Sprintf("%s (+$%.2f streak bonus)", label, streakBonus)
	}
	return roundCents(amount), description
}

// ComputeXP returns baseXP(difficulty) * score/maxScore, truncated to an
// integer. Unknown difficulties earn nothing.
func ComputeXP(cfg RewardConfig, difficulty string, score, maxScore int64) int64 {
	if maxScore <= 0 {
		return 0
	}
	base, ok := cfg.BaseXP[difficulty]
	if !ok {
		return 0
	}
	return int64(float64(base) * float64(score) / float64(maxScore))
}

// LevelForXP: tier boundaries are inclusive-lower/exclusive-upper, so
// xp=99 → level 1 and xp=100 → level 2.
func LevelForXP(xp int64) int {
	if xp < 0 {
		xp = 0
	}
	return int(xp/xpPerLevel) + 1
}

// roundCents keeps reward arithmetic stable across accumulations.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
