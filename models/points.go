package models

import "time"

// Point-earning activities. SPENT is the only negative transaction type.
const (
	ActivityQuizGameWin    = "QUIZ_GAME_WIN"
	ActivityCourseComplete = "COURSE_COMPLETED"
	ActivityQuizPassed     = "QUIZ_PASSED"
	ActivityDailyLogin     = "DAILY_LOGIN"
	ActivityLessonFinished = "LESSON_FINISHED"
	ActivitySpent          = "SPENT"
)

// DefaultActivityPoints maps activity type → points awarded unless the caller
// overrides the amount.
var DefaultActivityPoints = map[string]int64{
	ActivityQuizGameWin:    50,
	ActivityCourseComplete: 100,
	ActivityQuizPassed:     25,
	ActivityDailyLogin:     10,
	ActivityLessonFinished: 15,
}

// PointsLevelThresholds are the lifetime-points breakpoints for levels 2..10.
// Below the first breakpoint is level 1; at or above the last is level 10.
var PointsLevelThresholds = []int64{100, 300, 600, 1000, 1500, 2500, 4000, 6000, 10000}

// UserPoints is the spendable balance per student. Created lazily on first
// award. TotalPoints never exceeds LifetimePoints and never goes negative;
// Level derives from LifetimePoints so spending cannot demote a student.
type UserPoints struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"`

	TotalPoints     int64 `json:"total_points" gorm:"default:0"`
	LifetimePoints  int64 `json:"lifetime_points" gorm:"default:0"`
	Level           int   `json:"level" gorm:"default:1"`
	NextLevelPoints int64 `json:"next_level_points" gorm:"default:100"` // distance to next breakpoint, 0 at max tier

	Timestamps
}

// PointsTransaction is an append-only ledger entry. Sum of all entries for a
// user must equal LifetimePoints minus total spent — the audit service
// verifies this nightly.
type PointsTransaction struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string    `gorm:"index;not null" json:"external_user_id"`
	Type           string    `gorm:"type:varchar(32);not null" json:"type"` // activity type or SPENT
	Amount         int64     `gorm:"not null" json:"amount"`                // signed: negative for SPENT
	Reason         string    `gorm:"type:text" json:"reason,omitempty"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

// DiscountResult is what ApplyDiscount hands back; the caller passes
// PointsUsed to Spend to actually debit the balance.
type DiscountResult struct {
	OriginalPrice   float64 `json:"original_price"`
	DiscountPercent float64 `json:"discount_percent"`
	DiscountAmount  float64 `json:"discount_amount"`
	FinalPrice      float64 `json:"final_price"`
	PointsUsed      int64   `json:"points_used"`
}

// PointsLevel returns the tier for a lifetime-points total.
func PointsLevel(lifetime int64) int {
	level := 1
	for _, threshold := range PointsLevelThresholds {
		if lifetime >= threshold {
			level++
		}
	}
	return level
}

// PointsToNextLevel returns the distance from lifetime to the next breakpoint,
// or 0 at the max tier.
func PointsToNextLevel(lifetime int64) int64 {
	for _, threshold := range PointsLevelThresholds {
		if lifetime < threshold {
			return threshold - lifetime
		}
	}
	return 0
}
