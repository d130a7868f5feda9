package models

import "time"

// StudentReward is a discount voucher earned from a single game result.
// Append-only history: rewards are never physically deleted, redemption flips
// Redeemed exactly once.
type StudentReward struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"index;not null" json:"external_user_id"`
	GameResultID   string `gorm:"uniqueIndex;not null" json:"game_result_id"` // one reward per result

	DiscountAmount  float64 `gorm:"not null" json:"discount_amount"` // currency units
	DiscountPercent float64 `json:"discount_percent"`                // derived from reference course price
	Description     string  `gorm:"type:text" json:"description"`

	Redeemed   bool       `gorm:"default:false;index" json:"redeemed"`
	EarnedAt   time.Time  `json:"earned_at" gorm:"autoCreateTime"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"` // swept by the maintenance scheduler
	Expired    bool       `gorm:"default:false" json:"expired"`
}
