// services/reward_service.go
package services

import (
	"errors"
	"time"

	"learning-rewards-engine/models"
	"learning-rewards-engine/utils"

	"gorm.io/gorm"
)

var (
	ErrRewardNotFound  = errors.New("reward not found or not owned by user")
	ErrAlreadyRedeemed = errors.New("reward already redeemed")
	ErrRewardExpired   = errors.New("reward has expired")
)

// RewardService owns the redemption side of StudentReward. Rewards are issued
// by the progress service; here they can only be listed and redeemed — history
// is append-only, nothing is ever deleted.
type RewardService struct {
	DB    *gorm.DB
	locks *utils.KeyedMutex
}

func NewRewardService(db *gorm.DB) *RewardService {
	return &RewardService{DB: db, locks: utils.NewKeyedMutex()}
}

// RewardFilter narrows ListUserRewards. Nil fields mean "no filter".
type RewardFilter struct {
	Redeemed *bool
	Limit    *int
}

// ListUserRewards returns the user's rewards, newest first.
func (s *RewardService) ListUserRewards(externalUserID string, filter RewardFilter) ([]models.StudentReward, error) {
	query := s.DB.Where("external_user_id = ?", externalUserID)
	if filter.Redeemed != nil {
		query = query.Where("redeemed = ?", *filter.Redeemed)
	}
	query = query.Order("earned_at DESC")
	if filter.Limit != nil && *filter.Limit > 0 {
		query = query.Limit(*filter.Limit)
	}

	var rewards []models.StudentReward
	if err := query.Find(&rewards).Error; err != nil {
		return nil, err
	}
	return rewards, nil
}

// RedeemReward flips Redeemed exactly once. A second redeem of the same
// reward fails with ErrAlreadyRedeemed; expired rewards cannot be redeemed.
func (s *RewardService) RedeemReward(externalUserID, rewardID string) (*models.StudentReward, error) {
	unlock := s.locks.Lock(externalUserID)
	defer unlock()

	var reward models.StudentReward
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND external_user_id = ?", rewardID, externalUserID).
			First(&reward).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRewardNotFound
			}
			return err
		}
		if reward.Redeemed {
			return ErrAlreadyRedeemed
		}
		now := time.Now().UTC()
		if reward.Expired || (reward.ExpiresAt != nil && reward.ExpiresAt.Before(now)) {
			return ErrRewardExpired
		}

		reward.Redeemed = true
		reward.RedeemedAt = &now
		return tx.Save(&reward).Error
	})
	if err != nil {
		return nil, err
	}
	return &reward, nil
}

// GetRewardCounts returns totals clients poll for badge indicators.
func (s *RewardService) GetRewardCounts(externalUserID string) (total, unredeemed int64, err error) {
	now := time.Now().UTC()
	baseQuery := s.DB.Model(&models.StudentReward{}).
		Where("external_user_id = ?", externalUserID).
		Where("expired = ?", false).
		Where("(expires_at IS NULL OR expires_at >= ?)", now)

	if err = baseQuery.Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err = baseQuery.Where("redeemed = ?", false).Count(&unredeemed).Error; err != nil {
		return 0, 0, err
	}
	return total, unredeemed, nil
}

// ExpireRewards marks unredeemed rewards past their expiry. Called by the
// maintenance scheduler; returns how many rows were swept.
func (s *RewardService) ExpireRewards() (int64, error) {
	result := s.DB.Model(&models.StudentReward{}).
		Where("redeemed = ? AND expired = ?", false, false).
		Where("expires_at IS NOT NULL AND expires_at < ?", time.Now().UTC()).
		Update("expired", true)
	return result.RowsAffected, result.Error
}
