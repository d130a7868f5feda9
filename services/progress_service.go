package services

import (
	"errors"
	"log"
	"math"
	"time"

	"learning-rewards-engine/models"
	"learning-rewards-engine/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateResult — the same game result id was submitted twice.
	// Duplicates are rejected outright rather than replayed.
	ErrDuplicateResult = errors.New("game result already submitted")
	// ErrInvalidResult — malformed submission (bad score range, unknown
	// difficulty, missing user).
	ErrInvalidResult = errors.New("invalid game result")
)

// capReachedDescription replaces the reward description when the daily cap
// swallows the whole amount.
const capReachedDescription = "Daily reward limit reached — come back tomorrow!"

type ProgressService struct {
	DB           *gorm.DB
	Config       RewardConfig
	Achievements *AchievementService

	// Serializes all read-modify-write work per user so concurrent
	// submissions (two devices, retries) can't race the daily-cap check or
	// lose progress updates.
	locks *utils.KeyedMutex
}

func NewProgressService(db *gorm.DB, cfg RewardConfig, achievements *AchievementService) *ProgressService {
	return &ProgressService{
		DB:           db,
		Config:       cfg,
		Achievements: achievements,
		locks:        utils.NewKeyedMutex(),
	}
}

// SubmitOutcome is what one submission produced. Reward is nil when the score
// was below the win threshold or the daily cap clamped the amount to zero.
type SubmitOutcome struct {
	Reward   *models.StudentReward       `json:"reward,omitempty"`
	Progress *models.GameProgress        `json:"progress"`
	Unlocked []models.StudentAchievement `json:"unlocked_achievements,omitempty"`
}

// SubmitResult persists a completed game and applies the whole reward
// pipeline: reward calculation, daily cap, progress/streak/XP update and
// achievement evaluation — all in one transaction, so the store ends up either
// fully updated or fully unchanged.
func (s *ProgressService) SubmitResult(result *models.GameResult) (*SubmitOutcome, error) {
	if result == nil || result.ExternalUserID == "" || result.MaxScore <= 0 ||
		result.Score < 0 || result.Score > result.MaxScore {
		return nil, ErrInvalidResult
	}
	switch result.Difficulty {
	case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
	default:
		return nil, ErrInvalidResult
	}
	if result.ID == "" {
		result.ID = uuid.NewString()
	}

	unlock := s.locks.Lock(result.ExternalUserID)
	defer unlock()

	var outcome SubmitOutcome
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// Reject duplicate submissions of the same result id.
		var existing int64
		if err := tx.Model(&models.GameResult{}).Where("id = ?", result.ID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicateResult
		}
		if err := tx.Create(result).Error; err != nil {
			return err
		}

		prog, err := s.ensureProgress(tx, result.ExternalUserID)
		if err != nil {
			return err
		}

		scorePercent := result.ScorePercent()
		win := scorePercent >= s.Config.WinThreshold

		amount, description := ComputeReward(s.Config, scorePercent, prog.CurrentStreak)

		// Daily cap: everything earned since UTC start-of-day counts against
		// the cap. The read and the write below share this transaction and
		// the per-user lock, so two racing submissions can't both see
		// headroom and jointly exceed it.
		now := time.Now().UTC()
		startOfDay := now.Truncate(24 * time.Hour)
		var earnedToday float64
		if err := tx.Model(&models.StudentReward{}).
			Where("external_user_id = ? AND earned_at >= ?", result.ExternalUserID, startOfDay).
			Select("COALESCE(SUM(discount_amount), 0)").
			Scan(&earnedToday).Error; err != nil {
			return err
		}
		if earnedToday+amount > s.Config.DailyRewardCap {
			amount = roundCents(math.Max(s.Config.DailyRewardCap-earnedToday, 0))
			if amount == 0 {
				description = capReachedDescription
			}
		}

		// Progress updates happen on every submission, rewarded or not.
		prog.TotalGamesPlayed++
		prog.TotalScore += result.Score
		prog.AverageScore = float64(prog.TotalScore) / float64(prog.TotalGamesPlayed)
		if win {
			prog.CurrentStreak++
			prog.GamesWon++
		} else {
			prog.CurrentStreak = 0
		}
		if prog.CurrentStreak > prog.LongestStreak {
			prog.LongestStreak = prog.CurrentStreak
		}
		if scorePercent >= s.Config.PerfectThreshold {
			prog.PerfectScores++
		}
		prog.TotalRewardsEarned = roundCents(prog.TotalRewardsEarned + amount)
		prog.ExperiencePoints += ComputeXP(s.Config, result.Difficulty, result.Score, result.MaxScore)
		prog.Level = LevelForXP(prog.ExperiencePoints)
		playedAt := now
		prog.LastPlayedAt = &playedAt

		if err := tx.Save(prog).Error; err != nil {
			return err
		}

		if amount > 0 {
			reward := &models.StudentReward{
				ID:              uuid.NewString(),
				ExternalUserID:  result.ExternalUserID,
				GameResultID:    result.ID,
				DiscountAmount:  amount,
				DiscountPercent: roundCents(amount / s.Config.ReferencePrice * 100),
				Description:     description,
				EarnedAt:        now,
			}
			if s.Config.RewardValidityDays > 0 {
				expires := now.AddDate(0, 0, s.Config.RewardValidityDays)
				reward.ExpiresAt = &expires
			}
			if err := tx.Create(reward).Error; err != nil {
				return err
			}
			outcome.Reward = reward
		}

		unlocked, err := s.Achievements.Evaluate(tx, prog)
		if err != nil {
			return err
		}

		outcome.Progress = prog
		outcome.Unlocked = unlocked
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrDuplicateResult) {
			log.Printf("❌ Submit failed for user %s: %v", result.ExternalUserID, err)
		}
		return nil, err
	}

	if outcome.Reward != nil {
		log.Printf("🎮 Reward earned: %s → $%.2f (%s), streak=%d, level=%d",
			result.ExternalUserID, outcome.Reward.DiscountAmount,
			outcome.Reward.Description, outcome.Progress.CurrentStreak, outcome.Progress.Level)
	}
	return &outcome, nil
}

// ensureProgress loads the per-user progress row, creating the zero-state on
// first contact (idempotent).
func (s *ProgressService) ensureProgress(tx *gorm.DB, externalUserID string) (*models.GameProgress, error) {
	var prog models.GameProgress
	err := tx.Where("external_user_id = ?", externalUserID).First(&prog).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		prog = models.GameProgress{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			Level:          1,
		}
		if err := tx.Create(&prog).Error; err != nil {
			return nil, err
		}
		return &prog, nil
	}
	if err != nil {
		return nil, err
	}
	return &prog, nil
}

// GetProgress returns the user's progress, creating the zero-state if absent.
func (s *ProgressService) GetProgress(externalUserID string) (*models.GameProgress, error) {
	unlock := s.locks.Lock(externalUserID)
	defer unlock()
	return s.ensureProgress(s.DB, externalUserID)
}

// GetRecentResults returns results from the last N days, newest first.
func (s *ProgressService) GetRecentResults(externalUserID string, days int) ([]models.GameResult, error) {
	var results []models.GameResult
	since := time.Now().UTC().AddDate(0, 0, -days)
	err := s.DB.Where("external_user_id = ? AND played_at >= ?", externalUserID, since).
		Order("played_at DESC").
		Find(&results).Error
	return results, err
}

// GetResultHistory returns paginated results plus totals.
func (s *ProgressService) GetResultHistory(externalUserID string, page, size int) (map[string]interface{}, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	var total int64
	if err := s.DB.Model(&models.GameResult{}).
		Where("external_user_id = ?", externalUserID).
		Count(&total).Error; err != nil {
		return nil, err
	}

	var results []models.GameResult
	if err := s.DB.Where("external_user_id = ?", externalUserID).
		Order("played_at DESC").
		Limit(size).Offset(offset).
		Find(&results).Error; err != nil {
		return nil, err
	}

	totalPages := int((total + int64(size) - 1) / int64(size))
	return map[string]interface{}{
		"results":     results,
		"page":        page,
		"size":        size,
		"total_items": total,
		"total_pages": totalPages,
	}, nil
}
