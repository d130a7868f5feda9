package services

import (
	"log"

	"learning-rewards-engine/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AchievementService struct {
	DB *gorm.DB
}

func NewAchievementService(db *gorm.DB) *AchievementService {
	return &AchievementService{DB: db}
}

// Evaluate checks all catalog triggers against updated progress and unlocks
// whatever matched. Runs on the caller's transaction so unlocks commit or roll
// back together with the progress update. Each (user, type) unlocks at most
// once: an already-unlocked milestone is skipped even if its trigger matches
// again (e.g., a streak rebuilt after a reset).
func (s *AchievementService) Evaluate(tx *gorm.DB, prog *models.GameProgress) ([]models.StudentAchievement, error) {
	var unlocked []models.StudentAchievement
	for _, def := range models.AchievementCatalog {
		if !triggerMatches(prog, def.Type) {
			continue
		}

		var count int64
		if err := tx.Model(&models.StudentAchievement{}).
			Where("external_user_id = ? AND type = ?", prog.ExternalUserID, def.Type).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			continue
		}

		achievement := models.StudentAchievement{
			ID:             uuid.NewString(),
			ExternalUserID: prog.ExternalUserID,
			Type:           def.Type,
			Title:          def.Title,
			Description:    def.Description,
			IconSlug:       models.IconSlugFor(def),
			RewardAmount:   def.RewardAmount,
		}
		if err := tx.Create(&achievement).Error; err != nil {
			return nil, err
		}
		unlocked = append(unlocked, achievement)
		log.Printf("🎖️ Achievement unlocked: %s → %s", def.Title, prog.ExternalUserID)
	}
	return unlocked, nil
}

// triggerMatches applies the catalog rules. Streak milestones are exact-match:
// the streak has to land precisely on the value in this submission. Streaks
// only ever grow by one per win, so milestones cannot be skipped.
func triggerMatches(prog *models.GameProgress, t models.AchievementType) bool {
	switch t {
	case models.AchievementFirstWin:
		return prog.GamesWon == 1
	case models.AchievementStreak3:
		return prog.CurrentStreak == 3
	case models.AchievementStreak5:
		return prog.CurrentStreak == 5
	case models.AchievementStreak10:
		return prog.CurrentStreak == 10
	case models.AchievementPerfectScore:
		return prog.PerfectScores >= 1
	}
	return false
}

// ListUserAchievements returns all unlocked milestones, newest first.
func (s *AchievementService) ListUserAchievements(externalUserID string) ([]models.StudentAchievement, error) {
	var achievements []models.StudentAchievement
	err := s.DB.Where("external_user_id = ?", externalUserID).
		Order("unlocked_at DESC").
		Find(&achievements).Error
	return achievements, err
}
