package services

import (
	"sync"
	"testing"

	"learning-rewards-engine/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProgressService(t *testing.T) *ProgressService {
	t.Helper()
	db := newTestDB(t)
	return NewProgressService(db, DefaultRewardConfig, NewAchievementService(db))
}

func TestSubmitResult_RewardAndProgress(t *testing.T) {
	svc := newProgressService(t)
	user := "student-1"

	outcome, err := svc.SubmitResult(newResult(user, models.DifficultyMedium, 85, 100))
	require.NoError(t, err)
	require.NotNil(t, outcome.Reward)

	assert.Equal(t, 1.50, outcome.Reward.DiscountAmount)
	assert.Equal(t, "Excellent Work", outcome.Reward.Description)
	assert.Equal(t, 1.50, outcome.Reward.DiscountPercent) // 1.50 of the 100 reference price
	require.NotNil(t, outcome.Reward.ExpiresAt)

	prog := outcome.Progress
	assert.Equal(t, int64(1), prog.TotalGamesPlayed)
	assert.Equal(t, int64(1), prog.GamesWon)
	assert.Equal(t, int64(1), prog.CurrentStreak)
	assert.Equal(t, 85.0, prog.AverageScore)
	assert.Equal(t, int64(85), prog.ExperiencePoints) // 100 * 85/100
	assert.Equal(t, 1, prog.Level)
}

func TestSubmitResult_LossResetsStreakButKeepsLongest(t *testing.T) {
	svc := newProgressService(t)
	user := "student-2"

	for i := 0; i < 3; i++ {
		_, err := svc.SubmitResult(newResult(user, models.DifficultyEasy, 80, 100))
		require.NoError(t, err)
	}
	outcome, err := svc.SubmitResult(newResult(user, models.DifficultyEasy, 30, 100))
	require.NoError(t, err)

	assert.Nil(t, outcome.Reward) // losses earn nothing
	assert.Equal(t, int64(0), outcome.Progress.CurrentStreak)
	assert.Equal(t, int64(3), outcome.Progress.LongestStreak)
	assert.Equal(t, int64(4), outcome.Progress.TotalGamesPlayed)
	assert.Equal(t, int64(3), outcome.Progress.GamesWon)
}

func TestSubmitResult_DuplicateRejected(t *testing.T) {
	svc := newProgressService(t)
	user := "student-3"

	result := newResult(user, models.DifficultyMedium, 90, 100)
	_, err := svc.SubmitResult(result)
	require.NoError(t, err)

	replay := *result
	_, err = svc.SubmitResult(&replay)
	assert.ErrorIs(t, err, ErrDuplicateResult)

	// The failed replay must not have touched progress.
	prog, err := svc.GetProgress(user)
	require.NoError(t, err)
	assert.Equal(t, int64(1), prog.TotalGamesPlayed)
}

func TestSubmitResult_InvalidInput(t *testing.T) {
	svc := newProgressService(t)

	cases := []*models.GameResult{
		nil,
		newResult("", models.DifficultyEasy, 5, 10),
		newResult("u", "IMPOSSIBLE", 5, 10),
		newResult("u", models.DifficultyEasy, 11, 10),
		newResult("u", models.DifficultyEasy, -1, 10),
		newResult("u", models.DifficultyEasy, 5, 0),
	}
	for _, c := range cases {
		_, err := svc.SubmitResult(c)
		assert.ErrorIs(t, err, ErrInvalidResult)
	}
}

func TestSubmitResult_DailyCapUnderConcurrency(t *testing.T) {
	svc := newProgressService(t)
	user := "student-cap"

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SubmitResult(newResult(user, models.DifficultyHard, 100, 100))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	prog, err := svc.GetProgress(user)
	require.NoError(t, err)
	assert.Equal(t, int64(50), prog.TotalGamesPlayed)
	assert.Equal(t, int64(50), prog.CurrentStreak)
	assert.Equal(t, DefaultRewardConfig.DailyRewardCap, prog.TotalRewardsEarned)

	// The persisted ledger agrees: the sum of all rewards is exactly the cap.
	var sum float64
	require.NoError(t, svc.DB.Model(&models.StudentReward{}).
		Where("external_user_id = ?", user).
		Select("COALESCE(SUM(discount_amount), 0)").
		Scan(&sum).Error)
	assert.Equal(t, DefaultRewardConfig.DailyRewardCap, sum)

	// 2.00 + 2.10 + 2.20 + 2.30 full rewards, then a 1.40 partial, then nothing.
	var count int64
	require.NoError(t, svc.DB.Model(&models.StudentReward{}).
		Where("external_user_id = ?", user).
		Count(&count).Error)
	assert.Equal(t, int64(5), count)
}

func TestSubmitResult_XPAndLevel(t *testing.T) {
	svc := newProgressService(t)
	user := "student-xp"

	// One perfect HARD game: 150 XP -> level 2.
	outcome, err := svc.SubmitResult(newResult(user, models.DifficultyHard, 100, 100))
	require.NoError(t, err)
	assert.Equal(t, int64(150), outcome.Progress.ExperiencePoints)
	assert.Equal(t, 2, outcome.Progress.Level)
	assert.Equal(t, int64(1), outcome.Progress.PerfectScores)
}

func TestGetResultHistory(t *testing.T) {
	svc := newProgressService(t)
	user := "student-history"

	for i := 0; i < 25; i++ {
		_, err := svc.SubmitResult(newResult(user, models.DifficultyEasy, 70, 100))
		require.NoError(t, err)
	}

	page, err := svc.GetResultHistory(user, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(25), page["total_items"])
	assert.Equal(t, 3, page["total_pages"])
	assert.Len(t, page["results"], 10)

	last, err := svc.GetResultHistory(user, 3, 10)
	require.NoError(t, err)
	assert.Len(t, last["results"], 5)
}
