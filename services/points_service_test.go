package services

import (
	"testing"

	"learning-rewards-engine/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoints_AwardFromActivityTable(t *testing.T) {
	svc := NewPointsService(newTestDB(t), DefaultPointsConfig)
	user := "points-1"

	balance, err := svc.Award(user, models.ActivityQuizGameWin, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance.TotalPoints)
	assert.Equal(t, int64(50), balance.LifetimePoints)
	assert.Equal(t, 1, balance.Level)
	assert.Equal(t, int64(50), balance.NextLevelPoints)

	// Explicit amount overrides the table.
	balance, err = svc.Award(user, models.ActivityCourseComplete, 200)
	require.NoError(t, err)
	assert.Equal(t, int64(250), balance.TotalPoints)
	assert.Equal(t, int64(250), balance.LifetimePoints)
	assert.Equal(t, 2, balance.Level)

	_, err = svc.Award(user, "UNKNOWN_THING", 0)
	assert.ErrorIs(t, err, ErrUnknownActivity)
}

func TestPoints_SpendRoundTrip(t *testing.T) {
	svc := NewPointsService(newTestDB(t), DefaultPointsConfig)
	user := "points-2"

	_, err := svc.Award(user, models.ActivityQuizGameWin, 0)
	require.NoError(t, err)

	balance, err := svc.Spend(user, 50, "course discount")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance.TotalPoints)
	// Spending never touches lifetime totals or the level.
	assert.Equal(t, int64(50), balance.LifetimePoints)
	assert.Equal(t, 1, balance.Level)

	history, err := svc.GetHistory(user, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.ActivitySpent, history[0].Type) // newest first
	assert.Equal(t, int64(-50), history[0].Amount)
	assert.Equal(t, "course discount", history[0].Reason)
}

func TestPoints_SpendRejections(t *testing.T) {
	svc := NewPointsService(newTestDB(t), DefaultPointsConfig)
	user := "points-3"

	_, err := svc.Award(user, models.ActivityDailyLogin, 0)
	require.NoError(t, err)

	_, err = svc.Spend(user, 11, "too much")
	assert.ErrorIs(t, err, ErrInsufficientPoints)
	_, err = svc.Spend(user, 0, "nothing")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = svc.Spend(user, -5, "negative")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	// Failed spends leave the balance unchanged.
	balance, err := svc.GetUserPoints(user)
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance.TotalPoints)
	assert.Equal(t, int64(10), balance.LifetimePoints)
}

func TestPoints_LevelFromLifetime(t *testing.T) {
	assert.Equal(t, 1, models.PointsLevel(0))
	assert.Equal(t, 1, models.PointsLevel(99))
	assert.Equal(t, 2, models.PointsLevel(100))
	assert.Equal(t, 3, models.PointsLevel(300))
	assert.Equal(t, 10, models.PointsLevel(10000))
	assert.Equal(t, 10, models.PointsLevel(999999))

	assert.Equal(t, int64(100), models.PointsToNextLevel(0))
	assert.Equal(t, int64(1), models.PointsToNextLevel(99))
	assert.Equal(t, int64(200), models.PointsToNextLevel(100))
	assert.Equal(t, int64(0), models.PointsToNextLevel(10000))
}

func TestPoints_CalculateDiscountPercentage(t *testing.T) {
	svc := NewPointsService(newTestDB(t), DefaultPointsConfig)

	assert.Equal(t, 0.0, svc.CalculateDiscountPercentage(0))
	assert.Equal(t, 1.0, svc.CalculateDiscountPercentage(100))
	assert.Equal(t, 25.0, svc.CalculateDiscountPercentage(2500))
	assert.Equal(t, 50.0, svc.CalculateDiscountPercentage(5000))
	assert.Equal(t, 50.0, svc.CalculateDiscountPercentage(100000))
}

func TestPoints_ApplyDiscount(t *testing.T) {
	svc := NewPointsService(newTestDB(t), DefaultPointsConfig)

	// Modest spend: 1000 points buy 10% off.
	res := svc.ApplyDiscount(100.0, 1000)
	assert.Equal(t, 10.0, res.DiscountPercent)
	assert.Equal(t, 10.0, res.DiscountAmount)
	assert.Equal(t, 90.0, res.FinalPrice)
	assert.Equal(t, int64(1000), res.PointsUsed)

	// Far too many points: the percentage cap clamps usage to 5000 points
	// and the final price bottoms out at half the original.
	res = svc.ApplyDiscount(100.0, 100000)
	assert.Equal(t, 50.0, res.DiscountPercent)
	assert.Equal(t, 50.0, res.DiscountAmount)
	assert.Equal(t, 50.0, res.FinalPrice)
	assert.Equal(t, int64(5000), res.PointsUsed)

	// Degenerate inputs leave the price untouched.
	res = svc.ApplyDiscount(100.0, 0)
	assert.Equal(t, 100.0, res.FinalPrice)
	assert.Equal(t, int64(0), res.PointsUsed)
	res = svc.ApplyDiscount(0, 500)
	assert.Equal(t, 0.0, res.FinalPrice)
}

func TestAudit_VerifyUser(t *testing.T) {
	db := newTestDB(t)
	points := NewPointsService(db, DefaultPointsConfig)
	audit := NewAuditService(db)
	user := "audit-1"

	_, err := points.Award(user, models.ActivityCourseComplete, 0)
	require.NoError(t, err)
	_, err = points.Spend(user, 40, "sticker pack")
	require.NoError(t, err)

	ok, err := audit.VerifyUser(user)
	require.NoError(t, err)
	assert.True(t, ok)

	mismatched, err := audit.VerifyAll()
	require.NoError(t, err)
	assert.Empty(t, mismatched)

	// Corrupt the balance row out-of-band; the audit must flag it.
	require.NoError(t, db.Model(&models.UserPoints{}).
		Where("external_user_id = ?", user).
		Update("total_points", 999).Error)
	ok, err = audit.VerifyUser(user)
	require.NoError(t, err)
	assert.False(t, ok)
}
