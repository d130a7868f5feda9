package services

import (
	"fmt"
	"testing"

	"learning-rewards-engine/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database and migrates the full schema.
// MaxOpenConns(1) keeps sqlite happy under the concurrency tests.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.GameResult{},
		&models.GameProgress{},
		&models.StudentReward{},
		&models.StudentAchievement{},
		&models.UserPoints{},
		&models.PointsTransaction{},
		&models.Student{},
	))
	return db
}

// newResult builds a valid submission for tests.
func newResult(userID, difficulty string, score, maxScore int64) *models.GameResult {
	return &models.GameResult{
		ID:             uuid.NewString(),
		ExternalUserID: userID,
		GameType:       "quiz_rush",
		Difficulty:     difficulty,
		Score:          score,
		MaxScore:       maxScore,
	}
}
