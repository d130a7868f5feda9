package services

import (
	"errors"
	"log"
	"math"

	"learning-rewards-engine/models"
	"learning-rewards-engine/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrInsufficientPoints — spend amount exceeds the spendable balance.
	ErrInsufficientPoints = errors.New("insufficient points")
	// ErrUnknownActivity — award for an activity type with no table entry and
	// no override.
	ErrUnknownActivity = errors.New("unknown activity type")
	// ErrInvalidAmount — zero/negative amounts are never valid.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// PointsConfig defines the points→discount exchange.
type PointsConfig struct {
	PointsPerPercent   int64   // points for one percent of discount
	MaxDiscountPercent float64 // percentage cap per purchase
	MinPriceRatio      float64 // final price never drops below this share of the original
}

var DefaultPointsConfig = PointsConfig{
	PointsPerPercent:   100,
	MaxDiscountPercent: 50,
	MinPriceRatio:      0.5,
}

// PointsService owns UserPoints and the PointsTransaction ledger. Stateless
// aside from the store handle — per-user state lives entirely in the DB, so
// multiple instances scale horizontally (each still serializes per user
// in-process; cross-instance safety comes from the transaction).
type PointsService struct {
	DB     *gorm.DB
	Config PointsConfig
	locks  *utils.KeyedMutex
}

func NewPointsService(db *gorm.DB, cfg PointsConfig) *PointsService {
	return &PointsService{DB: db, Config: cfg, locks: utils.NewKeyedMutex()}
}

// Award appends a ledger entry and bumps both spendable and lifetime totals.
// amountOverride <= 0 means "use the activity table". Level is derived from
// lifetime points, so it only ever goes up.
func (s *PointsService) Award(externalUserID, activityType string, amountOverride int64) (*models.UserPoints, error) {
	amount := amountOverride
	if amount <= 0 {
		tableAmount, ok := models.DefaultActivityPoints[activityType]
		if !ok {
			return nil, ErrUnknownActivity
		}
		amount = tableAmount
	}

	unlock := s.locks.Lock(externalUserID)
	defer unlock()

	var points *models.UserPoints
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		points, err = s.ensurePoints(tx, externalUserID)
		if err != nil {
			return err
		}

		txn := models.PointsTransaction{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			Type:           activityType,
			Amount:         amount,
		}
		if err := tx.Create(&txn).Error; err != nil {
			return err
		}

		points.TotalPoints += amount
		points.LifetimePoints += amount
		points.Level = models.PointsLevel(points.LifetimePoints)
		points.NextLevelPoints = models.PointsToNextLevel(points.LifetimePoints)
		return tx.Save(points).Error
	})
	if err != nil {
		log.Printf("❌ Points award failed for user %s (%s): %v", externalUserID, activityType, err)
		return nil, err
	}

	log.Printf("⭐ Points awarded: %s → +%d (%s), total=%d, lifetime=%d, level=%d",
		externalUserID, amount, activityType, points.TotalPoints, points.LifetimePoints, points.Level)
	return points, nil
}

// Spend debits the spendable balance. Lifetime points are untouched — spending
// never erases history or demotes the level.
func (s *PointsService) Spend(externalUserID string, amount int64, reason string) (*models.UserPoints, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	unlock := s.locks.Lock(externalUserID)
	defer unlock()

	var points *models.UserPoints
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		points, err = s.ensurePoints(tx, externalUserID)
		if err != nil {
			return err
		}
		if amount > points.TotalPoints {
			return ErrInsufficientPoints
		}

		txn := models.PointsTransaction{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			Type:           models.ActivitySpent,
			Amount:         -amount,
			Reason:         reason,
		}
		if err := tx.Create(&txn).Error; err != nil {
			return err
		}

		points.TotalPoints -= amount
		points.Level = models.PointsLevel(points.LifetimePoints)
		points.NextLevelPoints = models.PointsToNextLevel(points.LifetimePoints)
		return tx.Save(points).Error
	})
	if err != nil {
		if !errors.Is(err, ErrInsufficientPoints) {
			log.Printf("❌ Points spend failed for user %s: %v", externalUserID, err)
		}
		return nil, err
	}
	return points, nil
}

// GetUserPoints returns the balance, creating the lazy zero-state if absent.
func (s *PointsService) GetUserPoints(externalUserID string) (*models.UserPoints, error) {
	unlock := s.locks.Lock(externalUserID)
	defer unlock()

	var points *models.UserPoints
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		points, err = s.ensurePoints(tx, externalUserID)
		return err
	})
	return points, err
}

// GetHistory returns the newest transactions first, bounded by limit.
func (s *PointsService) GetHistory(externalUserID string, limit int) ([]models.PointsTransaction, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}
	var txns []models.PointsTransaction
	err := s.DB.Where("external_user_id = ?", externalUserID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txns).Error
	return txns, err
}

// CalculateDiscountPercentage converts a points total into the discount
// percentage it buys, bounded by the configured maximum. Pure.
func (s *PointsService) CalculateDiscountPercentage(totalPoints int64) float64 {
	percent := float64(totalPoints) / float64(s.Config.PointsPerPercent)
	return math.Min(percent, s.Config.MaxDiscountPercent)
}

// ApplyDiscount previews a discount without debiting anything. Two limits
// stack: the percentage cap clamps the points first, then the minimum-price
// floor acts as an absolute backstop. The caller passes PointsUsed to Spend
// to actually commit.
func (s *PointsService) ApplyDiscount(originalPrice float64, pointsToUse int64) models.DiscountResult {
	result := models.DiscountResult{OriginalPrice: originalPrice}
	if originalPrice <= 0 || pointsToUse <= 0 {
		result.FinalPrice = originalPrice
		return result
	}

	// Percentage cap first.
	maxUsable := int64(s.Config.MaxDiscountPercent) * s.Config.PointsPerPercent
	pointsUsed := pointsToUse
	if pointsUsed > maxUsable {
		pointsUsed = maxUsable
	}

	percent := float64(pointsUsed) / float64(s.Config.PointsPerPercent)
	amount := originalPrice * percent / 100
	finalPrice := originalPrice - amount

	// Minimum-price floor as the absolute backstop. When it bites, scale the
	// points back to what the allowed discount actually costs.
	floor := originalPrice * s.Config.MinPriceRatio
	if finalPrice < floor {
		finalPrice = floor
		amount = originalPrice - finalPrice
		percent = amount / originalPrice * 100
		pointsUsed = int64(percent * float64(s.Config.PointsPerPercent))
	}

	result.DiscountPercent = roundCents(percent)
	result.DiscountAmount = roundCents(amount)
	result.FinalPrice = roundCents(finalPrice)
	result.PointsUsed = pointsUsed
	return result
}

// ensurePoints lazily creates the (0, 0, level 1, 100) zero-state.
func (s *PointsService) ensurePoints(tx *gorm.DB, externalUserID string) (*models.UserPoints, error) {
	var points models.UserPoints
	err := tx.Where("external_user_id = ?", externalUserID).First(&points).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		points = models.UserPoints{
			ID:              uuid.NewString(),
			ExternalUserID:  externalUserID,
			Level:           1,
			NextLevelPoints: models.PointsLevelThresholds[0],
		}
		if err := tx.Create(&points).Error; err != nil {
			return nil, err
		}
		return &points, nil
	}
	if err != nil {
		return nil, err
	}
	return &points, nil
}
