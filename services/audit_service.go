package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"strconv"
	"time"

	"learning-rewards-engine/models"
	"learning-rewards-engine/utils"

	"gorm.io/gorm"
)

// AuditService enforces the ledger invariant: for every user, the signed sum
// of all transactions equals the spendable balance, and the sum of credits
// equals the lifetime total.
type AuditService struct {
	DB *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{DB: db}
}

// VerifyUser reconciles one user's ledger against their balance row.
func (s *AuditService) VerifyUser(externalUserID string) (bool, error) {
	var points models.UserPoints
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&points).Error; err != nil {
		return false, err
	}

	var signedSum, creditSum int64
	if err := s.DB.Model(&models.PointsTransaction{}).
		Where("external_user_id = ?", externalUserID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&signedSum).Error; err != nil {
		return false, err
	}
	if err := s.DB.Model(&models.PointsTransaction{}).
		Where("external_user_id = ? AND amount > 0", externalUserID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&creditSum).Error; err != nil {
		return false, err
	}

	return signedSum == points.TotalPoints && creditSum == points.LifetimePoints, nil
}

// VerifyAll reconciles every balance row and returns the user ids that failed.
func (s *AuditService) VerifyAll() ([]string, error) {
	var userIDs []string
	if err := s.DB.Model(&models.UserPoints{}).
		Pluck("external_user_id", &userIDs).Error; err != nil {
		return nil, err
	}

	var mismatched []string
	for _, id := range userIDs {
		ok, err := s.VerifyUser(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			mismatched = append(mismatched, id)
			log.Printf("⚠️ Ledger mismatch for user %s", id)
		}
	}
	return mismatched, nil
}

// ExportDay serializes one UTC day's transactions to CSV and uploads the file
// to R2 for offline audit.
func (s *AuditService) ExportDay(ctx context.Context, day time.Time) (string, error) {
	start := day.UTC().Truncate(24 * time.Hour)
	end := start.Add(24 * time.Hour)

	var txns []models.PointsTransaction
	if err := s.DB.Where("created_at >= ? AND created_at < ?", start, end).
		Order("created_at ASC").
		Find(&txns).Error; err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"id", "external_user_id", "type", "amount", "reason", "created_at"})
	for _, t := range txns {
		_ = w.Write([]string{
			t.ID, t.ExternalUserID, t.Type,
			strconv.FormatInt(t.Amount, 10),
			t.Reason,
			t.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	key := fmt.Sprintf("audit/%s-points-transactions.csv", start.Format("2006-01-02"))
	if err := utils.UploadToR2(ctx, key, "text/csv", buf.Bytes()); err != nil {
		return "", err
	}
	log.Printf("✅ Exported %d transaction(s) to %s", len(txns), key)
	return key, nil
}
