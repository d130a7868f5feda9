// workers/student_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"learning-rewards-engine/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MirroredStudentFromAuth matches the JSON shape of the auth service's public
// profile feed.
type MirroredStudentFromAuth struct {
	ExternalID        string    `json:"external_id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	FullName          *string   `json:"full_name,omitempty"`
	ProfilePictureURL *string   `json:"profile_picture_url,omitempty"`
	Role              string    `json:"role"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// GetStudentChangesResponse is the top-level structure of the feed response.
type GetStudentChangesResponse struct {
	Students []MirroredStudentFromAuth `json:"students"`
}

// StudentSyncWorker mirrors identity data from the auth service into the
// local students table so dashboard queries can join names onto progress
// without a cross-service call per row.
type StudentSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string
	endpointPath string
	serviceToken string
	httpClient   *http.Client
}

func NewStudentSyncWorker(db *gorm.DB, authServiceBaseURL, endpointPath, serviceToken string) *StudentSyncWorker {
	return &StudentSyncWorker{
		db:           db,
		interval:     1 * time.Minute,
		baseURL:      authServiceBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *StudentSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Student Sync Worker (auth-service → students)…")
	go w.run(ctx)
}

func (w *StudentSyncWorker) run(ctx context.Context) {
	// Initial backfill from the beginning of time
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("⚠️ Initial student sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.syncBatch(ctx, w.getLastSyncTime()); err != nil {
				log.Printf("❌ Student sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Student Sync Worker stopped")
			return
		}
	}
}

// getLastSyncTime finds the most recent UpdatedAt from the local table.
func (w *StudentSyncWorker) getLastSyncTime() time.Time {
	var lastTime time.Time
	err := w.db.Raw("SELECT MAX(updated_at) FROM students WHERE deleted_at IS NULL").Scan(&lastTime).Error
	if err != nil || lastTime.IsZero() {
		return time.Unix(0, 0)
	}
	return lastTime
}

// syncBatch fetches changed students since the given time and upserts them.
func (w *StudentSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	sinceStr := since.UTC().Format(time.RFC3339)

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid auth service URL '%s': %w", w.baseURL, err)
	}
	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", sinceStr)
	endpointURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", endpointURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request to auth service failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("auth service non-200 response: %d — %s", resp.StatusCode, string(body))
	}

	var response GetStudentChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode auth service response: %w", err)
	}

	if len(response.Students) == 0 {
		return nil
	}

	var upsertCount, errorCount int
	for _, remote := range response.Students {
		role := remote.Role
		if role == "" {
			role = "student"
		}
		local := models.Student{
			ID:                uuid.NewString(),
			ExternalUserID:    remote.ExternalID,
			Username:          remote.Username,
			Email:             remote.Email,
			FullName:          remote.FullName,
			ProfilePictureURL: remote.ProfilePictureURL,
			Role:              role,
			CreatedAt:         remote.CreatedAt,
			UpdatedAt:         remote.UpdatedAt,
		}

		if err := w.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"username", "email", "full_name", "profile_picture_url",
				"role", "updated_at",
			}),
		}).Create(&local).Error; err != nil {
			errorCount++
			log.Printf("[SYNC] ⚠️ Failed to upsert student (external_id=%q): %v", remote.ExternalID, err)
		} else {
			upsertCount++
		}
	}

	log.Printf("[SYNC] ✅ Synced %d student(s) (%d upserted, %d errors) since %s",
		len(response.Students), upsertCount, errorCount, sinceStr)
	return nil
}
