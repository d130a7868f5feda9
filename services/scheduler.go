// services/scheduler.go
package services

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartMaintenanceScheduler runs the periodic housekeeping jobs: sweeping
// expired rewards every hour and exporting/verifying the points ledger once a
// day.
func StartMaintenanceScheduler(rewards *RewardService, audit *AuditService) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every hour: mark unredeemed rewards past their expiry
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			swept, err := rewards.ExpireRewards()
			if err != nil {
				log.Printf("[Scheduler] Reward expiry sweep failed: %v", err)
				return
			}
			if swept > 0 {
				log.Printf("✅ Expired %d unredeemed reward(s)", swept)
			}
		}),
	)

	// Every 24h: export yesterday's ledger and reconcile balances
	_, _ = sched.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			yesterday := time.Now().UTC().AddDate(0, 0, -1)
			if _, err := audit.ExportDay(ctx, yesterday); err != nil {
				log.Printf("[Scheduler] Ledger export failed: %v", err)
			}
			mismatched, err := audit.VerifyAll()
			if err != nil {
				log.Printf("[Scheduler] Ledger verification failed: %v", err)
				return
			}
			if len(mismatched) > 0 {
				log.Printf("❌ Ledger verification found %d mismatched user(s): %v", len(mismatched), mismatched)
			}
		}),
	)
}
