// services/scheduler.go
package services

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartRefreshScheduler keeps the reference data warm: the weapon table a
// few times a day, the R2 asset mirror once a day.
func (s *ResourceService) StartRefreshScheduler(ctx context.Context) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(6*time.Hour),
		gocron.NewTask(func() {
			if err := s.RefreshWeaponTable(); err != nil {
				log.Printf("[Scheduler] Weapon table refresh failed: %v", err)
			}
		}),
	)

	_, _ = sched.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() {
			n, err := s.MirrorAssets(ctx)
			if err != nil {
				log.Printf("[Scheduler] Asset mirror failed after %d uploads: %v", n, err)
				return
			}
			log.Printf("✅ Mirrored %d assets to R2", n)
		}),
	)
}
