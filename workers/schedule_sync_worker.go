// workers/schedule_sync_worker.go
package workers

import (
	"context"
	"log"
	"time"

	"coop-results-system/services"
)

// ScheduleSyncWorker polls the public rotation feed so public-mode results
// can resolve their schedule without a client round trip. Rotations change
// every day or two; an hourly poll picks up new phases well before any
// result for them can arrive.
type ScheduleSyncWorker struct {
	schedules *services.ScheduleService
	interval  time.Duration
}

func NewScheduleSyncWorker(schedules *services.ScheduleService) *ScheduleSyncWorker {
	return &ScheduleSyncWorker{
		schedules: schedules,
		interval:  1 * time.Hour,
	}
}

func (w *ScheduleSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Schedule Sync Worker…")
	go w.run(ctx)
}

func (w *ScheduleSyncWorker) run(ctx context.Context) {
	// Initial fetch so a cold database can serve results right away.
	if _, err := w.schedules.FetchPhases(); err != nil {
		log.Printf("⚠️ Initial schedule fetch failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			schedules, err := w.schedules.FetchPhases()
			if err != nil {
				log.Printf("❌ Schedule fetch failed: %v", err)
				continue
			}
			log.Printf("[SYNC] ✅ Synced %d schedule(s) from phase feed", len(schedules))
		case <-ctx.Done():
			log.Println("⏹️ Schedule Sync Worker stopped")
			return
		}
	}
}
