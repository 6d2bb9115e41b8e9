package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"call_center_app_go/config"
	"call_center_app_go/services"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// syncTimeout caps one provider sync cycle
const syncTimeout = 2 * time.Minute

// StartScheduler registers the provider sync and the broadcast loop and starts them.
// A tick is skipped while the previous run of the same job is still going.
// Stop the returned cron to wait for running jobs on shutdown.
func StartScheduler(cfg *config.Config, database *gorm.DB, provider services.TelephonyProvider, out Broadcaster) (*cron.Cron, error) {
	c := cron.New(
		cron.WithLocation(cfg.Location()),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
	)

	_, err := c.AddFunc(every(cfg.SyncInterval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		if _, err := SyncProviderCalls(ctx, database, provider); err != nil {
			log.Printf("[SYNC] Cycle failed: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule call sync: %w", err)
	}

	_, err = c.AddFunc(every(cfg.BroadcastInterval), func() {
		if _, err := BroadcastTranscribedCalls(database, out); err != nil {
			log.Printf("[WS] Broadcast failed: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule broadcast: %w", err)
	}

	c.Start()
	log.Printf("[CRON] Scheduler started (sync every %s, broadcast every %s)", cfg.SyncInterval, cfg.BroadcastInterval)
	return c, nil
}

func every(d time.Duration) string {
	return "@every " + d.String()
}
