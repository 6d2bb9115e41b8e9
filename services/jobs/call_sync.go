package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"call_center_app_go/models"
	"call_center_app_go/services"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// detailConcurrency bounds simultaneous provider detail requests
const detailConcurrency = 5

// SyncResult summarizes one sync cycle
type SyncResult struct {
	Listed   int
	Upserted int
	Skipped  int
}

// SyncProviderCalls lists recent calls, fetches each detail and upserts it by SID.
// A failed detail is skipped; a failed list aborts the cycle.
func SyncProviderCalls(ctx context.Context, db *gorm.DB, provider services.TelephonyProvider) (result *SyncResult, err error) {
	start := time.Now()
	defer func() { observe("call_sync", start, err) }()

	summaries, err := provider.ListCalls(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list provider calls: %w", err)
	}
	result = &SyncResult{Listed: len(summaries)}

	details := make([]*models.Call, len(summaries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detailConcurrency)
	for i, summary := range summaries {
		g.Go(func() error {
			detail, err := provider.GetCallDetail(gctx, summary.Sid)
			if err != nil {
				log.Printf("[SYNC] Error fetching details for %s: %v", summary.Sid, err)
				return nil
			}
			details[i] = detail
			return nil
		})
	}
	_ = g.Wait()

	for _, detail := range details {
		if detail == nil {
			result.Skipped++
			continue
		}
		if err := services.UpsertCall(db, detail); err != nil {
			log.Printf("[SYNC] %v", err)
			result.Skipped++
			continue
		}
		result.Upserted++
	}
	callsUpsertedTotal.Add(float64(result.Upserted))

	log.Printf("[SYNC] Synced %d of %d calls", result.Upserted, result.Listed)
	return result, nil
}
