package jobs

import (
	"context"

	"sponsorhub-backend/internal/logger"
)

// RepairOrphanedIntents resets intents whose sponsorship row disappeared
// underneath them, so admins can convert them again.
func (jr *JobRunner) RepairOrphanedIntents() {
	jr.runWithRecovery("RepairOrphanedIntents", func(ctx context.Context) {
		repaired, err := jr.services.Maintenance.RepairOrphanedIntents(ctx)
		if err != nil {
			logger.Error("Failed to repair orphaned intents", "error", err)
			return
		}
		if len(repaired) > 0 {
			logger.Warn("Repaired orphaned intents", "count", len(repaired), "intent_ids", repaired)
			return
		}
		logger.Info("No orphaned intents found")
	})
}

// RecomputeSponsorStats rebuilds every sponsor's rollup from its sponsorships
func (jr *JobRunner) RecomputeSponsorStats() {
	jr.runWithRecovery("RecomputeSponsorStats", func(ctx context.Context) {
		n, err := jr.services.Maintenance.RecomputeAllStats(ctx)
		if err != nil {
			logger.Error("Failed to recompute sponsor stats", "error", err)
			return
		}
		logger.Info("Recomputed sponsor stats", "sponsors", n)
	})
}
