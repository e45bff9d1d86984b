package service

import (
	"context"
	"fmt"
	"time"

	"sponsorhub-backend/internal/domain"
	"sponsorhub-backend/internal/logger"
	"sponsorhub-backend/internal/repository"
	"sponsorhub-backend/internal/utils"
)

// StatsAggregator recomputes sponsor statistics from sponsorship rows
type StatsAggregator struct{}

func NewStatsAggregator() *StatsAggregator {
	return &StatsAggregator{}
}

// ComputeStats folds sponsorships into statistics; only active and completed ones count
func ComputeStats(sponsorships []domain.Sponsorship, now time.Time) domain.SponsorStats {
	var stats domain.SponsorStats
	orgs := make(map[int32]struct{})
	events := make(map[int32]struct{})

	for _, sp := range sponsorships {
		if !sp.Status.CountsTowardStats() {
			continue
		}
		v := sp.Contribution.Value
		stats.SponsorshipCount++
		stats.TotalContribution += v
		if v > stats.MaxContribution {
			stats.MaxContribution = v
		}
		orgs[sp.OrgID] = struct{}{}
		if sp.EventID != nil {
			events[*sp.EventID] = struct{}{}
		}
	}

	stats.OrganizationsSupported = int32(len(orgs))
	stats.EventsSupported = int32(len(events))
	stats.Tier = utils.TierFor(stats.TotalContribution)
	stats.UpdatedAt = &now
	return stats
}

func (a *StatsAggregator) Recompute(ctx context.Context, repos *repository.Repos, sponsorID int32) (*domain.SponsorStats, error) {
	logger.EnterMethod("StatsAggregator.Recompute", "sponsorID", sponsorID)

	sponsorships, err := repos.Sponsorships.ListBySponsor(ctx, sponsorID)
	if err != nil {
		logger.ExitMethodWithError("StatsAggregator.Recompute", err)
		return nil, fmt.Errorf("failed to list sponsorships for sponsor %d: %w", sponsorID, err)
	}

	stats := ComputeStats(sponsorships, time.Now().UTC())
	if err := repos.Sponsors.UpdateStats(ctx, sponsorID, stats); err != nil {
		logger.ExitMethodWithError("StatsAggregator.Recompute", err)
		return nil, fmt.Errorf("failed to store stats for sponsor %d: %w", sponsorID, err)
	}

	logger.ExitMethod("StatsAggregator.Recompute", "total", stats.TotalContribution, "tier", stats.Tier)
	return &stats, nil
}

// RecomputeQuietly is Recompute for read paths: failures are logged and nil is returned
func (a *StatsAggregator) RecomputeQuietly(ctx context.Context, repos *repository.Repos, sponsorID int32) *domain.SponsorStats {
	stats, err := a.Recompute(ctx, repos, sponsorID)
	if err != nil {
		logger.Warn("Sponsor stats recompute failed, serving stored stats", "sponsorID", sponsorID, "error", err)
		return nil
	}
	return stats
}
