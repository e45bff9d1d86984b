package service

import (
	"context"
	"errors"
	"fmt"

	"sponsorhub-backend/internal/domain"
	"sponsorhub-backend/internal/logger"
	"sponsorhub-backend/internal/repository"
	"sponsorhub-backend/internal/utils"
)

type maintenanceService struct {
	store    repository.TxManager
	repos    *repository.Repos
	authz    Authorizer
	stats    *StatsAggregator
	recorder *Recorder
}

func NewMaintenanceService(store repository.TxManager, repos *repository.Repos, authz Authorizer, stats *StatsAggregator, recorder *Recorder) MaintenanceService {
	return &maintenanceService{
		store:    store,
		repos:    repos,
		authz:    authz,
		stats:    stats,
		recorder: recorder,
	}
}

// RepairOrphanedIntents clears references to sponsorships that no longer exist and puts
// each intent back where it can be converted again
func (s *maintenanceService) RepairOrphanedIntents(ctx context.Context) ([]int32, error) {
	logger.EnterMethod("maintenanceService.RepairOrphanedIntents")

	orphans, err := s.repos.Intents.ListOrphaned(ctx)
	if err != nil {
		logger.ExitMethodWithError("maintenanceService.RepairOrphanedIntents", err)
		return nil, fmt.Errorf("failed to list orphaned intents: %w", err)
	}

	repaired := make([]int32, 0, len(orphans))
	var errs []error
	for i := range orphans {
		intent := &orphans[i]
		err := s.store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repos) error {
			stale := *intent.ConvertedTo
			prev := intent.Status
			intent.ConvertedTo = nil
			intent.SponsorshipDeleted = true
			if intent.IsPaid() {
				intent.Status = domain.IntentStatusApproved
			} else {
				intent.Status = domain.IntentStatusPending
			}
			if err := repos.Intents.Update(ctx, intent); err != nil {
				return err
			}
			return s.recorder.Append(ctx, repos.History, s.recorder.FieldChanged(intent.ID, nil, domain.FieldChange{
				Field:    "status",
				OldValue: utils.FormatEnum(string(prev)),
				NewValue: utils.FormatEnum(string(intent.Status)),
			}, fmt.Sprintf("linked sponsorship %d no longer exists, reference cleared", stale)))
		})
		if err != nil {
			logger.Error("Failed to repair orphaned intent", "intentID", intent.ID, "error", err)
			errs = append(errs, fmt.Errorf("intent %d: %w", intent.ID, err))
			continue
		}
		repaired = append(repaired, intent.ID)
	}

	logger.Info("Orphaned intents repaired", "found", len(orphans), "repaired", len(repaired))
	logger.ExitMethod("maintenanceService.RepairOrphanedIntents", "repaired", len(repaired))
	return repaired, errors.Join(errs...)
}

// MergeDuplicateSponsors folds sponsor profiles sharing an email into the newest one
func (s *maintenanceService) MergeDuplicateSponsors(ctx context.Context) (int, error) {
	logger.EnterMethod("maintenanceService.MergeDuplicateSponsors")

	groups, err := s.repos.Sponsors.ListDuplicateGroups(ctx)
	if err != nil {
		logger.ExitMethodWithError("maintenanceService.MergeDuplicateSponsors", err)
		return 0, fmt.Errorf("failed to list duplicate sponsors: %w", err)
	}

	removed := 0
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		keep := group[0]
		err := s.store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repos) error {
			for _, dup := range group[1:] {
				moved, err := repos.Sponsorships.Reassign(ctx, dup.ID, keep.ID)
				if err != nil {
					return err
				}
				if err := repos.Sponsors.Delete(ctx, dup.ID); err != nil {
					return err
				}
				logger.Info("Duplicate sponsor merged", "from", dup.ID, "into", keep.ID, "sponsorships", moved)
			}
			_, err := s.stats.Recompute(ctx, repos, keep.ID)
			return err
		})
		if err != nil {
			logger.ExitMethodWithError("maintenanceService.MergeDuplicateSponsors", err, "sponsorID", keep.ID)
			return removed, fmt.Errorf("failed to merge sponsors into %d: %w", keep.ID, err)
		}
		removed += len(group) - 1
	}

	logger.ExitMethod("maintenanceService.MergeDuplicateSponsors", "removed", removed)
	return removed, nil
}

func (s *maintenanceService) RecomputeAllStats(ctx context.Context) (int, error) {
	logger.EnterMethod("maintenanceService.RecomputeAllStats")

	ids, err := s.repos.Sponsors.ListIDs(ctx)
	if err != nil {
		logger.ExitMethodWithError("maintenanceService.RecomputeAllStats", err)
		return 0, fmt.Errorf("failed to list sponsors: %w", err)
	}

	done := 0
	var errs []error
	for _, id := range ids {
		if _, err := s.stats.Recompute(ctx, s.repos, id); err != nil {
			errs = append(errs, err)
			continue
		}
		done++
	}

	logger.ExitMethod("maintenanceService.RecomputeAllStats", "recomputed", done, "failed", len(errs))
	return done, errors.Join(errs...)
}

func (s *maintenanceService) ExportOrganizationReport(ctx context.Context, adminID, orgID int32) ([]byte, error) {
	logger.EnterMethod("maintenanceService.ExportOrganizationReport", "adminID", adminID, "orgID", orgID)

	if err := requireAdmin(ctx, s.authz, adminID, orgID); err != nil {
		logger.ExitMethodWithError("maintenanceService.ExportOrganizationReport", err)
		return nil, err
	}
	org, err := s.repos.Orgs.GetByID(ctx, orgID)
	if err != nil {
		logger.ExitMethodWithError("maintenanceService.ExportOrganizationReport", err)
		return nil, err
	}
	sponsorships, err := s.repos.Sponsorships.ListByOrg(ctx, orgID)
	if err != nil {
		logger.ExitMethodWithError("maintenanceService.ExportOrganizationReport", err)
		return nil, err
	}

	names := make(map[int32]string)
	for _, sp := range sponsorships {
		if _, ok := names[sp.SponsorID]; ok {
			continue
		}
		sponsor, err := s.repos.Sponsors.GetByID(ctx, sp.SponsorID)
		if err != nil {
			logger.Warn("Sponsor missing from report", "sponsorID", sp.SponsorID, "error", err)
			names[sp.SponsorID] = sp.Recognition.DisplayName
			continue
		}
		names[sp.SponsorID] = sponsor.Name
	}

	data, err := BuildSponsorshipReport(org.Name, sponsorships, names)
	if err != nil {
		logger.ExitMethodWithError("maintenanceService.ExportOrganizationReport", err)
		return nil, err
	}

	logger.ExitMethod("maintenanceService.ExportOrganizationReport", "rows", len(sponsorships), "bytes", len(data))
	return data, nil
}
