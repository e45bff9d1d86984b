package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sponsorhub-backend/internal/domain"
	"sponsorhub-backend/internal/logger"
	"sponsorhub-backend/internal/repository"
	"sponsorhub-backend/internal/utils"
)

type sponsorshipService struct {
	repos *repository.Repos
	authz Authorizer
	stats *StatsAggregator
}

func NewSponsorshipService(repos *repository.Repos, authz Authorizer, stats *StatsAggregator) SponsorshipService {
	return &sponsorshipService{repos: repos, authz: authz, stats: stats}
}

func (s *sponsorshipService) UpdateSponsorship(ctx context.Context, adminID, sponsorshipID int32, edit SponsorshipEdit) (*domain.Sponsorship, error) {
	logger.EnterMethod("sponsorshipService.UpdateSponsorship", "adminID", adminID, "sponsorshipID", sponsorshipID)

	sp, err := s.repos.Sponsorships.GetByID(ctx, sponsorshipID)
	if err != nil {
		logger.ExitMethodWithError("sponsorshipService.UpdateSponsorship", err)
		return nil, err
	}
	if err := requireAdmin(ctx, s.authz, adminID, sp.OrgID); err != nil {
		logger.ExitMethodWithError("sponsorshipService.UpdateSponsorship", err)
		return nil, err
	}
	if edit.Value != nil && *edit.Value < 0 {
		err := fmt.Errorf("%w: sponsorship value must not be negative", domain.ErrValidation)
		logger.ExitMethodWithError("sponsorshipService.UpdateSponsorship", err)
		return nil, err
	}
	if t := edit.TierOverride; t != nil && *t != domain.TierCommunity && t.Rank() == 0 {
		err := fmt.Errorf("%w: unknown tier %q", domain.ErrValidation, *t)
		logger.ExitMethodWithError("sponsorshipService.UpdateSponsorship", err)
		return nil, err
	}

	oldValue := sp.Contribution.Value
	if edit.Description != nil {
		sp.Contribution.Description = *edit.Description
	}
	if edit.Currency != nil {
		sp.Contribution.Currency = strings.ToUpper(strings.TrimSpace(*edit.Currency))
	}
	if edit.Value != nil {
		sp.Contribution.Value = *edit.Value
	}
	if edit.Delivered != nil {
		sp.Contribution.Delivered = *edit.Delivered
	}

	switch {
	case edit.TierOverride != nil:
		sp.Tier = domain.Tier{
			Name:           *edit.TierOverride,
			CalculatedFrom: sp.Contribution.Value,
			CalculatedAt:   time.Now().UTC(),
			ManualOverride: true,
		}
	case !sp.Tier.ManualOverride && sp.Contribution.Value != oldValue:
		sp.Tier = utils.CalculateTier(sp.Contribution.Value)
	}

	if err := s.repos.Sponsorships.Update(ctx, sp); err != nil {
		logger.ExitMethodWithError("sponsorshipService.UpdateSponsorship", err)
		return nil, fmt.Errorf("failed to update sponsorship: %w", err)
	}
	if sp.Status.CountsTowardRollups() {
		if err := adjustRollups(ctx, s.repos, sp.OrgID, sp.EventID, 0, sp.Contribution.Value-oldValue); err != nil {
			logger.ExitMethodWithError("sponsorshipService.UpdateSponsorship", err)
			return nil, err
		}
	}
	if _, err := s.stats.Recompute(ctx, s.repos, sp.SponsorID); err != nil {
		logger.ExitMethodWithError("sponsorshipService.UpdateSponsorship", err)
		return nil, err
	}

	logger.Info("Sponsorship edited by admin", "sponsorshipID", sp.ID, "adminID", adminID, "value", sp.Contribution.Value, "tier", sp.Tier.Name)
	logger.ExitMethod("sponsorshipService.UpdateSponsorship", "tier", sp.Tier.Name)
	return sp, nil
}

func (s *sponsorshipService) ListOrganizationSponsorships(ctx context.Context, adminID, orgID int32) ([]domain.Sponsorship, error) {
	if err := requireAdmin(ctx, s.authz, adminID, orgID); err != nil {
		return nil, err
	}
	return s.repos.Sponsorships.ListByOrg(ctx, orgID)
}

// ListReceipts is visible to org admins and to the account behind the sponsor profile
func (s *sponsorshipService) ListReceipts(ctx context.Context, actorID, sponsorshipID int32) ([]domain.Receipt, error) {
	sp, err := s.repos.Sponsorships.GetByID(ctx, sponsorshipID)
	if err != nil {
		return nil, err
	}

	sponsor, err := s.repos.Sponsors.GetByID(ctx, sp.SponsorID)
	if err != nil {
		return nil, err
	}
	if sponsor.UserID != actorID {
		if err := requireAdmin(ctx, s.authz, actorID, sp.OrgID); err != nil {
			return nil, err
		}
	}
	return s.repos.Receipts.ListBySponsorship(ctx, sponsorshipID)
}
