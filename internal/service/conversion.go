package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sponsorhub-backend/internal/domain"
	"sponsorhub-backend/internal/logger"
	"sponsorhub-backend/internal/repository"
	"sponsorhub-backend/internal/utils"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type ConversionKind string

const (
	ConversionCreated  ConversionKind = "created"
	ConversionUpdated  ConversionKind = "updated"
	ConversionRepaired ConversionKind = "repaired"
)

type ConversionResult struct {
	Kind        ConversionKind      `json:"kind"`
	Sponsorship *domain.Sponsorship `json:"sponsorship"`
	SponsorID   int32               `json:"sponsorId"`
}

// ConversionEngine materializes exactly one sponsorship per intent
type ConversionEngine struct {
	stats *StatsAggregator
}

func NewConversionEngine(stats *StatsAggregator) *ConversionEngine {
	return &ConversionEngine{stats: stats}
}

// Convert creates or updates the sponsorship for an approved intent whose payment
// requirement is met. It sets intent.ConvertedTo; the caller persists the intent.
func (e *ConversionEngine) Convert(ctx context.Context, repos *repository.Repos, intent *domain.SponsorshipIntent, actorID *int32) (*ConversionResult, error) {
	logger.EnterMethod("ConversionEngine.Convert", "intentID", intent.ID, "convertedTo", intent.ConvertedTo)

	if intent.Status != domain.IntentStatusApproved {
		logger.ExitMethodWithError("ConversionEngine.Convert", domain.ErrNotApproved, "status", intent.Status)
		return nil, domain.ErrNotApproved
	}
	if intent.RequiresPayment() {
		logger.ExitMethodWithError("ConversionEngine.Convert", domain.ErrPaymentRequired)
		return nil, domain.ErrPaymentRequired
	}

	user, err := e.resolveAccount(ctx, repos, intent)
	if err != nil {
		logger.ExitMethodWithError("ConversionEngine.Convert", err, "step", "account")
		return nil, err
	}
	sponsor, err := e.resolveSponsor(ctx, repos, user, intent)
	if err != nil {
		logger.ExitMethodWithError("ConversionEngine.Convert", err, "step", "sponsor")
		return nil, err
	}

	// A sponsorship may exist for this intent without the intent pointing at it,
	// e.g. after a crash between the sponsorship insert and the intent write.
	if intent.ConvertedTo == nil {
		existing, err := repos.Sponsorships.GetByIntentID(ctx, intent.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			logger.ExitMethodWithError("ConversionEngine.Convert", err, "step", "lookup")
			return nil, err
		}
		if existing != nil {
			intent.ConvertedTo = &existing.ID
		}
	}

	result := &ConversionResult{SponsorID: sponsor.ID}
	if intent.ConvertedTo == nil {
		result.Kind = ConversionCreated
		result.Sponsorship, err = e.create(ctx, repos, intent, sponsor)
	} else {
		var missing bool
		result.Kind = ConversionUpdated
		result.Sponsorship, missing, err = e.update(ctx, repos, intent, sponsor, actorID)
		if missing {
			logger.Warn("Converted sponsorship missing, reconciling", "intentID", intent.ID, "staleSponsorshipID", *intent.ConvertedTo)
			intent.ConvertedTo = nil
			intent.Status = domain.IntentStatusPending
			result.Kind = ConversionRepaired
			result.Sponsorship, err = e.create(ctx, repos, intent, sponsor)
			intent.Status = domain.IntentStatusApproved
		}
	}
	if err != nil {
		logger.ExitMethodWithError("ConversionEngine.Convert", err, "step", result.Kind)
		return nil, err
	}

	intent.ConvertedTo = &result.Sponsorship.ID
	intent.SponsorshipDeleted = false

	if _, err := e.stats.Recompute(ctx, repos, sponsor.ID); err != nil {
		logger.ExitMethodWithError("ConversionEngine.Convert", err, "step", "stats")
		return nil, err
	}

	logger.Info("Intent converted", "intentID", intent.ID, "sponsorshipID", result.Sponsorship.ID, "kind", result.Kind, "tier", result.Sponsorship.Tier.Name)
	logger.ExitMethod("ConversionEngine.Convert", "sponsorshipID", result.Sponsorship.ID)
	return result, nil
}

func (e *ConversionEngine) resolveAccount(ctx context.Context, repos *repository.Repos, intent *domain.SponsorshipIntent) (*domain.User, error) {
	var user *domain.User
	if intent.Sponsor.UserID != nil {
		u, err := repos.Users.GetByID(ctx, *intent.Sponsor.UserID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("failed to load sponsor account: %w", err)
		}
		user = u
	}

	if user == nil {
		u, err := repos.Users.GetByEmail(ctx, intent.Sponsor.Email)
		switch {
		case err == nil:
			user = u
		case errors.Is(err, domain.ErrNotFound):
			user, err = createPlaceholderUser(ctx, repos, intent.Sponsor)
			if err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("failed to look up sponsor account: %w", err)
		}
	}

	if !user.IsSponsor {
		user.IsSponsor = true
		if err := repos.Users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to flag sponsor account: %w", err)
		}
	}

	id := user.ID
	intent.Sponsor.UserID = &id
	return user, nil
}

func createPlaceholderUser(ctx context.Context, repos *repository.Repos, snap domain.SponsorSnapshot) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash placeholder password: %w", err)
	}
	user := &domain.User{
		Email:         strings.TrimSpace(snap.Email),
		PhoneNumber:   snap.Phone,
		PasswordHash:  string(hash),
		Name:          snap.Name,
		IsSponsor:     true,
		IsPlaceholder: true,
	}
	if err := repos.Users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create placeholder account: %w", err)
	}
	logger.Info("Placeholder sponsor account created", "userID", user.ID)
	return user, nil
}

func (e *ConversionEngine) resolveSponsor(ctx context.Context, repos *repository.Repos, user *domain.User, intent *domain.SponsorshipIntent) (*domain.Sponsor, error) {
	sponsor, err := repos.Sponsors.GetByUserID(ctx, user.ID)
	if errors.Is(err, domain.ErrNotFound) {
		snap := intent.Sponsor
		sponsor = &domain.Sponsor{
			UserID:   user.ID,
			Name:     snap.Name,
			Email:    snap.Email,
			Phone:    snap.Phone,
			Type:     snap.Type,
			Business: snap.Business,
			Location: snap.Location,
			Stats:    domain.SponsorStats{Tier: domain.TierCommunity},
		}
		if sponsor.Type == "" {
			sponsor.Type = domain.SponsorTypeIndividual
		}
		if err := repos.Sponsors.Create(ctx, sponsor); err != nil {
			return nil, fmt.Errorf("failed to create sponsor profile: %w", err)
		}
		return sponsor, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sponsor profile: %w", err)
	}

	if sponsor.PatchFrom(intent.Sponsor) {
		if err := repos.Sponsors.Update(ctx, sponsor); err != nil {
			return nil, fmt.Errorf("failed to update sponsor profile: %w", err)
		}
	}
	return sponsor, nil
}

func recognitionFrom(intent *domain.SponsorshipIntent) domain.Recognition {
	r := domain.Recognition{DisplayName: intent.Sponsor.Name}
	if b := intent.Sponsor.Business; b != nil {
		if b.CompanyName != "" {
			r.DisplayName = b.CompanyName
		}
		r.LogoURL = b.LogoURL
		r.Website = b.Website
	}
	return r
}

func contributionFrom(intent *domain.SponsorshipIntent) domain.Contribution {
	return domain.Contribution{
		Type:        intent.Sponsorship.Type,
		Description: intent.Sponsorship.Description,
		Value:       intent.Sponsorship.EstimatedValue,
		Currency:    intent.Sponsorship.Currency,
	}
}

func (e *ConversionEngine) create(ctx context.Context, repos *repository.Repos, intent *domain.SponsorshipIntent, sponsor *domain.Sponsor) (*domain.Sponsorship, error) {
	intentID := intent.ID
	sp := &domain.Sponsorship{
		SponsorID:    sponsor.ID,
		OrgID:        intent.OrgID,
		EventID:      intent.EventID,
		IntentID:     &intentID,
		Contribution: contributionFrom(intent),
		Tier:         utils.CalculateTier(intent.Sponsorship.EstimatedValue),
		Recognition:  recognitionFrom(intent),
		Status:       domain.SponsorshipStatusActive,
		Payment:      intent.Payment,
	}
	if err := repos.Sponsorships.Create(ctx, sp); err != nil {
		return nil, fmt.Errorf("failed to create sponsorship: %w", err)
	}
	if err := adjustRollups(ctx, repos, sp.OrgID, sp.EventID, 1, sp.Contribution.Value); err != nil {
		return nil, err
	}
	return sp, nil
}

// update rewrites the linked sponsorship in place; missing reports that it no longer exists
func (e *ConversionEngine) update(ctx context.Context, repos *repository.Repos, intent *domain.SponsorshipIntent, sponsor *domain.Sponsor, actorID *int32) (*domain.Sponsorship, bool, error) {
	sp, err := repos.Sponsorships.GetByID(ctx, *intent.ConvertedTo)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	oldValue := sp.Contribution.Value
	wasCounted := sp.Status.CountsTowardRollups()

	delivered := sp.Contribution.Delivered
	sp.Contribution = contributionFrom(intent)
	sp.Contribution.Delivered = delivered
	if !sp.Tier.ManualOverride {
		sp.Tier = utils.CalculateTier(sp.Contribution.Value)
	}
	sp.Recognition = recognitionFrom(intent)
	sp.Payment = intent.Payment
	sp.SponsorID = sponsor.ID
	if sp.Status == domain.SponsorshipStatusSuspended || sp.Status == domain.SponsorshipStatusCancelled {
		now := time.Now().UTC()
		sp.Status = domain.SponsorshipStatusActive
		sp.Suspension.ReactivatedAt = &now
		sp.Suspension.ReactivatedBy = actorID
	}

	if err := repos.Sponsorships.Update(ctx, sp); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("failed to update sponsorship: %w", err)
	}

	if wasCounted {
		err = adjustRollups(ctx, repos, sp.OrgID, sp.EventID, 0, sp.Contribution.Value-oldValue)
	} else {
		err = adjustRollups(ctx, repos, sp.OrgID, sp.EventID, 1, sp.Contribution.Value)
	}
	if err != nil {
		return nil, false, err
	}
	return sp, false, nil
}

// adjustRollups applies the same delta to the organization and, when present, the event counters
func adjustRollups(ctx context.Context, repos *repository.Repos, orgID int32, eventID *int32, countDelta int32, totalDelta float64) error {
	if countDelta == 0 && totalDelta == 0 {
		return nil
	}
	if err := repos.Orgs.AdjustRollup(ctx, orgID, countDelta, totalDelta); err != nil {
		return fmt.Errorf("failed to adjust organization rollup: %w", err)
	}
	if eventID != nil {
		if err := repos.Events.AdjustRollup(ctx, *eventID, countDelta, totalDelta); err != nil {
			return fmt.Errorf("failed to adjust event rollup: %w", err)
		}
	}
	return nil
}
