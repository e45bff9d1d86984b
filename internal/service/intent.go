package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"sponsorhub-backend/internal/domain"
	"sponsorhub-backend/internal/logger"
	"sponsorhub-backend/internal/repository"
)

type intentService struct {
	repos           *repository.Repos
	authz           Authorizer
	stats           *StatsAggregator
	recorder        *Recorder
	notifier        Notifier
	defaultCurrency string
}

func NewIntentService(repos *repository.Repos, authz Authorizer, stats *StatsAggregator, recorder *Recorder, notifier Notifier, defaultCurrency string) IntentService {
	if defaultCurrency == "" {
		defaultCurrency = "INR"
	}
	return &intentService{
		repos:           repos,
		authz:           authz,
		stats:           stats,
		recorder:        recorder,
		notifier:        notifier,
		defaultCurrency: defaultCurrency,
	}
}

// validate normalizes the input in place and checks the submission rules
func (s *intentService) validate(ctx context.Context, input *IntentInput) error {
	snap := &input.Sponsor
	snap.Name = strings.TrimSpace(snap.Name)
	snap.Email = strings.ToLower(strings.TrimSpace(snap.Email))
	snap.Phone = strings.TrimSpace(snap.Phone)

	if snap.Name == "" {
		return fmt.Errorf("%w: sponsor name is required", domain.ErrValidation)
	}
	if snap.Email == "" || snap.Phone == "" {
		return fmt.Errorf("%w: sponsor email and phone are required", domain.ErrValidation)
	}
	if _, err := mail.ParseAddress(snap.Email); err != nil {
		return fmt.Errorf("%w: invalid sponsor email %q", domain.ErrValidation, snap.Email)
	}
	switch snap.Type {
	case "":
		snap.Type = domain.SponsorTypeIndividual
	case domain.SponsorTypeIndividual, domain.SponsorTypeOrganization:
	case domain.SponsorTypeBusiness:
		if snap.Business == nil || strings.TrimSpace(snap.Business.CompanyName) == "" {
			return fmt.Errorf("%w: business sponsors need a company name", domain.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown sponsor type %q", domain.ErrValidation, snap.Type)
	}

	offer := &input.Sponsorship
	if !offer.Type.Valid() {
		return fmt.Errorf("%w: unknown sponsorship type %q", domain.ErrValidation, offer.Type)
	}
	if offer.EstimatedValue < 0 {
		return fmt.Errorf("%w: sponsorship value must not be negative", domain.ErrValidation)
	}
	offer.Currency = strings.ToUpper(strings.TrimSpace(offer.Currency))
	if offer.Currency == "" {
		offer.Currency = s.defaultCurrency
	}

	if _, err := s.repos.Orgs.GetByID(ctx, input.OrgID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: organization %d does not exist", domain.ErrValidation, input.OrgID)
		}
		return err
	}
	if input.EventID != nil {
		event, err := s.repos.Events.GetByID(ctx, *input.EventID)
		if errors.Is(err, domain.ErrNotFound) || (err == nil && event.OrgID != input.OrgID) {
			return fmt.Errorf("%w: event %d does not belong to organization %d", domain.ErrValidation, *input.EventID, input.OrgID)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *intentService) SubmitIntent(ctx context.Context, actorID *int32, input IntentInput) (*domain.SponsorshipIntent, error) {
	logger.EnterMethod("intentService.SubmitIntent", "orgID", input.OrgID, "anonymous", actorID == nil)

	if err := s.validate(ctx, &input); err != nil {
		logger.ExitMethodWithError("intentService.SubmitIntent", err)
		return nil, err
	}

	// the snapshot links to the submitting account, never to one named in the payload
	input.Sponsor.UserID = actorID

	intent := &domain.SponsorshipIntent{
		OrgID:       input.OrgID,
		EventID:     input.EventID,
		Sponsor:     input.Sponsor,
		Sponsorship: input.Sponsorship,
		Status:      domain.IntentStatusPending,
		Payment: domain.Payment{
			Status:   domain.PaymentStatusPending,
			Amount:   input.Sponsorship.EstimatedValue,
			Currency: input.Sponsorship.Currency,
		},
	}
	if err := s.repos.Intents.Create(ctx, intent); err != nil {
		logger.ExitMethodWithError("intentService.SubmitIntent", err)
		return nil, fmt.Errorf("failed to create intent: %w", err)
	}
	if err := s.recorder.Append(ctx, s.repos.History, s.recorder.Created(intent, actorID)); err != nil {
		logger.ExitMethodWithError("intentService.SubmitIntent", err)
		return nil, err
	}

	logger.Info("Sponsorship intent submitted", "intentID", intent.ID, "orgID", intent.OrgID, "type", intent.Sponsorship.Type, "value", intent.Sponsorship.EstimatedValue)
	s.notifier.IntentSubmitted(ctx, intent)

	logger.ExitMethod("intentService.SubmitIntent", "intentID", intent.ID)
	return intent, nil
}

func (s *intentService) UpdateIntent(ctx context.Context, actorID, intentID int32, input IntentInput) (*domain.SponsorshipIntent, error) {
	logger.EnterMethod("intentService.UpdateIntent", "actorID", actorID, "intentID", intentID)

	intent, err := s.repos.Intents.GetByID(ctx, intentID)
	if err != nil {
		logger.ExitMethodWithError("intentService.UpdateIntent", err)
		return nil, err
	}
	if !intent.IsOwnedBy(actorID) {
		logger.ExitMethodWithError("intentService.UpdateIntent", domain.ErrNotIntentOwner)
		return nil, domain.ErrNotIntentOwner
	}
	if !intent.IsEditableByOwner() {
		logger.ExitMethodWithError("intentService.UpdateIntent", domain.ErrIntentLocked, "status", intent.Status)
		return nil, domain.ErrIntentLocked
	}

	// the organization is fixed once submitted
	input.OrgID = intent.OrgID
	if err := s.validate(ctx, &input); err != nil {
		logger.ExitMethodWithError("intentService.UpdateIntent", err)
		return nil, err
	}

	old := *intent
	input.Sponsor.UserID = intent.Sponsor.UserID
	intent.EventID = input.EventID
	intent.Sponsor = input.Sponsor
	intent.Sponsorship = input.Sponsorship
	if !intent.IsPaid() {
		intent.Payment.Amount = input.Sponsorship.EstimatedValue
		intent.Payment.Currency = input.Sponsorship.Currency
	}
	if intent.Status == domain.IntentStatusChangesRequested {
		intent.Status = domain.IntentStatusUnderReview
	}

	entry, changed := s.recorder.Updated(&old, intent, &actorID)
	if !changed {
		logger.ExitMethod("intentService.UpdateIntent", "changed", false)
		return intent, nil
	}
	if err := s.repos.Intents.Update(ctx, intent); err != nil {
		logger.ExitMethodWithError("intentService.UpdateIntent", err)
		return nil, fmt.Errorf("failed to update intent: %w", err)
	}
	if err := s.recorder.Append(ctx, s.repos.History, entry); err != nil {
		logger.ExitMethodWithError("intentService.UpdateIntent", err)
		return nil, err
	}

	logger.Info("Sponsorship intent edited", "intentID", intent.ID, "fields", len(entry.Changes), "status", intent.Status)
	logger.ExitMethod("intentService.UpdateIntent", "status", intent.Status)
	return intent, nil
}

func (s *intentService) DeleteIntent(ctx context.Context, actorID, intentID int32) error {
	logger.EnterMethod("intentService.DeleteIntent", "actorID", actorID, "intentID", intentID)

	intent, err := s.repos.Intents.GetByID(ctx, intentID)
	if err != nil {
		logger.ExitMethodWithError("intentService.DeleteIntent", err)
		return err
	}
	if !intent.IsOwnedBy(actorID) {
		logger.ExitMethodWithError("intentService.DeleteIntent", domain.ErrNotIntentOwner)
		return domain.ErrNotIntentOwner
	}
	if intent.Status == domain.IntentStatusConverted || intent.ConvertedTo != nil {
		logger.ExitMethodWithError("intentService.DeleteIntent", domain.ErrIntentLocked, "status", intent.Status)
		return domain.ErrIntentLocked
	}

	if err := s.repos.Intents.Delete(ctx, intentID); err != nil {
		logger.ExitMethodWithError("intentService.DeleteIntent", err)
		return fmt.Errorf("failed to delete intent: %w", err)
	}

	logger.Info("Sponsorship intent deleted", "intentID", intentID, "actorID", actorID)
	logger.ExitMethod("intentService.DeleteIntent")
	return nil
}

// loadVisible returns the intent when actorID owns it or administers its organization
func (s *intentService) loadVisible(ctx context.Context, actorID, intentID int32) (*domain.SponsorshipIntent, error) {
	intent, err := s.repos.Intents.GetByID(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if intent.IsOwnedBy(actorID) {
		return intent, nil
	}
	if err := requireAdmin(ctx, s.authz, actorID, intent.OrgID); err != nil {
		return nil, err
	}
	return intent, nil
}

func (s *intentService) GetIntent(ctx context.Context, actorID, intentID int32) (*domain.SponsorshipIntent, error) {
	return s.loadVisible(ctx, actorID, intentID)
}

func (s *intentService) ListMyIntents(ctx context.Context, actorID int32) ([]domain.SponsorshipIntent, error) {
	return s.repos.Intents.ListBySponsorUser(ctx, actorID)
}

func (s *intentService) ListOrganizationIntents(ctx context.Context, adminID, orgID int32, status domain.IntentStatus) ([]domain.SponsorshipIntent, error) {
	if err := requireAdmin(ctx, s.authz, adminID, orgID); err != nil {
		return nil, err
	}
	return s.repos.Intents.ListByOrg(ctx, orgID, status)
}

func (s *intentService) ListHistory(ctx context.Context, actorID, intentID int32) ([]domain.ChangeHistoryEntry, error) {
	if _, err := s.loadVisible(ctx, actorID, intentID); err != nil {
		return nil, err
	}
	return s.repos.History.ListByIntent(ctx, intentID)
}

func (s *intentService) GetSponsorProfile(ctx context.Context, userID int32) (*domain.Sponsor, error) {
	sponsor, err := s.repos.Sponsors.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if stats := s.stats.RecomputeQuietly(ctx, s.repos, sponsor.ID); stats != nil {
		sponsor.Stats = *stats
	}
	return sponsor, nil
}
