package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sponsorhub-backend/internal/domain"
	"sponsorhub-backend/internal/lock"
	"sponsorhub-backend/internal/logger"
	"sponsorhub-backend/internal/repository"
	"sponsorhub-backend/internal/utils"
)

type reviewService struct {
	repos    *repository.Repos
	authz    Authorizer
	engine   *ConversionEngine
	stats    *StatsAggregator
	recorder *Recorder
	receipts *ReceiptGenerator
	locker   lock.Locker
	lockTTL  time.Duration
	notifier Notifier
	now      func() time.Time
}

func NewReviewService(
	repos *repository.Repos,
	authz Authorizer,
	engine *ConversionEngine,
	stats *StatsAggregator,
	recorder *Recorder,
	receipts *ReceiptGenerator,
	locker lock.Locker,
	lockTTL time.Duration,
	notifier Notifier,
) ReviewService {
	return &reviewService{
		repos:    repos,
		authz:    authz,
		engine:   engine,
		stats:    stats,
		recorder: recorder,
		receipts: receipts,
		locker:   locker,
		lockTTL:  lockTTL,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// reviewState accumulates what a decision did before anything is persisted
type reviewState struct {
	intent     *domain.SponsorshipIntent
	actor      *int32
	entries    []domain.ChangeHistoryEntry
	conversion *ConversionResult
	receipt    *domain.Receipt
	release    lock.Release
}

func (s *reviewService) Review(ctx context.Context, adminID, intentID int32, decision domain.Decision) (*ReviewOutcome, error) {
	logger.EnterMethod("reviewService.Review", "adminID", adminID, "intentID", intentID, "decision", decision.Token())

	intent, err := s.repos.Intents.GetByID(ctx, intentID)
	if err != nil {
		logger.ExitMethodWithError("reviewService.Review", err)
		return nil, err
	}
	if err := requireAdmin(ctx, s.authz, adminID, intent.OrgID); err != nil {
		logger.ExitMethodWithError("reviewService.Review", err)
		return nil, err
	}

	prevStatus := intent.Status
	prevDecision := intent.Review.Decision
	st := &reviewState{intent: intent, actor: &adminID}
	defer func() {
		if st.release != nil {
			_ = st.release(ctx)
		}
	}()

	switch d := decision.(type) {
	case domain.Approve:
		err = s.approve(st)
	case domain.Reject:
		err = s.removeSponsorship(ctx, st)
		intent.Status = domain.IntentStatusRejected
	case domain.RequestChanges:
		err = s.suspend(ctx, st, d.Notes.Notes, false)
		intent.Status = domain.IntentStatusChangesRequested
	case domain.ConvertToSponsorship:
		err = s.convert(ctx, st, d)
	case domain.DeleteSponsorship:
		if err = requireStatus(intent, domain.IntentStatusConverted); err == nil {
			err = s.removeSponsorship(ctx, st)
			intent.Status = domain.IntentStatusRejected
		}
	case domain.SuspendSponsorship:
		if err = requireStatus(intent, domain.IntentStatusConverted); err == nil {
			err = s.suspend(ctx, st, d.Reason, true)
		}
	case domain.ReactivateSponsorship:
		if err = requireStatus(intent, domain.IntentStatusConverted); err == nil {
			err = s.reactivate(ctx, st)
		}
	default:
		err = fmt.Errorf("%w: %T", domain.ErrUnknownDecision, decision)
	}
	if err != nil {
		logger.ExitMethodWithError("reviewService.Review", err, "status", prevStatus)
		return nil, err
	}

	notes := decision.ReviewNotes()
	reviewedAt := s.now()
	intent.Review = domain.Review{
		Decision:   decision.Token(),
		ReviewedBy: st.actor,
		Notes:      notes.Notes,
		AdminNotes: notes.AdminNotes,
		ReviewedAt: &reviewedAt,
	}
	st.entries = append(st.entries, s.recorder.Reviewed(intent.ID, st.actor, prevDecision, decision.Token(), prevStatus, intent.Status, notes.Notes))

	if err := s.repos.Intents.Update(ctx, intent); err != nil {
		logger.ExitMethodWithError("reviewService.Review", err, "step", "persist")
		return nil, fmt.Errorf("failed to save intent: %w", err)
	}

	if err := s.recorder.Append(ctx, s.repos.History, st.entries...); err != nil {
		logger.ExitMethodWithError("reviewService.Review", err, "step", "history")
		return nil, err
	}

	logger.Info("Intent reviewed", "intentID", intent.ID, "adminID", adminID, "decision", decision.Token(), "from", prevStatus, "to", intent.Status)

	s.notifier.IntentReviewed(ctx, intent)
	if st.receipt != nil {
		s.notifier.PaymentVerified(ctx, intent, st.receipt)
	}

	logger.ExitMethod("reviewService.Review", "status", intent.Status)
	return &ReviewOutcome{Intent: intent, Conversion: st.conversion}, nil
}

func requireStatus(intent *domain.SponsorshipIntent, allowed ...domain.IntentStatus) error {
	for _, s := range allowed {
		if intent.Status == s {
			return nil
		}
	}
	return fmt.Errorf("%w: intent is %s", domain.ErrInvalidTransition, intent.Status)
}

// approve never resets a completed payment; re-approving a paid intent that already
// carried a decision records that the payment was kept
func (s *reviewService) approve(st *reviewState) error {
	intent := st.intent
	if intent.Review.Decision != "" && intent.IsPaid() {
		st.entries = append(st.entries, s.recorder.PaymentStatusChanged(intent.ID, st.actor,
			intent.Payment.Status, intent.Payment.Status, "payment preserved on re-approval"))
	}
	intent.Status = domain.IntentStatusApproved
	return nil
}

func (s *reviewService) convert(ctx context.Context, st *reviewState, d domain.ConvertToSponsorship) error {
	intent := st.intent
	if err := requireStatus(intent, domain.IntentStatusApproved); err != nil {
		return err
	}

	if u := d.Updates; u != nil {
		s.applyUpdates(st, u, d.Notes.Notes)
	}

	if intent.RequiresPayment() {
		if !d.ManualConversion {
			return domain.ErrPaymentRequired
		}
		if err := s.forcePayment(ctx, st, d.Notes.Notes); err != nil {
			return err
		}
	}

	result, err := s.engine.Convert(ctx, s.repos, intent, st.actor)
	if err != nil {
		return err
	}
	st.conversion = result
	intent.Status = domain.IntentStatusConverted

	// a manual payment whose first conversion failed before its receipt gets one now
	if intent.IsPaid() && intent.Payment.ManualVerification {
		rc, created, err := ensureManualReceipt(ctx, s.repos, s.receipts, result.Sponsorship, intent)
		if err != nil {
			return err
		}
		if created {
			st.receipt = rc
		}
	}
	return nil
}

// forcePayment completes the payment on the admin's word and claims it before anything
// else is written, so a racing verification leaves no sponsorship behind
func (s *reviewService) forcePayment(ctx context.Context, st *reviewState, notes string) error {
	intent := st.intent
	release, err := acquirePaymentLock(ctx, s.locker, s.lockTTL, intent.ID)
	if err != nil {
		return err
	}
	st.release = release

	prev := intent.Payment.Status
	if intent.Payment.Amount == 0 {
		intent.Payment.Amount = intent.Sponsorship.EstimatedValue
	}
	if intent.Payment.Currency == "" {
		intent.Payment.Currency = intent.Sponsorship.Currency
	}
	intent.Payment.Complete(domain.ManualAttestation{
		AttestedBy:  *st.actor,
		PaymentType: "manual",
		Amount:      intent.Sponsorship.EstimatedValue,
		Notes:       notes,
		Forced:      true,
	}, s.now())

	ok, err := s.repos.Intents.UpdateIfUnpaid(ctx, intent)
	if err == nil && !ok {
		err = domain.ErrPaymentAlreadyCompleted
	}
	if err != nil {
		return err
	}
	return s.recorder.Append(ctx, s.repos.History, s.recorder.PaymentStatusChanged(intent.ID, st.actor,
		prev, intent.Payment.Status, "payment recorded manually during conversion"))
}

func (s *reviewService) applyUpdates(st *reviewState, u *domain.SponsorshipUpdates, notes string) {
	intent := st.intent
	offer := &intent.Sponsorship
	change := func(field, oldValue, newValue string) {
		st.entries = append(st.entries, s.recorder.FieldChanged(intent.ID, st.actor,
			domain.FieldChange{Field: field, OldValue: oldValue, NewValue: newValue}, notes))
	}

	if u.Description != nil && *u.Description != offer.Description {
		change("sponsorship.description", utils.Truncate(offer.Description), utils.Truncate(*u.Description))
		offer.Description = *u.Description
	}
	if u.Currency != nil && *u.Currency != offer.Currency {
		change("sponsorship.currency", utils.FormatEnum(offer.Currency), utils.FormatEnum(*u.Currency))
		offer.Currency = *u.Currency
	}
	if u.Value != nil && *u.Value != offer.EstimatedValue {
		change("sponsorship.estimated_value",
			utils.FormatMoney(offer.EstimatedValue, offer.Currency),
			utils.FormatMoney(*u.Value, offer.Currency))
		offer.EstimatedValue = *u.Value
		if !intent.IsPaid() {
			intent.Payment.Amount = *u.Value
		}
	}
}

// linkedSponsorship loads the sponsorship the intent points at; nil when there is none
func (s *reviewService) linkedSponsorship(ctx context.Context, intent *domain.SponsorshipIntent) (*domain.Sponsorship, error) {
	if intent.ConvertedTo == nil {
		return nil, nil
	}
	sp, err := s.repos.Sponsorships.GetByID(ctx, *intent.ConvertedTo)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Warn("Intent points at a missing sponsorship", "intentID", intent.ID, "sponsorshipID", *intent.ConvertedTo)
		return nil, nil
	}
	return sp, err
}

func (s *reviewService) removeSponsorship(ctx context.Context, st *reviewState) error {
	intent := st.intent
	sp, err := s.linkedSponsorship(ctx, intent)
	if err != nil {
		return err
	}
	if intent.ConvertedTo != nil {
		intent.ConvertedTo = nil
		intent.SponsorshipDeleted = true
	}
	if sp == nil {
		return nil
	}

	if err := s.repos.Sponsorships.Delete(ctx, sp.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("failed to delete sponsorship: %w", err)
	}
	if sp.Status.CountsTowardRollups() {
		if err := adjustRollups(ctx, s.repos, sp.OrgID, sp.EventID, -1, -sp.Contribution.Value); err != nil {
			return err
		}
	}
	s.stats.RecomputeQuietly(ctx, s.repos, sp.SponsorID)

	logger.Info("Sponsorship deleted", "intentID", intent.ID, "sponsorshipID", sp.ID)
	return nil
}

func (s *reviewService) suspend(ctx context.Context, st *reviewState, reason string, required bool) error {
	sp, err := s.linkedSponsorship(ctx, st.intent)
	if err != nil {
		return err
	}
	if sp == nil {
		if required {
			return fmt.Errorf("sponsorship for intent %d: %w", st.intent.ID, domain.ErrNotFound)
		}
		return nil
	}
	if sp.Status == domain.SponsorshipStatusSuspended {
		return nil
	}

	now := s.now()
	sp.Status = domain.SponsorshipStatusSuspended
	sp.Suspension.SuspendedBy = st.actor
	sp.Suspension.SuspendedAt = &now
	sp.Suspension.Reason = reason
	if err := s.repos.Sponsorships.Update(ctx, sp); err != nil {
		return fmt.Errorf("failed to suspend sponsorship: %w", err)
	}
	s.stats.RecomputeQuietly(ctx, s.repos, sp.SponsorID)

	logger.Info("Sponsorship suspended", "sponsorshipID", sp.ID, "reason", reason)
	return nil
}

func (s *reviewService) reactivate(ctx context.Context, st *reviewState) error {
	sp, err := s.linkedSponsorship(ctx, st.intent)
	if err != nil {
		return err
	}
	if sp == nil {
		return fmt.Errorf("sponsorship for intent %d: %w", st.intent.ID, domain.ErrNotFound)
	}
	if sp.Status == domain.SponsorshipStatusActive {
		return nil
	}

	wasCounted := sp.Status.CountsTowardRollups()
	now := s.now()
	sp.Status = domain.SponsorshipStatusActive
	sp.Suspension.ReactivatedBy = st.actor
	sp.Suspension.ReactivatedAt = &now
	if err := s.repos.Sponsorships.Update(ctx, sp); err != nil {
		return fmt.Errorf("failed to reactivate sponsorship: %w", err)
	}
	if !wasCounted {
		if err := adjustRollups(ctx, s.repos, sp.OrgID, sp.EventID, 1, sp.Contribution.Value); err != nil {
			return err
		}
	}
	s.stats.RecomputeQuietly(ctx, s.repos, sp.SponsorID)

	logger.Info("Sponsorship reactivated", "sponsorshipID", sp.ID)
	return nil
}
