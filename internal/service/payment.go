package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sponsorhub-backend/internal/domain"
	"sponsorhub-backend/internal/gateway"
	"sponsorhub-backend/internal/lock"
	"sponsorhub-backend/internal/logger"
	"sponsorhub-backend/internal/repository"
	"sponsorhub-backend/internal/utils"

	"github.com/google/uuid"
)

type paymentService struct {
	store    repository.TxManager
	repos    *repository.Repos
	authz    Authorizer
	gateway  gateway.Client
	engine   *ConversionEngine
	recorder *Recorder
	receipts *ReceiptGenerator
	locker   lock.Locker
	lockTTL  time.Duration
	notifier Notifier
	now      func() time.Time
}

func NewPaymentService(
	store repository.TxManager,
	repos *repository.Repos,
	authz Authorizer,
	gw gateway.Client,
	engine *ConversionEngine,
	recorder *Recorder,
	receipts *ReceiptGenerator,
	locker lock.Locker,
	lockTTL time.Duration,
	notifier Notifier,
) PaymentService {
	return &paymentService{
		store:    store,
		repos:    repos,
		authz:    authz,
		gateway:  gw,
		engine:   engine,
		recorder: recorder,
		receipts: receipts,
		locker:   locker,
		lockTTL:  lockTTL,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// checkPayable applies the guards shared by order creation and both verification paths
func checkPayable(intent *domain.SponsorshipIntent) error {
	switch {
	case intent.Status == domain.IntentStatusConverted:
		return domain.ErrAlreadyConverted
	case intent.IsPaid():
		return domain.ErrPaymentAlreadyCompleted
	case !intent.IsMonetary():
		return domain.ErrNotMonetary
	case intent.Status != domain.IntentStatusApproved:
		return domain.ErrNotApproved
	}
	return nil
}

func isGuardError(err error) bool {
	return errors.Is(err, domain.ErrAlreadyConverted) ||
		errors.Is(err, domain.ErrPaymentAlreadyCompleted) ||
		errors.Is(err, domain.ErrNotMonetary) ||
		errors.Is(err, domain.ErrNotApproved)
}

// authorizePayer lets anyone pay for an intent without a linked account; otherwise
// the owner or an org admin
func (s *paymentService) authorizePayer(ctx context.Context, actorID *int32, intent *domain.SponsorshipIntent) error {
	if intent.Sponsor.UserID == nil {
		return nil
	}
	if actorID == nil {
		return domain.ErrNotIntentOwner
	}
	if intent.IsOwnedBy(*actorID) {
		return nil
	}
	ok, err := s.authz.IsAdmin(ctx, *actorID, intent.OrgID)
	if err != nil {
		return fmt.Errorf("failed to check admin rights: %w", err)
	}
	if !ok {
		return domain.ErrNotIntentOwner
	}
	return nil
}

func acquirePaymentLock(ctx context.Context, locker lock.Locker, ttl time.Duration, intentID int32) (lock.Release, error) {
	release, err := locker.Acquire(ctx, lock.PaymentKey(intentID), ttl)
	if errors.Is(err, lock.ErrNotAcquired) {
		return nil, domain.ErrVerificationInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock intent %d for payment: %w", intentID, err)
	}
	return release, nil
}

func receiptDetails(intent *domain.SponsorshipIntent) domain.ReceiptDetails {
	id := intent.ID
	p := intent.Payment
	amount := p.PaidAmount
	if amount == 0 {
		amount = p.Amount
	}
	currency := p.Currency
	if currency == "" {
		currency = intent.Sponsorship.Currency
	}
	return domain.ReceiptDetails{
		IntentID:         &id,
		Amount:           amount,
		Currency:         currency,
		GatewayPaymentID: p.Gateway.PaymentID,
		PaymentReference: p.PaymentReference,
		PaymentType:      p.PaymentType,
		IssuedTo:         recognitionFrom(intent).DisplayName,
	}
}

func (s *paymentService) CreatePaymentOrder(ctx context.Context, actorID *int32, intentID int32) (*PaymentOrder, error) {
	logger.EnterMethod("paymentService.CreatePaymentOrder", "intentID", intentID)

	intent, err := s.repos.Intents.GetByID(ctx, intentID)
	if err != nil {
		logger.ExitMethodWithError("paymentService.CreatePaymentOrder", err)
		return nil, err
	}
	if err := s.authorizePayer(ctx, actorID, intent); err != nil {
		logger.ExitMethodWithError("paymentService.CreatePaymentOrder", err)
		return nil, err
	}
	if err := checkPayable(intent); err != nil {
		logger.ExitMethodWithError("paymentService.CreatePaymentOrder", err, "status", intent.Status)
		return nil, err
	}

	amount := intent.Sponsorship.EstimatedValue
	if amount <= 0 {
		err := fmt.Errorf("%w: sponsorship value must be positive to collect payment", domain.ErrValidation)
		logger.ExitMethodWithError("paymentService.CreatePaymentOrder", err)
		return nil, err
	}
	currency := intent.Sponsorship.Currency
	receiptID := fmt.Sprintf("intent-%d-%s", intent.ID, strings.SplitN(uuid.NewString(), "-", 2)[0])

	order, err := s.gateway.CreateOrder(ctx, gateway.ToMinorUnits(amount), currency, receiptID)
	if err != nil {
		logger.ExitMethodWithError("paymentService.CreatePaymentOrder", err)
		return nil, fmt.Errorf("failed to create gateway order: %w", err)
	}

	intent.Payment.Status = domain.PaymentStatusPending
	intent.Payment.Amount = amount
	intent.Payment.Currency = currency
	intent.Payment.Gateway = domain.GatewayRefs{OrderID: order.ID}
	ok, err := s.repos.Intents.UpdateIfUnpaid(ctx, intent)
	if err == nil && !ok {
		err = domain.ErrPaymentAlreadyCompleted
	}
	if err != nil {
		logger.ExitMethodWithError("paymentService.CreatePaymentOrder", err)
		return nil, err
	}

	logger.Info("Payment order created", "intentID", intent.ID, "orderID", order.ID, "amount", order.Amount)
	logger.ExitMethod("paymentService.CreatePaymentOrder", "orderID", order.ID)
	return &PaymentOrder{
		IntentID:    intent.ID,
		OrderID:     order.ID,
		Amount:      amount,
		AmountMinor: order.Amount,
		Currency:    currency,
	}, nil
}

func (s *paymentService) VerifyGatewayPayment(ctx context.Context, actorID *int32, intentID int32, orderID, paymentID, signature string) (*PaymentOutcome, error) {
	logger.EnterMethod("paymentService.VerifyGatewayPayment", "intentID", intentID, "orderID", orderID, "paymentID", paymentID)

	intent, err := s.repos.Intents.GetByID(ctx, intentID)
	if err != nil {
		logger.ExitMethodWithError("paymentService.VerifyGatewayPayment", err)
		return nil, err
	}
	if err := s.authorizePayer(ctx, actorID, intent); err != nil {
		logger.ExitMethodWithError("paymentService.VerifyGatewayPayment", err)
		return nil, err
	}
	if err := checkPayable(intent); err != nil {
		logger.ExitMethodWithError("paymentService.VerifyGatewayPayment", err, "status", intent.Status)
		return nil, err
	}

	proof, err := domain.NewGatewayVerified(s.gateway, orderID, paymentID, signature)
	if err != nil {
		logger.Warn("Gateway signature rejected", "intentID", intentID, "orderID", orderID, "paymentID", paymentID)
		logger.ExitMethodWithError("paymentService.VerifyGatewayPayment", err)
		return nil, err
	}
	if expected := intent.Payment.Gateway.OrderID; expected != "" && expected != orderID {
		err := fmt.Errorf("%w: order %s does not belong to intent %d", domain.ErrValidation, orderID, intentID)
		logger.ExitMethodWithError("paymentService.VerifyGatewayPayment", err)
		return nil, err
	}

	release, err := acquirePaymentLock(ctx, s.locker, s.lockTTL, intentID)
	if err != nil {
		logger.ExitMethodWithError("paymentService.VerifyGatewayPayment", err)
		return nil, err
	}
	defer func() { _ = release(ctx) }()

	gp, err := s.gateway.FetchPayment(ctx, paymentID)
	if err != nil {
		logger.ExitMethodWithError("paymentService.VerifyGatewayPayment", err, "step", "fetch")
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentVerificationFailed, err)
	}
	if gp.OrderID != orderID || !gp.Captured() {
		err := fmt.Errorf("%w: gateway reports payment %s as %s for order %s", domain.ErrPaymentVerificationFailed, gp.ID, gp.Status, gp.OrderID)
		logger.ExitMethodWithError("paymentService.VerifyGatewayPayment", err, "step", "fetch")
		return nil, err
	}
	if expected := intent.Payment.Amount; expected > 0 && gp.Amount != gateway.ToMinorUnits(expected) {
		err := fmt.Errorf("%w: expected %d, gateway captured %d", domain.ErrAmountMismatch, gateway.ToMinorUnits(expected), gp.Amount)
		logger.ExitMethodWithError("paymentService.VerifyGatewayPayment", err, "step", "amount")
		return nil, err
	}
	proof = proof.WithCapturedAmount(gateway.ToMajorUnits(gp.Amount), gp.Method)

	var outcome *PaymentOutcome
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repos) error {
		cur, err := repos.Intents.GetByID(ctx, intentID)
		if err != nil {
			return err
		}
		if err := checkPayable(cur); err != nil {
			return err
		}

		prevPayment := cur.Payment.Status
		cur.Payment.Complete(proof, s.now())
		if cur.Payment.Currency == "" {
			cur.Payment.Currency = gp.Currency
		}

		result, err := s.engine.Convert(ctx, repos, cur, actorID)
		if err != nil {
			return err
		}
		rc, err := s.receipts.CreateOnlineReceipt(ctx, repos, result.Sponsorship, receiptDetails(cur))
		if err != nil {
			return err
		}

		prevStatus := cur.Status
		cur.Status = domain.IntentStatusConverted
		ok, err := repos.Intents.UpdateIfUnpaid(ctx, cur)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrPaymentAlreadyCompleted
		}

		if err := s.recorder.Append(ctx, repos.History,
			s.recorder.PaymentStatusChanged(cur.ID, actorID, prevPayment, cur.Payment.Status,
				fmt.Sprintf("gateway payment %s verified, receipt %s", paymentID, rc.ReceiptNumber)),
			s.statusChanged(cur.ID, actorID, prevStatus, cur.Status, "converted after payment"),
		); err != nil {
			return err
		}

		outcome = &PaymentOutcome{Intent: cur, Sponsorship: result.Sponsorship, Receipt: rc, Conversion: result.Kind}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("paymentService.VerifyGatewayPayment", err, "step", "transaction")
		if isGuardError(err) {
			return nil, err
		}
		logger.Error("Gateway payment captured but verification rolled back", "intentID", intentID, "paymentID", paymentID, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentVerificationFailed, err)
	}

	logger.Info("Gateway payment verified", "intentID", intentID, "paymentID", paymentID, "receipt", outcome.Receipt.ReceiptNumber, "sponsorshipID", outcome.Sponsorship.ID)
	s.notifier.PaymentVerified(ctx, outcome.Intent, outcome.Receipt)

	logger.ExitMethod("paymentService.VerifyGatewayPayment", "sponsorshipID", outcome.Sponsorship.ID)
	return outcome, nil
}

func (s *paymentService) VerifyManualPayment(ctx context.Context, adminID, intentID int32, input ManualPaymentInput) (*PaymentOutcome, error) {
	logger.EnterMethod("paymentService.VerifyManualPayment", "adminID", adminID, "intentID", intentID, "paymentType", input.PaymentType)

	intent, err := s.repos.Intents.GetByID(ctx, intentID)
	if err != nil {
		logger.ExitMethodWithError("paymentService.VerifyManualPayment", err)
		return nil, err
	}
	if err := requireAdmin(ctx, s.authz, adminID, intent.OrgID); err != nil {
		logger.ExitMethodWithError("paymentService.VerifyManualPayment", err)
		return nil, err
	}
	if !manualClaimPending(intent, adminID) {
		if err := checkPayable(intent); err != nil {
			logger.ExitMethodWithError("paymentService.VerifyManualPayment", err, "status", intent.Status)
			return nil, err
		}
	}
	if input.Amount <= 0 {
		err := fmt.Errorf("%w: payment amount must be positive", domain.ErrValidation)
		logger.ExitMethodWithError("paymentService.VerifyManualPayment", err)
		return nil, err
	}

	release, err := acquirePaymentLock(ctx, s.locker, s.lockTTL, intentID)
	if err != nil {
		logger.ExitMethodWithError("paymentService.VerifyManualPayment", err)
		return nil, err
	}
	defer func() { _ = release(ctx) }()

	// another verification may have finished while we waited on the lock
	intent, err = s.repos.Intents.GetByID(ctx, intentID)
	if err != nil {
		logger.ExitMethodWithError("paymentService.VerifyManualPayment", err)
		return nil, err
	}
	actor := &adminID
	if manualClaimPending(intent, adminID) {
		logger.Warn("Resuming manual payment whose conversion did not finish", "intentID", intentID, "adminID", adminID)
	} else {
		if err := checkPayable(intent); err != nil {
			logger.ExitMethodWithError("paymentService.VerifyManualPayment", err, "status", intent.Status)
			return nil, err
		}
		if err := s.claimManualPayment(ctx, intent, adminID, input); err != nil {
			logger.ExitMethodWithError("paymentService.VerifyManualPayment", err, "step", "claim")
			return nil, err
		}
	}

	result, err := s.engine.Convert(ctx, s.repos, intent, actor)
	if err != nil {
		logger.ExitMethodWithError("paymentService.VerifyManualPayment", err, "step", "convert")
		return nil, err
	}
	rc, _, err := ensureManualReceipt(ctx, s.repos, s.receipts, result.Sponsorship, intent)
	if err != nil {
		logger.ExitMethodWithError("paymentService.VerifyManualPayment", err, "step", "receipt")
		return nil, err
	}

	prevStatus := intent.Status
	intent.Status = domain.IntentStatusConverted
	if err := s.repos.Intents.Update(ctx, intent); err != nil {
		logger.ExitMethodWithError("paymentService.VerifyManualPayment", err, "step", "persist")
		return nil, fmt.Errorf("failed to save intent: %w", err)
	}
	if err := s.recorder.Append(ctx, s.repos.History, s.statusChanged(intent.ID, actor, prevStatus, intent.Status, "converted after manual payment")); err != nil {
		logger.ExitMethodWithError("paymentService.VerifyManualPayment", err, "step", "history")
		return nil, err
	}

	logger.Info("Manual payment verified", "intentID", intentID, "adminID", adminID, "receipt", rc.ReceiptNumber, "sponsorshipID", result.Sponsorship.ID)
	s.notifier.PaymentVerified(ctx, intent, rc)

	logger.ExitMethod("paymentService.VerifyManualPayment", "sponsorshipID", result.Sponsorship.ID)
	return &PaymentOutcome{Intent: intent, Sponsorship: result.Sponsorship, Receipt: rc, Conversion: result.Kind}, nil
}

// claimManualPayment completes the payment and writes it only if nobody else completed
// it first; everything after the claim can be re-run by the same admin
func (s *paymentService) claimManualPayment(ctx context.Context, intent *domain.SponsorshipIntent, adminID int32, input ManualPaymentInput) error {
	paymentType := strings.TrimSpace(input.PaymentType)
	if paymentType == "" {
		paymentType = "offline"
	}
	prevPayment := intent.Payment.Status
	if intent.Payment.Amount == 0 {
		intent.Payment.Amount = intent.Sponsorship.EstimatedValue
	}
	if intent.Payment.Currency == "" {
		intent.Payment.Currency = intent.Sponsorship.Currency
	}
	intent.Payment.Complete(domain.ManualAttestation{
		AttestedBy:  adminID,
		PaymentType: paymentType,
		Reference:   input.Reference,
		Amount:      input.Amount,
		Date:        input.Date,
		Notes:       input.Notes,
	}, s.now())

	ok, err := s.repos.Intents.UpdateIfUnpaid(ctx, intent)
	if err == nil && !ok {
		err = domain.ErrPaymentAlreadyCompleted
	}
	if err != nil {
		return err
	}
	return s.recorder.Append(ctx, s.repos.History, s.recorder.PaymentStatusChanged(intent.ID, &adminID, prevPayment, intent.Payment.Status,
		fmt.Sprintf("manual %s payment of %s recorded", paymentType, utils.FormatMoney(input.Amount, intent.Payment.Currency))))
}

// manualClaimPending reports a manual payment adminID already recorded whose conversion
// never finished
func manualClaimPending(intent *domain.SponsorshipIntent, adminID int32) bool {
	p := intent.Payment
	return intent.Status == domain.IntentStatusApproved &&
		intent.IsPaid() &&
		p.ManualVerification &&
		p.VerifiedBy != nil && *p.VerifiedBy == adminID &&
		intent.ConvertedTo == nil &&
		!intent.SponsorshipDeleted
}

func (s *paymentService) RefundPayment(ctx context.Context, adminID, intentID int32, amount *float64, reason string) (*domain.Sponsorship, error) {
	logger.EnterMethod("paymentService.RefundPayment", "adminID", adminID, "intentID", intentID)

	intent, err := s.repos.Intents.GetByID(ctx, intentID)
	if err != nil {
		logger.ExitMethodWithError("paymentService.RefundPayment", err)
		return nil, err
	}
	if err := requireAdmin(ctx, s.authz, adminID, intent.OrgID); err != nil {
		logger.ExitMethodWithError("paymentService.RefundPayment", err)
		return nil, err
	}
	if intent.ConvertedTo == nil {
		err := fmt.Errorf("sponsorship for intent %d: %w", intentID, domain.ErrNotFound)
		logger.ExitMethodWithError("paymentService.RefundPayment", err)
		return nil, err
	}
	sp, err := s.repos.Sponsorships.GetByID(ctx, *intent.ConvertedTo)
	if err != nil {
		logger.ExitMethodWithError("paymentService.RefundPayment", err)
		return nil, err
	}
	if sp.Payment.Gateway.PaymentID == "" {
		logger.ExitMethodWithError("paymentService.RefundPayment", domain.ErrNoGatewayPayment)
		return nil, domain.ErrNoGatewayPayment
	}
	if sp.Payment.Status != domain.PaymentStatusCompleted {
		err := fmt.Errorf("%w: payment is %s", domain.ErrValidation, sp.Payment.Status)
		logger.ExitMethodWithError("paymentService.RefundPayment", err)
		return nil, err
	}

	var amountMinor *int64
	if amount != nil {
		if *amount <= 0 {
			err := fmt.Errorf("%w: refund amount must be positive", domain.ErrValidation)
			logger.ExitMethodWithError("paymentService.RefundPayment", err)
			return nil, err
		}
		m := gateway.ToMinorUnits(*amount)
		amountMinor = &m
	}

	refund, err := s.gateway.Refund(ctx, sp.Payment.Gateway.PaymentID, amountMinor, reason)
	if err != nil {
		logger.ExitMethodWithError("paymentService.RefundPayment", err)
		return nil, fmt.Errorf("failed to refund payment: %w", err)
	}

	sp.Payment.Gateway.RefundID = refund.ID
	sp.Payment.Status = domain.PaymentStatusRefunded
	if err := s.repos.Sponsorships.Update(ctx, sp); err != nil {
		logger.ExitMethodWithError("paymentService.RefundPayment", err)
		return nil, fmt.Errorf("failed to record refund on sponsorship: %w", err)
	}

	prev := intent.Payment.Status
	intent.Payment.Gateway.RefundID = refund.ID
	intent.Payment.Status = domain.PaymentStatusRefunded
	if err := s.repos.Intents.Update(ctx, intent); err != nil {
		logger.ExitMethodWithError("paymentService.RefundPayment", err)
		return nil, fmt.Errorf("failed to record refund on intent: %w", err)
	}
	notes := fmt.Sprintf("refund %s of %s", refund.ID, utils.FormatMoney(gateway.ToMajorUnits(refund.Amount), sp.Payment.Currency))
	if reason != "" {
		notes += ": " + reason
	}
	if err := s.recorder.Append(ctx, s.repos.History,
		s.recorder.PaymentStatusChanged(intent.ID, &adminID, prev, intent.Payment.Status, notes)); err != nil {
		logger.ExitMethodWithError("paymentService.RefundPayment", err)
		return nil, err
	}

	logger.Info("Payment refunded", "intentID", intentID, "refundID", refund.ID, "amount", refund.Amount)
	logger.ExitMethod("paymentService.RefundPayment", "refundID", refund.ID)
	return sp, nil
}

func (s *paymentService) statusChanged(intentID int32, actor *int32, old, cur domain.IntentStatus, notes string) domain.ChangeHistoryEntry {
	return s.recorder.FieldChanged(intentID, actor, domain.FieldChange{
		Field:    "status",
		OldValue: utils.FormatEnum(string(old)),
		NewValue: utils.FormatEnum(string(cur)),
	}, notes)
}
