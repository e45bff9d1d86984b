package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sponsorhub-backend/internal/domain"
	"sponsorhub-backend/internal/logger"
	"sponsorhub-backend/internal/repository"
)

// ReceiptGenerator issues immutable, sequentially numbered receipts
type ReceiptGenerator struct {
	prefix string
	now    func() time.Time
}

func NewReceiptGenerator(prefix string) *ReceiptGenerator {
	if prefix == "" {
		prefix = "RCP"
	}
	return &ReceiptGenerator{prefix: prefix, now: func() time.Time { return time.Now().UTC() }}
}

// FormatReceiptNumber renders PREFIX-YYYYMM-NNNN
func FormatReceiptNumber(prefix string, issuedAt time.Time, seq int32) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, issuedAt.Format("200601"), seq)
}

func (g *ReceiptGenerator) CreateOnlineReceipt(ctx context.Context, repos *repository.Repos, sp *domain.Sponsorship, d domain.ReceiptDetails) (*domain.Receipt, error) {
	return g.issue(ctx, repos, sp, d, domain.ReceiptMethodOnline)
}

func (g *ReceiptGenerator) CreateManualReceipt(ctx context.Context, repos *repository.Repos, sp *domain.Sponsorship, d domain.ReceiptDetails) (*domain.Receipt, error) {
	return g.issue(ctx, repos, sp, d, domain.ReceiptMethodManual)
}

func (g *ReceiptGenerator) issue(ctx context.Context, repos *repository.Repos, sp *domain.Sponsorship, d domain.ReceiptDetails, method domain.ReceiptMethod) (*domain.Receipt, error) {
	logger.EnterMethod("ReceiptGenerator.issue", "sponsorshipID", sp.ID, "method", method)

	issuedAt := g.now()
	seq, err := repos.Receipts.NextSequence(ctx, issuedAt.Format("200601"))
	if err != nil {
		logger.ExitMethodWithError("ReceiptGenerator.issue", err)
		return nil, fmt.Errorf("failed to allocate receipt number: %w", err)
	}

	rc := &domain.Receipt{
		ReceiptNumber:    FormatReceiptNumber(g.prefix, issuedAt, seq),
		SponsorshipID:    sp.ID,
		IntentID:         d.IntentID,
		Amount:           d.Amount,
		Currency:         d.Currency,
		Method:           method,
		GatewayPaymentID: d.GatewayPaymentID,
		PaymentReference: d.PaymentReference,
		PaymentType:      d.PaymentType,
		IssuedTo:         d.IssuedTo,
		IssuedAt:         issuedAt,
	}
	if rc.Currency == "" {
		rc.Currency = sp.Contribution.Currency
	}

	prev, err := repos.Receipts.GetLatestBySponsorship(ctx, sp.ID)
	switch {
	case err == nil:
		rc.SupersedesID = &prev.ID
	case !errors.Is(err, domain.ErrNotFound):
		logger.ExitMethodWithError("ReceiptGenerator.issue", err)
		return nil, fmt.Errorf("failed to look up previous receipt: %w", err)
	}

	if err := repos.Receipts.Create(ctx, rc); err != nil {
		logger.ExitMethodWithError("ReceiptGenerator.issue", err)
		return nil, fmt.Errorf("failed to store receipt: %w", err)
	}

	logger.ExitMethod("ReceiptGenerator.issue", "receiptNumber", rc.ReceiptNumber)
	return rc, nil
}

// ensureManualReceipt returns the sponsorship's latest receipt, issuing a manual one when
// there is none yet; created reports whether a receipt was issued
func ensureManualReceipt(ctx context.Context, repos *repository.Repos, g *ReceiptGenerator, sp *domain.Sponsorship, intent *domain.SponsorshipIntent) (*domain.Receipt, bool, error) {
	rc, err := repos.Receipts.GetLatestBySponsorship(ctx, sp.ID)
	if err == nil {
		return rc, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up receipt: %w", err)
	}
	rc, err = g.CreateManualReceipt(ctx, repos, sp, receiptDetails(intent))
	if err != nil {
		return nil, false, err
	}
	return rc, true, nil
}
