package postgres

import (
	"context"
	"database/sql"
	"time"

	"sponsorhub-backend/internal/domain"
	"sponsorhub-backend/internal/logger"
	"sponsorhub-backend/internal/repository"
)

type receiptRepository struct {
	db DBTX
}

func NewReceiptRepository(db DBTX) repository.ReceiptRepository {
	return &receiptRepository{db: db}
}

const receiptColumns = `id, receipt_number, sponsorship_id, intent_id, amount, currency, method, gateway_payment_id, payment_reference, payment_type, issued_to, issued_at, supersedes_id`

func (r *receiptRepository) NextSequence(ctx context.Context, period string) (int32, error) {
	var seq int32
	query := `INSERT INTO receipt_sequences (period, last_value) VALUES ($1, 1)
	          ON CONFLICT (period) DO UPDATE SET last_value = receipt_sequences.last_value + 1 RETURNING last_value`
	logger.DatabaseCall("UPSERT", "receipt_sequences", "period", period)
	err := r.db.QueryRowContext(ctx, query, period).Scan(&seq)
	logger.DatabaseResult("UPSERT", 1, err, "sequence", seq)
	return seq, err
}

func (r *receiptRepository) Create(ctx context.Context, rc *domain.Receipt) error {
	logger.EnterMethod("receiptRepository.Create", "sponsorshipID", rc.SponsorshipID, "receiptNumber", rc.ReceiptNumber)

	if rc.IssuedAt.IsZero() {
		rc.IssuedAt = time.Now().UTC()
	}

	query := `INSERT INTO receipts (receipt_number, sponsorship_id, intent_id, amount, currency, method, gateway_payment_id, payment_reference, payment_type, issued_to, issued_at, supersedes_id)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	logger.DatabaseCall("INSERT", "receipts", "receiptNumber", rc.ReceiptNumber)
	err := r.db.QueryRowContext(ctx, query, rc.ReceiptNumber, rc.SponsorshipID, nullInt32(rc.IntentID), rc.Amount, rc.Currency, rc.Method,
		rc.GatewayPaymentID, rc.PaymentReference, rc.PaymentType, rc.IssuedTo, rc.IssuedAt, nullInt32(rc.SupersedesID)).Scan(&rc.ID)
	logger.DatabaseResult("INSERT", 1, err, "receiptID", rc.ID)

	if err != nil {
		logger.ExitMethodWithError("receiptRepository.Create", err)
		return err
	}
	logger.ExitMethod("receiptRepository.Create", "receiptNumber", rc.ReceiptNumber)
	return nil
}

func scanReceipt(row interface{ Scan(...any) error }) (*domain.Receipt, error) {
	rc := &domain.Receipt{}
	var intentID, supersedesID sql.NullInt32
	err := row.Scan(&rc.ID, &rc.ReceiptNumber, &rc.SponsorshipID, &intentID, &rc.Amount, &rc.Currency, &rc.Method,
		&rc.GatewayPaymentID, &rc.PaymentReference, &rc.PaymentType, &rc.IssuedTo, &rc.IssuedAt, &supersedesID)
	if err != nil {
		return nil, err
	}
	rc.IntentID = ptrInt32(intentID)
	rc.SupersedesID = ptrInt32(supersedesID)
	return rc, nil
}

func (r *receiptRepository) GetLatestBySponsorship(ctx context.Context, sponsorshipID int32) (*domain.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE sponsorship_id = $1 ORDER BY id DESC LIMIT 1`
	rc, err := scanReceipt(r.db.QueryRowContext(ctx, query, sponsorshipID))
	if err != nil {
		return nil, notFound(err, "receipt for sponsorship", sponsorshipID)
	}
	return rc, nil
}

func (r *receiptRepository) ListBySponsorship(ctx context.Context, sponsorshipID int32) ([]domain.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE sponsorship_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, sponsorshipID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Receipt
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rc)
	}
	return out, rows.Err()
}
