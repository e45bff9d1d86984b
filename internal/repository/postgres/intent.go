package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"sponsorhub-backend/internal/domain"
	"sponsorhub-backend/internal/logger"
	"sponsorhub-backend/internal/repository"
)

type intentRepository struct {
	db DBTX
}

func NewIntentRepository(db DBTX) repository.IntentRepository {
	return &intentRepository{db: db}
}

const intentColumns = `id, org_id, event_id, sponsor, sponsorship, status, review, payment, converted_to, sponsorship_deleted, created_at, updated_at`

type intentJSON struct {
	sponsor, sponsorship, review, payment []byte
}

func marshalIntent(i *domain.SponsorshipIntent) (intentJSON, error) {
	var out intentJSON
	var err error
	if out.sponsor, err = json.Marshal(i.Sponsor); err != nil {
		return out, fmt.Errorf("failed to marshal sponsor: %w", err)
	}
	if out.sponsorship, err = json.Marshal(i.Sponsorship); err != nil {
		return out, fmt.Errorf("failed to marshal sponsorship: %w", err)
	}
	if out.review, err = json.Marshal(i.Review); err != nil {
		return out, fmt.Errorf("failed to marshal review: %w", err)
	}
	if out.payment, err = json.Marshal(i.Payment); err != nil {
		return out, fmt.Errorf("failed to marshal payment: %w", err)
	}
	return out, nil
}

func scanIntent(row interface{ Scan(...any) error }) (*domain.SponsorshipIntent, error) {
	i := &domain.SponsorshipIntent{}
	var eventID, convertedTo sql.NullInt32
	var sponsor, sponsorship, review, payment []byte
	err := row.Scan(&i.ID, &i.OrgID, &eventID, &sponsor, &sponsorship, &i.Status, &review, &payment, &convertedTo, &i.SponsorshipDeleted, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	i.EventID = ptrInt32(eventID)
	i.ConvertedTo = ptrInt32(convertedTo)

	for _, f := range []struct {
		raw []byte
		dst any
	}{{sponsor, &i.Sponsor}, {sponsorship, &i.Sponsorship}, {review, &i.Review}, {payment, &i.Payment}} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("failed to decode intent %d: %w", i.ID, err)
		}
	}
	return i, nil
}

func (r *intentRepository) Create(ctx context.Context, i *domain.SponsorshipIntent) error {
	logger.EnterMethod("intentRepository.Create", "orgID", i.OrgID, "type", i.Sponsorship.Type)

	js, err := marshalIntent(i)
	if err != nil {
		logger.ExitMethodWithError("intentRepository.Create", err)
		return err
	}

	now := time.Now().UTC()
	i.CreatedAt = now
	i.UpdatedAt = now
	query := `INSERT INTO sponsorship_intents (org_id, event_id, sponsor_user_id, sponsor, sponsorship, status, review, payment, converted_to, sponsorship_deleted, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`

	logger.DatabaseCall("INSERT", "sponsorship_intents", "orgID", i.OrgID)
	err = r.db.QueryRowContext(ctx, query, i.OrgID, nullInt32(i.EventID), nullInt32(i.Sponsor.UserID), js.sponsor, js.sponsorship,
		i.Status, js.review, js.payment, nullInt32(i.ConvertedTo), i.SponsorshipDeleted, i.CreatedAt, i.UpdatedAt).Scan(&i.ID)
	logger.DatabaseResult("INSERT", 1, err, "intentID", i.ID)

	if err != nil {
		logger.ExitMethodWithError("intentRepository.Create", err)
		return err
	}
	logger.ExitMethod("intentRepository.Create", "intentID", i.ID)
	return nil
}

func (r *intentRepository) GetByID(ctx context.Context, id int32) (*domain.SponsorshipIntent, error) {
	query := `SELECT ` + intentColumns + ` FROM sponsorship_intents WHERE id = $1`
	i, err := scanIntent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "intent", id)
	}
	return i, nil
}

const intentUpdate = `UPDATE sponsorship_intents SET event_id=$1, sponsor_user_id=$2, sponsor=$3, sponsorship=$4, status=$5, review=$6,
	          payment=$7, converted_to=$8, sponsorship_deleted=$9, updated_at=$10 WHERE id=$11`

func (r *intentRepository) Update(ctx context.Context, i *domain.SponsorshipIntent) error {
	_, err := r.update(ctx, intentUpdate, i)
	return err
}

func (r *intentRepository) UpdateIfUnpaid(ctx context.Context, i *domain.SponsorshipIntent) (bool, error) {
	query := intentUpdate + ` AND payment->>'status' IS DISTINCT FROM 'completed'`
	n, err := r.update(ctx, query, i)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *intentRepository) update(ctx context.Context, query string, i *domain.SponsorshipIntent) (int64, error) {
	logger.EnterMethod("intentRepository.update", "intentID", i.ID, "status", i.Status)

	js, err := marshalIntent(i)
	if err != nil {
		logger.ExitMethodWithError("intentRepository.update", err)
		return 0, err
	}
	i.UpdatedAt = time.Now().UTC()

	logger.DatabaseCall("UPDATE", "sponsorship_intents", "intentID", i.ID)
	res, err := r.db.ExecContext(ctx, query, nullInt32(i.EventID), nullInt32(i.Sponsor.UserID), js.sponsor, js.sponsorship, i.Status,
		js.review, js.payment, nullInt32(i.ConvertedTo), i.SponsorshipDeleted, i.UpdatedAt, i.ID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		logger.ExitMethodWithError("intentRepository.update", err)
		return 0, err
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("UPDATE", n, err, "intentID", i.ID)
	if err != nil {
		return 0, err
	}
	logger.ExitMethod("intentRepository.update", "rows", n)
	return n, nil
}

func (r *intentRepository) Delete(ctx context.Context, id int32) error {
	logger.DatabaseCall("DELETE", "sponsorship_intents", "intentID", id)
	res, err := r.db.ExecContext(ctx, `DELETE FROM sponsorship_intents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(res, "intent", id)
}

func (r *intentRepository) ListBySponsorUser(ctx context.Context, userID int32) ([]domain.SponsorshipIntent, error) {
	query := `SELECT ` + intentColumns + ` FROM sponsorship_intents WHERE sponsor_user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *intentRepository) ListByOrg(ctx context.Context, orgID int32, status domain.IntentStatus) ([]domain.SponsorshipIntent, error) {
	if status == "" {
		query := `SELECT ` + intentColumns + ` FROM sponsorship_intents WHERE org_id = $1 ORDER BY created_at DESC`
		return r.list(ctx, query, orgID)
	}
	query := `SELECT ` + intentColumns + ` FROM sponsorship_intents WHERE org_id = $1 AND status = $2 ORDER BY created_at DESC`
	return r.list(ctx, query, orgID, status)
}

func (r *intentRepository) ListOrphaned(ctx context.Context) ([]domain.SponsorshipIntent, error) {
	query := `SELECT ` + intentColumns + ` FROM sponsorship_intents i
	          WHERE i.converted_to IS NOT NULL
	            AND NOT EXISTS (SELECT 1 FROM sponsorships s WHERE s.id = i.converted_to)
	          ORDER BY i.id`
	return r.list(ctx, query)
}

func (r *intentRepository) list(ctx context.Context, query string, args ...any) ([]domain.SponsorshipIntent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var intents []domain.SponsorshipIntent
	for rows.Next() {
		i, err := scanIntent(rows)
		if err != nil {
			return nil, err
		}
		intents = append(intents, *i)
	}
	return intents, rows.Err()
}
