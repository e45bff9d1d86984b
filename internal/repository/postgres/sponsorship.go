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

type sponsorshipRepository struct {
	db DBTX
}

func NewSponsorshipRepository(db DBTX) repository.SponsorshipRepository {
	return &sponsorshipRepository{db: db}
}

const sponsorshipColumns = `id, sponsor_id, org_id, event_id, intent_id, contribution, tier, recognition, status, payment, suspension, created_at, updated_at`

type sponsorshipJSON struct {
	contribution, tier, recognition, payment, suspension []byte
}

func marshalSponsorship(s *domain.Sponsorship) (sponsorshipJSON, error) {
	var out sponsorshipJSON
	var err error
	if out.contribution, err = json.Marshal(s.Contribution); err != nil {
		return out, fmt.Errorf("failed to marshal contribution: %w", err)
	}
	if out.tier, err = json.Marshal(s.Tier); err != nil {
		return out, fmt.Errorf("failed to marshal tier: %w", err)
	}
	if out.recognition, err = json.Marshal(s.Recognition); err != nil {
		return out, fmt.Errorf("failed to marshal recognition: %w", err)
	}
	if out.payment, err = json.Marshal(s.Payment); err != nil {
		return out, fmt.Errorf("failed to marshal payment: %w", err)
	}
	if out.suspension, err = json.Marshal(s.Suspension); err != nil {
		return out, fmt.Errorf("failed to marshal suspension: %w", err)
	}
	return out, nil
}

func scanSponsorship(row interface{ Scan(...any) error }) (*domain.Sponsorship, error) {
	s := &domain.Sponsorship{}
	var eventID, intentID sql.NullInt32
	var contribution, tier, recognition, payment, suspension []byte
	err := row.Scan(&s.ID, &s.SponsorID, &s.OrgID, &eventID, &intentID, &contribution, &tier, &recognition, &s.Status, &payment, &suspension, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.EventID = ptrInt32(eventID)
	s.IntentID = ptrInt32(intentID)

	for _, f := range []struct {
		raw []byte
		dst any
	}{{contribution, &s.Contribution}, {tier, &s.Tier}, {recognition, &s.Recognition}, {payment, &s.Payment}, {suspension, &s.Suspension}} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("failed to decode sponsorship %d: %w", s.ID, err)
		}
	}
	return s, nil
}

func (r *sponsorshipRepository) Create(ctx context.Context, s *domain.Sponsorship) error {
	logger.EnterMethod("sponsorshipRepository.Create", "sponsorID", s.SponsorID, "orgID", s.OrgID)

	js, err := marshalSponsorship(s)
	if err != nil {
		logger.ExitMethodWithError("sponsorshipRepository.Create", err)
		return err
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	query := `INSERT INTO sponsorships (sponsor_id, org_id, event_id, intent_id, contribution, tier, recognition, status, payment, suspension, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	logger.DatabaseCall("INSERT", "sponsorships", "sponsorID", s.SponsorID)
	err = r.db.QueryRowContext(ctx, query, s.SponsorID, s.OrgID, nullInt32(s.EventID), nullInt32(s.IntentID), js.contribution, js.tier,
		js.recognition, s.Status, js.payment, js.suspension, s.CreatedAt, s.UpdatedAt).Scan(&s.ID)
	logger.DatabaseResult("INSERT", 1, err, "sponsorshipID", s.ID)

	if err != nil {
		if isUniqueViolation(err) {
			err = fmt.Errorf("sponsorship for intent already exists: %w", domain.ErrAlreadyConverted)
		}
		logger.ExitMethodWithError("sponsorshipRepository.Create", err)
		return err
	}
	logger.ExitMethod("sponsorshipRepository.Create", "sponsorshipID", s.ID)
	return nil
}

func (r *sponsorshipRepository) GetByID(ctx context.Context, id int32) (*domain.Sponsorship, error) {
	query := `SELECT ` + sponsorshipColumns + ` FROM sponsorships WHERE id = $1`
	s, err := scanSponsorship(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "sponsorship", id)
	}
	return s, nil
}

func (r *sponsorshipRepository) GetByIntentID(ctx context.Context, intentID int32) (*domain.Sponsorship, error) {
	query := `SELECT ` + sponsorshipColumns + ` FROM sponsorships WHERE intent_id = $1`
	s, err := scanSponsorship(r.db.QueryRowContext(ctx, query, intentID))
	if err != nil {
		return nil, notFound(err, "sponsorship for intent", intentID)
	}
	return s, nil
}

func (r *sponsorshipRepository) Update(ctx context.Context, s *domain.Sponsorship) error {
	logger.EnterMethod("sponsorshipRepository.Update", "sponsorshipID", s.ID, "status", s.Status)

	js, err := marshalSponsorship(s)
	if err != nil {
		logger.ExitMethodWithError("sponsorshipRepository.Update", err)
		return err
	}
	s.UpdatedAt = time.Now().UTC()

	query := `UPDATE sponsorships SET sponsor_id=$1, contribution=$2, tier=$3, recognition=$4, status=$5, payment=$6, suspension=$7, updated_at=$8 WHERE id=$9`
	logger.DatabaseCall("UPDATE", "sponsorships", "sponsorshipID", s.ID)
	res, err := r.db.ExecContext(ctx, query, s.SponsorID, js.contribution, js.tier, js.recognition, s.Status, js.payment, js.suspension, s.UpdatedAt, s.ID)
	if err != nil {
		logger.ExitMethodWithError("sponsorshipRepository.Update", err)
		return err
	}
	if err := checkAffected(res, "sponsorship", s.ID); err != nil {
		logger.ExitMethodWithError("sponsorshipRepository.Update", err)
		return err
	}
	logger.ExitMethod("sponsorshipRepository.Update")
	return nil
}

func (r *sponsorshipRepository) Delete(ctx context.Context, id int32) error {
	logger.DatabaseCall("DELETE", "sponsorships", "sponsorshipID", id)
	res, err := r.db.ExecContext(ctx, `DELETE FROM sponsorships WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(res, "sponsorship", id)
}

func (r *sponsorshipRepository) ListBySponsor(ctx context.Context, sponsorID int32) ([]domain.Sponsorship, error) {
	query := `SELECT ` + sponsorshipColumns + ` FROM sponsorships WHERE sponsor_id = $1 ORDER BY id`
	return r.list(ctx, query, sponsorID)
}

func (r *sponsorshipRepository) ListByOrg(ctx context.Context, orgID int32) ([]domain.Sponsorship, error) {
	query := `SELECT ` + sponsorshipColumns + ` FROM sponsorships WHERE org_id = $1 ORDER BY id`
	return r.list(ctx, query, orgID)
}

func (r *sponsorshipRepository) Reassign(ctx context.Context, fromSponsorID, toSponsorID int32) (int64, error) {
	logger.DatabaseCall("UPDATE", "sponsorships", "from", fromSponsorID, "to", toSponsorID)
	res, err := r.db.ExecContext(ctx, `UPDATE sponsorships SET sponsor_id = $1, updated_at = NOW() WHERE sponsor_id = $2`, toSponsorID, fromSponsorID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("UPDATE", n, err)
	return n, err
}

func (r *sponsorshipRepository) list(ctx context.Context, query string, args ...any) ([]domain.Sponsorship, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Sponsorship
	for rows.Next() {
		s, err := scanSponsorship(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}
