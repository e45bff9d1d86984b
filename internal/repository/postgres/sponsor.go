package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"sponsorhub-backend/internal/domain"
	"sponsorhub-backend/internal/logger"
	"sponsorhub-backend/internal/repository"
)

type sponsorRepository struct {
	db DBTX
}

func NewSponsorRepository(db DBTX) repository.SponsorRepository {
	return &sponsorRepository{db: db}
}

const sponsorColumns = `id, user_id, name, email, phone, type, business, location, stats, created_at, updated_at`

func scanSponsor(row interface{ Scan(...any) error }) (*domain.Sponsor, error) {
	s := &domain.Sponsor{}
	var business, location, stats []byte
	err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.Email, &s.Phone, &s.Type, &business, &location, &stats, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(business) > 0 && string(business) != "null" {
		s.Business = &domain.BusinessInfo{}
		if err := json.Unmarshal(business, s.Business); err != nil {
			return nil, fmt.Errorf("failed to decode sponsor %d business: %w", s.ID, err)
		}
	}
	if len(location) > 0 {
		if err := json.Unmarshal(location, &s.Location); err != nil {
			return nil, fmt.Errorf("failed to decode sponsor %d location: %w", s.ID, err)
		}
	}
	if len(stats) > 0 {
		if err := json.Unmarshal(stats, &s.Stats); err != nil {
			return nil, fmt.Errorf("failed to decode sponsor %d stats: %w", s.ID, err)
		}
	}
	return s, nil
}

func (r *sponsorRepository) Create(ctx context.Context, s *domain.Sponsor) error {
	logger.EnterMethod("sponsorRepository.Create", "userID", s.UserID)

	business, _ := json.Marshal(s.Business)
	location, _ := json.Marshal(s.Location)
	stats, _ := json.Marshal(s.Stats)
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	query := `INSERT INTO sponsors (user_id, name, email, phone, type, business, location, stats, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	logger.DatabaseCall("INSERT", "sponsors", "userID", s.UserID)
	err := r.db.QueryRowContext(ctx, query, s.UserID, s.Name, s.Email, s.Phone, s.Type, business, location, stats, s.CreatedAt, s.UpdatedAt).Scan(&s.ID)
	logger.DatabaseResult("INSERT", 1, err, "sponsorID", s.ID)

	if err != nil {
		logger.ExitMethodWithError("sponsorRepository.Create", err)
		return err
	}
	logger.ExitMethod("sponsorRepository.Create", "sponsorID", s.ID)
	return nil
}

func (r *sponsorRepository) GetByID(ctx context.Context, id int32) (*domain.Sponsor, error) {
	query := `SELECT ` + sponsorColumns + ` FROM sponsors WHERE id = $1`
	s, err := scanSponsor(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "sponsor", id)
	}
	return s, nil
}

func (r *sponsorRepository) GetByUserID(ctx context.Context, userID int32) (*domain.Sponsor, error) {
	query := `SELECT ` + sponsorColumns + ` FROM sponsors WHERE user_id = $1`
	s, err := scanSponsor(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		return nil, notFound(err, "sponsor for user", userID)
	}
	return s, nil
}

func (r *sponsorRepository) Update(ctx context.Context, s *domain.Sponsor) error {
	business, _ := json.Marshal(s.Business)
	location, _ := json.Marshal(s.Location)
	s.UpdatedAt = time.Now().UTC()

	query := `UPDATE sponsors SET name=$1, email=$2, phone=$3, type=$4, business=$5, location=$6, updated_at=$7 WHERE id=$8`
	logger.DatabaseCall("UPDATE", "sponsors", "sponsorID", s.ID)
	res, err := r.db.ExecContext(ctx, query, s.Name, s.Email, s.Phone, s.Type, business, location, s.UpdatedAt, s.ID)
	if err != nil {
		return err
	}
	return checkAffected(res, "sponsor", s.ID)
}

func (r *sponsorRepository) UpdateStats(ctx context.Context, id int32, stats domain.SponsorStats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	logger.DatabaseCall("UPDATE", "sponsors", "sponsorID", id, "field", "stats")
	res, err := r.db.ExecContext(ctx, `UPDATE sponsors SET stats = $1 WHERE id = $2`, raw, id)
	if err != nil {
		return err
	}
	return checkAffected(res, "sponsor", id)
}

func (r *sponsorRepository) Delete(ctx context.Context, id int32) error {
	logger.DatabaseCall("DELETE", "sponsors", "sponsorID", id)
	res, err := r.db.ExecContext(ctx, `DELETE FROM sponsors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(res, "sponsor", id)
}

func (r *sponsorRepository) ListIDs(ctx context.Context) ([]int32, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM sponsors ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *sponsorRepository) ListDuplicateGroups(ctx context.Context) ([][]domain.Sponsor, error) {
	query := `SELECT ` + sponsorColumns + ` FROM sponsors
	          WHERE LOWER(email) IN (SELECT LOWER(email) FROM sponsors GROUP BY LOWER(email) HAVING COUNT(*) > 1)
	          ORDER BY LOWER(email), created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups [][]domain.Sponsor
	lastEmail := ""
	for rows.Next() {
		s, err := scanSponsor(rows)
		if err != nil {
			return nil, err
		}
		email := strings.ToLower(s.Email)
		if len(groups) == 0 || email != lastEmail {
			groups = append(groups, nil)
			lastEmail = email
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], *s)
	}
	return groups, rows.Err()
}
