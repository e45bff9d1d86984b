package postgres

import (
	"context"
	"time"

	"sponsorhub-backend/internal/domain"
	"sponsorhub-backend/internal/logger"
	"sponsorhub-backend/internal/repository"
)

type userRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	logger.EnterMethod("userRepository.Create", "email", u.Email, "placeholder", u.IsPlaceholder)

	query := `INSERT INTO users (email, phone_number, password_hash, name, is_sponsor, is_placeholder, created_on, updated_on) 
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	now := time.Now().Format("2006-01-02")
	u.CreatedOn = now
	u.UpdatedOn = now

	logger.DatabaseCall("INSERT", "users", "email", u.Email)
	err := r.db.QueryRowContext(ctx, query, u.Email, u.PhoneNumber, u.PasswordHash, u.Name, u.IsSponsor, u.IsPlaceholder, u.CreatedOn, u.UpdatedOn).Scan(&u.ID)
	logger.DatabaseResult("INSERT", 1, err, "userID", u.ID)

	if err != nil {
		logger.ExitMethodWithError("userRepository.Create", err, "email", u.Email)
		return err
	}
	logger.ExitMethod("userRepository.Create", "userID", u.ID)
	return nil
}

const userColumns = `id, email, phone_number, password_hash, name, is_sponsor, is_placeholder, created_on, updated_on`

func (r *userRepository) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, notFound(err, "user", email)
	}
	return u, nil
}

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	u := &domain.User{}
	var createdOn, updatedOn time.Time
	err := row.Scan(&u.ID, &u.Email, &u.PhoneNumber, &u.PasswordHash, &u.Name, &u.IsSponsor, &u.IsPlaceholder, &createdOn, &updatedOn)
	if err != nil {
		return nil, err
	}
	u.CreatedOn = createdOn.Format("2006-01-02")
	u.UpdatedOn = updatedOn.Format("2006-01-02")
	return u, nil
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	query := `UPDATE users SET email=$1, phone_number=$2, name=$3, is_sponsor=$4, updated_on=$5 WHERE id=$6`
	u.UpdatedOn = time.Now().Format("2006-01-02")
	res, err := r.db.ExecContext(ctx, query, u.Email, u.PhoneNumber, u.Name, u.IsSponsor, u.UpdatedOn, u.ID)
	if err != nil {
		return err
	}
	return checkAffected(res, "user", u.ID)
}

func (r *userRepository) GetUserOrg(ctx context.Context, userID, orgID int32) (*domain.UserOrg, error) {
	uo := &domain.UserOrg{}
	query := `SELECT user_id, org_id, joined_on, role FROM users_orgs WHERE user_id = $1 AND org_id = $2`

	var joinedOn time.Time
	err := r.db.QueryRowContext(ctx, query, userID, orgID).Scan(&uo.UserID, &uo.OrgID, &joinedOn, &uo.Role)
	if err != nil {
		return nil, notFound(err, "membership", userID)
	}
	uo.JoinedOn = joinedOn.Format("2006-01-02")
	return uo, nil
}

func (r *userRepository) ListAdminIDsByOrg(ctx context.Context, orgID int32) ([]int32, error) {
	query := `SELECT user_id FROM users_orgs WHERE org_id = $1 AND role IN ('ADMIN', 'SUPER_ADMIN')
	          UNION SELECT created_by FROM orgs WHERE id = $1`
	rows, err := r.db.QueryContext(ctx, query, orgID)
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
