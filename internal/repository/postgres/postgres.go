package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"sponsorhub-backend/internal/domain"
	"sponsorhub-backend/internal/logger"
	"sponsorhub-backend/internal/repository"

	"github.com/lib/pq"
)

//go:embed schema.sql
var schema string

// DBTX is satisfied by both *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	*repository.Repos
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:    db,
		Repos: NewRepos(db),
	}
}

// NewRepos binds every repository to the same connection or transaction
func NewRepos(db DBTX) *repository.Repos {
	return &repository.Repos{
		Users:         NewUserRepository(db),
		Orgs:          NewOrganizationRepository(db),
		Events:        NewEventRepository(db),
		Intents:       NewIntentRepository(db),
		History:       NewIntentHistoryRepository(db),
		Sponsorships:  NewSponsorshipRepository(db),
		Sponsors:      NewSponsorRepository(db),
		Receipts:      NewReceiptRepository(db),
		Notifications: NewNotificationRepository(db),
	}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos *repository.Repos) error) error {
	logger.EnterMethod("Store.WithinTx")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.ExitMethodWithError("Store.WithinTx", err, "reason", "begin failed")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(ctx, NewRepos(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("Transaction rollback failed", "error", rbErr)
		}
		logger.ExitMethodWithError("Store.WithinTx", err, "reason", "rolled back")
		return err
	}

	if err := tx.Commit(); err != nil {
		logger.ExitMethodWithError("Store.WithinTx", err, "reason", "commit failed")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	logger.ExitMethod("Store.WithinTx")
	return nil
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates any missing tables and indexes
func (s *Store) Migrate(ctx context.Context) error {
	logger.Info("Applying database schema")
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func notFound(err error, what string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", what, id, domain.ErrNotFound)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func checkAffected(res sql.Result, what string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %v: %w", what, id, domain.ErrNotFound)
	}
	return nil
}

func nullInt32(v *int32) sql.NullInt32 {
	if v == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: *v, Valid: true}
}

func ptrInt32(v sql.NullInt32) *int32 {
	if !v.Valid {
		return nil
	}
	out := v.Int32
	return &out
}
