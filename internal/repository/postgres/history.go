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

type intentHistoryRepository struct {
	db DBTX
}

func NewIntentHistoryRepository(db DBTX) repository.IntentHistoryRepository {
	return &intentHistoryRepository{db: db}
}

func (r *intentHistoryRepository) Append(ctx context.Context, e *domain.ChangeHistoryEntry) error {
	logger.EnterMethod("intentHistoryRepository.Append", "intentID", e.IntentID, "changeType", e.ChangeType)

	if e.Changes == nil {
		e.Changes = []domain.FieldChange{}
	}
	changes, err := json.Marshal(e.Changes)
	if err != nil {
		logger.ExitMethodWithError("intentHistoryRepository.Append", err, "reason", "failed to marshal changes")
		return err
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	query := `INSERT INTO intent_history (intent_id, created_at, actor_id, change_type, changes, notes)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	logger.DatabaseCall("INSERT", "intent_history", "intentID", e.IntentID)
	err = r.db.QueryRowContext(ctx, query, e.IntentID, e.Timestamp, nullInt32(e.ActorID), e.ChangeType, changes, e.Notes).Scan(&e.ID)
	logger.DatabaseResult("INSERT", 1, err, "entryID", e.ID)

	if err != nil {
		logger.ExitMethodWithError("intentHistoryRepository.Append", err)
		return err
	}
	logger.ExitMethod("intentHistoryRepository.Append", "entryID", e.ID)
	return nil
}

func (r *intentHistoryRepository) ListByIntent(ctx context.Context, intentID int32) ([]domain.ChangeHistoryEntry, error) {
	query := `SELECT id, intent_id, created_at, actor_id, change_type, changes, notes FROM intent_history WHERE intent_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, intentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.ChangeHistoryEntry
	for rows.Next() {
		var e domain.ChangeHistoryEntry
		var actorID sql.NullInt32
		var changes []byte
		if err := rows.Scan(&e.ID, &e.IntentID, &e.Timestamp, &actorID, &e.ChangeType, &changes, &e.Notes); err != nil {
			return nil, err
		}
		e.ActorID = ptrInt32(actorID)
		if len(changes) > 0 {
			if err := json.Unmarshal(changes, &e.Changes); err != nil {
				return nil, fmt.Errorf("failed to decode history entry %d: %w", e.ID, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
