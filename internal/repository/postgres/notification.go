package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"sponsorhub-backend/internal/domain"
	"sponsorhub-backend/internal/logger"
	"sponsorhub-backend/internal/repository"
)

type notificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	logger.EnterMethod("notificationRepository.Create", "userID", n.UserID, "kind", n.Kind, "intentID", n.IntentID)

	attrs, err := json.Marshal(n.Attributes)
	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err, "reason", "failed to marshal attributes")
		return err
	}

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO notifications (user_id, org_id, intent_id, kind, title, message, is_read, attributes, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	logger.DatabaseCall("INSERT", "notifications", "userID", n.UserID, "orgID", n.OrgID)

	err = r.db.QueryRowContext(ctx, query, n.UserID, n.OrgID, nullInt32(n.IntentID), n.Kind, n.Title, n.Message, n.IsRead, attrs, n.CreatedAt).Scan(&n.ID)
	logger.DatabaseResult("INSERT", 1, err, "notificationID", n.ID)

	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err, "userID", n.UserID)
		return err
	}
	logger.ExitMethod("notificationRepository.Create", "notificationID", n.ID)
	return nil
}

// List returns a page of the user's notifications, newest first, plus the total count
func (r *notificationRepository) List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error) {
	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM notifications WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, user_id, org_id, intent_id, kind, title, message, is_read, attributes, created_at
	          FROM notifications WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	logger.DatabaseCall("SELECT", "notifications", "userID", userID, "limit", limit, "offset", offset)
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var notes []domain.Notification
	for rows.Next() {
		var (
			n        domain.Notification
			intentID sql.NullInt32
			attrs    []byte
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.OrgID, &intentID, &n.Kind, &n.Title, &n.Message, &n.IsRead, &attrs, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		n.IntentID = ptrInt32(intentID)
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &n.Attributes); err != nil {
				return nil, 0, err
			}
		}
		notes = append(notes, n)
	}
	return notes, count, rows.Err()
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userID int32) error {
	logger.DatabaseCall("UPDATE", "notifications", "id", id, "userID", userID)
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	return checkAffected(result, "notification", id)
}
