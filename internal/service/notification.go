package service

import (
	"context"

	"sponsorhub-backend/internal/domain"
	"sponsorhub-backend/internal/logger"
	"sponsorhub-backend/internal/repository"
)

const (
	defaultNotificationPageSize = 20
	maxNotificationPageSize     = 100
)

type notificationService struct {
	noteRepo repository.NotificationRepository
}

func NewNotificationService(noteRepo repository.NotificationRepository) NotificationService {
	return &notificationService{noteRepo: noteRepo}
}

// GetNotifications pages through a user's in-app notifications. Pages start at 1.
func (s *notificationService) GetNotifications(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Notification, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxNotificationPageSize {
		pageSize = defaultNotificationPageSize
	}
	notes, total, err := s.noteRepo.List(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		logger.Error("Failed to list notifications", "userID", userID, "error", err)
		return nil, 0, err
	}
	return notes, total, nil
}

// MarkAsRead only touches the caller's own notifications; anything else is ErrNotFound
func (s *notificationService) MarkAsRead(ctx context.Context, userID, notificationID int32) error {
	if err := s.noteRepo.MarkAsRead(ctx, notificationID, userID); err != nil {
		logger.Warn("Failed to mark notification read", "userID", userID, "notificationID", notificationID, "error", err)
		return err
	}
	return nil
}
