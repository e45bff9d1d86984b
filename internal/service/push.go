package service

import (
	"context"
	"fmt"

	"sponsorhub-backend/internal/logger"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// messageSender is the part of the FCM client the push service needs
type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type pushService struct {
	client messageSender
}

// NewPushService connects to Firebase Cloud Messaging. An empty credentials file
// disables push delivery.
func NewPushService(ctx context.Context, projectID, credentialsFile string) (PushService, error) {
	if credentialsFile == "" {
		logger.Warn("Firebase credentials not configured, push notifications disabled")
		return &pushService{}, nil
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase messaging: %w", err)
	}
	return &pushService{client: client}, nil
}

func (s *pushService) SendToTopic(ctx context.Context, topic, title, body string, data map[string]string) error {
	if s.client == nil {
		return nil
	}

	logger.ExternalServiceCall("FCM", "Send", "topic", topic)
	id, err := s.client.Send(ctx, &messaging.Message{
		Topic:        topic,
		Notification: &messaging.Notification{Title: title, Body: body},
		Data:         data,
	})
	logger.ExternalServiceResult("FCM", "Send", err, "messageID", id)
	if err != nil {
		return fmt.Errorf("failed to push to topic %s: %w", topic, err)
	}
	return nil
}

func orgAdminsTopic(orgID int32) string {
	return fmt.Sprintf("org-%d-admins", orgID)
}

func userTopic(userID int32) string {
	return fmt.Sprintf("user-%d", userID)
}
