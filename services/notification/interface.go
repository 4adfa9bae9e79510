package notification

import (
	"context"
	"errors"
	"fmt"

	"therapy/database"
	"therapy/database/repository"
	"therapy/models"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// NotificationService delivers a notification to its recipient.
type NotificationService interface {
	Notify(ctx context.Context, n models.Notification) error
}

// Sender is the subset of *messaging.Client used here.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// ErrNoPushTarget means the recipient has no registered device token.
var ErrNoPushTarget = errors.New("recipient has no FCM token")

// DefaultNotificationService is the production implementation.
type DefaultNotificationService struct {
	fcm      Sender
	profiles repository.ProfileRepository
	logger   *zap.Logger
}

func NewDefaultNotificationService(fcm Sender, profiles repository.ProfileRepository, logger *zap.Logger) (*DefaultNotificationService, error) {
	if fcm == nil || profiles == nil {
		return nil, fmt.Errorf("notification service initialization error: fcm client or profile repository is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultNotificationService{fcm: fcm, profiles: profiles, logger: logger}, nil
}

// Notify looks up the recipient's FCM token and sends a push.
func (s *DefaultNotificationService) Notify(ctx context.Context, n models.Notification) error {
	p, err := s.profiles.GetByID(ctx, n.RecipientID)
	if errors.Is(err, database.ErrNotFound) {
		return ErrNoPushTarget
	}
	if err != nil {
		return fmt.Errorf("notify: could not load profile %s: %w", n.RecipientID, err)
	}
	if p.FCMToken == "" {
		return ErrNoPushTarget
	}

	data := make(map[string]string, len(n.Data)+2)
	for k, v := range n.Data {
		data[k] = v
	}
	data["type"] = n.Type
	if _, ok := data["role"]; !ok && p.Role != "" {
		data["role"] = string(p.Role)
	}

	msg := &messaging.Message{
		Token: p.FCMToken,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}

	id, err := s.fcm.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("notify: failed to send FCM message: %w", err)
	}
	s.logger.Debug("Push sent", zap.String("recipientId", n.RecipientID), zap.String("type", n.Type), zap.String("messageId", id))
	return nil
}

// LogNotificationService only logs; used when Firebase is not configured.
type LogNotificationService struct {
	Logger *zap.Logger
}

func (s LogNotificationService) Notify(_ context.Context, n models.Notification) error {
	if s.Logger != nil {
		s.Logger.Info("Notification", zap.String("recipientId", n.RecipientID), zap.String("type", n.Type),
			zap.String("title", n.Title))
	}
	return nil
}
