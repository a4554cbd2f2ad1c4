package services

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"firebase.google.com/go/messaging"

	"qamqorBack/internal/models"
)

// TokenStore keeps device push tokens per user.
type TokenStore interface {
	Save(ctx context.Context, userID int64, token string) error
	Delete(ctx context.Context, userID int64, token string) error
	DeleteByToken(ctx context.Context, token string) error
	ListByUser(ctx context.Context, userID int64) ([]string, error)
}

// NotificationService pushes donation notifications over FCM. Delivery is
// best effort; nothing in the payment path waits on it or fails because of
// it. A nil messaging client disables pushes entirely.
type NotificationService struct {
	Messaging *messaging.Client
	Tokens    TokenStore
	Logger    *slog.Logger
}

func (s *NotificationService) SaveToken(ctx context.Context, userID int64, token string) error {
	return s.Tokens.Save(ctx, userID, token)
}

func (s *NotificationService) DeleteToken(ctx context.Context, userID int64, token string) error {
	return s.Tokens.Delete(ctx, userID, token)
}

// Notify sends the notification to every device the user has registered. It
// returns immediately; sending happens in the background with its own
// deadline so a caller's cancelled request context cannot drop the push.
func (s *NotificationService) Notify(userID int64, n models.Notification) {
	if s.Messaging == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.send(ctx, userID, n)
	}()
}

func (s *NotificationService) send(ctx context.Context, userID int64, n models.Notification) {
	tokens, err := s.Tokens.ListByUser(ctx, userID)
	if err != nil {
		s.logger().Error("list push tokens", "user_id", userID, "err", err)
		return
	}
	for _, token := range tokens {
		msg := &messaging.Message{
			Token: token,
			Notification: &messaging.Notification{
				Title: n.Title,
				Body:  n.Message,
			},
			Data: map[string]string{
				"type":      n.Type,
				"action_id": strconv.FormatInt(n.ActionID, 10),
			},
			Android: &messaging.AndroidConfig{
				Priority: "high",
				Notification: &messaging.AndroidNotification{
					ChannelID: "high_priority_channel",
				},
			},
			APNS: &messaging.APNSConfig{
				Headers: map[string]string{
					"apns-priority": "10",
				},
				Payload: &messaging.APNSPayload{
					Aps: &messaging.Aps{
						Alert: &messaging.ApsAlert{
							Title: n.Title,
							Body:  n.Message,
						},
						Sound: "default",
					},
				},
			},
		}
		if _, err := s.Messaging.Send(ctx, msg); err != nil {
			if messaging.IsRegistrationTokenNotRegistered(err) {
				if err := s.Tokens.DeleteByToken(ctx, token); err != nil {
					s.logger().Error("drop dead push token", "err", err)
				}
				continue
			}
			s.logger().Error("send push", "user_id", userID, "err", err)
		}
	}
}

func (s *NotificationService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
