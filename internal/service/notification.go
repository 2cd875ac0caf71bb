package service

import (
	"context"

	"github.com/illegalcall/quickfix/internal/apperror"
	"github.com/illegalcall/quickfix/internal/models"
)

type NotificationService struct {
	notifications NotificationStore
}

func NewNotificationService(notifications NotificationStore) *NotificationService {
	return &NotificationService{notifications: notifications}
}

func (s *NotificationService) List(ctx context.Context, userID, typ string, unreadOnly bool, limit int) ([]models.Notification, error) {
	f := models.NotificationFilter{UnreadOnly: unreadOnly, Limit: limit}
	if typ != "" && typ != "all" {
		t, err := ParseNotificationType(typ)
		if err != nil {
			return nil, err
		}
		f.Type = t
	}
	return s.notifications.List(ctx, userID, f)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return s.notifications.MarkRead(ctx, userID, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.notifications.MarkAllRead(ctx, userID)
}

func ParseNotificationType(s string) (models.NotificationType, error) {
	switch t := models.NotificationType(s); t {
	case models.NotificationProfessional, models.NotificationAI,
		models.NotificationAdvertisement, models.NotificationSystem:
		return t, nil
	}
	return "", apperror.Validation("type", "unknown notification type")
}
