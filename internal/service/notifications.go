// notifications.go — сервис списка уведомлений пользователя.
package service

import (
	"context"
	"log/slog"

	"github.com/recycleit/receiver-portal/internal/domain/model"
	"github.com/recycleit/receiver-portal/internal/store"
)

// NotificationAPI — операция внешнего API для уведомлений.
type NotificationAPI interface {
	ListNotifications(ctx context.Context, userID string) ([]model.Notification, error)
}

// NotificationService — сервис уведомлений (только чтение).
type NotificationService struct {
	api    NotificationAPI
	logger *slog.Logger
}

// NewNotificationService создаёт сервис уведомлений.
func NewNotificationService(api NotificationAPI, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		api:    api,
		logger: logger.With(slog.String("component", "notification_service")),
	}
}

// CurrentUser возвращает объект пользователя из local-хранилища или nil.
func (s *NotificationService) CurrentUser(ctx context.Context, local store.Store) *model.User {
	return currentUser(ctx, local, s.logger)
}

// List возвращает уведомления пользователя в порядке, заданном сервером.
// Без пользователя и при любой ошибке — пустой список.
func (s *NotificationService) List(ctx context.Context, user *model.User) []model.Notification {
	if user == nil {
		return []model.Notification{}
	}

	items, err := s.api.ListNotifications(ctx, user.ID)
	if err != nil {
		s.logger.Error("Ошибка загрузки уведомлений",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return []model.Notification{}
	}
	if items == nil {
		return []model.Notification{}
	}
	return items
}
