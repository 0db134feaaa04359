package handlers

import (
	"log/slog"
	"net/http"

	"github.com/recycleit/receiver-portal/internal/service"
	"github.com/recycleit/receiver-portal/internal/store"
	"github.com/recycleit/receiver-portal/internal/ui/pages"
)

// NotificationsHandler — обработчик страницы уведомлений.
type NotificationsHandler struct {
	notifications *service.NotificationService
	logger        *slog.Logger
}

// NewNotificationsHandler создаёт новый NotificationsHandler.
func NewNotificationsHandler(notifications *service.NotificationService, logger *slog.Logger) *NotificationsHandler {
	return &NotificationsHandler{
		notifications: notifications,
		logger:        logger.With(slog.String("component", "ui.notifications")),
	}
}

// HandleList обрабатывает GET /notifications.
// Без сессии отображается пустое состояние, без redirect.
func (h *NotificationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := store.SessionFromContext(ctx)

	user := h.notifications.CurrentUser(ctx, sess.Local)
	data := pages.NotificationsData{
		User:  user,
		Items: h.notifications.List(ctx, user),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := pages.Notifications(data).Render(ctx, w); err != nil {
		h.logger.Error("Ошибка рендеринга уведомлений",
			slog.String("error", err.Error()),
		)
		http.Error(w, "Ошибка рендеринга страницы", http.StatusInternalServerError)
	}
}
