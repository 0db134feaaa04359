// auth.go — приём идентичности от внешнего IdP и выход.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/recycleit/receiver-portal/internal/domain/model"
	"github.com/recycleit/receiver-portal/internal/store"
	"github.com/recycleit/receiver-portal/internal/ui/i18n"
)

// defaultLanding — страница после входа, если next не задан.
const defaultLanding = "/pickup-requests"

// IdentityVerifier проверяет hand-off токен и возвращает пользователя.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*model.User, error)
}

// AuthHandler — обработчики hand-off и выхода.
type AuthHandler struct {
	// verifier — nil, если hand-off не настроен
	verifier  IdentityVerifier
	signInURL string
	logger    *slog.Logger
}

// NewAuthHandler создаёт новый AuthHandler.
func NewAuthHandler(verifier IdentityVerifier, signInURL string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		verifier:  verifier,
		signInURL: signInURL,
		logger:    logger.With(slog.String("component", "ui_auth")),
	}
}

// HandleHandoff — GET /auth/handoff?token=<jwt>&next=<path>
// Проверяет токен IdP и сохраняет объект пользователя в local-хранилище.
func (h *AuthHandler) HandleHandoff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.verifier == nil {
		http.Error(w, i18n.T(ctx, "auth.disabled"), http.StatusNotFound)
		return
	}

	user, err := h.verifier.Verify(ctx, r.URL.Query().Get("token"))
	if err != nil {
		h.logger.Warn("Hand-off токен отклонён",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr),
		)
		http.Error(w, i18n.T(ctx, "auth.invalid_token"), http.StatusUnauthorized)
		return
	}

	sess, _ := store.SessionFromContext(ctx)
	if err := sess.Local.Set(ctx, store.KeyUser, user); err != nil {
		h.logger.Error("Ошибка сохранения объекта пользователя",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Ошибка создания сессии", http.StatusInternalServerError)
		return
	}

	h.logger.Info("Пользователь вошёл через hand-off",
		slog.String("user_id", user.ID),
		slog.String("role", user.Role),
	)

	http.Redirect(w, r, safeNext(r.URL.Query().Get("next")), http.StatusSeeOther)
}

// HandleSignOut — POST /auth/sign-out
// Удаляет объект пользователя и данные сессии браузера.
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := store.SessionFromContext(ctx)

	if err := sess.Local.Remove(ctx, store.KeyUser); err != nil {
		h.logger.Warn("Ошибка удаления объекта пользователя",
			slog.String("error", err.Error()),
		)
	}
	for _, key := range []string{store.KeyPickupStaging, store.KeyLastSubmitted} {
		if err := sess.Scoped.Remove(ctx, key); err != nil {
			h.logger.Warn("Ошибка очистки сессии браузера",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}

	http.Redirect(w, r, h.signInURL, http.StatusSeeOther)
}

// safeNext допускает только локальные пути, иначе defaultLanding.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") ||
		strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") ||
		strings.ContainsAny(next, "\r\n") {
		return defaultLanding
	}
	return next
}
