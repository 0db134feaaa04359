// Пакет middleware — HTTP middleware страниц Receiver Portal.
// session.go — привязка local- и session-хранилищ браузера к запросу.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/recycleit/receiver-portal/internal/store"
)

// SessionBinder — middleware, помещающий store.Session в контекст запроса.
// Local хранит объект пользователя, Scoped — черновики и последнюю заявку.
type SessionBinder struct {
	local  store.Backend
	scoped store.Backend
	logger *slog.Logger
}

// NewSessionBinder создаёт новый SessionBinder.
func NewSessionBinder(local, scoped store.Backend, logger *slog.Logger) *SessionBinder {
	return &SessionBinder{
		local:  local,
		scoped: scoped,
		logger: logger.With(slog.String("component", "ui_session_middleware")),
	}
}

// Middleware возвращает HTTP middleware.
// Применяется к страницам портала; health и метрики хранилища не трогают.
func (sb *SessionBinder) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := store.Session{
				Local:  sb.local.Bind(w, r),
				Scoped: sb.scoped.Bind(w, r),
			}
			// Состояние браузера не должно попадать в промежуточные кэши
			w.Header().Set("Cache-Control", "no-store")

			next.ServeHTTP(w, r.WithContext(store.WithSession(r.Context(), sess)))
		})
	}
}
