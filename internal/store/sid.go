package store

import (
	"net/http"

	"github.com/google/uuid"
)

// SessionCookieName — cookie с идентификатором сессии браузера.
const SessionCookieName = "rp_sid"

// SessionIDs выдаёт и читает идентификатор сессии браузера.
// Cookie без MaxAge: браузер удаляет его при завершении сессии.
type SessionIDs struct {
	secure bool
}

// NewSessionIDs создаёт генератор идентификаторов сессии.
func NewSessionIDs(secure bool) *SessionIDs {
	return &SessionIDs{secure: secure}
}

// Ensure возвращает идентификатор сессии из запроса или выдаёт новый.
// Новый идентификатор запоминается в запросе, чтобы повторный вызов
// в том же запросе вернул его же.
func (s *SessionIDs) Ensure(w http.ResponseWriter, r *http.Request) string {
	if sid, ok := s.fromRequest(r); ok {
		return sid
	}

	sid := uuid.NewString()
	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, cookie)
	r.AddCookie(cookie)
	return sid
}

// fromRequest читает идентификатор сессии из cookie запроса.
// Значения, не являющиеся UUID, игнорируются.
func (s *SessionIDs) fromRequest(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", false
	}
	id, err := uuid.Parse(cookie.Value)
	if err != nil {
		return "", false
	}
	return id.String(), true
}
