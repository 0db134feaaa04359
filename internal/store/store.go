// Пакет store — абстракция key-value хранилища состояния браузера.
// Два уровня: local (долговременное, аналог localStorage) и session
// (живёт в пределах сессии браузера, аналог sessionStorage).
// Значения сериализуются в JSON.
package store

import (
	"context"
	"errors"
	"net/http"
)

// Ключи, которые использует портал.
const (
	// KeyUser — объект сессии пользователя (local)
	KeyUser = "user"
	// KeyPickupStaging — заметки и изображения, подготовленные к отправке (session)
	KeyPickupStaging = "pickupStaging"
	// KeyLastSubmitted — последняя подтверждённая заявка (session)
	KeyLastSubmitted = "lastSubmittedRequest"
)

// ErrValueTooLarge — значение не помещается в хранилище.
var ErrValueTooLarge = errors.New("значение превышает лимит хранилища")

// Store — key-value хранилище одного браузера.
type Store interface {
	// Get читает значение key в dst. found=false, если ключа нет.
	Get(ctx context.Context, key string, dst any) (found bool, err error)
	// Set сохраняет значение под ключом key.
	Set(ctx context.Context, key string, value any) error
	// Remove удаляет ключ. Отсутствие ключа — не ошибка.
	Remove(ctx context.Context, key string) error
}

// Backend привязывает хранилище к браузеру, от которого пришёл запрос.
// Запись в возвращённый Store может выставлять cookie в w, поэтому
// Store должен использоваться до записи тела ответа.
type Backend interface {
	Bind(w http.ResponseWriter, r *http.Request) Store
}

// Session — пара хранилищ, с которыми работает запрос.
type Session struct {
	// Local — долговременное хранилище (объект пользователя)
	Local Store
	// Scoped — хранилище сессии браузера (staging, последняя заявка)
	Scoped Store
}

type sessionKey struct{}

// WithSession сохраняет Session в контексте запроса.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext извлекает Session из контекста запроса.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}
