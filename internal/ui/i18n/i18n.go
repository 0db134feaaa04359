// Пакет i18n — переводы страниц Receiver Portal (en, ru).
// Каталог каждого языка — плоский JSON из locales/. Кроме сообщений
// он задаёт формат отображения времени (ключ format.timestamp).
// Язык запроса выбирает Middleware и кладёт в контекст.
package i18n

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/text/language"
)

// DefaultLang — язык по умолчанию и запасной каталог.
const DefaultLang = "en"

// timestampKey — ключ каталога с layout времени для time.Format.
const timestampKey = "format.timestamp"

var (
	// tags и codes — поддерживаемые языки, в одном порядке.
	tags    = []language.Tag{language.English, language.Russian}
	codes   = []string{"en", "ru"}
	matcher = language.NewMatcher(tags)
)

// timestampInputs — форматы, в которых API присылает время.
var timestampInputs = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Catalog — сообщения всех языков: язык → ключ → текст.
type Catalog struct {
	mu       sync.RWMutex
	messages map[string]map[string]string
}

// NewCatalog создаёт пустой каталог.
func NewCatalog() *Catalog {
	return &Catalog{messages: make(map[string]map[string]string, len(codes))}
}

// Add разбирает JSON-каталог языка lang и заменяет им прежний.
// Возвращает число ключей.
func (c *Catalog) Add(lang string, data []byte) (int, error) {
	var msgs map[string]string
	if err := json.Unmarshal(data, &msgs); err != nil {
		return 0, fmt.Errorf("i18n: каталог %s: %w", lang, err)
	}

	c.mu.Lock()
	c.messages[lang] = msgs
	c.mu.Unlock()
	return len(msgs), nil
}

// Lookup ищет key в каталоге lang, затем в DefaultLang.
// Ненайденный ключ возвращается как есть.
func (c *Catalog) Lookup(lang, key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, l := range []string{lang, DefaultLang} {
		if msg, ok := c.messages[l][key]; ok {
			return msg
		}
	}
	return key
}

var (
	current  *Catalog
	initOnce sync.Once
)

// Init создаёт каталог процесса. Повторные вызовы возвращают тот же каталог.
func Init() *Catalog {
	initOnce.Do(func() {
		current = NewCatalog()
	})
	return current
}

type langKey struct{}

// WithLang помещает язык в контекст.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}

// LangFromContext возвращает язык из контекста или DefaultLang.
func LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(langKey{}).(string); ok && lang != "" {
		return lang
	}
	return DefaultLang
}

// T переводит key на язык из контекста.
func T(ctx context.Context, key string) string {
	if current == nil {
		return key
	}
	return current.Lookup(LangFromContext(ctx), key)
}

// Tf переводит key и подставляет args в полученную формат-строку.
func Tf(ctx context.Context, key string, args ...any) string {
	msg := T(ctx, key)
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

// FormatTimestamp показывает время из API в формате языка из контекста.
// Нераспознанное значение возвращается как есть.
func FormatTimestamp(ctx context.Context, raw string) string {
	for _, layout := range timestampInputs {
		ts, err := time.Parse(layout, raw)
		if err == nil {
			return ts.Format(T(ctx, timestampKey))
		}
	}
	return raw
}

// MatchLanguage выбирает язык по заголовку Accept-Language.
func MatchLanguage(acceptLanguage string) string {
	_, idx := language.MatchStrings(matcher, acceptLanguage)
	return codes[idx]
}

// IsSupported сообщает, есть ли каталог для языка lang.
func IsSupported(lang string) bool {
	for _, code := range codes {
		if code == lang {
			return true
		}
	}
	return false
}
