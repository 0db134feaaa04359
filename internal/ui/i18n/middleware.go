// middleware.go — выбор языка запроса.
package i18n

import (
	"net/http"
)

// LangCookieName — cookie с языком, выбранным в навигации.
const LangCookieName = "lang"

// Middleware кладёт язык запроса в контекст: cookie "lang",
// затем Accept-Language, затем DefaultLang.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithLang(r.Context(), requestLang(r))))
		})
	}
}

func requestLang(r *http.Request) string {
	if cookie, err := r.Cookie(LangCookieName); err == nil && IsSupported(cookie.Value) {
		return cookie.Value
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		return MatchLanguage(accept)
	}
	return DefaultLang
}
