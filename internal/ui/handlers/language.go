// language.go — обработчик переключения языка страниц.
package handlers

import (
	"net/http"
	"net/url"
	"time"

	"github.com/recycleit/receiver-portal/internal/ui/i18n"
)

// HandleSetLanguage обрабатывает POST /set-language.
// Устанавливает cookie "lang" и перенаправляет обратно.
// Параметр lang: "en" или "ru" (из формы или query).
func HandleSetLanguage(w http.ResponseWriter, r *http.Request) {
	lang := r.FormValue("lang")
	if !i18n.IsSupported(lang) {
		lang = "en"
	}

	// Cookie "lang" на 1 год
	http.SetCookie(w, &http.Cookie{
		Name:     i18n.LangCookieName,
		Value:    lang,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(365 * 24 * time.Hour),
	})

	http.Redirect(w, r, backTo(r), http.StatusSeeOther)
}

// backTo возвращает путь из Referer того же хоста или defaultLanding.
func backTo(r *http.Request) string {
	referer, err := url.Parse(r.Header.Get("Referer"))
	if err != nil || referer.Path == "" || (referer.Host != "" && referer.Host != r.Host) {
		return defaultLanding
	}
	return safeNext(referer.RequestURI())
}
