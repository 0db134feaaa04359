// Пакет pages — серверные страницы Receiver Portal.
// Каждая страница — templ.Component: общий layout с навигацией
// и содержимое страницы, переданное как children.
// Тексты берутся из i18n на языке запроса.
package pages

import (
	"context"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/recycleit/receiver-portal/internal/domain/model"
	"github.com/recycleit/receiver-portal/internal/ui/i18n"
)

// htmlWriter пишет разметку и запоминает первую ошибку записи.
type htmlWriter struct {
	ctx context.Context
	w   io.Writer
	err error
}

func newWriter(ctx context.Context, w io.Writer) *htmlWriter {
	return &htmlWriter{ctx: ctx, w: w}
}

// raw пишет готовую разметку.
func (h *htmlWriter) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

// text пишет экранированный текст; годится и для значений атрибутов.
func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

// t пишет перевод ключа.
func (h *htmlWriter) t(key string) {
	h.text(i18n.T(h.ctx, key))
}

// url пишет значение href/src.
func (h *htmlWriter) url(u templ.SafeURL) {
	h.text(string(u))
}

// field пишет строку модального окна «Подпись: значение».
func (h *htmlWriter) field(labelKey, value string) {
	h.raw(`<div class="field"><strong>`)
	h.t(labelKey)
	h.raw(`:</strong> `)
	h.text(value)
	h.raw(`</div>`)
}

// orNA заменяет пустое значение на «N/A» языка запроса.
func (h *htmlWriter) orNA(v string) string {
	return orDefault(v, i18n.T(h.ctx, "common.na"))
}

// orNone заменяет пустое значение на «None» языка запроса.
func (h *htmlWriter) orNone(v string) string {
	return orDefault(v, i18n.T(h.ctx, "common.none"))
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// proofSrc пропускает в src только data URI изображений.
// templ.URL такие адреса отбрасывает, поэтому проверка своя.
func proofSrc(v string) (templ.SafeURL, bool) {
	if !strings.HasPrefix(v, "data:image/") {
		return "", false
	}
	return templ.SafeURL(v), true
}

// requestURL — ссылка на заявку id в списке.
func requestURL(id string, edit bool) templ.SafeURL {
	u := "/pickup-requests?selected=" + url.QueryEscape(id)
	if edit {
		u += "&edit=1"
	}
	return templ.URL(u)
}

// requestActionURL — адрес действия над заявкой: proof или stage.
func requestActionURL(id, action string) templ.SafeURL {
	return templ.URL("/pickup-requests/" + url.PathEscape(id) + "/" + action)
}

// layout — документ с навигацией; содержимое страницы берётся из children.
func layout(titleKey string, user *model.User) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(ctx, w)
		h.raw(`<!DOCTYPE html><html lang="`)
		h.text(i18n.LangFromContext(ctx))
		h.raw(`"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		h.t(titleKey)
		h.raw(`</title><link rel="stylesheet" href="/static/css/app.css"></head><body><nav class="nav"><strong>`)
		h.t("app.title")
		h.raw(`</strong> <a href="/pickup-requests">`)
		h.t("nav.pickups")
		h.raw(`</a> <a href="/notifications">`)
		h.t("nav.notifications")
		h.raw(`</a><span class="spacer"></span><form method="post" action="/set-language"><span>`)
		h.t("nav.language")
		h.raw(`:</span> <button type="submit" name="lang" value="en">EN</button> <button type="submit" name="lang" value="ru">RU</button></form>`)
		if user != nil {
			name := user.Name
			if name == "" {
				name = user.Email
			}
			h.raw(`<span>`)
			h.text(name)
			h.raw(`</span><form method="post" action="/auth/sign-out"><button type="submit">`)
			h.t("nav.sign_out")
			h.raw(`</button></form>`)
		}
		h.raw(`</nav>`)
		if h.err != nil {
			return h.err
		}
		if err := templ.GetChildren(ctx).Render(ctx, w); err != nil {
			return err
		}
		h.raw(`</body></html>`)
		return h.err
	})
}

// page собирает layout и содержимое страницы.
func page(titleKey string, user *model.User, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return layout(titleKey, user).Render(templ.WithChildren(ctx, content), w)
	})
}

// ordinal — номер строки таблицы с единицы.
func ordinal(i int) string {
	return strconv.Itoa(i + 1)
}
