package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/recycleit/receiver-portal/internal/domain/model"
	"github.com/recycleit/receiver-portal/internal/ui/i18n"
)

// NotificationsData — данные страницы уведомлений.
type NotificationsData struct {
	User  *model.User
	Items []model.Notification
}

// Notifications — страница /notifications. Порядок уведомлений — как в API.
func Notifications(data NotificationsData) templ.Component {
	return page("notifications.title", data.User, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(ctx, w)
		if len(data.Items) == 0 {
			h.raw(`<div class="page">`)
			h.t("notifications.empty")
			h.raw(`</div>`)
			return h.err
		}

		h.raw(`<div class="page narrow"><h1>`)
		h.t("notifications.title")
		h.raw(`</h1><ul class="notifications">`)
		for _, n := range data.Items {
			if n.Read {
				h.raw(`<li class="read"><p>`)
			} else {
				h.raw(`<li class="unread"><p>`)
			}
			h.text(n.Message)
			h.raw(`</p>`)
			if !n.Read {
				h.raw(`<strong>`)
				h.t("notifications.unread")
				h.raw(`</strong> `)
			}
			h.raw(`<small>`)
			h.text(i18n.FormatTimestamp(ctx, n.CreatedAt))
			h.raw(`</small></li>`)
		}
		h.raw(`</ul></div>`)
		return h.err
	}))
}
