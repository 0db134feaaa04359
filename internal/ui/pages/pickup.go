package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/recycleit/receiver-portal/internal/domain/model"
	"github.com/recycleit/receiver-portal/internal/domain/pickup"
	"github.com/recycleit/receiver-portal/internal/ui/i18n"
)

// PickupData — данные страницы Receiver Dashboard.
type PickupData struct {
	// User — текущий пользователь
	User *model.User
	// Requests — заявки, назначенные пользователю
	Requests []model.PickupRequest
	// Fields — набор полей модального окна
	Fields pickup.FieldSet
	// Selected — заявка, открытая в модальном окне (nil — окно закрыто)
	Selected *model.PickupRequest
	// View — состояние секций заметок и подтверждения для Selected
	View pickup.ProofView
	// StagedNote — черновик заметки для Selected
	StagedNote string
	// HasStagedImage — для Selected выбрано изображение
	HasStagedImage bool
	// LastSubmitted — последняя подтверждённая заявка сессии
	LastSubmitted *model.PickupRequest
	// Alert — блокирующее сообщение об ошибке
	Alert string
	// Notice — сообщение об успешном действии
	Notice string
}

// EditToggle — показывать переключатель режима редактирования.
func (d PickupData) EditToggle() bool {
	return d.Fields.AllowEdit && d.Selected != nil && pickup.IsTerminalStatus(d.Selected.Status)
}

// PickupRequests — страница /pickup-requests.
func PickupRequests(data PickupData) templ.Component {
	return page("pickup.title", data.User, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(ctx, w)
		h.raw(`<div class="page">`)
		if data.Alert != "" {
			h.raw(`<div class="alert" role="alert">`)
			h.text(data.Alert)
			h.raw(`</div>`)
		}
		if data.Notice != "" {
			h.raw(`<div class="alert notice" role="status">`)
			h.text(data.Notice)
			h.raw(`</div>`)
		}
		requestTable(h, data.Requests)
		if data.LastSubmitted != nil {
			lastSubmitted(h, *data.LastSubmitted)
		}
		h.raw(`</div>`)
		if data.Selected != nil {
			requestModal(h, data, *data.Selected)
		}
		return h.err
	}))
}

// requestTable — таблица назначенных заявок или пустое состояние.
func requestTable(h *htmlWriter, requests []model.PickupRequest) {
	if len(requests) == 0 {
		h.raw(`<div>`)
		h.t("pickup.empty")
		h.raw(`</div>`)
		return
	}

	h.raw(`<h1>`)
	h.t("pickup.title")
	h.raw(`</h1><table class="requests"><thead><tr>`)
	for _, col := range []string{"sno", "user", "category", "phone", "address", "status"} {
		h.raw(`<th>`)
		h.t("pickup.col." + col)
		h.raw(`</th>`)
	}
	h.raw(`</tr></thead><tbody>`)
	for i, req := range requests {
		name := req.FullName
		if name == "" {
			name = pickup.UnknownName
		}
		h.raw(`<tr class="row"><td><a class="row-link" href="`)
		h.url(requestURL(req.ID, false))
		h.raw(`">`)
		h.text(ordinal(i))
		h.raw(`</a></td><td>`)
		h.text(name)
		h.raw(`</td><td>`)
		h.text(pickup.DisplayCategory(req))
		h.raw(`</td><td>`)
		h.text(pickup.DisplayPhone(req))
		h.raw(`</td><td>`)
		h.text(h.orNA(req.Address))
		h.raw(`</td><td>`)
		h.text(req.Status)
		h.raw(`</td></tr>`)
	}
	h.raw(`</tbody></table>`)
}

// lastSubmitted — панель последней подтверждённой заявки.
func lastSubmitted(h *htmlWriter, req model.PickupRequest) {
	h.raw(`<section class="submitted"><h2>`)
	h.t("submitted.title")
	h.raw(`</h2>`)
	h.field("submitted.user_email", req.UserEmail)
	h.field("submitted.receiver_phone", req.ReceiverPhone)
	h.field("submitted.type", req.RecycleItem)
	h.field("submitted.status", req.Status)
	h.field("modal.notes", notesOrPlaceholder(h, req.CollectionNotes))
	if src, ok := proofSrc(req.CollectionProof); ok {
		h.raw(`<div class="field"><strong>`)
		h.t("modal.proof")
		h.raw(`:</strong> <img src="`)
		h.url(src)
		h.raw(`" alt="Collection Proof"></div>`)
	}
	h.raw(`<form method="post" action="/pickup-requests/last-submitted/dismiss"><button type="submit" class="btn">`)
	h.t("submitted.dismiss")
	h.raw(`</button></form></section>`)
}

// requestModal — модальное окно заявки с формой подтверждения.
func requestModal(h *htmlWriter, data PickupData, req model.PickupRequest) {
	view := data.View

	h.raw(`<div class="modal-backdrop"><div class="modal" role="dialog" aria-labelledby="modal-title"><a class="close" href="/pickup-requests" aria-label="`)
	h.t("common.close")
	h.raw(`">&times;</a><h2 id="modal-title">`)
	h.t("modal.title")
	h.raw(`</h2>`)
	h.field("modal.name", h.orNA(req.FullName))
	h.field("modal.phone", h.orNA(req.PreferredContactNumber))
	h.field("modal.category", h.orNA(req.Category))
	h.field("modal.model", h.orNA(req.RecycleItem))
	h.field("modal.condition", h.orNA(req.DeviceCondition))

	h.raw(`<div class="field"><strong>`)
	h.t("modal.image")
	h.raw(`:</strong> `)
	if src, ok := proofSrc(req.CollectionProof); ok {
		h.raw(`<img src="`)
		h.url(src)
		h.raw(`" alt="Device">`)
	} else {
		h.t("modal.no_image")
	}
	h.raw(`</div>`)

	h.field("modal.pickup_date", h.orNA(req.PickupDate))
	h.field("modal.pickup_time", h.orNA(req.PickupTime))
	h.field("modal.pickup_address", h.orNA(req.Address))
	h.field("modal.preferred", h.orNA(req.PreferredContactNumber))
	if data.Fields.AlternateContact {
		h.field("modal.alternate", h.orNA(req.AlternateContactNumber))
	}
	if data.Fields.SpecialInstructions {
		h.field("modal.special", h.orNone(req.SpecialInstructions))
	}

	proofForm(h, data, req)

	if data.EditToggle() {
		h.raw(`<div class="actions"><a class="btn" href="`)
		h.url(requestURL(req.ID, !view.EditMode))
		h.raw(`">`)
		if view.EditMode {
			h.t("modal.edit_done")
		} else {
			h.t("modal.edit")
		}
		h.raw(`</a></div>`)
	}
	h.raw(`</div></div>`)
}

// proofForm — заметки и подтверждение сбора; поля ввода только когда
// ProofView их разрешает.
func proofForm(h *htmlWriter, data PickupData, req model.PickupRequest) {
	view := data.View

	h.raw(`<form method="post" action="`)
	h.url(requestActionURL(req.ID, "proof"))
	h.raw(`" enctype="multipart/form-data">`)
	if view.EditMode {
		h.raw(`<input type="hidden" name="edit" value="1">`)
	}
	if view.Reupload {
		h.raw(`<input type="hidden" name="reupload" value="1">`)
	}

	h.raw(`<div class="field"><strong>`)
	h.t("modal.notes")
	h.raw(`:</strong> `)
	if view.NotesEditable {
		h.raw(`<textarea name="note" rows="3">`)
		h.text(data.StagedNote)
		h.raw(`</textarea>`)
	} else {
		h.raw(`<p>`)
		h.text(notesOrPlaceholder(h, req.CollectionNotes))
		h.raw(`</p>`)
	}
	h.raw(`</div>`)

	h.raw(`<div class="field"><strong>`)
	h.t("modal.proof")
	h.raw(`:</strong> `)
	if view.ShowProofImage {
		src, _ := proofSrc(req.CollectionProof)
		h.raw(`<img src="`)
		h.url(src)
		h.raw(`" alt="Collection Proof">`)
	} else {
		h.raw(`<input type="file" name="image" accept="image/*"`)
		if view.FileInputDisabled {
			h.raw(` disabled`)
		}
		h.raw(`>`)
		if data.HasStagedImage {
			h.raw(`<small>`)
			h.t("modal.staged")
			h.raw(`</small>`)
		}
		h.raw(`<div class="actions">`)
		if view.NotesEditable {
			h.raw(`<button type="submit" class="btn" formaction="`)
			h.url(requestActionURL(req.ID, "stage"))
			h.raw(`">`)
			h.t("modal.save_draft")
			h.raw(`</button>`)
		}
		if view.ShowSubmit {
			h.raw(`<button type="submit" class="btn primary">`)
			h.t("modal.submit")
			h.raw(`</button>`)
		}
		h.raw(`</div>`)
	}
	h.raw(`</div></form>`)
}

func notesOrPlaceholder(h *htmlWriter, notes string) string {
	if notes == "" {
		return i18n.T(h.ctx, "modal.no_notes")
	}
	return notes
}
