// Пакет handlers — HTTP-обработчики страниц Receiver Portal.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/recycleit/receiver-portal/internal/domain/model"
	"github.com/recycleit/receiver-portal/internal/domain/pickup"
	"github.com/recycleit/receiver-portal/internal/recycleapi"
	"github.com/recycleit/receiver-portal/internal/service"
	"github.com/recycleit/receiver-portal/internal/store"
	"github.com/recycleit/receiver-portal/internal/ui/i18n"
	"github.com/recycleit/receiver-portal/internal/ui/pages"
)

// SignInMessage — сообщение для страницы входа при отсутствии сессии.
const SignInMessage = "signin to view pickup requests"

// multipartOverhead — запас на заметку и служебные части формы.
const multipartOverhead = 1 << 20

// PickupHandler — обработчик Receiver Dashboard.
type PickupHandler struct {
	pickups       *service.PickupService
	signInURL     string
	proofMaxBytes int64
	logger        *slog.Logger
}

// NewPickupHandler создаёт новый PickupHandler.
func NewPickupHandler(
	pickups *service.PickupService,
	signInURL string,
	proofMaxBytes int64,
	logger *slog.Logger,
) *PickupHandler {
	return &PickupHandler{
		pickups:       pickups,
		signInURL:     signInURL,
		proofMaxBytes: proofMaxBytes,
		logger:        logger.With(slog.String("component", "ui.pickup")),
	}
}

// HandleList обрабатывает GET /pickup-requests.
// ?selected=<id> открывает модальное окно, ?edit=1 включает режим редактирования.
func (h *PickupHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := store.SessionFromContext(ctx)

	user := h.pickups.CurrentUser(ctx, sess.Local)
	if user == nil {
		http.Redirect(w, r, signInRedirect(h.signInURL, SignInMessage), http.StatusFound)
		return
	}

	requests := h.pickups.Load(ctx, user)
	data := h.pageData(r, sess, user, requests, r.URL.Query().Get("selected"), r.URL.Query().Get("edit") == "1")
	h.render(w, r, http.StatusOK, data)
}

// HandleStage обрабатывает POST /pickup-requests/{id}/stage —
// сохраняет черновик заметки и изображения без отправки.
func (h *PickupHandler) HandleStage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := store.SessionFromContext(ctx)
	id := chi.URLParam(r, "id")

	user := h.pickups.CurrentUser(ctx, sess.Local)
	if user == nil {
		http.Redirect(w, r, signInRedirect(h.signInURL, SignInMessage), http.StatusFound)
		return
	}

	if !pickup.ValidRequestID(id) {
		h.renderAlert(w, r, sess, user, id, false, http.StatusUnprocessableEntity, h.alertMessage(r, service.ErrInvalidRequestID))
		return
	}

	err := h.stageForm(w, r, sess, id)
	edit := r.FormValue("edit") == "1"
	if err != nil {
		h.renderAlert(w, r, sess, user, id, edit, statusForError(err), h.alertMessage(r, err))
		return
	}

	http.Redirect(w, r, selectedURL(id, edit), http.StatusSeeOther)
}

// HandleSubmitProof обрабатывает POST /pickup-requests/{id}/proof.
// Форма читается только для аутентифицированного пользователя и
// корректного id: сначала сохраняется то, что в ней пришло, затем
// отправляется подтверждение.
func (h *PickupHandler) HandleSubmitProof(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := store.SessionFromContext(ctx)
	id := chi.URLParam(r, "id")

	user := h.pickups.CurrentUser(ctx, sess.Local)
	if user == nil {
		h.renderAlert(w, r, sess, nil, id, false, statusForError(service.ErrNotAuthenticated), h.alertMessage(r, service.ErrNotAuthenticated))
		return
	}
	if !pickup.ValidRequestID(id) {
		h.renderAlert(w, r, sess, user, id, false, statusForError(service.ErrInvalidRequestID), h.alertMessage(r, service.ErrInvalidRequestID))
		return
	}

	if err := h.stageForm(w, r, sess, id); err != nil {
		h.renderAlert(w, r, sess, user, id, r.FormValue("edit") == "1", statusForError(err), h.alertMessage(r, err))
		return
	}

	opts := service.SubmitOptions{Reupload: r.FormValue("reupload") == "1"}
	if _, err := h.pickups.SubmitProof(ctx, sess, id, opts); err != nil {
		h.renderAlert(w, r, sess, user, id, r.FormValue("edit") == "1", statusForError(err), h.alertMessage(r, err))
		return
	}

	http.Redirect(w, r, selectedURL(id, false), http.StatusSeeOther)
}

// HandleDismissLastSubmitted обрабатывает POST /pickup-requests/last-submitted/dismiss.
func (h *PickupHandler) HandleDismissLastSubmitted(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := store.SessionFromContext(ctx)

	if err := h.pickups.DismissLastSubmitted(ctx, sess.Scoped); err != nil {
		h.logger.Warn("Не удалось скрыть последнюю заявку",
			slog.String("error", err.Error()),
		)
	}
	http.Redirect(w, r, "/pickup-requests", http.StatusSeeOther)
}

// stageForm сохраняет заметку и изображение из multipart-формы.
// Отсутствующие поля черновик не меняют.
func (h *PickupHandler) stageForm(w http.ResponseWriter, r *http.Request, sess store.Session, id string) error {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.proofMaxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.proofMaxBytes + multipartOverhead); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return service.ErrImageTooLarge
		}
		return fmt.Errorf("разбор формы: %w", err)
	}

	if notes, ok := r.MultipartForm.Value["note"]; ok && len(notes) > 0 {
		if err := h.pickups.StageNote(ctx, sess.Scoped, id, notes[0]); err != nil {
			return err
		}
	}

	files := r.MultipartForm.File["image"]
	if len(files) == 0 || files[0].Size == 0 {
		return nil
	}
	dataURI, err := h.readImage(files[0])
	if err != nil {
		return err
	}
	return h.pickups.StageImage(ctx, sess.Scoped, id, dataURI)
}

// readImage читает загруженный файл и кодирует его в data URI.
func (h *PickupHandler) readImage(fh *multipart.FileHeader) (string, error) {
	if fh.Size > h.proofMaxBytes {
		return "", service.ErrImageTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("открытие файла: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.proofMaxBytes+1))
	if err != nil {
		return "", fmt.Errorf("чтение файла: %w", err)
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return service.EncodeProofImage(contentType, data, h.proofMaxBytes)
}

// pageData собирает данные страницы для текущего списка заявок.
func (h *PickupHandler) pageData(
	r *http.Request,
	sess store.Session,
	user *model.User,
	requests []model.PickupRequest,
	selectedID string,
	editMode bool,
) pages.PickupData {
	ctx := r.Context()
	data := pages.PickupData{
		User:          user,
		Requests:      requests,
		Fields:        h.pickups.Fields(),
		LastSubmitted: h.pickups.LastSubmitted(ctx, sess.Scoped),
	}
	if selectedID == "" {
		return data
	}

	selected, ok := h.pickups.Find(user, selectedID)
	if !ok && data.LastSubmitted != nil && data.LastSubmitted.ID == selectedID {
		// Заявки нет в списке: показываем локальную копию после подтверждения
		selected, ok = data.LastSubmitted, true
	}
	if !ok {
		return data
	}

	data.Selected = selected
	data.View = data.Fields.ProofView(*selected, editMode)

	staging, err := h.pickups.Staged(ctx, sess.Scoped)
	if err != nil {
		h.logger.Warn("Не удалось прочитать черновик",
			slog.String("request_id", selectedID),
			slog.String("error", err.Error()),
		)
		return data
	}
	data.StagedNote = staging.Notes[selectedID]
	data.HasStagedImage = staging.Images[selectedID] != ""
	return data
}

// renderAlert рендерит дашборд с блокирующим сообщением.
// Список берётся из памяти, без повторного запроса к API.
func (h *PickupHandler) renderAlert(
	w http.ResponseWriter,
	r *http.Request,
	sess store.Session,
	user *model.User,
	id string,
	editMode bool,
	status int,
	message string,
) {
	var requests []model.PickupRequest
	if user != nil {
		requests, _ = h.pickups.List(user)
	}
	data := h.pageData(r, sess, user, requests, id, editMode)
	if user == nil {
		data.Selected = nil
	}
	data.Alert = message
	h.render(w, r, status, data)
}

func (h *PickupHandler) render(w http.ResponseWriter, r *http.Request, status int, data pages.PickupData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if err := pages.PickupRequests(data).Render(r.Context(), w); err != nil {
		h.logger.Error("Ошибка рендеринга Receiver Dashboard",
			slog.String("error", err.Error()),
		)
	}
}

// alertMessage переводит ошибку действия в сообщение оператору.
func (h *PickupHandler) alertMessage(r *http.Request, err error) string {
	ctx := r.Context()
	var apiErr *recycleapi.APIError
	switch {
	case errors.Is(err, service.ErrNoStagedImage):
		return i18n.T(ctx, "alert.no_image")
	case errors.Is(err, service.ErrInvalidRequestID):
		return i18n.T(ctx, "alert.invalid_id")
	case errors.Is(err, service.ErrNotAuthenticated):
		return i18n.T(ctx, "alert.not_authenticated")
	case errors.Is(err, service.ErrProofAlreadySubmitted):
		return i18n.T(ctx, "alert.already_submitted")
	case errors.Is(err, service.ErrEditNotAllowed):
		return i18n.T(ctx, "alert.edit_not_allowed")
	case errors.Is(err, service.ErrInvalidImage):
		return i18n.T(ctx, "alert.invalid_image")
	case errors.Is(err, service.ErrImageTooLarge):
		return i18n.Tf(ctx, "alert.image_too_large", h.proofMaxBytes/1024)
	case errors.Is(err, store.ErrValueTooLarge):
		return i18n.Tf(ctx, "alert.stage_failed", err.Error())
	case errors.As(err, &apiErr):
		return i18n.Tf(ctx, "alert.submit_failed", apiErr.Message)
	default:
		return i18n.Tf(ctx, "alert.submit_error", err.Error())
	}
}

// statusForError возвращает HTTP-статус страницы с сообщением об ошибке.
func statusForError(err error) int {
	var apiErr *recycleapi.APIError
	switch {
	case errors.Is(err, service.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrProofAlreadySubmitted),
		errors.Is(err, service.ErrEditNotAllowed):
		return http.StatusConflict
	case errors.Is(err, service.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrNoStagedImage),
		errors.Is(err, service.ErrInvalidRequestID),
		errors.Is(err, service.ErrInvalidImage),
		errors.Is(err, store.ErrValueTooLarge):
		return http.StatusUnprocessableEntity
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// selectedURL возвращает адрес дашборда с открытой заявкой.
func selectedURL(id string, edit bool) string {
	q := url.Values{}
	q.Set("selected", id)
	if edit {
		q.Set("edit", "1")
	}
	return "/pickup-requests?" + q.Encode()
}

// signInRedirect добавляет message к адресу страницы входа.
func signInRedirect(signInURL, message string) string {
	u, err := url.Parse(signInURL)
	if err != nil {
		return signInURL
	}
	q := u.Query()
	q.Set("message", message)
	u.RawQuery = q.Encode()
	return u.String()
}
