// pickup.go — сервис дашборда получателя: загрузка назначенных заявок,
// подготовка заметок и изображений, подтверждение приёма.
package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/recycleit/receiver-portal/internal/domain/model"
	"github.com/recycleit/receiver-portal/internal/domain/pickup"
	"github.com/recycleit/receiver-portal/internal/recycleapi"
	"github.com/recycleit/receiver-portal/internal/store"
)

// proofSubmissionsTotal — попытки подтверждения приёма по результату.
var proofSubmissionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "rp_proof_submissions_total",
		Help: "Количество попыток подтверждения приёма заявок по результату",
	},
	[]string{"result"},
)

// RecycleAPI — операции внешнего API, которые использует дашборд.
type RecycleAPI interface {
	ListRecyclingRequests(ctx context.Context, identity recycleapi.Identity) ([]model.PickupRequest, error)
	ListUsers(ctx context.Context) ([]model.DirectoryUser, error)
	UpdateRecyclingRequest(ctx context.Context, identity recycleapi.Identity, id string, updates model.ProofUpdate) (*model.PickupRequest, error)
}

// Staging — заметки и изображения, подготовленные к отправке, по id заявки.
type Staging struct {
	Notes  map[string]string `json:"notes,omitempty"`
	Images map[string]string `json:"images,omitempty"`
}

// SubmitOptions — параметры подтверждения приёма.
type SubmitOptions struct {
	// Reupload — замена уже загруженного подтверждения (режим редактирования)
	Reupload bool
}

// PickupService — сервис дашборда получателя.
type PickupService struct {
	api       RecycleAPI
	directory *Directory
	// lists — последний загруженный список заявок каждого получателя
	lists  *expirable.LRU[string, []model.PickupRequest]
	fields pickup.FieldSet
	now    func() time.Time
	logger *slog.Logger
}

// NewPickupService создаёт сервис дашборда.
// listSize и listTTL ограничивают списки заявок, хранимые в памяти.
func NewPickupService(
	api RecycleAPI,
	directory *Directory,
	fields pickup.FieldSet,
	listSize int,
	listTTL time.Duration,
	logger *slog.Logger,
) *PickupService {
	return &PickupService{
		api:       api,
		directory: directory,
		lists:     expirable.NewLRU[string, []model.PickupRequest](listSize, nil, listTTL),
		fields:    fields,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "pickup_service")),
	}
}

// Fields возвращает набор полей модального окна.
func (s *PickupService) Fields() pickup.FieldSet {
	return s.fields
}

// CurrentUser возвращает объект пользователя из local-хранилища или nil.
// Повреждённое значение считается отсутствующим.
func (s *PickupService) CurrentUser(ctx context.Context, local store.Store) *model.User {
	return currentUser(ctx, local, s.logger)
}

func currentUser(ctx context.Context, local store.Store, logger *slog.Logger) *model.User {
	if local == nil {
		return nil
	}
	var user model.User
	found, err := local.Get(ctx, store.KeyUser, &user)
	if err != nil {
		logger.Warn("Не удалось прочитать объект пользователя",
			slog.String("error", err.Error()),
		)
		return nil
	}
	if !found || user.ID == "" {
		return nil
	}
	return &user
}

// Load загружает заявки, назначенные пользователю, и имена владельцев.
// Любая ошибка выборки логируется, результатом становится пустой список.
// Результат заменяет список пользователя в памяти.
func (s *PickupService) Load(ctx context.Context, user *model.User) []model.PickupRequest {
	if user == nil {
		return []model.PickupRequest{}
	}

	requests, err := s.fetchAssigned(ctx, user)
	if err != nil {
		s.logger.Error("Ошибка загрузки заявок на вывоз",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		requests = []model.PickupRequest{}
	}

	s.lists.Add(user.ID, requests)
	return requests
}

// fetchAssigned выполняет выборку заявок и справочника пользователей.
func (s *PickupService) fetchAssigned(ctx context.Context, user *model.User) ([]model.PickupRequest, error) {
	all, err := s.api.ListRecyclingRequests(ctx, identityOf(user))
	if err != nil {
		return nil, fmt.Errorf("список заявок: %w", err)
	}

	users, err := s.api.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("справочник пользователей: %w", err)
	}
	s.directory.Fill(users)

	assigned := pickup.AttachNames(pickup.AssignedTo(all, user.ID), pickup.DirectoryLookup(users))

	s.logger.Debug("Заявки получателя загружены",
		slog.String("user_id", user.ID),
		slog.Int("total", len(all)),
		slog.Int("assigned", len(assigned)),
	)
	return assigned, nil
}

// List возвращает список заявок пользователя из памяти.
func (s *PickupService) List(user *model.User) ([]model.PickupRequest, bool) {
	if user == nil {
		return nil, false
	}
	return s.lists.Get(user.ID)
}

// Find ищет заявку в списке пользователя, загруженном в память.
func (s *PickupService) Find(user *model.User, id string) (*model.PickupRequest, bool) {
	requests, ok := s.List(user)
	if !ok {
		return nil, false
	}
	for i := range requests {
		if requests[i].ID == id {
			req := requests[i]
			return &req, true
		}
	}
	return nil, false
}

// Staged возвращает подготовленные заметки и изображения браузера.
func (s *PickupService) Staged(ctx context.Context, scoped store.Store) (Staging, error) {
	var staging Staging
	if _, err := scoped.Get(ctx, store.KeyPickupStaging, &staging); err != nil {
		return Staging{}, fmt.Errorf("чтение подготовленных данных: %w", err)
	}
	if staging.Notes == nil {
		staging.Notes = map[string]string{}
	}
	if staging.Images == nil {
		staging.Images = map[string]string{}
	}
	return staging, nil
}

// StageNote сохраняет заметку к заявке. Пустая заметка удаляет запись.
func (s *PickupService) StageNote(ctx context.Context, scoped store.Store, id, note string) error {
	staging, err := s.Staged(ctx, scoped)
	if err != nil {
		return err
	}
	if note == "" {
		delete(staging.Notes, id)
	} else {
		staging.Notes[id] = note
	}
	return s.saveStaging(ctx, scoped, staging)
}

// StageImage сохраняет изображение-подтверждение (data URI) к заявке.
func (s *PickupService) StageImage(ctx context.Context, scoped store.Store, id, dataURI string) error {
	if !strings.HasPrefix(dataURI, "data:image/") {
		return ErrInvalidImage
	}
	staging, err := s.Staged(ctx, scoped)
	if err != nil {
		return err
	}
	staging.Images[id] = dataURI
	return s.saveStaging(ctx, scoped, staging)
}

func (s *PickupService) saveStaging(ctx context.Context, scoped store.Store, staging Staging) error {
	if len(staging.Notes) == 0 && len(staging.Images) == 0 {
		return scoped.Remove(ctx, store.KeyPickupStaging)
	}
	if err := scoped.Set(ctx, store.KeyPickupStaging, staging); err != nil {
		return fmt.Errorf("сохранение подготовленных данных: %w", err)
	}
	return nil
}

// EncodeProofImage кодирует файл изображения в data URI (base64).
// contentType должен быть image/*, размер не больше maxBytes.
func EncodeProofImage(contentType string, data []byte, maxBytes int64) (string, error) {
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if !strings.HasPrefix(mediaType, "image/") || len(mediaType) == len("image/") {
		return "", ErrInvalidImage
	}
	if len(data) == 0 {
		return "", ErrNoStagedImage
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", ErrImageTooLarge
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// SubmitProof подтверждает приём заявки id.
//
// Порядок: проверка подготовленного изображения и формата id (без обращения
// к API), повторное чтение пользователя, проверка неизменяемости (список
// перечитывается, если его нет в памяти), PATCH со
// статусом received. После успеха локальная копия сохраняется как последняя
// подтверждённая заявка, список заявок перечитывается, подготовленные
// данные этой заявки удаляются. Ошибка PATCH не меняет локальное состояние.
func (s *PickupService) SubmitProof(ctx context.Context, sess store.Session, id string, opts SubmitOptions) (*model.PickupRequest, error) {
	staging, err := s.Staged(ctx, sess.Scoped)
	if err != nil {
		proofSubmissionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	image := staging.Images[id]
	if image == "" {
		proofSubmissionsTotal.WithLabelValues("no_image").Inc()
		return nil, ErrNoStagedImage
	}
	note := staging.Notes[id]

	if !pickup.ValidRequestID(id) {
		proofSubmissionsTotal.WithLabelValues("invalid_id").Inc()
		return nil, ErrInvalidRequestID
	}

	user := s.CurrentUser(ctx, sess.Local)
	if user == nil {
		proofSubmissionsTotal.WithLabelValues("unauthenticated").Inc()
		return nil, ErrNotAuthenticated
	}

	// Без списка в памяти (истёк TTL, рестарт) неизменяемость не проверить
	if _, ok := s.List(user); !ok {
		s.Load(ctx, user)
	}
	original, _ := s.Find(user, id)
	if opts.Reupload && !s.fields.AllowEdit {
		proofSubmissionsTotal.WithLabelValues("edit_not_allowed").Inc()
		return nil, ErrEditNotAllowed
	}
	if original != nil && pickup.HasProof(*original) && !opts.Reupload {
		proofSubmissionsTotal.WithLabelValues("already_submitted").Inc()
		return nil, ErrProofAlreadySubmitted
	}

	updates := model.ProofUpdate{
		Status:          model.StatusReceived,
		CollectionNotes: note,
		CollectionProof: image,
	}
	identity := identityOf(user)

	s.logger.Info("Отправка подтверждения приёма",
		slog.String("request_id", id),
		slog.String("user_id", user.ID),
		slog.Bool("reupload", opts.Reupload),
	)

	if _, err := s.api.UpdateRecyclingRequest(ctx, identity, id, updates); err != nil {
		var apiErr *recycleapi.APIError
		if errors.As(err, &apiErr) {
			proofSubmissionsTotal.WithLabelValues("api_error").Inc()
		} else {
			proofSubmissionsTotal.WithLabelValues("error").Inc()
		}
		s.logger.Error("Ошибка подтверждения приёма",
			slog.String("request_id", id),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	proofSubmissionsTotal.WithLabelValues("success").Inc()

	updated := pickup.Collected(original, id, note, image, s.now())
	if err := sess.Scoped.Set(ctx, store.KeyLastSubmitted, updated); err != nil {
		s.logger.Warn("Не удалось сохранить последнюю подтверждённую заявку",
			slog.String("request_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.reconcile(ctx, user)

	delete(staging.Notes, id)
	delete(staging.Images, id)
	if err := s.saveStaging(ctx, sess.Scoped, staging); err != nil {
		s.logger.Warn("Не удалось очистить подготовленные данные",
			slog.String("request_id", id),
			slog.String("error", err.Error()),
		)
	}

	return &updated, nil
}

// reconcile перечитывает заявки после подтверждения с тем же фильтром
// и сопоставлением имён, что и при загрузке. Имена берутся из кэша
// справочника. Ошибка логируется, список в памяти остаётся прежним.
func (s *PickupService) reconcile(ctx context.Context, user *model.User) {
	all, err := s.api.ListRecyclingRequests(ctx, identityOf(user))
	if err != nil {
		s.logger.Warn("Ошибка повторной выборки заявок",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	s.lists.Add(user.ID, pickup.AttachNames(pickup.AssignedTo(all, user.ID), s.directory.Lookup))
}

// LastSubmitted возвращает последнюю подтверждённую заявку сессии браузера.
// Повреждённое значение удаляется.
func (s *PickupService) LastSubmitted(ctx context.Context, scoped store.Store) *model.PickupRequest {
	var req model.PickupRequest
	found, err := scoped.Get(ctx, store.KeyLastSubmitted, &req)
	if err != nil {
		s.logger.Warn("Не удалось прочитать последнюю подтверждённую заявку",
			slog.String("error", err.Error()),
		)
		_ = scoped.Remove(ctx, store.KeyLastSubmitted)
		return nil
	}
	if !found {
		return nil
	}
	return &req
}

// DismissLastSubmitted удаляет последнюю подтверждённую заявку.
func (s *PickupService) DismissLastSubmitted(ctx context.Context, scoped store.Store) error {
	return scoped.Remove(ctx, store.KeyLastSubmitted)
}

// identityOf возвращает идентичность пользователя для заголовков API.
func identityOf(user *model.User) recycleapi.Identity {
	return recycleapi.Identity{UserID: user.ID, Role: user.Role}
}
