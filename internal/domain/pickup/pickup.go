// Пакет pickup — чистая логика дашборда получателя: фильтрация назначенных
// заявок, сопоставление имён, правила отображения и синтез локальной копии
// заявки после подтверждения приёма.
package pickup

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/recycleit/receiver-portal/internal/domain/model"
)

// UnknownName — значение fullName, когда владелец не найден в справочнике.
const UnknownName = "Unknown"

// PhonePlaceholder — значение receiverPhone, означающее «телефон не задан».
const PhonePlaceholder = "0000000000"

// NotAvailable — отображаемое значение для отсутствующих полей.
const NotAvailable = "N/A"

// ValidRequestID проверяет формат идентификатора заявки (ObjectID, 24 hex).
func ValidRequestID(id string) bool {
	return primitive.IsValidObjectID(id)
}

// ResolveAssignedID возвращает идентификатор назначенного получателя.
// Используется одинаково при первичной загрузке и при повторной выборке
// после подтверждения. Значение сравнивается как есть, без нормализации.
func ResolveAssignedID(ref model.AssignedReceiver) string {
	return ref.ID
}

// AssignedTo оставляет только заявки, назначенные пользователю userID.
// Порядок заявок сохраняется.
func AssignedTo(requests []model.PickupRequest, userID string) []model.PickupRequest {
	result := make([]model.PickupRequest, 0, len(requests))
	if userID == "" {
		return result
	}
	for _, req := range requests {
		if ResolveAssignedID(req.AssignedReceiver) == userID {
			result = append(result, req)
		}
	}
	return result
}

// NameLookup возвращает имя пользователя справочника по идентификатору.
type NameLookup func(userID string) (string, bool)

// AttachNames заполняет fullName по справочнику пользователей.
// Исходный срез не изменяется.
func AttachNames(requests []model.PickupRequest, lookup NameLookup) []model.PickupRequest {
	result := make([]model.PickupRequest, len(requests))
	for i, req := range requests {
		req.FullName = UnknownName
		if lookup != nil {
			if name, ok := lookup(req.UserID); ok {
				req.FullName = name
			}
		}
		result[i] = req
	}
	return result
}

// DirectoryLookup строит NameLookup по ответу справочника пользователей.
// При дублях побеждает первая запись.
func DirectoryLookup(users []model.DirectoryUser) NameLookup {
	names := make(map[string]string, len(users))
	for _, u := range users {
		if _, exists := names[u.ID]; !exists {
			names[u.ID] = u.Name
		}
	}
	return func(userID string) (string, bool) {
		name, ok := names[userID]
		return name, ok
	}
}

// DisplayCategory — категория для таблицы дашборда.
func DisplayCategory(req model.PickupRequest) string {
	if req.Category != "" {
		return req.Category
	}
	if strings.EqualFold(req.RecycleItem, "unknown") {
		if req.RecycleItemFromForm != "" {
			return req.RecycleItemFromForm
		}
		return UnknownName
	}
	return req.RecycleItem
}

// DisplayPhone — контактный телефон для таблицы дашборда.
func DisplayPhone(req model.PickupRequest) string {
	if req.PreferredContactNumber != "" {
		return req.PreferredContactNumber
	}
	if req.ReceiverPhone != "" && req.ReceiverPhone != PhonePlaceholder {
		return req.ReceiverPhone
	}
	return NotAvailable
}

// IsTerminalStatus сообщает, что заявка уже принята (collected-подобный статус).
func IsTerminalStatus(status string) bool {
	switch status {
	case model.StatusCollected, model.StatusReceived, model.StatusReceivedByRecycler:
		return true
	default:
		return false
	}
}

// HasProof сообщает, что подтверждение приёма уже загружено.
func HasProof(req model.PickupRequest) bool {
	return req.CollectionProof != ""
}

// Collected возвращает локальную копию заявки после успешного подтверждения.
// Если исходной заявки нет в памяти, собирается минимальная запись
// с идентификатором и полями подтверждения.
func Collected(original *model.PickupRequest, id, note, image string, now time.Time) model.PickupRequest {
	if original != nil {
		updated := *original
		updated.Status = model.StatusReceived
		updated.CollectionNotes = note
		updated.CollectionProof = image
		return updated
	}
	return model.PickupRequest{
		ID:               id,
		Status:           model.StatusReceived,
		AssignedReceiver: model.NewAssignedReceiver(""),
		CreatedAt:        now.UTC().Format(time.RFC3339Nano),
		CollectionNotes:  note,
		CollectionProof:  image,
	}
}
