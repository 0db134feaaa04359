package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Статусы жизненного цикла заявки, известные порталу.
// Полный набор переходов определяет внешний API.
const (
	StatusPending            = "pending"
	StatusCollected          = "collected"
	StatusReceived           = "received"
	StatusReceivedByRecycler = "received by recycler"
)

// PickupRequest — заявка на вывоз электронных отходов.
// Хранится во внешнем API, портал только читает и частично обновляет её.
type PickupRequest struct {
	// ID — идентификатор заявки (ObjectID, 24 hex-символа)
	ID string `json:"_id"`
	// AltID — дублирующий идентификатор, который присылают некоторые эндпоинты
	AltID string `json:"id,omitempty"`
	// UserID — идентификатор владельца заявки
	UserID string `json:"userId"`
	// UserEmail — email владельца
	UserEmail string `json:"userEmail"`
	// FullName — отображаемое имя владельца, вычисляется из справочника пользователей
	FullName string `json:"fullName,omitempty"`
	// RecycleItem — описание предмета (свободный текст, в т.ч. "Unknown")
	RecycleItem string `json:"recycleItem"`
	// RecycleItemFromForm — категория, выбранная в форме заявки
	RecycleItemFromForm string `json:"recycleItemFromForm,omitempty"`
	// Category — нормализованная категория
	Category string `json:"category,omitempty"`
	// PreferredContactNumber — основной контактный номер
	PreferredContactNumber string `json:"preferredContactNumber,omitempty"`
	// AlternateContactNumber — дополнительный контактный номер
	AlternateContactNumber string `json:"alternateContactNumber,omitempty"`
	// PickupDate — дата вывоза (строка, без часового пояса)
	PickupDate string `json:"pickupDate"`
	// PickupTime — время вывоза (строка)
	PickupTime string `json:"pickupTime"`
	// DeviceCondition — состояние устройства
	DeviceCondition string `json:"deviceCondition,omitempty"`
	// Status — статус жизненного цикла
	Status string `json:"status"`
	// AssignedReceiver — ссылка на назначенного получателя
	AssignedReceiver AssignedReceiver `json:"assignedReceiver"`
	// ReceiverEmail — email получателя
	ReceiverEmail string `json:"receiverEmail"`
	// ReceiverPhone — телефон получателя ("0000000000" — не задан)
	ReceiverPhone string `json:"receiverPhone"`
	// ReceiverName — имя получателя
	ReceiverName string `json:"receiverName"`
	// Address — адрес вывоза
	Address string `json:"address,omitempty"`
	// CreatedAt — время создания в формате, который прислал API
	CreatedAt string `json:"createdAt"`
	// CollectionNotes — заметки получателя при приёме
	CollectionNotes string `json:"collectionNotes,omitempty"`
	// CollectionProof — изображение-подтверждение (data URI, base64)
	CollectionProof string `json:"collectionProof,omitempty"`
	// SpecialInstructions — особые инструкции по вывозу
	SpecialInstructions string `json:"specialInstructions,omitempty"`
}

// ProofUpdate — частичное обновление заявки при подтверждении приёма.
type ProofUpdate struct {
	Status          string `json:"status"`
	CollectionNotes string `json:"collectionNotes"`
	CollectionProof string `json:"collectionProof"`
}

// AssignedReceiver — ссылка на получателя. Во внешних данных встречается
// как строка с идентификатором или как объект с полем id (или _id).
type AssignedReceiver struct {
	// ID — идентификатор получателя (пустой, если ссылка не задана)
	ID string
	// Structured — true, если ссылка пришла объектом
	Structured bool
	// raw — исходный JSON, возвращается при сериализации без изменений
	raw json.RawMessage
}

// NewAssignedReceiver создаёт строковую ссылку на получателя.
func NewAssignedReceiver(id string) AssignedReceiver {
	return AssignedReceiver{ID: id}
}

// UnmarshalJSON разбирает строковую, объектную или null-ссылку.
func (a *AssignedReceiver) UnmarshalJSON(data []byte) error {
	*a = AssignedReceiver{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	a.raw = append(json.RawMessage(nil), trimmed...)

	switch trimmed[0] {
	case '"':
		return json.Unmarshal(trimmed, &a.ID)
	case '{':
		var ref struct {
			ID      any `json:"id"`
			MongoID any `json:"_id"`
		}
		if err := json.Unmarshal(trimmed, &ref); err != nil {
			return fmt.Errorf("assignedReceiver: %w", err)
		}
		a.Structured = true
		a.ID = refString(ref.ID)
		if a.ID == "" {
			a.ID = refString(ref.MongoID)
		}
		return nil
	default:
		// Числа и прочие значения не являются ссылкой на пользователя
		return nil
	}
}

// MarshalJSON возвращает исходное представление ссылки.
func (a AssignedReceiver) MarshalJSON() ([]byte, error) {
	if len(a.raw) > 0 {
		return a.raw, nil
	}
	if a.ID == "" {
		return []byte(`""`), nil
	}
	return json.Marshal(a.ID)
}

// refString приводит значение поля ссылки к строке.
// Extended JSON ({"$oid": "..."}) тоже поддерживается.
func refString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		if oid, ok := val["$oid"].(string); ok {
			return oid
		}
	}
	return ""
}
