package model

// Notification — уведомление пользователя (только чтение).
type Notification struct {
	// ID — идентификатор уведомления
	ID string `json:"id"`
	// Message — текст уведомления
	Message string `json:"message"`
	// Read — прочитано ли уведомление
	Read bool `json:"read"`
	// CreatedAt — время создания (ISO 8601 от API)
	CreatedAt string `json:"createdAt"`
}
