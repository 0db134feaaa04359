// Пакет model — доменные модели Receiver Portal.
package model

// User — объект сессии пользователя, который внешний IdP
// передаёт порталу при входе. Хранится в local-хранилище браузера.
type User struct {
	// ID — идентификатор пользователя во внешнем API
	ID string `json:"id"`
	// Role — роль пользователя (receiver, recycler, user, ...)
	Role string `json:"role"`
	// Name — отображаемое имя
	Name string `json:"name,omitempty"`
	// Email — email пользователя
	Email string `json:"email,omitempty"`
}

// DirectoryUser — запись справочника пользователей (GET /api/users/listUsers).
type DirectoryUser struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}
