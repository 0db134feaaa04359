// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrNoStagedImage — изображение-подтверждение не подготовлено.
	ErrNoStagedImage = errors.New("изображение-подтверждение не загружено")
	// ErrInvalidRequestID — идентификатор заявки не является ObjectID.
	ErrInvalidRequestID = errors.New("некорректный идентификатор заявки")
	// ErrNotAuthenticated — в local-хранилище нет объекта пользователя.
	ErrNotAuthenticated = errors.New("пользователь не аутентифицирован")
	// ErrProofAlreadySubmitted — подтверждение уже загружено, заявка неизменяема.
	ErrProofAlreadySubmitted = errors.New("подтверждение приёма уже загружено")
	// ErrEditNotAllowed — повторная загрузка подтверждения отключена настройкой.
	ErrEditNotAllowed = errors.New("режим редактирования отключён")
	// ErrInvalidImage — файл не является изображением.
	ErrInvalidImage = errors.New("файл не является изображением")
	// ErrImageTooLarge — файл превышает допустимый размер.
	ErrImageTooLarge = errors.New("изображение превышает допустимый размер")
)
