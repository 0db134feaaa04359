// Пакет recycleapi — HTTP-клиент внешнего API платформы переработки.
// Поддерживает TLS с кастомным CA (RP_API_CA_CERT_PATH).
// Операции: ListRecyclingRequests, UpdateRecyclingRequest (GET/PATCH /api/recyclingRequests),
// ListUsers (GET /api/users/listUsers), ListNotifications (GET /api/notifications).
// Повторных попыток клиент не делает.
package recycleapi

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/recycleit/receiver-portal/internal/domain/model"
)

// ErrUnexpectedShape — ответ списка не является ни массивом, ни {data: [...]}.
var ErrUnexpectedShape = errors.New("неожиданная структура ответа API")

// APIError — отказ API с сообщением сервера ({success: false, error: "..."}).
type APIError struct {
	// StatusCode — HTTP статус ответа
	StatusCode int
	// Message — сообщение об ошибке от сервера
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Identity — идентичность пользователя, передаваемая в заголовках x-user-id и x-user-role.
type Identity struct {
	UserID string
	Role   string
}

// Client — HTTP-клиент внешнего API.
type Client struct {
	baseURL    string
	healthPath string
	httpClient *http.Client
	logger     *slog.Logger
}

// New создаёт клиент API.
// caCertPath — путь к CA-сертификату для TLS (пустая строка — стандартный пул).
// healthPath — путь readiness-проверки API.
func New(baseURL string, timeout time.Duration, caCertPath, healthPath string, logger *slog.Logger) (*Client, error) {
	httpClient := &http.Client{Timeout: timeout}

	if caCertPath != "" {
		tlsConfig, err := buildTLSConfig(caCertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата API: %w", err)
		}
		httpClient.Transport = &http.Transport{
			TLSClientConfig: tlsConfig,
		}
		logger.Info("CA-сертификат API добавлен в пул доверия",
			slog.String("ca_cert", caCertPath),
		)
	}

	if healthPath == "" {
		healthPath = "/"
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		healthPath: healthPath,
		httpClient: httpClient,
		logger:     logger.With(slog.String("component", "recycle_api")),
	}, nil
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("CA-сертификат %s не содержит PEM-блоков", caCertPath)
	}

	return &tls.Config{
		RootCAs: caCertPool,
	}, nil
}

// BaseURL возвращает базовый URL API.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HealthPath возвращает путь readiness-проверки API.
func (c *Client) HealthPath() string {
	return c.healthPath
}

// ListRecyclingRequests запрашивает заявки от имени пользователя.
// GET /api/recyclingRequests с заголовками x-user-id, x-user-role.
// Ответ принимается как {data: [...]} и как голый массив.
func (c *Client) ListRecyclingRequests(ctx context.Context, identity Identity) ([]model.PickupRequest, error) {
	start := time.Now()

	req, err := c.newRequest(ctx, http.MethodGet, "/api/recyclingRequests", nil)
	if err != nil {
		return nil, fmt.Errorf("создание запроса ListRecyclingRequests: %w", err)
	}
	setIdentity(req, identity)

	body, err := c.do(req)
	if err != nil {
		observeUpstream("list_requests", start, err)
		return nil, fmt.Errorf("запрос ListRecyclingRequests: %w", err)
	}

	var requests []model.PickupRequest
	if err := decodeList(body, &requests); err != nil {
		observeUpstream("list_requests", start, err)
		return nil, fmt.Errorf("декодирование ListRecyclingRequests: %w", err)
	}

	observeUpstream("list_requests", start, nil)
	return requests, nil
}

// ListUsers запрашивает справочник пользователей.
// GET /api/users/listUsers → {data: [...]}.
// Объект без data (или data: null) — пустой справочник, а не ошибка.
func (c *Client) ListUsers(ctx context.Context) ([]model.DirectoryUser, error) {
	start := time.Now()

	req, err := c.newRequest(ctx, http.MethodGet, "/api/users/listUsers", nil)
	if err != nil {
		return nil, fmt.Errorf("создание запроса ListUsers: %w", err)
	}

	body, err := c.do(req)
	if err != nil {
		observeUpstream("list_users", start, err)
		return nil, fmt.Errorf("запрос ListUsers: %w", err)
	}

	if missingData(body) {
		c.logger.Warn("Ответ ListUsers без data, справочник считается пустым")
		observeUpstream("list_users", start, nil)
		return []model.DirectoryUser{}, nil
	}

	var users []model.DirectoryUser
	if err := decodeList(body, &users); err != nil {
		observeUpstream("list_users", start, err)
		return nil, fmt.Errorf("декодирование ListUsers: %w", err)
	}

	observeUpstream("list_users", start, nil)
	return users, nil
}

// updateRequest — тело PATCH /api/recyclingRequests.
type updateRequest struct {
	ID      string            `json:"id"`
	Updates model.ProofUpdate `json:"updates"`
}

// envelope — общая обёртка ответов {success, data, error}.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
}

// UpdateRecyclingRequest частично обновляет заявку.
// PATCH /api/recyclingRequests с телом {id, updates}.
// При {success: false} возвращается *APIError с сообщением сервера.
// Возвращённая заявка может быть nil, если сервер не прислал data.
func (c *Client) UpdateRecyclingRequest(ctx context.Context, identity Identity, id string, updates model.ProofUpdate) (*model.PickupRequest, error) {
	start := time.Now()

	payload, err := json.Marshal(updateRequest{ID: id, Updates: updates})
	if err != nil {
		return nil, fmt.Errorf("сериализация UpdateRecyclingRequest: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPatch, "/api/recyclingRequests", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("создание запроса UpdateRecyclingRequest: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	setIdentity(req, identity)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observeUpstream("update_request", start, err)
		return nil, fmt.Errorf("запрос UpdateRecyclingRequest: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		observeUpstream("update_request", start, err)
		return nil, fmt.Errorf("чтение ответа UpdateRecyclingRequest: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			apiErr := &APIError{StatusCode: resp.StatusCode, Message: statusMessage(resp.StatusCode, body)}
			observeUpstream("update_request", start, apiErr)
			return nil, apiErr
		}
		observeUpstream("update_request", start, err)
		return nil, fmt.Errorf("декодирование UpdateRecyclingRequest: %w", err)
	}

	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		msg := errorMessage(env.Error)
		if msg == "" {
			msg = statusMessage(resp.StatusCode, nil)
		}
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: msg}
		observeUpstream("update_request", start, apiErr)
		return nil, apiErr
	}

	observeUpstream("update_request", start, nil)

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, nil
	}
	var updated model.PickupRequest
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		// Заявка обновлена, тело data не разобрано — вызывающий использует локальную копию
		c.logger.Warn("Не удалось разобрать data ответа UpdateRecyclingRequest",
			slog.String("request_id", id),
			slog.String("error", err.Error()),
		)
		return nil, nil
	}
	return &updated, nil
}

// ListNotifications запрашивает уведомления пользователя.
// GET /api/notifications?userId=<id> → {success, data}.
func (c *Client) ListNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	start := time.Now()

	path := "/api/notifications?userId=" + url.QueryEscape(userID)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("создание запроса ListNotifications: %w", err)
	}

	body, err := c.do(req)
	if err != nil {
		observeUpstream("list_notifications", start, err)
		return nil, fmt.Errorf("запрос ListNotifications: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		observeUpstream("list_notifications", start, err)
		return nil, fmt.Errorf("декодирование ListNotifications: %w", err)
	}
	if !env.Success {
		apiErr := &APIError{StatusCode: http.StatusOK, Message: errorMessage(env.Error)}
		if apiErr.Message == "" {
			apiErr.Message = "API вернул success=false"
		}
		observeUpstream("list_notifications", start, apiErr)
		return nil, apiErr
	}

	var notifications []model.Notification
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &notifications); err != nil {
			observeUpstream("list_notifications", start, err)
			return nil, fmt.Errorf("декодирование data ListNotifications: %w", err)
		}
	}

	observeUpstream("list_notifications", start, nil)
	return notifications, nil
}

// CheckReady проверяет доступность API (GET healthPath).
// Ответы 5xx и сетевые ошибки — fail.
func (c *Client) CheckReady() (string, string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, c.healthPath, nil)
	if err != nil {
		return "fail", err.Error()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "fail", fmt.Sprintf("API недоступен: %v", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		return "fail", fmt.Sprintf("API вернул статус %d", resp.StatusCode)
	}
	return "ok", ""
}

// newRequest создаёт запрос к API относительно базового URL.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do выполняет запрос и возвращает тело успешного ответа.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("чтение ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var env envelope
		if json.Unmarshal(body, &env) == nil {
			if msg := errorMessage(env.Error); msg != "" {
				return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
			}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: statusMessage(resp.StatusCode, body)}
	}

	return body, nil
}

// setIdentity передаёт идентичность пользователя в заголовках запроса.
func setIdentity(req *http.Request, identity Identity) {
	req.Header.Set("x-user-id", identity.UserID)
	req.Header.Set("x-user-role", identity.Role)
}

// decodeList разбирает список в форме голого массива или {data: [...]}.
func decodeList[T any](body []byte, dst *[]T) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ErrUnexpectedShape
	}

	switch trimmed[0] {
	case '[':
		return json.Unmarshal(trimmed, dst)
	case '{':
		var wrapped struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return err
		}
		data := bytes.TrimSpace(wrapped.Data)
		if len(data) == 0 || data[0] != '[' {
			return ErrUnexpectedShape
		}
		return json.Unmarshal(data, dst)
	default:
		return ErrUnexpectedShape
	}
}

// missingData — ответ-объект без поля data или с data: null.
func missingData(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	var wrapped struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return false
	}
	data := bytes.TrimSpace(wrapped.Data)
	return len(data) == 0 || bytes.Equal(data, []byte("null"))
}

// errorMessage извлекает сообщение из поля error (строка или {message}).
func errorMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		return obj.Message
	}
	return string(raw)
}

// statusMessage формирует сообщение для ответа без JSON-ошибки.
func statusMessage(code int, body []byte) string {
	msg := fmt.Sprintf("API вернул статус %d", code)
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 {
		msg += ": " + text
	}
	return msg
}
