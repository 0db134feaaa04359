package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apihandlers "github.com/recycleit/receiver-portal/internal/api/handlers"
	"github.com/recycleit/receiver-portal/internal/config"
	"github.com/recycleit/receiver-portal/internal/domain/pickup"
	"github.com/recycleit/receiver-portal/internal/recycleapi"
	"github.com/recycleit/receiver-portal/internal/service"
	"github.com/recycleit/receiver-portal/internal/store"
	uihandlers "github.com/recycleit/receiver-portal/internal/ui/handlers"
	uimiddleware "github.com/recycleit/receiver-portal/internal/ui/middleware"
)

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	client, err := recycleapi.New("http://127.0.0.1:1", time.Second, "", "/", logger)
	if err != nil {
		t.Fatal(err)
	}
	ids := store.NewSessionIDs(false)
	sessions := store.NewMemoryBackend(0, 0, ids)
	pickups := service.NewPickupService(client, service.NewDirectory(10, time.Minute), pickup.FieldSet{}, 10, time.Minute, logger)

	return NewRouter(cfg, logger, Handlers{
		Health:        apihandlers.NewHealthHandler(client, sessions),
		Pickup:        uihandlers.NewPickupHandler(pickups, "/sign-in", 1<<20, logger),
		Notifications: uihandlers.NewNotificationsHandler(service.NewNotificationService(client, logger), logger),
		Auth:          uihandlers.NewAuthHandler(nil, "/sign-in", logger),
		Session:       uimiddleware.NewSessionBinder(store.NewMemoryBackend(0, 0, ids), sessions, logger),
	})
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(t, &config.Config{})

	tests := []struct {
		name     string
		method   string
		path     string
		wantCode int
		contains string
	}{
		{"liveness", http.MethodGet, "/health/live", http.StatusOK, `"service":"receiver-portal"`},
		{"readiness без API", http.MethodGet, "/health/ready", http.StatusServiceUnavailable, `"recycle_api"`},
		{"метрики", http.MethodGet, "/metrics", http.StatusOK, "rp_http_requests_total"},
		{"статика", http.MethodGet, "/static/css/app.css", http.StatusOK, ".modal"},
		{"корень", http.MethodGet, "/", http.StatusFound, ""},
		{"без сессии", http.MethodGet, "/pickup-requests", http.StatusFound, ""},
		{"hand-off выключен", http.MethodGet, "/auth/handoff?token=x", http.StatusNotFound, ""},
		{"неизвестный путь", http.MethodGet, "/nope", http.StatusNotFound, `"NOT_FOUND"`},
		{"неверный метод", http.MethodDelete, "/pickup-requests", http.StatusMethodNotAllowed, `"METHOD_NOT_ALLOWED"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.wantCode {
				t.Errorf("статус = %d, ожидается %d", rec.Code, tt.wantCode)
			}
			if tt.contains != "" && !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("тело не содержит %q", tt.contains)
			}
		})
	}
}

func TestRouter_CORS(t *testing.T) {
	router := newTestRouter(t, &config.Config{CORSAllowedOrigins: []string{"https://portal.example.com"}})

	req := httptest.NewRequest(http.MethodOptions, "/notifications", nil)
	req.Header.Set("Origin", "https://portal.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://portal.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
