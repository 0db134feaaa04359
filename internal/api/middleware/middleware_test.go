package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/pickup-requests", "/pickup-requests"},
		{"/pickup-requests/65a1f0c2b3d4e5f601234567/proof", "/pickup-requests/{id}/proof"},
		{"/pickup-requests/not-a-valid-id/stage", "/pickup-requests/{id}/stage"},
		{"/pickup-requests/last-submitted/dismiss", "/pickup-requests/last-submitted/dismiss"},
		{"/pickup-requests/abc", "/pickup-requests/{id}"},
		{"/static/css/app.css", "/static/*"},
		{"/health/ready", "/health/ready"},
		{"/wp-admin/login.php", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := normalizePath(tt.path); got != tt.want {
				t.Errorf("normalizePath(%q) = %q, ожидается %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestRequestLogger_LevelByStatus(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		status int
		level  string
	}{
		{"200", "/pickup-requests", http.StatusOK, "level=INFO"},
		{"404", "/missing", http.StatusNotFound, "level=WARN"},
		{"502", "/pickup-requests/x/proof", http.StatusBadGateway, "level=ERROR"},
		{"probe", "/health/live", http.StatusOK, "level=DEBUG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

			h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("ok"))
			}))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			out := buf.String()
			if !strings.Contains(out, tt.level) {
				t.Errorf("лог %q не содержит %s", out, tt.level)
			}
			if !strings.Contains(out, "bytes=2") {
				t.Errorf("лог %q не содержит размер ответа", out)
			}
		})
	}
}

func TestMetricsMiddleware_PassesStatus(t *testing.T) {
	h := MetricsMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pickup-requests", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("статус = %d, ожидается 418", rec.Code)
	}
}
