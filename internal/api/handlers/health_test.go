package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// stubChecker — ReadinessChecker с фиксированным ответом.
type stubChecker struct {
	status  string
	message string
}

func (s stubChecker) CheckReady() (string, string) {
	return s.status, s.message
}

func TestHealthLive(t *testing.T) {
	h := NewHealthHandler(nil, nil)
	rec := httptest.NewRecorder()
	h.HealthLive(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d", rec.Code)
	}
	var resp healthLiveResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || resp.Service != "receiver-portal" {
		t.Errorf("ответ = %+v", resp)
	}
}

func TestHealthReady(t *testing.T) {
	tests := []struct {
		name       string
		api        ReadinessChecker
		store      ReadinessChecker
		wantStatus string
		wantCode   int
	}{
		{"всё доступно", stubChecker{status: "ok"}, stubChecker{status: "ok"}, "ok", http.StatusOK},
		{"degraded", stubChecker{status: "degraded"}, stubChecker{status: "ok"}, "degraded", http.StatusOK},
		{"API недоступен", stubChecker{status: "fail", message: "timeout"}, stubChecker{status: "ok"}, "fail", http.StatusServiceUnavailable},
		{"нет хранилища", stubChecker{status: "ok"}, nil, "fail", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.api, tt.store)
			rec := httptest.NewRecorder()
			h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("статус = %d, ожидается %d", rec.Code, tt.wantCode)
			}
			var resp healthReadyResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("status = %q, ожидается %q", resp.Status, tt.wantStatus)
			}
		})
	}
}
