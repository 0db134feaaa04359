package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteError_Format(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter, string)
		status int
		code   string
	}{
		{"validation", ValidationError, http.StatusBadRequest, CodeValidationError},
		{"not found", NotFound, http.StatusNotFound, CodeNotFound},
		{"method", MethodNotAllowed, http.StatusMethodNotAllowed, CodeMethodNotAllowed},
		{"unauthorized", Unauthorized, http.StatusUnauthorized, CodeUnauthorized},
		{"upstream", UpstreamUnavailable, http.StatusBadGateway, CodeUpstreamUnavailable},
		{"internal", InternalError, http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec, "сообщение")

			if rec.Code != tt.status {
				t.Errorf("статус = %d, ожидается %d", rec.Code, tt.status)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}

			var body errorBody
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("тело не JSON: %v", err)
			}
			if body.Error.Code != tt.code || body.Error.Message != "сообщение" {
				t.Errorf("тело = %+v", body)
			}
		})
	}
}
