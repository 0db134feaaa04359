package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/recycleit/receiver-portal/internal/store"
)

func TestSessionBinder_BindsBothScopes(t *testing.T) {
	ids := store.NewSessionIDs(false)
	local := store.NewMemoryBackend(0, 0, ids)
	scoped := store.NewMemoryBackend(0, 0, ids)
	binder := NewSessionBinder(local, scoped, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var got store.Session
	var ok bool
	h := binder.Middleware()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got, ok = store.SessionFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pickup-requests", nil))

	if !ok || got.Local == nil || got.Scoped == nil {
		t.Fatal("Session не помещена в контекст")
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("ожидается Cache-Control: no-store")
	}

	var sid bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == store.SessionCookieName {
			sid = true
		}
	}
	if !sid {
		t.Error("не выдан cookie идентификатора сессии браузера")
	}
}
