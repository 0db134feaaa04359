package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/recycleit/receiver-portal/internal/domain/model"
	"github.com/recycleit/receiver-portal/internal/recycleapi"
)

func newTestNotificationService(t *testing.T, handler http.HandlerFunc) *NotificationService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := recycleapi.New(server.URL, 5*time.Second, "", "/", testLogger())
	if err != nil {
		t.Fatal(err)
	}
	return NewNotificationService(client, testLogger())
}

func TestNotificationService_List(t *testing.T) {
	svc := newTestNotificationService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("userId") != "u1" {
			t.Errorf("userId = %q", r.URL.Query().Get("userId"))
		}
		_, _ = io.WriteString(w, `{"success":true,"data":[
			{"id":"n3","message":"third","read":false,"createdAt":"2026-03-03T10:00:00Z"},
			{"id":"n1","message":"first","read":true,"createdAt":"2026-03-01T10:00:00Z"},
			{"id":"n2","message":"second","read":false,"createdAt":"2026-03-02T10:00:00Z"}
		]}`)
	})

	items := svc.List(context.Background(), &model.User{ID: "u1"})

	// Порядок сервера сохраняется
	want := []string{"n3", "n1", "n2"}
	if len(items) != len(want) {
		t.Fatalf("получено %d уведомлений, хотели %d", len(items), len(want))
	}
	for i, id := range want {
		if items[i].ID != id {
			t.Errorf("уведомление [%d] = %q, хотели %q", i, items[i].ID, id)
		}
	}
}

func TestNotificationService_List_Empty(t *testing.T) {
	calls := 0
	tests := []struct {
		name string
		user *model.User
		body string
		code int
	}{
		{"без пользователя", nil, "", http.StatusOK},
		{"success false", &model.User{ID: "u1"}, `{"success":false,"error":"boom"}`, http.StatusOK},
		{"ошибка сервера", &model.User{ID: "u1"}, ``, http.StatusInternalServerError},
		{"data null", &model.User{ID: "u1"}, `{"success":true,"data":null}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestNotificationService(t, func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(tt.code)
				_, _ = io.WriteString(w, tt.body)
			})

			items := svc.List(context.Background(), tt.user)
			if items == nil || len(items) != 0 {
				t.Errorf("List() = %v, хотели пустой список", items)
			}
		})
	}

	if calls != 3 {
		t.Errorf("запросов к API: %d, хотели 3 (без пользователя запроса нет)", calls)
	}
}
