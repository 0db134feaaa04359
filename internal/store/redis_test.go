package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestRedis запускает Redis контейнер и возвращает RedisBackend.
func setupTestRedis(t *testing.T, ttl time.Duration) *RedisBackend {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "docker.io/redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Не удалось запустить Redis контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	backend := NewRedisBackend(NewRedisClient(host+":"+port.Port(), "", 0), ttl, NewSessionIDs(false))
	t.Cleanup(func() { _ = backend.Close() })
	return backend
}

func TestRedisBackend_SetGetRemove(t *testing.T) {
	ctx := context.Background()
	backend := setupTestRedis(t, time.Hour)

	if status, msg := backend.CheckReady(); status != "ok" {
		t.Fatalf("CheckReady() = %s (%s)", status, msg)
	}

	w1, r1 := roundTrip(nil)
	value := staged{Images: map[string]string{"a": "data:image/png;base64,AAA"}}
	if err := backend.Bind(w1, r1).Set(ctx, KeyPickupStaging, value); err != nil {
		t.Fatalf("Ошибка Set: %v", err)
	}

	w2, r2 := roundTrip(w1)
	s := backend.Bind(w2, r2)
	var got staged
	found, err := s.Get(ctx, KeyPickupStaging, &got)
	if err != nil || !found || got.Images["a"] != value.Images["a"] {
		t.Fatalf("Get = %+v, %v, %v", got, found, err)
	}

	if err := s.Remove(ctx, KeyPickupStaging); err != nil {
		t.Fatalf("Ошибка Remove: %v", err)
	}
	if found, _ := s.Get(ctx, KeyPickupStaging, &got); found {
		t.Error("ключ найден после Remove")
	}

	// Другой браузер не видит записи
	w3, r3 := roundTrip(nil)
	_ = backend.Bind(w1, r1).Set(ctx, KeyLastSubmitted, "mine")
	var other string
	if found, _ := backend.Bind(w3, r3).Get(ctx, KeyLastSubmitted, &other); found {
		t.Error("значение видно другому браузеру")
	}
}

func TestRedisBackend_TTL(t *testing.T) {
	ctx := context.Background()
	backend := setupTestRedis(t, time.Second)

	w, r := roundTrip(nil)
	s := backend.Bind(w, r)
	_ = s.Set(ctx, KeyLastSubmitted, "value")

	time.Sleep(2 * time.Second)

	var got string
	if found, _ := s.Get(ctx, KeyLastSubmitted, &got); found {
		t.Error("запись не истекла после TTL")
	}
}

func TestRedisBackend_CheckReady_Unavailable(t *testing.T) {
	backend := NewRedisBackend(NewRedisClient("127.0.0.1:1", "", 0), time.Hour, NewSessionIDs(false))
	defer backend.Close()

	if status, _ := backend.CheckReady(); status != "fail" {
		t.Errorf("CheckReady() = %q, ожидается fail", status)
	}
}
