package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisNamespace — префикс ключей session-хранилища в Redis.
const redisNamespace = "rp:session"

// RedisBackend — session-хранилище в Redis.
// Ключ записи: rp:session:<sid>:<key>, TTL обновляется при каждой записи.
type RedisBackend struct {
	client redis.UniversalClient
	ttl    time.Duration
	ids    *SessionIDs
}

// NewRedisBackend создаёт session-хранилище поверх клиента Redis.
func NewRedisBackend(client redis.UniversalClient, ttl time.Duration, ids *SessionIDs) *RedisBackend {
	return &RedisBackend{client: client, ttl: ttl, ids: ids}
}

// NewRedisClient создаёт клиент Redis для одного узла.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Bind возвращает хранилище сессии браузера.
func (b *RedisBackend) Bind(w http.ResponseWriter, r *http.Request) Store {
	return &redisStore{backend: b, sid: b.ids.Ensure(w, r)}
}

// CheckReady проверяет доступность Redis (PING).
func (b *RedisBackend) CheckReady() (string, string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := b.client.Ping(ctx).Err(); err != nil {
		return "fail", fmt.Sprintf("Redis недоступен: %v", err)
	}
	return "ok", ""
}

// Close закрывает соединения с Redis.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}

// redisStore — хранилище одной сессии браузера в Redis.
type redisStore struct {
	backend *RedisBackend
	sid     string
}

func (s *redisStore) key(key string) string {
	return redisNamespace + ":" + s.sid + ":" + key
}

func (s *redisStore) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := s.backend.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("чтение %s из Redis: %w", key, err)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("десериализация %s: %w", key, err)
	}
	return true, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("сериализация %s: %w", key, err)
	}
	if err := s.backend.client.Set(ctx, s.key(key), raw, s.backend.ttl).Err(); err != nil {
		return fmt.Errorf("запись %s в Redis: %w", key, err)
	}
	return nil
}

func (s *redisStore) Remove(ctx context.Context, key string) error {
	if err := s.backend.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("удаление %s из Redis: %w", key, err)
	}
	return nil
}
