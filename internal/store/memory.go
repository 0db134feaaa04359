package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Memory — хранилище в памяти процесса.
// Используется отдельно в тестах и как основа MemoryBackend.
type Memory struct {
	entries *expirable.LRU[string, []byte]
	prefix  string
}

// NewMemory создаёт неограниченное хранилище в памяти без TTL.
func NewMemory() *Memory {
	return &Memory{entries: expirable.NewLRU[string, []byte](0, nil, 0)}
}

// Get читает значение key в dst.
func (m *Memory) Get(_ context.Context, key string, dst any) (bool, error) {
	raw, ok := m.entries.Get(m.prefix + key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("десериализация %s: %w", key, err)
	}
	return true, nil
}

// Set сохраняет значение под ключом key.
func (m *Memory) Set(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("сериализация %s: %w", key, err)
	}
	m.entries.Add(m.prefix+key, raw)
	return nil
}

// Remove удаляет ключ.
func (m *Memory) Remove(_ context.Context, key string) error {
	m.entries.Remove(m.prefix + key)
	return nil
}

// MemoryBackend — session-хранилище в памяти процесса.
// Браузер идентифицируется cookie с идентификатором сессии,
// записи вытесняются по LRU и истекают через ttl.
type MemoryBackend struct {
	entries *expirable.LRU[string, []byte]
	ids     *SessionIDs
}

// NewMemoryBackend создаёт session-хранилище в памяти.
// size — максимальное число записей (по всем браузерам).
func NewMemoryBackend(size int, ttl time.Duration, ids *SessionIDs) *MemoryBackend {
	return &MemoryBackend{
		entries: expirable.NewLRU[string, []byte](size, nil, ttl),
		ids:     ids,
	}
}

// Bind возвращает хранилище сессии браузера.
func (b *MemoryBackend) Bind(w http.ResponseWriter, r *http.Request) Store {
	sid := b.ids.Ensure(w, r)
	return &Memory{entries: b.entries, prefix: sid + ":"}
}

// Len возвращает число записей во всех сессиях.
func (b *MemoryBackend) Len() int {
	return b.entries.Len()
}

// CheckReady — хранилище в памяти всегда доступно.
func (b *MemoryBackend) CheckReady() (string, string) {
	return "ok", ""
}
