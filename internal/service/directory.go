package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/recycleit/receiver-portal/internal/domain/model"
)

// Prometheus-метрики кэша справочника.
var (
	directoryHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rp_directory_cache_hits_total",
		Help: "Общее количество попаданий в кэш справочника пользователей.",
	})
	directoryMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rp_directory_cache_misses_total",
		Help: "Общее количество промахов кэша справочника пользователей.",
	})
)

// Directory — кэш справочника пользователей (id → имя) с TTL.
// Заполняется при каждой загрузке дашборда, читается при повторной
// выборке заявок после подтверждения.
type Directory struct {
	cache *expirable.LRU[string, string]
}

// NewDirectory создаёт кэш справочника.
func NewDirectory(maxSize int, ttl time.Duration) *Directory {
	return &Directory{cache: expirable.NewLRU[string, string](maxSize, nil, ttl)}
}

// Fill добавляет записи справочника в кэш.
// При дублях идентификатора остаётся первая запись.
func (d *Directory) Fill(users []model.DirectoryUser) {
	seen := make(map[string]struct{}, len(users))
	for _, u := range users {
		if u.ID == "" {
			continue
		}
		if _, dup := seen[u.ID]; dup {
			continue
		}
		seen[u.ID] = struct{}{}
		d.cache.Add(u.ID, u.Name)
	}
}

// Lookup возвращает имя пользователя по идентификатору.
func (d *Directory) Lookup(userID string) (string, bool) {
	name, ok := d.cache.Get(userID)
	if ok {
		directoryHitsTotal.Inc()
		return name, true
	}
	directoryMissesTotal.Inc()
	return "", false
}

// Len возвращает количество записей в кэше.
func (d *Directory) Len() int {
	return d.cache.Len()
}
