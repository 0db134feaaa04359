// metrics.go — Prometheus HTTP метрики Receiver Portal.
// Регистрирует метрики: rp_http_requests_total, rp_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rp_http_requests_total",
			Help: "Общее количество HTTP-запросов к Receiver Portal",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rp_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к Receiver Portal в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (заменяем идентификаторы заявок на {id})
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// normalizePath заменяет идентификаторы заявок в пути на {id} для
// предотвращения взрывного роста кардинальности метрик.
// /pickup-requests/65a1f0c2b3d4e5f601234567/proof → /pickup-requests/{id}/proof
func normalizePath(path string) string {
	// Статические пути — возвращаем как есть
	switch path {
	case "/", "/health/live", "/health/ready", "/metrics",
		"/pickup-requests",
		"/pickup-requests/last-submitted/dismiss",
		"/notifications",
		"/auth/handoff",
		"/auth/sign-out",
		"/set-language":
		return path
	}

	if strings.HasPrefix(path, "/static/") {
		return "/static/*"
	}

	const prefix = "/pickup-requests/"
	if strings.HasPrefix(path, prefix) {
		rest := strings.TrimPrefix(path, prefix)
		_, action, _ := strings.Cut(rest, "/")
		switch action {
		case "stage", "proof":
			return prefix + "{id}/" + action
		default:
			return prefix + "{id}"
		}
	}

	return "other"
}
