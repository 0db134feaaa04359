// dephealth.go — интеграция с topologymetrics SDK для мониторинга зависимостей.
//
// Receiver Portal мониторит:
//   - внешний API платформы переработки — HTTP checker (critical)
//   - JWKS внешнего IdP — HTTP checker (non-critical), если hand-off включён
//
// Метрики доступны на /metrics вместе с остальными Prometheus-метриками:
//   - app_dependency_health — состояние зависимости (1 = ok, 0 = fail)
//   - app_dependency_latency_seconds — задержка проверки
package service

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	_ "github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/httpcheck" // HTTP checker
	"github.com/prometheus/client_golang/prometheus"
)

// DephealthService — сервис мониторинга зависимостей через topologymetrics.
type DephealthService struct {
	dh     *dephealth.DepHealth
	deps   []string
	logger *slog.Logger
}

// DephealthTargets — зависимости, которые нужно мониторить.
type DephealthTargets struct {
	// APIBaseURL — базовый URL внешнего API
	APIBaseURL string
	// APIHealthPath — путь проверки API
	APIHealthPath string
	// IDPJWKSURL — URL JWKS внешнего IdP (пусто — не мониторится)
	IDPJWKSURL string
}

// NewDephealthService создаёт сервис мониторинга зависимостей.
// Метрики регистрируются в глобальном Prometheus registry.
func NewDephealthService(
	serviceID string,
	group string,
	targets DephealthTargets,
	checkInterval time.Duration,
	logger *slog.Logger,
) (*DephealthService, error) {
	return newDephealthService(serviceID, group, targets, checkInterval, logger)
}

// NewDephealthServiceWithRegisterer создаёт сервис с указанным Prometheus registerer.
// Используется в тестах для изоляции метрик.
func NewDephealthServiceWithRegisterer(
	serviceID string,
	group string,
	targets DephealthTargets,
	checkInterval time.Duration,
	logger *slog.Logger,
	registerer prometheus.Registerer,
) (*DephealthService, error) {
	return newDephealthService(serviceID, group, targets, checkInterval, logger,
		dephealth.WithRegisterer(registerer))
}

func newDephealthService(
	serviceID string,
	group string,
	targets DephealthTargets,
	checkInterval time.Duration,
	logger *slog.Logger,
	extraOpts ...dephealth.Option,
) (*DephealthService, error) {
	opts := []dephealth.Option{
		dephealth.WithLogger(logger),
		dephealth.HTTP("recycle-api",
			dephealth.FromURL(targets.APIBaseURL),
			dephealth.WithHTTPHealthPath(targets.APIHealthPath),
			dephealth.CheckInterval(checkInterval),
			dephealth.Critical(true),
		),
	}
	deps := []string{"recycle-api"}

	if targets.IDPJWKSURL != "" {
		jwksPath := "/"
		if parsed, err := url.Parse(targets.IDPJWKSURL); err == nil && parsed.Path != "" {
			jwksPath = parsed.Path
		}
		opts = append(opts, dephealth.HTTP("idp-jwks",
			dephealth.FromURL(targets.IDPJWKSURL),
			dephealth.WithHTTPHealthPath(jwksPath),
			dephealth.CheckInterval(checkInterval),
			dephealth.Critical(false),
		))
		deps = append(deps, "idp-jwks")
	}
	opts = append(opts, extraOpts...)

	dh, err := dephealth.New(serviceID, group, opts...)
	if err != nil {
		return nil, err
	}

	return &DephealthService{
		dh:     dh,
		deps:   deps,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// Start запускает периодическую проверку зависимостей.
func (ds *DephealthService) Start(ctx context.Context) error {
	ds.logger.Info("Мониторинг зависимостей запущен",
		slog.Any("dependencies", ds.deps),
	)
	return ds.dh.Start(ctx)
}

// Stop останавливает мониторинг зависимостей.
func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг зависимостей остановлен")
}

// Health возвращает текущее состояние зависимостей.
// Ключ — имя зависимости, значение — true если ok.
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}
