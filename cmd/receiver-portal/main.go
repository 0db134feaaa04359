// Точка входа Receiver Portal — панель приёмщика электроотходов.
// Загружает конфигурацию, создаёт клиент внешнего API, хранилища состояния
// браузера (cookie + memory/Redis), сервисный слой и страницы,
// запускает topologymetrics и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	apihandlers "github.com/recycleit/receiver-portal/internal/api/handlers"
	"github.com/recycleit/receiver-portal/internal/config"
	"github.com/recycleit/receiver-portal/internal/domain/pickup"
	"github.com/recycleit/receiver-portal/internal/recycleapi"
	"github.com/recycleit/receiver-portal/internal/server"
	"github.com/recycleit/receiver-portal/internal/service"
	"github.com/recycleit/receiver-portal/internal/store"
	"github.com/recycleit/receiver-portal/internal/ui/auth"
	uihandlers "github.com/recycleit/receiver-portal/internal/ui/handlers"
	"github.com/recycleit/receiver-portal/internal/ui/i18n"
	uimiddleware "github.com/recycleit/receiver-portal/internal/ui/middleware"
)

// jwksRefreshInterval — интервал обновления ключей IdP.
const jwksRefreshInterval = 15 * time.Minute

// sessionBackend — session-хранилище с проверкой готовности.
type sessionBackend interface {
	store.Backend
	CheckReady() (string, string)
}

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("Receiver Portal запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("session_store", cfg.SessionStore),
	)

	// 3. Каталоги переводов
	if err := i18n.LoadFromEmbedFS(i18n.Init(), logger); err != nil {
		logger.Error("Ошибка загрузки каталогов переводов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Клиент внешнего API
	apiClient, err := recycleapi.New(cfg.APIBaseURL, cfg.APITimeout, cfg.APICACertPath, cfg.APIHealthPath, logger)
	if err != nil {
		logger.Error("Ошибка создания клиента API", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Клиент API создан", slog.String("url", apiClient.BaseURL()))

	// 5. Хранилища состояния браузера
	if cfg.SessionSecret == "" {
		logger.Warn("RP_SESSION_SECRET не задан, объект пользователя не переживает рестарт")
	}
	localBackend, err := store.NewCookieBackend(cfg.SessionSecret, cfg.SecureCookie, cfg.LocalStoreMaxAge)
	if err != nil {
		logger.Error("Ошибка создания local-хранилища", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ids := store.NewSessionIDs(cfg.SecureCookie)
	var sessions sessionBackend
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		redisBackend := store.NewRedisBackend(
			store.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB),
			cfg.SessionTTL, ids,
		)
		defer func() {
			if err := redisBackend.Close(); err != nil {
				logger.Warn("Ошибка закрытия Redis", slog.String("error", err.Error()))
			}
		}()
		sessions = redisBackend
		logger.Info("Session-хранилище: Redis", slog.String("addr", cfg.RedisAddr), slog.Int("db", cfg.RedisDB))
	default:
		sessions = store.NewMemoryBackend(cfg.SessionStoreSize, cfg.SessionTTL, ids)
		logger.Info("Session-хранилище: память процесса", slog.Int("max_entries", cfg.SessionStoreSize))
	}

	// 6. Services
	fields := pickup.FieldSet{
		AlternateContact:    cfg.DashboardAlternateContact,
		SpecialInstructions: cfg.DashboardSpecialInstructions,
		AllowEdit:           cfg.DashboardAllowEdit,
	}
	pickupSvc := service.NewPickupService(
		apiClient,
		service.NewDirectory(cfg.DirectoryCacheSize, cfg.DirectoryCacheTTL),
		fields,
		cfg.ListCacheSize,
		cfg.ListCacheTTL,
		logger,
	)
	notificationSvc := service.NewNotificationService(apiClient, logger)

	// 7. Identity hand-off (опционально, если задан RP_IDP_JWKS_URL)
	var verifier uihandlers.IdentityVerifier
	if cfg.IDPJWKSURL != "" {
		v, err := auth.NewHandoffVerifier(
			cfg.IDPJWKSURL,
			cfg.APICACertPath,
			cfg.IDPIssuer,
			cfg.APITimeout,
			jwksRefreshInterval,
			cfg.JWTLeeway,
			logger,
		)
		if err != nil {
			logger.Error("Ошибка создания проверки hand-off токенов", slog.String("error", err.Error()))
			os.Exit(1)
		}
		verifier = v
		logger.Info("Identity hand-off включён", slog.String("jwks_url", cfg.IDPJWKSURL))
	} else {
		logger.Warn("RP_IDP_JWKS_URL не задан, /auth/handoff отключён")
	}

	// 8. topologymetrics — мониторинг зависимостей (внешний API + JWKS IdP)
	ctx := context.Background()
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"receiver-portal",
		cfg.DephealthGroup,
		service.DephealthTargets{
			APIBaseURL:    cfg.APIBaseURL,
			APIHealthPath: cfg.APIHealthPath,
			IDPJWKSURL:    cfg.IDPJWKSURL,
		},
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
		dephealthSvc = nil
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics",
			slog.String("error", startErr.Error()),
		)
	} else {
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 9. HTTP-сервер
	srv := server.New(cfg, logger, server.Handlers{
		Health:        apihandlers.NewHealthHandler(apiClient, sessions),
		Pickup:        uihandlers.NewPickupHandler(pickupSvc, cfg.SignInURL, cfg.ProofMaxBytes, logger),
		Notifications: uihandlers.NewNotificationsHandler(notificationSvc, logger),
		Auth:          uihandlers.NewAuthHandler(verifier, cfg.SignInURL, logger),
		Session:       uimiddleware.NewSessionBinder(localBackend, sessions, logger),
	})
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}
	logger.Info("Receiver Portal остановлен")
}
