// Пакет server — HTTP-сервер Receiver Portal с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на ingress.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	apierrors "github.com/recycleit/receiver-portal/internal/api/errors"
	apihandlers "github.com/recycleit/receiver-portal/internal/api/handlers"
	"github.com/recycleit/receiver-portal/internal/api/middleware"
	"github.com/recycleit/receiver-portal/internal/config"
	uihandlers "github.com/recycleit/receiver-portal/internal/ui/handlers"
	"github.com/recycleit/receiver-portal/internal/ui/i18n"
	uimiddleware "github.com/recycleit/receiver-portal/internal/ui/middleware"
	"github.com/recycleit/receiver-portal/internal/ui/static"
)

// Handlers — обработчики, из которых собирается роутер.
type Handlers struct {
	Health        *apihandlers.HealthHandler
	Pickup        *uihandlers.PickupHandler
	Notifications *uihandlers.NotificationsHandler
	Auth          *uihandlers.AuthHandler
	Session       *uimiddleware.SessionBinder
}

// Server — HTTP-сервер Receiver Portal.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
func New(cfg *config.Config, logger *slog.Logger, h Handlers) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(cfg, logger, h),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger.With(slog.String("component", "server")),
		cfg:        cfg,
	}
}

// NewRouter собирает chi-роутер портала.
func NewRouter(cfg *config.Config, logger *slog.Logger, h Handlers) chi.Router {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))
	if len(cfg.CORSAllowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		apierrors.NotFound(w, "ресурс не найден")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		apierrors.MethodNotAllowed(w, "метод не поддерживается")
	})

	// Health и metrics проверяются Kubernetes напрямую, без сессии браузера.
	router.Get("/health/live", h.Health.HealthLive)
	router.Get("/health/ready", h.Health.HealthReady)
	router.Get("/metrics", h.Health.GetMetrics)

	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static.FileSystem())))

	// Страницы портала
	router.Group(func(r chi.Router) {
		r.Use(i18n.Middleware())
		r.Use(h.Session.Middleware())

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/pickup-requests", http.StatusFound)
		})

		r.Get("/pickup-requests", h.Pickup.HandleList)
		r.Post("/pickup-requests/last-submitted/dismiss", h.Pickup.HandleDismissLastSubmitted)
		r.Post("/pickup-requests/{id}/stage", h.Pickup.HandleStage)
		r.Post("/pickup-requests/{id}/proof", h.Pickup.HandleSubmitProof)

		r.Get("/notifications", h.Notifications.HandleList)

		r.Get("/auth/handoff", h.Auth.HandleHandoff)
		r.Post("/auth/sign-out", h.Auth.HandleSignOut)

		r.Post("/set-language", uihandlers.HandleSetLanguage)
	})

	return router
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
