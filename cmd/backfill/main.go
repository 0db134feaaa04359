// Одноразовый скрипт backfill: добавляет model, specialInstructions и
// accessories в документы заявок, созданные до появления этих полей.
// Аргументов не принимает; код выхода 0 — успех, 1 — любая ошибка.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/recycleit/receiver-portal/internal/backfill"
	"github.com/recycleit/receiver-portal/internal/config"
	"github.com/recycleit/receiver-portal/internal/database"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "backfill: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill",
		Short: "Дозаполнение новых полей в заявках на переработку",
		Long: `backfill проставляет model = "", specialInstructions = "" и accessories = []
в документах заявок, где этих полей нет. Существующие значения не меняются,
повторный запуск безопасен. Параметры подключения берутся из RP_MONGO_*.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadBackfill()
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	logger := config.SetupLogger(cfg.LogLevel, cfg.LogFormat).
		With(slog.String("component", "backfill"))

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := database.Connect(ctx, cfg.MongoURI, logger)
	if err != nil {
		logger.Error("Ошибка подключения", slog.String("error", err.Error()))
		return err
	}
	defer database.Disconnect(client, logger)

	coll := client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection)
	modified, err := backfill.Run(ctx, coll, logger)
	if err != nil {
		logger.Error("Ошибка backfill", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Обновлено документов заявок",
		slog.String("collection", cfg.MongoCollection),
		slog.Int64("modified", modified),
	)
	return nil
}
