// Пакет database — подключение к MongoDB, в которой внешний API хранит
// заявки на переработку. Используется только одноразовыми скриптами
// обслуживания (backfill); портал работает с данными через HTTP API.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// connectTimeout — ограничение на установку соединения и ping.
const connectTimeout = 10 * time.Second

// Connect создаёт клиент MongoDB по URI.
// Выполняет ping primary для проверки доступности.
func Connect(ctx context.Context, uri string, logger *slog.Logger) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(connectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания клиента MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ошибка подключения к MongoDB: %w", err)
	}

	logger.Info("Подключение к MongoDB установлено",
		slog.Any("hosts", opts.Hosts),
	)

	return client, nil
}

// Disconnect закрывает клиент, ошибка закрытия только логируется.
func Disconnect(client *mongo.Client, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Disconnect(ctx); err != nil {
		logger.Warn("Ошибка закрытия клиента MongoDB", slog.String("error", err.Error()))
	}
}
