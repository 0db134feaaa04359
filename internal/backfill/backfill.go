// Пакет backfill — одноразовое дозаполнение новых необязательных полей
// в старых документах заявок на переработку.
package backfill

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection — часть *mongo.Collection, нужная для backfill.
type Collection interface {
	UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

// Filter выбирает документы, где нет хотя бы одного из полей.
func Filter() bson.D {
	return bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "model", Value: bson.D{{Key: "$exists", Value: false}}}},
		bson.D{{Key: "specialInstructions", Value: bson.D{{Key: "$exists", Value: false}}}},
		bson.D{{Key: "accessories", Value: bson.D{{Key: "$exists", Value: false}}}},
	}}}
}

// Update — pipeline-обновление: отсутствующие поля получают значения
// по умолчанию, существующие остаются как есть. Повторный запуск
// ничего не меняет.
func Update() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "model", Value: ifNull("$model", "")},
			{Key: "specialInstructions", Value: ifNull("$specialInstructions", "")},
			{Key: "accessories", Value: ifNull("$accessories", bson.D{{Key: "$literal", Value: bson.A{}}})},
		}}},
	}
}

func ifNull(field string, def interface{}) bson.D {
	return bson.D{{Key: "$ifNull", Value: bson.A{field, def}}}
}

// Run выполняет один update-many над коллекцией заявок.
// Возвращает количество изменённых документов.
func Run(ctx context.Context, coll Collection, logger *slog.Logger) (int64, error) {
	result, err := coll.UpdateMany(ctx, Filter(), Update())
	if err != nil {
		return 0, fmt.Errorf("ошибка обновления заявок: %w", err)
	}

	logger.Info("Backfill заявок выполнен",
		slog.Int64("matched", result.MatchedCount),
		slog.Int64("modified", result.ModifiedCount),
	)
	return result.ModifiedCount, nil
}
