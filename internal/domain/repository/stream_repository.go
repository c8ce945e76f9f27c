package repository

import (
	"context"
	"time"

	"github.com/sanitation-complaints/internal/domain"
)

// StreamRepository - интерфейс для работы с Redis Streams через consumer groups
type StreamRepository interface {
	// ConsumeBatch читает до count новых сообщений, ожидая не дольше block
	ConsumeBatch(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]domain.StreamMessage, error)

	// ClaimPending забирает себе сообщения, простаивающие в pending не меньше minIdle
	ClaimPending(ctx context.Context, stream, group, consumer string, minIdle time.Duration, count int64) ([]domain.StreamMessage, error)

	// AckMessages подтверждает обработку сообщений
	AckMessages(ctx context.Context, stream, group string, messageIDs []string) error

	// CreateConsumerGroup создаёт consumer group; повторный вызов не ошибка
	CreateConsumerGroup(ctx context.Context, stream, group string) error

	// PublishToStream публикует сообщение в стрим
	PublishToStream(ctx context.Context, stream string, data interface{}) error
}
