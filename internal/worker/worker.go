package worker

import (
	"context"
)

// Worker интерфейс для всех фоновых воркеров
type Worker interface {
	// Start запускает воркер и блокируется до остановки или отмены ctx
	Start(ctx context.Context) error

	// Stop останавливает воркер
	Stop() error

	// Name возвращает имя воркера
	Name() string
}
