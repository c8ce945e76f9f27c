package repository

import (
	"context"

	"github.com/sanitation-complaints/internal/domain"
)

// Notifier - fire-and-forget notification dispatch. Callers log failures.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// PushSender - delivery to the push provider
type PushSender interface {
	Send(ctx context.Context, msg domain.PushMessage) error
}
