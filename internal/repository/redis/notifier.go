package redis

import (
	"context"
	"time"

	"github.com/sanitation-complaints/internal/domain"
	"github.com/sanitation-complaints/internal/domain/repository"
	"github.com/sanitation-complaints/internal/pkg/metrics"
	"go.uber.org/zap"
)

// streamNotifier hands notifications to the dispatch worker through a stream
type streamNotifier struct {
	streams repository.StreamRepository
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewStreamNotifier(streams repository.StreamRepository, m *metrics.Metrics, logger *zap.Logger) repository.Notifier {
	return &streamNotifier{
		streams: streams,
		metrics: m,
		logger:  logger,
	}
}

func (n *streamNotifier) Notify(ctx context.Context, notification domain.Notification) error {
	if !notification.HasRecipients() {
		n.logger.Debug("Notification without recipients dropped",
			zap.String("event_type", notification.EventType))
		n.metrics.IncNotification("publish", "skipped")
		return nil
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}

	if err := n.streams.PublishToStream(ctx, domain.StreamComplaintNotifications, notification); err != nil {
		n.metrics.IncNotification("publish", "error")
		return err
	}

	n.metrics.IncNotification("publish", "ok")
	return nil
}
