package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sanitation-complaints/internal/domain"
	"github.com/sanitation-complaints/internal/domain/repository"
	"github.com/sanitation-complaints/internal/pkg/metrics"
	"github.com/sanitation-complaints/internal/worker"
	"go.uber.org/zap"
)

const (
	errorBackoff = time.Second
	retryBackoff = 200 * time.Millisecond
)

// Config - настройки consumer из config.WorkerConfig
type Config struct {
	ConsumerGroup string
	BatchSize     int
	ReadTimeout   time.Duration
	MaxRetries    int
	// ClaimIdle - через сколько простоя pending сообщение забирается у его consumer
	ClaimIdle time.Duration
}

// DispatchWorker читает уведомления о жалобах из стрима и отправляет их push провайдеру.
// Сообщение подтверждается после доставки или после исчерпания попыток
type DispatchWorker struct {
	*worker.BaseWorker
	streamRepo   repository.StreamRepository
	sender       repository.PushSender
	metrics      *metrics.Metrics
	consumerName string
	cfg          Config
}

// NewDispatchWorker создает новый DispatchWorker
func NewDispatchWorker(
	streamRepo repository.StreamRepository,
	sender repository.PushSender,
	m *metrics.Metrics,
	cfg Config,
	logger *zap.Logger,
) *DispatchWorker {
	hostname, _ := os.Hostname()
	consumerName := fmt.Sprintf("%s-%d-%s", hostname, os.Getpid(), uuid.NewString()[:8])

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.ClaimIdle <= 0 {
		cfg.ClaimIdle = time.Minute
	}

	return &DispatchWorker{
		BaseWorker:   worker.NewBaseWorker("notification-dispatch", cfg.ConsumerGroup, logger),
		streamRepo:   streamRepo,
		sender:       sender,
		metrics:      m,
		consumerName: consumerName,
		cfg:          cfg,
	}
}

// Start запускает воркер
func (w *DispatchWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting notification dispatch",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.consumerName),
		zap.Int("batch_size", w.cfg.BatchSize))

	if err := w.streamRepo.CreateConsumerGroup(ctx, domain.StreamComplaintNotifications, w.ConsumerGroup()); err != nil {
		logger.Error("Failed to create consumer group", zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil
		case <-ctx.Done():
			logger.Info("Context cancelled")
			return ctx.Err()
		default:
		}

		if _, err := w.ProcessBatch(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("Failed to process batch", zap.Error(err))
			w.sleep(ctx, errorBackoff)
		}
	}
}

// ProcessBatch сначала забирает зависшие pending сообщения остановленных или упавших consumer,
// иначе читает новые, блокируясь не дольше ReadTimeout.
// Возвращает количество прочитанных сообщений
func (w *DispatchWorker) ProcessBatch(ctx context.Context) (int, error) {
	messages, err := w.streamRepo.ClaimPending(
		ctx,
		domain.StreamComplaintNotifications,
		w.ConsumerGroup(),
		w.consumerName,
		w.cfg.ClaimIdle,
		int64(w.cfg.BatchSize),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to claim pending: %w", err)
	}

	if len(messages) == 0 {
		messages, err = w.streamRepo.ConsumeBatch(
			ctx,
			domain.StreamComplaintNotifications,
			w.ConsumerGroup(),
			w.consumerName,
			int64(w.cfg.BatchSize),
			w.cfg.ReadTimeout,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to consume batch: %w", err)
		}
	}
	if len(messages) == 0 {
		return 0, nil
	}

	done := make([]string, 0, len(messages))
	for _, msg := range messages {
		if w.handle(ctx, msg) {
			done = append(done, msg.ID)
		}
	}

	if len(done) > 0 {
		if err := w.streamRepo.AckMessages(ctx, domain.StreamComplaintNotifications, w.ConsumerGroup(), done); err != nil {
			// через ClaimIdle их заберёт ProcessBatch
			w.Logger().Error("Failed to ack messages", zap.Int("count", len(done)), zap.Error(err))
		}
	}

	w.Logger().Debug("Batch dispatched",
		zap.Int("read", len(messages)),
		zap.Int("acked", len(done)))
	return len(messages), nil
}

// handle сообщает, можно ли подтвердить сообщение
func (w *DispatchWorker) handle(ctx context.Context, msg domain.StreamMessage) bool {
	logger := w.Logger().With(zap.String("message_id", msg.ID))

	var n domain.Notification
	if err := json.Unmarshal([]byte(msg.Data), &n); err != nil {
		logger.Warn("Malformed notification, dropping", zap.Error(err))
		w.metrics.IncNotification("dispatch", "malformed")
		return true
	}

	push := BuildPushMessage(n)
	if len(push.Recipients) == 0 {
		w.metrics.IncNotification("dispatch", "skipped")
		return true
	}

	var err error
	for attempt := 0; attempt <= w.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if !w.sleep(ctx, retryBackoff*time.Duration(attempt)) {
				// остаётся в pending, через ClaimIdle его заберёт ProcessBatch
				return false
			}
		}
		if err = w.sender.Send(ctx, push); err == nil {
			w.metrics.IncNotification("dispatch", "ok")
			return true
		}
		logger.Warn("Push delivery failed",
			zap.String("event_type", n.EventType),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}

	logger.Error("Giving up on notification",
		zap.String("event_type", n.EventType),
		zap.Int("recipients", len(push.Recipients)),
		zap.Error(err))
	w.metrics.IncNotification("dispatch", "dropped")
	return true
}

// sleep возвращает false, если прерван остановкой или отменой ctx
func (w *DispatchWorker) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-w.StopChan():
		return false
	case <-ctx.Done():
		return false
	}
}

// BuildPushMessage - сотрудники адресуются как "staff:{id}", граждане как "mobile:{number}"
func BuildPushMessage(n domain.Notification) domain.PushMessage {
	recipients := make([]string, 0, len(n.ActorIDs)+len(n.Mobiles))
	for _, id := range n.ActorIDs {
		recipients = append(recipients, "staff:"+strconv.FormatInt(id, 10))
	}
	for _, m := range n.Mobiles {
		recipients = append(recipients, "mobile:"+m)
	}

	title, body := describe(n)
	data := make(map[string]interface{}, len(n.Payload)+1)
	for k, v := range n.Payload {
		data[k] = v
	}
	data["event_type"] = n.EventType

	return domain.PushMessage{
		Recipients: recipients,
		Title:      title,
		Body:       body,
		Data:       data,
	}
}

func describe(n domain.Notification) (string, string) {
	id := n.Payload["complaint_id"]
	switch n.EventType {
	case domain.EventComplaintCreated:
		return "Complaint registered", fmt.Sprintf("Your complaint #%v has been registered", id)
	case domain.EventComplaintAssigned:
		return "New assignment", fmt.Sprintf("Complaint #%v has been assigned to you", id)
	case domain.EventComplaintUnassigned:
		return "Complaint needs a worker", fmt.Sprintf("No active worker could take complaint #%v", id)
	case domain.EventStatusChanged:
		return "Complaint updated", fmt.Sprintf("Complaint #%v is now %v", id, n.Payload["status"])
	case domain.EventCommentAdded:
		return "New comment", fmt.Sprintf("Complaint #%v has a new comment", id)
	default:
		return "Complaint update", fmt.Sprintf("Complaint #%v changed", id)
	}
}
