package push

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sanitation-complaints/internal/config"
	"github.com/sanitation-complaints/internal/domain"
	"github.com/sanitation-complaints/internal/domain/repository"
	"go.uber.org/zap"
)

const sendPath = "/v1/messages"

type client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

type sendResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// NewClient creates the push provider client. Without a base URL pushes are only logged.
func NewClient(cfg *config.PushConfig, logger *zap.Logger) repository.PushSender {
	if cfg.BaseURL == "" {
		logger.Warn("PUSH_BASE_URL is empty, push notifications will only be logged")
		return &logSender{logger: logger}
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})

	if cfg.APIKey != "" {
		httpClient.SetHeader("X-API-Key", cfg.APIKey)
	}

	return &client{
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *client) Send(ctx context.Context, msg domain.PushMessage) error {
	if len(msg.Recipients) == 0 {
		return nil
	}

	c.logger.Debug("Calling push provider",
		zap.Int("recipients", len(msg.Recipients)),
		zap.String("title", msg.Title))

	var result sendResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(msg).
		SetResult(&result).
		Post(sendPath)
	if err != nil {
		c.logger.Error("Push provider call failed", zap.Error(err))
		return fmt.Errorf("failed to call push provider: %w", err)
	}

	if resp.IsError() {
		c.logger.Error("Push provider returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("body", resp.String()))
		return fmt.Errorf("push provider error: status %d", resp.StatusCode())
	}

	c.logger.Debug("Push accepted",
		zap.String("push_id", result.ID),
		zap.String("status", result.Status))
	return nil
}

type logSender struct {
	logger *zap.Logger
}

func (s *logSender) Send(_ context.Context, msg domain.PushMessage) error {
	s.logger.Info("Push notification",
		zap.Strings("recipients", msg.Recipients),
		zap.String("title", msg.Title),
		zap.String("body", msg.Body))
	return nil
}
