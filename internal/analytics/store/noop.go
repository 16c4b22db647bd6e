package store

import (
	"context"

	"github.com/serroba/eventstats-api/internal/analytics"
	"go.uber.org/zap"
)

// Noop is a no-op implementation of analytics.Store that logs events.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a new no-op analytics store.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SaveRateLimited(_ context.Context, event *analytics.RateLimitedEvent) error {
	n.logger.Info("rate limited event received",
		zap.String("requestId", event.RequestID),
		zap.String("clientIp", event.ClientIP),
		zap.String("method", event.Method),
		zap.String("path", event.Path),
		zap.Int("limit", event.Limit),
		zap.Duration("retryAfter", event.RetryAfter),
		zap.Time("occurredAt", event.OccurredAt),
	)

	return nil
}
