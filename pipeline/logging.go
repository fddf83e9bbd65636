package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/glimte/mediate-go/contracts"
)

// LoggingMiddleware logs message processing with timing information.
type LoggingMiddleware struct {
	logger *slog.Logger
}

// NewLoggingMiddleware creates a new logging middleware
func NewLoggingMiddleware(logger *slog.Logger) *LoggingMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingMiddleware{logger: logger}
}

// Intercept implements Middleware
func (m *LoggingMiddleware) Intercept(ctx context.Context, msg contracts.Message, next Handler) (any, error) {
	start := time.Now()

	m.logger.Info("processing message",
		"messageId", msg.GetID(),
		"messageType", msg.GetType(),
		"correlationId", msg.GetCorrelationID(),
	)

	result, err := next.Handle(ctx, msg)
	duration := time.Since(start)

	if err != nil {
		m.logger.Error("message processing failed",
			"messageId", msg.GetID(),
			"messageType", msg.GetType(),
			"duration", duration,
			"error", err,
		)
	} else {
		m.logger.Info("message processed successfully",
			"messageId", msg.GetID(),
			"messageType", msg.GetType(),
			"duration", duration,
		)
	}

	return result, err
}

// Name implements Middleware
func (m *LoggingMiddleware) Name() string {
	return "LoggingMiddleware"
}
