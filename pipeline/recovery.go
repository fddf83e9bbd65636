package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/glimte/mediate-go/contracts"
)

// RecoveryMiddleware converts panics from downstream middleware and handlers
// into errors. The notification fan-out already isolates consumer panics;
// this middleware adds the same safety to request and stream pipelines.
type RecoveryMiddleware struct {
	logger *slog.Logger
}

// NewRecoveryMiddleware creates a new recovery middleware
func NewRecoveryMiddleware(logger *slog.Logger) *RecoveryMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecoveryMiddleware{logger: logger}
}

// Intercept implements Middleware
func (m *RecoveryMiddleware) Intercept(ctx context.Context, msg contracts.Message, next Handler) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("recovered panic in pipeline",
				"messageId", msg.GetID(),
				"messageType", msg.GetType(),
				"panic", r,
			)
			result = nil
			err = fmt.Errorf("panic while handling %s: %v", msg.GetType(), r)
		}
	}()

	return next.Handle(ctx, msg)
}

// Name implements Middleware
func (m *RecoveryMiddleware) Name() string {
	return "RecoveryMiddleware"
}
