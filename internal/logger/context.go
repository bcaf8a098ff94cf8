// Package logger provides structured logging utilities for funcstack.
// It includes context-aware logging and log level management.
package logger

import (
	"context"
	"log/slog"
	"time"

	"github.com/funcstack/funcstack/internal/constants"

	"github.com/aws/aws-lambda-go/lambdacontext"
)

type contextKey string

const (
	deployIDContextKey contextKey = "deployID"

	lambdaRequestIDLogField = "request_id"
)

// WithDeployID returns a copy of ctx carrying the deploy session id.
func WithDeployID(ctx context.Context, deployID string) context.Context {
	return context.WithValue(ctx, deployIDContextKey, deployID)
}

// GetDeployID extracts the deploy session id from the context.
func GetDeployID(ctx context.Context) string {
	if deployID, ok := ctx.Value(deployIDContextKey).(string); ok {
		return deployID
	}

	return ""
}

// DeriveRequestLogger returns a logger enriched with request-scoped fields
// available in the provided context: the deploy session id and, when the
// engine runs inside Lambda, the Lambda request id.
func DeriveRequestLogger(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}

	logger := base
	if deployID := GetDeployID(ctx); deployID != "" {
		logger = logger.With(constants.DeployIDLogField, deployID)
	}

	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		logger = logger.With(lambdaRequestIDLogField, lc.AwsRequestID)
	}

	return logger
}

// GetDeadlineInfo returns logging attributes for context deadline information.
// Returns the absolute deadline time and remaining duration if set, or "none" if no deadline.
func GetDeadlineInfo(ctx context.Context) []any {
	deadline, ok := ctx.Deadline()
	if !ok {
		return []any{"deadline", "none", "deadline_remaining", "none"}
	}

	remaining := time.Until(deadline)
	return []any{
		"deadline", deadline.Format(time.RFC3339),
		"deadline_remaining", remaining.String(),
	}
}
