package lifecycle

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/danpasecinic/riolauncher/apperr"
)

// TrackPerformance times fn inside a span named "<service>.<operation>",
// reports the duration to telemetry and logs it. The duration is recorded
// on failure too and fn's error is returned as is.
func (b *Base) TrackPerformance(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	metric := b.name + "." + operation

	ctx, span := b.tracer.Start(ctx, metric)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)

	span.SetAttributes(
		attribute.String("service", b.name),
		attribute.String("operation", operation),
		attribute.Int64("duration_ms", duration.Milliseconds()),
	)

	if b.telemetry.Enabled() {
		b.telemetry.TrackPerformance(metric, duration)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.logger.Warn(
			"operation failed",
			zap.String("operation", operation),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return err
	}

	b.logger.Debug("operation completed", zap.String("operation", operation), zap.Duration("duration", duration))
	return nil
}

// Track is TrackPerformance for operations that produce a value.
func Track[T any](ctx context.Context, b *Base, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := b.TrackPerformance(
		ctx, operation, func(ctx context.Context) error {
			var err error
			result, err = fn(ctx)
			return err
		},
	)
	return result, err
}

// HandleError normalizes err, tags it with the service name, reports it to
// telemetry, shows a notification and logs it. The returned error is a copy;
// err itself is left untouched for the caller's own handling.
func (b *Base) HandleError(ctx context.Context, err error, userMessage ...string) *apperr.Error {
	if err == nil {
		return nil
	}

	normalized := *apperr.Normalize(err)
	if normalized.Service == "" {
		normalized.Service = b.name
	}
	if len(userMessage) > 0 && userMessage[0] != "" {
		normalized.UserMessage = userMessage[0]
	}

	if b.telemetry.Enabled() {
		b.telemetry.TrackError(
			&normalized, map[string]any{
				"service":     b.name,
				"code":        normalized.Code.String(),
				"recoverable": normalized.Recoverable,
			},
		)
	}

	message := normalized.UserMessage
	if message == "" {
		message = normalized.Message
	}
	b.notifier.Show(b.name, message)

	b.logger.Error(
		"service error",
		zap.String("code", normalized.Code.String()),
		zap.Bool("recoverable", normalized.Recoverable),
		zap.Error(err),
	)

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.RecordError(err)
	}

	return &normalized
}
