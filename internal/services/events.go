package services

import (
	"context"
	"log/slog"

	"gagyebu/internal/amqp"
	"gagyebu/internal/metrics"
)

// EventPublisher publishes domain events. *amqp.Client implements it.
type EventPublisher interface {
	Publish(ctx context.Context, e *amqp.Event) error
}

// publishEvent sends an event when a publisher is configured. Failures are
// logged and counted but never returned: the user action already succeeded.
func publishEvent(ctx context.Context, pub EventPublisher, m *metrics.Registry, eventType, sessionID string, payload any) {
	if pub == nil {
		return
	}
	e, err := amqp.NewEvent(eventType, sessionID, payload)
	if err == nil {
		err = pub.Publish(ctx, e)
	}
	if err != nil {
		m.EventFailed(eventType)
		slog.ErrorContext(ctx, "Failed to publish event", "event", eventType, "error", err)
	}
}
