package streaming

import (
	"context"
	"sync/atomic"

	"lurelab/pkg/logger"
)

// EventBus publishes engagement events. NATS is best effort; a publish
// failure is logged and counted, never propagated into the pipeline.
type EventBus struct {
	nats   *NATSPublisher
	logger *logger.Logger

	published atomic.Int64
	dropped   atomic.Int64
}

// NewEventBus creates an event bus. nats may be nil, in which case events
// are counted locally and otherwise discarded.
func NewEventBus(nats *NATSPublisher, log *logger.Logger) *EventBus {
	return &EventBus{
		nats:   nats,
		logger: log.WithComponent("event-bus"),
	}
}

// Publish sends one event.
func (eb *EventBus) Publish(ctx context.Context, event *EngagementEvent) error {
	eb.published.Add(1)

	if eb.nats == nil || !eb.nats.IsConnected() {
		return nil
	}
	if err := eb.nats.PublishEvent(ctx, event); err != nil {
		eb.dropped.Add(1)
		eb.logger.Warn().Err(err).Str("event_type", string(event.Type)).Msg("failed to publish to NATS")
	}
	return nil
}

// Published returns how many events have been emitted.
func (eb *EventBus) Published() int64 {
	return eb.published.Load()
}

// Dropped returns how many events failed NATS delivery.
func (eb *EventBus) Dropped() int64 {
	return eb.dropped.Load()
}

// Close closes the underlying NATS connection, if any.
func (eb *EventBus) Close() {
	if eb.nats != nil {
		eb.nats.Close()
	}
}
