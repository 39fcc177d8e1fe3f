package workers

import (
	"altus-chat/contract"
	"altus-chat/domain"
	"altus-chat/domain/event"
	"altus-chat/observability"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Envelope is one event addressed to a set of users.
type Envelope struct {
	Event   event.DomainEvent
	UserIDs []string
}

// EventFanout writes domain events to the live connections of their recipients.
//
// Delivery is best effort: no ordering across users, no durability, no retries.
// A failing connection is logged and counted, never reported to the producer.
type EventFanout struct {
	log         *slog.Logger
	registry    contract.IRegistry
	metrics     *observability.Metrics
	envelopes   <-chan Envelope
	sinkTimeout time.Duration
}

func NewEventFanout(log *slog.Logger, registry contract.IRegistry, metrics *observability.Metrics,
	envelopes <-chan Envelope, sinkTimeout time.Duration) *EventFanout {
	return &EventFanout{
		log:         log,
		registry:    registry,
		metrics:     metrics,
		envelopes:   envelopes,
		sinkTimeout: sinkTimeout,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case envelope := <-w.envelopes:
			for _, userID := range envelope.UserIDs {
				w.Deliver(ctx, userID, envelope.Event, "")
			}
		case <-ctx.Done():
			w.log.Debug("Context done, stopping event fanout")
			return nil
		}
	}
}

// Deliver writes the event to every connection of the user except exclude,
// each write bounded by the sink timeout. It returns how many connections accepted it.
func (w *EventFanout) Deliver(ctx context.Context, userID string, evt event.DomainEvent, exclude domain.ConnectionID) int {
	sinks := w.registry.SinksFor(userID, exclude)
	if len(sinks) == 0 {
		return 0
	}

	var reached atomic.Int32
	var wg sync.WaitGroup
	for _, sink := range sinks {
		wg.Add(1)
		go func(sink contract.EventSink) {
			defer wg.Done()
			sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
			defer cancel()

			if err := sink.Consume(sinkCtx, evt); err != nil {
				w.log.Warn("Delivery to connection failed",
					"user", userID, "event", evt.Kind(), "error", err)
				w.metrics.Delivery(false)
				return
			}
			reached.Add(1)
			w.metrics.Delivery(true)
		}(sink)
	}
	wg.Wait()
	return int(reached.Load())
}
