// Package runtime handles connections, event propagation and background workers.
// It orchestrates the system without containing business logic or domain rules.
package runtime

import (
	"altus-chat/contract"
	"altus-chat/domain"
	"altus-chat/domain/event"
	"altus-chat/observability"
	"altus-chat/runtime/workers"
	"context"
	"log/slog"
	"time"
)

var _ contract.IDispatcher = (*Orchestrator)(nil)

type Orchestrator struct {
	log               *slog.Logger
	supervisor        contract.ISupervisor
	registry          *Registry
	notifier          contract.INotifier
	metrics           *observability.Metrics
	fanout            *workers.EventFanout
	envelopes         chan workers.Envelope
	notifications     chan domain.Notification
	sinkTimeout       time.Duration
	heartbeatInterval time.Duration
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor, registry *Registry,
	notifier contract.INotifier, metrics *observability.Metrics,
	bufferSize int, sinkTimeout, heartbeatInterval time.Duration) *Orchestrator {
	envelopes := make(chan workers.Envelope, bufferSize)
	return &Orchestrator{
		log:               log,
		supervisor:        supervisor,
		registry:          registry,
		notifier:          notifier,
		metrics:           metrics,
		fanout:            workers.NewEventFanout(log, registry, metrics, envelopes, sinkTimeout),
		envelopes:         envelopes,
		notifications:     make(chan domain.Notification, bufferSize),
		sinkTimeout:       sinkTimeout,
		heartbeatInterval: heartbeatInterval,
	}
}

// Deliver writes the event to the live connections of the user and waits for the outcome.
func (o *Orchestrator) Deliver(ctx context.Context, userID string, evt event.DomainEvent, exclude domain.ConnectionID) int {
	return o.fanout.Deliver(ctx, userID, evt, exclude)
}

// Broadcast queues the event for the fanout worker. It never blocks: a full queue drops the event.
func (o *Orchestrator) Broadcast(evt event.DomainEvent, userIDs ...string) {
	if len(userIDs) == 0 {
		return
	}
	select {
	case o.envelopes <- workers.Envelope{Event: evt, UserIDs: userIDs}:
	default:
		o.metrics.Dropped("fanout")
		o.log.Warn("Fanout queue full, dropping event", "event", evt.Kind(), "recipients", len(userIDs))
	}
}

// Notify queues a push notification. It never blocks: a full queue drops the notification.
func (o *Orchestrator) Notify(n domain.Notification) {
	select {
	case o.notifications <- n:
	default:
		o.metrics.Dropped("notification")
		o.log.Warn("Notification queue full, dropping notification", "user", n.UserID, "kind", n.Kind)
	}
}

// Start registers the background workers and runs the supervisor until ctx is done or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) {
	o.supervisor.Add(
		o.fanout,
		workers.NewNotificationWorker(o.log, o.notifier, o.metrics, o.notifications, o.sinkTimeout*10),
		workers.NewHeartbeatWorker(o.log, o.registry, o.metrics, o.heartbeatInterval),
	)
	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
}

func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
