package workers

import (
	"altus-chat/contract"
	"altus-chat/domain"
	"altus-chat/observability"
	"context"
	"log/slog"
	"time"
)

// NotificationWorker hands push notifications for offline users to the notifier.
// It drains its own queue so a slow notifier never blocks a sender.
type NotificationWorker struct {
	log           *slog.Logger
	notifier      contract.INotifier
	metrics       *observability.Metrics
	notifications <-chan domain.Notification
	timeout       time.Duration
}

func NewNotificationWorker(log *slog.Logger, notifier contract.INotifier, metrics *observability.Metrics,
	notifications <-chan domain.Notification, timeout time.Duration) *NotificationWorker {
	return &NotificationWorker{
		log:           log,
		notifier:      notifier,
		metrics:       metrics,
		notifications: notifications,
		timeout:       timeout,
	}
}

func (w *NotificationWorker) Run(ctx context.Context) error {
	for {
		select {
		case n := <-w.notifications:
			w.send(ctx, n)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping notification worker")
			return nil
		}
	}
}

func (w *NotificationWorker) send(ctx context.Context, n domain.Notification) {
	notifyCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	err := w.notifier.Notify(notifyCtx, n)
	w.metrics.Notification(err)
	if err != nil {
		w.log.Warn("Push notification failed", "user", n.UserID, "kind", n.Kind, "error", err)
	}
}
