//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"altus-chat/domain"
	"altus-chat/domain/event"
	"altus-chat/domain/search"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is one live connection seen from the core.
// Consume must not block longer than ctx allows.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry maps users to their live connections.
// The in-process implementation can be swapped for a shared one.
type IRegistry interface {
	Register(userID string, connID domain.ConnectionID, sink EventSink) bool
	Unregister(connID domain.ConnectionID) (string, bool)
	IsOnline(userID string) bool
	ListConnections(userID string) []domain.ConnectionID
	SinksFor(userID string, exclude domain.ConnectionID) []EventSink
}

// IDispatcher pushes events to users.
// Deliver is synchronous and returns how many connections accepted the event.
// Broadcast and Notify are fire-and-forget.
type IDispatcher interface {
	Deliver(ctx context.Context, userID string, evt event.DomainEvent, exclude domain.ConnectionID) int
	Broadcast(evt event.DomainEvent, userIDs ...string)
	Notify(n domain.Notification)
}

// ISocialGraph decides who sees whose presence and who may talk to whom.
type ISocialGraph interface {
	Watchers(userID string) ([]string, error)
	CanMessage(fromID, toID string) (bool, error)
}

// INotifier delivers out-of-band alerts to offline users.
type INotifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

type IModerator interface {
	Sanitize(content string) domain.Sanitized
}

// IMessageIndex is the full-text index over direct messages.
type IMessageIndex interface {
	Index(message domain.DirectMessage) error
	Search(ctx context.Context, userID string, query search.Query) ([]string, error)
}
