package runtime

import (
	"altus-chat/contract"
	"altus-chat/domain"
	"sync"

	"github.com/samber/lo"
)

type connection struct {
	userID string
	sink   contract.EventSink
}

// Registry is the in-process directory of live connections.
// A user may hold several connections at once (one per device).
// It is empty at boot: presence always restarts as "everybody offline".
type Registry struct {
	mu          sync.RWMutex
	connections map[domain.ConnectionID]connection                       // map connection -> owner
	users       map[string]map[domain.ConnectionID]contract.EventSink // map user -> live connections
}

func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[domain.ConnectionID]connection),
		users:       make(map[string]map[domain.ConnectionID]contract.EventSink),
	}
}

// Register adds the connection under the user and reports whether it is the user's first one.
// Registering an already known connection is a no-op.
func (r *Registry) Register(userID string, connID domain.ConnectionID, sink contract.EventSink) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.connections[connID]; exists {
		return false
	}
	r.connections[connID] = connection{userID: userID, sink: sink}

	sinks, ok := r.users[userID]
	if !ok {
		sinks = make(map[domain.ConnectionID]contract.EventSink)
		r.users[userID] = sinks
	}
	sinks[connID] = sink
	return len(sinks) == 1
}

// Unregister removes the connection and reports its owner and whether it was the last one.
// Unknown connections are ignored: transports may report the same disconnect twice.
func (r *Registry) Unregister(connID domain.ConnectionID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.connections[connID]
	if !ok {
		return "", false
	}
	delete(r.connections, connID)

	sinks := r.users[conn.userID]
	delete(sinks, connID)

	// No empty sets are left behind to prevent memory leaks over time
	if len(sinks) == 0 {
		delete(r.users, conn.userID)
		return conn.userID, true
	}
	return conn.userID, false
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID]) > 0
}

func (r *Registry) ListConnections(userID string) []domain.ConnectionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.users[userID])
}

// SinksFor returns the live sinks of a user, skipping the exclude connection.
// The slice is a snapshot: callers write to it without holding the lock.
func (r *Registry) SinksFor(userID string, exclude domain.ConnectionID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sinks, ok := r.users[userID]
	if !ok {
		return nil
	}
	active := make([]contract.EventSink, 0, len(sinks))
	for connID, sink := range sinks {
		if connID == exclude {
			continue
		}
		active = append(active, sink)
	}
	return active
}

// Stats returns the number of online users and live connections.
func (r *Registry) Stats() (int, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), len(r.connections)
}
