package services

import (
	"altus-chat/contract"
	"altus-chat/domain"
	"altus-chat/domain/event"
	"context"
	"log/slog"
	"time"
)

type IPresenceService interface {
	Connect(ctx context.Context, userID string, connID domain.ConnectionID, sink contract.EventSink) bool
	Disconnect(ctx context.Context, connID domain.ConnectionID) string
	IsOnline(userID string) bool
	ListConnections(userID string) []domain.ConnectionID
	OnlineAmong(userIDs ...string) map[string]bool
}

// PresenceService turns registry transitions into presence events.
// Only the first connection and the last disconnection of a user are visible to watchers.
type PresenceService struct {
	log        *slog.Logger
	registry   contract.IRegistry
	dispatcher contract.IDispatcher
	graph      contract.ISocialGraph
}

func NewPresenceService(log *slog.Logger, registry contract.IRegistry,
	dispatcher contract.IDispatcher, graph contract.ISocialGraph) *PresenceService {
	return &PresenceService{log: log, registry: registry, dispatcher: dispatcher, graph: graph}
}

// Connect registers the connection and reports whether the user just came online.
func (s *PresenceService) Connect(ctx context.Context, userID string, connID domain.ConnectionID, sink contract.EventSink) bool {
	if !s.registry.Register(userID, connID, sink) {
		return false
	}
	s.log.Debug("User online", "user", userID)
	s.broadcastToWatchers(userID, event.UserOnline{UserID: userID, At: time.Now().UTC()})
	return true
}

// Disconnect unregisters the connection and returns its owner.
// Unknown connections are ignored.
func (s *PresenceService) Disconnect(ctx context.Context, connID domain.ConnectionID) string {
	userID, last := s.registry.Unregister(connID)
	if last {
		s.log.Debug("User offline", "user", userID)
		s.broadcastToWatchers(userID, event.UserOffline{UserID: userID, At: time.Now().UTC()})
	}
	return userID
}

func (s *PresenceService) IsOnline(userID string) bool {
	return s.registry.IsOnline(userID)
}

func (s *PresenceService) ListConnections(userID string) []domain.ConnectionID {
	return s.registry.ListConnections(userID)
}

func (s *PresenceService) OnlineAmong(userIDs ...string) map[string]bool {
	res := make(map[string]bool, len(userIDs))
	for _, u := range userIDs {
		res[u] = s.registry.IsOnline(u)
	}
	return res
}

func (s *PresenceService) broadcastToWatchers(userID string, evt event.DomainEvent) {
	watchers, err := s.graph.Watchers(userID)
	if err != nil {
		s.log.Warn("Cannot load watchers, presence change not broadcast", "user", userID, "error", err)
		return
	}
	if len(watchers) > 0 {
		s.dispatcher.Broadcast(evt, watchers...)
	}
}
