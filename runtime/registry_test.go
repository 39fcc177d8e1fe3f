package runtime

import (
	"altus-chat/domain"
	"altus-chat/domain/event"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type Sink struct {
	name string
}

func (s Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	return nil
}

func TestRegistry_Register_First_Connection_Only(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	phone := domain.NewConnectionID()
	laptop := domain.NewConnectionID()

	// Given no user is connected
	req.False(registry.IsOnline("alice"))

	// When alice connects from two devices
	req.True(registry.Register("alice", phone, Sink{"phone"}))
	req.False(registry.Register("alice", laptop, Sink{"laptop"}))

	// Then only the first registration is reported as a transition
	req.True(registry.IsOnline("alice"))
	req.ElementsMatch([]domain.ConnectionID{phone, laptop}, registry.ListConnections("alice"))
	users, connections := registry.Stats()
	req.Equal(1, users)
	req.Equal(2, connections)
}

func TestRegistry_Register_Is_Idempotent_Per_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	phone := domain.NewConnectionID()

	req.True(registry.Register("alice", phone, Sink{}))
	req.False(registry.Register("alice", phone, Sink{}))

	req.Len(registry.ListConnections("alice"), 1)
}

func TestRegistry_Unregister_Last_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	phone := domain.NewConnectionID()
	laptop := domain.NewConnectionID()
	registry.Register("alice", phone, Sink{})
	registry.Register("alice", laptop, Sink{})

	// When one device disconnects
	userID, last := registry.Unregister(phone)

	// Then alice is still online
	req.Equal("alice", userID)
	req.False(last)
	req.True(registry.IsOnline("alice"))

	// When the second one disconnects
	userID, last = registry.Unregister(laptop)

	// Then alice is offline and nothing is left behind
	req.Equal("alice", userID)
	req.True(last)
	req.False(registry.IsOnline("alice"))
	req.Empty(registry.users)
	req.Empty(registry.connections)
}

func TestRegistry_Unregister_Unknown_Connection_Is_NoOp(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	phone := domain.NewConnectionID()
	registry.Register("alice", phone, Sink{})
	registry.Unregister(phone)

	// When the transport reports the same disconnect again
	userID, last := registry.Unregister(phone)

	req.Empty(userID)
	req.False(last)
}

func TestRegistry_SinksFor_Excludes_Origin(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	phone := domain.NewConnectionID()
	laptop := domain.NewConnectionID()
	registry.Register("alice", phone, Sink{"phone"})
	registry.Register("alice", laptop, Sink{"laptop"})

	sinks := registry.SinksFor("alice", phone)

	req.Len(sinks, 1)
	req.Contains(sinks, Sink{"laptop"})
	req.Nil(registry.SinksFor("bob", ""))
}
