package workers

import (
	"altus-chat/contract"
	"altus-chat/domain"
	"altus-chat/domain/event"
	"altus-chat/errors"
	"altus-chat/mocks"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestEventFanout_Deliver_Counts_Reached_Connections(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	phone := mocks.NewMockEventSink(ctrl)
	laptop := mocks.NewMockEventSink(ctrl)
	fanout := NewEventFanout(log, mockRegistry, nil, nil, time.Second)
	evt := event.Typing{FromID: "alice", ToID: "bob"}

	// Given bob has two connections and one of them is broken
	mockRegistry.EXPECT().SinksFor("bob", domain.ConnectionID("")).
		Return([]contract.EventSink{phone, laptop})
	phone.EXPECT().Consume(gomock.Any(), evt).Return(nil)
	laptop.EXPECT().Consume(gomock.Any(), evt).Return(errors.ErrSinkClosed)

	// When the event is delivered
	reached := fanout.Deliver(context.Background(), "bob", evt, "")

	// Then only the healthy connection is counted
	req.Equal(1, reached)
}

func TestEventFanout_Deliver_Offline_User(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	fanout := NewEventFanout(log, mockRegistry, nil, nil, time.Second)

	mockRegistry.EXPECT().SinksFor("bob", gomock.Any()).Return(nil)

	req.Equal(0, fanout.Deliver(context.Background(), "bob", event.UserOnline{UserID: "alice"}, ""))
}

func TestEventFanout_SinkTimeout(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	slowSink := mocks.NewMockEventSink(ctrl)
	fanout := NewEventFanout(log, mockRegistry, nil, nil, 20*time.Millisecond)

	// Given a connection that only returns when its context expires
	mockRegistry.EXPECT().SinksFor("bob", gomock.Any()).Return([]contract.EventSink{slowSink})
	slowSink.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, evt event.DomainEvent) error {
			<-ctx.Done()
			return ctx.Err()
		})

	start := time.Now()
	reached := fanout.Deliver(context.Background(), "bob", event.UserOnline{UserID: "alice"}, "")

	// Then the write is abandoned after the sink timeout
	req.Equal(0, reached)
	req.Less(time.Since(start), 500*time.Millisecond)
}

func TestEventFanout_Run_Delivers_Envelopes(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	sink := mocks.NewMockEventSink(ctrl)
	envelopes := make(chan Envelope, 1)
	fanout := NewEventFanout(log, mockRegistry, nil, envelopes, time.Second)
	evt := event.UserOffline{UserID: "alice"}

	done := make(chan struct{})
	mockRegistry.EXPECT().SinksFor("bob", gomock.Any()).Return([]contract.EventSink{sink})
	mockRegistry.EXPECT().SinksFor("clara", gomock.Any()).Return(nil)
	sink.EXPECT().Consume(gomock.Any(), evt).DoAndReturn(
		func(ctx context.Context, e event.DomainEvent) error {
			close(done)
			return nil
		})

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error)
	go func() { stopped <- fanout.Run(ctx) }()

	// When an envelope is queued for two users
	envelopes <- Envelope{Event: evt, UserIDs: []string{"bob", "clara"}}

	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Envelope was not delivered in time")
	}
	cancel()
	req.NoError(<-stopped)
}
