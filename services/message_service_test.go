package services

import (
	"altus-chat/domain"
	"altus-chat/domain/event"
	"altus-chat/domain/search"
	"altus-chat/errors"
	"altus-chat/mocks"
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func storeDirect(t *testing.T, f fixture, senderID, recipientID, content string) domain.DirectMessage {
	message := domain.DirectMessage{
		ID:          uuid.New(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, f.messages.StoreMessage(message))
	return message
}

func TestMessageService_SendDirect_To_Online_Recipient(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	service := f.messageService(nil)
	ctx := context.Background()
	origin := domain.ConnectionID("alice-phone")

	// Given bob holds one live connection
	f.graph.EXPECT().CanMessage("alice", "bob").Return(true, nil)
	f.dispatcher.EXPECT().
		Deliver(gomock.Any(), "bob", gomock.AssignableToTypeOf(event.NewMessage{}), domain.ConnectionID("")).
		Return(1)
	var echoed event.DomainEvent
	f.dispatcher.EXPECT().
		Deliver(gomock.Any(), "alice", gomock.Any(), origin).
		DoAndReturn(func(_ context.Context, _ string, evt event.DomainEvent, _ domain.ConnectionID) int {
			echoed = evt
			return 0
		})

	// When alice sends a message
	message, err := service.SendDirect(ctx, domain.SendDirectCommand{
		SenderID:     "alice",
		RecipientID:  "bob",
		Content:      "  leg day tomorrow?  ",
		OriginConnID: origin,
	})

	// Then the message is stored as delivered and echoed to alice's other devices
	req.NoError(err)
	req.Equal("leg day tomorrow?", message.Content)
	req.NotNil(message.DeliveredAt)
	req.Nil(message.ReadAt)

	stored, err := f.messages.GetMessage(message.ID)
	req.NoError(err)
	req.NotNil(stored.DeliveredAt)

	req.IsType(event.NewMessage{}, echoed)
	req.Equal(message.ID, echoed.(event.NewMessage).Message.ID)
}

func TestMessageService_SendDirect_To_Offline_Recipient_Notifies(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	service := f.messageService(nil)
	ctx := context.Background()

	// Given bob has no live connection
	f.graph.EXPECT().CanMessage("alice", "bob").Return(true, nil)
	f.dispatcher.EXPECT().Deliver(gomock.Any(), "bob", gomock.Any(), gomock.Any()).Return(0)
	f.dispatcher.EXPECT().Deliver(gomock.Any(), "alice", gomock.Any(), gomock.Any()).Return(0)
	var notification domain.Notification
	f.dispatcher.EXPECT().Notify(gomock.Any()).Do(func(n domain.Notification) { notification = n })

	// When alice sends a message containing a censored word
	message, err := service.SendDirect(ctx, domain.SendDirectCommand{
		SenderID:    "alice",
		RecipientID: "bob",
		Content:     "you idiot, you skipped cardio",
	})

	// Then the message stays undelivered and bob gets a push notification
	req.NoError(err)
	req.Nil(message.DeliveredAt)
	req.Equal("you *****, you skipped cardio", message.Content)
	req.Equal("bob", notification.UserID)
	req.Equal(domain.DirectMessageNotification, notification.Kind)
	req.Equal("alice", notification.SenderID)
	req.Equal(message.ID.String(), notification.MessageID)
	req.Equal(message.Content, notification.Preview)
}

func TestMessageService_SendDirect_Rejects_Invalid_Input(t *testing.T) {
	f := newFixture(t)
	service := f.messageService(nil)
	ctx := context.Background()

	tests := []struct {
		name string
		cmd  domain.SendDirectCommand
	}{
		{"empty content", domain.SendDirectCommand{SenderID: "alice", RecipientID: "bob", Content: ""}},
		{"blank content", domain.SendDirectCommand{SenderID: "alice", RecipientID: "bob", Content: " \n\t "}},
		{"too long", domain.SendDirectCommand{SenderID: "alice", RecipientID: "bob", Content: strings.Repeat("a", maxContentLength+1)}},
		{"no recipient", domain.SendDirectCommand{SenderID: "alice", Content: "hi"}},
		{"self conversation", domain.SendDirectCommand{SenderID: "alice", RecipientID: "alice", Content: "hi"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// When the command is invalid
			_, err := service.SendDirect(ctx, tt.cmd)

			// Then nothing reaches the graph nor the dispatcher
			require.ErrorIs(t, err, errors.ErrInvalidInput)
			require.Equal(t, errors.CodeInvalidArgument, errors.CodeOf(err))
		})
	}
}

func TestMessageService_SendDirect_Forbidden_By_Social_Graph(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	service := f.messageService(nil)

	// Given the graph does not allow alice to message bob
	f.graph.EXPECT().CanMessage("alice", "bob").Return(false, nil)

	// When alice sends a message
	_, err := service.SendDirect(context.Background(), domain.SendDirectCommand{
		SenderID: "alice", RecipientID: "bob", Content: "hi",
	})

	// Then the call is forbidden and nothing is stored
	req.ErrorIs(err, errors.ErrForbidden)
	messages, _, err := f.messages.GetConversation("alice", "bob", nil)
	req.NoError(err)
	req.Empty(messages)
}

func TestMessageService_SendDirect_Store_Failure_Emits_Nothing(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	repository := mocks.NewMockIMessageRepository(gomock.NewController(t))
	service := NewMessageService(f.log, repository, f.dispatcher, f.graph, f.moderator, nil, nil, maxContentLength)
	storageErr := stderrors.New("disk full")

	// Given storage is failing
	f.graph.EXPECT().CanMessage("alice", "bob").Return(true, nil)
	repository.EXPECT().StoreMessage(gomock.Any()).Return(storageErr)

	// When alice sends a message
	_, err := service.SendDirect(context.Background(), domain.SendDirectCommand{
		SenderID: "alice", RecipientID: "bob", Content: "hi",
	})

	// Then the error surfaces and no event is dispatched
	req.ErrorIs(err, storageErr)
}

func TestMessageService_MarkRead_Notifies_Sender_Once(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	service := f.messageService(nil)
	ctx := context.Background()
	message := storeDirect(t, f, "alice", "bob", "see you at 7")

	// Given alice is told once about the read receipt
	var receipt event.DomainEvent
	f.dispatcher.EXPECT().
		Deliver(gomock.Any(), "alice", gomock.AssignableToTypeOf(event.Read{}), domain.ConnectionID("")).
		DoAndReturn(func(_ context.Context, _ string, evt event.DomainEvent, _ domain.ConnectionID) int {
			receipt = evt
			return 1
		}).Times(1)

	// When bob reads the message twice then acks its delivery late
	req.NoError(service.MarkRead(ctx, "bob", message.ID))
	req.NoError(service.MarkRead(ctx, "bob", message.ID))
	req.NoError(service.MarkDelivered(ctx, "bob", message.ID))

	// Then read implies delivered and timestamps never move
	stored, err := f.messages.GetMessage(message.ID)
	req.NoError(err)
	req.NotNil(stored.ReadAt)
	req.NotNil(stored.DeliveredAt)
	req.Equal(message.ID, receipt.(event.Read).MessageID)
	req.Equal("bob", receipt.(event.Read).RecipientID)
	req.True(stored.ReadAt.Equal(receipt.(event.Read).At))
}

func TestMessageService_MarkDelivered_Emits_Delivered(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	service := f.messageService(nil)
	message := storeDirect(t, f, "alice", "bob", "ready?")

	f.dispatcher.EXPECT().
		Deliver(gomock.Any(), "alice", gomock.AssignableToTypeOf(event.Delivered{}), domain.ConnectionID("")).
		Return(1)

	req.NoError(service.MarkDelivered(context.Background(), "bob", message.ID))

	stored, err := f.messages.GetMessage(message.ID)
	req.NoError(err)
	req.NotNil(stored.DeliveredAt)
	req.Nil(stored.ReadAt)
}

func TestMessageService_Acknowledge_Edge_Cases(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	service := f.messageService(nil)
	ctx := context.Background()
	message := storeDirect(t, f, "alice", "bob", "hello")

	// When someone other than the recipient acks
	err := service.MarkRead(ctx, "carol", message.ID)

	// Then it is forbidden
	req.ErrorIs(err, errors.ErrForbidden)
	req.ErrorIs(service.MarkDelivered(ctx, "alice", message.ID), errors.ErrForbidden)

	// When an unknown message is acked
	// Then it is silently ignored
	req.NoError(service.MarkRead(ctx, "bob", uuid.New()))
	req.NoError(service.MarkDelivered(ctx, "bob", uuid.New()))

	stored, err := f.messages.GetMessage(message.ID)
	req.NoError(err)
	req.Nil(stored.DeliveredAt)
}

func TestMessageService_FetchHistory_Marks_Delivered(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	service := f.messageService(nil)
	ctx := context.Background()

	// Given two messages for bob and one reply from bob
	first := storeDirect(t, f, "alice", "bob", "first")
	second := storeDirect(t, f, "alice", "bob", "second")
	reply := storeDirect(t, f, "bob", "alice", "reply")

	f.dispatcher.EXPECT().
		Deliver(gomock.Any(), "alice", gomock.AssignableToTypeOf(event.Delivered{}), domain.ConnectionID("")).
		Return(1).Times(2)

	// When bob fetches the conversation
	messages, _, err := service.FetchHistory(ctx, "bob", "alice", nil)

	// Then the messages addressed to bob are now delivered
	req.NoError(err)
	req.Len(messages, 3)
	for _, m := range messages {
		switch m.ID {
		case first.ID, second.ID:
			req.NotNil(m.DeliveredAt)
		case reply.ID:
			req.Nil(m.DeliveredAt)
		}
	}

	// When bob fetches again, no new receipt is sent
	_, _, err = service.FetchHistory(ctx, "bob", "alice", nil)
	req.NoError(err)
}

func TestMessageService_UnreadCounts(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	service := f.messageService(nil)
	ctx := context.Background()

	storeDirect(t, f, "alice", "bob", "one")
	read := storeDirect(t, f, "alice", "bob", "two")
	storeDirect(t, f, "carol", "bob", "three")
	storeDirect(t, f, "bob", "alice", "four")

	f.dispatcher.EXPECT().Deliver(gomock.Any(), "alice", gomock.Any(), gomock.Any()).Return(0)
	req.NoError(service.MarkRead(ctx, "bob", read.ID))

	counts, err := service.UnreadCounts(ctx, "bob")
	req.NoError(err)
	req.Equal(map[string]int{"alice": 1, "carol": 1}, counts)
}

func TestMessageService_Search(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	index := mocks.NewMockIMessageIndex(gomock.NewController(t))
	service := f.messageService(index)
	ctx := context.Background()
	message := storeDirect(t, f, "alice", "bob", "squat form")

	// Given the index knows one stored message and one stale id
	index.EXPECT().
		Search(gomock.Any(), "bob", gomock.AssignableToTypeOf(search.Query{})).
		DoAndReturn(func(_ context.Context, _ string, query search.Query) ([]string, error) {
			req.Equal("squat", query.Terms)
			req.Equal("alice", query.PeerID)
			return []string{message.ID.String(), uuid.NewString()}, nil
		})

	// When bob searches
	results, err := service.Search(ctx, "bob", "squat --with alice")

	// Then only the stored message comes back
	req.NoError(err)
	req.Len(results, 1)
	req.Equal(message.ID, results[0].ID)

	_, err = service.Search(ctx, "bob", "   ")
	req.ErrorIs(err, errors.ErrInvalidInput)
}

func TestMessageService_Search_Disabled(t *testing.T) {
	f := newFixture(t)
	service := f.messageService(nil)

	_, err := service.Search(context.Background(), "bob", "squat")

	require.Equal(t, errors.CodeUnavailable, errors.CodeOf(err))
}
