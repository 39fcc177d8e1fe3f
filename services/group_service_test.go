package services

import (
	"altus-chat/domain"
	"altus-chat/domain/event"
	"altus-chat/errors"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func createGroup(t *testing.T, service *GroupService, creatorID string, memberIDs ...string) domain.Group {
	group, err := service.CreateGroup(context.Background(), domain.CreateGroupCommand{
		CreatorID: creatorID,
		Name:      "  Morning crew ",
		MemberIDs: memberIDs,
	})
	require.NoError(t, err)
	return group
}

func TestGroupService_CreateGroup(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	service := f.groupService()
	ctx := context.Background()

	// When alice creates a group listing herself twice
	group := createGroup(t, service, "alice", "bob", "alice", "carol")

	// Then the creator is a member once and the name is trimmed
	req.Equal("Morning crew", group.Name)
	req.Equal([]string{"alice", "bob", "carol"}, group.MemberIDs)

	loaded, err := service.GetGroup(ctx, "bob", group.ID)
	req.NoError(err)
	req.Equal(group.ID, loaded.ID)

	_, err = service.GetGroup(ctx, "mallory", group.ID)
	req.ErrorIs(err, errors.ErrForbidden)

	_, err = service.CreateGroup(ctx, domain.CreateGroupCommand{CreatorID: "alice", Name: "   "})
	req.ErrorIs(err, errors.ErrInvalidInput)
}

func TestGroupService_Membership(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	service := f.groupService()
	ctx := context.Background()
	group := createGroup(t, service, "alice")

	updated, err := service.AddMembers(ctx, group.ID, "bob", "carol")
	req.NoError(err)
	req.Equal([]string{"alice", "bob", "carol"}, updated.MemberIDs)

	updated, err = service.RemoveMember(ctx, group.ID, "carol")
	req.NoError(err)
	req.Equal([]string{"alice", "bob"}, updated.MemberIDs)

	groups, err := service.GroupsFor(ctx, "bob")
	req.NoError(err)
	req.Len(groups, 1)
	groups, err = service.GroupsFor(ctx, "carol")
	req.NoError(err)
	req.Empty(groups)

	_, err = service.AddMembers(ctx, uuid.New(), "bob")
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestGroupService_SendGroup(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	service := f.groupService()
	ctx := context.Background()
	group := createGroup(t, service, "alice", "bob", "carol")
	origin := domain.ConnectionID("alice-phone")

	// Given bob is online and carol is not
	f.dispatcher.EXPECT().Deliver(gomock.Any(), "bob", gomock.AssignableToTypeOf(event.NewGroupMessage{}), domain.ConnectionID("")).Return(2)
	f.dispatcher.EXPECT().Deliver(gomock.Any(), "carol", gomock.Any(), domain.ConnectionID("")).Return(0)
	var notification domain.Notification
	f.dispatcher.EXPECT().Notify(gomock.Any()).Do(func(n domain.Notification) { notification = n })
	f.dispatcher.EXPECT().Deliver(gomock.Any(), "alice", gomock.Any(), origin).Return(0)

	// When alice posts to the group
	message, err := service.SendGroup(ctx, domain.SendGroupCommand{
		SenderID: "alice", GroupID: group.ID, Content: "6am, don't be late", OriginConnID: origin,
	})

	// Then bob is recorded as delivered and carol is notified
	req.NoError(err)
	req.True(message.IsDeliveredTo("bob"))
	req.False(message.IsDeliveredTo("carol"))
	req.False(message.IsDeliveredTo("alice"))
	req.Equal("carol", notification.UserID)
	req.Equal(domain.GroupMessageNotification, notification.Kind)
	req.Equal(group.ID.String(), notification.GroupID)

	stored, err := f.groups.GetGroupMessage(message.ID)
	req.NoError(err)
	req.Len(stored.DeliveredTo, 1)
}

func TestGroupService_SendGroup_Rejected(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	service := f.groupService()
	ctx := context.Background()
	group := createGroup(t, service, "alice", "bob")

	_, err := service.SendGroup(ctx, domain.SendGroupCommand{SenderID: "mallory", GroupID: group.ID, Content: "hi"})
	req.ErrorIs(err, errors.ErrNotGroupMember)

	_, err = service.SendGroup(ctx, domain.SendGroupCommand{SenderID: "alice", GroupID: uuid.New(), Content: "hi"})
	req.ErrorIs(err, errors.ErrGroupNotFound)

	_, err = service.SendGroup(ctx, domain.SendGroupCommand{SenderID: "alice", GroupID: group.ID, Content: "  "})
	req.ErrorIs(err, errors.ErrEmptyContent)
}

func TestGroupService_Acknowledgements(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	service := f.groupService()
	ctx := context.Background()
	group := createGroup(t, service, "alice", "bob", "carol")

	f.dispatcher.EXPECT().Deliver(gomock.Any(), gomock.Not("alice"), gomock.Any(), gomock.Any()).Return(0).Times(2)
	f.dispatcher.EXPECT().Notify(gomock.Any()).Times(2)
	f.dispatcher.EXPECT().Deliver(gomock.Any(), "alice", gomock.AssignableToTypeOf(event.NewGroupMessage{}), gomock.Any()).Return(0)
	message, err := service.SendGroup(ctx, domain.SendGroupCommand{SenderID: "alice", GroupID: group.ID, Content: "who's in?"})
	req.NoError(err)

	// Given alice hears once about bob's delivery and once about bob's read
	gomock.InOrder(
		f.dispatcher.EXPECT().Deliver(gomock.Any(), "alice", gomock.AssignableToTypeOf(event.GroupDelivered{}), domain.ConnectionID("")).
			DoAndReturn(func(_ context.Context, _ string, evt event.DomainEvent, _ domain.ConnectionID) int {
				req.Equal([]string{"bob"}, evt.(event.GroupDelivered).UserIDs)
				return 1
			}),
		f.dispatcher.EXPECT().Deliver(gomock.Any(), "alice", gomock.AssignableToTypeOf(event.GroupRead{}), domain.ConnectionID("")).
			DoAndReturn(func(_ context.Context, _ string, evt event.DomainEvent, _ domain.ConnectionID) int {
				req.Equal("bob", evt.(event.GroupRead).UserID)
				return 1
			}),
	)

	// When bob acks twice, reads, and alice acks her own message
	req.NoError(service.MarkGroupDelivered(ctx, "bob", message.ID))
	req.NoError(service.MarkGroupDelivered(ctx, "bob", message.ID))
	req.NoError(service.MarkGroupRead(ctx, "bob", message.ID))
	req.NoError(service.MarkGroupRead(ctx, "alice", message.ID))

	// Then an outsider is rejected and unknown messages are ignored
	req.ErrorIs(service.MarkGroupRead(ctx, "mallory", message.ID), errors.ErrNotGroupMember)
	req.NoError(service.MarkGroupDelivered(ctx, "bob", uuid.New()))

	stored, err := f.groups.GetGroupMessage(message.ID)
	req.NoError(err)
	req.True(stored.IsReadBy("bob"))
	req.False(stored.IsDeliveredTo("carol"))
	req.False(stored.IsDeliveredTo("alice"))
}

func TestGroupService_FetchGroupHistory(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	service := f.groupService()
	ctx := context.Background()
	group := createGroup(t, service, "alice", "bob")

	f.dispatcher.EXPECT().Deliver(gomock.Any(), "bob", gomock.Any(), gomock.Any()).Return(0)
	f.dispatcher.EXPECT().Notify(gomock.Any())
	f.dispatcher.EXPECT().Deliver(gomock.Any(), "alice", gomock.AssignableToTypeOf(event.NewGroupMessage{}), gomock.Any()).Return(0)
	message, err := service.SendGroup(ctx, domain.SendGroupCommand{SenderID: "alice", GroupID: group.ID, Content: "bench at 5"})
	req.NoError(err)

	// Given alice is told once that bob fetched the message
	f.dispatcher.EXPECT().Deliver(gomock.Any(), "alice", gomock.AssignableToTypeOf(event.GroupDelivered{}), domain.ConnectionID("")).Return(1)

	// When bob fetches the history twice
	messages, _, err := service.FetchGroupHistory(ctx, "bob", group.ID, nil)
	req.NoError(err)
	_, _, err = service.FetchGroupHistory(ctx, "bob", group.ID, nil)
	req.NoError(err)

	// Then the message is delivered to bob
	req.Len(messages, 1)
	req.Equal(message.ID, messages[0].ID)
	req.True(messages[0].IsDeliveredTo("bob"))

	_, _, err = service.FetchGroupHistory(ctx, "mallory", group.ID, nil)
	req.ErrorIs(err, errors.ErrForbidden)
}
