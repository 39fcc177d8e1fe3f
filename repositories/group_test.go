package repositories

import (
	"altus-chat/domain"
	"altus-chat/errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newGroup(members ...string) domain.Group {
	return domain.Group{
		ID:          uuid.New(),
		Name:        "Morning crew",
		Description: "6am spinning class",
		CreatorID:   members[0],
		MemberIDs:   members,
		CreatedAt:   time.Now().UTC(),
	}
}

func Test_Create_Group_And_List_By_Member(t *testing.T) {
	req := require.New(t)
	repository := NewGroupRepository(openDB(t), slog.Default(), nil)
	crew := newGroup("alice", "bob", "clara")
	other := newGroup("bob", "dave")

	req.NoError(repository.CreateGroup(crew))
	req.NoError(repository.CreateGroup(other))

	fetched, err := repository.GetGroup(crew.ID)
	req.NoError(err)
	req.Equal(crew.Name, fetched.Name)
	req.Equal(crew.Description, fetched.Description)
	req.Equal(crew.MemberIDs, fetched.MemberIDs)

	groups, err := repository.GroupsForUser("bob")
	req.NoError(err)
	req.Len(groups, 2)

	groups, err = repository.GroupsForUser("alice")
	req.NoError(err)
	req.Len(groups, 1)
	req.Equal(crew.ID, groups[0].ID)
}

func Test_Group_Membership_Changes(t *testing.T) {
	req := require.New(t)
	repository := NewGroupRepository(openDB(t), slog.Default(), nil)
	crew := newGroup("alice", "bob")
	req.NoError(repository.CreateGroup(crew))

	group, err := repository.AddMembers(crew.ID, "clara", "bob")
	req.NoError(err)
	req.Equal([]string{"alice", "bob", "clara"}, group.MemberIDs)

	group, err = repository.RemoveMember(crew.ID, "alice")
	req.NoError(err)
	req.Equal([]string{"bob", "clara"}, group.MemberIDs)

	groups, err := repository.GroupsForUser("alice")
	req.NoError(err)
	req.Empty(groups)

	_, err = repository.AddMembers(uuid.New(), "zoe")
	req.ErrorIs(err, errors.ErrNotFound)
}

func Test_Group_Message_Receipts(t *testing.T) {
	req := require.New(t)
	repository := NewGroupRepository(openDB(t), slog.Default(), nil)
	crew := newGroup("alice", "bob", "clara")
	req.NoError(repository.CreateGroup(crew))
	at := time.Now().UTC()
	message := domain.GroupMessage{
		ID:        uuid.New(),
		GroupID:   crew.ID,
		SenderID:  "alice",
		Content:   "leg day",
		CreatedAt: at,
	}
	req.NoError(repository.StoreGroupMessage(message))

	// Given bob was reached at send time
	stored, added, err := repository.MarkGroupDelivered(message.ID, []string{"bob"}, at)
	req.NoError(err)
	req.Equal([]string{"bob"}, added)
	req.Len(stored.DeliveredTo, 1)

	// When bob is reported again along with clara
	_, added, err = repository.MarkGroupDelivered(message.ID, []string{"bob", "clara"}, at.Add(time.Minute))
	req.NoError(err)
	req.Equal([]string{"clara"}, added)

	// And bob reads it twice
	_, changed, err := repository.MarkGroupRead(message.ID, "bob", at.Add(2*time.Minute))
	req.NoError(err)
	req.True(changed)
	_, changed, err = repository.MarkGroupRead(message.ID, "bob", at.Add(3*time.Minute))
	req.NoError(err)
	req.False(changed)

	// Then every member appears once per list
	fetched, err := repository.GetGroupMessage(message.ID)
	req.NoError(err)
	req.Len(fetched.DeliveredTo, 2)
	req.Len(fetched.ReadBy, 1)
	req.Equal("bob", fetched.ReadBy[0].UserID)
	req.True(at.Equal(fetched.DeliveredTo[0].At))
}

func Test_Get_Group_Messages_Newest_First(t *testing.T) {
	req := require.New(t)
	repository := NewGroupRepository(openDB(t), slog.Default(), nil)
	crew := newGroup("alice", "bob")
	req.NoError(repository.CreateGroup(crew))
	at := time.Now().UTC()
	for i, content := range []string{"one", "two", "three"} {
		req.NoError(repository.StoreGroupMessage(domain.GroupMessage{
			ID:        uuid.New(),
			GroupID:   crew.ID,
			SenderID:  "alice",
			Content:   content,
			CreatedAt: at.Add(time.Duration(i) * time.Second),
		}))
	}

	messages, cursor, err := repository.GetGroupMessages(crew.ID, nil)

	req.NoError(err)
	req.Nil(cursor)
	req.Len(messages, 3)
	req.Equal("three", messages[0].Content)
	req.Equal("one", messages[2].Content)
}
