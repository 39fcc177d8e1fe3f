package services

import (
	"altus-chat/mocks"
	"altus-chat/moderation"
	"altus-chat/repositories"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const maxContentLength = 200

type fixture struct {
	log        *slog.Logger
	dispatcher *mocks.MockIDispatcher
	graph      *mocks.MockISocialGraph
	moderator  moderation.Moderator
	messages   repositories.MessageRepository
	groups     repositories.GroupRepository
	follows    repositories.FollowRepository
}

func newFixture(t *testing.T) fixture {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	moderator, err := moderation.NewModerator([]string{"idiot"}, '*', log)
	require.NoError(t, err)

	return fixture{
		log:        log,
		dispatcher: mocks.NewMockIDispatcher(ctrl),
		graph:      mocks.NewMockISocialGraph(ctrl),
		moderator:  moderator,
		messages:   repositories.NewMessageRepository(db, log, lo.ToPtr(50)),
		groups:     repositories.NewGroupRepository(db, log, lo.ToPtr(50)),
		follows:    repositories.NewFollowRepository(db),
	}
}

func (f fixture) messageService(index *mocks.MockIMessageIndex) *MessageService {
	if index == nil {
		return NewMessageService(f.log, f.messages, f.dispatcher, f.graph, f.moderator, nil, nil, maxContentLength)
	}
	return NewMessageService(f.log, f.messages, f.dispatcher, f.graph, f.moderator, index, nil, maxContentLength)
}

func (f fixture) groupService() *GroupService {
	return NewGroupService(f.log, f.groups, f.dispatcher, f.moderator, nil, maxContentLength)
}
