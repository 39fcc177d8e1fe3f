package repositories

import (
	"altus-chat/domain"
	"altus-chat/domain/search"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func indexed(req *require.Assertions, index *MessageIndex, sender, recipient, content, lang string, at time.Time) string {
	message := domain.DirectMessage{
		ID: uuid.New(), SenderID: sender, RecipientID: recipient,
		Content: content, Language: lang, CreatedAt: at,
	}
	req.NoError(index.Index(message))
	return message.ID.String()
}

func TestMessageIndex_Search(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	index, err := OpenMessageIndex(t.TempDir(), log)
	req.NoError(err)
	defer index.Close()

	now := time.Now().UTC()
	older := indexed(req, index, "alice", "bob", "Leg day tomorrow at the gym", "en", now)
	newer := indexed(req, index, "bob", "alice", "leg day again, my quads hurt", "en", now.Add(time.Second))
	withClara := indexed(req, index, "alice", "clara", "leg day with the coach", "en", now.Add(2*time.Second))
	indexed(req, index, "dave", "erin", "leg day for strangers", "en", now.Add(3*time.Second))
	french := indexed(req, index, "alice", "bob", "séance jambes demain", "fr", now.Add(4*time.Second))

	ctx := context.Background()

	// When alice looks for leg day
	ids, err := index.Search(ctx, "alice", search.NewSearchQuery("leg day"))
	req.NoError(err)

	// Then only her conversations match, newest first
	req.Equal([]string{withClara, newer, older}, ids)

	// When restricted to bob
	ids, err = index.Search(ctx, "alice", search.NewSearchQuery("leg --with bob"))
	req.NoError(err)
	req.Equal([]string{newer, older}, ids)

	// When filtering on the language only
	ids, err = index.Search(ctx, "alice", search.NewSearchQuery("--lang fr"))
	req.NoError(err)
	req.Equal([]string{french}, ids)
}

func TestMessageIndex_Reindex_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	index, err := OpenMessageIndex("", log)
	req.NoError(err)
	defer index.Close()

	message := domain.DirectMessage{
		ID: uuid.New(), SenderID: "alice", RecipientID: "bob",
		Content: "deadlift form check", Language: "en", CreatedAt: time.Now().UTC(),
	}
	req.NoError(index.Index(message))
	req.NoError(index.Index(message))

	ids, err := index.Search(context.Background(), "bob", search.NewSearchQuery("deadlift"))
	req.NoError(err)
	req.Equal([]string{message.ID.String()}, ids)
}
