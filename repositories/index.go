package repositories

import (
	"altus-chat/domain"
	"altus-chat/domain/search"
	"context"
	"log/slog"

	"github.com/blugelabs/bluge"
)

const (
	fieldParticipant = "participant"
	fieldContent     = "content"
	fieldLanguage    = "language"
	fieldCreatedAt   = "created_at"
)

// MessageIndex is the Bluge full-text index over direct messages.
// Each document is keyed by the message id and tagged with both participants,
// so a user only ever finds conversations they took part in.
type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

// OpenMessageIndex opens the index at path, or an in-memory one when path is empty.
func OpenMessageIndex(path string, log *slog.Logger) (*MessageIndex, error) {
	cfg := bluge.InMemoryOnlyConfig()
	if path != "" {
		cfg = bluge.DefaultConfig(path)
	}
	writer, err := bluge.OpenWriter(cfg)
	if err != nil {
		return nil, err
	}
	return &MessageIndex{writer: writer, log: log}, nil
}

func (i *MessageIndex) Index(message domain.DirectMessage) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewKeywordField(fieldParticipant, message.SenderID)).
		AddField(bluge.NewKeywordField(fieldParticipant, message.RecipientID)).
		AddField(bluge.NewTextField(fieldContent, message.Content)).
		AddField(bluge.NewKeywordField(fieldLanguage, message.Language)).
		AddField(bluge.NewDateTimeField(fieldCreatedAt, message.CreatedAt).Sortable())

	// Update keeps reindexing the same message idempotent
	return i.writer.Update(doc.ID(), doc)
}

// Search returns the ids of the user's messages matching the query, newest first.
func (i *MessageIndex) Search(ctx context.Context, userID string, query search.Query) ([]string, error) {
	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(userID).SetField(fieldParticipant))
	if query.Terms != "" {
		q.AddMust(bluge.NewMatchQuery(query.Terms).SetField(fieldContent))
	}
	if query.PeerID != "" {
		q.AddMust(bluge.NewTermQuery(query.PeerID).SetField(fieldParticipant))
	}
	if query.Language != "" {
		q.AddMust(bluge.NewTermQuery(query.Language).SetField(fieldLanguage))
	}

	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			i.log.Warn("Cannot close index reader", "error", err)
		}
	}()

	request := bluge.NewTopNSearch(query.Limit, q).SortBy([]string{"-" + fieldCreatedAt})
	matches, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var ids []string
	match, err := matches.Next()
	for err == nil && match != nil {
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				ids = append(ids, string(value))
			}
			return true
		})
		if err != nil {
			break
		}
		match, err = matches.Next()
	}
	return ids, err
}

func (i *MessageIndex) Close() error {
	return i.writer.Close()
}
