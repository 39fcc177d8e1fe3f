//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"altus-chat/domain"
	"altus-chat/errors"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	StoreMessage(message domain.DirectMessage) error
	GetMessage(id uuid.UUID) (domain.DirectMessage, error)
	MarkDelivered(id uuid.UUID, at time.Time) (domain.DirectMessage, bool, error)
	MarkRead(id uuid.UUID, at time.Time) (domain.DirectMessage, bool, error)
	GetConversation(userA, userB string, cursor *string) ([]domain.DirectMessage, *string, error)
	CountUnread(recipientID string) (map[string]int, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// StoreMessage persists a message in BadgerDB with three keys in one transaction:
//   - "dm:{id}" holds the message itself,
//   - "conv:{a}|{b}|{timestamp_padded}:{id}" indexes it in the conversation, sorted by time,
//   - "unread:{recipient}|{sender}|{id}" tracks it until it is read.
func (m MessageRepository) StoreMessage(message domain.DirectMessage) error {
	id := message.ID.String()
	convKey := conversationPrefix(message.SenderID, message.RecipientID) + timeKey(message.CreatedAt, id)
	return update(m.db, func(txn *badger.Txn) error {
		if err := txn.Set(directMessageKey(id), encodeDirectMessage(message)); err != nil {
			return err
		}
		if err := txn.Set([]byte(convKey), []byte(id)); err != nil {
			return err
		}
		if message.ReadAt == nil {
			return txn.Set(unreadKey(message.RecipientID, message.SenderID, id), nil)
		}
		return nil
	})
}

func (m MessageRepository) GetMessage(id uuid.UUID) (domain.DirectMessage, error) {
	var message domain.DirectMessage
	err := m.db.View(func(txn *badger.Txn) error {
		var err error
		message, err = getDirectMessage(txn, id.String())
		return err
	})
	return message, err
}

// MarkDelivered applies the delivery inside a single transaction so concurrent
// acknowledgements cannot overwrite an earlier timestamp.
func (m MessageRepository) MarkDelivered(id uuid.UUID, at time.Time) (domain.DirectMessage, bool, error) {
	return m.mutate(id, func(message *domain.DirectMessage) bool {
		return message.MarkDelivered(at)
	})
}

func (m MessageRepository) MarkRead(id uuid.UUID, at time.Time) (domain.DirectMessage, bool, error) {
	return m.mutate(id, func(message *domain.DirectMessage) bool {
		return message.MarkRead(at)
	})
}

func (m MessageRepository) mutate(id uuid.UUID, apply func(*domain.DirectMessage) bool) (domain.DirectMessage, bool, error) {
	var message domain.DirectMessage
	var changed bool
	err := update(m.db, func(txn *badger.Txn) error {
		var err error
		if message, err = getDirectMessage(txn, id.String()); err != nil {
			return err
		}
		if changed = apply(&message); !changed {
			return nil
		}
		if err = txn.Set(directMessageKey(id.String()), encodeDirectMessage(message)); err != nil {
			return err
		}
		if message.ReadAt != nil {
			return txn.Delete(unreadKey(message.RecipientID, message.SenderID, id.String()))
		}
		return nil
	})
	return message, changed, err
}

// GetConversation returns messages exchanged between two users, newest first.
// It stops collecting messages once the configured limitMessages is reached
// and hands back a cursor for the next page.
func (m MessageRepository) GetConversation(userA, userB string, cursor *string) ([]domain.DirectMessage, *string, error) {
	var messages []domain.DirectMessage
	var next *string
	err := m.db.View(func(txn *badger.Txn) error {
		ids, nextCursor, err := scanPage(txn, conversationPrefix(userA, userB), cursor, m.limitMessages)
		if err != nil {
			return err
		}
		next = nextCursor
		for _, id := range ids {
			message, err := getDirectMessage(txn, string(id))
			if err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if next != nil {
		m.log.Debug(fmt.Sprintf("Maximum of %d message reached", *m.limitMessages))
	}
	return messages, next, nil
}

// CountUnread returns the number of unread messages per sender.
func (m MessageRepository) CountUnread(recipientID string) (map[string]int, error) {
	counts := make(map[string]int)
	err := m.db.View(func(txn *badger.Txn) error {
		for _, suffix := range keysWithPrefix(txn, unreadPrefix(recipientID)) {
			// suffix is "{sender}|{id}"
			sender := suffix[:len(suffix)-len(lastSegment(suffix))-len(sep)]
			counts[sender]++
		}
		return nil
	})
	return counts, err
}

func getDirectMessage(txn *badger.Txn, id string) (domain.DirectMessage, error) {
	item, err := txn.Get(directMessageKey(id))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.DirectMessage{}, errors.ErrMessageNotFound
	}
	if err != nil {
		return domain.DirectMessage{}, err
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return domain.DirectMessage{}, err
	}
	return decodeDirectMessage(value)
}
