//go:generate go run go.uber.org/mock/mockgen -source=group.go -destination=../mocks/mock_group_repository.go -package=mocks
package repositories

import (
	"altus-chat/domain"
	"altus-chat/errors"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IGroupRepository interface {
	CreateGroup(group domain.Group) error
	GetGroup(id uuid.UUID) (domain.Group, error)
	AddMembers(id uuid.UUID, userIDs ...string) (domain.Group, error)
	RemoveMember(id uuid.UUID, userID string) (domain.Group, error)
	GroupsForUser(userID string) ([]domain.Group, error)
	StoreGroupMessage(message domain.GroupMessage) error
	GetGroupMessage(id uuid.UUID) (domain.GroupMessage, error)
	MarkGroupDelivered(id uuid.UUID, userIDs []string, at time.Time) (domain.GroupMessage, []string, error)
	MarkGroupRead(id uuid.UUID, userID string, at time.Time) (domain.GroupMessage, bool, error)
	GetGroupMessages(groupID uuid.UUID, cursor *string) ([]domain.GroupMessage, *string, error)
}

type GroupRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewGroupRepository(db *badger.DB, log *slog.Logger, limitMessages *int) GroupRepository {
	return GroupRepository{db: db, log: log, limitMessages: limitMessages}
}

// CreateGroup stores the group and one "gmember:{user}|{group}" key per member
// so that a user's groups can be listed with a prefix scan.
func (g GroupRepository) CreateGroup(group domain.Group) error {
	return update(g.db, func(txn *badger.Txn) error {
		if err := txn.Set(groupKey(group.ID.String()), encodeGroup(group)); err != nil {
			return err
		}
		for _, member := range group.MemberIDs {
			if err := txn.Set(membershipKey(member, group.ID.String()), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

func (g GroupRepository) GetGroup(id uuid.UUID) (domain.Group, error) {
	var group domain.Group
	err := g.db.View(func(txn *badger.Txn) error {
		var err error
		group, err = getGroup(txn, id.String())
		return err
	})
	return group, err
}

func (g GroupRepository) AddMembers(id uuid.UUID, userIDs ...string) (domain.Group, error) {
	var group domain.Group
	err := update(g.db, func(txn *badger.Txn) error {
		var err error
		if group, err = getGroup(txn, id.String()); err != nil {
			return err
		}
		added := group.AddMembers(userIDs...)
		if len(added) == 0 {
			return nil
		}
		for _, member := range added {
			if err = txn.Set(membershipKey(member, id.String()), nil); err != nil {
				return err
			}
		}
		return txn.Set(groupKey(id.String()), encodeGroup(group))
	})
	return group, err
}

func (g GroupRepository) RemoveMember(id uuid.UUID, userID string) (domain.Group, error) {
	var group domain.Group
	err := update(g.db, func(txn *badger.Txn) error {
		var err error
		if group, err = getGroup(txn, id.String()); err != nil {
			return err
		}
		if !group.RemoveMember(userID) {
			return nil
		}
		if err = txn.Delete(membershipKey(userID, id.String())); err != nil {
			return err
		}
		return txn.Set(groupKey(id.String()), encodeGroup(group))
	})
	return group, err
}

func (g GroupRepository) GroupsForUser(userID string) ([]domain.Group, error) {
	var groups []domain.Group
	err := g.db.View(func(txn *badger.Txn) error {
		for _, groupID := range keysWithPrefix(txn, membershipPrefix(userID)) {
			group, err := getGroup(txn, groupID)
			if err != nil {
				return err
			}
			groups = append(groups, group)
		}
		return nil
	})
	return groups, err
}

func (g GroupRepository) StoreGroupMessage(message domain.GroupMessage) error {
	id := message.ID.String()
	convKey := groupConversationPrefix(message.GroupID.String()) + timeKey(message.CreatedAt, id)
	return update(g.db, func(txn *badger.Txn) error {
		if err := txn.Set(groupMessageKey(id), encodeGroupMessage(message)); err != nil {
			return err
		}
		return txn.Set([]byte(convKey), []byte(id))
	})
}

func (g GroupRepository) GetGroupMessage(id uuid.UUID) (domain.GroupMessage, error) {
	var message domain.GroupMessage
	err := g.db.View(func(txn *badger.Txn) error {
		var err error
		message, err = getGroupMessage(txn, id.String())
		return err
	})
	return message, err
}

// MarkGroupDelivered records delivery for several members at once and returns the members newly added.
func (g GroupRepository) MarkGroupDelivered(id uuid.UUID, userIDs []string, at time.Time) (domain.GroupMessage, []string, error) {
	var added []string
	message, err := g.mutate(id, func(message *domain.GroupMessage) bool {
		added = nil
		for _, u := range userIDs {
			if message.MarkDeliveredTo(u, at) {
				added = append(added, u)
			}
		}
		return len(added) > 0
	})
	return message, added, err
}

func (g GroupRepository) MarkGroupRead(id uuid.UUID, userID string, at time.Time) (domain.GroupMessage, bool, error) {
	var changed bool
	message, err := g.mutate(id, func(message *domain.GroupMessage) bool {
		changed = message.MarkReadBy(userID, at)
		return changed
	})
	return message, changed, err
}

func (g GroupRepository) mutate(id uuid.UUID, apply func(*domain.GroupMessage) bool) (domain.GroupMessage, error) {
	var message domain.GroupMessage
	err := update(g.db, func(txn *badger.Txn) error {
		var err error
		if message, err = getGroupMessage(txn, id.String()); err != nil {
			return err
		}
		if !apply(&message) {
			return nil
		}
		return txn.Set(groupMessageKey(id.String()), encodeGroupMessage(message))
	})
	return message, err
}

// GetGroupMessages returns the group conversation newest first, paginated like GetConversation.
func (g GroupRepository) GetGroupMessages(groupID uuid.UUID, cursor *string) ([]domain.GroupMessage, *string, error) {
	var messages []domain.GroupMessage
	var next *string
	err := g.db.View(func(txn *badger.Txn) error {
		ids, nextCursor, err := scanPage(txn, groupConversationPrefix(groupID.String()), cursor, g.limitMessages)
		if err != nil {
			return err
		}
		next = nextCursor
		for _, id := range ids {
			message, err := getGroupMessage(txn, string(id))
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
	return messages, next, nil
}

func getGroup(txn *badger.Txn, id string) (domain.Group, error) {
	item, err := txn.Get(groupKey(id))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Group{}, errors.ErrGroupNotFound
	}
	if err != nil {
		return domain.Group{}, err
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return domain.Group{}, err
	}
	return decodeGroup(value)
}

func getGroupMessage(txn *badger.Txn, id string) (domain.GroupMessage, error) {
	item, err := txn.Get(groupMessageKey(id))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.GroupMessage{}, errors.ErrMessageNotFound
	}
	if err != nil {
		return domain.GroupMessage{}, err
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return domain.GroupMessage{}, err
	}
	return decodeGroupMessage(value)
}
