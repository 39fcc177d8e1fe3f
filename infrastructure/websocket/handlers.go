package websocket

import (
	"altus-chat/domain"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const connectMethod = "connect"

type handler func(s *session, params json.RawMessage) (any, error)

var handlers = map[string]handler{
	"ping":                 handlePing,
	"message.send":         handleSendMessage,
	"message.delivered":    handleMessageDelivered,
	"message.read":         handleMessageRead,
	"message.history":      handleMessageHistory,
	"message.unread":       handleUnreadCounts,
	"message.search":       handleSearch,
	"typing.start":         handleTypingStart,
	"typing.stop":          handleTypingStop,
	"group.create":         handleCreateGroup,
	"group.get":            handleGetGroup,
	"group.list":           handleListGroups,
	"group.members.add":    handleAddMembers,
	"group.members.remove": handleRemoveMember,
	"group.send":           handleSendGroup,
	"group.delivered":      handleGroupDelivered,
	"group.read":           handleGroupRead,
	"group.history":        handleGroupHistory,
	"presence.query":       handlePresenceQuery,
	"follow.add":           handleFollow,
	"follow.remove":        handleUnfollow,
}

type (
	sendMessageParams struct {
		To      string `json:"to"`
		Content string `json:"content"`
	}
	messageRefParams struct {
		MessageID uuid.UUID `json:"message_id"`
	}
	historyParams struct {
		PeerID string  `json:"peer_id"`
		Cursor *string `json:"cursor,omitempty"`
	}
	searchParams struct {
		Query string `json:"query"`
	}
	typingParams struct {
		To string `json:"to"`
	}
	createGroupParams struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		MemberIDs   []string `json:"member_ids"`
	}
	groupRefParams struct {
		GroupID uuid.UUID `json:"group_id"`
	}
	addMembersParams struct {
		GroupID uuid.UUID `json:"group_id"`
		UserIDs []string  `json:"user_ids"`
	}
	removeMemberParams struct {
		GroupID uuid.UUID `json:"group_id"`
		UserID  string    `json:"user_id"`
	}
	sendGroupParams struct {
		GroupID uuid.UUID `json:"group_id"`
		Content string    `json:"content"`
	}
	groupHistoryParams struct {
		GroupID uuid.UUID `json:"group_id"`
		Cursor  *string   `json:"cursor,omitempty"`
	}
	presenceParams struct {
		UserIDs []string `json:"user_ids"`
	}
	userRefParams struct {
		UserID string `json:"user_id"`
	}
)

type page[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"next_cursor,omitempty"`
}

func newPage[T any](items []T, next *string) page[T] {
	if items == nil {
		items = []T{}
	}
	return page[T]{Items: items, NextCursor: next}
}

type empty struct{}

func handlePing(_ *session, _ json.RawMessage) (any, error) {
	return map[string]int64{"timestamp": time.Now().UnixMilli()}, nil
}

func handleSendMessage(s *session, raw json.RawMessage) (any, error) {
	params, err := decodeParams[sendMessageParams](raw)
	if err != nil {
		return nil, err
	}
	return s.server.services.Messages.SendDirect(s.ctx, domain.SendDirectCommand{
		SenderID:     s.userID,
		RecipientID:  params.To,
		Content:      params.Content,
		OriginConnID: s.connID,
	})
}

func handleMessageDelivered(s *session, raw json.RawMessage) (any, error) {
	params, err := decodeParams[messageRefParams](raw)
	if err != nil {
		return nil, err
	}
	return empty{}, s.server.services.Messages.MarkDelivered(s.ctx, s.userID, params.MessageID)
}

func handleMessageRead(s *session, raw json.RawMessage) (any, error) {
	params, err := decodeParams[messageRefParams](raw)
	if err != nil {
		return nil, err
	}
	return empty{}, s.server.services.Messages.MarkRead(s.ctx, s.userID, params.MessageID)
}

func handleMessageHistory(s *session, raw json.RawMessage) (any, error) {
	params, err := decodeParams[historyParams](raw)
	if err != nil {
		return nil, err
	}
	messages, next, err := s.server.services.Messages.FetchHistory(s.ctx, s.userID, params.PeerID, params.Cursor)
	if err != nil {
		return nil, err
	}
	return newPage(messages, next), nil
}

func handleUnreadCounts(s *session, _ json.RawMessage) (any, error) {
	return s.server.services.Messages.UnreadCounts(s.ctx, s.userID)
}

func handleSearch(s *session, raw json.RawMessage) (any, error) {
	params, err := decodeParams[searchParams](raw)
	if err != nil {
		return nil, err
	}
	messages, err := s.server.services.Messages.Search(s.ctx, s.userID, params.Query)
	if err != nil {
		return nil, err
	}
	return newPage(messages, nil), nil
}

func handleTypingStart(s *session, raw json.RawMessage) (any, error) {
	params, err := decodeParams[typingParams](raw)
	if err != nil {
		return nil, err
	}
	return empty{}, s.server.services.Typing.NotifyTyping(s.ctx, s.userID, params.To)
}

func handleTypingStop(s *session, raw json.RawMessage) (any, error) {
	params, err := decodeParams[typingParams](raw)
	if err != nil {
		return nil, err
	}
	return empty{}, s.server.services.Typing.NotifyStoppedTyping(s.ctx, s.userID, params.To)
}

func handleCreateGroup(s *session, raw json.RawMessage) (any, error) {
	params, err := decodeParams[createGroupParams](raw)
	if err != nil {
		return nil, err
	}
	return s.server.services.Groups.CreateGroup(s.ctx, domain.CreateGroupCommand{
		CreatorID:   s.userID,
		Name:        params.Name,
		Description: params.Description,
		MemberIDs:   params.MemberIDs,
	})
}

func handleGetGroup(s *session, raw json.RawMessage) (any, error) {
	params, err := decodeParams[groupRefParams](raw)
	if err != nil {
		return nil, err
	}
	return s.server.services.Groups.GetGroup(s.ctx, s.userID, params.GroupID)
}

func handleListGroups(s *session, _ json.RawMessage) (any, error) {
	groups, err := s.server.services.Groups.GroupsFor(s.ctx, s.userID)
	if err != nil {
		return nil, err
	}
	return newPage(groups, nil), nil
}

// Only members may change the membership of a group.
func handleAddMembers(s *session, raw json.RawMessage) (any, error) {
	params, err := decodeParams[addMembersParams](raw)
	if err != nil {
		return nil, err
	}
	if _, err = s.server.services.Groups.GetGroup(s.ctx, s.userID, params.GroupID); err != nil {
		return nil, err
	}
	return s.server.services.Groups.AddMembers(s.ctx, params.GroupID, params.UserIDs...)
}

func handleRemoveMember(s *session, raw json.RawMessage) (any, error) {
	params, err := decodeParams[removeMemberParams](raw)
	if err != nil {
		return nil, err
	}
	if _, err = s.server.services.Groups.GetGroup(s.ctx, s.userID, params.GroupID); err != nil {
		return nil, err
	}
	return s.server.services.Groups.RemoveMember(s.ctx, params.GroupID, params.UserID)
}

func handleSendGroup(s *session, raw json.RawMessage) (any, error) {
	params, err := decodeParams[sendGroupParams](raw)
	if err != nil {
		return nil, err
	}
	return s.server.services.Groups.SendGroup(s.ctx, domain.SendGroupCommand{
		SenderID:     s.userID,
		GroupID:      params.GroupID,
		Content:      params.Content,
		OriginConnID: s.connID,
	})
}

func handleGroupDelivered(s *session, raw json.RawMessage) (any, error) {
	params, err := decodeParams[messageRefParams](raw)
	if err != nil {
		return nil, err
	}
	return empty{}, s.server.services.Groups.MarkGroupDelivered(s.ctx, s.userID, params.MessageID)
}

func handleGroupRead(s *session, raw json.RawMessage) (any, error) {
	params, err := decodeParams[messageRefParams](raw)
	if err != nil {
		return nil, err
	}
	return empty{}, s.server.services.Groups.MarkGroupRead(s.ctx, s.userID, params.MessageID)
}

func handleGroupHistory(s *session, raw json.RawMessage) (any, error) {
	params, err := decodeParams[groupHistoryParams](raw)
	if err != nil {
		return nil, err
	}
	messages, next, err := s.server.services.Groups.FetchGroupHistory(s.ctx, s.userID, params.GroupID, params.Cursor)
	if err != nil {
		return nil, err
	}
	return newPage(messages, next), nil
}

func handlePresenceQuery(s *session, raw json.RawMessage) (any, error) {
	params, err := decodeParams[presenceParams](raw)
	if err != nil {
		return nil, err
	}
	return s.server.services.Presence.OnlineAmong(params.UserIDs...), nil
}

func handleFollow(s *session, raw json.RawMessage) (any, error) {
	params, err := decodeParams[userRefParams](raw)
	if err != nil {
		return nil, err
	}
	return empty{}, s.server.services.Follows.Follow(s.ctx, s.userID, params.UserID)
}

func handleUnfollow(s *session, raw json.RawMessage) (any, error) {
	params, err := decodeParams[userRefParams](raw)
	if err != nil {
		return nil, err
	}
	return empty{}, s.server.services.Follows.Unfollow(s.ctx, s.userID, params.UserID)
}
