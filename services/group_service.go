package services

import (
	"altus-chat/contract"
	"altus-chat/domain"
	"altus-chat/domain/event"
	"altus-chat/errors"
	"altus-chat/observability"
	"altus-chat/repositories"
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

type IGroupService interface {
	CreateGroup(ctx context.Context, cmd domain.CreateGroupCommand) (domain.Group, error)
	AddMembers(ctx context.Context, groupID uuid.UUID, userIDs ...string) (domain.Group, error)
	RemoveMember(ctx context.Context, groupID uuid.UUID, userID string) (domain.Group, error)
	GetGroup(ctx context.Context, userID string, groupID uuid.UUID) (domain.Group, error)
	GroupsFor(ctx context.Context, userID string) ([]domain.Group, error)
	SendGroup(ctx context.Context, cmd domain.SendGroupCommand) (domain.GroupMessage, error)
	MarkGroupDelivered(ctx context.Context, userID string, messageID uuid.UUID) error
	MarkGroupRead(ctx context.Context, userID string, messageID uuid.UUID) error
	FetchGroupHistory(ctx context.Context, userID string, groupID uuid.UUID, cursor *string) ([]domain.GroupMessage, *string, error)
}

// GroupService relays messages to every member of a group and tracks per-member receipts.
// Who may create groups or change their membership is decided upstream.
type GroupService struct {
	log              *slog.Logger
	repository       repositories.IGroupRepository
	dispatcher       contract.IDispatcher
	moderator        contract.IModerator
	metrics          *observability.Metrics
	maxContentLength int
}

func NewGroupService(log *slog.Logger, repository repositories.IGroupRepository,
	dispatcher contract.IDispatcher, moderator contract.IModerator,
	metrics *observability.Metrics, maxContentLength int) *GroupService {
	return &GroupService{
		log:              log,
		repository:       repository,
		dispatcher:       dispatcher,
		moderator:        moderator,
		metrics:          metrics,
		maxContentLength: maxContentLength,
	}
}

// CreateGroup stores a new group. The creator is always a member.
func (s *GroupService) CreateGroup(ctx context.Context, cmd domain.CreateGroupCommand) (domain.Group, error) {
	cmd.Name = strings.TrimSpace(cmd.Name)
	if err := validateCommand(cmd); err != nil {
		return domain.Group{}, err
	}
	group := domain.Group{
		ID:          uuid.New(),
		Name:        cmd.Name,
		Description: strings.TrimSpace(cmd.Description),
		CreatorID:   cmd.CreatorID,
		CreatedAt:   time.Now().UTC(),
	}
	group.AddMembers(cmd.CreatorID)
	group.AddMembers(cmd.MemberIDs...)

	if err := s.repository.CreateGroup(group); err != nil {
		return domain.Group{}, err
	}
	s.log.Debug("Group created", "id", group.ID, "members", len(group.MemberIDs))
	return group, nil
}

func (s *GroupService) AddMembers(ctx context.Context, groupID uuid.UUID, userIDs ...string) (domain.Group, error) {
	if err := validateUserIDs(userIDs...); err != nil {
		return domain.Group{}, err
	}
	return s.repository.AddMembers(groupID, userIDs...)
}

func (s *GroupService) RemoveMember(ctx context.Context, groupID uuid.UUID, userID string) (domain.Group, error) {
	if err := validateUserIDs(userID); err != nil {
		return domain.Group{}, err
	}
	return s.repository.RemoveMember(groupID, userID)
}

// GetGroup returns the group if userID belongs to it.
func (s *GroupService) GetGroup(ctx context.Context, userID string, groupID uuid.UUID) (domain.Group, error) {
	return s.memberGroup(userID, groupID)
}

func (s *GroupService) GroupsFor(ctx context.Context, userID string) ([]domain.Group, error) {
	if err := validateUserIDs(userID); err != nil {
		return nil, err
	}
	return s.repository.GroupsForUser(userID)
}

// SendGroup persists the message and pushes it to every other member.
// Members reached live are recorded as delivered in a single update,
// the others get a push notification.
func (s *GroupService) SendGroup(ctx context.Context, cmd domain.SendGroupCommand) (domain.GroupMessage, error) {
	if err := validateCommand(cmd); err != nil {
		return domain.GroupMessage{}, err
	}
	content, err := validateContent(cmd.Content, s.maxContentLength)
	if err != nil {
		return domain.GroupMessage{}, err
	}
	group, err := s.memberGroup(cmd.SenderID, cmd.GroupID)
	if err != nil {
		return domain.GroupMessage{}, err
	}

	sanitized := s.moderator.Sanitize(content)
	message := domain.GroupMessage{
		ID:        uuid.New(),
		GroupID:   group.ID,
		SenderID:  cmd.SenderID,
		Content:   sanitized.Content,
		Language:  sanitized.Language,
		CreatedAt: time.Now().UTC(),
	}
	if err = s.repository.StoreGroupMessage(message); err != nil {
		return domain.GroupMessage{}, err
	}
	s.metrics.MessageAccepted("group")

	evt := event.NewGroupMessage{Message: message}
	var reached []string
	for _, memberID := range group.MemberIDs {
		if memberID == message.SenderID {
			continue
		}
		if s.dispatcher.Deliver(ctx, memberID, evt, "") > 0 {
			reached = append(reached, memberID)
			continue
		}
		s.dispatcher.Notify(domain.Notification{
			UserID:    memberID,
			Kind:      domain.GroupMessageNotification,
			SenderID:  message.SenderID,
			GroupID:   group.ID.String(),
			MessageID: message.ID.String(),
			Preview:   preview(message.Content),
			CreatedAt: message.CreatedAt,
		})
	}

	if len(reached) > 0 {
		updated, _, err := s.repository.MarkGroupDelivered(message.ID, reached, time.Now())
		if err != nil {
			s.log.Warn("Cannot persist group delivery", "id", message.ID, "error", err)
		} else {
			message = updated
		}
	}

	s.dispatcher.Deliver(ctx, message.SenderID, event.NewGroupMessage{Message: message}, cmd.OriginConnID)
	return message, nil
}

// MarkGroupDelivered records that a member's device received the message.
// Unknown messages and the sender acknowledging their own message are no-ops.
func (s *GroupService) MarkGroupDelivered(ctx context.Context, userID string, messageID uuid.UUID) error {
	message, ok, err := s.ackableMessage(userID, messageID)
	if err != nil || !ok {
		return err
	}
	updated, added, err := s.repository.MarkGroupDelivered(messageID, []string{userID}, time.Now())
	if err != nil {
		return ignoreNotFound(err)
	}
	if len(added) > 0 {
		s.dispatcher.Deliver(ctx, message.SenderID, s.deliveredEvent(updated, added), "")
	}
	return nil
}

// MarkGroupRead records that a member read the message. It implies delivery.
func (s *GroupService) MarkGroupRead(ctx context.Context, userID string, messageID uuid.UUID) error {
	message, ok, err := s.ackableMessage(userID, messageID)
	if err != nil || !ok {
		return err
	}
	updated, changed, err := s.repository.MarkGroupRead(messageID, userID, time.Now())
	if err != nil {
		return ignoreNotFound(err)
	}
	if changed {
		at := time.Now().UTC()
		for _, r := range updated.ReadBy {
			if r.UserID == userID {
				at = r.At
			}
		}
		s.dispatcher.Deliver(ctx, message.SenderID, event.GroupRead{
			MessageID: updated.ID, GroupID: updated.GroupID, UserID: userID, At: at,
		}, "")
	}
	return nil
}

// FetchGroupHistory returns a page of the group conversation, newest first.
// Messages from other members are marked delivered to userID at fetch time.
func (s *GroupService) FetchGroupHistory(ctx context.Context, userID string, groupID uuid.UUID, cursor *string) ([]domain.GroupMessage, *string, error) {
	if _, err := s.memberGroup(userID, groupID); err != nil {
		return nil, nil, err
	}
	messages, next, err := s.repository.GetGroupMessages(groupID, cursor)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	for i, m := range messages {
		if m.SenderID == userID || m.IsDeliveredTo(userID) {
			continue
		}
		updated, added, err := s.repository.MarkGroupDelivered(m.ID, []string{userID}, now)
		if err != nil {
			s.log.Warn("Cannot mark fetched group message as delivered", "id", m.ID, "error", err)
			continue
		}
		messages[i] = updated
		if len(added) > 0 {
			s.dispatcher.Deliver(ctx, m.SenderID, s.deliveredEvent(updated, added), "")
		}
	}
	return messages, next, nil
}

// memberGroup loads the group and checks userID belongs to it.
func (s *GroupService) memberGroup(userID string, groupID uuid.UUID) (domain.Group, error) {
	if err := validateUserIDs(userID); err != nil {
		return domain.Group{}, err
	}
	group, err := s.repository.GetGroup(groupID)
	if err != nil {
		return domain.Group{}, err
	}
	if !group.IsMember(userID) {
		return domain.Group{}, errors.ErrNotGroupMember
	}
	return group, nil
}

// ackableMessage returns the message when userID may acknowledge it.
// ok is false for no-ops: unknown message or the sender's own message.
func (s *GroupService) ackableMessage(userID string, messageID uuid.UUID) (domain.GroupMessage, bool, error) {
	message, err := s.repository.GetGroupMessage(messageID)
	if stderrors.Is(err, errors.ErrNotFound) {
		s.log.Debug("Acknowledgement of an unknown group message ignored", "id", messageID, "user", userID)
		return domain.GroupMessage{}, false, nil
	}
	if err != nil {
		return domain.GroupMessage{}, false, err
	}
	if _, err = s.memberGroup(userID, message.GroupID); err != nil {
		return domain.GroupMessage{}, false, ignoreNotFound(err)
	}
	if message.SenderID == userID {
		return domain.GroupMessage{}, false, nil
	}
	return message, true, nil
}

func (s *GroupService) deliveredEvent(message domain.GroupMessage, added []string) event.GroupDelivered {
	at := time.Now().UTC()
	for _, r := range message.DeliveredTo {
		if r.UserID == added[0] {
			at = r.At
		}
	}
	return event.GroupDelivered{MessageID: message.ID, GroupID: message.GroupID, UserIDs: added, At: at}
}

func ignoreNotFound(err error) error {
	if stderrors.Is(err, errors.ErrNotFound) {
		return nil
	}
	return err
}
