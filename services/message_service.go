package services

import (
	"altus-chat/contract"
	"altus-chat/domain"
	"altus-chat/domain/event"
	"altus-chat/domain/search"
	"altus-chat/errors"
	"altus-chat/observability"
	"altus-chat/repositories"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type IMessageService interface {
	SendDirect(ctx context.Context, cmd domain.SendDirectCommand) (domain.DirectMessage, error)
	MarkDelivered(ctx context.Context, userID string, messageID uuid.UUID) error
	MarkRead(ctx context.Context, userID string, messageID uuid.UUID) error
	FetchHistory(ctx context.Context, userID, peerID string, cursor *string) ([]domain.DirectMessage, *string, error)
	UnreadCounts(ctx context.Context, userID string) (map[string]int, error)
	Search(ctx context.Context, userID, rawQuery string) ([]domain.DirectMessage, error)
}

// MessageService relays direct messages and tracks their delivery and read receipts.
type MessageService struct {
	log              *slog.Logger
	repository       repositories.IMessageRepository
	dispatcher       contract.IDispatcher
	graph            contract.ISocialGraph
	moderator        contract.IModerator
	index            contract.IMessageIndex
	metrics          *observability.Metrics
	maxContentLength int
}

func NewMessageService(log *slog.Logger, repository repositories.IMessageRepository,
	dispatcher contract.IDispatcher, graph contract.ISocialGraph, moderator contract.IModerator,
	index contract.IMessageIndex, metrics *observability.Metrics, maxContentLength int) *MessageService {
	return &MessageService{
		log:              log,
		repository:       repository,
		dispatcher:       dispatcher,
		graph:            graph,
		moderator:        moderator,
		index:            index,
		metrics:          metrics,
		maxContentLength: maxContentLength,
	}
}

// SendDirect persists the message then pushes it to every live connection of the recipient.
// An offline recipient gets a push notification instead. Socket failures never fail the call:
// once persisted, the message is retrievable through FetchHistory.
func (s *MessageService) SendDirect(ctx context.Context, cmd domain.SendDirectCommand) (domain.DirectMessage, error) {
	if err := validateCommand(cmd); err != nil {
		return domain.DirectMessage{}, err
	}
	if cmd.SenderID == cmd.RecipientID {
		return domain.DirectMessage{}, errors.ErrSelfConversation
	}
	content, err := validateContent(cmd.Content, s.maxContentLength)
	if err != nil {
		return domain.DirectMessage{}, err
	}

	allowed, err := s.graph.CanMessage(cmd.SenderID, cmd.RecipientID)
	if err != nil {
		return domain.DirectMessage{}, fmt.Errorf("social graph: %w", err)
	}
	if !allowed {
		return domain.DirectMessage{}, errors.ErrCannotMessage
	}

	sanitized := s.moderator.Sanitize(content)
	message := domain.DirectMessage{
		ID:          uuid.New(),
		SenderID:    cmd.SenderID,
		RecipientID: cmd.RecipientID,
		Content:     sanitized.Content,
		Language:    sanitized.Language,
		CreatedAt:   time.Now().UTC(),
	}
	if err = s.repository.StoreMessage(message); err != nil {
		return domain.DirectMessage{}, err
	}
	s.metrics.MessageAccepted("direct")
	s.indexMessage(message)

	reached := s.dispatcher.Deliver(ctx, message.RecipientID, event.NewMessage{Message: message}, "")
	if reached > 0 {
		message = s.markDeliveredOnSend(message)
	} else {
		s.dispatcher.Notify(domain.Notification{
			UserID:    message.RecipientID,
			Kind:      domain.DirectMessageNotification,
			SenderID:  message.SenderID,
			MessageID: message.ID.String(),
			Preview:   preview(message.Content),
			CreatedAt: message.CreatedAt,
		})
	}

	// Multi-device: the sender's other connections see their own message too
	s.dispatcher.Deliver(ctx, message.SenderID, event.NewMessage{Message: message}, cmd.OriginConnID)
	return message, nil
}

func (s *MessageService) markDeliveredOnSend(message domain.DirectMessage) domain.DirectMessage {
	updated, _, err := s.repository.MarkDelivered(message.ID, time.Now())
	if err != nil {
		s.log.Warn("Cannot persist delivery of a pushed message", "id", message.ID, "error", err)
		return message
	}
	return updated
}

func (s *MessageService) indexMessage(message domain.DirectMessage) {
	if s.index == nil {
		return
	}
	if err := s.index.Index(message); err != nil {
		s.log.Warn("Cannot index message", "id", message.ID, "error", err)
	}
}

// MarkDelivered records that the recipient's device received the message.
// Acknowledging an unknown message is a no-op.
func (s *MessageService) MarkDelivered(ctx context.Context, userID string, messageID uuid.UUID) error {
	return s.acknowledge(ctx, userID, messageID, s.repository.MarkDelivered,
		func(m domain.DirectMessage) event.DomainEvent {
			return event.Delivered{MessageID: m.ID, RecipientID: m.RecipientID, At: *m.DeliveredAt}
		})
}

// MarkRead records that the recipient read the message. It implies delivery.
func (s *MessageService) MarkRead(ctx context.Context, userID string, messageID uuid.UUID) error {
	return s.acknowledge(ctx, userID, messageID, s.repository.MarkRead,
		func(m domain.DirectMessage) event.DomainEvent {
			return event.Read{MessageID: m.ID, RecipientID: m.RecipientID, At: *m.ReadAt}
		})
}

type markFunc func(id uuid.UUID, at time.Time) (domain.DirectMessage, bool, error)

func (s *MessageService) acknowledge(ctx context.Context, userID string, messageID uuid.UUID,
	mark markFunc, toEvent func(domain.DirectMessage) event.DomainEvent) error {
	message, err := s.repository.GetMessage(messageID)
	if stderrors.Is(err, errors.ErrNotFound) {
		s.log.Debug("Acknowledgement of an unknown message ignored", "id", messageID, "user", userID)
		return nil
	}
	if err != nil {
		return err
	}
	if message.RecipientID != userID {
		return errors.ErrNotRecipient
	}

	updated, changed, err := mark(messageID, time.Now())
	if stderrors.Is(err, errors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if changed {
		s.dispatcher.Deliver(ctx, updated.SenderID, toEvent(updated), "")
	}
	return nil
}

// FetchHistory returns a page of the conversation, newest first.
// Messages addressed to userID are marked delivered at fetch time.
func (s *MessageService) FetchHistory(ctx context.Context, userID, peerID string, cursor *string) ([]domain.DirectMessage, *string, error) {
	if err := validateUserIDs(userID, peerID); err != nil {
		return nil, nil, err
	}
	messages, next, err := s.repository.GetConversation(userID, peerID, cursor)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	for i, m := range messages {
		if m.RecipientID != userID || m.IsDelivered() {
			continue
		}
		updated, changed, err := s.repository.MarkDelivered(m.ID, now)
		if err != nil {
			s.log.Warn("Cannot mark fetched message as delivered", "id", m.ID, "error", err)
			continue
		}
		messages[i] = updated
		if changed {
			s.dispatcher.Deliver(ctx, m.SenderID,
				event.Delivered{MessageID: m.ID, RecipientID: userID, At: *updated.DeliveredAt}, "")
		}
	}
	return messages, next, nil
}

// UnreadCounts returns, per sender, how many messages userID has not read yet.
func (s *MessageService) UnreadCounts(ctx context.Context, userID string) (map[string]int, error) {
	if err := validateUserIDs(userID); err != nil {
		return nil, err
	}
	return s.repository.CountUnread(userID)
}

// Search looks up the user's messages, e.g. "leg day --with bob --limit 5".
func (s *MessageService) Search(ctx context.Context, userID, rawQuery string) ([]domain.DirectMessage, error) {
	query := search.NewSearchQuery(rawQuery)
	if query.IsEmpty() {
		return nil, fmt.Errorf("%w: empty search", errors.ErrInvalidInput)
	}
	if s.index == nil {
		return nil, errors.New(errors.CodeUnavailable, "search is disabled")
	}

	ids, err := s.index.Search(ctx, userID, query)
	if err != nil {
		return nil, err
	}
	messages := make([]domain.DirectMessage, 0, len(ids))
	for _, id := range ids {
		messageID, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		message, err := s.repository.GetMessage(messageID)
		if stderrors.Is(err, errors.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}
