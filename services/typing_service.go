package services

import (
	"altus-chat/contract"
	"altus-chat/domain/event"
	"altus-chat/errors"
	"context"
	"fmt"
	"time"
)

type ITypingService interface {
	NotifyTyping(ctx context.Context, fromID, toID string) error
	NotifyStoppedTyping(ctx context.Context, fromID, toID string) error
}

// TypingService relays ephemeral typing indicators. Nothing is persisted
// and a dropped indicator is never retried.
type TypingService struct {
	dispatcher contract.IDispatcher
	ttl        time.Duration
}

func NewTypingService(dispatcher contract.IDispatcher, ttl time.Duration) *TypingService {
	return &TypingService{dispatcher: dispatcher, ttl: ttl}
}

func (s *TypingService) NotifyTyping(ctx context.Context, fromID, toID string) error {
	if err := validatePair(fromID, toID); err != nil {
		return err
	}
	s.dispatcher.Broadcast(event.Typing{
		FromID:    fromID,
		ToID:      toID,
		ExpiresAt: time.Now().UTC().Add(s.ttl),
	}, toID)
	return nil
}

func (s *TypingService) NotifyStoppedTyping(ctx context.Context, fromID, toID string) error {
	if err := validatePair(fromID, toID); err != nil {
		return err
	}
	s.dispatcher.Broadcast(event.StoppedTyping{FromID: fromID, ToID: toID}, toID)
	return nil
}

func validatePair(fromID, toID string) error {
	if err := validateUserIDs(fromID, toID); err != nil {
		return err
	}
	if fromID == toID {
		return fmt.Errorf("%w: cannot type to yourself", errors.ErrInvalidInput)
	}
	return nil
}
