package websocket

import (
	"altus-chat/contract"
	"altus-chat/domain/event"
	"altus-chat/errors"
	"context"
	"fmt"
	"sync"
)

var _ contract.EventSink = (*Sink)(nil)

// Sink is the registry side of one websocket connection.
// Events are buffered and written to the socket by the session writer.
type Sink struct {
	events    chan event.DomainEvent
	done      chan struct{}
	closeOnce sync.Once
}

func NewSink(bufferSize int) *Sink {
	return &Sink{
		events: make(chan event.DomainEvent, bufferSize),
		done:   make(chan struct{}),
	}
}

// Consume is called by the fanout.
// A full buffer waits until ctx expires, then fails with ErrSinkFull.
func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case <-s.done:
		return errors.ErrSinkClosed
	default:
	}
	select {
	case s.events <- e:
		return nil
	case <-s.done:
		return errors.ErrSinkClosed
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", errors.ErrSinkFull, ctx.Err())
	}
}

func (s *Sink) Events() <-chan event.DomainEvent {
	return s.events
}

// Close makes every later Consume fail. The events channel stays open for in-flight writers.
func (s *Sink) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}
