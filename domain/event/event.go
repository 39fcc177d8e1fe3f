// Package event defines the closed set of events pushed to live connections.
package event

import (
	"altus-chat/domain"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	NewMessageKind      Kind = "message.new"
	NewGroupMessageKind Kind = "group.message.new"
	TypingKind          Kind = "typing.start"
	StoppedTypingKind   Kind = "typing.stop"
	DeliveredKind       Kind = "message.delivered"
	ReadKind            Kind = "message.read"
	GroupDeliveredKind  Kind = "group.delivered"
	GroupReadKind       Kind = "group.read"
	UserOnlineKind      Kind = "presence.online"
	UserOfflineKind     Kind = "presence.offline"
)

type DomainEvent interface {
	Kind() Kind
}

type NewMessage struct {
	Message domain.DirectMessage `json:"message"`
}

func (NewMessage) Kind() Kind { return NewMessageKind }

type NewGroupMessage struct {
	Message domain.GroupMessage `json:"message"`
}

func (NewGroupMessage) Kind() Kind { return NewGroupMessageKind }

// Typing is ephemeral. Receivers drop it after ExpiresAt when no StoppedTyping arrives.
type Typing struct {
	FromID    string    `json:"from_id"`
	ToID      string    `json:"to_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (Typing) Kind() Kind { return TypingKind }

type StoppedTyping struct {
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`
}

func (StoppedTyping) Kind() Kind { return StoppedTypingKind }

type Delivered struct {
	MessageID   uuid.UUID `json:"message_id"`
	RecipientID string    `json:"recipient_id"`
	At          time.Time `json:"at"`
}

func (Delivered) Kind() Kind { return DeliveredKind }

type Read struct {
	MessageID   uuid.UUID `json:"message_id"`
	RecipientID string    `json:"recipient_id"`
	At          time.Time `json:"at"`
}

func (Read) Kind() Kind { return ReadKind }

type GroupDelivered struct {
	MessageID uuid.UUID `json:"message_id"`
	GroupID   uuid.UUID `json:"group_id"`
	UserIDs   []string  `json:"user_ids"`
	At        time.Time `json:"at"`
}

func (GroupDelivered) Kind() Kind { return GroupDeliveredKind }

type GroupRead struct {
	MessageID uuid.UUID `json:"message_id"`
	GroupID   uuid.UUID `json:"group_id"`
	UserID    string    `json:"user_id"`
	At        time.Time `json:"at"`
}

func (GroupRead) Kind() Kind { return GroupReadKind }

type UserOnline struct {
	UserID string    `json:"user_id"`
	At     time.Time `json:"at"`
}

func (UserOnline) Kind() Kind { return UserOnlineKind }

type UserOffline struct {
	UserID string    `json:"user_id"`
	At     time.Time `json:"at"`
}

func (UserOffline) Kind() Kind { return UserOfflineKind }
