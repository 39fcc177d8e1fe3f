package domain

import (
	"time"

	"github.com/google/uuid"
)

// ConnectionID identifies one physical connection. A user may hold several.
type ConnectionID string

func NewConnectionID() ConnectionID {
	return ConnectionID(uuid.NewString())
}

type NotificationKind string

const (
	DirectMessageNotification NotificationKind = "direct_message"
	GroupMessageNotification  NotificationKind = "group_message"
)

// Notification is handed to the push collaborator when a recipient has no live connection.
type Notification struct {
	UserID    string           `json:"user_id"`
	Kind      NotificationKind `json:"kind"`
	SenderID  string           `json:"sender_id"`
	GroupID   string           `json:"group_id,omitempty"`
	MessageID string           `json:"message_id"`
	Preview   string           `json:"preview"`
	CreatedAt time.Time        `json:"created_at"`
}

// Sanitized is the outcome of running content through moderation.
type Sanitized struct {
	Content       string
	Language      string
	CensoredWords []string
}
