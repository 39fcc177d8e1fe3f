// Package domain contains core concepts of the messaging system.
// This file defines direct messages and their delivery rules.
// Delivery and read timestamps only ever move forward.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// DirectMessage is a one-to-one message between two users.
type DirectMessage struct {
	ID          uuid.UUID  `json:"id"`
	SenderID    string     `json:"sender_id"`
	RecipientID string     `json:"recipient_id"`
	Content     string     `json:"content"`
	Language    string     `json:"language,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
}

// MarkDelivered sets DeliveredAt if unset and reports whether anything changed.
func (m *DirectMessage) MarkDelivered(at time.Time) bool {
	if m.DeliveredAt != nil {
		return false
	}
	at = at.UTC()
	m.DeliveredAt = &at
	return true
}

// MarkRead sets ReadAt if unset.
// A read is stronger evidence than a delivery, so DeliveredAt is filled too when missing.
func (m *DirectMessage) MarkRead(at time.Time) bool {
	changed := m.MarkDelivered(at)
	if m.ReadAt != nil {
		return changed
	}
	at = at.UTC()
	m.ReadAt = &at
	return true
}

func (m *DirectMessage) IsDelivered() bool { return m.DeliveredAt != nil }

func (m *DirectMessage) IsRead() bool { return m.ReadAt != nil }

// Peer returns the other participant of the conversation as seen by userID.
func (m *DirectMessage) Peer(userID string) string {
	if m.SenderID == userID {
		return m.RecipientID
	}
	return m.SenderID
}
