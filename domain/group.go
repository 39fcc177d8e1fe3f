package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Group is a fixed membership list sharing one conversation.
// Who may change the membership is decided outside of this package.
type Group struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatorID   string    `json:"creator_id"`
	MemberIDs   []string  `json:"member_ids"`
	CreatedAt   time.Time `json:"created_at"`
}

func (g *Group) IsMember(userID string) bool {
	return slices.Contains(g.MemberIDs, userID)
}

// AddMembers appends unknown users and returns the ones actually added.
func (g *Group) AddMembers(userIDs ...string) []string {
	var added []string
	for _, u := range userIDs {
		if u == "" || g.IsMember(u) {
			continue
		}
		g.MemberIDs = append(g.MemberIDs, u)
		added = append(added, u)
	}
	return added
}

func (g *Group) RemoveMember(userID string) bool {
	i := slices.Index(g.MemberIDs, userID)
	if i < 0 {
		return false
	}
	g.MemberIDs = slices.Delete(g.MemberIDs, i, i+1)
	return true
}

// Receipt records when a member received or read a group message.
type Receipt struct {
	UserID string    `json:"user_id"`
	At     time.Time `json:"at"`
}

// GroupMessage tracks delivery per member instead of a single timestamp.
// A member appears at most once in DeliveredTo and at most once in ReadBy,
// and being in ReadBy implies being in DeliveredTo.
type GroupMessage struct {
	ID          uuid.UUID `json:"id"`
	GroupID     uuid.UUID `json:"group_id"`
	SenderID    string    `json:"sender_id"`
	Content     string    `json:"content"`
	Language    string    `json:"language,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	DeliveredTo []Receipt `json:"delivered_to"`
	ReadBy      []Receipt `json:"read_by"`
}

func (m *GroupMessage) IsDeliveredTo(userID string) bool {
	return hasReceipt(m.DeliveredTo, userID)
}

func (m *GroupMessage) IsReadBy(userID string) bool {
	return hasReceipt(m.ReadBy, userID)
}

func (m *GroupMessage) MarkDeliveredTo(userID string, at time.Time) bool {
	if m.IsDeliveredTo(userID) {
		return false
	}
	m.DeliveredTo = append(m.DeliveredTo, Receipt{UserID: userID, At: at.UTC()})
	return true
}

func (m *GroupMessage) MarkReadBy(userID string, at time.Time) bool {
	changed := m.MarkDeliveredTo(userID, at)
	if m.IsReadBy(userID) {
		return changed
	}
	m.ReadBy = append(m.ReadBy, Receipt{UserID: userID, At: at.UTC()})
	return true
}

func hasReceipt(receipts []Receipt, userID string) bool {
	return slices.ContainsFunc(receipts, func(r Receipt) bool { return r.UserID == userID })
}
