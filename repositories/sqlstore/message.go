package sqlstore

import (
	"altus-chat/domain"
	"altus-chat/errors"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db            *gorm.DB
	limitMessages *int
}

func NewMessageRepository(db *gorm.DB, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, limitMessages: limitMessages}
}

func (m MessageRepository) StoreMessage(message domain.DirectMessage) error {
	row := fromDirectMessage(message)
	return m.db.Create(&row).Error
}

func (m MessageRepository) GetMessage(id uuid.UUID) (domain.DirectMessage, error) {
	row, err := findDirectMessage(m.db, id)
	if err != nil {
		return domain.DirectMessage{}, err
	}
	return toDirectMessage(row)
}

// MarkDelivered and MarkRead only fill NULL columns, so concurrent acks never move a timestamp.
func (m MessageRepository) MarkDelivered(id uuid.UUID, at time.Time) (domain.DirectMessage, bool, error) {
	return m.fill(id, at, "delivered_at")
}

// MarkRead fills delivered_at too when it is still missing.
func (m MessageRepository) MarkRead(id uuid.UUID, at time.Time) (domain.DirectMessage, bool, error) {
	return m.fill(id, at, "delivered_at", "read_at")
}

func (m MessageRepository) fill(id uuid.UUID, at time.Time, columns ...string) (domain.DirectMessage, bool, error) {
	var message domain.DirectMessage
	var changed bool
	err := m.db.Transaction(func(tx *gorm.DB) error {
		for _, column := range columns {
			result := tx.Model(&directMessageRow{}).
				Where("id = ? AND "+column+" IS NULL", id.String()).
				Update(column, toNanos(at))
			if result.Error != nil {
				return result.Error
			}
			changed = changed || result.RowsAffected > 0
		}
		row, err := findDirectMessage(tx, id)
		if err != nil {
			return err
		}
		message, err = toDirectMessage(row)
		return err
	})
	return message, changed, err
}

// GetConversation returns both directions of a conversation newest first.
// The cursor is "{created_at_nanos}:{id}" of the last returned row.
func (m MessageRepository) GetConversation(userA, userB string, cursor *string) ([]domain.DirectMessage, *string, error) {
	query := m.db.Model(&directMessageRow{}).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)", userA, userB, userB, userA)
	query, err := applyCursor(query, cursor)
	if err != nil {
		return nil, nil, err
	}
	query = query.Order("created_at DESC").Order("id DESC")
	if m.limitMessages != nil {
		query = query.Limit(*m.limitMessages + 1)
	}

	var rows []directMessageRow
	if err = query.Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	var next *string
	if m.limitMessages != nil && len(rows) > *m.limitMessages {
		rows = rows[:*m.limitMessages]
		last := rows[len(rows)-1]
		next = lo.ToPtr(fmt.Sprintf("%d:%s", last.CreatedAt, last.ID))
	}

	messages := make([]domain.DirectMessage, 0, len(rows))
	for _, row := range rows {
		message, err := toDirectMessage(row)
		if err != nil {
			return nil, nil, err
		}
		messages = append(messages, message)
	}
	return messages, next, nil
}

func (m MessageRepository) CountUnread(recipientID string) (map[string]int, error) {
	var rows []struct {
		SenderID string
		Total    int
	}
	err := m.db.Model(&directMessageRow{}).
		Select("sender_id, COUNT(*) AS total").
		Where("recipient_id = ? AND read_at IS NULL", recipientID).
		Group("sender_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.SenderID] = row.Total
	}
	return counts, nil
}

func applyCursor(query *gorm.DB, cursor *string) (*gorm.DB, error) {
	if cursor == nil {
		return query, nil
	}
	rawNanos, id, ok := strings.Cut(*cursor, ":")
	if !ok {
		return nil, fmt.Errorf("%w: malformed cursor", errors.ErrInvalidInput)
	}
	nanos, err := strconv.ParseInt(rawNanos, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed cursor", errors.ErrInvalidInput)
	}
	return query.Where("(created_at < ? OR (created_at = ? AND id < ?))", nanos, nanos, id), nil
}

func findDirectMessage(db *gorm.DB, id uuid.UUID) (directMessageRow, error) {
	var row directMessageRow
	err := db.Where("id = ?", id.String()).First(&row).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return row, errors.ErrMessageNotFound
	}
	return row, err
}

func fromDirectMessage(m domain.DirectMessage) directMessageRow {
	return directMessageRow{
		ID:          m.ID.String(),
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Content:     m.Content,
		Language:    m.Language,
		CreatedAt:   toNanos(m.CreatedAt),
		DeliveredAt: toNanosPtr(m.DeliveredAt),
		ReadAt:      toNanosPtr(m.ReadAt),
	}
}

func toDirectMessage(row directMessageRow) (domain.DirectMessage, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return domain.DirectMessage{}, err
	}
	return domain.DirectMessage{
		ID:          id,
		SenderID:    row.SenderID,
		RecipientID: row.RecipientID,
		Content:     row.Content,
		Language:    row.Language,
		CreatedAt:   fromNanos(row.CreatedAt),
		DeliveredAt: fromNanosPtr(row.DeliveredAt),
		ReadAt:      fromNanosPtr(row.ReadAt),
	}, nil
}
