package sqlstore

import (
	"altus-chat/domain"
	"altus-chat/errors"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GroupRepository struct {
	db            *gorm.DB
	limitMessages *int
}

func NewGroupRepository(db *gorm.DB, limitMessages *int) GroupRepository {
	return GroupRepository{db: db, limitMessages: limitMessages}
}

func (g GroupRepository) CreateGroup(group domain.Group) error {
	return g.db.Transaction(func(tx *gorm.DB) error {
		row := groupRow{
			ID:          group.ID.String(),
			Name:        group.Name,
			Description: group.Description,
			CreatorID:   group.CreatorID,
			CreatedAt:   toNanos(group.CreatedAt),
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return insertMembers(tx, row.ID, 0, group.MemberIDs)
	})
}

func (g GroupRepository) GetGroup(id uuid.UUID) (domain.Group, error) {
	return loadGroup(g.db, id.String())
}

func (g GroupRepository) AddMembers(id uuid.UUID, userIDs ...string) (domain.Group, error) {
	var group domain.Group
	err := g.db.Transaction(func(tx *gorm.DB) error {
		var err error
		if group, err = loadGroup(tx, id.String()); err != nil {
			return err
		}
		position := len(group.MemberIDs)
		added := group.AddMembers(userIDs...)
		return insertMembers(tx, id.String(), position, added)
	})
	return group, err
}

func (g GroupRepository) RemoveMember(id uuid.UUID, userID string) (domain.Group, error) {
	var group domain.Group
	err := g.db.Transaction(func(tx *gorm.DB) error {
		var err error
		if group, err = loadGroup(tx, id.String()); err != nil {
			return err
		}
		if !group.RemoveMember(userID) {
			return nil
		}
		return tx.Where("group_id = ? AND user_id = ?", id.String(), userID).Delete(&groupMemberRow{}).Error
	})
	return group, err
}

func (g GroupRepository) GroupsForUser(userID string) ([]domain.Group, error) {
	var groupIDs []string
	err := g.db.Model(&groupMemberRow{}).Where("user_id = ?", userID).Pluck("group_id", &groupIDs).Error
	if err != nil {
		return nil, err
	}
	groups := make([]domain.Group, 0, len(groupIDs))
	for _, groupID := range groupIDs {
		group, err := loadGroup(g.db, groupID)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func (g GroupRepository) StoreGroupMessage(message domain.GroupMessage) error {
	return g.db.Transaction(func(tx *gorm.DB) error {
		row := groupMessageRow{
			ID:        message.ID.String(),
			GroupID:   message.GroupID.String(),
			SenderID:  message.SenderID,
			Content:   message.Content,
			Language:  message.Language,
			CreatedAt: toNanos(message.CreatedAt),
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		for _, r := range message.DeliveredTo {
			if err := insertReceipt(tx, row.ID, r, deliveredReceipt); err != nil {
				return err
			}
		}
		for _, r := range message.ReadBy {
			if err := insertReceipt(tx, row.ID, r, readReceipt); err != nil {
				return err
			}
		}
		return nil
	})
}

func (g GroupRepository) GetGroupMessage(id uuid.UUID) (domain.GroupMessage, error) {
	return loadGroupMessage(g.db, id.String())
}

func (g GroupRepository) MarkGroupDelivered(id uuid.UUID, userIDs []string, at time.Time) (domain.GroupMessage, []string, error) {
	var message domain.GroupMessage
	var added []string
	err := g.db.Transaction(func(tx *gorm.DB) error {
		var err error
		if message, err = loadGroupMessage(tx, id.String()); err != nil {
			return err
		}
		for _, u := range userIDs {
			if !message.MarkDeliveredTo(u, at) {
				continue
			}
			added = append(added, u)
			if err = insertReceipt(tx, id.String(), domain.Receipt{UserID: u, At: at}, deliveredReceipt); err != nil {
				return err
			}
		}
		return nil
	})
	return message, added, err
}

func (g GroupRepository) MarkGroupRead(id uuid.UUID, userID string, at time.Time) (domain.GroupMessage, bool, error) {
	var message domain.GroupMessage
	var changed bool
	err := g.db.Transaction(func(tx *gorm.DB) error {
		var err error
		if message, err = loadGroupMessage(tx, id.String()); err != nil {
			return err
		}
		wasDelivered := message.IsDeliveredTo(userID)
		if changed = message.MarkReadBy(userID, at); !changed {
			return nil
		}
		receipt := domain.Receipt{UserID: userID, At: at}
		if !wasDelivered {
			if err = insertReceipt(tx, id.String(), receipt, deliveredReceipt); err != nil {
				return err
			}
		}
		return insertReceipt(tx, id.String(), receipt, readReceipt)
	})
	return message, changed, err
}

func (g GroupRepository) GetGroupMessages(groupID uuid.UUID, cursor *string) ([]domain.GroupMessage, *string, error) {
	query, err := applyCursor(g.db.Model(&groupMessageRow{}).Where("group_id = ?", groupID.String()), cursor)
	if err != nil {
		return nil, nil, err
	}
	query = query.Order("created_at DESC").Order("id DESC")
	if g.limitMessages != nil {
		query = query.Limit(*g.limitMessages + 1)
	}
	var rows []groupMessageRow
	if err = query.Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	var next *string
	if g.limitMessages != nil && len(rows) > *g.limitMessages {
		rows = rows[:*g.limitMessages]
		last := rows[len(rows)-1]
		next = lo.ToPtr(fmt.Sprintf("%d:%s", last.CreatedAt, last.ID))
	}

	messages := make([]domain.GroupMessage, 0, len(rows))
	for _, row := range rows {
		message, err := toGroupMessage(g.db, row)
		if err != nil {
			return nil, nil, err
		}
		messages = append(messages, message)
	}
	return messages, next, nil
}

func insertMembers(tx *gorm.DB, groupID string, position int, userIDs []string) error {
	for i, u := range userIDs {
		row := groupMemberRow{GroupID: groupID, UserID: u, Position: position + i}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func insertReceipt(tx *gorm.DB, messageID string, r domain.Receipt, kind receiptKind) error {
	row := groupReceiptRow{MessageID: messageID, UserID: r.UserID, Kind: kind, At: toNanos(r.At)}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

func loadGroup(db *gorm.DB, id string) (domain.Group, error) {
	var row groupRow
	err := db.Where("id = ?", id).First(&row).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Group{}, errors.ErrGroupNotFound
	}
	if err != nil {
		return domain.Group{}, err
	}
	var members []string
	err = db.Model(&groupMemberRow{}).Where("group_id = ?", id).Order("position ASC").Pluck("user_id", &members).Error
	if err != nil {
		return domain.Group{}, err
	}
	parsedID, err := uuid.Parse(row.ID)
	if err != nil {
		return domain.Group{}, err
	}
	return domain.Group{
		ID:          parsedID,
		Name:        row.Name,
		Description: row.Description,
		CreatorID:   row.CreatorID,
		MemberIDs:   members,
		CreatedAt:   fromNanos(row.CreatedAt),
	}, nil
}

func loadGroupMessage(db *gorm.DB, id string) (domain.GroupMessage, error) {
	var row groupMessageRow
	err := db.Where("id = ?", id).First(&row).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return domain.GroupMessage{}, errors.ErrMessageNotFound
	}
	if err != nil {
		return domain.GroupMessage{}, err
	}
	return toGroupMessage(db, row)
}

func toGroupMessage(db *gorm.DB, row groupMessageRow) (domain.GroupMessage, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return domain.GroupMessage{}, err
	}
	groupID, err := uuid.Parse(row.GroupID)
	if err != nil {
		return domain.GroupMessage{}, err
	}
	var receipts []groupReceiptRow
	if err = db.Where("message_id = ?", row.ID).Order("at ASC").Find(&receipts).Error; err != nil {
		return domain.GroupMessage{}, err
	}
	message := domain.GroupMessage{
		ID:        id,
		GroupID:   groupID,
		SenderID:  row.SenderID,
		Content:   row.Content,
		Language:  row.Language,
		CreatedAt: fromNanos(row.CreatedAt),
	}
	for _, r := range receipts {
		receipt := domain.Receipt{UserID: r.UserID, At: fromNanos(r.At)}
		switch r.Kind {
		case deliveredReceipt:
			message.DeliveredTo = append(message.DeliveredTo, receipt)
		case readReceipt:
			message.ReadBy = append(message.ReadBy, receipt)
		}
	}
	return message, nil
}
