// Package sqlstore is the relational alternative to the Badger repositories.
// It implements the same repository interfaces on top of GORM and SQLite.
package sqlstore

import (
	"altus-chat/repositories"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	_ repositories.IMessageRepository = MessageRepository{}
	_ repositories.IGroupRepository   = GroupRepository{}
	_ repositories.IFollowRepository  = FollowRepository{}
)

var (
	ErrCreateDatabase  = errors.New("cannot create a database")
	ErrMigrationFailed = errors.New("failed to migrate")
)

type directMessageRow struct {
	ID          string `gorm:"primaryKey;size:36"`
	SenderID    string `gorm:"not null;index:idx_dm_pair,priority:1"`
	RecipientID string `gorm:"not null;index:idx_dm_pair,priority:2;index:idx_dm_unread,priority:1"`
	Content     string `gorm:"not null"`
	Language    string
	CreatedAt   int64 `gorm:"autoCreateTime:false;not null;index"`
	DeliveredAt *int64
	ReadAt      *int64 `gorm:"index:idx_dm_unread,priority:2"`
}

func (directMessageRow) TableName() string { return "direct_messages" }

type groupRow struct {
	ID          string `gorm:"primaryKey;size:36"`
	Name        string `gorm:"not null"`
	Description string
	CreatorID   string
	CreatedAt   int64 `gorm:"autoCreateTime:false"`
}

func (groupRow) TableName() string { return "groups" }

type groupMemberRow struct {
	GroupID  string `gorm:"primaryKey;size:36"`
	UserID   string `gorm:"primaryKey;index"`
	Position int
}

func (groupMemberRow) TableName() string { return "group_members" }

type groupMessageRow struct {
	ID        string `gorm:"primaryKey;size:36"`
	GroupID   string `gorm:"not null;index"`
	SenderID  string `gorm:"not null"`
	Content   string `gorm:"not null"`
	Language  string
	CreatedAt int64 `gorm:"autoCreateTime:false;not null;index"`
}

func (groupMessageRow) TableName() string { return "group_messages" }

type receiptKind string

const (
	deliveredReceipt receiptKind = "delivered"
	readReceipt      receiptKind = "read"
)

// groupReceiptRow holds one (member, timestamp) pair. The composite key keeps a member unique per list.
type groupReceiptRow struct {
	MessageID string      `gorm:"primaryKey;size:36"`
	UserID    string      `gorm:"primaryKey"`
	Kind      receiptKind `gorm:"primaryKey;size:16"`
	At        int64
}

func (groupReceiptRow) TableName() string { return "group_receipts" }

type followRow struct {
	FollowerID string `gorm:"primaryKey"`
	FolloweeID string `gorm:"primaryKey;index"`
}

func (followRow) TableName() string { return "follows" }

// Open connects to SQLite and migrates every table.
func Open(dsn string, log *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		log.Error("Cannot open GORM database", "error", err)
		return nil, ErrCreateDatabase
	}
	if err = Migrate(db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB, log *slog.Logger) error {
	log.Info("Going to start database migrations")
	models := []any{
		&directMessageRow{}, &groupRow{}, &groupMemberRow{},
		&groupMessageRow{}, &groupReceiptRow{}, &followRow{},
	}
	for _, model := range models {
		if err := db.AutoMigrate(model); err != nil {
			log.Error(fmt.Sprintf("%T migration failed", model), "error", err)
			return ErrMigrationFailed
		}
	}
	return nil
}

func toNanos(t time.Time) int64 { return t.UnixNano() }

func fromNanos(n int64) time.Time { return time.Unix(0, n).UTC() }

func toNanosPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	n := t.UnixNano()
	return &n
}

func fromNanosPtr(n *int64) *time.Time {
	if n == nil {
		return nil
	}
	t := fromNanos(*n)
	return &t
}
