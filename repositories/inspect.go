package repositories

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Entry is a readable view of one stored record, used by the inspection tools.
type Entry struct {
	Key    string
	Kind   string
	ID     string
	At     string
	Detail string
}

// DescribeEntry decodes the record stored under key.
// Index keys and records that fail to decode only show their size.
func DescribeEntry(key string, value []byte) Entry {
	entry := Entry{
		Key:    key,
		Kind:   "INDEX",
		ID:     "--------",
		At:     "--:--:--",
		Detail: "Size: " + strconv.Itoa(len(value)) + " bytes",
	}

	switch {
	case strings.HasPrefix(key, "dm:"):
		m, err := decodeDirectMessage(value)
		if err != nil {
			entry.Detail = "Error: decode failed"
			return entry
		}
		state := "sent"
		if m.IsRead() {
			state = "read"
		} else if m.IsDelivered() {
			state = "delivered"
		}
		entry.Kind, entry.ID, entry.At = "DIRECT", shortID(m.ID.String()), clock(m.CreatedAt)
		entry.Detail = fmt.Sprintf("%s -> %s [%s] %s", m.SenderID, m.RecipientID, state, m.Content)
	case strings.HasPrefix(key, "grp:"):
		g, err := decodeGroup(value)
		if err != nil {
			entry.Detail = "Error: decode failed"
			return entry
		}
		entry.Kind, entry.ID, entry.At = "GROUP", shortID(g.ID.String()), clock(g.CreatedAt)
		entry.Detail = fmt.Sprintf("%s (%d members)", g.Name, len(g.MemberIDs))
	case strings.HasPrefix(key, "gmsg:"):
		m, err := decodeGroupMessage(value)
		if err != nil {
			entry.Detail = "Error: decode failed"
			return entry
		}
		entry.Kind, entry.ID, entry.At = "GROUP_MESSAGE", shortID(m.ID.String()), clock(m.CreatedAt)
		entry.Detail = fmt.Sprintf("%s in %s [%d delivered, %d read] %s",
			m.SenderID, shortID(m.GroupID.String()), len(m.DeliveredTo), len(m.ReadBy), m.Content)
	}
	return entry
}

// Scan describes every record whose key starts with prefix, in key order.
func Scan(db *badger.DB, prefix string, fn func(Entry)) error {
	return db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			item := it.Item()
			key := string(item.Key())
			if err := item.Value(func(val []byte) error {
				fn(DescribeEntry(key, val))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func clock(t time.Time) string {
	return t.Local().Format("15:04:05")
}
