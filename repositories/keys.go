package repositories

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// sep separates opaque user ids inside a key. User ids never contain control characters.
const sep = "\x1f"

const maxConflictRetries = 5

// timeKey formats "{timestamp_padded}:{id}".
// The 19-digit zero padding keeps lexicographical order equal to chronological order,
// and the id breaks ties between two writes in the same nanosecond.
func timeKey(at time.Time, id string) string {
	return fmt.Sprintf("%019d:%s", at.UnixNano(), id)
}

func conversationPrefix(userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return "conv:" + userA + sep + userB + sep
}

func directMessageKey(id string) []byte { return []byte("dm:" + id) }

func unreadPrefix(recipientID string) string { return "unread:" + recipientID + sep }

func unreadKey(recipientID, senderID, id string) []byte {
	return []byte(unreadPrefix(recipientID) + senderID + sep + id)
}

func groupKey(id string) []byte { return []byte("grp:" + id) }

func membershipPrefix(userID string) string { return "gmember:" + userID + sep }

func membershipKey(userID, groupID string) []byte {
	return []byte(membershipPrefix(userID) + groupID)
}

func groupMessageKey(id string) []byte { return []byte("gmsg:" + id) }

func groupConversationPrefix(groupID string) string { return "gconv:" + groupID + ":" }

func followingPrefix(userID string) string { return "follow:" + userID + sep }

func followerPrefix(userID string) string { return "follower:" + userID + sep }

// lastSegment returns what follows the final separator of a composite key.
func lastSegment(key string) string {
	return key[strings.LastIndex(key, sep)+len(sep):]
}

// update runs fn in a read-write transaction and retries on write conflicts,
// which happen when two acknowledgements race on the same message.
func update(db *badger.DB, fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < maxConflictRetries; i++ {
		err = db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// scanPage walks an index prefix from newest to oldest and returns the stored values.
// cursor is the key suffix returned by the previous page; a nil next cursor means the end was reached.
func scanPage(txn *badger.Txn, prefixStr string, cursor *string, limit *int) ([][]byte, *string, error) {
	prefix := []byte(prefixStr)
	options := badger.DefaultIteratorOptions
	options.Reverse = true
	it := txn.NewIterator(options)
	defer it.Close()

	var seekKey []byte
	switch cursor {
	case nil:
		// 0xff sorts after every digit, so the seek lands on the newest entry
		seekKey = append([]byte(prefixStr), 0xff)
	default:
		seekKey = []byte(prefixStr + *cursor)
	}
	it.Seek(seekKey)

	if cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()) == prefixStr+*cursor {
		it.Next()
	}

	var values [][]byte
	var lastKey string
	for ; it.ValidForPrefix(prefix); it.Next() {
		if limit != nil && len(values) == *limit {
			return values, &lastKey, nil
		}
		item := it.Item()
		lastKey = string(item.Key()[len(prefix):])
		value, err := item.ValueCopy(nil)
		if err != nil {
			return nil, nil, err
		}
		values = append(values, value)
	}
	return values, nil, nil
}

// keysWithPrefix lists every key under prefix with the prefix removed.
func keysWithPrefix(txn *badger.Txn, prefixStr string) []string {
	prefix := []byte(prefixStr)
	options := badger.DefaultIteratorOptions
	options.PrefetchValues = false
	it := txn.NewIterator(options)
	defer it.Close()

	var keys []string
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, string(it.Item().Key()[len(prefix):]))
	}
	return keys
}
