package repositories

import (
	"github.com/dgraph-io/badger/v4"
)

type IFollowRepository interface {
	Follow(followerID, followeeID string) error
	Unfollow(followerID, followeeID string) error
	Following(userID string) ([]string, error)
	Followers(userID string) ([]string, error)
}

type FollowRepository struct {
	db *badger.DB
}

func NewFollowRepository(db *badger.DB) FollowRepository {
	return FollowRepository{db: db}
}

// Follow writes both directions of the edge so either side can be listed with a prefix scan.
func (f FollowRepository) Follow(followerID, followeeID string) error {
	return update(f.db, func(txn *badger.Txn) error {
		if err := txn.Set([]byte(followingPrefix(followerID)+followeeID), nil); err != nil {
			return err
		}
		return txn.Set([]byte(followerPrefix(followeeID)+followerID), nil)
	})
}

func (f FollowRepository) Unfollow(followerID, followeeID string) error {
	return update(f.db, func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(followingPrefix(followerID) + followeeID)); err != nil {
			return err
		}
		return txn.Delete([]byte(followerPrefix(followeeID) + followerID))
	})
}

func (f FollowRepository) Following(userID string) ([]string, error) {
	var users []string
	err := f.db.View(func(txn *badger.Txn) error {
		users = keysWithPrefix(txn, followingPrefix(userID))
		return nil
	})
	return users, err
}

func (f FollowRepository) Followers(userID string) ([]string, error) {
	var users []string
	err := f.db.View(func(txn *badger.Txn) error {
		users = keysWithPrefix(txn, followerPrefix(userID))
		return nil
	})
	return users, err
}
