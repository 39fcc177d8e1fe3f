package sqlstore

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FollowRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository {
	return FollowRepository{db: db}
}

func (f FollowRepository) Follow(followerID, followeeID string) error {
	row := followRow{FollowerID: followerID, FolloweeID: followeeID}
	return f.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

func (f FollowRepository) Unfollow(followerID, followeeID string) error {
	return f.db.Where("follower_id = ? AND followee_id = ?", followerID, followeeID).Delete(&followRow{}).Error
}

func (f FollowRepository) Following(userID string) ([]string, error) {
	var users []string
	err := f.db.Model(&followRow{}).Where("follower_id = ?", userID).Order("followee_id").Pluck("followee_id", &users).Error
	return users, err
}

func (f FollowRepository) Followers(userID string) ([]string, error) {
	var users []string
	err := f.db.Model(&followRow{}).Where("followee_id = ?", userID).Order("follower_id").Pluck("follower_id", &users).Error
	return users, err
}
