package services

import (
	"altus-chat/contract"
	"altus-chat/repositories"
	"context"
	"fmt"

	"github.com/samber/lo"
)

var _ contract.ISocialGraph = (*FollowGraph)(nil)

type IFollowService interface {
	Follow(ctx context.Context, followerID, followeeID string) error
	Unfollow(ctx context.Context, followerID, followeeID string) error
}

// FollowGraph is the social graph built on follow edges.
// Presence is only shared between mutual follows.
type FollowGraph struct {
	repository    repositories.IFollowRepository
	requireMutual bool
}

func NewFollowGraph(repository repositories.IFollowRepository, requireMutual bool) *FollowGraph {
	return &FollowGraph{repository: repository, requireMutual: requireMutual}
}

func (g *FollowGraph) Follow(ctx context.Context, followerID, followeeID string) error {
	if err := validatePair(followerID, followeeID); err != nil {
		return err
	}
	return g.repository.Follow(followerID, followeeID)
}

func (g *FollowGraph) Unfollow(ctx context.Context, followerID, followeeID string) error {
	if err := validatePair(followerID, followeeID); err != nil {
		return err
	}
	return g.repository.Unfollow(followerID, followeeID)
}

// Watchers returns the users following userID that userID follows back.
func (g *FollowGraph) Watchers(userID string) ([]string, error) {
	followers, err := g.repository.Followers(userID)
	if err != nil {
		return nil, fmt.Errorf("followers of %s: %w", userID, err)
	}
	following, err := g.repository.Following(userID)
	if err != nil {
		return nil, fmt.Errorf("following of %s: %w", userID, err)
	}
	return lo.Intersect(followers, following), nil
}

// CanMessage is always true unless mutual follow is required.
func (g *FollowGraph) CanMessage(fromID, toID string) (bool, error) {
	if !g.requireMutual {
		return true, nil
	}
	watchers, err := g.Watchers(fromID)
	if err != nil {
		return false, err
	}
	return lo.Contains(watchers, toID), nil
}
