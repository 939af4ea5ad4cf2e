package models

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Platform when a looked up user does not exist.
var ErrNotFound = errors.New("not found")

// ModeratorChecker answers whether a person moderates a community.
type ModeratorChecker interface {
	IsCommunityModerator(ctx context.Context, personID, communityID int64) (bool, error)
}

// Platform is everything the automod core needs from the discussion platform.
// Implementations talk to the network; the core only calls these.
type Platform interface {
	ModeratorChecker

	// ResolveCommunityID returns the platform id of a community, or false if
	// no such community exists.
	ResolveCommunityID(ctx context.Context, name string) (int64, bool, error)
	// ResolvePerson looks a user up by name. Unknown users give ErrNotFound.
	ResolvePerson(ctx context.Context, name string) (Person, error)

	SendPrivateMessage(ctx context.Context, recipientID int64, text string) error
	CreateComment(ctx context.Context, postID int64, text string, parentID *int64) error
	RemoveComment(ctx context.Context, commentID int64, reason *string) error
	RemovePost(ctx context.Context, postID int64, reason *string) error
	LockPost(ctx context.Context, postID int64, locked bool) error
	FeaturePost(ctx context.Context, postID int64, featured bool) error
}
