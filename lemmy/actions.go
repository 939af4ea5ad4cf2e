package lemmy

import (
	"context"
	"fmt"
	"net/http"

	"lemmy-automod/models"
)

var _ models.Platform = (*Client)(nil)

// ResolveCommunityID returns the platform id of the named community.
func (c *Client) ResolveCommunityID(ctx context.Context, name string) (int64, bool, error) {
	var resp getCommunityResponse
	err := c.do(ctx, http.MethodGet, "/community", getCommunityQuery{Name: name}, nil, &resp, true)
	if isNotFound(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, &CapabilityError{Op: "resolve community", Err: err}
	}
	return resp.CommunityView.Community.ID, true, nil
}

// IsCommunityModerator fetches the community's moderator list and looks for
// the person in it.
func (c *Client) IsCommunityModerator(ctx context.Context, personID, communityID int64) (bool, error) {
	var resp getCommunityResponse
	err := c.do(ctx, http.MethodGet, "/community", getCommunityQuery{ID: communityID}, nil, &resp, true)
	if err != nil {
		return false, &CapabilityError{Op: "moderator check", Err: err}
	}
	for _, m := range resp.Moderators {
		if m.Moderator.ID == personID {
			return true, nil
		}
	}
	return false, nil
}

// ResolvePerson looks a user up by name ("name" or "name@instance").
func (c *Client) ResolvePerson(ctx context.Context, name string) (models.Person, error) {
	var resp getPersonResponse
	err := c.do(ctx, http.MethodGet, "/user", getPersonQuery{Username: name, Limit: 1}, nil, &resp, true)
	if isNotFound(err) {
		return models.Person{}, &CapabilityError{Op: "resolve person", Err: fmt.Errorf("%w: user %q", models.ErrNotFound, name)}
	}
	if err != nil {
		return models.Person{}, &CapabilityError{Op: "resolve person", Err: err}
	}
	return resp.PersonView.Person.model(), nil
}

// SendPrivateMessage sends a private message from the bot account.
func (c *Client) SendPrivateMessage(ctx context.Context, recipientID int64, text string) error {
	form := createPrivateMessageForm{Content: text, RecipientID: recipientID}
	if err := c.do(ctx, http.MethodPost, "/private_message", nil, form, nil, true); err != nil {
		return &CapabilityError{Op: "send private message", Err: err}
	}
	return nil
}

// CreateComment posts a comment on a post, as a reply to parentID when set.
func (c *Client) CreateComment(ctx context.Context, postID int64, text string, parentID *int64) error {
	form := createCommentForm{Content: text, PostID: postID, ParentID: parentID}
	if err := c.do(ctx, http.MethodPost, "/comment", nil, form, nil, true); err != nil {
		return &CapabilityError{Op: "create comment", Err: err}
	}
	return nil
}

// RemoveComment removes a comment as a moderator.
func (c *Client) RemoveComment(ctx context.Context, commentID int64, reason *string) error {
	form := removeCommentForm{CommentID: commentID, Removed: true, Reason: reason}
	if err := c.do(ctx, http.MethodPost, "/comment/remove", nil, form, nil, true); err != nil {
		return &CapabilityError{Op: "remove comment", Err: err}
	}
	return nil
}

// RemovePost removes a post as a moderator.
func (c *Client) RemovePost(ctx context.Context, postID int64, reason *string) error {
	form := removePostForm{PostID: postID, Removed: true, Reason: reason}
	if err := c.do(ctx, http.MethodPost, "/post/remove", nil, form, nil, true); err != nil {
		return &CapabilityError{Op: "remove post", Err: err}
	}
	return nil
}

// LockPost locks or unlocks a post.
func (c *Client) LockPost(ctx context.Context, postID int64, locked bool) error {
	form := lockPostForm{PostID: postID, Locked: locked}
	if err := c.do(ctx, http.MethodPost, "/post/lock", nil, form, nil, true); err != nil {
		return &CapabilityError{Op: "lock post", Err: err}
	}
	return nil
}

// FeaturePost pins or unpins a post in its community.
func (c *Client) FeaturePost(ctx context.Context, postID int64, featured bool) error {
	form := featurePostForm{PostID: postID, Featured: featured, FeatureType: "Community"}
	if err := c.do(ctx, http.MethodPost, "/post/feature", nil, form, nil, true); err != nil {
		return &CapabilityError{Op: "feature post", Err: err}
	}
	return nil
}
