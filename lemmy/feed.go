package lemmy

import (
	"context"
	"net/http"

	"lemmy-automod/models"
)

// ListPosts returns the newest posts of the configured listing type.
func (c *Client) ListPosts(ctx context.Context) ([]models.PostEvent, error) {
	var resp getPostsResponse
	params := listQuery{Sort: "New", Type: c.listingType, Limit: c.fetchLimit}
	if err := c.do(ctx, http.MethodGet, "/post/list", params, nil, &resp, true); err != nil {
		return nil, &CapabilityError{Op: "list posts", Err: err}
	}

	events := make([]models.PostEvent, 0, len(resp.Posts))
	for _, pv := range resp.Posts {
		events = append(events, models.PostEvent{
			PostID:    pv.Post.ID,
			Community: pv.Community.ref(),
			Creator:   pv.Creator.model(),
			Title:     pv.Post.Name,
			Body:      pv.Post.Body,
			URL:       pv.Post.URL,
		})
	}
	return events, nil
}

// ListComments returns the newest comments of the configured listing type.
func (c *Client) ListComments(ctx context.Context) ([]models.CommentEvent, error) {
	var resp getCommentsResponse
	params := listQuery{Sort: "New", Type: c.listingType, Limit: c.fetchLimit}
	if err := c.do(ctx, http.MethodGet, "/comment/list", params, nil, &resp, true); err != nil {
		return nil, &CapabilityError{Op: "list comments", Err: err}
	}

	events := make([]models.CommentEvent, 0, len(resp.Comments))
	for _, cv := range resp.Comments {
		events = append(events, models.CommentEvent{
			CommentID: cv.Comment.ID,
			PostID:    cv.Comment.PostID,
			Community: cv.Community.ref(),
			Creator:   cv.Creator.model(),
			Content:   cv.Comment.Content,
		})
	}
	return events, nil
}

// ListMentions returns the bot's unread mentions.
func (c *Client) ListMentions(ctx context.Context) ([]models.MentionEvent, error) {
	var resp getMentionsResponse
	params := listQuery{Sort: "New", Limit: c.fetchLimit, UnreadOnly: true}
	if err := c.do(ctx, http.MethodGet, "/user/mention", params, nil, &resp, true); err != nil {
		return nil, &CapabilityError{Op: "list mentions", Err: err}
	}

	events := make([]models.MentionEvent, 0, len(resp.Mentions))
	for _, mv := range resp.Mentions {
		events = append(events, models.MentionEvent{
			MentionID: mv.PersonMention.ID,
			CommentID: mv.Comment.ID,
			PostID:    mv.Post.ID,
			Community: mv.Community.ref(),
			Creator:   mv.Creator.model(),
			Content:   mv.Comment.Content,
		})
	}
	return events, nil
}

// ListPrivateMessages returns the bot's unread private messages.
func (c *Client) ListPrivateMessages(ctx context.Context) ([]models.PrivateMessageEvent, error) {
	var resp getPrivateMessagesResponse
	params := listQuery{Limit: c.fetchLimit, UnreadOnly: true}
	if err := c.do(ctx, http.MethodGet, "/private_message/list", params, nil, &resp, true); err != nil {
		return nil, &CapabilityError{Op: "list private messages", Err: err}
	}

	events := make([]models.PrivateMessageEvent, 0, len(resp.PrivateMessages))
	for _, pm := range resp.PrivateMessages {
		events = append(events, models.PrivateMessageEvent{
			MessageID: pm.PrivateMessage.ID,
			Creator:   pm.Creator.model(),
			Content:   pm.PrivateMessage.Content,
		})
	}
	return events, nil
}

// MarkMentionRead marks a mention as read.
func (c *Client) MarkMentionRead(ctx context.Context, mentionID int64) error {
	form := markMentionForm{PersonMentionID: mentionID, Read: true}
	if err := c.do(ctx, http.MethodPost, "/user/mention/mark_as_read", nil, form, nil, true); err != nil {
		return &CapabilityError{Op: "mark mention read", Err: err}
	}
	return nil
}

// MarkPrivateMessageRead marks a private message as read.
func (c *Client) MarkPrivateMessageRead(ctx context.Context, messageID int64) error {
	form := markPrivateMessageForm{PrivateMessageID: messageID, Read: true}
	if err := c.do(ctx, http.MethodPost, "/private_message/mark_as_read", nil, form, nil, true); err != nil {
		return &CapabilityError{Op: "mark private message read", Err: err}
	}
	return nil
}
