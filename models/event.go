package models

// Person is a platform user as seen by the bot.
type Person struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	ActorID string `json:"actor_id"`
}

// Same reports whether two persons are the same account.
func (p Person) Same(other Person) bool {
	if p.ID != 0 && p.ID == other.ID {
		return true
	}
	return p.ActorID != "" && p.ActorID == other.ActorID
}

// CommunityRef identifies a community by its platform id and name.
type CommunityRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PostEvent is a newly created post.
type PostEvent struct {
	PostID    int64
	Community CommunityRef
	Creator   Person
	Title     string
	Body      *string
	URL       *string
}

// Content returns the matchable parts of the post.
func (e PostEvent) Content() PostContent {
	return PostContent{Title: e.Title, Body: e.Body, Link: e.URL}
}

// PostContent is the part of a post the evaluator matches against.
type PostContent struct {
	Title string
	Body  *string
	Link  *string
}

// Field returns the value of a post field, or false when the post has none
// (no body on a link post, no link on a text post).
func (c PostContent) Field(f PostField) (string, bool) {
	switch f {
	case FieldTitle:
		return c.Title, true
	case FieldBody:
		if c.Body == nil || *c.Body == "" {
			return "", false
		}
		return *c.Body, true
	case FieldLink:
		if c.Link == nil || *c.Link == "" {
			return "", false
		}
		return *c.Link, true
	}
	return "", false
}

// CommentEvent is a newly created comment.
type CommentEvent struct {
	CommentID int64
	PostID    int64
	Community CommunityRef
	Creator   Person
	Content   string
}

// MentionEvent is a comment that mentions the bot.
type MentionEvent struct {
	MentionID int64
	CommentID int64
	PostID    int64
	Community CommunityRef
	Creator   Person
	Content   string
}

// PrivateMessageEvent is a private message sent to the bot.
type PrivateMessageEvent struct {
	MessageID int64
	Creator   Person
	Content   string
}
