package lemmy

import "lemmy-automod/models"

// Wire types for the subset of the Lemmy v3 API the bot uses.

type person struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	ActorID string `json:"actor_id"`
}

func (p person) model() models.Person {
	return models.Person{ID: p.ID, Name: p.Name, ActorID: p.ActorID}
}

type community struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	ActorID string `json:"actor_id"`
}

func (c community) ref() models.CommunityRef {
	return models.CommunityRef{ID: c.ID, Name: c.Name}
}

type post struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Body        *string `json:"body"`
	URL         *string `json:"url"`
	CreatorID   int64   `json:"creator_id"`
	CommunityID int64   `json:"community_id"`
}

type comment struct {
	ID        int64  `json:"id"`
	Content   string `json:"content"`
	PostID    int64  `json:"post_id"`
	CreatorID int64  `json:"creator_id"`
}

type loginForm struct {
	UsernameOrEmail string `json:"username_or_email"`
	Password        string `json:"password"`
}

type loginResponse struct {
	JWT *string `json:"jwt"`
}

type getCommunityQuery struct {
	ID   int64  `url:"id,omitempty"`
	Name string `url:"name,omitempty"`
}

type communityModeratorView struct {
	Community community `json:"community"`
	Moderator person    `json:"moderator"`
}

type getCommunityResponse struct {
	CommunityView struct {
		Community community `json:"community"`
	} `json:"community_view"`
	Moderators []communityModeratorView `json:"moderators"`
}

type getPersonQuery struct {
	Username string `url:"username"`
	Limit    int    `url:"limit,omitempty"`
}

type getPersonResponse struct {
	PersonView struct {
		Person person `json:"person"`
	} `json:"person_view"`
}

type listQuery struct {
	Sort       string `url:"sort,omitempty"`
	Type       string `url:"type_,omitempty"`
	Limit      int    `url:"limit,omitempty"`
	UnreadOnly bool   `url:"unread_only,omitempty"`
}

type postView struct {
	Post      post      `json:"post"`
	Creator   person    `json:"creator"`
	Community community `json:"community"`
}

type getPostsResponse struct {
	Posts []postView `json:"posts"`
}

type commentView struct {
	Comment   comment   `json:"comment"`
	Creator   person    `json:"creator"`
	Post      post      `json:"post"`
	Community community `json:"community"`
}

type getCommentsResponse struct {
	Comments []commentView `json:"comments"`
}

type personMentionView struct {
	PersonMention struct {
		ID        int64 `json:"id"`
		CommentID int64 `json:"comment_id"`
		Read      bool  `json:"read"`
	} `json:"person_mention"`
	Comment   comment   `json:"comment"`
	Creator   person    `json:"creator"`
	Post      post      `json:"post"`
	Community community `json:"community"`
}

type getMentionsResponse struct {
	Mentions []personMentionView `json:"mentions"`
}

type privateMessageView struct {
	PrivateMessage struct {
		ID        int64  `json:"id"`
		Content   string `json:"content"`
		CreatorID int64  `json:"creator_id"`
		Read      bool   `json:"read"`
	} `json:"private_message"`
	Creator   person `json:"creator"`
	Recipient person `json:"recipient"`
}

type getPrivateMessagesResponse struct {
	PrivateMessages []privateMessageView `json:"private_messages"`
}

type createPrivateMessageForm struct {
	Content     string `json:"content"`
	RecipientID int64  `json:"recipient_id"`
}

type createCommentForm struct {
	Content  string `json:"content"`
	PostID   int64  `json:"post_id"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

type removeCommentForm struct {
	CommentID int64   `json:"comment_id"`
	Removed   bool    `json:"removed"`
	Reason    *string `json:"reason,omitempty"`
}

type removePostForm struct {
	PostID  int64   `json:"post_id"`
	Removed bool    `json:"removed"`
	Reason  *string `json:"reason,omitempty"`
}

type lockPostForm struct {
	PostID int64 `json:"post_id"`
	Locked bool  `json:"locked"`
}

type featurePostForm struct {
	PostID      int64  `json:"post_id"`
	Featured    bool   `json:"featured"`
	FeatureType string `json:"feature_type"`
}

type markMentionForm struct {
	PersonMentionID int64 `json:"person_mention_id"`
	Read            bool  `json:"read"`
}

type markPrivateMessageForm struct {
	PrivateMessageID int64 `json:"private_message_id"`
	Read             bool  `json:"read"`
}

type errorResponse struct {
	Error string `json:"error"`
}
