package models

import "strings"

// RuleKind is the discriminant of a submitted or stored rule.
type RuleKind string

const (
	RuleKindPost      RuleKind = "post"
	RuleKindComment   RuleKind = "comment"
	RuleKindMention   RuleKind = "mention"
	RuleKindException RuleKind = "exception"
)

// MatchKind selects how a rule's pattern is tested against content.
type MatchKind string

const (
	MatchExact MatchKind = "exact" // substring containment
	MatchRegex MatchKind = "regex"
)

// PostField names the part of a post a PostRule looks at.
type PostField string

const (
	FieldTitle PostField = "title"
	FieldBody  PostField = "body"
	FieldLink  PostField = "link"
)

// MentionAction is what a MentionRule does to the mentioned post.
type MentionAction string

const (
	ActionPin  MentionAction = "pin"
	ActionLock MentionAction = "lock"
)

// Exemptions carries the per-rule exemption flags shared by post and comment rules.
type Exemptions struct {
	WhitelistExempt bool `json:"whitelist_exempt"`
	ModExempt       bool `json:"mod_exempt"`
}

// AppliesTo reports whether a rule with these flags applies to an actor.
// Whitelisting only skips rules that opt into it; it is not a blanket bypass.
func (e Exemptions) AppliesTo(isModerator, isWhitelisted bool) bool {
	return !(e.ModExempt && isModerator) && !(e.WhitelistExempt && isWhitelisted)
}

// Community is the store's record of a platform community.
type Community struct {
	ID         int64  `db:"id"`
	Name       string `db:"name"`
	PlatformID int64  `db:"community_id"`
}

// PostRule is a single stored post rule. A multi-field submission becomes one
// PostRule per field.
type PostRule struct {
	ID            int64     `json:"id" db:"rowid"`
	Field         PostField `json:"field" db:"field"`
	Match         string    `json:"match" db:"match"`
	Kind          MatchKind `json:"type" db:"type"`
	CommunityID   int64     `json:"community_id" db:"community_id"`
	Message       *string   `json:"message" db:"message"`
	RemovalReason *string   `json:"removal_reason" db:"reason"`
	Exemptions
}

// CommentRule is a single stored comment rule.
type CommentRule struct {
	ID            int64     `json:"id" db:"rowid"`
	Match         string    `json:"match" db:"match"`
	Kind          MatchKind `json:"type" db:"type"`
	CommunityID   int64     `json:"community_id" db:"community_id"`
	Message       *string   `json:"message" db:"message"`
	RemovalReason *string   `json:"removal_reason" db:"reason"`
	Exemptions
}

// MentionRule is a single stored mention command. An empty Command matches
// every mention.
type MentionRule struct {
	ID          int64         `json:"id" db:"rowid"`
	Command     string        `json:"command" db:"command"`
	Action      MentionAction `json:"action" db:"action"`
	CommunityID int64         `json:"community_id" db:"community_id"`
	Message     *string       `json:"message" db:"message"`
}

// ExceptionRule whitelists a user in a community.
type ExceptionRule struct {
	UserActorID string `json:"user_actor_id" db:"user_actor_id"`
	CommunityID int64  `json:"community_id" db:"community_id"`
}

// RuleSet is every rule stored for one community, in insertion order.
type RuleSet struct {
	Posts      []PostRule      `json:"posts"`
	Comments   []CommentRule   `json:"comments"`
	Mentions   []MentionRule   `json:"mentions"`
	Exceptions []ExceptionRule `json:"exceptions"`
}

// Len returns the total number of rules in the set.
func (rs RuleSet) Len() int {
	return len(rs.Posts) + len(rs.Comments) + len(rs.Mentions) + len(rs.Exceptions)
}

// PostSubmission is a validated post rule before it is bound to a stored community.
type PostSubmission struct {
	Community     string
	Fields        []PostField
	Match         string
	Kind          MatchKind
	Message       *string
	RemovalReason *string
	Exemptions
}

// FieldSet renders the fields back into their "+"-joined submission form.
func (p PostSubmission) FieldSet() string {
	parts := make([]string, len(p.Fields))
	for i, f := range p.Fields {
		parts[i] = string(f)
	}
	return strings.Join(parts, "+")
}

// CommentSubmission is a validated comment rule.
type CommentSubmission struct {
	Community     string
	Match         string
	Kind          MatchKind
	Message       *string
	RemovalReason *string
	Exemptions
}

// MentionSubmission is a validated mention command.
type MentionSubmission struct {
	Community string
	Command   string
	Action    MentionAction
	Message   *string
}

// ExceptionSubmission whitelists a user by name ("name" or "name@instance").
type ExceptionSubmission struct {
	Community string
	UserName  string
}

// Submission is a tagged variant: Kind says which one of the payload
// pointers is set.
type Submission struct {
	Kind      RuleKind
	Post      *PostSubmission
	Comment   *CommentSubmission
	Mention   *MentionSubmission
	Exception *ExceptionSubmission
}

// Community returns the community name the submission targets.
func (s Submission) Community() string {
	switch s.Kind {
	case RuleKindPost:
		return s.Post.Community
	case RuleKindComment:
		return s.Comment.Community
	case RuleKindMention:
		return s.Mention.Community
	case RuleKindException:
		return s.Exception.Community
	}
	return ""
}
