// Package engine resolves the rules that apply to an event and carries out
// the action of the first one that matches.
package engine

import (
	"context"
	"fmt"
	"time"

	"lemmy-automod/metrics"
	"lemmy-automod/models"
	"lemmy-automod/utils"
)

// Decision describes what the engine did with one event.
type Decision struct {
	Matched bool
	Kind    models.RuleKind
	RuleID  int64
	// Actions lists the platform calls made, in order.
	Actions []string
}

// Engine evaluates platform events against the stored rules.
type Engine struct {
	resolver *Resolver
	matcher  *Matcher
	platform models.Platform
	self     models.Person
}

// New builds an Engine. moderators answers moderator checks during
// evaluation and may be a cache in front of platform.
func New(store RuleStore, moderators models.ModeratorChecker, platform models.Platform, self models.Person, matcher *Matcher) *Engine {
	if matcher == nil {
		matcher = NewMatcher(0)
	}
	return &Engine{
		resolver: &Resolver{Store: store, Moderators: moderators},
		matcher:  matcher,
		platform: platform,
		self:     self,
	}
}

// Self returns the bot identity the engine ignores events from.
func (e *Engine) Self() models.Person {
	return e.self
}

func observe(kind models.RuleKind, start time.Time) {
	metrics.HandlerDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
}

func (e *Engine) act(d *Decision, action string, call func() error) error {
	if err := call(); err != nil {
		metrics.ActionsTaken.WithLabelValues(action, "error").Inc()
		return fmt.Errorf("%s: %w", action, err)
	}
	metrics.ActionsTaken.WithLabelValues(action, "ok").Inc()
	d.Actions = append(d.Actions, action)
	return nil
}

// HandlePost removes a post that matches a rule and leaves the rule's message
// as a top level comment.
func (e *Engine) HandlePost(ctx context.Context, ev models.PostEvent) (Decision, error) {
	d := Decision{Kind: models.RuleKindPost}
	if ev.Creator.Same(e.self) {
		return d, nil
	}
	defer observe(d.Kind, time.Now())
	metrics.EventsEvaluated.WithLabelValues(string(d.Kind)).Inc()

	rules, err := e.resolver.PostRules(ctx, ev.Creator, ev.Community)
	if err != nil {
		return d, err
	}
	rule, ok := e.matcher.MatchPost(rules, ev.Content())
	if !ok {
		return d, nil
	}
	d.Matched, d.RuleID = true, rule.ID
	metrics.RulesMatched.WithLabelValues(string(d.Kind)).Inc()
	utils.Info("Engine", "PostMatched", fmt.Sprintf("post %d in %s matched %s rule %d", ev.PostID, ev.Community.Name, rule.Field, rule.ID))

	if err := e.act(&d, "remove_post", func() error {
		return e.platform.RemovePost(ctx, ev.PostID, rule.RemovalReason)
	}); err != nil {
		return d, err
	}
	if rule.Message != nil {
		if err := e.act(&d, "comment", func() error {
			return e.platform.CreateComment(ctx, ev.PostID, *rule.Message, nil)
		}); err != nil {
			return d, err
		}
	}
	return d, nil
}

// HandleComment removes a comment that matches a rule and answers it with the
// rule's message.
func (e *Engine) HandleComment(ctx context.Context, ev models.CommentEvent) (Decision, error) {
	d := Decision{Kind: models.RuleKindComment}
	if ev.Creator.Same(e.self) {
		return d, nil
	}
	defer observe(d.Kind, time.Now())
	metrics.EventsEvaluated.WithLabelValues(string(d.Kind)).Inc()

	rules, err := e.resolver.CommentRules(ctx, ev.Creator, ev.Community)
	if err != nil {
		return d, err
	}
	rule, ok := e.matcher.MatchComment(rules, ev.Content)
	if !ok {
		return d, nil
	}
	d.Matched, d.RuleID = true, rule.ID
	metrics.RulesMatched.WithLabelValues(string(d.Kind)).Inc()
	utils.Info("Engine", "CommentMatched", fmt.Sprintf("comment %d in %s matched rule %d", ev.CommentID, ev.Community.Name, rule.ID))

	if err := e.act(&d, "remove_comment", func() error {
		return e.platform.RemoveComment(ctx, ev.CommentID, rule.RemovalReason)
	}); err != nil {
		return d, err
	}
	if rule.Message != nil {
		parent := ev.CommentID
		if err := e.act(&d, "comment", func() error {
			return e.platform.CreateComment(ctx, ev.PostID, *rule.Message, &parent)
		}); err != nil {
			return d, err
		}
	}
	return d, nil
}

// HandleMention runs a moderator's mention command against the mentioned post.
func (e *Engine) HandleMention(ctx context.Context, ev models.MentionEvent) (Decision, error) {
	d := Decision{Kind: models.RuleKindMention}
	if ev.Creator.Same(e.self) {
		return d, nil
	}
	defer observe(d.Kind, time.Now())
	metrics.EventsEvaluated.WithLabelValues(string(d.Kind)).Inc()

	isMod, err := e.resolver.Moderators.IsCommunityModerator(ctx, ev.Creator.ID, ev.Community.ID)
	if err != nil {
		return d, err
	}
	if !isMod {
		return d, nil
	}

	rules, err := e.resolver.MentionRules(ctx, ev.Community)
	if err != nil {
		return d, err
	}
	rule, ok := e.matcher.MatchMention(rules, ev.Content)
	if !ok {
		return d, nil
	}
	d.Matched, d.RuleID = true, rule.ID
	metrics.RulesMatched.WithLabelValues(string(d.Kind)).Inc()
	utils.Info("Engine", "MentionCommand", fmt.Sprintf("%s ran %q (%s) on post %d", ev.Creator.Name, rule.Command, rule.Action, ev.PostID))

	if rule.Message != nil {
		parent := ev.CommentID
		if err := e.act(&d, "comment", func() error {
			return e.platform.CreateComment(ctx, ev.PostID, *rule.Message, &parent)
		}); err != nil {
			return d, err
		}
	}

	switch rule.Action {
	case models.ActionLock:
		err = e.act(&d, "lock_post", func() error { return e.platform.LockPost(ctx, ev.PostID, true) })
	case models.ActionPin:
		err = e.act(&d, "feature_post", func() error { return e.platform.FeaturePost(ctx, ev.PostID, true) })
	default:
		err = fmt.Errorf("mention rule %d: unknown action %q", rule.ID, rule.Action)
	}
	return d, err
}
