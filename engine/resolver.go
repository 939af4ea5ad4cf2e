package engine

import (
	"context"
	"fmt"

	"lemmy-automod/models"
)

// RuleStore is the part of the rule store the resolver reads from.
type RuleStore interface {
	GetCommunity(ctx context.Context, name string, platformID int64) (int64, bool, error)
	GetPostRules(ctx context.Context, actorID string, communityID int64, isModerator bool) ([]models.PostRule, error)
	GetCommentRules(ctx context.Context, actorID string, communityID int64, isModerator bool) ([]models.CommentRule, error)
	GetMentionRules(ctx context.Context, communityID int64) ([]models.MentionRule, error)
}

// Resolver computes the rules that apply to an actor in a community.
// Rules come back in insertion order.
type Resolver struct {
	Store      RuleStore
	Moderators models.ModeratorChecker
}

// communityID maps a platform community onto the store. Communities nobody
// has submitted rules for are not in the store and have no rules.
func (r *Resolver) communityID(ctx context.Context, community models.CommunityRef) (int64, bool, error) {
	id, ok, err := r.Store.GetCommunity(ctx, community.Name, community.ID)
	if err != nil {
		return 0, false, fmt.Errorf("look up community %s: %w", community.Name, err)
	}
	return id, ok, nil
}

// PostRules returns the post rules that apply to actor in community.
func (r *Resolver) PostRules(ctx context.Context, actor models.Person, community models.CommunityRef) ([]models.PostRule, error) {
	cid, ok, err := r.communityID(ctx, community)
	if err != nil || !ok {
		return nil, err
	}
	isMod, err := r.Moderators.IsCommunityModerator(ctx, actor.ID, community.ID)
	if err != nil {
		return nil, err
	}
	return r.Store.GetPostRules(ctx, actor.ActorID, cid, isMod)
}

// CommentRules returns the comment rules that apply to actor in community.
func (r *Resolver) CommentRules(ctx context.Context, actor models.Person, community models.CommunityRef) ([]models.CommentRule, error) {
	cid, ok, err := r.communityID(ctx, community)
	if err != nil || !ok {
		return nil, err
	}
	isMod, err := r.Moderators.IsCommunityModerator(ctx, actor.ID, community.ID)
	if err != nil {
		return nil, err
	}
	return r.Store.GetCommentRules(ctx, actor.ActorID, cid, isMod)
}

// MentionRules returns every mention rule of the community. Mentions carry no
// exemptions; the caller checks that the author is a moderator.
func (r *Resolver) MentionRules(ctx context.Context, community models.CommunityRef) ([]models.MentionRule, error) {
	cid, ok, err := r.communityID(ctx, community)
	if err != nil || !ok {
		return nil, err
	}
	return r.Store.GetMentionRules(ctx, cid)
}
