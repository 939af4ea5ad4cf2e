package database

import (
	"context"
	"database/sql"

	"lemmy-automod/models"
)

func bool2int(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

/*  CONFIGURATION SETTERS  */

// AddPostRule stores a post rule, one row per field of the submission. All
// rows are written in a single transaction so a multi-field rule is never
// partially applied.
func (s *Store) AddPostRule(ctx context.Context, rule models.PostSubmission, communityID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("add post rule", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
    INSERT INTO automod_post (field, match, type, community_id, whitelist_exempt, mod_exempt, message, reason)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return storageErr("add post rule", err)
	}
	defer stmt.Close()

	for _, field := range rule.Fields {
		_, err := stmt.ExecContext(ctx,
			field,
			rule.Match,
			rule.Kind,
			communityID,
			bool2int(rule.WhitelistExempt),
			bool2int(rule.ModExempt),
			nullString(rule.Message),
			nullString(rule.RemovalReason),
		)
		if err != nil {
			return storageErr("add post rule", err)
		}
	}

	return storageErr("add post rule", tx.Commit())
}

// AddCommentRule stores a comment rule.
func (s *Store) AddCommentRule(ctx context.Context, rule models.CommentSubmission, communityID int64) error {
	_, err := s.db.ExecContext(ctx, `
    INSERT INTO automod_comment (match, type, community_id, whitelist_exempt, mod_exempt, message, reason)
    VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rule.Match,
		rule.Kind,
		communityID,
		bool2int(rule.WhitelistExempt),
		bool2int(rule.ModExempt),
		nullString(rule.Message),
		nullString(rule.RemovalReason),
	)
	return storageErr("add comment rule", err)
}

// AddMentionRule stores a mention command.
func (s *Store) AddMentionRule(ctx context.Context, rule models.MentionSubmission, communityID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO automod_mention (command, action, community_id, message) VALUES (?, ?, ?, ?)`,
		rule.Command, rule.Action, communityID, nullString(rule.Message))
	return storageErr("add mention rule", err)
}

// AddExceptionRule whitelists a user actor id in a community.
func (s *Store) AddExceptionRule(ctx context.Context, userActorID string, communityID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO automod_exception (user_actor_id, community_id) VALUES (?, ?)`,
		userActorID, communityID)
	return storageErr("add exception rule", err)
}

/*  CONFIGURATION GETTERS  */

// IsWhitelisted reports whether the actor has an exception in the community.
func (s *Store) IsWhitelisted(ctx context.Context, actorID string, communityID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM automod_exception WHERE user_actor_id = ? AND community_id = ?)`,
		actorID, communityID).Scan(&exists)
	if err != nil {
		return false, storageErr("is whitelisted", err)
	}
	return exists, nil
}

// GetPostRules returns the post rules of a community that apply to the actor,
// in insertion order.
func (s *Store) GetPostRules(ctx context.Context, actorID string, communityID int64, isModerator bool) ([]models.PostRule, error) {
	whitelisted, err := s.IsWhitelisted(ctx, actorID, communityID)
	if err != nil {
		return nil, err
	}
	all, err := s.postRules(ctx, communityID)
	if err != nil {
		return nil, err
	}
	rules := all[:0]
	for _, r := range all {
		if r.AppliesTo(isModerator, whitelisted) {
			rules = append(rules, r)
		}
	}
	return rules, nil
}

// GetCommentRules returns the comment rules of a community that apply to the
// actor, in insertion order.
func (s *Store) GetCommentRules(ctx context.Context, actorID string, communityID int64, isModerator bool) ([]models.CommentRule, error) {
	whitelisted, err := s.IsWhitelisted(ctx, actorID, communityID)
	if err != nil {
		return nil, err
	}
	all, err := s.commentRules(ctx, communityID)
	if err != nil {
		return nil, err
	}
	rules := all[:0]
	for _, r := range all {
		if r.AppliesTo(isModerator, whitelisted) {
			rules = append(rules, r)
		}
	}
	return rules, nil
}

// GetMentionRules returns the mention commands of a community in insertion order.
func (s *Store) GetMentionRules(ctx context.Context, communityID int64) ([]models.MentionRule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rowid, command, action, community_id, message FROM automod_mention WHERE community_id = ? ORDER BY rowid`,
		communityID)
	if err != nil {
		return nil, storageErr("get mention rules", err)
	}
	defer rows.Close()

	var rules []models.MentionRule
	for rows.Next() {
		var r models.MentionRule
		var message sql.NullString
		if err := rows.Scan(&r.ID, &r.Command, &r.Action, &r.CommunityID, &message); err != nil {
			return nil, storageErr("get mention rules", err)
		}
		r.Message = stringPtr(message)
		rules = append(rules, r)
	}
	return rules, storageErr("get mention rules", rows.Err())
}

// ListRules returns every rule stored for a community, without exemption
// resolution.
func (s *Store) ListRules(ctx context.Context, communityID int64) (models.RuleSet, error) {
	var set models.RuleSet
	var err error
	if set.Posts, err = s.postRules(ctx, communityID); err != nil {
		return set, err
	}
	if set.Comments, err = s.commentRules(ctx, communityID); err != nil {
		return set, err
	}
	if set.Mentions, err = s.GetMentionRules(ctx, communityID); err != nil {
		return set, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT user_actor_id, community_id FROM automod_exception WHERE community_id = ? ORDER BY rowid`,
		communityID)
	if err != nil {
		return set, storageErr("list exceptions", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e models.ExceptionRule
		if err := rows.Scan(&e.UserActorID, &e.CommunityID); err != nil {
			return set, storageErr("list exceptions", err)
		}
		set.Exceptions = append(set.Exceptions, e)
	}
	return set, storageErr("list exceptions", rows.Err())
}

func (s *Store) postRules(ctx context.Context, communityID int64) ([]models.PostRule, error) {
	rows, err := s.db.QueryContext(ctx, `
    SELECT rowid, field, match, type, community_id, whitelist_exempt, mod_exempt, message, reason
    FROM automod_post WHERE community_id = ? ORDER BY rowid`, communityID)
	if err != nil {
		return nil, storageErr("get post rules", err)
	}
	defer rows.Close()

	var rules []models.PostRule
	for rows.Next() {
		var r models.PostRule
		var message, reason sql.NullString
		if err := rows.Scan(&r.ID, &r.Field, &r.Match, &r.Kind, &r.CommunityID,
			&r.WhitelistExempt, &r.ModExempt, &message, &reason); err != nil {
			return nil, storageErr("get post rules", err)
		}
		r.Message = stringPtr(message)
		r.RemovalReason = stringPtr(reason)
		rules = append(rules, r)
	}
	return rules, storageErr("get post rules", rows.Err())
}

func (s *Store) commentRules(ctx context.Context, communityID int64) ([]models.CommentRule, error) {
	rows, err := s.db.QueryContext(ctx, `
    SELECT rowid, match, type, community_id, whitelist_exempt, mod_exempt, message, reason
    FROM automod_comment WHERE community_id = ? ORDER BY rowid`, communityID)
	if err != nil {
		return nil, storageErr("get comment rules", err)
	}
	defer rows.Close()

	var rules []models.CommentRule
	for rows.Next() {
		var r models.CommentRule
		var message, reason sql.NullString
		if err := rows.Scan(&r.ID, &r.Match, &r.Kind, &r.CommunityID,
			&r.WhitelistExempt, &r.ModExempt, &message, &reason); err != nil {
			return nil, storageErr("get comment rules", err)
		}
		r.Message = stringPtr(message)
		r.RemovalReason = stringPtr(reason)
		rules = append(rules, r)
	}
	return rules, storageErr("get comment rules", rows.Err())
}
