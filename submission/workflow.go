// Package submission turns a submitted rule document into stored rules,
// checking for every item that the submitter may configure the community.
package submission

import (
	"context"
	"errors"
	"fmt"

	"lemmy-automod/metrics"
	"lemmy-automod/models"
	"lemmy-automod/schema"
	"lemmy-automod/utils"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Store is the part of the rule store the workflow writes to.
type Store interface {
	GetCommunity(ctx context.Context, name string, platformID int64) (int64, bool, error)
	AddCommunity(ctx context.Context, name string, platformID int64) (int64, error)
	AddPostRule(ctx context.Context, rule models.PostSubmission, communityID int64) error
	AddCommentRule(ctx context.Context, rule models.CommentSubmission, communityID int64) error
	AddMentionRule(ctx context.Context, rule models.MentionSubmission, communityID int64) error
	AddExceptionRule(ctx context.Context, userActorID string, communityID int64) error
}

// Workflow validates, authorizes and stores rule submissions.
type Workflow struct {
	platform models.Platform
	store    Store
	self     models.Person

	// communities serializes get-or-create of a community row per name.
	communities singleflight.Group
}

// NewWorkflow returns a Workflow acting as the bot account self. Moderator
// checks always go to platform directly.
func NewWorkflow(platform models.Platform, store Store, self models.Person) *Workflow {
	return &Workflow{platform: platform, store: store, self: self}
}

// Submit processes every item of document independently and reports the
// outcome of each.
func (w *Workflow) Submit(ctx context.Context, submitter models.Person, document []byte) Report {
	report := Report{ID: uuid.New()}

	items, err := schema.Parse(document)
	if err != nil {
		detail := err.Error()
		if !errors.Is(err, schema.ErrNotJSON) {
			utils.Error("Submission", "LoadSchemas", detail)
		}
		report.Results = []Result{{Index: 0, Err: &schema.Error{Index: 0, Detail: detail}}}
		w.finish(submitter, report)
		return report
	}

	report.Results = make([]Result, 0, len(items))
	for _, item := range items {
		res := Result{Index: item.Index}
		if item.Err != nil {
			res.Err = item.Err
		} else {
			res.Kind = item.Rule.Kind
			res.Community = item.Rule.Community()
			res.Err = w.apply(ctx, submitter, *item.Rule)
		}
		w.logItem(report.ID, res)
		report.Results = append(report.Results, res)
	}
	w.finish(submitter, report)
	return report
}

func (w *Workflow) apply(ctx context.Context, submitter models.Person, rule models.Submission) error {
	name := rule.Community()

	platformID, ok, err := w.platform.ResolveCommunityID(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return &AuthorizationError{Reason: ReasonUnknownCommunity, Community: name}
	}

	isMod, err := w.platform.IsCommunityModerator(ctx, submitter.ID, platformID)
	if err != nil {
		return err
	}
	if !isMod {
		return &AuthorizationError{Reason: ReasonNotModerator, Community: name}
	}

	botIsMod, err := w.platform.IsCommunityModerator(ctx, w.self.ID, platformID)
	if err != nil {
		return err
	}
	if !botIsMod {
		return &AuthorizationError{Reason: ReasonBotNotInstalled, Community: name}
	}

	var actorID string
	if rule.Kind == models.RuleKindException {
		user, err := w.platform.ResolvePerson(ctx, rule.Exception.UserName)
		if err != nil {
			return err
		}
		actorID = user.ActorID
	}

	communityID, err := w.community(ctx, name, platformID)
	if err != nil {
		return err
	}

	switch rule.Kind {
	case models.RuleKindPost:
		return w.store.AddPostRule(ctx, *rule.Post, communityID)
	case models.RuleKindComment:
		return w.store.AddCommentRule(ctx, *rule.Comment, communityID)
	case models.RuleKindMention:
		return w.store.AddMentionRule(ctx, *rule.Mention, communityID)
	case models.RuleKindException:
		return w.store.AddExceptionRule(ctx, actorID, communityID)
	}
	return fmt.Errorf("unknown rule kind %q", rule.Kind)
}

// community returns the store id of the community, creating the row on first
// use. Concurrent calls for the same name share one lookup.
func (w *Workflow) community(ctx context.Context, name string, platformID int64) (int64, error) {
	v, err, _ := w.communities.Do(name, func() (any, error) {
		id, ok, err := w.store.GetCommunity(ctx, name, platformID)
		if err != nil {
			return int64(0), err
		}
		if ok {
			return id, nil
		}
		utils.Info("Submission", "AddCommunity", fmt.Sprintf("registering community %s (%d)", name, platformID))
		return w.store.AddCommunity(ctx, name, platformID)
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

func (w *Workflow) logItem(id uuid.UUID, res Result) {
	kind := string(res.Kind)
	if kind == "" {
		kind = "unknown"
	}
	if res.OK() {
		metrics.SubmissionItems.WithLabelValues(kind, "stored").Inc()
		return
	}
	metrics.SubmissionItems.WithLabelValues(kind, res.Reason()).Inc()

	switch res.Reason() {
	case ReasonStorage, ReasonPlatform:
		utils.Error("Submission", "StoreRule", fmt.Sprintf("submission %s item %d: %v", id, res.Index+1, res.Err))
	}
}

func (w *Workflow) finish(submitter models.Person, report Report) {
	outcome := report.Outcome()
	metrics.Submissions.WithLabelValues(outcome.String()).Inc()
	utils.Info("Submission", "Submit", fmt.Sprintf("submission %s from %s: %s (%d/%d stored)",
		report.ID, submitter.Name, outcome, report.Succeeded(), len(report.Results)))
}
