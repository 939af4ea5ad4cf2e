package handlers

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"

	"lemmy-automod/bot"
	"lemmy-automod/engine"
	"lemmy-automod/models"
	"lemmy-automod/schema"
	"lemmy-automod/submission"
	"lemmy-automod/utils"

	"github.com/bwmarrin/discordgo"
)

// Evaluator runs platform events through the rules.
type Evaluator interface {
	HandlePost(ctx context.Context, ev models.PostEvent) (engine.Decision, error)
	HandleComment(ctx context.Context, ev models.CommentEvent) (engine.Decision, error)
	HandleMention(ctx context.Context, ev models.MentionEvent) (engine.Decision, error)
}

// Submitter stores rule documents sent by moderators.
type Submitter interface {
	Submit(ctx context.Context, submitter models.Person, document []byte) submission.Report
}

// Handlers turns polled platform events into engine and submission calls.
type Handlers struct {
	engine   Evaluator
	workflow Submitter
	platform models.Platform
	self     models.Person
}

// New returns the event handlers.
func New(e Evaluator, w Submitter, platform models.Platform, self models.Person) *Handlers {
	return &Handlers{engine: e, workflow: w, platform: platform, self: self}
}

// Register all handlers to the bot.
func Register(b *bot.Bot) {
	h := New(b.Engine, b.Workflow, b.Client, b.Self)
	b.Events = bot.Events{
		Post:           h.Post,
		Comment:        h.Comment,
		Mention:        h.Mention,
		PrivateMessage: h.PrivateMessage,
	}

	if b.Session == nil {
		return
	}
	b.Session.AddHandler(InteractionCreate(b))

	// Add a ready handler to log when the bot is connected.
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Printf("Discord admin session ready as: %v", s.State.User.Username)
	})
}

func recoverPanic(kind string, id int64) {
	if r := recover(); r != nil {
		utils.Error("Handlers", "Panic", fmt.Sprintf("%s %d: %v\n%s", kind, id, r, debug.Stack()))
	}
}

// Post evaluates a new post.
func (h *Handlers) Post(ctx context.Context, ev models.PostEvent) {
	defer recoverPanic("post", ev.PostID)
	if _, err := h.engine.HandlePost(ctx, ev); err != nil {
		utils.Error("Handlers", "Post", fmt.Sprintf("post %d in %s: %v", ev.PostID, ev.Community.Name, err))
	}
}

// Comment evaluates a new comment.
func (h *Handlers) Comment(ctx context.Context, ev models.CommentEvent) {
	defer recoverPanic("comment", ev.CommentID)
	if _, err := h.engine.HandleComment(ctx, ev); err != nil {
		utils.Error("Handlers", "Comment", fmt.Sprintf("comment %d in %s: %v", ev.CommentID, ev.Community.Name, err))
	}
}

// Mention runs a moderator command addressed to the bot.
func (h *Handlers) Mention(ctx context.Context, ev models.MentionEvent) {
	defer recoverPanic("mention", ev.MentionID)
	if _, err := h.engine.HandleMention(ctx, ev); err != nil {
		utils.Error("Handlers", "Mention", fmt.Sprintf("mention %d in %s: %v", ev.MentionID, ev.Community.Name, err))
	}
}

// PrivateMessage treats a private message as a rule submission and answers
// with the report.
func (h *Handlers) PrivateMessage(ctx context.Context, ev models.PrivateMessageEvent) {
	defer recoverPanic("private message", ev.MessageID)
	if ev.Creator.Same(h.self) {
		return
	}

	report := h.workflow.Submit(ctx, ev.Creator, schema.ExtractDocument(ev.Content))
	if err := h.platform.SendPrivateMessage(ctx, ev.Creator.ID, report.String()); err != nil {
		utils.Error("Handlers", "PrivateMessage", fmt.Sprintf("reply to %s for submission %s: %v", ev.Creator.Name, report.ID, err))
	}
}
