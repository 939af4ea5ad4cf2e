package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lemmy-automod/metrics"
	"lemmy-automod/models"
	"lemmy-automod/utils"

	"golang.org/x/sync/errgroup"
)

// Event kinds used for deduplication.
const (
	KindPost           = "post"
	KindComment        = "comment"
	KindMention        = "mention"
	KindPrivateMessage = "private_message"
)

// Feed is the platform's listing of new content.
type Feed interface {
	ListPosts(ctx context.Context) ([]models.PostEvent, error)
	ListComments(ctx context.Context) ([]models.CommentEvent, error)
	ListMentions(ctx context.Context) ([]models.MentionEvent, error)
	ListPrivateMessages(ctx context.Context) ([]models.PrivateMessageEvent, error)
	MarkMentionRead(ctx context.Context, mentionID int64) error
	MarkPrivateMessageRead(ctx context.Context, messageID int64) error
}

// Deduper remembers which events were already dispatched. Processed records
// expire; the per-kind high-water mark does not.
type Deduper interface {
	MarkProcessed(ctx context.Context, kind string, eventID int64) (bool, error)
	HighWater(ctx context.Context, kind string) (int64, error)
	AdvanceHighWater(ctx context.Context, kind string, eventID int64) error
}

// Events are the callbacks the poller dispatches to. A nil callback skips
// that feed entirely.
type Events struct {
	Post           func(ctx context.Context, ev models.PostEvent)
	Comment        func(ctx context.Context, ev models.CommentEvent)
	Mention        func(ctx context.Context, ev models.MentionEvent)
	PrivateMessage func(ctx context.Context, ev models.PrivateMessageEvent)
}

// Poller fetches the feeds and runs each new event in its own goroutine.
type Poller struct {
	feed    Feed
	seen    Deduper
	events  Events
	timeout time.Duration

	wg sync.WaitGroup
}

// NewPoller returns a Poller. Each handler runs with a context bounded by
// timeout.
func NewPoller(feed Feed, seen Deduper, events Events, timeout time.Duration) *Poller {
	return &Poller{feed: feed, seen: seen, events: events, timeout: timeout}
}

// Poll fetches every feed concurrently and dispatches what is new. A feed
// that fails is reported but does not stop the others.
func (p *Poller) Poll(ctx context.Context) error {
	var (
		posts    []models.PostEvent
		comments []models.CommentEvent
		mentions []models.MentionEvent
		messages []models.PrivateMessageEvent
	)

	var g errgroup.Group
	fetch := func(name string, enabled bool, f func() error) {
		if !enabled {
			return
		}
		g.Go(func() error {
			if err := f(); err != nil {
				metrics.PollErrors.WithLabelValues(name).Inc()
				return fmt.Errorf("fetch %s: %w", name, err)
			}
			return nil
		})
	}
	fetch(KindPost, p.events.Post != nil, func() (err error) {
		posts, err = p.feed.ListPosts(ctx)
		return err
	})
	fetch(KindComment, p.events.Comment != nil, func() (err error) {
		comments, err = p.feed.ListComments(ctx)
		return err
	})
	fetch(KindMention, p.events.Mention != nil, func() (err error) {
		mentions, err = p.feed.ListMentions(ctx)
		return err
	})
	fetch(KindPrivateMessage, p.events.PrivateMessage != nil, func() (err error) {
		messages, err = p.feed.ListPrivateMessages(ctx)
		return err
	})
	fetchErr := g.Wait()

	dispatchAll(ctx, p, KindPost, posts, func(ev models.PostEvent) int64 { return ev.PostID },
		func(hctx context.Context, ev models.PostEvent) {
			p.events.Post(hctx, ev)
		})
	dispatchAll(ctx, p, KindComment, comments, func(ev models.CommentEvent) int64 { return ev.CommentID },
		func(hctx context.Context, ev models.CommentEvent) {
			p.events.Comment(hctx, ev)
		})
	dispatchAll(ctx, p, KindMention, mentions, func(ev models.MentionEvent) int64 { return ev.MentionID },
		func(hctx context.Context, ev models.MentionEvent) {
			p.events.Mention(hctx, ev)
			if err := p.feed.MarkMentionRead(hctx, ev.MentionID); err != nil {
				utils.Warn("Poller", "MarkMentionRead", err.Error())
			}
		})
	dispatchAll(ctx, p, KindPrivateMessage, messages, func(ev models.PrivateMessageEvent) int64 { return ev.MessageID },
		func(hctx context.Context, ev models.PrivateMessageEvent) {
			p.events.PrivateMessage(hctx, ev)
			if err := p.feed.MarkPrivateMessageRead(hctx, ev.MessageID); err != nil {
				utils.Warn("Poller", "MarkPrivateMessageRead", err.Error())
			}
		})
	return fetchErr
}

// dispatchAll dispatches items oldest first (listings are newest first),
// skipping everything at or below the kind's high-water mark, then raises the
// mark past the items that were handled.
func dispatchAll[E any](ctx context.Context, p *Poller, kind string, items []E, idOf func(E) int64, handle func(context.Context, E)) {
	if len(items) == 0 {
		return
	}
	hw, err := p.seen.HighWater(ctx, kind)
	if err != nil {
		utils.Error("Poller", "HighWater", fmt.Sprintf("%s: %v", kind, err))
		return
	}

	top, stuck := hw, false
	for i := len(items) - 1; i >= 0; i-- {
		ev := items[i]
		id := idOf(ev)
		if id <= hw {
			continue
		}
		ok := p.dispatch(ctx, kind, id, func(hctx context.Context) { handle(hctx, ev) })
		// an item that could not be recorded is retried on the next poll
		if !ok {
			stuck = true
		}
		if !stuck && id > top {
			top = id
		}
	}
	if top > hw {
		if err := p.seen.AdvanceHighWater(ctx, kind, top); err != nil {
			utils.Error("Poller", "AdvanceHighWater", fmt.Sprintf("%s: %v", kind, err))
		}
	}
}

// dispatch runs handle in its own goroutine unless the event was seen before.
// It returns false when the event could not be recorded.
func (p *Poller) dispatch(ctx context.Context, kind string, id int64, handle func(ctx context.Context)) bool {
	fresh, err := p.seen.MarkProcessed(ctx, kind, id)
	if err != nil {
		utils.Error("Poller", "MarkProcessed", fmt.Sprintf("%s %d: %v", kind, id, err))
		return false
	}
	if !fresh {
		return true
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		hctx := context.WithoutCancel(ctx)
		if p.timeout > 0 {
			var cancel context.CancelFunc
			hctx, cancel = context.WithTimeout(hctx, p.timeout)
			defer cancel()
		}
		handle(hctx)
	}()
	return true
}

// Wait blocks until every dispatched handler has returned.
func (p *Poller) Wait() {
	p.wg.Wait()
}
