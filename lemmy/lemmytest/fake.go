// Package lemmytest provides an in-memory models.Platform for tests.
package lemmytest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"lemmy-automod/models"
)

// Call is one recorded platform call.
type Call struct {
	Op       string
	TargetID int64
	Text     string
	ParentID *int64
	Reason   *string
	Flag     bool
}

// Fake is a platform whose communities, users and moderators are plain maps.
// Every mutating call is recorded. Fail makes the named operation error.
type Fake struct {
	mu sync.Mutex

	Communities map[string]int64
	Persons     map[string]models.Person
	// Moderators maps a community id to the person ids moderating it.
	Moderators map[int64][]int64
	Fail       map[string]error

	calls    []Call
	modCalls int
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{
		Communities: map[string]int64{},
		Persons:     map[string]models.Person{},
		Moderators:  map[int64][]int64{},
		Fail:        map[string]error{},
	}
}

// AddModerator records personID as a moderator of communityID.
func (f *Fake) AddModerator(communityID, personID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Moderators[communityID] = append(f.Moderators[communityID], personID)
}

// Calls returns the recorded mutating calls.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// ModeratorChecks returns how many moderator checks were made.
func (f *Fake) ModeratorChecks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.modCalls
}

func (f *Fake) record(c Call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.Fail[c.Op]; err != nil {
		return err
	}
	f.calls = append(f.calls, c)
	return nil
}

func (f *Fake) failure(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Fail[op]
}

func (f *Fake) ResolveCommunityID(ctx context.Context, name string) (int64, bool, error) {
	if err := f.failure("resolve_community"); err != nil {
		return 0, false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.Communities[name]
	return id, ok, nil
}

func (f *Fake) IsCommunityModerator(ctx context.Context, personID, communityID int64) (bool, error) {
	if err := f.failure("moderator_check"); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modCalls++
	for _, id := range f.Moderators[communityID] {
		if id == personID {
			return true, nil
		}
	}
	return false, nil
}

func (f *Fake) ResolvePerson(ctx context.Context, name string) (models.Person, error) {
	if err := f.failure("resolve_person"); err != nil {
		return models.Person{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.Persons[strings.TrimPrefix(name, "@")]; ok {
		return p, nil
	}
	return models.Person{}, fmt.Errorf("%w: user %q", models.ErrNotFound, name)
}

func (f *Fake) SendPrivateMessage(ctx context.Context, recipientID int64, text string) error {
	return f.record(Call{Op: "private_message", TargetID: recipientID, Text: text})
}

func (f *Fake) CreateComment(ctx context.Context, postID int64, text string, parentID *int64) error {
	return f.record(Call{Op: "comment", TargetID: postID, Text: text, ParentID: parentID})
}

func (f *Fake) RemoveComment(ctx context.Context, commentID int64, reason *string) error {
	return f.record(Call{Op: "remove_comment", TargetID: commentID, Reason: reason})
}

func (f *Fake) RemovePost(ctx context.Context, postID int64, reason *string) error {
	return f.record(Call{Op: "remove_post", TargetID: postID, Reason: reason})
}

func (f *Fake) LockPost(ctx context.Context, postID int64, locked bool) error {
	return f.record(Call{Op: "lock_post", TargetID: postID, Flag: locked})
}

func (f *Fake) FeaturePost(ctx context.Context, postID int64, featured bool) error {
	return f.record(Call{Op: "feature_post", TargetID: postID, Flag: featured})
}

var _ models.Platform = (*Fake)(nil)
