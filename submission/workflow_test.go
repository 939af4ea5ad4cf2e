package submission

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"lemmy-automod/database"
	"lemmy-automod/lemmy/lemmytest"
	"lemmy-automod/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	bot   = models.Person{ID: 99, Name: "automod", ActorID: "https://lemmy.example/u/automod"}
	mod   = models.Person{ID: 7, Name: "mod", ActorID: "https://lemmy.example/u/mod"}
	alice = models.Person{ID: 5, Name: "alice", ActorID: "https://lemmy.example/u/alice"}
)

type fixture struct {
	store    *database.Store
	platform *lemmytest.Fake
	workflow *Workflow
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store, err := database.InitDB(filepath.Join(t.TempDir(), "db.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	platform := lemmytest.New()
	platform.Communities["pcm"] = 42
	platform.Communities["nobot"] = 43
	platform.AddModerator(42, mod.ID)
	platform.AddModerator(42, bot.ID)
	platform.AddModerator(43, mod.ID)
	platform.Persons["alice"] = alice

	return &fixture{store: store, platform: platform, workflow: NewWorkflow(platform, store, bot)}
}

func (f *fixture) rules(t *testing.T) models.RuleSet {
	t.Helper()
	ctx := context.Background()
	cid, ok, err := f.store.GetCommunity(ctx, "pcm", 42)
	require.NoError(t, err)
	if !ok {
		return models.RuleSet{}
	}
	rs, err := f.store.ListRules(ctx, cid)
	require.NoError(t, err)
	return rs
}

const spamComment = `{"rule":"comment","community":"pcm","match":"spam","type":"exact","whitelist_exempt":true,"mod_exempt":true,"message":null,"removal_reason":"spam"}`

func TestSubmitSingleRule(t *testing.T) {
	assert := assert.New(t)
	f := setup(t)

	report := f.workflow.Submit(context.Background(), mod, []byte(spamComment))
	assert.Equal(AllSucceeded, report.Outcome())
	assert.NotEqual(uuid.Nil, report.ID)
	assert.Contains(report.String(), "updated successfully")

	rs := f.rules(t)
	require.Len(t, rs.Comments, 1)
	assert.Equal("spam", rs.Comments[0].Match)
	assert.Equal("spam", *rs.Comments[0].RemovalReason)
	assert.Nil(rs.Comments[0].Message)
}

func TestBatchIsolation(t *testing.T) {
	assert := assert.New(t)
	f := setup(t)

	doc := `[
		{"rule":"post","community":"pcm","field":"title+link","match":"free","type":"exact"},
		{"rule":"comment","community":"pcm","match":"x"},
		{"rule":"mention","community":"pcm","command":"!lock","action":"lock","message":"Locked."}
	]`
	report := f.workflow.Submit(context.Background(), mod, []byte(doc))
	require.Len(t, report.Results, 3)
	assert.Equal(Partial, report.Outcome())
	assert.Equal(2, report.Succeeded())
	assert.True(report.Results[0].OK())
	assert.Equal(ReasonUnrecognized, report.Results[1].Reason())
	assert.True(report.Results[2].OK())
	assert.Contains(report.String(), "2 of 3")
	assert.Contains(report.String(), "item 2: unrecognized schema")

	rs := f.rules(t)
	assert.Len(rs.Posts, 2)
	assert.Len(rs.Mentions, 1)
	assert.Empty(rs.Comments)
}

func TestAuthorizationGates(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	cases := []struct {
		name      string
		submitter models.Person
		community string
		reason    string
	}{
		{"unknown community", mod, "nowhere", ReasonUnknownCommunity},
		{"not a moderator", alice, "pcm", ReasonNotModerator},
		{"bot not installed", mod, "nobot", ReasonBotNotInstalled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := fmt.Sprintf(`{"rule":"comment","community":%q,"match":"x","type":"exact"}`, tc.community)
			report := f.workflow.Submit(ctx, tc.submitter, []byte(doc))
			require.Len(t, report.Results, 1)
			assert.Equal(t, AllFailed, report.Outcome())
			assert.Equal(t, tc.reason, report.Results[0].Reason())

			var authErr *AuthorizationError
			assert.True(t, errors.As(report.Results[0].Err, &authErr))
		})
	}

	_, ok, err := f.store.GetCommunity(ctx, "nobot", 43)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDuplicateRule(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.Equal(t, AllSucceeded, f.workflow.Submit(ctx, mod, []byte(spamComment)).Outcome())
	report := f.workflow.Submit(ctx, mod, []byte(spamComment))
	assert.Equal(t, AllFailed, report.Outcome())
	assert.Equal(t, ReasonDuplicate, report.Results[0].Reason())
	assert.Len(t, f.rules(t).Comments, 1)
}

func TestExceptionRule(t *testing.T) {
	assert := assert.New(t)
	f := setup(t)

	doc := `[{"rule":"exception","community":"pcm","user_name":"@alice"},{"rule":"exception","community":"pcm","user_name":"ghost"}]`
	report := f.workflow.Submit(context.Background(), mod, []byte(doc))
	assert.Equal(Partial, report.Outcome())
	assert.Equal(ReasonUnknownUser, report.Results[1].Reason())

	rs := f.rules(t)
	require.Len(t, rs.Exceptions, 1)
	assert.Equal(alice.ActorID, rs.Exceptions[0].UserActorID)
}

func TestPlatformFailure(t *testing.T) {
	f := setup(t)
	f.platform.Fail["moderator_check"] = errors.New("timeout")

	report := f.workflow.Submit(context.Background(), mod, []byte(spamComment))
	assert.Equal(t, AllFailed, report.Outcome())
	assert.Equal(t, ReasonPlatform, report.Results[0].Reason())
}

func TestNotJSON(t *testing.T) {
	f := setup(t)

	report := f.workflow.Submit(context.Background(), mod, []byte("pcm\nplease remove spam"))
	require.Len(t, report.Results, 1)
	assert.Equal(t, AllFailed, report.Outcome())
	assert.Equal(t, ReasonUnrecognized, report.Results[0].Reason())
}

func TestEmptySubmission(t *testing.T) {
	f := setup(t)

	report := f.workflow.Submit(context.Background(), mod, []byte("[]"))
	assert.Empty(t, report.Results)
	assert.Equal(t, AllFailed, report.Outcome())
	assert.Contains(t, report.String(), "no rules")
}

func TestConcurrentSubmissionsCreateOneCommunity(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc := fmt.Sprintf(`{"rule":"comment","community":"pcm","match":"word%d","type":"exact"}`, i)
			assert.Equal(t, AllSucceeded, f.workflow.Submit(ctx, mod, []byte(doc)).Outcome())
		}(i)
	}
	wg.Wait()

	cid, ok, err := f.store.GetCommunity(ctx, "pcm", 42)
	require.NoError(t, err)
	require.True(t, ok)
	rs, err := f.store.ListRules(ctx, cid)
	require.NoError(t, err)
	assert.Len(t, rs.Comments, 8)
}

func TestReportWording(t *testing.T) {
	ok := Result{Index: 0}
	bad := Result{Index: 1, Community: "pcm", Err: &AuthorizationError{Reason: ReasonNotModerator, Community: "pcm"}}

	all := Report{Results: []Result{ok, ok}}.String()
	none := Report{Results: []Result{bad}}.String()
	some := Report{Results: []Result{ok, bad}}.String()

	assert.NotEqual(t, all, none)
	assert.NotEqual(t, none, some)
	assert.Contains(t, none, "item 2 (pcm): not a moderator")
	assert.Contains(t, some, "1 of 2")
}
