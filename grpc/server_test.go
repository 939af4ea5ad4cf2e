package grpc

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"lemmy-automod/database"
	"lemmy-automod/lemmy/lemmytest"
	"lemmy-automod/models"
	"lemmy-automod/submission"
	"lemmy-automod/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

var (
	bot = models.Person{ID: 99, Name: "automod", ActorID: "https://lemmy.example/u/automod"}
	mod = models.Person{ID: 7, Name: "mod", ActorID: "https://lemmy.example/u/mod"}
)

func startServer(t *testing.T, keys []string) (*database.Store, func(apiKey string) *Client) {
	t.Helper()
	store, err := database.InitDB(filepath.Join(t.TempDir(), "db.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	platform := lemmytest.New()
	platform.Communities["pcm"] = 42
	platform.AddModerator(42, mod.ID)
	platform.AddModerator(42, bot.ID)
	platform.Persons["mod"] = mod

	svc := NewService(submission.NewWorkflow(platform, store, bot), store, platform)
	srv := NewServer(svc, utils.NewAuth(keys))

	lis := bufconn.Listen(1 << 20)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	dial := func(apiKey string) *Client {
		c, err := NewClient("passthrough:///bufnet", apiKey, 5*time.Second,
			grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
				return lis.DialContext(ctx)
			}))
		require.NoError(t, err)
		t.Cleanup(func() { c.Close() })
		return c
	}
	return store, dial
}

func TestSubmitAndListRules(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	_, dial := startServer(t, []string{"secret"})
	c := dial("secret")

	doc := `[{"rule":"post","community":"pcm","field":"title+body","match":"free","type":"exact"},{"rule":"nope"}]`
	resp, err := c.SubmitRules(ctx, "mod", doc)
	require.NoError(t, err)

	got := resp.AsMap()
	assert.Equal("partial", got["outcome"])
	assert.NotEmpty(got["id"])
	items := got["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(true, items[0].(map[string]any)["ok"])
	assert.Equal(submission.ReasonUnrecognized, items[1].(map[string]any)["reason"])

	rules, err := c.ListRules(ctx, "pcm")
	require.NoError(t, err)
	posts := rules.AsMap()["posts"].([]any)
	require.Len(t, posts, 2)
	assert.Equal("title", posts[0].(map[string]any)["field"])
	assert.Equal("body", posts[1].(map[string]any)["field"])
}

func TestSubmitUnknownSubmitter(t *testing.T) {
	_, dial := startServer(t, []string{"secret"})

	_, err := dial("secret").SubmitRules(context.Background(), "ghost", `{}`)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestListRulesUnknownCommunity(t *testing.T) {
	_, dial := startServer(t, []string{"secret"})

	_, err := dial("secret").ListRules(context.Background(), "nowhere")
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = dial("secret").ListRules(context.Background(), "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestAPIKeyRequired(t *testing.T) {
	ctx := context.Background()
	_, dial := startServer(t, []string{"secret"})

	_, err := dial("").ListRules(ctx, "pcm")
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = dial("wrong").ListRules(ctx, "pcm")
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	resp, err := dial("secret").ListRules(ctx, "pcm")
	require.NoError(t, err)
	assert.NotNil(t, resp)
}

func TestNoKeysRejectsEveryCall(t *testing.T) {
	ctx := context.Background()
	store, dial := startServer(t, nil)

	doc := `{"rule":"comment","community":"pcm","match":"spam","type":"exact"}`
	for _, key := range []string{"", "secret"} {
		_, err := dial(key).SubmitRules(ctx, "mod", doc)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	}

	_, ok, err := store.GetCommunity(ctx, "pcm", 42)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListenRequiresKey(t *testing.T) {
	srv, err := Listen("127.0.0.1:0", nil, utils.NewAuth([]string{" "}))
	assert.ErrorIs(t, err, ErrNoAPIKey)
	assert.Nil(t, srv)
}
