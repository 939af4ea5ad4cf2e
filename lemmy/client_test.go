package lemmy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"lemmy-automod/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInstance is a tiny stand-in for a Lemmy instance.
type fakeInstance struct {
	mu       sync.Mutex
	requests []recorded
}

type recorded struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   map[string]any
}

func (f *fakeInstance) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	record := func(r *http.Request) {
		rec := recorded{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Auth: r.Header.Get("Authorization")}
		if r.Body != nil && r.Method == http.MethodPost {
			_ = json.NewDecoder(r.Body).Decode(&rec.Body)
		}
		f.mu.Lock()
		f.requests = append(f.requests, rec)
		f.mu.Unlock()
	}
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		assert.NoError(t, json.NewEncoder(w).Encode(v))
	}

	mux.HandleFunc("/api/v3/user/login", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		writeJSON(w, 200, map[string]any{"jwt": "token-123"})
	})
	mux.HandleFunc("/api/v3/community", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		q := r.URL.Query()
		if q.Get("name") == "missing" {
			writeJSON(w, 404, map[string]any{"error": "couldnt_find_community"})
			return
		}
		writeJSON(w, 200, map[string]any{
			"community_view": map[string]any{"community": map[string]any{"id": 42, "name": "pcm"}},
			"moderators": []any{
				map[string]any{"community": map[string]any{"id": 42}, "moderator": map[string]any{"id": 7, "name": "mod"}},
				map[string]any{"community": map[string]any{"id": 42}, "moderator": map[string]any{"id": 99, "name": "automod"}},
			},
		})
	})
	mux.HandleFunc("/api/v3/user", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		if r.URL.Query().Get("username") == "ghost" {
			writeJSON(w, 400, map[string]any{"error": "couldnt_find_person"})
			return
		}
		writeJSON(w, 200, map[string]any{"person_view": map[string]any{"person": map[string]any{
			"id": 99, "name": "automod", "actor_id": "https://lemmy.example/u/automod",
		}}})
	})
	mux.HandleFunc("/api/v3/post/list", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		writeJSON(w, 200, map[string]any{"posts": []any{
			map[string]any{
				"post":      map[string]any{"id": 1, "name": "hello", "url": "https://spam.example", "community_id": 42, "creator_id": 5},
				"creator":   map[string]any{"id": 5, "name": "bob", "actor_id": "https://lemmy.example/u/bob"},
				"community": map[string]any{"id": 42, "name": "pcm"},
			},
		}})
	})
	mux.HandleFunc("/api/v3/post/remove", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		writeJSON(w, 200, map[string]any{})
	})
	mux.HandleFunc("/api/v3/post/feature", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		writeJSON(w, 500, map[string]any{"error": "couldnt_update_post"})
	})
	return mux
}

func (f *fakeInstance) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func testClient(t *testing.T) (*Client, *fakeInstance) {
	t.Helper()
	fake := &fakeInstance{}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	c := NewClient(Options{
		Instance: srv.URL,
		Username: "automod",
		Password: "pw",
		Timeout:  5 * time.Second,
	})
	require.NoError(t, c.Login(context.Background()))
	return c, fake
}

func TestLoginRequired(t *testing.T) {
	c := NewClient(Options{Instance: "http://127.0.0.1:1"})
	_, _, err := c.ResolveCommunityID(context.Background(), "pcm")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestInstanceURL(t *testing.T) {
	assert.Equal(t, "https://lemmy.example", NewClient(Options{Instance: "lemmy.example/"}).BaseURL())
	assert.Equal(t, "http://localhost:8536", NewClient(Options{Instance: "http://localhost:8536"}).BaseURL())
}

func TestResolveCommunity(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	c, fake := testClient(t)

	id, found, err := c.ResolveCommunityID(ctx, "pcm")
	require.NoError(t, err)
	assert.True(found)
	assert.EqualValues(42, id)
	assert.Equal("Bearer token-123", fake.last().Auth)
	assert.Equal("name=pcm", fake.last().Query)

	_, found, err = c.ResolveCommunityID(ctx, "missing")
	require.NoError(t, err)
	assert.False(found)
}

func TestIsCommunityModerator(t *testing.T) {
	ctx := context.Background()
	c, _ := testClient(t)

	ok, err := c.IsCommunityModerator(ctx, 7, 42)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.IsCommunityModerator(ctx, 8, 42)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolvePerson(t *testing.T) {
	ctx := context.Background()
	c, _ := testClient(t)

	p, err := c.ResolvePerson(ctx, "automod")
	require.NoError(t, err)
	assert.Equal(t, models.Person{ID: 99, Name: "automod", ActorID: "https://lemmy.example/u/automod"}, p)

	_, err = c.ResolvePerson(ctx, "ghost")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListPosts(t *testing.T) {
	c, fake := testClient(t)

	posts, err := c.ListPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "hello", posts[0].Title)
	assert.Nil(t, posts[0].Body)
	assert.Equal(t, "https://spam.example", *posts[0].URL)
	assert.Equal(t, models.CommunityRef{ID: 42, Name: "pcm"}, posts[0].Community)
	assert.Equal(t, "limit=50&sort=New&type_=Local", fake.last().Query)
}

func TestRemovePostSendsReason(t *testing.T) {
	c, fake := testClient(t)
	reason := "spam"

	require.NoError(t, c.RemovePost(context.Background(), 1, &reason))
	body := fake.last().Body
	assert.Equal(t, float64(1), body["post_id"])
	assert.Equal(t, true, body["removed"])
	assert.Equal(t, "spam", body["reason"])
}

func TestAPIErrorIsCapabilityError(t *testing.T) {
	c, _ := testClient(t)

	err := c.FeaturePost(context.Background(), 1, true)
	require.Error(t, err)

	var capErr *CapabilityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, "feature post", capErr.Op)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 500, apiErr.Status)
	assert.Equal(t, "couldnt_update_post", apiErr.Code)
}
