package schema

import (
	"fmt"
	"testing"

	"lemmy-automod/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSingleCommentRule(t *testing.T) {
	assert := assert.New(t)

	items, err := Parse([]byte(`{
		"rule": "comment",
		"match": "spam",
		"type": "exact",
		"community": "pcm",
		"whitelist_exempt": true,
		"mod_exempt": true,
		"message": null,
		"removal_reason": "spam"
	}`))
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Nil(t, items[0].Err)

	sub := items[0].Rule
	assert.Equal(models.RuleKindComment, sub.Kind)
	assert.Equal("pcm", sub.Community())
	assert.Equal("spam", sub.Comment.Match)
	assert.Equal(models.MatchExact, sub.Comment.Kind)
	assert.True(sub.Comment.WhitelistExempt)
	assert.True(sub.Comment.ModExempt)
	assert.Nil(sub.Comment.Message)
	require.NotNil(t, sub.Comment.RemovalReason)
	assert.Equal("spam", *sub.Comment.RemovalReason)
}

func TestParseBatchIsolatesBadItems(t *testing.T) {
	assert := assert.New(t)

	items, err := Parse([]byte(`[
		{"rule": "post", "community": "pcm", "field": "title", "match": "free", "type": "exact"},
		{"rule": "post", "community": "pcm", "field": "subtitle", "match": "free", "type": "exact"},
		{"rule": "exception", "community": "pcm", "user_name": "alice@lemmy.example"}
	]`))
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.NotNil(items[0].Rule)
	assert.Nil(items[1].Rule)
	require.NotNil(t, items[1].Err)
	assert.Equal(1, items[1].Err.Index)
	assert.Contains(items[1].Err.Error(), ReasonUnrecognized)
	assert.Equal(models.RuleKindException, items[2].Rule.Kind)
	assert.Equal("alice@lemmy.example", items[2].Rule.Exception.UserName)
}

func TestParseAcceptsEveryFieldPermutation(t *testing.T) {
	perms := []string{
		"title", "body", "link",
		"title+body", "body+title", "title+link", "link+title", "body+link", "link+body",
		"title+body+link", "title+link+body", "body+title+link",
		"body+link+title", "link+title+body", "link+body+title",
	}
	for _, p := range perms {
		doc := fmt.Sprintf(`{"rule":"post","community":"pcm","field":%q,"match":"x","type":"exact"}`, p)
		items, err := Parse([]byte(doc))
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.Nil(t, items[0].Err, p)
		assert.Equal(t, p, items[0].Rule.Post.FieldSet())
	}

	for _, bad := range []string{"title+title", "title+", "tags", "title+body+link+title"} {
		doc := fmt.Sprintf(`{"rule":"post","community":"pcm","field":%q,"match":"x","type":"exact"}`, bad)
		items, err := Parse([]byte(doc))
		require.NoError(t, err)
		assert.NotNil(t, items[0].Err, bad)
	}
}

func TestParseDefaultsAndAliases(t *testing.T) {
	assert := assert.New(t)

	items, err := Parse([]byte(`[
		{"rule": "comment", "community": "pcm", "match": "a", "type": "exact"},
		{"rule": "comment", "community": "pcm", "match": "b", "type": "exact", "whitelist": true, "mod_exempt": false}
	]`))
	require.NoError(t, err)

	assert.False(items[0].Rule.Comment.WhitelistExempt)
	assert.True(items[0].Rule.Comment.ModExempt)
	assert.True(items[1].Rule.Comment.WhitelistExempt)
	assert.False(items[1].Rule.Comment.ModExempt)
}

func TestParseMention(t *testing.T) {
	assert := assert.New(t)

	items, err := Parse([]byte(`[
		{"rule": "mention", "command": "!lock", "action": "lock", "community": "pcm", "message": "Locked."},
		{"rule": "mention", "command": null, "action": "pin", "community": "pcm", "message": null},
		{"rule": "mention", "command": "!ban", "action": "ban", "community": "pcm", "message": null}
	]`))
	require.NoError(t, err)

	m := items[0].Rule.Mention
	assert.Equal("!lock", m.Command)
	assert.Equal(models.ActionLock, m.Action)
	assert.Equal("Locked.", *m.Message)

	assert.Equal("", items[1].Rule.Mention.Command)
	assert.NotNil(items[2].Err)
}

func TestParseRejectsBadRegex(t *testing.T) {
	items, err := Parse([]byte(`{"rule":"comment","community":"pcm","match":"(unclosed","type":"regex"}`))
	require.NoError(t, err)
	require.NotNil(t, items[0].Err)
	assert.Contains(t, items[0].Err.Error(), "invalid regular expression")
}

func TestParseRejectsUnknownAttributes(t *testing.T) {
	items, err := Parse([]byte(`{"rule":"comment","community":"pcm","match":"a","type":"exact","severity":3}`))
	require.NoError(t, err)
	assert.NotNil(t, items[0].Err)
}

func TestParseNotJSON(t *testing.T) {
	_, err := Parse([]byte("pcm\nplease remove spam"))
	assert.ErrorIs(t, err, ErrNotJSON)
}

func TestExtractDocument(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(`{"a":1}`, string(ExtractDocument("  {\"a\":1}\n")))
	assert.Equal(`[1]`, string(ExtractDocument("here you go:\n```json\n[1]\n```\nthanks")))
	assert.Equal(`{"a":1}`, string(ExtractDocument("```\n{\"a\":1}\n```")))
}
