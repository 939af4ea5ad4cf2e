package lemmy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingChecker struct {
	calls int
	mods  map[int64]bool
	err   error
}

func (c *countingChecker) IsCommunityModerator(ctx context.Context, personID, communityID int64) (bool, error) {
	c.calls++
	if c.err != nil {
		return false, c.err
	}
	return c.mods[personID], nil
}

func TestModeratorCache(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	next := &countingChecker{mods: map[int64]bool{7: true}}
	mc := NewModeratorCache(next, 16, time.Minute)

	for i := 0; i < 3; i++ {
		ok, err := mc.IsCommunityModerator(ctx, 7, 42)
		assert.NoError(err)
		assert.True(ok)
	}
	ok, err := mc.IsCommunityModerator(ctx, 8, 42)
	assert.NoError(err)
	assert.False(ok)
	assert.Equal(2, next.calls)
}

func TestModeratorCacheDisabled(t *testing.T) {
	ctx := context.Background()
	next := &countingChecker{mods: map[int64]bool{7: true}}
	mc := NewModeratorCache(next, 16, 0)

	mc.IsCommunityModerator(ctx, 7, 42)
	mc.IsCommunityModerator(ctx, 7, 42)
	assert.Equal(t, 2, next.calls)
}

func TestModeratorCacheDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	next := &countingChecker{err: errors.New("boom")}
	mc := NewModeratorCache(next, 16, time.Minute)

	_, err := mc.IsCommunityModerator(ctx, 7, 42)
	assert.Error(t, err)
	next.err = nil
	next.mods = map[int64]bool{7: true}
	ok, err := mc.IsCommunityModerator(ctx, 7, 42)
	assert.NoError(t, err)
	assert.True(t, ok)
}
