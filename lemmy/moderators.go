package lemmy

import (
	"context"
	"fmt"
	"time"

	"lemmy-automod/models"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ModeratorCache remembers moderator checks for a short time. It is meant for
// event evaluation only; rule submission always asks the platform directly.
type ModeratorCache struct {
	next  models.ModeratorChecker
	cache *expirable.LRU[string, bool]
}

// NewModeratorCache wraps next. A non-positive ttl returns a cache that
// always calls through.
func NewModeratorCache(next models.ModeratorChecker, size int, ttl time.Duration) *ModeratorCache {
	mc := &ModeratorCache{next: next}
	if ttl > 0 {
		mc.cache = expirable.NewLRU[string, bool](size, nil, ttl)
	}
	return mc
}

func (mc *ModeratorCache) IsCommunityModerator(ctx context.Context, personID, communityID int64) (bool, error) {
	if mc.cache == nil {
		return mc.next.IsCommunityModerator(ctx, personID, communityID)
	}

	key := fmt.Sprintf("%d/%d", communityID, personID)
	if v, ok := mc.cache.Get(key); ok {
		return v, nil
	}
	v, err := mc.next.IsCommunityModerator(ctx, personID, communityID)
	if err != nil {
		return false, err
	}
	mc.cache.Add(key, v)
	return v, nil
}
