package module

import (
	"time"

	"github.com/karlseguin/ccache"
)

// cacheTimeout bounds how long a NeedsReboot/SupportsRollback answer is
// trusted within a single facade instance. Both queries ask the module
// about the same work tree the facade already owns, so a repeat query
// within one process run (install's own decision table, then the failure
// handler's rollback check) can reuse the first answer instead of spawning
// the module again.
const cacheTimeout = time.Minute

// queryCache is the per-facade-instance cache for idempotent module
// queries, the same ccache-backed "last observed value" shape the intent
// package used to dampen duplicate informer events.
type queryCache struct {
	cache *ccache.Cache
}

func newQueryCache() *queryCache {
	return &queryCache{
		cache: ccache.New(ccache.Configure().MaxSize(8).ItemsToPrune(1)),
	}
}

func (c *queryCache) get(key string) (string, bool) {
	item := c.cache.Get(key)
	if item == nil || item.Expired() {
		return "", false
	}
	value, ok := item.Value().(string)
	return value, ok
}

func (c *queryCache) set(key, value string) {
	c.cache.Set(key, value, cacheTimeout)
}
