package session

import (
	"context"
	"time"

	"github.com/FocuswithJustin/ClozeMark/core/store"
	"github.com/FocuswithJustin/ClozeMark/internal/cache"
)

// CachedStore keeps recently loaded or saved documents in memory so that
// reconnecting clients do not read the database again.
type CachedStore struct {
	next  DocumentStore
	cache *cache.TTLCache[string, []byte]
}

// NewCachedStore wraps next with a cache of at most maxEntries documents.
func NewCachedStore(next DocumentStore, ttl time.Duration, maxEntries int) *CachedStore {
	return &CachedStore{
		next:  next,
		cache: cache.New[string, []byte](ttl, maxEntries),
	}
}

// Load returns the cached markup or reads it through.
func (c *CachedStore) Load(ctx context.Context, name string) ([]byte, error) {
	if data, ok := c.cache.Get(name); ok {
		return clone(data), nil
	}
	data, err := c.next.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	c.cache.Set(name, clone(data))
	return data, nil
}

// Save writes through and caches what was written.
func (c *CachedStore) Save(ctx context.Context, name string, markup []byte) (store.Entry, bool, error) {
	entry, changed, err := c.next.Save(ctx, name, markup)
	if err != nil {
		c.cache.Delete(name)
		return entry, changed, err
	}
	c.cache.Set(name, clone(markup))
	return entry, changed, nil
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
