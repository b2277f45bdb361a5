package authority

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/agentstation/authmatch/pkg/errors"
	"github.com/agentstation/authmatch/pkg/logging"
	"github.com/agentstation/authmatch/pkg/marc"
)

// Cache maps authority identifiers to fetched Content.
//
// Presence is explicit: an identifier whose document produced an empty
// subfield set is still a hit. Concurrent lookups of the same missing
// identifier share a single fetch.
type Cache struct {
	fetcher  Fetcher
	tag      string
	allow    marc.AllowList
	observer Observer

	mu      sync.RWMutex
	entries map[string]Content
	group   singleflight.Group

	hits     atomic.Int64
	misses   atomic.Int64
	fetches  atomic.Int64
	failures atomic.Int64
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithSeed preloads entries, typically from a snapshot saved by an
// earlier run. Seeded identifiers are never fetched.
func WithSeed(snap Snapshot) CacheOption {
	return func(c *Cache) {
		for id, content := range snap {
			c.entries[id] = content
		}
	}
}

// WithObserver registers an observer for hits and fetches.
func WithObserver(o Observer) CacheOption {
	return func(c *Cache) {
		c.observer = o
	}
}

// NewCache creates a cache that extracts the allowed subfields of datafield
// tag from documents returned by fetcher.
func NewCache(fetcher Fetcher, tag string, allow marc.AllowList, opts ...CacheOption) *Cache {
	c := &Cache{
		fetcher: fetcher,
		tag:     tag,
		allow:   allow,
		entries: make(map[string]Content),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Kind returns the source kind of the underlying fetcher.
func (c *Cache) Kind() Kind {
	return c.fetcher.Kind()
}

// Get returns the Content for id, fetching it on a miss.
//
// Errors:
//   - *errors.NotFoundError when the document has no datafield with the tag
//   - *errors.FetchError when the request, the response, or the XML fails
//
// Neither outcome is cached.
func (c *Cache) Get(ctx context.Context, id string) (Content, error) {
	if content, ok := c.lookup(id); ok {
		c.hits.Add(1)
		if c.observer != nil {
			c.observer.CacheHit(c.Kind())
		}
		return content, nil
	}
	c.misses.Add(1)

	v, err, _ := c.group.Do(id, func() (any, error) {
		// Another caller may have stored it while we queued.
		if content, ok := c.lookup(id); ok {
			return content, nil
		}
		content, err := c.fetch(ctx, id)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[id] = content
		c.mu.Unlock()
		return content, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Content), nil
}

func (c *Cache) lookup(id string) (Content, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	content, ok := c.entries[id]
	return content, ok
}

func (c *Cache) fetch(ctx context.Context, id string) (content Content, err error) {
	kind := c.Kind()
	c.fetches.Add(1)
	defer func() {
		if err != nil {
			c.failures.Add(1)
		}
		if c.observer != nil {
			c.observer.Fetched(kind, err)
		}
	}()

	logging.FromContext(ctx).Debug().
		Str("api", kind.String()).
		Str("authority_id", id).
		Msg("Fetching authority record")

	body, err := c.fetcher.Fetch(ctx, id)
	if err != nil {
		return nil, errors.WrapFetch(kind.String(), id, err)
	}
	defer body.Close()

	df, err := marc.FindDataField(body, c.tag)
	if errors.Is(err, marc.ErrNoDataField) {
		return nil, errors.NewNotFoundError("datafield "+c.tag, id)
	}
	if err != nil {
		return nil, errors.WrapFetch(kind.String(), id, err)
	}

	return NewContent(marc.ParseDataField(df, c.allow)), nil
}

// Len returns the number of cached identifiers.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns counters for this cache.
func (c *Cache) Stats() Stats {
	return Stats{
		Entries:  c.Len(),
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Fetches:  c.fetches.Load(),
		Failures: c.failures.Load(),
	}
}

// Snapshot returns a deep copy of the cached entries.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := make(Snapshot, len(c.entries))
	for id, content := range c.entries {
		cp := make(Content, len(content))
		for i, sf := range content {
			cp[i] = sf.Clone()
		}
		snap[id] = cp
	}
	return snap
}
