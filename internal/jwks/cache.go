// Copyright 2025 The ubl-auth Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package jwks

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a fetched JWKS document is served without a refresh.
const DefaultTTL = 5 * time.Minute

// Cache resolves signing keys from JWKS URIs, caching each fetched document
// for a TTL. Entries are replaced wholesale on refresh, never mutated.
//
// Refresh policy: at most one in-flight fetch per URI; concurrent resolvers
// that find a stale or missing entry share that fetch's outcome. When a
// refresh fails but a previously fetched document exists, the stale document
// is served instead of failing the resolution (stale-while-revalidate).
type Cache struct {
	ttl     time.Duration
	fetcher Fetcher
	now     func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry

	group singleflight.Group
}

type cacheEntry struct {
	doc       *Document
	fetchedAt time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithTTL sets the document time-to-live.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) { c.ttl = ttl }
}

// WithClock overrides the cache's time source. For tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// NewCache creates a cache that fetches documents through fetcher.
func NewCache(fetcher Fetcher, opts ...CacheOption) *Cache {
	c := &Cache{
		ttl:     DefaultTTL,
		fetcher: fetcher,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the Ed25519 public key for kid from the JWKS document at
// uri, fetching or refreshing the document as needed. An empty kid resolves
// only when the document holds exactly one usable Ed25519 key.
func (c *Cache) Resolve(ctx context.Context, uri, kid string) (ed25519.PublicKey, error) {
	doc, err := c.document(ctx, uri)
	if err != nil {
		return nil, err
	}
	return doc.Key(kid)
}

// Document returns the (possibly cached) JWKS document for uri.
func (c *Cache) Document(ctx context.Context, uri string) (*Document, error) {
	return c.document(ctx, uri)
}

// Put seeds the cache with a document for uri, as if freshly fetched.
func (c *Cache) Put(uri string, doc *Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[uri] = cacheEntry{doc: doc, fetchedAt: c.now()}
}

// Invalidate drops the cached document for uri, forcing a fetch on the next
// resolution.
func (c *Cache) Invalidate(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, uri)
}

func (c *Cache) document(ctx context.Context, uri string) (*Document, error) {
	if doc, ok := c.fresh(uri); ok {
		return doc, nil
	}

	// One fetch per URI; everyone else queued here gets its result.
	v, err, _ := c.group.Do(uri, func() (any, error) {
		// A waiter ahead of us may already have refreshed the entry.
		if doc, ok := c.fresh(uri); ok {
			return doc, nil
		}

		doc, err := c.refresh(ctx, uri)
		if err == nil {
			return doc, nil
		}

		// Refresh failed: serve the stale document if one was ever fetched.
		if stale, ok := c.peek(uri); ok {
			return stale, nil
		}
		return nil, err
	})
	if err != nil {
		return nil, err
	}
	return v.(*Document), nil
}

// fresh returns the cached document for uri if it is within its TTL.
func (c *Cache) fresh(uri string) (*Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[uri]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.fetchedAt) >= c.ttl {
		return nil, false
	}
	return entry.doc, true
}

// peek returns the cached document for uri regardless of age.
func (c *Cache) peek(uri string) (*Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[uri]
	return entry.doc, ok
}

// refresh performs a single fetch-and-parse and replaces the entry on success.
func (c *Cache) refresh(ctx context.Context, uri string) (*Document, error) {
	data, err := c.fetcher.Fetch(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	c.Put(uri, doc)
	return doc, nil
}
