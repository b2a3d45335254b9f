// Package memory implements the exact-match cache of previously
// resolved (input, response) pairs, with write-through persistence to an
// append-only store.
package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Entry is one resolved (input, response) pair. Entries are appended,
// never mutated.
type Entry struct {
	Input     string    `json:"input"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

// PersistentStore is the durable backing for the cache. Implementations
// must support at-least-once append durability; load order must be
// append order.
type PersistentStore interface {
	LoadMemories(ctx context.Context) ([]Entry, error)
	AppendMemory(ctx context.Context, e Entry) error
}

// Cache is the in-memory exact-match cache. Lookups key on the
// normalized input only; no partial matching.
type Cache struct {
	mu      sync.RWMutex
	entries map[string][]Entry

	store PersistentStore // nil means in-memory only
	ttl   time.Duration   // zero means entries never expire
	now   func() time.Time
}

// NewCache creates a Cache, loading prior entries from store when one is
// given. A load failure leaves the cache empty and is logged, not
// returned: a cold cache is a degraded start, not a fatal one.
func NewCache(ctx context.Context, store PersistentStore, ttl time.Duration) *Cache {
	c := &Cache{
		entries: make(map[string][]Entry),
		store:   store,
		ttl:     ttl,
		now:     time.Now,
	}
	if store == nil {
		return c
	}

	loaded, err := store.LoadMemories(ctx)
	if err != nil {
		slog.Error("memory: load failed, starting cold", "error", err)
		return c
	}
	for _, e := range loaded {
		c.entries[e.Input] = append(c.entries[e.Input], e)
	}
	slog.Info("memory: loaded", "entries", len(loaded), "keys", len(c.entries))
	return c
}

// Get returns the first stored, unexpired response for the exact
// normalized input.
func (c *Cache) Get(normalized string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, e := range c.entries[normalized] {
		if c.expired(e) {
			continue
		}
		return e.Response, true
	}
	return "", false
}

// Put records a resolved pair. Writing an identical (input, response)
// pair again is a no-op; a different response for a known input appends
// to the duplicate-tolerant log. Persistence failures are logged and do
// not fail the turn.
func (c *Cache) Put(ctx context.Context, normalized, response string) {
	if normalized == "" || response == "" {
		return
	}

	entry := Entry{Input: normalized, Response: response, CreatedAt: c.now()}

	c.mu.Lock()
	for _, e := range c.entries[normalized] {
		if e.Response == response {
			c.mu.Unlock()
			return
		}
	}
	c.entries[normalized] = append(c.entries[normalized], entry)
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	if err := c.store.AppendMemory(ctx, entry); err != nil {
		slog.Error("memory: persist failed, entry kept in memory only", "error", err)
	}
}

// Len returns the number of distinct cached inputs.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) expired(e Entry) bool {
	if c.ttl <= 0 {
		return false
	}
	return c.now().Sub(e.CreatedAt) > c.ttl
}
