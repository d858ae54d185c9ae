// Package cache provides read-through, in-process LRU caches in front
// of internal/store's Screen and Element tables, keyed by the
// content-addressed hashes computed upstream. Screens and Elements are
// written by internal/pipeline's CommitStage directly via
// Store.ReplaceScrape/UpsertScreen, so these caches only need to
// accelerate repeated reads (the Coordinator re-locating a live native
// node for a dispatched command) and to be explicitly invalidated when
// the backing row changes underneath them.
package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/voxmap/voxmap/internal/model"
)

// ElementStore is the durable backing tier an ElementCache falls back
// to on a miss. internal/store.Store satisfies this.
type ElementStore interface {
	GetElement(elementHash string) (*model.Element, error)
}

// ElementCache is a two-tier cache of Elements by ElementHash. The
// Coordinator uses it to recover an element's identifying fields
// (resource id, text, structural path) when dispatching a recognized
// command — the element_hash alone cannot retarget a live accessibility
// node, since native handles do not survive across screens; the cached
// Element gives the Coordinator enough to re-locate the node in a fresh
// walk of the current tree.
type ElementCache struct {
	lru   *lru.Cache[string, *model.Element]
	store ElementStore
}

// NewElementCache creates an ElementCache with the given in-process
// capacity backed by store.
func NewElementCache(capacity int, store ElementStore) (*ElementCache, error) {
	if capacity < 1 {
		capacity = 1
	}
	l, err := lru.New[string, *model.Element](capacity)
	if err != nil {
		return nil, fmt.Errorf("cache: creating element cache: %w", err)
	}
	return &ElementCache{lru: l, store: store}, nil
}

// Get returns the Element for elementHash, consulting the in-process
// LRU first and falling back to the Store on a miss.
func (c *ElementCache) Get(elementHash string) (*model.Element, error) {
	if e, ok := c.lru.Get(elementHash); ok {
		return e, nil
	}
	e, err := c.store.GetElement(elementHash)
	if err != nil {
		return nil, fmt.Errorf("cache: element cache miss load: %w", err)
	}
	c.lru.Add(elementHash, e)
	return e, nil
}

// Invalidate drops a cached Element, e.g. after its owning screen has
// been rescraped and the element_hash may now refer to stale data.
func (c *ElementCache) Invalidate(elementHash string) {
	c.lru.Remove(elementHash)
}

// ScreenStore is the durable backing tier a ScreenCache falls back to
// on a miss. internal/store.Store satisfies this.
type ScreenStore interface {
	GetScreen(screenHash string) (*model.Screen, error)
}

// ScreenCache is a two-tier cache of Screens by ScreenHash, avoiding a
// round-trip to SQLite for data that rarely changes once a screen_hash
// exists. The Coordinator and internal/debugsrv do not construct one;
// they read screens through the Store.
type ScreenCache struct {
	lru   *lru.Cache[string, *model.Screen]
	store ScreenStore
}

// NewScreenCache creates a ScreenCache with the given in-process
// capacity backed by store.
func NewScreenCache(capacity int, store ScreenStore) (*ScreenCache, error) {
	if capacity < 1 {
		capacity = 1
	}
	l, err := lru.New[string, *model.Screen](capacity)
	if err != nil {
		return nil, fmt.Errorf("cache: creating screen cache: %w", err)
	}
	return &ScreenCache{lru: l, store: store}, nil
}

// Get returns the Screen for screenHash, consulting the in-process LRU
// first and falling back to the Store on a miss.
func (c *ScreenCache) Get(screenHash string) (*model.Screen, error) {
	if sc, ok := c.lru.Get(screenHash); ok {
		return sc, nil
	}
	sc, err := c.store.GetScreen(screenHash)
	if err != nil {
		return nil, fmt.Errorf("cache: screen cache miss load: %w", err)
	}
	c.lru.Add(screenHash, sc)
	return sc, nil
}

// Invalidate drops a cached Screen, e.g. after it has been revisited
// and its visit_count/last_seen_at have changed underneath the cache.
func (c *ScreenCache) Invalidate(screenHash string) {
	c.lru.Remove(screenHash)
}
