package indexer

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/voxmap/voxmap/internal/model"
)

// CommandStore is the durable backing tier a CommandCache falls back to
// on a miss, and writes through to on a Put. internal/store.Store
// satisfies this.
type CommandStore interface {
	ListCommands(packageName string) ([]*model.GeneratedCommand, error)
	UpsertCommands(packageName string, commands []*model.GeneratedCommand) error
}

// CommandCache is a two-tier cache of a package's active command set:
// an in-process LRU in front of the durable Store, keyed by package
// name. A hit never touches SQLite; a miss reads
// through to the Store and populates the LRU; a Put writes through to
// both tiers so the two stay consistent.
type CommandCache struct {
	lru   *lru.Cache[string, []*model.GeneratedCommand]
	store CommandStore
}

// NewCommandCache creates a CommandCache with the given in-process
// capacity (number of packages) backed by store.
func NewCommandCache(capacity int, store CommandStore) (*CommandCache, error) {
	if capacity < 1 {
		capacity = 1
	}
	l, err := lru.New[string, []*model.GeneratedCommand](capacity)
	if err != nil {
		return nil, fmt.Errorf("indexer: creating command cache: %w", err)
	}
	return &CommandCache{lru: l, store: store}, nil
}

// Get returns the active command set for packageName, consulting the
// in-process LRU first and falling back to the Store on a miss.
func (c *CommandCache) Get(packageName string) ([]*model.GeneratedCommand, error) {
	if cmds, ok := c.lru.Get(packageName); ok {
		return cmds, nil
	}
	cmds, err := c.store.ListCommands(packageName)
	if err != nil {
		return nil, fmt.Errorf("indexer: command cache miss load: %w", err)
	}
	c.lru.Add(packageName, cmds)
	return cmds, nil
}

// Put persists a package's new command set to the Store and refreshes
// the in-process LRU entry.
func (c *CommandCache) Put(packageName string, commands []*model.GeneratedCommand) error {
	if err := c.store.UpsertCommands(packageName, commands); err != nil {
		return fmt.Errorf("indexer: command cache write-through: %w", err)
	}
	c.lru.Add(packageName, commands)
	return nil
}

// Invalidate drops a package's cached entry, e.g. after the app is
// rescraped under a different app_hash.
func (c *CommandCache) Invalidate(packageName string) {
	c.lru.Remove(packageName)
}
