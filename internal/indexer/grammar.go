package indexer

import "sync"

// Grammar owns the in-memory active-phrase set for one foreground
// package. It is updated only after the speech engine acknowledges a
// push, so the engine's view is always a prefix of the Indexer's view.
type Grammar struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// NewGrammar returns an empty Grammar.
func NewGrammar() *Grammar {
	return &Grammar{active: make(map[string]struct{})}
}

// Diff computes (added, removed) between the current active set and
// newPhrases, without mutating the active set — the caller must call
// Commit once the speech engine has acknowledged the push.
func (g *Grammar) Diff(newPhrases []string) (added, removed []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	newSet := make(map[string]struct{}, len(newPhrases))
	for _, p := range newPhrases {
		newSet[p] = struct{}{}
		if _, ok := g.active[p]; !ok {
			added = append(added, p)
		}
	}
	for p := range g.active {
		if _, ok := newSet[p]; !ok {
			removed = append(removed, p)
		}
	}
	return added, removed
}

// Commit replaces the active set with newPhrases. Call only after the
// speech engine has acknowledged the corresponding Diff's push.
func (g *Grammar) Commit(newPhrases []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	next := make(map[string]struct{}, len(newPhrases))
	for _, p := range newPhrases {
		next[p] = struct{}{}
	}
	g.active = next
}

// Active returns a snapshot of the currently active phrases.
func (g *Grammar) Active() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.active))
	for p := range g.active {
		out = append(out, p)
	}
	return out
}

// Clear empties the active set without a diff — used when flushing
// grammar removal on host disconnect.
func (g *Grammar) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active = make(map[string]struct{})
}
