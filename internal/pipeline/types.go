package pipeline

import (
	"github.com/voxmap/voxmap/internal/host"
	"github.com/voxmap/voxmap/internal/model"
)

// ScrapeEvent is the triggering accessibility event that started a
// scrape/index pipeline run.
type ScrapeEvent struct {
	Kind        host.EventKind
	PackageName string
}

// ScrapeContext flows through the pipeline's stages in order. Each
// stage reads and enriches it; Discarded tells later stages (and the
// Coordinator, after the pipeline returns) to stop acting on the
// result, e.g. when the foreground window changed mid-scrape. Work
// already done stands: a scrape the Coordinator discards after the
// chain returns keeps its committed elements and command set, and only
// its numeric overlay and grammar push are skipped.
type ScrapeContext struct {
	Event ScrapeEvent

	Elements    []*model.Element
	Edges       []model.HierarchyEdge
	ScreenHash  string
	AppHash     string
	ActivityClass      string
	WindowTitle        string
	ContentFingerprint string
	Commands    []model.GeneratedCommand
	Added       []string
	Removed     []string

	Discarded       bool
	DiscardedReason string

	Flags map[string]bool
}

// NewScrapeContext creates a ScrapeContext for the given triggering event.
func NewScrapeContext(event ScrapeEvent) *ScrapeContext {
	return &ScrapeContext{
		Event: event,
		Flags: make(map[string]bool),
	}
}

// Discard marks the context so downstream stages (or the Coordinator)
// skip acting on it, while letting any already-committed store
// transaction stand.
func (c *ScrapeContext) Discard(reason string) {
	c.Discarded = true
	c.DiscardedReason = reason
}
