package pipeline

import (
	"context"
	"fmt"

	"github.com/voxmap/voxmap/internal/hashid"
	"github.com/voxmap/voxmap/internal/host"
	"github.com/voxmap/voxmap/internal/indexer"
	"github.com/voxmap/voxmap/internal/model"
	"github.com/voxmap/voxmap/internal/store"
	"github.com/voxmap/voxmap/internal/walker"
)

// LiveContentFilter reports whether an element has been flagged as
// live content (frequently self-mutating chrome like a clock or a
// progress spinner) and should therefore be excluded from screen
// content-fingerprint descriptor selection. internal/coordinator's
// liveContentTracker satisfies this.
type LiveContentFilter interface {
	IsLive(elementHash string) bool
}

// WalkStage reads the current foreground window and fills in
// ScrapeContext's Elements, Edges and screen identity. Grounded on
// internal/walker.Walk; this stage only owns the handle-to-hash
// bridging that walker itself stays agnostic of.
type WalkStage struct {
	Host                  host.Host
	MaxTreeDepth          int
	ScreenFingerprintTopN int

	// LiveContentFilter is optional; when nil no descriptor is excluded.
	LiveContentFilter LiveContentFilter

	// Handles is optional; when set, native handle acquire/release
	// pairs are counted so the accounting invariant is observable.
	Handles walker.HandleCounter
}

func (w *WalkStage) Name() string  { return "walk" }
func (w *WalkStage) Enabled() bool { return true }

func (w *WalkStage) Run(ctx context.Context, sc *ScrapeContext) error {
	root, err := w.Host.Root()
	if err != nil {
		return fmt.Errorf("walk: acquiring root: %w", err)
	}
	if root == nil {
		sc.Discard("foreground window torn down before walk")
		return nil
	}

	if w.Handles != nil {
		w.Handles.IncrementHandlesAcquired()
	}
	rootAttrs := root.Attributes()
	result := walker.WalkCounted(ctx, root, sc.Event.PackageName, w.MaxTreeDepth, w.Handles)

	windowTitle := rootAttrs.Text
	if windowTitle == "" {
		windowTitle = rootAttrs.ContentDescription
	}
	fingerprint := hashid.ContentFingerprint(w.filterLiveContent(result.Descriptors), w.ScreenFingerprintTopN)
	screenHash := hashid.HashScreen(
		hashid.Present(sc.Event.PackageName),
		hashid.Present(rootAttrs.ClassName),
		hashid.Present(windowTitle),
		fingerprint,
	)

	for _, e := range result.Elements {
		e.ScreenHash = screenHash
	}

	sc.Elements = result.Elements
	sc.Edges = result.Edges
	sc.ScreenHash = screenHash
	sc.ActivityClass = rootAttrs.ClassName
	sc.WindowTitle = windowTitle
	sc.ContentFingerprint = fingerprint
	return nil
}

// filterLiveContent drops descriptors for elements the tracker has
// flagged as live content, so a spinner's tick or a clock's minute
// change cannot fabricate a new logical screen.
func (w *WalkStage) filterLiveContent(descriptors []hashid.Descriptor) []hashid.Descriptor {
	if w.LiveContentFilter == nil {
		return descriptors
	}
	out := make([]hashid.Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if w.LiveContentFilter.IsLive(d.ElementHash) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// CommitStage persists the walk's output atomically via
// Store.ReplaceScrape and upserts the owning App/Screen rows. The host
// contract exposes no package version or signing identity, so AppHash
// is derived from the package name alone.
type CommitStage struct {
	Store *store.Store
}

func (c *CommitStage) Name() string  { return "commit" }
func (c *CommitStage) Enabled() bool { return true }

func (c *CommitStage) Run(ctx context.Context, sc *ScrapeContext) error {
	if sc.Discarded {
		return nil
	}

	appHash := hashid.HashApp(hashid.Present(sc.Event.PackageName), 0, hashid.Absent(), hashid.Absent())
	sc.AppHash = appHash

	app, err := c.Store.GetApp(sc.Event.PackageName)
	if err != nil {
		app = &model.App{
			PackageName:  sc.Event.PackageName,
			ScrapingMode: model.ScrapingModeDynamic,
		}
	}
	app.AppHash = appHash
	if err := c.Store.UpsertApp(app); err != nil {
		return fmt.Errorf("commit: upsert app: %w", err)
	}

	switch app.ScrapingMode {
	case model.ScrapingModeFrozen:
		sc.Discard("app is frozen")
		return nil
	case model.ScrapingModeLearn:
		// Dynamic scraping stands down while an exploration walker owns
		// the app; nothing here acts on LEARN-mode packages.
		sc.Discard("app is in learn mode")
		return nil
	}

	screen := &model.Screen{
		ScreenHash:         sc.ScreenHash,
		PackageName:        sc.Event.PackageName,
		ActivityClass:      sc.ActivityClass,
		WindowTitle:        sc.WindowTitle,
		ContentFingerprint: sc.ContentFingerprint,
	}
	if err := c.Store.UpsertScreen(screen); err != nil {
		return fmt.Errorf("commit: upsert screen: %w", err)
	}

	if err := c.Store.ReplaceScrape(sc.Event.PackageName, sc.ScreenHash, sc.Elements, sc.Edges); err != nil {
		return fmt.Errorf("commit: replace scrape: %w", err)
	}
	return nil
}

// IndexStage turns the committed Elements into a command set.
// Disambiguation runs over the label and index commands only; the
// numeric overlay is ephemeral and is appended separately by the
// Coordinator once a screen is settled.
type IndexStage struct {
	Cache        *indexer.CommandCache
	ListIndexCap int
}

func (x *IndexStage) Name() string  { return "index" }
func (x *IndexStage) Enabled() bool { return true }

func (x *IndexStage) Run(ctx context.Context, sc *ScrapeContext) error {
	if sc.Discarded {
		return nil
	}

	depthOf := make(map[string]int, len(sc.Elements))
	childOrderOf := make(map[string]int, len(sc.Elements))
	inScrollable := make(map[string]bool, len(sc.Elements))
	for _, e := range sc.Elements {
		depthOf[e.ElementHash] = e.Depth
		childOrderOf[e.ElementHash] = e.ChildOrder
	}
	markScrollableAncestry(sc.Elements, sc.Edges, inScrollable)

	labels := indexer.GenerateLabelCommands(sc.Elements)
	indexes := indexer.GenerateIndexCommands(sc.Elements, inScrollable, x.ListIndexCap)

	combined := make([]model.GeneratedCommand, 0, len(labels)+len(indexes)+len(indexer.SystemCommands))
	combined = append(combined, labels...)
	combined = append(combined, indexes...)
	combined = append(combined, indexer.SystemCommands...)
	for i := range combined {
		combined[i].PackageName = sc.Event.PackageName
	}

	resolved := indexer.Disambiguate(combined, depthOf, childOrderOf)

	sc.Commands = resolved
	if err := x.Cache.Put(sc.Event.PackageName, ptrSlice(resolved)); err != nil {
		return fmt.Errorf("index: persisting command set: %w", err)
	}
	return nil
}

func ptrSlice(commands []model.GeneratedCommand) []*model.GeneratedCommand {
	out := make([]*model.GeneratedCommand, len(commands))
	for i := range commands {
		out[i] = &commands[i]
	}
	return out
}

// markScrollableAncestry flags every element hash whose ancestor chain
// (via Edges) includes a scrollable container.
func markScrollableAncestry(elements []*model.Element, edges []model.HierarchyEdge, out map[string]bool) {
	scrollable := make(map[string]bool)
	for _, e := range elements {
		if e.IsScrollable {
			scrollable[e.ElementHash] = true
		}
	}
	children := make(map[string][]string)
	for _, e := range edges {
		children[e.ParentElementHash] = append(children[e.ParentElementHash], e.ChildElementHash)
	}
	var mark func(hash string, ancestorScrollable bool)
	mark = func(hash string, ancestorScrollable bool) {
		if ancestorScrollable {
			out[hash] = true
		}
		nowScrollable := ancestorScrollable || scrollable[hash]
		for _, child := range children[hash] {
			mark(child, nowScrollable)
		}
	}
	for _, e := range elements {
		if e.Depth == 0 {
			mark(e.ElementHash, false)
		}
	}
}

// PushStage diffs the new command set's phrases against the active
// grammar and pushes the delta to the speech engine, committing the
// grammar only after the engine acknowledges.
type PushStage struct {
	Engine  host.SpeechEngine
	Grammar *indexer.Grammar
}

func (p *PushStage) Name() string  { return "push" }
func (p *PushStage) Enabled() bool { return true }

func (p *PushStage) Run(ctx context.Context, sc *ScrapeContext) error {
	if sc.Discarded {
		return nil
	}

	phrases := make([]string, len(sc.Commands))
	for i, c := range sc.Commands {
		phrases[i] = c.Phrase
	}

	added, removed := p.Grammar.Diff(phrases)
	if len(added) == 0 && len(removed) == 0 {
		sc.Added, sc.Removed = nil, nil
		return nil
	}

	if err := p.Engine.SetActivePhrases(ctx, added, removed); err != nil {
		return fmt.Errorf("push: speech engine rejected grammar update: %w", err)
	}
	p.Grammar.Commit(phrases)
	sc.Added, sc.Removed = added, removed
	return nil
}
