package testutil

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/voxmap/voxmap/internal/host"
	"github.com/voxmap/voxmap/internal/model"
)

// NodeSpec describes one node of a fake accessibility tree. A spec is
// inert data; FakeHost instantiates fresh FakeNode handles from it on
// every Root call, the way a real host hands out new handles per query.
type NodeSpec struct {
	Attrs    host.NodeAttributes
	Children []*NodeSpec
}

// Node is a shorthand NodeSpec constructor for building test trees.
func Node(class, text string, children ...*NodeSpec) *NodeSpec {
	return &NodeSpec{
		Attrs: host.NodeAttributes{
			ClassName: class,
			Text:      text,
			IsVisible: true,
			IsEnabled: true,
		},
		Children: children,
	}
}

// Button returns a clickable leaf NodeSpec.
func Button(text string) *NodeSpec {
	n := Node("android.widget.Button", text)
	n.Attrs.IsClickable = true
	return n
}

// FakeNode implements host.NativeNode over a NodeSpec, counting
// releases through shared counters so tests can assert the
// handle-accounting invariant.
type FakeNode struct {
	spec     *NodeSpec
	acquired *int64
	released *int64

	// panicAt, when >= 0, makes the panicAt-th GetChild call across
	// the whole tree panic, simulating a host fault mid-walk.
	panicAt  *int64
	childSeq *int64
}

// Attributes implements host.NativeNode.
func (n *FakeNode) Attributes() host.NodeAttributes { return n.spec.Attrs }

// ChildCount implements host.NativeNode.
func (n *FakeNode) ChildCount() int { return len(n.spec.Children) }

// GetChild implements host.NativeNode, acquiring a fresh handle for the
// child spec.
func (n *FakeNode) GetChild(i int) (host.NativeNode, error) {
	if n.panicAt != nil && *n.panicAt >= 0 {
		if atomic.AddInt64(n.childSeq, 1) == *n.panicAt {
			panic("fault injected on child fetch")
		}
	}
	if i < 0 || i >= len(n.spec.Children) {
		return nil, fmt.Errorf("no child at index %d", i)
	}
	atomic.AddInt64(n.acquired, 1)
	return &FakeNode{
		spec:     n.spec.Children[i],
		acquired: n.acquired,
		released: n.released,
		panicAt:  n.panicAt,
		childSeq: n.childSeq,
	}, nil
}

// Release implements host.NativeNode.
func (n *FakeNode) Release() { atomic.AddInt64(n.released, 1) }

// FakeHost implements host.Host over a mutable NodeSpec tree. All
// methods are safe for concurrent use.
type FakeHost struct {
	mu   sync.Mutex
	root *NodeSpec

	events chan host.Event

	acquired int64
	released int64

	// PanicOnChildFetch injects a panic on the Nth GetChild call
	// (1-based) across a walk; -1 disables injection.
	PanicOnChildFetch int64
	childSeq          int64

	// Performed records every gesture invoked via Perform.
	Performed []model.ActionType
	// GlobalActions records back/home/recents/notifications calls.
	GlobalActions []string
	// PerformErr, when non-nil, is returned by Perform; nil means success.
	PerformErr error
}

// NewFakeHost creates a FakeHost with the given root tree (nil for a
// torn-down window).
func NewFakeHost(root *NodeSpec) *FakeHost {
	return &FakeHost{
		root:              root,
		events:            make(chan host.Event, 16),
		PanicOnChildFetch: -1,
	}
}

// SetRoot swaps the foreground tree, as a window change would.
func (h *FakeHost) SetRoot(root *NodeSpec) {
	h.mu.Lock()
	h.root = root
	h.mu.Unlock()
}

// Events implements host.Host.
func (h *FakeHost) Events() <-chan host.Event { return h.events }

// Emit delivers an accessibility event, attaching a fresh source handle
// for the current root (nil source if the window is gone).
func (h *FakeHost) Emit(kind host.EventKind, packageName string) {
	var source host.NativeNode
	if n, err := h.Root(); err == nil && n != nil {
		source = n
	}
	h.events <- host.Event{Kind: kind, PackageName: packageName, Source: source, ObservedAt: time.Now()}
}

// CloseEvents ends the event stream, as a host disconnect would.
func (h *FakeHost) CloseEvents() { close(h.events) }

// Root implements host.Host, handing out a fresh counted handle.
func (h *FakeHost) Root() (host.NativeNode, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.root == nil {
		return nil, nil
	}
	atomic.AddInt64(&h.acquired, 1)
	return &FakeNode{
		spec:     h.root,
		acquired: &h.acquired,
		released: &h.released,
		panicAt:  &h.PanicOnChildFetch,
		childSeq: &h.childSeq,
	}, nil
}

// Locate implements host.Host, resolving a structural path like
// "FrameLayout/ListView:0/2/1" against the current tree by its child
// index chain (the part after the class chain).
func (h *FakeHost) Locate(ctx context.Context, structuralPath string) (host.NativeNode, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.root == nil {
		return nil, nil
	}
	indexChain := structuralPath
	if i := strings.LastIndex(structuralPath, ":"); i >= 0 {
		indexChain = structuralPath[i+1:]
	}
	spec := h.root
	segments := strings.Split(indexChain, "/")
	// The first segment addresses the root itself.
	for _, seg := range segments[1:] {
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= len(spec.Children) {
			return nil, nil
		}
		spec = spec.Children[i]
	}
	atomic.AddInt64(&h.acquired, 1)
	return &FakeNode{
		spec:     spec,
		acquired: &h.acquired,
		released: &h.released,
		panicAt:  &h.PanicOnChildFetch,
		childSeq: &h.childSeq,
	}, nil
}

// Perform implements host.Host.
func (h *FakeHost) Perform(ctx context.Context, action model.ActionType, node host.NativeNode) (bool, error) {
	h.mu.Lock()
	h.Performed = append(h.Performed, action)
	err := h.PerformErr
	h.mu.Unlock()
	if err != nil {
		return false, err
	}
	return true, nil
}

func (h *FakeHost) globalAction(name string) error {
	h.mu.Lock()
	h.GlobalActions = append(h.GlobalActions, name)
	h.mu.Unlock()
	return nil
}

// Back implements host.Host.
func (h *FakeHost) Back(ctx context.Context) error { return h.globalAction("back") }

// GoHome implements host.Host.
func (h *FakeHost) GoHome(ctx context.Context) error { return h.globalAction("home") }

// RecentApps implements host.Host.
func (h *FakeHost) RecentApps(ctx context.Context) error { return h.globalAction("recents") }

// Notifications implements host.Host.
func (h *FakeHost) Notifications(ctx context.Context) error { return h.globalAction("notifications") }

// HandleCounts returns (acquired, released) totals across all handles
// this host has handed out.
func (h *FakeHost) HandleCounts() (int64, int64) {
	return atomic.LoadInt64(&h.acquired), atomic.LoadInt64(&h.released)
}

// PerformedActions returns a snapshot of every gesture invoked so far.
func (h *FakeHost) PerformedActions() []model.ActionType {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]model.ActionType, len(h.Performed))
	copy(out, h.Performed)
	return out
}

// GlobalActionLog returns a snapshot of the global actions invoked so far.
func (h *FakeHost) GlobalActionLog() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.GlobalActions))
	copy(out, h.GlobalActions)
	return out
}

// GrammarPush records one SetActivePhrases call.
type GrammarPush struct {
	Added   []string
	Removed []string
}

// FakeSpeechEngine implements host.SpeechEngine, recording pushes and
// letting tests emit recognition results.
type FakeSpeechEngine struct {
	mu      sync.Mutex
	pushes  []GrammarPush
	results chan host.SpeechResult

	// PushErr, when non-nil, is returned by SetActivePhrases FailPushes
	// more times before the engine recovers.
	PushErr    error
	FailPushes int
}

// NewFakeSpeechEngine creates a FakeSpeechEngine.
func NewFakeSpeechEngine() *FakeSpeechEngine {
	return &FakeSpeechEngine{results: make(chan host.SpeechResult, 16)}
}

// SetActivePhrases implements host.SpeechEngine.
func (e *FakeSpeechEngine) SetActivePhrases(ctx context.Context, added, removed []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.PushErr != nil && e.FailPushes > 0 {
		e.FailPushes--
		return e.PushErr
	}
	e.pushes = append(e.pushes, GrammarPush{Added: append([]string(nil), added...), Removed: append([]string(nil), removed...)})
	return nil
}

// Results implements host.SpeechEngine.
func (e *FakeSpeechEngine) Results() <-chan host.SpeechResult { return e.results }

// Speak emits one recognition result, as the recognizer thread would.
func (e *FakeSpeechEngine) Speak(text string, confidence float64) {
	e.results <- host.SpeechResult{Text: text, Confidence: confidence, ObservedAt: time.Now()}
}

// Pushes returns a snapshot of every recorded grammar push.
func (e *FakeSpeechEngine) Pushes() []GrammarPush {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]GrammarPush, len(e.pushes))
	copy(out, e.pushes)
	return out
}

// SampleScreenTree returns a small realistic form screen: a root frame
// with a scrollable list of two buttons and a text field.
func SampleScreenTree() *NodeSpec {
	list := Node("android.widget.ListView", "")
	list.Attrs.IsScrollable = true
	first := Button("Compose")
	first.Attrs.ListIndex = 0
	second := Button("Search")
	second.Attrs.ListIndex = 1
	list.Children = []*NodeSpec{first, second}

	field := Node("android.widget.EditText", "")
	field.Attrs.PlaceholderText = "Email address"
	field.Attrs.IsFocusable = true
	field.Attrs.IsClickable = true

	return Node("android.widget.FrameLayout", "", list, field)
}

// SampleElement returns a persisted-shape Element for store tests.
func SampleElement(packageName, screenHash, elementHash string) *model.Element {
	return &model.Element{
		ElementHash: elementHash,
		PackageName: packageName,
		ScreenHash:  screenHash,
		ClassName:   "android.widget.Button",
		Text:        "OK",
		IsClickable: true,
		IsEnabled:   true,
		Depth:       1,
		LastSeenAt:  time.Now(),
	}
}
