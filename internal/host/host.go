// Package host declares the contracts the engine consumes from the
// embedding accessibility service and speech recognizer. Nothing in
// this package performs actual platform calls; implementations live in
// the embedding application, and this package only fixes the shape
// every other component programs against.
package host

import (
	"context"
	"time"

	"github.com/voxmap/voxmap/internal/model"
)

// NodeAttributes is a snapshot of one accessibility node's fields at the
// moment it was read. It is a value type: once captured it outlives the
// native handle it was read from.
type NodeAttributes struct {
	ClassName          string
	ResourceID         string
	Text               string
	ContentDescription string
	PlaceholderText    string
	Bounds             model.Bounds
	IsClickable        bool
	IsLongClickable    bool
	IsScrollable       bool
	IsFocusable        bool
	IsEnabled          bool
	IsVisible          bool
	InputType          string
	ListIndex          int // -1 if not part of an indexed list
}

// NativeNode is a single accessibility node handle obtained from the
// host. Every NativeNode the engine obtains, including the root and the
// handle reachable from an event's Source, must have Release called on
// it exactly once, on every exit path. The host's own auto-recycling
// claim is not relied upon.
type NativeNode interface {
	Attributes() NodeAttributes
	ChildCount() int
	GetChild(i int) (NativeNode, error)
	Release()
}

// EventKind enumerates the accessibility event taxonomy.
type EventKind string

const (
	EventWindowChange  EventKind = "WINDOW_CHANGE"
	EventContentChange EventKind = "CONTENT_CHANGE"
	EventScroll        EventKind = "SCROLL"
	EventFocus         EventKind = "FOCUS"
	EventNotification  EventKind = "NOTIFICATION"
)

// Skippable reports whether the Coordinator may drop an event of this
// kind while a same-kind event is already in flight.
func (k EventKind) Skippable() bool {
	return k != EventWindowChange
}

// Event is one accessibility event delivered by the host. Source owns a
// native handle the receiver must release.
type Event struct {
	Kind        EventKind
	PackageName string
	Source      NativeNode
	ObservedAt  time.Time
}

// Host is the accessibility API the engine consumes.
// Events() delivers the host's event stream; Root returns the current
// foreground window's root node handle (nil, nil if the window has been
// torn down); Perform invokes a gesture on a still-live handle; the
// global-action methods map to host-level intents with no element
// target.
//
// Locate re-acquires a fresh handle for a previously-scraped element,
// keyed by the structural path it was walked at (the same path
// hashid.HashElement folds into element_hash). A command's target is
// identified across tasks by this stable path, never by a retained
// handle, since handles are never shared across tasks. Locate
// returns (nil, nil) if no node at that path exists on the current
// foreground window (the screen moved on since the command's grammar
// was pushed).
type Host interface {
	Events() <-chan Event
	Root() (NativeNode, error)
	Locate(ctx context.Context, structuralPath string) (NativeNode, error)
	Perform(ctx context.Context, action model.ActionType, node NativeNode) (bool, error)
	Back(ctx context.Context) error
	GoHome(ctx context.Context) error
	RecentApps(ctx context.Context) error
	Notifications(ctx context.Context) error
}

// SpeechResult is one recognized utterance from the speech engine.
type SpeechResult struct {
	Text       string
	Confidence float64
	ObservedAt time.Time
}

// SpeechEngine is the speech recognizer the engine consumes.
// SetActivePhrases must be called from a single owner, at most
// once concurrently, no more often than the GRAMMAR_PUSH debounce
// allows; it may block while the engine recompiles its grammar.
// Results() delivers recognized utterances on the engine's own
// goroutine — callers must not block it and must buffer with a bounded,
// drop-oldest channel (see ResultBuffer).
type SpeechEngine interface {
	SetActivePhrases(ctx context.Context, added, removed []string) error
	Results() <-chan SpeechResult
}
