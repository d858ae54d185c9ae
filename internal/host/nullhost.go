package host

import (
	"context"

	"github.com/voxmap/voxmap/internal/model"
)

// NullHost is a Host with no windows and no events. The standalone
// daemon binary runs against it until an embedding platform supplies a
// real adapter; it also serves as the inert default in tests that only
// exercise persistence or the debug surface.
type NullHost struct {
	events chan Event
}

// NewNullHost creates a NullHost whose event stream never delivers.
func NewNullHost() *NullHost {
	return &NullHost{events: make(chan Event)}
}

// Events implements Host.
func (h *NullHost) Events() <-chan Event { return h.events }

// Root implements Host; there is never a foreground window.
func (h *NullHost) Root() (NativeNode, error) { return nil, nil }

// Locate implements Host.
func (h *NullHost) Locate(ctx context.Context, structuralPath string) (NativeNode, error) {
	return nil, nil
}

// Perform implements Host; every gesture is rejected.
func (h *NullHost) Perform(ctx context.Context, action model.ActionType, node NativeNode) (bool, error) {
	return false, nil
}

// Back implements Host.
func (h *NullHost) Back(ctx context.Context) error { return nil }

// GoHome implements Host.
func (h *NullHost) GoHome(ctx context.Context) error { return nil }

// RecentApps implements Host.
func (h *NullHost) RecentApps(ctx context.Context) error { return nil }

// Notifications implements Host.
func (h *NullHost) Notifications(ctx context.Context) error { return nil }

// NullSpeechEngine is a SpeechEngine that accepts every grammar push
// and never recognizes anything.
type NullSpeechEngine struct {
	results chan SpeechResult
}

// NewNullSpeechEngine creates a NullSpeechEngine.
func NewNullSpeechEngine() *NullSpeechEngine {
	return &NullSpeechEngine{results: make(chan SpeechResult)}
}

// SetActivePhrases implements SpeechEngine.
func (e *NullSpeechEngine) SetActivePhrases(ctx context.Context, added, removed []string) error {
	return nil
}

// Results implements SpeechEngine.
func (e *NullSpeechEngine) Results() <-chan SpeechResult { return e.results }
