package coordinator

import (
	"time"

	"github.com/voxmap/voxmap/internal/model"
	"github.com/voxmap/voxmap/internal/store"
)

// liveContentTracker implements pipeline.LiveContentFilter. The
// Coordinator feeds it one state row per element per committed scrape
// (TEXT_CHANGED for content-change events, FOCUSED for focus events),
// whether or not the element's value differs from its previous row,
// and it flags an element as live content once rows of that state type
// exceed threshold within window — an element that shows up that often
// is treated as ambient chrome (a clock, a spinner, a live ticker), not
// a signal that the user is on a new logical screen. Detection is a
// sliding-window row-count threshold; see DESIGN.md for the rationale.
type liveContentTracker struct {
	store *store.Store

	window    time.Duration
	threshold int
}

func newLiveContentTracker(s *store.Store, window time.Duration, threshold int) *liveContentTracker {
	return &liveContentTracker{
		store:     s,
		window:    window,
		threshold: threshold,
	}
}

// observe records a state row for elementHash and, once the row count
// of that state type within the tracker's window exceeds its threshold, marks
// the element as live content in the Store so WalkStage's fingerprint
// selection excludes it going forward.
func (t *liveContentTracker) observe(elementHash string, stateType model.StateType, value, triggerSource string) error {
	if err := t.store.AppendStateChange(elementHash, stateType, value, triggerSource); err != nil {
		return err
	}

	count, err := t.store.StateChangeCount(elementHash, stateType, time.Now().Add(-t.window))
	if err != nil {
		return err
	}
	if count > t.threshold {
		return t.store.MarkLiveContent(elementHash, true)
	}
	return nil
}

// IsLive reports whether elementHash is currently flagged as live
// content. Implements pipeline.LiveContentFilter.
func (t *liveContentTracker) IsLive(elementHash string) bool {
	return t.store.IsLiveContent(elementHash)
}
