package coordinator

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/voxmap/voxmap/internal/config"
	"github.com/voxmap/voxmap/internal/host"
)

// operation identifies a debounced class of work, distinct from
// host.EventKind: several event kinds can map to the same debounced
// operation (e.g. CONTENT_CHANGE and FOCUS both debounce against
// opContentChange), and GRAMMAR_PUSH has no corresponding host event at
// all — it debounces the Indexer's own push, not an incoming event.
type operation string

const (
	opContentChange operation = "CONTENT_CHANGE"
	opScroll        operation = "SCROLL"
	opGrammarPush   operation = "GRAMMAR_PUSH"
	opWindowChange  operation = "WINDOW_CHANGE"
)

// operationFor maps a host event kind to the debounced operation that
// governs it. FOCUS and NOTIFICATION ride the content-change row since
// only the operations that recur often enough to need their own tuning
// carry dedicated intervals; WINDOW_CHANGE is always immediate.
func operationFor(kind host.EventKind) operation {
	switch kind {
	case host.EventScroll:
		return opScroll
	case host.EventWindowChange:
		return opWindowChange
	default:
		return opContentChange
	}
}

// debounceTable holds the last-fire timestamp per (operation, package)
// pair and answers whether enough time has elapsed to fire again, per
// the device speed class's configured interval. There is no single
// global debounce window: each operation debounces independently
// within each foreground package.
type debounceTable struct {
	mu   sync.Mutex
	last map[string]time.Time

	speedClass config.DeviceSpeedClass
	intervals  map[operation]time.Duration

	// highThrottle is set while the host signals memory pressure;
	// skippable operations are throttled harder until it clears.
	highThrottle atomic.Bool
}

func newDebounceTable(cfg config.DebounceConfig) *debounceTable {
	return &debounceTable{
		last:       make(map[string]time.Time),
		speedClass: cfg.DeviceSpeedClass,
		intervals:  intervalsFor(cfg),
	}
}

func intervalsFor(cfg config.DebounceConfig) map[operation]time.Duration {
	ms := func(slow, medium, fast int, class config.DeviceSpeedClass) int {
		switch class {
		case config.SpeedSlow:
			return slow
		case config.SpeedFast:
			return fast
		default:
			return medium
		}
	}
	class := cfg.DeviceSpeedClass
	return map[operation]time.Duration{
		opContentChange: time.Duration(ms(cfg.ContentChangeSlowMs, cfg.ContentChangeMediumMs, cfg.ContentChangeFastMs, class)) * time.Millisecond,
		opScroll:        time.Duration(ms(cfg.ScrollSlowMs, cfg.ScrollMediumMs, cfg.ScrollFastMs, class)) * time.Millisecond,
		opGrammarPush:   time.Duration(ms(cfg.GrammarPushSlowMs, cfg.GrammarPushMediumMs, cfg.GrammarPushFastMs, class)) * time.Millisecond,
		opWindowChange:  0,
	}
}

// key scopes the last-fire timestamp to one operation within one
// foreground package, so two packages debounce independently.
func key(op operation, packageName string) string {
	return string(op) + "|" + packageName
}

// allow reports whether op may fire now for packageName, and if so
// records the fire time. WINDOW_CHANGE is never debounced.
func (d *debounceTable) allow(op operation, packageName string, now time.Time) bool {
	interval := d.intervals[op]
	if d.highThrottle.Load() {
		interval *= 2
	}
	if interval <= 0 {
		d.mu.Lock()
		d.last[key(op, packageName)] = now
		d.mu.Unlock()
		return true
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	k := key(op, packageName)
	if last, ok := d.last[k]; ok && now.Sub(last) < interval {
		return false
	}
	d.last[k] = now
	return true
}

// setHighThrottle toggles the resource-exhaustion degraded mode, which
// stretches every skippable debounce interval until pressure clears.
func (d *debounceTable) setHighThrottle(on bool) {
	d.highThrottle.Store(on)
}
