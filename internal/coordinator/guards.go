package coordinator

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

// eventGuards holds the Coordinator's single-owner flags. The
// processing flag is keyed per package so two
// foreground apps can scrape concurrently without one blocking the
// other; is_grammar_pushing is global because the Indexer pushes to one
// speech engine at a time regardless of which package triggered it.
type eventGuards struct {
	mu        sync.Mutex
	inFlight  map[string]bool
	pushing   atomic.Bool
}

func newEventGuards() *eventGuards {
	return &eventGuards{inFlight: make(map[string]bool)}
}

// tryAcquireProcessing reports whether packageName's processing flag
// was unset and is now held by the caller. A non-skippable event
// (WINDOW_CHANGE) always acquires, superseding whatever scrape was in
// flight — the caller is responsible for cancelling the superseded
// scrape's context.
func (g *eventGuards) tryAcquireProcessing(packageName string, nonSkippable bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight[packageName] && !nonSkippable {
		return false
	}
	g.inFlight[packageName] = true
	return true
}

func (g *eventGuards) releaseProcessing(packageName string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, packageName)
}

// tryAcquirePush reports whether the grammar-push flag was unset and is
// now held by the caller. Grammar pushes are never reentrant
// regardless of package.
func (g *eventGuards) tryAcquirePush() bool {
	return g.pushing.CompareAndSwap(false, true)
}

func (g *eventGuards) releasePush() {
	g.pushing.Store(false)
}

// cbState is one of a circuitBreaker's three states.
type cbState int

const (
	cbClosed cbState = iota
	cbOpen
	cbHalfOpen
)

// circuitBreaker is a three-state breaker used to degrade a subsystem
// (scrape, grammar push) under repeated failure instead of retrying
// forever, keyed per subsystem name.
type circuitBreaker struct {
	mu sync.Mutex

	state            cbState
	failureThreshold int
	resetTimeout     time.Duration
	halfOpenMax      int

	consecutiveFailures int
	halfOpenSuccesses   int
	lastFailureTime     time.Time
}

func newCircuitBreaker(failureThreshold int, resetTimeout time.Duration, halfOpenMax int) *circuitBreaker {
	return &circuitBreaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		halfOpenMax:      halfOpenMax,
	}
}

func (cb *circuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case cbClosed:
		return true
	case cbOpen:
		if time.Since(cb.lastFailureTime) >= cb.resetTimeout {
			cb.state = cbHalfOpen
			cb.halfOpenSuccesses = 0
			return true
		}
		return false
	default: // cbHalfOpen
		return true
	}
}

func (cb *circuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.consecutiveFailures = 0
	if cb.state == cbHalfOpen {
		cb.halfOpenSuccesses++
		if cb.halfOpenSuccesses >= cb.halfOpenMax {
			cb.state = cbClosed
		}
	}
}

func (cb *circuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.consecutiveFailures++
	cb.lastFailureTime = time.Now()
	switch cb.state {
	case cbClosed:
		if cb.consecutiveFailures >= cb.failureThreshold {
			cb.state = cbOpen
		}
	case cbHalfOpen:
		cb.state = cbOpen
		cb.halfOpenSuccesses = 0
	}
}

func (cb *circuitBreaker) State() cbState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// breakers bundles the two circuit breakers the Coordinator degrades
// independently: one for Store.ReplaceScrape failures, one for
// speech-engine grammar pushes.
type breakers struct {
	scrape  *circuitBreaker
	grammar *circuitBreaker
}

func newBreakers(failureThreshold int, resetTimeout time.Duration, halfOpenMax int) *breakers {
	return &breakers{
		scrape:  newCircuitBreaker(failureThreshold, resetTimeout, halfOpenMax),
		grammar: newCircuitBreaker(failureThreshold, resetTimeout, halfOpenMax),
	}
}

// backoffDelay calculates the delay for the given attempt using
// exponential backoff with full jitter, clamped to [0, maxDelay].
func backoffDelay(attempt int, base, maxDelay time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	exp := math.Pow(2, float64(attempt))
	delay := time.Duration(float64(base) * exp)
	if delay > maxDelay {
		delay = maxDelay
	}
	if delay > 0 {
		delay = time.Duration(rand.Int63n(int64(delay)))
	}
	return delay
}

// sleepWithContext sleeps for d, returning early with ctx.Err() if ctx
// is cancelled first.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
