package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/voxmap/voxmap/internal/tracing"
)

// recoverStage runs fn inside a deferred recover so that a panicking
// stage does not crash the entire process. If a panic is caught it is
// converted into an error that includes the stage name.
func recoverStage(name string, fn func() error) (retErr error) {
	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("stage %s: panic: %v", name, r)
		}
	}()
	return fn()
}

// Chain executes an ordered sequence of Stage against one
// ScrapeContext in a single forward pass; a scrape has no "response"
// to unwind back through.
type Chain struct {
	stages []Stage

	mu      sync.RWMutex
	timings map[string]time.Duration
}

// NewChain creates a new Chain from the given stages, run in order.
func NewChain(stages ...Stage) *Chain {
	return &Chain{
		stages:  stages,
		timings: make(map[string]time.Duration),
	}
}

// Run executes each enabled stage in order. A stage that returns an
// error aborts the chain immediately. A stage that calls sc.Discard
// does not abort the chain by itself; later stages are expected to
// check sc.Discarded and skip their own work, so that a stage already
// run (e.g. the Store commit) is not undone.
func (c *Chain) Run(ctx context.Context, sc *ScrapeContext) error {
	for _, st := range c.stages {
		if !st.Enabled() {
			continue
		}

		name := st.Name()
		stCtx, span := tracing.StartStageSpan(ctx, name)
		start := time.Now()

		err := recoverStage(name, func() error {
			return st.Run(stCtx, sc)
		})
		elapsed := time.Since(start)

		c.recordTiming(name, elapsed)

		if err != nil {
			tracing.RecordError(stCtx, err)
			span.End()
			return fmt.Errorf("stage %s: %w", name, err)
		}
		span.End()

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return nil
}

// Timings returns a snapshot of the latest per-stage execution times.
func (c *Chain) Timings() map[string]time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := make(map[string]time.Duration, len(c.timings))
	for k, v := range c.timings {
		snapshot[k] = v
	}
	return snapshot
}

// Stages returns the ordered list of stages in the chain.
func (c *Chain) Stages() []Stage {
	result := make([]Stage, len(c.stages))
	copy(result, c.stages)
	return result
}

func (c *Chain) recordTiming(name string, d time.Duration) {
	c.mu.Lock()
	c.timings[name] = d
	c.mu.Unlock()
}
