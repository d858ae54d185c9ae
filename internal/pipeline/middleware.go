package pipeline

import "context"

// Stage is one step of the event→walk→commit→index→push scrape
// pipeline. Stages run in a fixed order over a single ScrapeContext;
// there is no response phase to run in reverse. A scrape is
// one-directional, and a stage that wants to stop later stages from
// acting calls ScrapeContext.Discard instead of returning early
// itself, so that any work a stage already committed (e.g. the Store
// write) still stands.
type Stage interface {
	// Name returns the stage's name, used for timings and tracing.
	Name() string

	// Enabled reports whether this stage is active.
	Enabled() bool

	// Run executes the stage against sc. An error aborts the chain;
	// setting sc.Discarded does not abort it but later stages should
	// check it and skip their own work.
	Run(ctx context.Context, sc *ScrapeContext) error
}
