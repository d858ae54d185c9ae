package coordinator

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/voxmap/voxmap/internal/cache"
	"github.com/voxmap/voxmap/internal/config"
	"github.com/voxmap/voxmap/internal/dispatch"
	"github.com/voxmap/voxmap/internal/hashid"
	"github.com/voxmap/voxmap/internal/host"
	"github.com/voxmap/voxmap/internal/indexer"
	"github.com/voxmap/voxmap/internal/metrics"
	"github.com/voxmap/voxmap/internal/model"
	"github.com/voxmap/voxmap/internal/pipeline"
	"github.com/voxmap/voxmap/internal/store"
	"github.com/voxmap/voxmap/internal/tracing"
)

const (
	actionBudget = 1500 * time.Millisecond
	pushBudget   = 4 * time.Second
)

// ConfirmFunc is invoked when a recognized phrase matched a command but
// acoustic confidence fell in the medium band: the host UI should ask
// the user before the command runs. SuggestFunc is invoked when
// confidence was too low (or nothing matched) and carries the nearest
// candidate phrases instead.
type (
	ConfirmFunc func(cmd *model.GeneratedCommand, result host.SpeechResult)
	SuggestFunc func(suggestions []string, result host.SpeechResult)
)

// Coordinator owns event dispatch, throttling, and cancellation for the
// whole engine. It consumes the host's accessibility event stream on a
// work loop that runs the walk→commit→index→push pipeline, and consumes
// recognized speech on a separate single-owner loop that resolves and
// executes voice commands, so sustained event load can never starve
// command execution.
type Coordinator struct {
	cfg       *config.Config
	hostAPI   host.Host
	engine    host.SpeechEngine
	store     *store.Store
	collector *metrics.Collector
	logger    zerolog.Logger

	commands *indexer.CommandCache
	grammar  *indexer.Grammar
	elements *cache.ElementCache
	resolver *dispatch.Resolver

	scrapeChain *pipeline.Chain
	pushStage   *pipeline.PushStage

	life     *lifecycle
	guards   *eventGuards
	debounce *debounceTable
	breakers *breakers
	live     *liveContentTracker
	results  *host.ResultBuffer

	OnConfirm ConfirmFunc
	OnSuggest SuggestFunc

	mu               sync.Mutex
	inFlightCancels  map[string]context.CancelFunc
	lastQuickHash    map[string]string
	foreground       atomic.Value // string: current foreground package
	overlaySuspended atomic.Bool
	eventsProcessed  atomic.Int64
	lastOverflow     int64

	wg       sync.WaitGroup
	rootCtx  context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

// New wires a Coordinator from its collaborators. The returned
// Coordinator is in the INIT state; call Run to start its loops.
func New(cfg *config.Config, h host.Host, engine host.SpeechEngine, st *store.Store, collector *metrics.Collector, logger zerolog.Logger) (*Coordinator, error) {
	commandCache, err := indexer.NewCommandCache(64, st)
	if err != nil {
		return nil, fmt.Errorf("coordinator: command cache: %w", err)
	}
	elementCache, err := cache.NewElementCache(1024, st)
	if err != nil {
		return nil, fmt.Errorf("coordinator: element cache: %w", err)
	}

	grammar := indexer.NewGrammar()
	live := newLiveContentTracker(st,
		time.Duration(cfg.Retention.LiveContentWindowMs)*time.Millisecond,
		cfg.Retention.LiveContentThreshold)

	c := &Coordinator{
		cfg:       cfg,
		hostAPI:   h,
		engine:    engine,
		store:     st,
		collector: collector,
		logger:    logger.With().Str("component", "coordinator").Logger(),

		commands: commandCache,
		grammar:  grammar,
		elements: elementCache,
		resolver: dispatch.NewResolver(cfg.Grammar.ConfidenceHigh, cfg.Grammar.ConfidenceMedium, cfg.Grammar.FuzzyKNearest),

		life:     newLifecycle(),
		guards:   newEventGuards(),
		debounce: newDebounceTable(cfg.Debounce),
		breakers: newBreakers(cfg.Resilience.CBFailureThreshold,
			time.Duration(cfg.Resilience.CBResetTimeoutMs)*time.Millisecond,
			cfg.Resilience.CBHalfOpenMax),
		live:    live,
		results: host.NewResultBuffer(cfg.Resilience.SpeechResultBuffer),

		inFlightCancels: make(map[string]context.CancelFunc),
		lastQuickHash:   make(map[string]string),
	}
	c.foreground.Store("")

	c.scrapeChain = pipeline.NewChain(
		&pipeline.WalkStage{
			Host:                  h,
			MaxTreeDepth:          cfg.Walker.MaxTreeDepth,
			ScreenFingerprintTopN: cfg.Walker.ScreenFingerprintTopN,
			LiveContentFilter:     live,
			Handles:               collector,
		},
		&pipeline.CommitStage{Store: st},
		&pipeline.IndexStage{Cache: commandCache, ListIndexCap: cfg.Grammar.ListIndexCap},
	)
	c.pushStage = &pipeline.PushStage{Engine: engine, Grammar: grammar}

	return c, nil
}

// Run starts the event loop and the speech-result loop and blocks until
// ctx is cancelled or the host's event stream closes, then performs the
// shutdown sequence. Run transitions INIT → READY on entry.
func (c *Coordinator) Run(ctx context.Context) error {
	c.rootCtx, c.cancel = context.WithCancel(ctx)
	c.life.set(StateReady)
	c.logger.Info().Msg("coordinator ready")

	// Forward recognizer output into the bounded buffer from the
	// engine's own goroutine, so the recognizer is never blocked by a
	// slow consumer.
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-c.rootCtx.Done():
				return
			case r, ok := <-c.engine.Results():
				if !ok {
					return
				}
				c.results.Push(r)
			}
		}
	}()

	c.wg.Add(1)
	go c.speechLoop()

	defer c.Stop()
	for {
		select {
		case <-c.rootCtx.Done():
			return nil
		case ev, ok := <-c.hostAPI.Events():
			if !ok {
				return nil
			}
			c.handleEvent(ev)
		}
	}
}

// Stop performs the shutdown sequence: cancel in-flight work, flush the
// grammar so the recognizer does not retain phrases against a dead
// target, drain and close the speech-result channel, and mark the
// Coordinator TERMINATED. Stop is idempotent and safe to call from any
// goroutine.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		c.life.transitionToShuttingDown()
		c.logger.Info().Msg("coordinator shutting down")

		if c.cancel != nil {
			c.cancel()
		}

		flushCtx, flushCancel := context.WithTimeout(context.Background(), pushBudget)
		defer flushCancel()
		if active := c.grammar.Active(); len(active) > 0 {
			if err := c.engine.SetActivePhrases(flushCtx, nil, active); err != nil {
				c.logger.Warn().Err(err).Msg("flushing grammar on shutdown failed")
			}
			c.grammar.Clear()
		}

		c.results.Close()
		c.wg.Wait()
		c.life.set(StateTerminated)
		c.logger.Info().Msg("coordinator terminated")
	})
}

// State returns the Coordinator's current lifecycle state.
func (c *Coordinator) State() State {
	return c.life.get()
}

// SetMemoryPressure toggles the degraded high-throttle mode: every
// skippable debounce interval is doubled (halving the rate at which
// those operations may fire), and numeric-overlay generation is
// suspended until pressure clears.
func (c *Coordinator) SetMemoryPressure(on bool) {
	c.debounce.setHighThrottle(on)
	c.overlaySuspended.Store(on)
	c.logger.Info().Bool("on", on).Msg("memory pressure mode")
}

// SpeechOverflowed returns the number of speech results dropped because
// the bounded result channel was full.
func (c *Coordinator) SpeechOverflowed() int64 {
	return c.results.Overflowed()
}

// Grammar exposes the active-phrase set, read-only, for the debug
// surface.
func (c *Coordinator) Grammar() *indexer.Grammar {
	return c.grammar
}

// handleEvent applies the pre-debounce filter, the debounce table, and
// the single-owner guard, then hands accepted events to a scrape
// goroutine. The event's source handle is released here on every path.
func (c *Coordinator) handleEvent(ev host.Event) {
	released := false
	releaseSource := func() {
		if !released && ev.Source != nil {
			ev.Source.Release()
			released = true
		}
	}
	defer releaseSource()

	if c.life.get() != StateReady {
		return
	}
	if ev.PackageName == "" || ev.PackageName == c.cfg.EventFilter.SystemUIPackage {
		return
	}

	var sourceAttrs host.NodeAttributes
	if ev.Source != nil {
		sourceAttrs = ev.Source.Attributes()
		if !sourceAttrs.IsVisible {
			return
		}
	}

	if ev.Kind == host.EventWindowChange {
		c.foreground.Store(ev.PackageName)
		c.cancelInFlight(ev.PackageName)
	}

	// Fast path: a content change whose source snapshot is identical to
	// the previously processed one is a no-op.
	if ev.Kind == host.EventContentChange && ev.Source != nil {
		qh := quickHash(ev.PackageName, sourceAttrs)
		c.mu.Lock()
		prev := c.lastQuickHash[ev.PackageName]
		c.lastQuickHash[ev.PackageName] = qh
		c.mu.Unlock()
		if prev == qh {
			return
		}
	}

	op := operationFor(ev.Kind)
	now := time.Now()
	if ev.Kind.Skippable() && !c.debounce.allow(op, ev.PackageName, now) {
		c.collector.RecordDebounceDrop(string(op))
		return
	}

	if !c.guards.tryAcquireProcessing(ev.PackageName, !ev.Kind.Skippable()) {
		c.collector.RecordDebounceDrop(string(op))
		return
	}

	if !c.breakers.scrape.allow() {
		c.guards.releaseProcessing(ev.PackageName)
		c.logger.Warn().Str("package", ev.PackageName).Msg("scrape circuit open, dropping event")
		return
	}

	// The walk re-acquires its own root handle; the event's source is
	// not needed past this point.
	releaseSource()

	budget := c.scrapeBudget(op)
	scrapeCtx, cancel := context.WithTimeout(c.rootCtx, budget)
	c.trackInFlight(ev.PackageName, cancel)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		defer c.untrackInFlight(ev.PackageName)
		defer c.guards.releaseProcessing(ev.PackageName)
		c.runScrape(scrapeCtx, ev)
	}()
}

// scrapeBudget is twice the operation's debounce window; immediate
// operations (WINDOW_CHANGE) borrow the content-change row so they
// still carry a finite wall-clock budget.
func (c *Coordinator) scrapeBudget(op operation) time.Duration {
	interval := c.debounce.intervals[op]
	if interval <= 0 {
		interval = c.debounce.intervals[opContentChange]
	}
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return 2 * interval
}

// runScrape executes walk→commit→index for one accepted event, retrying
// a failed commit once, then pushes the grammar delta if the result is
// still current.
func (c *Coordinator) runScrape(ctx context.Context, ev host.Event) {
	scrapeID := uuid.NewString()
	log := c.logger.With().Str("scrape_id", scrapeID).Str("package", ev.PackageName).Str("kind", string(ev.Kind)).Logger()

	ctx, span := tracing.StartScrapeSpan(ctx, string(ev.Kind))
	defer span.End()
	tracing.SetScrapeEventAttributes(ctx, ev.PackageName, string(ev.Kind))

	c.collector.IncrementActiveScrapes()
	defer c.collector.DecrementActiveScrapes()

	start := time.Now()
	sc := pipeline.NewScrapeContext(pipeline.ScrapeEvent{Kind: ev.Kind, PackageName: ev.PackageName})

	err := c.scrapeChain.Run(ctx, sc)
	if err != nil && ctx.Err() == nil {
		delay := time.Duration(c.cfg.Resilience.ScrapeRetryDelayMs) * time.Millisecond
		log.Warn().Err(err).Dur("retry_in", delay).Msg("scrape failed, retrying once")
		if sleepErr := sleepWithContext(ctx, delay); sleepErr == nil {
			sc = pipeline.NewScrapeContext(pipeline.ScrapeEvent{Kind: ev.Kind, PackageName: ev.PackageName})
			err = c.scrapeChain.Run(ctx, sc)
		}
	}
	if err != nil {
		c.breakers.scrape.recordFailure()
		tracing.RecordError(ctx, err)
		if ctx.Err() != nil {
			log.Debug().Msg("scrape cancelled")
		} else {
			log.Error().Err(err).Msg("scrape failed twice, prior scrape remains authoritative")
		}
		return
	}
	c.breakers.scrape.recordSuccess()
	c.collector.IncrementScrapes()
	c.collector.ObserveWalkDuration(time.Since(start).Seconds())

	// A window change that landed mid-scrape invalidates the index
	// result: the commit stands, but the grammar must not be pushed for
	// a window that is no longer foreground.
	if fg, _ := c.foreground.Load().(string); fg != "" && fg != ev.PackageName {
		sc.Discard("foreground window changed mid-scrape")
	}
	if sc.Discarded {
		log.Debug().Str("reason", sc.DiscardedReason).Msg("scrape result discarded")
		return
	}

	for _, e := range sc.Elements {
		c.elements.Invalidate(e.ElementHash)
	}
	c.recordStateChanges(ev, sc)

	if !c.overlaySuspended.Load() {
		sc.Commands = appendNumericOverlay(sc.Commands, sc.Elements, ev.PackageName)
		if err := c.commands.Put(ev.PackageName, commandPtrs(sc.Commands)); err != nil {
			log.Warn().Err(err).Msg("persisting overlay commands failed")
		}
	}

	c.pushGrammar(ev.PackageName, sc, log)
	tracing.SetScrapeResultAttributes(ctx, sc.ScreenHash, len(sc.Elements), len(sc.Added), len(sc.Removed), sc.Discarded)

	log.Info().
		Str("screen_hash", sc.ScreenHash).
		Int("elements", len(sc.Elements)).
		Int("edges", len(sc.Edges)).
		Int("commands", len(sc.Commands)).
		Msg("scrape committed")

	if n := c.eventsProcessed.Add(1); c.cfg.Retention.RetryCleanupThreshold > 0 &&
		n%int64(c.cfg.Retention.RetryCleanupThreshold) == 0 {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			if rows, pruneErr := c.store.Prune(c.cfg.Retention.HistoryRetentionDays); pruneErr != nil {
				c.logger.Warn().Err(pruneErr).Msg("opportunistic prune failed")
			} else if rows > 0 {
				c.logger.Debug().Int64("rows", rows).Msg("opportunistic prune")
			}
		}()
	}
}

// recordStateChanges appends state-history rows for the event that
// triggered this scrape, feeding the live-content detector.
func (c *Coordinator) recordStateChanges(ev host.Event, sc *pipeline.ScrapeContext) {
	var stateType model.StateType
	switch ev.Kind {
	case host.EventContentChange:
		stateType = model.StateTextChanged
	case host.EventFocus:
		stateType = model.StateFocused
	default:
		return
	}
	for _, e := range sc.Elements {
		if !e.IsActionable() && e.Text == "" {
			continue
		}
		if err := c.live.observe(e.ElementHash, stateType, e.Text, string(ev.Kind)); err != nil {
			c.logger.Debug().Err(err).Msg("recording state change failed")
			return
		}
	}
}

// pushGrammar diffs the scrape's phrases against the active grammar and
// pushes the delta, honoring the grammar-push debounce row, the
// non-reentrancy guard, and exponential backoff on engine failure. The
// active set is committed only after the engine acknowledges, so on
// exhausted retries the engine's last-acknowledged view stays
// authoritative.
func (c *Coordinator) pushGrammar(packageName string, sc *pipeline.ScrapeContext, log zerolog.Logger) {
	if !c.debounce.allow(opGrammarPush, packageName, time.Now()) {
		c.collector.RecordDebounceDrop(string(opGrammarPush))
		return
	}
	if !c.guards.tryAcquirePush() {
		return
	}
	defer c.guards.releasePush()

	if !c.breakers.grammar.allow() {
		log.Warn().Msg("grammar circuit open, delta dropped")
		return
	}

	base := time.Duration(c.cfg.Resilience.GrammarRetryBaseMs) * time.Millisecond
	maxDelay := time.Duration(c.cfg.Resilience.GrammarRetryMaxMs) * time.Millisecond
	attempts := c.cfg.Resilience.GrammarRetryMaxAttempts

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		pushCtx, cancel := context.WithTimeout(c.rootCtx, pushBudget)
		err = c.pushStage.Run(pushCtx, sc)
		cancel()
		if err == nil {
			c.breakers.grammar.recordSuccess()
			c.collector.RecordGrammarPush("ok")
			if len(sc.Added) > 0 || len(sc.Removed) > 0 {
				log.Debug().Int("added", len(sc.Added)).Int("removed", len(sc.Removed)).Msg("grammar pushed")
			}
			return
		}
		if c.rootCtx.Err() != nil {
			return
		}
		if sleepErr := sleepWithContext(c.rootCtx, backoffDelay(attempt, base, maxDelay)); sleepErr != nil {
			return
		}
	}
	c.breakers.grammar.recordFailure()
	c.collector.RecordGrammarPush("error")
	log.Error().Err(err).Msg("grammar push failed after retries, delta dropped")
}

// speechLoop is the single-owner speech-result context. It consumes the
// bounded result buffer and executes matching commands; it never shares
// its goroutine with scrape work, so saturating accessibility events
// cannot starve voice dispatch.
func (c *Coordinator) speechLoop() {
	defer c.wg.Done()
	for r := range c.results.Results() {
		if over := c.results.Overflowed(); over > c.lastOverflow {
			for i := c.lastOverflow; i < over; i++ {
				c.collector.IncrementChannelOverflow()
			}
			c.lastOverflow = over
		}
		if c.life.get() != StateReady {
			continue
		}
		c.dispatchResult(r)
	}
}

// dispatchResult resolves one recognized utterance against the current
// foreground package's command set and acts on the resolution.
func (c *Coordinator) dispatchResult(r host.SpeechResult) {
	packageName, _ := c.foreground.Load().(string)
	if packageName == "" {
		c.collector.RecordDispatchResolution("no_foreground")
		return
	}

	active, err := c.commands.Get(packageName)
	if err != nil {
		c.logger.Warn().Err(err).Msg("loading active commands failed")
		c.collector.RecordDispatchResolution("error")
		return
	}

	res := c.resolver.Resolve(r.Text, r.Confidence, active)
	switch res.Outcome {
	case dispatch.OutcomeExecute:
		c.collector.RecordDispatchResolution("execute")
		c.execute(res.Command, r)
	case dispatch.OutcomeConfirm:
		c.collector.RecordDispatchResolution("confirm")
		if c.OnConfirm != nil {
			c.OnConfirm(res.Command, r)
		}
	default:
		c.collector.RecordDispatchResolution("suggest")
		if c.OnSuggest != nil {
			c.OnSuggest(res.Suggestions, r)
		}
	}
}

// Execute runs a confirmed command; the host layer calls this after the
// user accepts a medium-confidence confirmation prompt.
func (c *Coordinator) Execute(cmd *model.GeneratedCommand, r host.SpeechResult) {
	c.execute(cmd, r)
}

func (c *Coordinator) execute(cmd *model.GeneratedCommand, r host.SpeechResult) {
	ctx, cancel := context.WithTimeout(c.rootCtx, actionBudget)
	defer cancel()

	start := time.Now()
	succeeded, err := c.performCommand(ctx, cmd)
	latency := time.Since(start).Milliseconds()

	if cmd.ElementHash != "" {
		if recErr := c.store.RecordInteraction(cmd.ElementHash, cmd.ActionType, succeeded, latency); recErr != nil {
			c.logger.Warn().Err(recErr).Msg("recording interaction failed")
		}
	}
	if succeeded {
		if touchErr := c.store.TouchCommand(cmd.PackageName, cmd.Phrase); touchErr != nil {
			c.logger.Debug().Err(touchErr).Msg("touching command failed")
		}
	}

	evt := c.logger.Info()
	if !succeeded {
		evt = c.logger.Warn().Err(err)
	}
	evt.Str("phrase", cmd.Phrase).
		Str("action", string(cmd.ActionType)).
		Float64("confidence", r.Confidence).
		Int64("latency_ms", latency).
		Bool("succeeded", succeeded).
		Msg("voice command dispatched")
}

// performCommand maps a command back to a host action. Element-bound
// commands re-acquire a fresh handle via Locate (handles are never
// retained across tasks) and release it when the gesture completes.
func (c *Coordinator) performCommand(ctx context.Context, cmd *model.GeneratedCommand) (bool, error) {
	if cmd.ActionType == model.ActionSystem {
		return c.performSystem(ctx, cmd.Phrase)
	}

	hash, err := dispatch.ResolveElement(cmd)
	if err != nil {
		// Scroll commands without a bound element act on the window.
		ok, perr := c.hostAPI.Perform(ctx, cmd.ActionType, nil)
		return ok, perr
	}

	elem, err := c.elements.Get(hash)
	if err != nil {
		return false, fmt.Errorf("coordinator: element %s no longer known: %w", hash, err)
	}

	node, err := c.hostAPI.Locate(ctx, elem.StructuralPath)
	if err != nil {
		return false, fmt.Errorf("coordinator: locating element: %w", err)
	}
	if node == nil {
		return false, fmt.Errorf("coordinator: element %s not on current screen", hash)
	}
	defer node.Release()

	return c.hostAPI.Perform(ctx, cmd.ActionType, node)
}

func (c *Coordinator) performSystem(ctx context.Context, phrase string) (bool, error) {
	var err error
	switch phrase {
	case "go back":
		err = c.hostAPI.Back(ctx)
	case "go home":
		err = c.hostAPI.GoHome(ctx)
	case "recent apps":
		err = c.hostAPI.RecentApps(ctx)
	default:
		return false, fmt.Errorf("coordinator: unknown system phrase %q", phrase)
	}
	return err == nil, err
}

func (c *Coordinator) trackInFlight(packageName string, cancel context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.inFlightCancels[packageName]; ok {
		prev()
	}
	c.inFlightCancels[packageName] = cancel
}

func (c *Coordinator) untrackInFlight(packageName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlightCancels, packageName)
}

// cancelInFlight cancels any scrape currently running for packageName;
// a window change supersedes whatever was mid-flight for that window.
func (c *Coordinator) cancelInFlight(packageName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cancel, ok := c.inFlightCancels[packageName]; ok {
		cancel()
		delete(c.inFlightCancels, packageName)
	}
}

// quickHash summarizes an event source's visible snapshot so repeated
// CONTENT_CHANGE events over an unchanged subtree can be dropped
// without walking the tree.
func quickHash(packageName string, a host.NodeAttributes) string {
	return hashid.HashElement(
		hashid.Present(packageName),
		hashid.Present(a.ClassName),
		hashid.Present(a.ResourceID),
		hashid.Present(a.Text),
		hashid.Present(a.ContentDescription),
		hashid.Present(fmt.Sprintf("%d:%d:%d:%d", a.Bounds.Left, a.Bounds.Top, a.Bounds.Right, a.Bounds.Bottom)),
	)
}

// appendNumericOverlay adds the ephemeral "1".."N" badge phrases for
// every actionable element on the committed screen. Overlay commands
// are never persistent and lose every disambiguation contest by
// construction, since their phrases are purely numeric and label
// phrases never are.
func appendNumericOverlay(commands []model.GeneratedCommand, elements []*model.Element, packageName string) []model.GeneratedCommand {
	byHash := make(map[string]*model.Element, len(elements))
	for _, e := range elements {
		byHash[e.ElementHash] = e
	}
	for _, ov := range indexer.GenerateNumericOverlay(elements) {
		elem := byHash[ov.ElementHash]
		action := model.ActionClick
		if elem != nil && !elem.IsClickable && elem.IsLongClickable {
			action = model.ActionLongClick
		}
		commands = append(commands, model.GeneratedCommand{
			PackageName: packageName,
			ElementHash: ov.ElementHash,
			Phrase:      strconv.Itoa(ov.Badge),
			ActionType:  action,
			Confidence:  1.0,
		})
	}
	return commands
}

func commandPtrs(commands []model.GeneratedCommand) []*model.GeneratedCommand {
	out := make([]*model.GeneratedCommand, len(commands))
	for i := range commands {
		out[i] = &commands[i]
	}
	return out
}
