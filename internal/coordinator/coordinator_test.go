package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/voxmap/voxmap/internal/config"
	"github.com/voxmap/voxmap/internal/host"
	"github.com/voxmap/voxmap/internal/metrics"
	"github.com/voxmap/voxmap/internal/model"
	"github.com/voxmap/voxmap/internal/testutil"
)

const testPackage = "com.example.mail"

func newTestCoordinator(t *testing.T, h *testutil.FakeHost, engine *testutil.FakeSpeechEngine) *Coordinator {
	t.Helper()
	cfg := testutil.NewTestConfig(t)
	cfg.Debounce.DeviceSpeedClass = config.SpeedFast
	st := testutil.NewTestStore(t)

	c, err := New(cfg, h, engine, st, metrics.NewCollector(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func startCoordinator(t *testing.T, c *Coordinator) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		c.Stop()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("coordinator did not shut down")
		}
	})
}

// waitFor polls cond until it returns true or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestCoordinator_ScrapeCommitsAndPushesGrammar(t *testing.T) {
	h := testutil.NewFakeHost(testutil.SampleScreenTree())
	engine := testutil.NewFakeSpeechEngine()
	c := newTestCoordinator(t, h, engine)
	startCoordinator(t, c)

	h.Emit(host.EventWindowChange, testPackage)

	if !waitFor(t, 3*time.Second, func() bool { return len(engine.Pushes()) > 0 }) {
		t.Fatal("no grammar push after window change")
	}

	pushed := engine.Pushes()[0]
	want := map[string]bool{"compose": false, "search": false, "go back": false}
	for _, p := range pushed.Added {
		if _, ok := want[p]; ok {
			want[p] = true
		}
	}
	for phrase, seen := range want {
		if !seen {
			t.Errorf("phrase %q missing from pushed grammar %v", phrase, pushed.Added)
		}
	}

	app, err := c.store.GetApp(testPackage)
	if err != nil {
		t.Fatalf("GetApp: %v", err)
	}
	if app.ScrapeCount < 1 {
		t.Errorf("scrape count = %d, want >= 1", app.ScrapeCount)
	}
}

func TestCoordinator_BurstCollapsesToOneScrape(t *testing.T) {
	h := testutil.NewFakeHost(testutil.SampleScreenTree())
	engine := testutil.NewFakeSpeechEngine()
	c := newTestCoordinator(t, h, engine)
	startCoordinator(t, c)

	h.Emit(host.EventWindowChange, testPackage)
	if !waitFor(t, 3*time.Second, func() bool { return len(engine.Pushes()) > 0 }) {
		t.Fatal("initial scrape never completed")
	}

	// A burst of content changes within one debounce window: the quick
	// hash drops the identical ones and the debounce table absorbs the
	// rest, so at most one further commit lands.
	before, err := c.store.GetApp(testPackage)
	if err != nil {
		t.Fatalf("GetApp: %v", err)
	}
	for i := 0; i < 100; i++ {
		h.Emit(host.EventContentChange, testPackage)
	}
	time.Sleep(600 * time.Millisecond)

	after, err := c.store.GetApp(testPackage)
	if err != nil {
		t.Fatalf("GetApp: %v", err)
	}
	if got := after.ScrapeCount - before.ScrapeCount; got > 1 {
		t.Errorf("burst caused %d commits, want <= 1", got)
	}
}

func TestCoordinator_SystemUIEventsDropped(t *testing.T) {
	h := testutil.NewFakeHost(testutil.SampleScreenTree())
	engine := testutil.NewFakeSpeechEngine()
	c := newTestCoordinator(t, h, engine)
	startCoordinator(t, c)

	h.Emit(host.EventWindowChange, c.cfg.EventFilter.SystemUIPackage)
	time.Sleep(200 * time.Millisecond)

	if n := len(engine.Pushes()); n != 0 {
		t.Errorf("system UI event produced %d grammar pushes, want 0", n)
	}
	acquired, released := h.HandleCounts()
	if acquired != released {
		t.Errorf("handle accounting: acquired %d, released %d", acquired, released)
	}
}

func TestCoordinator_TornDownWindowIsNoOp(t *testing.T) {
	h := testutil.NewFakeHost(nil)
	engine := testutil.NewFakeSpeechEngine()
	c := newTestCoordinator(t, h, engine)
	startCoordinator(t, c)

	h.Emit(host.EventWindowChange, testPackage)
	time.Sleep(200 * time.Millisecond)

	if n := len(engine.Pushes()); n != 0 {
		t.Errorf("torn-down window produced %d grammar pushes, want 0", n)
	}
}

func TestCoordinator_SpeechResultExecutesCommand(t *testing.T) {
	h := testutil.NewFakeHost(testutil.SampleScreenTree())
	engine := testutil.NewFakeSpeechEngine()
	c := newTestCoordinator(t, h, engine)
	startCoordinator(t, c)

	h.Emit(host.EventWindowChange, testPackage)
	if !waitFor(t, 3*time.Second, func() bool { return len(engine.Pushes()) > 0 }) {
		t.Fatal("scrape never completed")
	}

	engine.Speak("compose", 0.95)

	if !waitFor(t, 2*time.Second, func() bool { return len(h.PerformedActions()) > 0 }) {
		t.Fatal("high-confidence speech result did not execute a gesture")
	}
	if got := h.PerformedActions()[0]; got != model.ActionClick {
		t.Errorf("performed action = %s, want CLICK", got)
	}

	interactions, err := c.store.RecentInteractions("", 10)
	if err == nil && len(interactions) == 0 {
		// Interactions are keyed per element; resolve the command to
		// check its element's log instead.
		cmds, _ := c.commands.Get(testPackage)
		for _, cmd := range cmds {
			if cmd.Phrase == "compose" {
				rows, _ := c.store.RecentInteractions(cmd.ElementHash, 10)
				if len(rows) == 0 {
					t.Error("no interaction recorded for executed command")
				}
			}
		}
	}
}

func TestCoordinator_SystemCommandInvokesGlobalAction(t *testing.T) {
	h := testutil.NewFakeHost(testutil.SampleScreenTree())
	engine := testutil.NewFakeSpeechEngine()
	c := newTestCoordinator(t, h, engine)
	startCoordinator(t, c)

	h.Emit(host.EventWindowChange, testPackage)
	if !waitFor(t, 3*time.Second, func() bool { return len(engine.Pushes()) > 0 }) {
		t.Fatal("scrape never completed")
	}

	engine.Speak("go back", 0.95)

	if !waitFor(t, 2*time.Second, func() bool { return len(h.GlobalActionLog()) > 0 }) {
		t.Fatal("system phrase did not invoke a global action")
	}
	if got := h.GlobalActionLog()[0]; got != "back" {
		t.Errorf("global action = %q, want back", got)
	}
}

func TestCoordinator_MediumConfidenceAsksForConfirmation(t *testing.T) {
	h := testutil.NewFakeHost(testutil.SampleScreenTree())
	engine := testutil.NewFakeSpeechEngine()
	c := newTestCoordinator(t, h, engine)

	confirmed := make(chan *model.GeneratedCommand, 1)
	c.OnConfirm = func(cmd *model.GeneratedCommand, _ host.SpeechResult) {
		confirmed <- cmd
	}
	startCoordinator(t, c)

	h.Emit(host.EventWindowChange, testPackage)
	if !waitFor(t, 3*time.Second, func() bool { return len(engine.Pushes()) > 0 }) {
		t.Fatal("scrape never completed")
	}

	engine.Speak("compose", 0.70)

	select {
	case cmd := <-confirmed:
		if cmd.Phrase != "compose" {
			t.Errorf("confirmation for %q, want compose", cmd.Phrase)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("medium-confidence result did not request confirmation")
	}
	if n := len(h.PerformedActions()); n != 0 {
		t.Errorf("medium-confidence result executed %d gestures, want 0", n)
	}
}

func TestCoordinator_LowConfidenceSuggests(t *testing.T) {
	h := testutil.NewFakeHost(testutil.SampleScreenTree())
	engine := testutil.NewFakeSpeechEngine()
	c := newTestCoordinator(t, h, engine)

	suggested := make(chan []string, 1)
	c.OnSuggest = func(s []string, _ host.SpeechResult) {
		suggested <- s
	}
	startCoordinator(t, c)

	h.Emit(host.EventWindowChange, testPackage)
	if !waitFor(t, 3*time.Second, func() bool { return len(engine.Pushes()) > 0 }) {
		t.Fatal("scrape never completed")
	}

	engine.Speak("compse", 0.30)

	select {
	case <-suggested:
	case <-time.After(2 * time.Second):
		t.Fatal("low-confidence result did not surface suggestions")
	}
}

func TestCoordinator_ShutdownFlushesGrammarAndIsIdempotent(t *testing.T) {
	h := testutil.NewFakeHost(testutil.SampleScreenTree())
	engine := testutil.NewFakeSpeechEngine()
	c := newTestCoordinator(t, h, engine)
	startCoordinator(t, c)

	h.Emit(host.EventWindowChange, testPackage)
	if !waitFor(t, 3*time.Second, func() bool { return len(engine.Pushes()) > 0 }) {
		t.Fatal("scrape never completed")
	}
	activeBefore := len(c.grammar.Active())
	if activeBefore == 0 {
		t.Fatal("no active phrases after scrape")
	}

	c.Stop()
	c.Stop() // idempotent

	if got := c.State(); got != StateTerminated {
		t.Errorf("state after Stop = %s, want TERMINATED", got)
	}

	pushes := engine.Pushes()
	last := pushes[len(pushes)-1]
	if len(last.Added) != 0 || len(last.Removed) != activeBefore {
		t.Errorf("shutdown flush pushed added=%d removed=%d, want 0/%d", len(last.Added), len(last.Removed), activeBefore)
	}
	if n := len(c.grammar.Active()); n != 0 {
		t.Errorf("%d phrases still active after shutdown", n)
	}
}

func TestCoordinator_GrammarPushRetriesThenSucceeds(t *testing.T) {
	h := testutil.NewFakeHost(testutil.SampleScreenTree())
	engine := testutil.NewFakeSpeechEngine()
	engine.PushErr = context.DeadlineExceeded
	engine.FailPushes = 1

	c := newTestCoordinator(t, h, engine)
	c.cfg.Resilience.GrammarRetryBaseMs = 10
	startCoordinator(t, c)

	h.Emit(host.EventWindowChange, testPackage)

	if !waitFor(t, 3*time.Second, func() bool { return len(engine.Pushes()) > 0 }) {
		t.Fatal("grammar push did not recover after a transient failure")
	}
}

func TestCoordinator_MemoryPressureSuspendsOverlay(t *testing.T) {
	h := testutil.NewFakeHost(testutil.SampleScreenTree())
	engine := testutil.NewFakeSpeechEngine()
	c := newTestCoordinator(t, h, engine)
	startCoordinator(t, c)

	c.SetMemoryPressure(true)
	h.Emit(host.EventWindowChange, testPackage)
	if !waitFor(t, 3*time.Second, func() bool { return len(engine.Pushes()) > 0 }) {
		t.Fatal("scrape never completed")
	}

	for _, p := range engine.Pushes()[0].Added {
		if p == "1" || p == "2" {
			t.Errorf("numeric overlay phrase %q pushed under memory pressure", p)
		}
	}
}
