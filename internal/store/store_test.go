package store

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/voxmap/voxmap/internal/model"
)

func openCoreTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpen_Close(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if st.Path() != path {
		t.Errorf("Path: got %q, want %q", st.Path(), path)
	}
	if st.Writer() == nil {
		t.Error("Writer is nil")
	}
	if st.Reader() == nil {
		t.Error("Reader is nil")
	}

	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "test.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("Open with nested dir: %v", err)
	}
	st.Close()
}

func TestPing(t *testing.T) {
	st := openCoreTestStore(t)
	if err := st.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestWALMode(t *testing.T) {
	st := openCoreTestStore(t)

	var mode string
	err := st.Writer().QueryRow("PRAGMA journal_mode").Scan(&mode)
	if err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode: got %q, want %q", mode, "wal")
	}
}

func TestMigrations(t *testing.T) {
	st := openCoreTestStore(t)

	var version int
	err := st.Writer().QueryRow("SELECT MAX(version) FROM migrations").Scan(&version)
	if err != nil {
		t.Fatalf("query migration version: %v", err)
	}

	expected := len(migrations)
	if version != expected {
		t.Errorf("migration version: got %d, want %d", version, expected)
	}
}

func mustUpsertApp(t *testing.T, st *Store, packageName string) {
	t.Helper()
	if err := st.UpsertApp(&model.App{PackageName: packageName, ScrapingMode: model.ScrapingModeDynamic}); err != nil {
		t.Fatalf("UpsertApp: %v", err)
	}
}

func TestUpsertApp_GetApp(t *testing.T) {
	st := openCoreTestStore(t)
	mustUpsertApp(t, st, "com.ex")

	got, err := st.GetApp("com.ex")
	if err != nil {
		t.Fatalf("GetApp: %v", err)
	}
	if got.PackageName != "com.ex" {
		t.Errorf("PackageName: got %q, want %q", got.PackageName, "com.ex")
	}
	if got.ScrapingMode != model.ScrapingModeDynamic {
		t.Errorf("ScrapingMode: got %q, want %q", got.ScrapingMode, model.ScrapingModeDynamic)
	}
}

func TestSetScrapingMode_UnknownPackage(t *testing.T) {
	st := openCoreTestStore(t)
	if err := st.SetScrapingMode("com.missing", model.ScrapingModeFrozen); err == nil {
		t.Fatal("expected error for unknown package")
	}
}

func TestUpsertScreen_IncrementsVisitCount(t *testing.T) {
	st := openCoreTestStore(t)
	mustUpsertApp(t, st, "com.ex")

	sc := &model.Screen{ScreenHash: "screen-1", PackageName: "com.ex", ActivityClass: "MainActivity"}
	if err := st.UpsertScreen(sc); err != nil {
		t.Fatalf("UpsertScreen (first): %v", err)
	}
	if err := st.UpsertScreen(sc); err != nil {
		t.Fatalf("UpsertScreen (second): %v", err)
	}

	got, err := st.GetScreen("screen-1")
	if err != nil {
		t.Fatalf("GetScreen: %v", err)
	}
	if got.VisitCount != 2 {
		t.Errorf("VisitCount: got %d, want 2", got.VisitCount)
	}
}

func TestReplaceScrape_FKSafety(t *testing.T) {
	// Scenario 2 from the testable-properties: after a first scrape commits
	// e1,e2,e3 and edges (e1,e2),(e1,e3), a second scrape with e1',e2',e3'
	// must leave edges referencing only the new elements.
	st := openCoreTestStore(t)
	mustUpsertApp(t, st, "com.ex")
	if err := st.UpsertScreen(&model.Screen{ScreenHash: "home", PackageName: "com.ex"}); err != nil {
		t.Fatalf("UpsertScreen: %v", err)
	}

	first := []*model.Element{
		{ElementHash: "e1", PackageName: "com.ex", IsClickable: true},
		{ElementHash: "e2", PackageName: "com.ex", IsClickable: true},
		{ElementHash: "e3", PackageName: "com.ex", IsClickable: true},
	}
	firstEdges := []model.HierarchyEdge{
		{ParentElementHash: "e1", ChildElementHash: "e2", ChildOrder: 0},
		{ParentElementHash: "e1", ChildElementHash: "e3", ChildOrder: 1},
	}
	if err := st.ReplaceScrape("com.ex", "home", first, firstEdges); err != nil {
		t.Fatalf("ReplaceScrape (first): %v", err)
	}

	second := []*model.Element{
		{ElementHash: "e1p", PackageName: "com.ex", IsClickable: true},
		{ElementHash: "e2p", PackageName: "com.ex", IsClickable: true},
		{ElementHash: "e3p", PackageName: "com.ex", IsClickable: true},
	}
	secondEdges := []model.HierarchyEdge{
		{ParentElementHash: "e1p", ChildElementHash: "e2p", ChildOrder: 0},
		{ParentElementHash: "e1p", ChildElementHash: "e3p", ChildOrder: 1},
	}
	if err := st.ReplaceScrape("com.ex", "home", second, secondEdges); err != nil {
		t.Fatalf("ReplaceScrape (second): %v", err)
	}

	edges, err := st.ListEdges("home")
	if err != nil {
		t.Fatalf("ListEdges: %v", err)
	}
	if len(edges) != 2 {
		t.Fatalf("ListEdges: got %d edges, want 2", len(edges))
	}
	for _, e := range edges {
		if e.ParentElementHash != "e1p" {
			t.Errorf("edge references stale parent %q", e.ParentElementHash)
		}
	}

	if _, err := st.GetElement("e1"); err == nil {
		t.Error("expected old element e1 to be gone or superseded")
	}
}

func TestReplaceScrape_ElementCountMatchesRows(t *testing.T) {
	st := openCoreTestStore(t)
	mustUpsertApp(t, st, "com.ex")
	if err := st.UpsertScreen(&model.Screen{ScreenHash: "home", PackageName: "com.ex"}); err != nil {
		t.Fatalf("UpsertScreen: %v", err)
	}

	elements := []*model.Element{
		{ElementHash: "a", PackageName: "com.ex"},
		{ElementHash: "b", PackageName: "com.ex"},
	}
	if err := st.ReplaceScrape("com.ex", "home", elements, nil); err != nil {
		t.Fatalf("ReplaceScrape: %v", err)
	}

	app, err := st.GetApp("com.ex")
	if err != nil {
		t.Fatalf("GetApp: %v", err)
	}
	if app.ElementCount != 2 {
		t.Errorf("ElementCount: got %d, want 2", app.ElementCount)
	}
	if app.ScrapeCount != 1 {
		t.Errorf("ScrapeCount: got %d, want 1", app.ScrapeCount)
	}
}

func TestUpsertCommands_PersistentSurvives(t *testing.T) {
	st := openCoreTestStore(t)
	mustUpsertApp(t, st, "com.ex")

	persistent := []*model.GeneratedCommand{
		{PackageName: "com.ex", Phrase: "go back", ActionType: model.ActionSystem, IsPersistent: true},
	}
	if err := st.UpsertCommands("com.ex", persistent); err != nil {
		t.Fatalf("UpsertCommands (persistent): %v", err)
	}

	ephemeral := []*model.GeneratedCommand{
		{PackageName: "com.ex", Phrase: "submit", ActionType: model.ActionClick},
	}
	if err := st.UpsertCommands("com.ex", ephemeral); err != nil {
		t.Fatalf("UpsertCommands (ephemeral): %v", err)
	}

	commands, err := st.ListCommands("com.ex")
	if err != nil {
		t.Fatalf("ListCommands: %v", err)
	}
	if len(commands) != 2 {
		t.Fatalf("ListCommands: got %d, want 2 (persistent + ephemeral)", len(commands))
	}
}

func TestAppendStateChange_StateChangeCount(t *testing.T) {
	st := openCoreTestStore(t)

	for i := 0; i < 3; i++ {
		if err := st.AppendStateChange("e1", model.StateTextChanged, "v", "host"); err != nil {
			t.Fatalf("AppendStateChange: %v", err)
		}
	}

	count, err := st.StateChangeCount("e1", model.StateTextChanged, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("StateChangeCount: %v", err)
	}
	if count != 3 {
		t.Errorf("StateChangeCount: got %d, want 3", count)
	}
}

func TestRecordInteraction_RecentInteractions(t *testing.T) {
	st := openCoreTestStore(t)

	if err := st.RecordInteraction("e1", model.ActionClick, true, 42); err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}

	results, err := st.RecentInteractions("e1", 10)
	if err != nil {
		t.Fatalf("RecentInteractions: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("RecentInteractions: got %d, want 1", len(results))
	}
	if !results[0].Succeeded {
		t.Error("Succeeded: got false, want true")
	}
}

func TestPrune(t *testing.T) {
	st := openCoreTestStore(t)

	old := time.Now().UTC().AddDate(0, 0, -60)
	if _, err := st.Writer().Exec(
		`INSERT INTO element_state_history (element_hash, state_type, value, changed_at, trigger_source) VALUES (?, ?, ?, ?, ?)`,
		"e1", string(model.StateVisible), "true", old.Format(time.RFC3339), "host",
	); err != nil {
		t.Fatalf("seed old history row: %v", err)
	}
	if err := st.AppendStateChange("e1", model.StateVisible, "true", "host"); err != nil {
		t.Fatalf("AppendStateChange: %v", err)
	}

	pruned, err := st.Prune(30)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if pruned < 1 {
		t.Errorf("Prune: got %d rows deleted, want at least 1", pruned)
	}

	count, err := st.StateChangeCount("e1", model.StateVisible, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("StateChangeCount: %v", err)
	}
	if count != 1 {
		t.Errorf("after prune: got %d remaining rows, want 1", count)
	}
}

func TestConcurrentReadWrite(t *testing.T) {
	st := openCoreTestStore(t)
	mustUpsertApp(t, st, "com.ex")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if err := st.RecordInteraction("e1", model.ActionClick, true, int64(n)); err != nil {
				t.Errorf("concurrent RecordInteraction %d: %v", n, err)
			}
		}(i)
	}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = st.RecentInteractions("e1", 10)
		}()
	}
	wg.Wait()
}
