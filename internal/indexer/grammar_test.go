package indexer

import (
	"reflect"
	"sort"
	"testing"
)

func sortedStrings(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

func TestGrammar_DiffBeforeAnyCommit(t *testing.T) {
	g := NewGrammar()
	added, removed := g.Diff([]string{"go back", "submit"})
	if len(removed) != 0 {
		t.Errorf("got removed %v, want none", removed)
	}
	if !reflect.DeepEqual(sortedStrings(added), []string{"go back", "submit"}) {
		t.Errorf("got added %v", added)
	}
	// Diff must not mutate state until Commit is called.
	if len(g.Active()) != 0 {
		t.Errorf("active set changed before Commit: %v", g.Active())
	}
}

func TestGrammar_CommitThenDiffIsIncremental(t *testing.T) {
	g := NewGrammar()
	g.Commit([]string{"go back", "submit"})

	added, removed := g.Diff([]string{"submit", "cancel"})
	if !reflect.DeepEqual(added, []string{"cancel"}) {
		t.Errorf("got added %v, want [cancel]", added)
	}
	if !reflect.DeepEqual(removed, []string{"go back"}) {
		t.Errorf("got removed %v, want [go back]", removed)
	}
}

func TestGrammar_Clear(t *testing.T) {
	g := NewGrammar()
	g.Commit([]string{"go back"})
	g.Clear()
	if len(g.Active()) != 0 {
		t.Errorf("expected empty active set after Clear, got %v", g.Active())
	}
}
