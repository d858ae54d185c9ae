package indexer

import (
	"testing"

	"github.com/voxmap/voxmap/internal/model"
)

func TestLabelPhrase_PrefersContentDescription(t *testing.T) {
	phrase, ok := LabelPhrase("Submit Form!", "Submit", "com.app:id/submit_btn", "")
	if !ok {
		t.Fatalf("expected a phrase")
	}
	if phrase != "submit form" {
		t.Errorf("got %q, want %q", phrase, "submit form")
	}
}

func TestLabelPhrase_FallsBackThroughSources(t *testing.T) {
	phrase, ok := LabelPhrase("", "", "com.app:id/next_button", "")
	if !ok || phrase != "next button" {
		t.Errorf("got (%q, %v), want (%q, true)", phrase, ok, "next button")
	}
}

func TestLabelPhrase_RejectsShortAndNumeric(t *testing.T) {
	if _, ok := LabelPhrase("x", "", "", ""); ok {
		t.Error("expected single-grapheme phrase to be rejected")
	}
	if _, ok := LabelPhrase("42", "", "", ""); ok {
		t.Error("expected all-digit phrase to be rejected")
	}
}

func TestGenerateLabelCommands_SkipsNonActionable(t *testing.T) {
	elems := []*model.Element{
		{ElementHash: "a", IsClickable: true, Text: "Save changes"},
		{ElementHash: "b", IsClickable: false, Text: "Just a label"},
	}
	cmds := GenerateLabelCommands(elems)
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	if cmds[0].ElementHash != "a" {
		t.Errorf("got element %q, want %q", cmds[0].ElementHash, "a")
	}
}

func TestDisambiguate_HigherVisualWeightWins(t *testing.T) {
	cmds := []model.GeneratedCommand{
		{ElementHash: "low", Phrase: "ok", Confidence: 0.2},
		{ElementHash: "high", Phrase: "ok", Confidence: 0.9},
	}
	depth := map[string]int{"low": 1, "high": 1}
	order := map[string]int{"low": 0, "high": 1}

	out := Disambiguate(cmds, depth, order)
	if len(out) != 1 || out[0].ElementHash != "high" {
		t.Fatalf("got %+v, want single winner %q", out, "high")
	}
}

func TestDisambiguate_TiesBreakByDepthThenChildOrder(t *testing.T) {
	cmds := []model.GeneratedCommand{
		{ElementHash: "deep", Phrase: "ok", Confidence: 0.5},
		{ElementHash: "shallow", Phrase: "ok", Confidence: 0.5},
	}
	depth := map[string]int{"deep": 3, "shallow": 1}
	order := map[string]int{"deep": 0, "shallow": 0}

	out := Disambiguate(cmds, depth, order)
	if len(out) != 1 || out[0].ElementHash != "shallow" {
		t.Fatalf("got %+v, want shallower winner %q", out, "shallow")
	}
}

func TestGenerateIndexCommands_CapsAndFiltersScrollable(t *testing.T) {
	elems := []*model.Element{
		{ElementHash: "a", IsClickable: true, ListIndex: 0},
		{ElementHash: "b", IsClickable: true, ListIndex: 25},
		{ElementHash: "c", IsClickable: true, ListIndex: 1},
		{ElementHash: "d", IsClickable: false, ListIndex: 2},
	}
	inScrollable := map[string]bool{"a": true, "b": true, "c": false, "d": true}

	out := GenerateIndexCommands(elems, inScrollable, 20)
	if len(out) != 1 {
		t.Fatalf("got %d index commands, want 1 (b exceeds cap, c not scrollable, d not actionable): %+v", len(out), out)
	}
	if out[0].Phrase != "first" {
		t.Errorf("got phrase %q, want %q", out[0].Phrase, "first")
	}
}

func TestGenerateNumericOverlay_OrdersTopToBottom(t *testing.T) {
	elems := []*model.Element{
		{ElementHash: "lower", IsClickable: true, Bounds: model.Bounds{Top: 200}},
		{ElementHash: "upper", IsClickable: true, Bounds: model.Bounds{Top: 10}},
	}
	overlay := GenerateNumericOverlay(elems)
	if len(overlay) != 2 {
		t.Fatalf("got %d overlay entries, want 2", len(overlay))
	}
	if overlay[0].ElementHash != "upper" || overlay[0].Badge != 1 {
		t.Errorf("first badge got %+v, want element %q badge 1", overlay[0], "upper")
	}
}
