// Package indexer turns the current screen's elements into a bounded
// set of voice command phrases, disambiguates collisions, and diffs
// against the active grammar so only the delta is pushed to the speech
// engine.
package indexer

import (
	"fmt"
	"sort"

	"github.com/voxmap/voxmap/internal/model"
	"github.com/voxmap/voxmap/internal/text"
)

// SystemCommands is the fixed, persistent set of global commands
// available regardless of the foreground screen.
var SystemCommands = []model.GeneratedCommand{
	{Phrase: "go back", ActionType: model.ActionSystem, IsPersistent: true},
	{Phrase: "go home", ActionType: model.ActionSystem, IsPersistent: true},
	{Phrase: "recent apps", ActionType: model.ActionSystem, IsPersistent: true},
	{Phrase: "scroll up", ActionType: model.ActionScrollUp, IsPersistent: true},
	{Phrase: "scroll down", ActionType: model.ActionScrollDown, IsPersistent: true},
	{Phrase: "page up", ActionType: model.ActionScrollUp, IsPersistent: true},
	{Phrase: "page down", ActionType: model.ActionScrollDown, IsPersistent: true},
}

const minPhraseGraphemes = 2

// ordinalWords covers list_index_cap's default of 20; indices beyond
// this fall back to "item N".
var ordinalWords = []string{
	"first", "second", "third", "fourth", "fifth",
	"sixth", "seventh", "eighth", "ninth", "tenth",
	"eleventh", "twelfth", "thirteenth", "fourteenth", "fifteenth",
	"sixteenth", "seventeenth", "eighteenth", "nineteenth", "twentieth",
}

// ordinalPhrase returns the ordinal phrase for a 0-based list index.
func ordinalPhrase(listIndex int) string {
	if listIndex >= 0 && listIndex < len(ordinalWords) {
		return ordinalWords[listIndex]
	}
	return fmt.Sprintf("item %d", listIndex+1)
}

// LabelPhrase derives the candidate label phrase for an element from the
// first non-empty of content description, text, resource-id last
// segment, placeholder text, in that priority order. It returns
// ("", false) if no source field is present, the phrase is too short, or
// the phrase is purely numeric (numeric phrases are handled by the
// numeric-overlay path instead).
func LabelPhrase(contentDescription, elementText, resourceID, placeholderText string) (string, bool) {
	for _, candidate := range []string{contentDescription, elementText, text.ResourceIDLastSegment(resourceID), placeholderText} {
		if candidate == "" {
			continue
		}
		phrase := text.NormalizePhrase(candidate)
		if phrase == "" {
			continue
		}
		if text.GraphemeCount(phrase) < minPhraseGraphemes {
			continue
		}
		if text.IsAllDigits(phrase) {
			continue
		}
		return phrase, true
	}
	return "", false
}

// GenerateLabelCommands produces one candidate command per actionable
// element that yields a usable label phrase. Collisions are not yet
// resolved; call Disambiguate on the result.
func GenerateLabelCommands(elements []*model.Element) []model.GeneratedCommand {
	var out []model.GeneratedCommand
	for _, e := range elements {
		if !e.IsActionable() {
			continue
		}
		phrase, ok := LabelPhrase(e.ContentDescription, e.Text, e.ResourceID, e.PlaceholderText)
		if !ok {
			continue
		}
		action := model.ActionClick
		if e.IsLongClickable && !e.IsClickable {
			action = model.ActionLongClick
		}
		out = append(out, model.GeneratedCommand{
			PackageName:  e.PackageName,
			ElementHash:  e.ElementHash,
			Phrase:       phrase,
			ActionType:   action,
			Confidence:   e.VisualWeight,
		})
	}
	return out
}

// GenerateIndexCommands produces ordinal phrases ("first", "second", …,
// "item N") for actionable elements within a scrollable ancestry that
// carry a non-negative ListIndex, capped at listIndexCap. inScrollable
// reports, per element hash, whether that element's ancestry includes a
// scrollable container.
func GenerateIndexCommands(elements []*model.Element, inScrollable map[string]bool, listIndexCap int) []model.GeneratedCommand {
	var out []model.GeneratedCommand
	for _, e := range elements {
		if !e.IsActionable() || e.ListIndex < 0 {
			continue
		}
		if !inScrollable[e.ElementHash] {
			continue
		}
		if e.ListIndex >= listIndexCap {
			continue
		}
		out = append(out, model.GeneratedCommand{
			PackageName:  e.PackageName,
			ElementHash:  e.ElementHash,
			Phrase:       ordinalPhrase(e.ListIndex),
			ActionType:   model.ActionClick,
			Confidence:   e.VisualWeight,
		})
	}
	return out
}

// NumericOverlay is one ephemeral badge-number-to-element mapping; these
// phrases are not persisted to the grammar's durable command set, only
// pushed for the lifetime of the current screen.
type NumericOverlay struct {
	Badge       int
	ElementHash string
}

// GenerateNumericOverlay assigns visible badge numbers 1..N to every
// actionable element in elements, in visual reading order
// (top-to-bottom, then left-to-right). Elements are not clipped to the
// viewport: an actionable element outside it is numbered as well.
func GenerateNumericOverlay(elements []*model.Element) []NumericOverlay {
	var actionable []*model.Element
	for _, e := range elements {
		if e.IsActionable() {
			actionable = append(actionable, e)
		}
	}
	sort.SliceStable(actionable, func(i, j int) bool {
		if actionable[i].Bounds.Top != actionable[j].Bounds.Top {
			return actionable[i].Bounds.Top < actionable[j].Bounds.Top
		}
		return actionable[i].Bounds.Left < actionable[j].Bounds.Left
	})

	out := make([]NumericOverlay, len(actionable))
	for i, e := range actionable {
		out[i] = NumericOverlay{Badge: i + 1, ElementHash: e.ElementHash}
	}
	return out
}

// Disambiguate resolves label-phrase collisions: when two commands
// normalize to the same phrase, the one bound to the element with the
// higher VisualWeight (here carried in Confidence) wins; ties break by
// shallower depth, then lower child order. The loser is dropped from
// the returned set; it remains reachable only via the numeric overlay.
func Disambiguate(commands []model.GeneratedCommand, depthOf, childOrderOf map[string]int) []model.GeneratedCommand {
	winners := make(map[string]model.GeneratedCommand, len(commands))
	for _, c := range commands {
		existing, ok := winners[c.Phrase]
		if !ok {
			winners[c.Phrase] = c
			continue
		}
		if winnerBeats(c, existing, depthOf, childOrderOf) {
			winners[c.Phrase] = c
		}
	}

	out := make([]model.GeneratedCommand, 0, len(winners))
	for _, c := range winners {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Phrase < out[j].Phrase })
	return out
}

// winnerBeats reports whether candidate should replace incumbent.
func winnerBeats(candidate, incumbent model.GeneratedCommand, depthOf, childOrderOf map[string]int) bool {
	if candidate.Confidence != incumbent.Confidence {
		return candidate.Confidence > incumbent.Confidence
	}
	cd, id := depthOf[candidate.ElementHash], depthOf[incumbent.ElementHash]
	if cd != id {
		return cd < id
	}
	return childOrderOf[candidate.ElementHash] < childOrderOf[incumbent.ElementHash]
}
