// Package dispatch resolves a recognized speech phrase to a bound
// command and decides how confidently to act on it: explicit-map
// lookup first, then internal/text's fuzzy matching for the
// K-nearest-phrase fallback.
package dispatch

import (
	"fmt"

	"github.com/voxmap/voxmap/internal/model"
	"github.com/voxmap/voxmap/internal/text"
)

// Outcome classifies how a recognized speech result should be handled.
type Outcome string

const (
	// OutcomeExecute means the phrase matched with confidence at or
	// above the high threshold: execute immediately.
	OutcomeExecute Outcome = "EXECUTE"
	// OutcomeConfirm means confidence fell in the medium band: surface
	// a confirmation request to the host UI before executing.
	OutcomeConfirm Outcome = "CONFIRM"
	// OutcomeSuggest means confidence was below the medium threshold,
	// or no active phrase matched exactly: surface the K nearest phrases
	// instead of executing anything.
	OutcomeSuggest Outcome = "SUGGEST"
)

// Resolution is the result of dispatching one speech result.
type Resolution struct {
	Outcome    Outcome
	Command    *model.GeneratedCommand // set only for Execute/Confirm
	Suggestions []string               // set only for Suggest
}

// Resolver maps normalized phrases to bound commands for the current
// foreground package's active grammar.
type Resolver struct {
	confidenceHigh   float64
	confidenceMedium float64
	kNearest         int
}

// NewResolver creates a Resolver with the configured confidence
// thresholds and fuzzy-fallback breadth.
func NewResolver(confidenceHigh, confidenceMedium float64, kNearest int) *Resolver {
	return &Resolver{
		confidenceHigh:   confidenceHigh,
		confidenceMedium: confidenceMedium,
		kNearest:         kNearest,
	}
}

// Resolve dispatches one recognized (text, confidence) pair against
// the current active command set across the three confidence bands.
func (r *Resolver) Resolve(recognizedText string, confidence float64, active []*model.GeneratedCommand) Resolution {
	normalized := text.NormalizePhrase(recognizedText)

	byPhrase := make(map[string]*model.GeneratedCommand, len(active))
	phrases := make([]string, 0, len(active))
	for _, c := range active {
		byPhrase[c.Phrase] = c
		phrases = append(phrases, c.Phrase)
	}

	switch {
	case confidence >= r.confidenceHigh:
		if cmd, ok := byPhrase[normalized]; ok {
			return Resolution{Outcome: OutcomeExecute, Command: cmd}
		}
		// High acoustic confidence but no exact grammar match: fall
		// through to suggestion rather than guessing.
		return Resolution{Outcome: OutcomeSuggest, Suggestions: text.KNearest(normalized, phrases, r.kNearest)}

	case confidence >= r.confidenceMedium:
		if cmd, ok := byPhrase[normalized]; ok {
			return Resolution{Outcome: OutcomeConfirm, Command: cmd}
		}
		return Resolution{Outcome: OutcomeSuggest, Suggestions: text.KNearest(normalized, phrases, r.kNearest)}

	default:
		return Resolution{Outcome: OutcomeSuggest, Suggestions: text.KNearest(normalized, phrases, r.kNearest)}
	}
}

// ErrNoMatch is returned by ResolveElement when a command has no bound
// element (a system command), so callers attempting to invoke a
// gesture on it have a distinguishable error.
var ErrNoMatch = fmt.Errorf("dispatch: command has no bound element")

// ResolveElement returns the element hash a command targets, or
// ErrNoMatch for system commands that act on the host directly rather
// than a specific element.
func ResolveElement(cmd *model.GeneratedCommand) (string, error) {
	if cmd.ElementHash == "" {
		return "", ErrNoMatch
	}
	return cmd.ElementHash, nil
}
