package text

import "github.com/sahilm/fuzzy"

// phraseSource adapts a []string to fuzzy.Source.
type phraseSource []string

func (p phraseSource) String(i int) string { return p[i] }
func (p phraseSource) Len() int            { return len(p) }

// KNearest returns the k phrases from candidates that best match the
// recognized text by normalized edit distance, best match first. Used
// by the Dispatcher when a speech result's confidence falls below the
// medium threshold, so the host can show a "did you mean" hint.
func KNearest(recognized string, candidates []string, k int) []string {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	matches := fuzzy.Find(NormalizePhrase(recognized), phraseSource(candidates))
	if len(matches) > k {
		matches = matches[:k]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = candidates[m.Index]
	}
	return out
}
