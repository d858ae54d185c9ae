// Package text provides the phrase-normalization, grapheme-length, and
// fuzzy-matching primitives the Command Indexer and Dispatcher share.
// Grapheme counting uses rivo/uniseg so multi-codepoint graphemes are
// measured as they display; fuzzy matching uses sahilm/fuzzy.
package text

import (
	"regexp"
	"strings"

	"github.com/rivo/uniseg"
)

var punctuationRe = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

// NormalizePhrase lowercases, strips punctuation, and collapses internal
// whitespace. Every candidate label phrase and recognized utterance
// passes through here before being compared or stored.
func NormalizePhrase(s string) string {
	s = strings.ToLower(s)
	s = punctuationRe.ReplaceAllString(s, " ")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// GraphemeCount returns the number of user-perceived characters in s,
// counted by grapheme cluster rather than byte or rune, so combining
// marks and multi-codepoint emoji count as one unit.
func GraphemeCount(s string) int {
	return uniseg.GraphemeClusterCount(s)
}

// ResourceIDLastSegment returns the final '/'-or-':'-delimited segment of
// an Android-style resource id (e.g. "com.app:id/submit_button" ->
// "submit_button"), used by the Indexer as a label-phrase fallback.
func ResourceIDLastSegment(resourceID string) string {
	if resourceID == "" {
		return ""
	}
	idx := strings.LastIndexAny(resourceID, "/:")
	if idx < 0 {
		return resourceID
	}
	return resourceID[idx+1:]
}

// IsAllDigits reports whether s (after normalization) consists solely of
// digits; purely numeric phrases belong to the numeric-overlay path
// rather than the label-phrase path.
func IsAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
