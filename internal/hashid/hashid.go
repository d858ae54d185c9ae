// Package hashid derives the content-addressed identifiers used
// throughout the store: element hashes, screen hashes, and app hashes.
// Hashing is pure and deterministic — the same canonical inputs must
// produce the same digest across runs and processes.
package hashid

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// nullMarker distinguishes an absent field from an empty-string field.
// A bare empty string is a distinct, valid value and must not collapse
// into "absent".
const nullMarker = "\x00NULL\x00"

// fieldSep joins canonicalized fields before hashing. It is a control
// character unlikely to appear in UI text, so two different field
// splits cannot be engineered to collide by shifting a separator.
const fieldSep = "\x1f"

// sum returns the SHA-256 hex digest of the given canonical string.
func sum(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// canonicalField trims a string and collapses interior whitespace to a
// single space. A nil-equivalent caller should pass NullField() instead
// of calling this with an empty string it means as "absent".
func canonicalField(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// Field wraps a string value and whether it is present at all, so
// callers can distinguish "absent" from "present but empty".
type Field struct {
	Value   string
	Present bool
}

// Present constructs a Field for a value that is known to be present,
// even if it is the empty string.
func Present(v string) Field { return Field{Value: v, Present: true} }

// Absent constructs a Field for a value that was never supplied.
func Absent() Field { return Field{} }

func (f Field) canonical() string {
	if !f.Present {
		return nullMarker
	}
	return canonicalField(f.Value)
}

func joinFields(fields ...Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.canonical()
	}
	return strings.Join(parts, fieldSep)
}

// HashElement derives an element_hash from package, class, resource id,
// text, content description, and structural path.
func HashElement(packageName, class, resourceID, text, contentDescription, structuralPath Field) string {
	return sum(joinFields(packageName, class, resourceID, text, contentDescription, structuralPath))
}

// HashApp derives an app_hash from package, version code/name, and
// signing identity.
func HashApp(packageName Field, versionCode int64, versionName, signingIdentity Field) string {
	vc := Present(strconv.FormatInt(versionCode, 10))
	return sum(joinFields(packageName, vc, versionName, signingIdentity))
}

// Descriptor is one significant element contributing to a screen's
// content fingerprint. ElementHash lets a caller filter out elements
// flagged as live content before the fingerprint is rendered; it plays
// no part in the rendered string itself.
type Descriptor struct {
	ElementHash        string
	Class              string
	Text               string
	ContentDescription string
	IsClickable        bool
	Depth              int
	ChildOrder         int
}

// isContainerClass reports whether a class name is a pure layout
// container and should never contribute to a screen's identity — a
// container's presence says nothing about what screen is showing.
func isContainerClass(class string) bool {
	return strings.Contains(class, "DecorView") || strings.HasSuffix(class, "Layout")
}

func (d Descriptor) render() string {
	clickable := "false"
	if d.IsClickable {
		clickable = "true"
	}
	return d.Class + ":" + d.Text + ":" + d.ContentDescription + ":" + clickable
}

// ContentFingerprint builds the canonical top-N descriptor join that
// forms a screen's content fingerprint: container classes are filtered
// out, the remainder is stably sorted by (depth, child_order), the
// first topN are kept, and rendered as "class:text:contentDescription:isClickable"
// joined by "|".
func ContentFingerprint(descriptors []Descriptor, topN int) string {
	significant := make([]Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if isContainerClass(d.Class) {
			continue
		}
		significant = append(significant, d)
	}

	sort.SliceStable(significant, func(i, j int) bool {
		if significant[i].Depth != significant[j].Depth {
			return significant[i].Depth < significant[j].Depth
		}
		return significant[i].ChildOrder < significant[j].ChildOrder
	})

	if len(significant) > topN {
		significant = significant[:topN]
	}

	rendered := make([]string, len(significant))
	for i, d := range significant {
		rendered[i] = d.render()
	}
	return strings.Join(rendered, "|")
}

// HashScreen derives a screen_hash from package, activity, window
// title, and a precomputed content fingerprint (see ContentFingerprint).
func HashScreen(packageName, activityClass, windowTitle Field, contentFingerprint string) string {
	return sum(joinFields(packageName, activityClass, windowTitle, Present(contentFingerprint)))
}

