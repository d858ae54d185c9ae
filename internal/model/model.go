// Package model holds the shared entity types persisted by internal/store
// and produced/consumed by internal/walker, internal/indexer, and
// internal/coordinator. Keeping one record type per entity at the core
// boundary avoids the DTO/entity duplication the source system suffered
// from; internal/store may shape its own rows internally but converts to
// and from these types in exactly one place.
package model

import "time"

// ScrapingMode controls whether the Coordinator re-scrapes an app on
// subsequent foreground events.
type ScrapingMode string

const (
	ScrapingModeDynamic ScrapingMode = "DYNAMIC"
	ScrapingModeLearn   ScrapingMode = "LEARN"
	ScrapingModeFrozen  ScrapingMode = "FROZEN"
)

// App is keyed by package_name and accumulates scrape history; it is
// never destroyed once created.
type App struct {
	PackageName    string       `json:"package_name"`
	AppHash        string       `json:"app_hash"`
	VersionCode    int64        `json:"version_code"`
	VersionName    string       `json:"version_name"`
	ScrapingMode   ScrapingMode `json:"scraping_mode"`
	IsFullyLearned bool         `json:"is_fully_learned"`
	ScrapeCount    int64        `json:"scrape_count"`
	ElementCount   int64        `json:"element_count"`
	CommandCount   int64        `json:"command_count"`
	FirstScrapedAt time.Time    `json:"first_scraped_at"`
	LastScrapedAt  time.Time    `json:"last_scraped_at"`
}

// Screen is keyed by ScreenHash, a content-addressed hash of package,
// activity, window title, and the top-N element content fingerprint.
type Screen struct {
	ScreenHash         string    `json:"screen_hash"`
	PackageName        string    `json:"package_name"`
	ActivityClass      string    `json:"activity_class"`
	WindowTitle        string    `json:"window_title"`
	ContentFingerprint string    `json:"content_fingerprint"`
	VisitCount         int64     `json:"visit_count"`
	FirstSeenAt        time.Time `json:"first_seen_at"`
	LastSeenAt         time.Time `json:"last_seen_at"`
}

// Element is keyed by ElementHash, a content-addressed hash of package,
// class, resource id, text, content description, and structural path.
type Element struct {
	ElementHash        string    `json:"element_hash"`
	PackageName        string    `json:"package_name"`
	ScreenHash         string    `json:"screen_hash"`
	ClassName          string    `json:"class_name"`
	ResourceID         string    `json:"resource_id"`
	Text               string    `json:"text"`
	ContentDescription string    `json:"content_description"`
	StructuralPath     string    `json:"structural_path"`
	Bounds             Bounds    `json:"bounds"`
	IsClickable        bool      `json:"is_clickable"`
	IsLongClickable    bool      `json:"is_long_clickable"`
	IsScrollable       bool      `json:"is_scrollable"`
	IsFocusable        bool      `json:"is_focusable"`
	IsEnabled          bool      `json:"is_enabled"`
	InputType          string    `json:"input_type"`
	PlaceholderText    string    `json:"placeholder_text"`
	Depth              int       `json:"depth"`
	ChildOrder         int       `json:"child_order"`
	VisualWeight       float64   `json:"visual_weight"`
	ListIndex          int       `json:"list_index"` // -1 if the element is not part of an indexed list
	FormGroupID        string    `json:"form_group_id"`
	LastSeenAt         time.Time `json:"last_seen_at"`
}

// IsActionable reports whether an element can be the target of a voice
// command at all.
func (e Element) IsActionable() bool {
	return e.IsClickable || e.IsLongClickable
}

// Bounds is the on-screen rectangle of an element, in device pixels.
type Bounds struct {
	Left, Top, Right, Bottom int
}

// HierarchyEdge ties a parent element to a child element within one
// screen's tree. Edges are regenerated atomically on every scrape: the
// old edge set for the scope is deleted before new elements are
// inserted, so an edge never outlives either endpoint.
type HierarchyEdge struct {
	ParentElementHash string `json:"parent_element_hash"`
	ChildElementHash  string `json:"child_element_hash"`
	ChildOrder        int    `json:"child_order"`
}

// StateType enumerates the kinds of element state change recorded in
// ElementStateHistory.
type StateType string

const (
	StateVisible     StateType = "VISIBLE"
	StateEnabled     StateType = "ENABLED"
	StateFocused     StateType = "FOCUSED"
	StateSelected    StateType = "SELECTED"
	StateTextChanged StateType = "TEXT_CHANGED"
)

// ElementStateHistory is an append-only log of element state transitions,
// used to detect live-content regions that should be excluded from
// screen-identity fingerprinting.
type ElementStateHistory struct {
	ElementHash   string    `json:"element_hash"`
	StateType     StateType `json:"state_type"`
	Value         string    `json:"value"`
	ChangedAt     time.Time `json:"changed_at"`
	TriggerSource string    `json:"trigger_source"`
}

// RelationshipType enumerates the kinds of cross-element relationship
// recorded in ElementRelationship.
type RelationshipType string

const (
	RelationshipFormGroup   RelationshipType = "FORM_GROUP"
	RelationshipLabelFor    RelationshipType = "LABEL_FOR"
	RelationshipDescribedBy RelationshipType = "DESCRIBED_BY"
)

// ElementRelationship links two elements beyond the parent/child
// hierarchy, e.g. a label referring to its input field.
type ElementRelationship struct {
	SourceElementHash string           `json:"source_element_hash"`
	TargetElementHash string           `json:"target_element_hash"`
	RelationshipType  RelationshipType `json:"relationship_type"`
	RelationshipData  string           `json:"relationship_data"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// ActionType enumerates the gestures a GeneratedCommand or UserInteraction
// can invoke on the host.
type ActionType string

const (
	ActionClick      ActionType = "CLICK"
	ActionLongClick  ActionType = "LONG_CLICK"
	ActionScrollUp   ActionType = "SCROLL_UP"
	ActionScrollDown ActionType = "SCROLL_DOWN"
	ActionFocus      ActionType = "FOCUS"
	ActionSystem     ActionType = "SYSTEM"
)

// GeneratedCommand is a voice phrase bound to an element (or nil, for
// system commands) and the gesture it triggers when spoken.
type GeneratedCommand struct {
	CommandID    int64      `json:"command_id"`
	PackageName  string     `json:"package_name"`
	ElementHash  string     `json:"element_hash"` // empty for system commands
	Phrase       string     `json:"phrase"`
	ActionType   ActionType `json:"action_type"`
	Confidence   float64    `json:"confidence"`
	IsPersistent bool       `json:"is_persistent"`
	LastUsedAt   time.Time  `json:"last_used_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// UserInteraction is an append-only log of executed (or attempted)
// actions. The Indexer and the live-content detector do not read it.
type UserInteraction struct {
	ElementHash string     `json:"element_hash"`
	ActionType  ActionType `json:"action_type"`
	Succeeded   bool       `json:"succeeded"`
	LatencyMS   int64      `json:"latency_ms"`
	Timestamp   time.Time  `json:"timestamp"`
}
