package store

// SQL schema constants for all voxmap tables, one constant per entity of
// the data model plus the migrations bookkeeping table.

const schemaApps = `
CREATE TABLE IF NOT EXISTS apps (
    package_name TEXT PRIMARY KEY,
    app_hash TEXT NOT NULL DEFAULT '',
    version_code INTEGER NOT NULL DEFAULT 0,
    version_name TEXT NOT NULL DEFAULT '',
    scraping_mode TEXT NOT NULL DEFAULT 'DYNAMIC',
    is_fully_learned INTEGER NOT NULL DEFAULT 0,
    scrape_count INTEGER NOT NULL DEFAULT 0,
    element_count INTEGER NOT NULL DEFAULT 0,
    command_count INTEGER NOT NULL DEFAULT 0,
    first_scraped_at TEXT NOT NULL,
    last_scraped_at TEXT NOT NULL
);
`

const schemaScreens = `
CREATE TABLE IF NOT EXISTS screens (
    screen_hash TEXT PRIMARY KEY,
    package_name TEXT NOT NULL REFERENCES apps(package_name) ON DELETE CASCADE,
    activity_class TEXT NOT NULL DEFAULT '',
    window_title TEXT NOT NULL DEFAULT '',
    content_fingerprint TEXT NOT NULL DEFAULT '',
    visit_count INTEGER NOT NULL DEFAULT 1,
    first_seen_at TEXT NOT NULL,
    last_seen_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_screens_package ON screens(package_name);
`

const schemaElements = `
CREATE TABLE IF NOT EXISTS elements (
    element_hash TEXT PRIMARY KEY,
    package_name TEXT NOT NULL REFERENCES apps(package_name) ON DELETE CASCADE,
    screen_hash TEXT NOT NULL REFERENCES screens(screen_hash) ON DELETE CASCADE,
    class_name TEXT NOT NULL DEFAULT '',
    resource_id TEXT NOT NULL DEFAULT '',
    text TEXT NOT NULL DEFAULT '',
    content_description TEXT NOT NULL DEFAULT '',
    structural_path TEXT NOT NULL DEFAULT '',
    bounds_left INTEGER NOT NULL DEFAULT 0,
    bounds_top INTEGER NOT NULL DEFAULT 0,
    bounds_right INTEGER NOT NULL DEFAULT 0,
    bounds_bottom INTEGER NOT NULL DEFAULT 0,
    is_clickable INTEGER NOT NULL DEFAULT 0,
    is_long_clickable INTEGER NOT NULL DEFAULT 0,
    is_scrollable INTEGER NOT NULL DEFAULT 0,
    is_focusable INTEGER NOT NULL DEFAULT 0,
    is_enabled INTEGER NOT NULL DEFAULT 0,
    input_type TEXT NOT NULL DEFAULT '',
    placeholder_text TEXT NOT NULL DEFAULT '',
    depth INTEGER NOT NULL DEFAULT 0,
    child_order INTEGER NOT NULL DEFAULT 0,
    visual_weight REAL NOT NULL DEFAULT 0.0,
    list_index INTEGER NOT NULL DEFAULT -1,
    form_group_id TEXT NOT NULL DEFAULT '',
    last_seen_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_elements_package_screen ON elements(package_name, screen_hash);
`

const schemaEdges = `
CREATE TABLE IF NOT EXISTS hierarchy_edges (
    parent_element_hash TEXT NOT NULL REFERENCES elements(element_hash) ON DELETE CASCADE,
    child_element_hash TEXT NOT NULL REFERENCES elements(element_hash) ON DELETE CASCADE,
    child_order INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (parent_element_hash, child_element_hash)
);
CREATE INDEX IF NOT EXISTS idx_edges_parent ON hierarchy_edges(parent_element_hash);
CREATE INDEX IF NOT EXISTS idx_edges_child ON hierarchy_edges(child_element_hash);
`

const schemaElementStateHistory = `
CREATE TABLE IF NOT EXISTS element_state_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    element_hash TEXT NOT NULL,
    state_type TEXT NOT NULL,
    value TEXT NOT NULL DEFAULT '',
    changed_at TEXT NOT NULL,
    trigger_source TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_state_history_element ON element_state_history(element_hash, changed_at);
`

const schemaElementRelationships = `
CREATE TABLE IF NOT EXISTS element_relationships (
    source_element_hash TEXT NOT NULL,
    target_element_hash TEXT NOT NULL,
    relationship_type TEXT NOT NULL,
    relationship_data TEXT NOT NULL DEFAULT '',
    updated_at TEXT NOT NULL,
    PRIMARY KEY (source_element_hash, target_element_hash, relationship_type)
);
`

const schemaCommands = `
CREATE TABLE IF NOT EXISTS generated_commands (
    command_id INTEGER PRIMARY KEY AUTOINCREMENT,
    package_name TEXT NOT NULL,
    element_hash TEXT NOT NULL DEFAULT '',
    phrase TEXT NOT NULL,
    action_type TEXT NOT NULL,
    confidence REAL NOT NULL DEFAULT 1.0,
    is_persistent INTEGER NOT NULL DEFAULT 0,
    last_used_at TEXT,
    created_at TEXT NOT NULL,
    UNIQUE (package_name, phrase)
);
CREATE INDEX IF NOT EXISTS idx_commands_package_phrase ON generated_commands(package_name, phrase);
`

const schemaInteractions = `
CREATE TABLE IF NOT EXISTS user_interactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    element_hash TEXT NOT NULL,
    action_type TEXT NOT NULL,
    succeeded INTEGER NOT NULL DEFAULT 0,
    latency_ms INTEGER NOT NULL DEFAULT 0,
    timestamp TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_interactions_element ON user_interactions(element_hash);
`

const schemaMigrations = `
CREATE TABLE IF NOT EXISTS migrations (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`

// allSchemas is the ordered list of schema DDL statements that form
// the initial (version-1) database layout. Order matters: a table may
// only declare a foreign key against a table created earlier in this
// list.
var allSchemas = []string{
	schemaApps,
	schemaScreens,
	schemaElements,
	schemaEdges,
	schemaElementStateHistory,
	schemaElementRelationships,
	schemaCommands,
	schemaInteractions,
	schemaMigrations,
}
