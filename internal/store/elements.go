package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/voxmap/voxmap/internal/model"
)

// GetElement retrieves a single Element by its hash.
func (s *Store) GetElement(elementHash string) (*model.Element, error) {
	e := &model.Element{}
	var lastSeen string
	var isClickable, isLongClickable, isScrollable, isFocusable, isEnabled int

	err := s.reader.QueryRow(`
		SELECT element_hash, package_name, screen_hash, class_name, resource_id,
		       text, content_description, structural_path,
		       bounds_left, bounds_top, bounds_right, bounds_bottom,
		       is_clickable, is_long_clickable, is_scrollable, is_focusable, is_enabled,
		       input_type, placeholder_text, depth, child_order, visual_weight,
		       list_index, form_group_id, last_seen_at
		FROM elements WHERE element_hash = ?`, elementHash,
	).Scan(
		&e.ElementHash, &e.PackageName, &e.ScreenHash, &e.ClassName, &e.ResourceID,
		&e.Text, &e.ContentDescription, &e.StructuralPath,
		&e.Bounds.Left, &e.Bounds.Top, &e.Bounds.Right, &e.Bounds.Bottom,
		&isClickable, &isLongClickable, &isScrollable, &isFocusable, &isEnabled,
		&e.InputType, &e.PlaceholderText, &e.Depth, &e.ChildOrder, &e.VisualWeight,
		&e.ListIndex, &e.FormGroupID, &lastSeen,
	)
	if err != nil {
		return nil, fmt.Errorf("store: get element %s: %w", elementHash, err)
	}

	e.IsClickable = isClickable != 0
	e.IsLongClickable = isLongClickable != 0
	e.IsScrollable = isScrollable != 0
	e.IsFocusable = isFocusable != 0
	e.IsEnabled = isEnabled != 0
	e.LastSeenAt, _ = time.Parse(time.RFC3339, lastSeen)
	return e, nil
}

// ListElements returns every element currently recorded for a screen,
// ordered by depth and then child order (level by level, not the
// Walker's depth-first emission order).
func (s *Store) ListElements(screenHash string) ([]*model.Element, error) {
	rows, err := s.reader.Query(`
		SELECT element_hash, package_name, screen_hash, class_name, resource_id,
		       text, content_description, structural_path,
		       bounds_left, bounds_top, bounds_right, bounds_bottom,
		       is_clickable, is_long_clickable, is_scrollable, is_focusable, is_enabled,
		       input_type, placeholder_text, depth, child_order, visual_weight,
		       list_index, form_group_id, last_seen_at
		FROM elements WHERE screen_hash = ?
		ORDER BY depth ASC, child_order ASC`, screenHash)
	if err != nil {
		return nil, fmt.Errorf("store: list elements %s: %w", screenHash, err)
	}
	defer rows.Close()

	var results []*model.Element
	for rows.Next() {
		e := &model.Element{}
		var lastSeen string
		var isClickable, isLongClickable, isScrollable, isFocusable, isEnabled int
		if err := rows.Scan(
			&e.ElementHash, &e.PackageName, &e.ScreenHash, &e.ClassName, &e.ResourceID,
			&e.Text, &e.ContentDescription, &e.StructuralPath,
			&e.Bounds.Left, &e.Bounds.Top, &e.Bounds.Right, &e.Bounds.Bottom,
			&isClickable, &isLongClickable, &isScrollable, &isFocusable, &isEnabled,
			&e.InputType, &e.PlaceholderText, &e.Depth, &e.ChildOrder, &e.VisualWeight,
			&e.ListIndex, &e.FormGroupID, &lastSeen,
		); err != nil {
			return nil, fmt.Errorf("store: scan element row: %w", err)
		}
		e.IsClickable = isClickable != 0
		e.IsLongClickable = isLongClickable != 0
		e.IsScrollable = isScrollable != 0
		e.IsFocusable = isFocusable != 0
		e.IsEnabled = isEnabled != 0
		e.LastSeenAt, _ = time.Parse(time.RFC3339, lastSeen)
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list elements iteration: %w", err)
	}
	return results, nil
}

// ReplaceScrape is the atomic scrape commit. In one transaction it:
// (1) deletes every hierarchy edge whose parent or child belongs to
// this package, (2) upserts the given elements by
// element_hash, (3) deletes elements still tagged with this screen_hash
// that are no longer part of the new set, (4) inserts the given edges,
// (5) sets the app's element_count to the post-commit row count,
// increments scrape_count and stamps last_scraped_at (command_count is
// maintained by UpsertCommands). The ordering is
// load-bearing: deleting edges before upserting elements means a stale
// edge can never coexist with a freshly-inserted element whose hash
// differs from what the edge expected, which is exactly the FK
// violation the source system suffered from. Stale elements are only
// dropped after the new set is safely in place, and the new edges are
// only inserted once those stale rows are gone, so a new edge can never
// be shadowed by a like-named stale one.
//
// Any failure anywhere in this transaction rolls everything back; the
// prior scrape remains authoritative and the caller (Coordinator) may
// retry once with backoff.
func (s *Store) ReplaceScrape(packageName, screenHash string, elements []*model.Element, edges []model.HierarchyEdge) error {
	tx, err := s.writer.Begin()
	if err != nil {
		return fmt.Errorf("store: replace_scrape begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// Edge regeneration is scoped to the whole package, not just this
	// screen: an element whose hash is stable can migrate between
	// screen rows across scrapes, and a narrower scope would leave its
	// old edges behind to collide with the fresh insert.
	if _, err := tx.Exec(`
		DELETE FROM hierarchy_edges
		WHERE parent_element_hash IN (SELECT element_hash FROM elements WHERE package_name = ?)
		   OR child_element_hash IN (SELECT element_hash FROM elements WHERE package_name = ?)`,
		packageName, packageName,
	); err != nil {
		return fmt.Errorf("store: replace_scrape delete edges: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	upsertElement, err := tx.Prepare(`
		INSERT INTO elements (
			element_hash, package_name, screen_hash, class_name, resource_id,
			text, content_description, structural_path,
			bounds_left, bounds_top, bounds_right, bounds_bottom,
			is_clickable, is_long_clickable, is_scrollable, is_focusable, is_enabled,
			input_type, placeholder_text, depth, child_order, visual_weight,
			list_index, form_group_id, last_seen_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(element_hash) DO UPDATE SET
			screen_hash = excluded.screen_hash,
			text = excluded.text,
			content_description = excluded.content_description,
			bounds_left = excluded.bounds_left,
			bounds_top = excluded.bounds_top,
			bounds_right = excluded.bounds_right,
			bounds_bottom = excluded.bounds_bottom,
			is_clickable = excluded.is_clickable,
			is_long_clickable = excluded.is_long_clickable,
			is_scrollable = excluded.is_scrollable,
			is_focusable = excluded.is_focusable,
			is_enabled = excluded.is_enabled,
			input_type = excluded.input_type,
			placeholder_text = excluded.placeholder_text,
			depth = excluded.depth,
			child_order = excluded.child_order,
			visual_weight = excluded.visual_weight,
			list_index = excluded.list_index,
			form_group_id = excluded.form_group_id,
			last_seen_at = excluded.last_seen_at`)
	if err != nil {
		return fmt.Errorf("store: replace_scrape prepare upsert: %w", err)
	}
	defer upsertElement.Close()

	for _, e := range elements {
		if _, err := upsertElement.Exec(
			e.ElementHash, e.PackageName, screenHash, e.ClassName, e.ResourceID,
			e.Text, e.ContentDescription, e.StructuralPath,
			e.Bounds.Left, e.Bounds.Top, e.Bounds.Right, e.Bounds.Bottom,
			boolToInt(e.IsClickable), boolToInt(e.IsLongClickable), boolToInt(e.IsScrollable),
			boolToInt(e.IsFocusable), boolToInt(e.IsEnabled),
			e.InputType, e.PlaceholderText, e.Depth, e.ChildOrder, e.VisualWeight,
			e.ListIndex, e.FormGroupID, now,
		); err != nil {
			return fmt.Errorf("store: replace_scrape upsert element %s: %w", e.ElementHash, err)
		}
	}

	keep := make([]string, len(elements))
	args := make([]interface{}, 0, len(elements)+1)
	args = append(args, screenHash)
	for i, e := range elements {
		keep[i] = "?"
		args = append(args, e.ElementHash)
	}
	deleteStale := fmt.Sprintf(
		`DELETE FROM elements WHERE screen_hash = ? AND element_hash NOT IN (%s)`,
		placeholderList(keep),
	)
	if len(elements) == 0 {
		deleteStale = `DELETE FROM elements WHERE screen_hash = ?`
		args = []interface{}{screenHash}
	}
	if _, err := tx.Exec(deleteStale, args...); err != nil {
		return fmt.Errorf("store: replace_scrape delete stale elements: %w", err)
	}

	insertEdge, err := tx.Prepare(`
		INSERT INTO hierarchy_edges (parent_element_hash, child_element_hash, child_order)
		VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: replace_scrape prepare edge insert: %w", err)
	}
	defer insertEdge.Close()

	for _, edge := range edges {
		if _, err := insertEdge.Exec(edge.ParentElementHash, edge.ChildElementHash, edge.ChildOrder); err != nil {
			return fmt.Errorf("store: replace_scrape insert edge %s->%s: %w", edge.ParentElementHash, edge.ChildElementHash, err)
		}
	}

	var totalElementCount int64
	if err := tx.QueryRow(`SELECT COUNT(*) FROM elements WHERE package_name = ?`, packageName).Scan(&totalElementCount); err != nil {
		return fmt.Errorf("store: replace_scrape count elements: %w", err)
	}

	if _, err := tx.Exec(`
		UPDATE apps SET
			scrape_count = scrape_count + 1,
			element_count = ?,
			last_scraped_at = ?
		WHERE package_name = ?`,
		totalElementCount, now, packageName,
	); err != nil {
		return fmt.Errorf("store: replace_scrape update app counters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: replace_scrape commit: %w", err)
	}
	return nil
}

// ListEdges returns the hierarchy edges belonging to a screen.
func (s *Store) ListEdges(screenHash string) ([]model.HierarchyEdge, error) {
	rows, err := s.reader.Query(`
		SELECT he.parent_element_hash, he.child_element_hash, he.child_order
		FROM hierarchy_edges he
		JOIN elements e ON e.element_hash = he.parent_element_hash
		WHERE e.screen_hash = ?`, screenHash)
	if err != nil {
		return nil, fmt.Errorf("store: list edges %s: %w", screenHash, err)
	}
	defer rows.Close()

	var edges []model.HierarchyEdge
	for rows.Next() {
		var edge model.HierarchyEdge
		if err := rows.Scan(&edge.ParentElementHash, &edge.ChildElementHash, &edge.ChildOrder); err != nil {
			return nil, fmt.Errorf("store: scan edge row: %w", err)
		}
		edges = append(edges, edge)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list edges iteration: %w", err)
	}
	return edges, nil
}

// ErrNotFound is returned (wrapped) by single-row lookups that find no
// matching row, mirroring sql.ErrNoRows for callers outside this
// package that should not need to import database/sql.
var ErrNotFound = sql.ErrNoRows

func placeholderList(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += ", "
		}
		out += item
	}
	return out
}
