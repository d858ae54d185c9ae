package store

import (
	"fmt"
	"time"

	"github.com/voxmap/voxmap/internal/model"
)

// UpsertScreen inserts a new Screen row or, if screen_hash already
// exists (the same logical screen re-observed), increments visit_count
// and updates last_seen_at. Keying on screen_hash rather than
// (package, activity) is what makes re-visiting a previously-seen
// screen cheap and idempotent.
func (s *Store) UpsertScreen(sc *model.Screen) error {
	now := time.Now().UTC().Format(time.RFC3339)
	firstSeen := now
	if !sc.FirstSeenAt.IsZero() {
		firstSeen = sc.FirstSeenAt.UTC().Format(time.RFC3339)
	}

	_, err := s.writer.Exec(`
		INSERT INTO screens (
			screen_hash, package_name, activity_class, window_title,
			content_fingerprint, visit_count, first_seen_at, last_seen_at
		) VALUES (?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(screen_hash) DO UPDATE SET
			visit_count = screens.visit_count + 1,
			last_seen_at = excluded.last_seen_at`,
		sc.ScreenHash, sc.PackageName, sc.ActivityClass, sc.WindowTitle,
		sc.ContentFingerprint, firstSeen, now,
	)
	if err != nil {
		return fmt.Errorf("store: upsert screen %s: %w", sc.ScreenHash, err)
	}
	return nil
}

// GetScreen retrieves a Screen by its hash.
func (s *Store) GetScreen(screenHash string) (*model.Screen, error) {
	sc := &model.Screen{}
	var firstSeen, lastSeen string

	err := s.reader.QueryRow(`
		SELECT screen_hash, package_name, activity_class, window_title,
		       content_fingerprint, visit_count, first_seen_at, last_seen_at
		FROM screens WHERE screen_hash = ?`, screenHash,
	).Scan(
		&sc.ScreenHash, &sc.PackageName, &sc.ActivityClass, &sc.WindowTitle,
		&sc.ContentFingerprint, &sc.VisitCount, &firstSeen, &lastSeen,
	)
	if err != nil {
		return nil, fmt.Errorf("store: get screen %s: %w", screenHash, err)
	}

	sc.FirstSeenAt, _ = time.Parse(time.RFC3339, firstSeen)
	sc.LastSeenAt, _ = time.Parse(time.RFC3339, lastSeen)
	return sc, nil
}

// ListScreens returns every screen recorded for a package, most
// recently visited first.
func (s *Store) ListScreens(packageName string) ([]*model.Screen, error) {
	rows, err := s.reader.Query(`
		SELECT screen_hash, package_name, activity_class, window_title,
		       content_fingerprint, visit_count, first_seen_at, last_seen_at
		FROM screens WHERE package_name = ?
		ORDER BY last_seen_at DESC`, packageName)
	if err != nil {
		return nil, fmt.Errorf("store: list screens %s: %w", packageName, err)
	}
	defer rows.Close()

	var results []*model.Screen
	for rows.Next() {
		sc := &model.Screen{}
		var firstSeen, lastSeen string
		if err := rows.Scan(
			&sc.ScreenHash, &sc.PackageName, &sc.ActivityClass, &sc.WindowTitle,
			&sc.ContentFingerprint, &sc.VisitCount, &firstSeen, &lastSeen,
		); err != nil {
			return nil, fmt.Errorf("store: scan screen row: %w", err)
		}
		sc.FirstSeenAt, _ = time.Parse(time.RFC3339, firstSeen)
		sc.LastSeenAt, _ = time.Parse(time.RFC3339, lastSeen)
		results = append(results, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list screens iteration: %w", err)
	}
	return results, nil
}
