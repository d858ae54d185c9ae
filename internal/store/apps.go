package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/voxmap/voxmap/internal/model"
)

// UpsertApp inserts a new App row or, if package_name already exists,
// updates its version/hash/mode fields while preserving scrape_count,
// element_count, and command_count (those are only mutated by
// replace_scrape / upsert_commands).
func (s *Store) UpsertApp(a *model.App) error {
	now := time.Now().UTC().Format(time.RFC3339)
	if a.FirstScrapedAt.IsZero() {
		a.FirstScrapedAt = time.Now().UTC()
	}

	_, err := s.writer.Exec(`
		INSERT INTO apps (
			package_name, app_hash, version_code, version_name, scraping_mode,
			is_fully_learned, scrape_count, element_count, command_count,
			first_scraped_at, last_scraped_at
		) VALUES (?, ?, ?, ?, ?, ?, 0, 0, 0, ?, ?)
		ON CONFLICT(package_name) DO UPDATE SET
			app_hash = excluded.app_hash,
			version_code = excluded.version_code,
			version_name = excluded.version_name,
			scraping_mode = excluded.scraping_mode,
			is_fully_learned = excluded.is_fully_learned,
			last_scraped_at = excluded.last_scraped_at`,
		a.PackageName, a.AppHash, a.VersionCode, a.VersionName, string(a.ScrapingMode),
		boolToInt(a.IsFullyLearned), a.FirstScrapedAt.UTC().Format(time.RFC3339), now,
	)
	if err != nil {
		return fmt.Errorf("store: upsert app %s: %w", a.PackageName, err)
	}
	return nil
}

// GetApp retrieves an App by package name.
func (s *Store) GetApp(packageName string) (*model.App, error) {
	a := &model.App{}
	var mode string
	var isFullyLearned int
	var firstScraped, lastScraped string

	err := s.reader.QueryRow(`
		SELECT package_name, app_hash, version_code, version_name, scraping_mode,
		       is_fully_learned, scrape_count, element_count, command_count,
		       first_scraped_at, last_scraped_at
		FROM apps WHERE package_name = ?`, packageName,
	).Scan(
		&a.PackageName, &a.AppHash, &a.VersionCode, &a.VersionName, &mode,
		&isFullyLearned, &a.ScrapeCount, &a.ElementCount, &a.CommandCount,
		&firstScraped, &lastScraped,
	)
	if err != nil {
		return nil, fmt.Errorf("store: get app %s: %w", packageName, err)
	}

	a.ScrapingMode = model.ScrapingMode(mode)
	a.IsFullyLearned = isFullyLearned != 0
	a.FirstScrapedAt, _ = time.Parse(time.RFC3339, firstScraped)
	a.LastScrapedAt, _ = time.Parse(time.RFC3339, lastScraped)
	return a, nil
}

// SetScrapingMode updates only the scraping_mode column for a package,
// used by the Coordinator to freeze or thaw an app between scrapes.
func (s *Store) SetScrapingMode(packageName string, mode model.ScrapingMode) error {
	result, err := s.writer.Exec(`UPDATE apps SET scraping_mode = ? WHERE package_name = ?`, string(mode), packageName)
	if err != nil {
		return fmt.Errorf("store: set scraping mode %s: %w", packageName, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: set scraping mode rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("store: set scraping mode %s: %w", packageName, sql.ErrNoRows)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
