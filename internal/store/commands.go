package store

import (
	"fmt"
	"time"

	"github.com/voxmap/voxmap/internal/model"
)

// UpsertCommands replaces the non-persistent commands for a package
// with the given set: every existing non-persistent command for the
// package is deleted, then the new commands are inserted. Persistent
// commands (the fixed system set) are left untouched so they survive
// across scrapes without being regenerated each time.
func (s *Store) UpsertCommands(packageName string, commands []*model.GeneratedCommand) error {
	tx, err := s.writer.Begin()
	if err != nil {
		return fmt.Errorf("store: upsert_commands begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM generated_commands WHERE package_name = ? AND is_persistent = 0`, packageName); err != nil {
		return fmt.Errorf("store: upsert_commands delete stale: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	insert, err := tx.Prepare(`
		INSERT INTO generated_commands (
			package_name, element_hash, phrase, action_type, confidence,
			is_persistent, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(package_name, phrase) DO UPDATE SET
			element_hash = excluded.element_hash,
			action_type = excluded.action_type,
			confidence = excluded.confidence,
			is_persistent = excluded.is_persistent`)
	if err != nil {
		return fmt.Errorf("store: upsert_commands prepare: %w", err)
	}
	defer insert.Close()

	for _, c := range commands {
		if _, err := insert.Exec(
			packageName, c.ElementHash, c.Phrase, string(c.ActionType), c.Confidence,
			boolToInt(c.IsPersistent), now,
		); err != nil {
			return fmt.Errorf("store: upsert_commands insert %q: %w", c.Phrase, err)
		}
	}

	var commandCount int64
	if err := tx.QueryRow(`SELECT COUNT(*) FROM generated_commands WHERE package_name = ?`, packageName).Scan(&commandCount); err != nil {
		return fmt.Errorf("store: upsert_commands count: %w", err)
	}
	if _, err := tx.Exec(`UPDATE apps SET command_count = ? WHERE package_name = ?`, commandCount, packageName); err != nil {
		return fmt.Errorf("store: upsert_commands update app counter: %w", err)
	}

	return tx.Commit()
}

// ListCommands returns every currently active command for a package.
func (s *Store) ListCommands(packageName string) ([]*model.GeneratedCommand, error) {
	rows, err := s.reader.Query(`
		SELECT command_id, package_name, element_hash, phrase, action_type,
		       confidence, is_persistent, last_used_at, created_at
		FROM generated_commands WHERE package_name = ?`, packageName)
	if err != nil {
		return nil, fmt.Errorf("store: list commands %s: %w", packageName, err)
	}
	defer rows.Close()

	var results []*model.GeneratedCommand
	for rows.Next() {
		c := &model.GeneratedCommand{}
		var actionType, createdAt string
		var lastUsedAt, elementHash *string
		if err := rows.Scan(
			&c.CommandID, &c.PackageName, &elementHash, &c.Phrase, &actionType,
			&c.Confidence, &c.IsPersistent, &lastUsedAt, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("store: scan command row: %w", err)
		}
		c.ActionType = model.ActionType(actionType)
		if elementHash != nil {
			c.ElementHash = *elementHash
		}
		if lastUsedAt != nil {
			c.LastUsedAt, _ = time.Parse(time.RFC3339, *lastUsedAt)
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list commands iteration: %w", err)
	}
	return results, nil
}

// TouchCommand updates last_used_at for a command phrase after it is
// successfully dispatched.
func (s *Store) TouchCommand(packageName, phrase string) error {
	_, err := s.writer.Exec(`
		UPDATE generated_commands SET last_used_at = ?
		WHERE package_name = ? AND phrase = ?`,
		time.Now().UTC().Format(time.RFC3339), packageName, phrase,
	)
	if err != nil {
		return fmt.Errorf("store: touch command %q: %w", phrase, err)
	}
	return nil
}
