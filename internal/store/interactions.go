package store

import (
	"fmt"
	"time"

	"github.com/voxmap/voxmap/internal/model"
)

// RecordInteraction appends one entry to the user interaction log,
// which RecentInteractions reads back and Prune ages out.
func (s *Store) RecordInteraction(elementHash string, actionType model.ActionType, succeeded bool, latencyMS int64) error {
	_, err := s.writer.Exec(`
		INSERT INTO user_interactions (element_hash, action_type, succeeded, latency_ms, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		elementHash, string(actionType), boolToInt(succeeded), latencyMS, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("store: record interaction %s: %w", elementHash, err)
	}
	return nil
}

// RecentInteractions returns the most recent interactions for an
// element, most recent first, capped at limit rows.
func (s *Store) RecentInteractions(elementHash string, limit int) ([]*model.UserInteraction, error) {
	rows, err := s.reader.Query(`
		SELECT element_hash, action_type, succeeded, latency_ms, timestamp
		FROM user_interactions WHERE element_hash = ?
		ORDER BY timestamp DESC LIMIT ?`, elementHash, limit)
	if err != nil {
		return nil, fmt.Errorf("store: recent interactions %s: %w", elementHash, err)
	}
	defer rows.Close()

	var results []*model.UserInteraction
	for rows.Next() {
		ui := &model.UserInteraction{}
		var actionType, timestamp string
		var succeeded int
		if err := rows.Scan(&ui.ElementHash, &actionType, &succeeded, &ui.LatencyMS, &timestamp); err != nil {
			return nil, fmt.Errorf("store: scan interaction row: %w", err)
		}
		ui.ActionType = model.ActionType(actionType)
		ui.Succeeded = succeeded != 0
		ui.Timestamp, _ = time.Parse(time.RFC3339, timestamp)
		results = append(results, ui)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: recent interactions iteration: %w", err)
	}
	return results, nil
}
