package store

import (
	"fmt"
	"time"

	"github.com/voxmap/voxmap/internal/model"
)

// AppendStateChange records a single append-only element state
// transition. State history is never mutated or deleted except by the
// opportunistic retention sweep in Prune.
func (s *Store) AppendStateChange(elementHash string, stateType model.StateType, value, triggerSource string) error {
	_, err := s.writer.Exec(`
		INSERT INTO element_state_history (element_hash, state_type, value, changed_at, trigger_source)
		VALUES (?, ?, ?, ?, ?)`,
		elementHash, string(stateType), value, time.Now().UTC().Format(time.RFC3339), triggerSource,
	)
	if err != nil {
		return fmt.Errorf("store: append state change %s: %w", elementHash, err)
	}
	return nil
}

// StateChangeCount returns how many stateType rows were recorded for an
// element within the given lookback window, for live-content detection.
// It counts rows, not value changes: two rows with the same value both
// count.
func (s *Store) StateChangeCount(elementHash string, stateType model.StateType, since time.Time) (int, error) {
	var count int
	err := s.reader.QueryRow(`
		SELECT COUNT(*) FROM element_state_history
		WHERE element_hash = ? AND state_type = ? AND changed_at >= ?`,
		elementHash, string(stateType), since.UTC().Format(time.RFC3339),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("store: state change count %s: %w", elementHash, err)
	}
	return count, nil
}

// MarkLiveContent flips the is_live_content flag for an element so it
// is excluded from future screen content-fingerprint descriptor
// selection.
func (s *Store) MarkLiveContent(elementHash string, isLive bool) error {
	_, err := s.writer.Exec(`UPDATE elements SET is_live_content = ? WHERE element_hash = ?`, boolToInt(isLive), elementHash)
	if err != nil {
		return fmt.Errorf("store: mark live content %s: %w", elementHash, err)
	}
	return nil
}

// IsLiveContent reports whether elementHash is currently flagged as
// live content. Unknown element hashes report false rather than error,
// since a descriptor filter checking a hash from the current walk that
// hasn't been committed yet is not itself an error condition.
func (s *Store) IsLiveContent(elementHash string) bool {
	var flag int
	err := s.reader.QueryRow(`SELECT is_live_content FROM elements WHERE element_hash = ?`, elementHash).Scan(&flag)
	if err != nil {
		return false
	}
	return flag != 0
}
