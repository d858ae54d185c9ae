package store

import (
	"fmt"
	"time"

	"github.com/voxmap/voxmap/internal/model"
)

// UpsertRelationship inserts or updates an ElementRelationship keyed by
// (source, target, type).
func (s *Store) UpsertRelationship(r *model.ElementRelationship) error {
	_, err := s.writer.Exec(`
		INSERT INTO element_relationships (
			source_element_hash, target_element_hash, relationship_type,
			relationship_data, updated_at
		) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source_element_hash, target_element_hash, relationship_type) DO UPDATE SET
			relationship_data = excluded.relationship_data,
			updated_at = excluded.updated_at`,
		r.SourceElementHash, r.TargetElementHash, string(r.RelationshipType),
		r.RelationshipData, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("store: upsert relationship %s->%s: %w", r.SourceElementHash, r.TargetElementHash, err)
	}
	return nil
}

// ListRelationshipsFor returns every relationship where elementHash is
// the source, e.g. to find the input field a label describes.
func (s *Store) ListRelationshipsFor(elementHash string) ([]*model.ElementRelationship, error) {
	rows, err := s.reader.Query(`
		SELECT source_element_hash, target_element_hash, relationship_type, relationship_data, updated_at
		FROM element_relationships WHERE source_element_hash = ?`, elementHash)
	if err != nil {
		return nil, fmt.Errorf("store: list relationships %s: %w", elementHash, err)
	}
	defer rows.Close()

	var results []*model.ElementRelationship
	for rows.Next() {
		r := &model.ElementRelationship{}
		var relType, updatedAt string
		if err := rows.Scan(&r.SourceElementHash, &r.TargetElementHash, &relType, &r.RelationshipData, &updatedAt); err != nil {
			return nil, fmt.Errorf("store: scan relationship row: %w", err)
		}
		r.RelationshipType = model.RelationshipType(relType)
		r.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list relationships iteration: %w", err)
	}
	return results, nil
}
