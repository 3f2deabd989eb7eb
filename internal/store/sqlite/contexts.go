package sqlite

import (
	"context"
	"fmt"

	"github.com/paleoml/paleo/pkg/metadata"
)

// GetContextsByID fetches contexts by id.
func (s *Store) GetContextsByID(ctx context.Context, ids []int64) ([]metadata.Context, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(
		`SELECT id, type, name FROM contexts WHERE id IN (%s) ORDER BY id`,
		placeholders(len(ids)),
	)
	rows, err := s.db.QueryContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contexts: %w", err)
	}
	defer rows.Close()

	var contexts []metadata.Context
	for rows.Next() {
		var c metadata.Context
		if err := rows.Scan(&c.ID, &c.Type, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan context: %w", err)
		}
		contexts = append(contexts, c)
	}
	return contexts, rows.Err()
}

// GetAttributionsByArtifactIDs lists attribution records for the given artifacts.
func (s *Store) GetAttributionsByArtifactIDs(ctx context.Context, artifactIDs []int64) ([]metadata.Attribution, error) {
	if len(artifactIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(
		`SELECT context_id, artifact_id FROM attributions WHERE artifact_id IN (%s) ORDER BY context_id, artifact_id`,
		placeholders(len(artifactIDs)),
	)
	rows, err := s.db.QueryContext(ctx, query, int64Args(artifactIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attributions: %w", err)
	}
	defer rows.Close()

	var attributions []metadata.Attribution
	for rows.Next() {
		var a metadata.Attribution
		if err := rows.Scan(&a.ContextID, &a.ArtifactID); err != nil {
			return nil, fmt.Errorf("failed to scan attribution: %w", err)
		}
		attributions = append(attributions, a)
	}
	return attributions, rows.Err()
}

// GetAssociationsByExecutionIDs lists association records for the given executions.
func (s *Store) GetAssociationsByExecutionIDs(ctx context.Context, executionIDs []int64) ([]metadata.Association, error) {
	if len(executionIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(
		`SELECT context_id, execution_id FROM associations WHERE execution_id IN (%s) ORDER BY context_id, execution_id`,
		placeholders(len(executionIDs)),
	)
	rows, err := s.db.QueryContext(ctx, query, int64Args(executionIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query associations: %w", err)
	}
	defer rows.Close()

	var associations []metadata.Association
	for rows.Next() {
		var a metadata.Association
		if err := rows.Scan(&a.ContextID, &a.ExecutionID); err != nil {
			return nil, fmt.Errorf("failed to scan association: %w", err)
		}
		associations = append(associations, a)
	}
	return associations, rows.Err()
}

// PutContext inserts a context, assigning and returning the new id.
func (s *Store) PutContext(ctx context.Context, c *metadata.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO contexts (type, name) VALUES (?, ?)`,
		c.Type, c.Name,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert context: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	c.ID = id
	return id, nil
}

// PutAssociation links an execution to a context. Duplicate links are a no-op.
func (s *Store) PutAssociation(ctx context.Context, a *metadata.Association) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO associations (context_id, execution_id) VALUES (?, ?)`,
		a.ContextID, a.ExecutionID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert association: %w", err)
	}
	return nil
}

// PutAttribution links an artifact to a context. Duplicate links are a no-op.
func (s *Store) PutAttribution(ctx context.Context, a *metadata.Attribution) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO attributions (context_id, artifact_id) VALUES (?, ?)`,
		a.ContextID, a.ArtifactID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert attribution: %w", err)
	}
	return nil
}
