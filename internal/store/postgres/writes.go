package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/paleoml/paleo/internal/store/traverse"
	"github.com/paleoml/paleo/pkg/metadata"
)

// PutArtifact inserts an artifact and its custom properties, assigning and
// returning the new id.
func (s *Store) PutArtifact(ctx context.Context, a *metadata.Artifact) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if a.CreateTime.IsZero() {
		a.CreateTime = time.Now().UTC()
	}

	var id int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO artifacts (type, uri, name, create_time_since_epoch) VALUES ($1, $2, $3, $4) RETURNING id`,
		a.Type, a.URI, a.Name, a.CreateTime.UnixMilli(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert artifact: %w", err)
	}
	a.ID = id

	for name, value := range a.CustomProperties {
		str, i, d, b := propertyColumns(value)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO artifact_properties (artifact_id, name, string_value, int_value, double_value, bool_value)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			id, name, str, i, d, b,
		); err != nil {
			return 0, fmt.Errorf("failed to insert artifact property %s: %w", name, err)
		}
	}

	return id, tx.Commit()
}

// PutExecution inserts an execution and its custom properties, assigning and
// returning the new id.
func (s *Store) PutExecution(ctx context.Context, e *metadata.Execution) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if e.CreateTime.IsZero() {
		e.CreateTime = time.Now().UTC()
	}

	var id int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO executions (type, name, create_time_since_epoch) VALUES ($1, $2, $3) RETURNING id`,
		e.Type, e.Name, e.CreateTime.UnixMilli(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert execution: %w", err)
	}
	e.ID = id

	for name, value := range e.CustomProperties {
		str, i, d, b := propertyColumns(value)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO execution_properties (execution_id, name, string_value, int_value, double_value, bool_value)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			id, name, str, i, d, b,
		); err != nil {
			return 0, fmt.Errorf("failed to insert execution property %s: %w", name, err)
		}
	}

	return id, tx.Commit()
}

// PutEvent records an artifact/execution link.
func (s *Store) PutEvent(ctx context.Context, ev *metadata.Event) error {
	if ev.Type != metadata.EventInput && ev.Type != metadata.EventOutput {
		return fmt.Errorf("invalid event type %q", ev.Type)
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (artifact_id, execution_id, type, milliseconds_since_epoch) VALUES ($1, $2, $3, $4)`,
		ev.ArtifactID, ev.ExecutionID, ev.Type, ev.Time.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// PutContext inserts a context, assigning and returning the new id.
func (s *Store) PutContext(ctx context.Context, c *metadata.Context) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO contexts (type, name) VALUES ($1, $2) RETURNING id`,
		c.Type, c.Name,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert context: %w", err)
	}
	c.ID = id
	return id, nil
}

// PutAssociation links an execution to a context. Duplicate links are a no-op.
func (s *Store) PutAssociation(ctx context.Context, a *metadata.Association) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO associations (context_id, execution_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
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
		`INSERT INTO attributions (context_id, artifact_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		a.ContextID, a.ArtifactID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert attribution: %w", err)
	}
	return nil
}

// GetLineageSubgraph returns everything reachable from the query's starting
// nodes. Traversal semantics are shared with the sqlite backend.
func (s *Store) GetLineageSubgraph(ctx context.Context, q metadata.LineageSubgraphQuery) (*metadata.LineageGraph, error) {
	return traverse.Subgraph(ctx, s, q)
}
