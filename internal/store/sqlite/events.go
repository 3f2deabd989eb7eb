package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/paleoml/paleo/pkg/metadata"
)

// GetEventsByExecutionIDs lists events touching any of the given executions,
// in event-listing (insertion) order.
func (s *Store) GetEventsByExecutionIDs(ctx context.Context, executionIDs []int64) ([]metadata.Event, error) {
	if len(executionIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(
		`SELECT artifact_id, execution_id, type, milliseconds_since_epoch
		 FROM events WHERE execution_id IN (%s) ORDER BY id`,
		placeholders(len(executionIDs)),
	)
	return s.queryEvents(ctx, query, int64Args(executionIDs)...)
}

// GetEventsByArtifactIDs lists events touching any of the given artifacts,
// in event-listing (insertion) order.
func (s *Store) GetEventsByArtifactIDs(ctx context.Context, artifactIDs []int64) ([]metadata.Event, error) {
	if len(artifactIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(
		`SELECT artifact_id, execution_id, type, milliseconds_since_epoch
		 FROM events WHERE artifact_id IN (%s) ORDER BY id`,
		placeholders(len(artifactIDs)),
	)
	return s.queryEvents(ctx, query, int64Args(artifactIDs)...)
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]metadata.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []metadata.Event
	for rows.Next() {
		var ev metadata.Event
		var ms int64
		if err := rows.Scan(&ev.ArtifactID, &ev.ExecutionID, &ev.Type, &ms); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.Time = time.UnixMilli(ms).UTC()
		events = append(events, ev)
	}
	return events, rows.Err()
}

// PutEvent records an artifact/execution link. Both endpoints must exist.
func (s *Store) PutEvent(ctx context.Context, ev *metadata.Event) error {
	if ev.Type != metadata.EventInput && ev.Type != metadata.EventOutput {
		return fmt.Errorf("invalid event type %q", ev.Type)
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (artifact_id, execution_id, type, milliseconds_since_epoch) VALUES (?, ?, ?, ?)`,
		ev.ArtifactID, ev.ExecutionID, ev.Type, ev.Time.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}
