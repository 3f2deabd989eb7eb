package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/paleoml/paleo/pkg/metadata"
)

const artifactColumns = "a.id, a.type, a.uri, a.name, a.create_time_since_epoch"

// GetArtifacts lists artifacts, optionally narrowed by a filter query.
func (s *Store) GetArtifacts(ctx context.Context, opts metadata.ListOptions) ([]metadata.Artifact, error) {
	where, args, err := whereFor(opts.FilterQuery, "a", "artifact_properties", "artifact_id", true)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + artifactColumns + " FROM artifacts a" + where + " ORDER BY a.id"
	return s.queryArtifacts(ctx, query, args...)
}

// GetArtifactsByID fetches artifacts by id. Missing ids are silently absent
// from the result; callers decide whether that is an error.
func (s *Store) GetArtifactsByID(ctx context.Context, ids []int64) ([]metadata.Artifact, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(
		"SELECT %s FROM artifacts a WHERE a.id IN (%s) ORDER BY a.id",
		artifactColumns, placeholders(len(ids)),
	)
	return s.queryArtifacts(ctx, query, int64Args(ids)...)
}

// GetArtifactsByType lists artifacts of the given declared type.
func (s *Store) GetArtifactsByType(ctx context.Context, typeName string) ([]metadata.Artifact, error) {
	query := "SELECT " + artifactColumns + " FROM artifacts a WHERE a.type = ? ORDER BY a.id"
	return s.queryArtifacts(ctx, query, typeName)
}

// GetArtifactsByURI lists artifacts at the given URI.
func (s *Store) GetArtifactsByURI(ctx context.Context, uri string) ([]metadata.Artifact, error) {
	query := "SELECT " + artifactColumns + " FROM artifacts a WHERE a.uri = ? ORDER BY a.id"
	return s.queryArtifacts(ctx, query, uri)
}

func (s *Store) queryArtifacts(ctx context.Context, query string, args ...any) ([]metadata.Artifact, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []metadata.Artifact
	for rows.Next() {
		var a metadata.Artifact
		var createMS int64
		if err := rows.Scan(&a.ID, &a.Type, &a.URI, &a.Name, &createMS); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		a.CreateTime = time.UnixMilli(createMS).UTC()
		artifacts = append(artifacts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadArtifactProperties(ctx, artifacts); err != nil {
		return nil, err
	}
	return artifacts, nil
}

func (s *Store) loadArtifactProperties(ctx context.Context, artifacts []metadata.Artifact) error {
	if len(artifacts) == 0 {
		return nil
	}

	ids := make([]int64, len(artifacts))
	index := make(map[int64]int, len(artifacts))
	for i := range artifacts {
		ids[i] = artifacts[i].ID
		index[artifacts[i].ID] = i
	}

	query := fmt.Sprintf(
		`SELECT artifact_id, name, string_value, int_value, double_value, bool_value
		 FROM artifact_properties WHERE artifact_id IN (%s)`,
		placeholders(len(ids)),
	)
	rows, err := s.db.QueryContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return fmt.Errorf("failed to query artifact properties: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var name string
		var str sql.NullString
		var i sql.NullInt64
		var d sql.NullFloat64
		var b sql.NullInt64
		if err := rows.Scan(&id, &name, &str, &i, &d, &b); err != nil {
			return fmt.Errorf("failed to scan artifact property: %w", err)
		}
		a := &artifacts[index[id]]
		if a.CustomProperties == nil {
			a.CustomProperties = make(map[string]metadata.PropertyValue)
		}
		a.CustomProperties[name] = scanProperty(str, i, d, b)
	}
	return rows.Err()
}

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

	res, err := tx.ExecContext(ctx,
		`INSERT INTO artifacts (type, uri, name, create_time_since_epoch) VALUES (?, ?, ?, ?)`,
		a.Type, a.URI, a.Name, a.CreateTime.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert artifact: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	a.ID = id

	for name, value := range a.CustomProperties {
		str, i, d, b := propertyColumns(value)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO artifact_properties (artifact_id, name, string_value, int_value, double_value, bool_value)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, name, str, i, d, b,
		); err != nil {
			return 0, fmt.Errorf("failed to insert artifact property %s: %w", name, err)
		}
	}

	return id, tx.Commit()
}
