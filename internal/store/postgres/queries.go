package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/paleoml/paleo/internal/store/filter"
	"github.com/paleoml/paleo/pkg/metadata"
)

// pgPlaceholders returns "$start, $start+1, ..." for n parameters.
func pgPlaceholders(start, n int) string {
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// conditionClause translates a parsed filter condition into a WHERE fragment.
// allowURI is false for executions, which have no URI column.
func conditionClause(c *filter.Condition, alias, propTable, fkCol string, allowURI bool) (string, []any, error) {
	switch c.Field {
	case filter.FieldID:
		v, err := c.TypedValue()
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s.id = $1", alias), []any{v}, nil
	case filter.FieldName:
		return fmt.Sprintf("%s.name = $1", alias), []any{c.Value}, nil
	case filter.FieldType:
		return fmt.Sprintf("%s.type = $1", alias), []any{c.Value}, nil
	case filter.FieldURI:
		if !allowURI {
			return "", nil, fmt.Errorf("field %q not supported for this entity", c.Field)
		}
		return fmt.Sprintf("%s.uri = $1", alias), []any{c.Value}, nil
	case filter.FieldCustomProperty:
		v, err := c.TypedValue()
		if err != nil {
			return "", nil, err
		}
		clause := fmt.Sprintf(
			"EXISTS (SELECT 1 FROM %s p WHERE p.%s = %s.id AND p.name = $1 AND p.%s = $2)",
			propTable, fkCol, alias, c.Suffix,
		)
		return clause, []any{c.Property, v}, nil
	default:
		return "", nil, fmt.Errorf("unsupported filter field %q", c.Field)
	}
}

func whereFor(filterQuery, alias, propTable, fkCol string, allowURI bool) (string, []any, error) {
	if strings.TrimSpace(filterQuery) == "" {
		return "", nil, nil
	}
	cond, err := filter.Parse(filterQuery)
	if err != nil {
		return "", nil, err
	}
	clause, args, err := conditionClause(cond, alias, propTable, fkCol, allowURI)
	if err != nil {
		return "", nil, err
	}
	return " WHERE " + clause, args, nil
}

func scanProperty(str sql.NullString, i sql.NullInt64, d sql.NullFloat64, b sql.NullBool) metadata.PropertyValue {
	switch {
	case str.Valid:
		return metadata.StringValue(str.String)
	case i.Valid:
		return metadata.IntValue(i.Int64)
	case d.Valid:
		return metadata.DoubleValue(d.Float64)
	case b.Valid:
		return metadata.BoolValue(b.Bool)
	default:
		return metadata.PropertyValue{}
	}
}

func propertyColumns(v metadata.PropertyValue) (str, i, d, b any) {
	if s, ok := v.StringVal(); ok {
		return s, nil, nil, nil
	}
	if n, ok := v.IntVal(); ok {
		return nil, n, nil, nil
	}
	if f, ok := v.DoubleVal(); ok {
		return nil, nil, f, nil
	}
	if t, ok := v.BoolVal(); ok {
		return nil, nil, nil, t
	}
	return nil, nil, nil, nil
}

const artifactColumns = "a.id, a.type, a.uri, a.name, a.create_time_since_epoch"
const executionColumns = "e.id, e.type, e.name, e.create_time_since_epoch"

// GetArtifacts lists artifacts, optionally narrowed by a filter query.
func (s *Store) GetArtifacts(ctx context.Context, opts metadata.ListOptions) ([]metadata.Artifact, error) {
	where, args, err := whereFor(opts.FilterQuery, "a", "artifact_properties", "artifact_id", true)
	if err != nil {
		return nil, err
	}
	query := "SELECT " + artifactColumns + " FROM artifacts a" + where + " ORDER BY a.id"
	return s.queryArtifacts(ctx, query, args...)
}

// GetArtifactsByID fetches artifacts by id.
func (s *Store) GetArtifactsByID(ctx context.Context, ids []int64) ([]metadata.Artifact, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(
		"SELECT %s FROM artifacts a WHERE a.id IN (%s) ORDER BY a.id",
		artifactColumns, pgPlaceholders(1, len(ids)),
	)
	return s.queryArtifacts(ctx, query, int64Args(ids)...)
}

// GetArtifactsByType lists artifacts of the given declared type.
func (s *Store) GetArtifactsByType(ctx context.Context, typeName string) ([]metadata.Artifact, error) {
	query := "SELECT " + artifactColumns + " FROM artifacts a WHERE a.type = $1 ORDER BY a.id"
	return s.queryArtifacts(ctx, query, typeName)
}

// GetArtifactsByURI lists artifacts at the given URI.
func (s *Store) GetArtifactsByURI(ctx context.Context, uri string) ([]metadata.Artifact, error) {
	query := "SELECT " + artifactColumns + " FROM artifacts a WHERE a.uri = $1 ORDER BY a.id"
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

	if err := s.loadProperties(ctx, "artifact_properties", "artifact_id", len(artifacts),
		func(i int) int64 { return artifacts[i].ID },
		func(i int, name string, v metadata.PropertyValue) {
			if artifacts[i].CustomProperties == nil {
				artifacts[i].CustomProperties = make(map[string]metadata.PropertyValue)
			}
			artifacts[i].CustomProperties[name] = v
		},
	); err != nil {
		return nil, err
	}
	return artifacts, nil
}

// GetExecutions lists executions, optionally narrowed by a filter query.
func (s *Store) GetExecutions(ctx context.Context, opts metadata.ListOptions) ([]metadata.Execution, error) {
	where, args, err := whereFor(opts.FilterQuery, "e", "execution_properties", "execution_id", false)
	if err != nil {
		return nil, err
	}
	query := "SELECT " + executionColumns + " FROM executions e" + where + " ORDER BY e.id"
	return s.queryExecutions(ctx, query, args...)
}

// GetExecutionsByID fetches executions by id.
func (s *Store) GetExecutionsByID(ctx context.Context, ids []int64) ([]metadata.Execution, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(
		"SELECT %s FROM executions e WHERE e.id IN (%s) ORDER BY e.id",
		executionColumns, pgPlaceholders(1, len(ids)),
	)
	return s.queryExecutions(ctx, query, int64Args(ids)...)
}

// GetExecutionsByType lists executions of the given declared type.
func (s *Store) GetExecutionsByType(ctx context.Context, typeName string) ([]metadata.Execution, error) {
	query := "SELECT " + executionColumns + " FROM executions e WHERE e.type = $1 ORDER BY e.id"
	return s.queryExecutions(ctx, query, typeName)
}

func (s *Store) queryExecutions(ctx context.Context, query string, args ...any) ([]metadata.Execution, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer rows.Close()

	var executions []metadata.Execution
	for rows.Next() {
		var e metadata.Execution
		var createMS int64
		if err := rows.Scan(&e.ID, &e.Type, &e.Name, &createMS); err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		e.CreateTime = time.UnixMilli(createMS).UTC()
		executions = append(executions, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadProperties(ctx, "execution_properties", "execution_id", len(executions),
		func(i int) int64 { return executions[i].ID },
		func(i int, name string, v metadata.PropertyValue) {
			if executions[i].CustomProperties == nil {
				executions[i].CustomProperties = make(map[string]metadata.PropertyValue)
			}
			executions[i].CustomProperties[name] = v
		},
	); err != nil {
		return nil, err
	}
	return executions, nil
}

// loadProperties attaches custom properties to a fetched entity slice.
func (s *Store) loadProperties(ctx context.Context, table, fkCol string, n int,
	idAt func(int) int64, attach func(int, string, metadata.PropertyValue)) error {
	if n == 0 {
		return nil
	}

	ids := make([]int64, n)
	index := make(map[int64]int, n)
	for i := 0; i < n; i++ {
		ids[i] = idAt(i)
		index[ids[i]] = i
	}

	query := fmt.Sprintf(
		`SELECT %s, name, string_value, int_value, double_value, bool_value FROM %s WHERE %s IN (%s)`,
		fkCol, table, fkCol, pgPlaceholders(1, n),
	)
	rows, err := s.db.QueryContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return fmt.Errorf("failed to query properties: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var name string
		var str sql.NullString
		var i sql.NullInt64
		var d sql.NullFloat64
		var b sql.NullBool
		if err := rows.Scan(&id, &name, &str, &i, &d, &b); err != nil {
			return fmt.Errorf("failed to scan property: %w", err)
		}
		attach(index[id], name, scanProperty(str, i, d, b))
	}
	return rows.Err()
}

// GetEventsByExecutionIDs lists events touching any of the given executions.
func (s *Store) GetEventsByExecutionIDs(ctx context.Context, executionIDs []int64) ([]metadata.Event, error) {
	if len(executionIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(
		`SELECT artifact_id, execution_id, type, milliseconds_since_epoch
		 FROM events WHERE execution_id IN (%s) ORDER BY id`,
		pgPlaceholders(1, len(executionIDs)),
	)
	return s.queryEvents(ctx, query, int64Args(executionIDs)...)
}

// GetEventsByArtifactIDs lists events touching any of the given artifacts.
func (s *Store) GetEventsByArtifactIDs(ctx context.Context, artifactIDs []int64) ([]metadata.Event, error) {
	if len(artifactIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(
		`SELECT artifact_id, execution_id, type, milliseconds_since_epoch
		 FROM events WHERE artifact_id IN (%s) ORDER BY id`,
		pgPlaceholders(1, len(artifactIDs)),
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

// GetContextsByID fetches contexts by id.
func (s *Store) GetContextsByID(ctx context.Context, ids []int64) ([]metadata.Context, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(
		`SELECT id, type, name FROM contexts WHERE id IN (%s) ORDER BY id`,
		pgPlaceholders(1, len(ids)),
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
		pgPlaceholders(1, len(artifactIDs)),
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
		pgPlaceholders(1, len(executionIDs)),
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
