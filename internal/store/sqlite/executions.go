package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/paleoml/paleo/pkg/metadata"
)

const executionColumns = "e.id, e.type, e.name, e.create_time_since_epoch"

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
		executionColumns, placeholders(len(ids)),
	)
	return s.queryExecutions(ctx, query, int64Args(ids)...)
}

// GetExecutionsByType lists executions of the given declared type.
func (s *Store) GetExecutionsByType(ctx context.Context, typeName string) ([]metadata.Execution, error) {
	query := "SELECT " + executionColumns + " FROM executions e WHERE e.type = ? ORDER BY e.id"
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

	if err := s.loadExecutionProperties(ctx, executions); err != nil {
		return nil, err
	}
	return executions, nil
}

func (s *Store) loadExecutionProperties(ctx context.Context, executions []metadata.Execution) error {
	if len(executions) == 0 {
		return nil
	}

	ids := make([]int64, len(executions))
	index := make(map[int64]int, len(executions))
	for i := range executions {
		ids[i] = executions[i].ID
		index[executions[i].ID] = i
	}

	query := fmt.Sprintf(
		`SELECT execution_id, name, string_value, int_value, double_value, bool_value
		 FROM execution_properties WHERE execution_id IN (%s)`,
		placeholders(len(ids)),
	)
	rows, err := s.db.QueryContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return fmt.Errorf("failed to query execution properties: %w", err)
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
			return fmt.Errorf("failed to scan execution property: %w", err)
		}
		e := &executions[index[id]]
		if e.CustomProperties == nil {
			e.CustomProperties = make(map[string]metadata.PropertyValue)
		}
		e.CustomProperties[name] = scanProperty(str, i, d, b)
	}
	return rows.Err()
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

	res, err := tx.ExecContext(ctx,
		`INSERT INTO executions (type, name, create_time_since_epoch) VALUES (?, ?, ?)`,
		e.Type, e.Name, e.CreateTime.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert execution: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	e.ID = id

	for name, value := range e.CustomProperties {
		str, i, d, b := propertyColumns(value)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO execution_properties (execution_id, name, string_value, int_value, double_value, bool_value)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, name, str, i, d, b,
		); err != nil {
			return 0, fmt.Errorf("failed to insert execution property %s: %w", name, err)
		}
	}

	return id, tx.Commit()
}
