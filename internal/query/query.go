// Package query is the read-only convenience layer over a metadata store.
// It translates domain lookups ("artifacts for this run", "executions
// touching this artifact") into filter queries and id fetches, then unwraps
// or combines the results. Persistence, filter evaluation, and graph
// traversal belong to the store backend.
package query

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/paleoml/paleo/pkg/metadata"
)

// Service wraps one store handle. It adds no locking of its own; concurrent
// use is as safe as the underlying store's query methods.
type Service struct {
	store  metadata.Store
	logger *slog.Logger
}

// New creates a query service over the given store.
// If logger is nil, a discard logger is used.
func New(store metadata.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{store: store, logger: logger}
}

// one unwraps a lookup that expects exactly one match: zero matches is a
// NotFoundError, several is an AmbiguousError. Never trust index 0.
func one[T any](items []T, entity, key string) (T, error) {
	var zero T
	switch len(items) {
	case 0:
		return zero, &metadata.NotFoundError{Entity: entity, Key: key}
	case 1:
		return items[0], nil
	default:
		return zero, &metadata.AmbiguousError{Entity: entity, Key: key, Count: len(items)}
	}
}

// Executions returns all executions belonging to a pipeline run: the root
// execution named run/{runID} first, followed by the step executions whose
// parent_dag_id custom property points at the root.
func (s *Service) Executions(ctx context.Context, runID string) ([]metadata.Execution, error) {
	rootFilter := fmt.Sprintf(`name="run/%s"`, runID)
	roots, err := s.store.GetExecutions(ctx, metadata.ListOptions{FilterQuery: rootFilter})
	if err != nil {
		return nil, err
	}
	root, err := one(roots, "run execution", "run/"+runID)
	if err != nil {
		return nil, err
	}

	childFilter := fmt.Sprintf(`custom_properties.parent_dag_id.int_value=%d`, root.ID)
	children, err := s.store.GetExecutions(ctx, metadata.ListOptions{FilterQuery: childFilter})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("resolved run executions",
		slog.String("run_id", runID),
		slog.Int64("root_execution_id", root.ID),
		slog.Int("children", len(children)))

	return append([]metadata.Execution{root}, children...), nil
}

// ArtifactsFromRun returns every artifact touched by the run's executions,
// one entry per qualifying event in event-listing order. An artifact consumed
// by several executions appears once per event; callers wanting distinct
// artifacts must deduplicate themselves.
func (s *Service) ArtifactsFromRun(ctx context.Context, runID string) ([]metadata.Artifact, error) {
	executions, err := s.Executions(ctx, runID)
	if err != nil {
		return nil, err
	}

	executionIDs := make([]int64, len(executions))
	for i, e := range executions {
		executionIDs[i] = e.ID
	}

	events, err := s.store.GetEventsByExecutionIDs(ctx, executionIDs)
	if err != nil {
		return nil, err
	}
	return s.artifactsForEvents(ctx, events)
}

// ArtifactsFromExecution returns the artifacts touched by one execution, one
// entry per event.
func (s *Service) ArtifactsFromExecution(ctx context.Context, executionID int64) ([]metadata.Artifact, error) {
	events, err := s.store.GetEventsByExecutionIDs(ctx, []int64{executionID})
	if err != nil {
		return nil, err
	}
	return s.artifactsForEvents(ctx, events)
}

// artifactsForEvents fetches the artifacts referenced by events and lays them
// out in event order, repeating an artifact for each event that names it.
func (s *Service) artifactsForEvents(ctx context.Context, events []metadata.Event) ([]metadata.Artifact, error) {
	if len(events) == 0 {
		return nil, nil
	}

	seen := make(map[int64]bool)
	var ids []int64
	for _, ev := range events {
		if !seen[ev.ArtifactID] {
			seen[ev.ArtifactID] = true
			ids = append(ids, ev.ArtifactID)
		}
	}

	fetched, err := s.store.GetArtifactsByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]metadata.Artifact, len(fetched))
	for _, a := range fetched {
		byID[a.ID] = a
	}

	artifacts := make([]metadata.Artifact, 0, len(events))
	for _, ev := range events {
		if a, ok := byID[ev.ArtifactID]; ok {
			artifacts = append(artifacts, a)
		}
	}
	return artifacts, nil
}

// ArtifactExecutionHistory returns the executions that consumed or produced
// the artifact, via its events.
func (s *Service) ArtifactExecutionHistory(ctx context.Context, artifactID int64) ([]metadata.Execution, error) {
	events, err := s.store.GetEventsByArtifactIDs(ctx, []int64{artifactID})
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool)
	var ids []int64
	for _, ev := range events {
		if !seen[ev.ExecutionID] {
			seen[ev.ExecutionID] = true
			ids = append(ids, ev.ExecutionID)
		}
	}
	return s.store.GetExecutionsByID(ctx, ids)
}

// ArtifactLineage returns the lineage subgraph rooted at the artifact, as
// given by the store, with no post-processing.
func (s *Service) ArtifactLineage(ctx context.Context, artifactID int64) (*metadata.LineageGraph, error) {
	return s.store.GetLineageSubgraph(ctx, metadata.LineageSubgraphQuery{
		StartingArtifacts: &metadata.StartingNodes{
			FilterQuery: fmt.Sprintf("id = %d", artifactID),
		},
	})
}

// ArtifactByID fetches a single artifact by id.
func (s *Service) ArtifactByID(ctx context.Context, artifactID int64) (metadata.Artifact, error) {
	artifacts, err := s.store.GetArtifactsByID(ctx, []int64{artifactID})
	if err != nil {
		return metadata.Artifact{}, err
	}
	return one(artifacts, "artifact", fmt.Sprintf("id=%d", artifactID))
}

// ExecutionByID fetches a single execution by id.
func (s *Service) ExecutionByID(ctx context.Context, executionID int64) (metadata.Execution, error) {
	executions, err := s.store.GetExecutionsByID(ctx, []int64{executionID})
	if err != nil {
		return metadata.Execution{}, err
	}
	return one(executions, "execution", fmt.Sprintf("id=%d", executionID))
}

// ArtifactByURI fetches the artifact at a URI. Several artifacts at the same
// URI is an AmbiguousError rather than a silent first-match.
func (s *Service) ArtifactByURI(ctx context.Context, uri string) (metadata.Artifact, error) {
	artifacts, err := s.store.GetArtifactsByURI(ctx, uri)
	if err != nil {
		return metadata.Artifact{}, err
	}
	return one(artifacts, "artifact", uri)
}

// ArtifactsByType lists artifacts of a declared type.
func (s *Service) ArtifactsByType(ctx context.Context, typeName string) ([]metadata.Artifact, error) {
	return s.store.GetArtifactsByType(ctx, typeName)
}

// ExecutionsByType lists executions of a declared type.
func (s *Service) ExecutionsByType(ctx context.Context, typeName string) ([]metadata.Execution, error) {
	return s.store.GetExecutionsByType(ctx, typeName)
}

// ArtifactsByCustomProperty lists artifacts whose custom property matches the
// typed value. The value's kind picks the typed-value suffix of the filter;
// an unusable kind fails here rather than producing a malformed filter.
func (s *Service) ArtifactsByCustomProperty(ctx context.Context, name string, value metadata.PropertyValue) ([]metadata.Artifact, error) {
	q, err := customPropertyFilter(name, value)
	if err != nil {
		return nil, err
	}
	return s.store.GetArtifacts(ctx, metadata.ListOptions{FilterQuery: q})
}

// ExecutionsByCustomProperty lists executions whose custom property matches
// the typed value.
func (s *Service) ExecutionsByCustomProperty(ctx context.Context, name string, value metadata.PropertyValue) ([]metadata.Execution, error) {
	q, err := customPropertyFilter(name, value)
	if err != nil {
		return nil, err
	}
	return s.store.GetExecutions(ctx, metadata.ListOptions{FilterQuery: q})
}

func customPropertyFilter(name string, value metadata.PropertyValue) (string, error) {
	suffix, err := value.FilterSuffix()
	if err != nil {
		return "", fmt.Errorf("custom property %s: %w", name, err)
	}
	return fmt.Sprintf("custom_properties.%s.%s=%s", name, suffix, value.Literal()), nil
}
