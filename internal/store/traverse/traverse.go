// Package traverse implements lineage subgraph collection on top of the
// primitive store queries. Both store backends delegate GetLineageSubgraph
// here so the traversal semantics stay identical across them.
package traverse

import (
	"context"
	"fmt"
	"sort"

	"github.com/paleoml/paleo/pkg/metadata"
)

// Querier is the subset of metadata.Store the traversal needs.
type Querier interface {
	GetArtifacts(ctx context.Context, opts metadata.ListOptions) ([]metadata.Artifact, error)
	GetArtifactsByID(ctx context.Context, ids []int64) ([]metadata.Artifact, error)
	GetExecutions(ctx context.Context, opts metadata.ListOptions) ([]metadata.Execution, error)
	GetExecutionsByID(ctx context.Context, ids []int64) ([]metadata.Execution, error)
	GetEventsByExecutionIDs(ctx context.Context, executionIDs []int64) ([]metadata.Event, error)
	GetEventsByArtifactIDs(ctx context.Context, artifactIDs []int64) ([]metadata.Event, error)
	GetContextsByID(ctx context.Context, ids []int64) ([]metadata.Context, error)
	GetAttributionsByArtifactIDs(ctx context.Context, artifactIDs []int64) ([]metadata.Attribution, error)
	GetAssociationsByExecutionIDs(ctx context.Context, executionIDs []int64) ([]metadata.Association, error)
}

type eventKey struct {
	artifactID  int64
	executionID int64
	typ         metadata.EventType
}

// Subgraph walks events breadth-first from the starting nodes and returns the
// reachable subgraph. MaxHops counts event hops (artifact->execution or
// execution->artifact is one hop); 0 means unlimited.
func Subgraph(ctx context.Context, src Querier, q metadata.LineageSubgraphQuery) (*metadata.LineageGraph, error) {
	artifactSet := make(map[int64]bool)
	executionSet := make(map[int64]bool)

	var frontierArtifacts, frontierExecutions []int64

	switch {
	case q.StartingArtifacts != nil:
		roots, err := src.GetArtifacts(ctx, metadata.ListOptions{FilterQuery: q.StartingArtifacts.FilterQuery})
		if err != nil {
			return nil, fmt.Errorf("resolve starting artifacts: %w", err)
		}
		for _, a := range roots {
			artifactSet[a.ID] = true
			frontierArtifacts = append(frontierArtifacts, a.ID)
		}
	case q.StartingExecutions != nil:
		roots, err := src.GetExecutions(ctx, metadata.ListOptions{FilterQuery: q.StartingExecutions.FilterQuery})
		if err != nil {
			return nil, fmt.Errorf("resolve starting executions: %w", err)
		}
		for _, e := range roots {
			executionSet[e.ID] = true
			frontierExecutions = append(frontierExecutions, e.ID)
		}
	default:
		return nil, fmt.Errorf("lineage query has no starting nodes")
	}

	events := make(map[eventKey]metadata.Event)

	for hop := 0; len(frontierArtifacts) > 0 || len(frontierExecutions) > 0; hop++ {
		if q.MaxHops > 0 && hop >= q.MaxHops {
			break
		}

		var batch []metadata.Event
		if len(frontierArtifacts) > 0 {
			evs, err := src.GetEventsByArtifactIDs(ctx, frontierArtifacts)
			if err != nil {
				return nil, fmt.Errorf("events for artifacts: %w", err)
			}
			batch = append(batch, evs...)
		}
		if len(frontierExecutions) > 0 {
			evs, err := src.GetEventsByExecutionIDs(ctx, frontierExecutions)
			if err != nil {
				return nil, fmt.Errorf("events for executions: %w", err)
			}
			batch = append(batch, evs...)
		}

		frontierArtifacts = frontierArtifacts[:0]
		frontierExecutions = frontierExecutions[:0]

		for _, ev := range batch {
			events[eventKey{ev.ArtifactID, ev.ExecutionID, ev.Type}] = ev
			if !artifactSet[ev.ArtifactID] {
				artifactSet[ev.ArtifactID] = true
				frontierArtifacts = append(frontierArtifacts, ev.ArtifactID)
			}
			if !executionSet[ev.ExecutionID] {
				executionSet[ev.ExecutionID] = true
				frontierExecutions = append(frontierExecutions, ev.ExecutionID)
			}
		}
	}

	graph := &metadata.LineageGraph{}

	artifactIDs := sortedKeys(artifactSet)
	executionIDs := sortedKeys(executionSet)

	var err error
	if graph.Artifacts, err = src.GetArtifactsByID(ctx, artifactIDs); err != nil {
		return nil, fmt.Errorf("collect artifacts: %w", err)
	}
	if graph.Executions, err = src.GetExecutionsByID(ctx, executionIDs); err != nil {
		return nil, fmt.Errorf("collect executions: %w", err)
	}
	if graph.Attributions, err = src.GetAttributionsByArtifactIDs(ctx, artifactIDs); err != nil {
		return nil, fmt.Errorf("collect attributions: %w", err)
	}
	if graph.Associations, err = src.GetAssociationsByExecutionIDs(ctx, executionIDs); err != nil {
		return nil, fmt.Errorf("collect associations: %w", err)
	}

	contextSet := make(map[int64]bool)
	for _, at := range graph.Attributions {
		contextSet[at.ContextID] = true
	}
	for _, as := range graph.Associations {
		contextSet[as.ContextID] = true
	}
	if graph.Contexts, err = src.GetContextsByID(ctx, sortedKeys(contextSet)); err != nil {
		return nil, fmt.Errorf("collect contexts: %w", err)
	}

	for _, key := range sortedEventKeys(events) {
		graph.Events = append(graph.Events, events[key])
	}

	return graph, nil
}

func sortedKeys(set map[int64]bool) []int64 {
	keys := make([]int64, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func sortedEventKeys(events map[eventKey]metadata.Event) []eventKey {
	keys := make([]eventKey, 0, len(events))
	for k := range events {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.executionID != b.executionID {
			return a.executionID < b.executionID
		}
		if a.artifactID != b.artifactID {
			return a.artifactID < b.artifactID
		}
		return a.typ < b.typ
	})
	return keys
}
