package metadata

import "context"

// ListOptions narrows a list query. FilterQuery uses the store's filter
// language: `field="value"` for strings, `field=value` for numerics, and
// `custom_properties.<name>.<typed>_value=<literal>` for custom properties.
// The grammar is owned by the store backend, not by callers.
type ListOptions struct {
	FilterQuery string
}

// StartingNodes selects the roots of a lineage traversal by filter query.
type StartingNodes struct {
	FilterQuery string
}

// LineageSubgraphQuery describes a lineage traversal. Exactly one of
// StartingArtifacts or StartingExecutions should be set. MaxHops limits the
// traversal depth in event hops; 0 means unlimited.
type LineageSubgraphQuery struct {
	StartingArtifacts  *StartingNodes
	StartingExecutions *StartingNodes
	MaxHops            int
}

// Store is the metadata store client surface the query layer forwards to.
// Backends own persistence, indexing, filter evaluation, and lineage
// traversal; implementations are expected to be safe for concurrent reads.
//
// The Put methods exist so that local backends can be populated (seeding,
// tests); the query layer itself never writes.
type Store interface {
	// Artifact queries.
	GetArtifacts(ctx context.Context, opts ListOptions) ([]Artifact, error)
	GetArtifactsByID(ctx context.Context, ids []int64) ([]Artifact, error)
	GetArtifactsByType(ctx context.Context, typeName string) ([]Artifact, error)
	GetArtifactsByURI(ctx context.Context, uri string) ([]Artifact, error)

	// Execution queries.
	GetExecutions(ctx context.Context, opts ListOptions) ([]Execution, error)
	GetExecutionsByID(ctx context.Context, ids []int64) ([]Execution, error)
	GetExecutionsByType(ctx context.Context, typeName string) ([]Execution, error)

	// Event queries. Results follow the store's event-listing order.
	GetEventsByExecutionIDs(ctx context.Context, executionIDs []int64) ([]Event, error)
	GetEventsByArtifactIDs(ctx context.Context, artifactIDs []int64) ([]Event, error)

	// Context queries.
	GetContextsByID(ctx context.Context, ids []int64) ([]Context, error)
	GetAttributionsByArtifactIDs(ctx context.Context, artifactIDs []int64) ([]Attribution, error)
	GetAssociationsByExecutionIDs(ctx context.Context, executionIDs []int64) ([]Association, error)

	// GetLineageSubgraph traverses events from the starting nodes and returns
	// the reachable subgraph.
	GetLineageSubgraph(ctx context.Context, q LineageSubgraphQuery) (*LineageGraph, error)

	// Writes, used for seeding local stores. Put methods assign and return
	// the record id.
	PutArtifact(ctx context.Context, a *Artifact) (int64, error)
	PutExecution(ctx context.Context, e *Execution) (int64, error)
	PutEvent(ctx context.Context, ev *Event) error
	PutContext(ctx context.Context, c *Context) (int64, error)
	PutAssociation(ctx context.Context, a *Association) error
	PutAttribution(ctx context.Context, a *Attribution) error

	Close() error
}
