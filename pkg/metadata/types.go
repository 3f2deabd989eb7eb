package metadata

import "time"

// Artifact is a versioned data object (dataset, model, metric) tracked by the
// metadata store. Artifacts are immutable from the query layer's perspective.
type Artifact struct {
	ID               int64
	Type             string
	URI              string
	Name             string
	CustomProperties map[string]PropertyValue
	CreateTime       time.Time
}

// Execution records one run of a computational step. Step executions spawned
// by a pipeline run carry the run's root execution id in the parent_dag_id
// custom property.
type Execution struct {
	ID               int64
	Type             string
	Name             string
	CustomProperties map[string]PropertyValue
	CreateTime       time.Time
}

// Context is a grouping entity (e.g. a pipeline or a pipeline run) that
// artifacts and executions can be attributed/associated to.
type Context struct {
	ID   int64
	Type string
	Name string
}

// EventType is the direction of an artifact/execution link.
type EventType string

// Event directions.
const (
	EventInput  EventType = "INPUT"
	EventOutput EventType = "OUTPUT"
)

// Event links one artifact to one execution with a direction: INPUT means the
// execution consumed the artifact, OUTPUT means it produced it.
type Event struct {
	ArtifactID  int64
	ExecutionID int64
	Type        EventType
	Time        time.Time
}

// Association links an execution to a context.
type Association struct {
	ContextID   int64
	ExecutionID int64
}

// Attribution links an artifact to a context.
type Attribution struct {
	ContextID  int64
	ArtifactID int64
}

// LineageGraph bundles everything reachable from a starting node under a
// single traversal query. It is returned as-is by the store; the query layer
// does no post-processing.
type LineageGraph struct {
	Artifacts    []Artifact
	Executions   []Execution
	Contexts     []Context
	Events       []Event
	Associations []Association
	Attributions []Attribution
}
