package output

import (
	"time"

	"github.com/paleoml/paleo/pkg/metadata"
)

// ArtifactOutput is the JSON shape of an artifact.
type ArtifactOutput struct {
	ID               int64          `json:"id"`
	Type             string         `json:"type"`
	URI              string         `json:"uri"`
	Name             string         `json:"name,omitempty"`
	CustomProperties map[string]any `json:"custom_properties,omitempty"`
	CreateTime       time.Time      `json:"create_time"`
}

// ExecutionOutput is the JSON shape of an execution.
type ExecutionOutput struct {
	ID               int64          `json:"id"`
	Type             string         `json:"type"`
	Name             string         `json:"name,omitempty"`
	CustomProperties map[string]any `json:"custom_properties,omitempty"`
	CreateTime       time.Time      `json:"create_time"`
}

// LineageNode is one node of a lineage graph in JSON output.
type LineageNode struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Type string `json:"type,omitempty"`
	URI  string `json:"uri,omitempty"`
	Name string `json:"name,omitempty"`
}

// LineageEdge is one edge of a lineage graph in JSON output.
type LineageEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
}

// LineageStats summarizes a lineage graph.
type LineageStats struct {
	Artifacts  int `json:"artifacts"`
	Executions int `json:"executions"`
	Contexts   int `json:"contexts"`
	Edges      int `json:"edges"`
}

// LineageOutput is the JSON shape of the lineage command.
type LineageOutput struct {
	Nodes []LineageNode `json:"nodes"`
	Edges []LineageEdge `json:"edges"`
	Stats LineageStats  `json:"stats"`
}

// FromArtifact converts an artifact to its output shape.
func FromArtifact(a metadata.Artifact) ArtifactOutput {
	return ArtifactOutput{
		ID:               a.ID,
		Type:             a.Type,
		URI:              a.URI,
		Name:             a.Name,
		CustomProperties: propertiesOut(a.CustomProperties),
		CreateTime:       a.CreateTime,
	}
}

// FromExecution converts an execution to its output shape.
func FromExecution(e metadata.Execution) ExecutionOutput {
	return ExecutionOutput{
		ID:               e.ID,
		Type:             e.Type,
		Name:             e.Name,
		CustomProperties: propertiesOut(e.CustomProperties),
		CreateTime:       e.CreateTime,
	}
}

func propertiesOut(props map[string]metadata.PropertyValue) map[string]any {
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]any, len(props))
	for name, v := range props {
		out[name] = v.Interface()
	}
	return out
}
