package sqlite

import (
	"context"
	"strconv"
	"testing"

	"github.com/paleoml/paleo/pkg/metadata"
)

func itoa(i int64) string { return strconv.FormatInt(i, 10) }

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", nil)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return s
}

func TestStore_OpenClose(t *testing.T) {
	s, err := Open(":memory:", nil)
	if err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

func TestStore_Migrate(t *testing.T) {
	s := setupTestStore(t)

	tables := []string{"artifacts", "artifact_properties", "executions", "execution_properties", "events", "contexts", "associations", "attributions"}
	for _, table := range tables {
		rows, err := s.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		if err != nil {
			t.Errorf("table %s does not exist: %v", table, err)
		} else {
			rows.Close()
		}
	}
}

func TestStore_ArtifactRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	a := &metadata.Artifact{
		Type: "system.Model",
		URI:  "s3://bucket/models/v3",
		Name: "model-v3",
		CustomProperties: map[string]metadata.PropertyValue{
			"owner":    metadata.StringValue("alice"),
			"epoch":    metadata.IntValue(5),
			"accuracy": metadata.DoubleValue(0.93),
			"frozen":   metadata.BoolValue(true),
		},
	}
	id, err := s.PutArtifact(ctx, a)
	if err != nil {
		t.Fatalf("failed to put artifact: %v", err)
	}
	if id == 0 {
		t.Fatal("artifact id should be assigned")
	}

	got, err := s.GetArtifactsByID(ctx, []int64{id})
	if err != nil {
		t.Fatalf("failed to get artifact: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(got))
	}

	a2 := got[0]
	if a2.Type != "system.Model" || a2.URI != "s3://bucket/models/v3" || a2.Name != "model-v3" {
		t.Errorf("unexpected artifact: %+v", a2)
	}
	if a2.CreateTime.IsZero() {
		t.Error("create time should be set")
	}
	if len(a2.CustomProperties) != 4 {
		t.Fatalf("expected 4 custom properties, got %d", len(a2.CustomProperties))
	}
	if v, _ := a2.CustomProperties["owner"].StringVal(); v != "alice" {
		t.Errorf("owner = %q, want alice", v)
	}
	if v, _ := a2.CustomProperties["epoch"].IntVal(); v != 5 {
		t.Errorf("epoch = %d, want 5", v)
	}
	if v, _ := a2.CustomProperties["accuracy"].DoubleVal(); v != 0.93 {
		t.Errorf("accuracy = %v, want 0.93", v)
	}
	if v, _ := a2.CustomProperties["frozen"].BoolVal(); !v {
		t.Error("frozen should be true")
	}
}

func TestStore_GetArtifacts_Filters(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	ids := make([]int64, 0, 3)
	for _, a := range []*metadata.Artifact{
		{Type: "system.Dataset", URI: "mem://a", CustomProperties: map[string]metadata.PropertyValue{
			"step": metadata.IntValue(1),
		}},
		{Type: "system.Dataset", URI: "mem://b", CustomProperties: map[string]metadata.PropertyValue{
			"step": metadata.IntValue(2),
		}},
		{Type: "system.Model", URI: "mem://c", CustomProperties: map[string]metadata.PropertyValue{
			"owner": metadata.StringValue("alice"),
		}},
	} {
		id, err := s.PutArtifact(ctx, a)
		if err != nil {
			t.Fatalf("failed to put artifact: %v", err)
		}
		ids = append(ids, id)
	}

	tests := []struct {
		name     string
		query    string
		wantURIs []string
	}{
		{name: "by int property", query: "custom_properties.step.int_value=2", wantURIs: []string{"mem://b"}},
		{name: "by string property", query: `custom_properties.owner.string_value="alice"`, wantURIs: []string{"mem://c"}},
		{name: "no match", query: "custom_properties.step.int_value=99", wantURIs: []string{}},
		{name: "by type", query: `type="system.Dataset"`, wantURIs: []string{"mem://a", "mem://b"}},
		{name: "by uri", query: `uri = "mem://c"`, wantURIs: []string{"mem://c"}},
		{name: "all", query: "", wantURIs: []string{"mem://a", "mem://b", "mem://c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.GetArtifacts(ctx, metadata.ListOptions{FilterQuery: tt.query})
			if err != nil {
				t.Fatalf("failed to list artifacts: %v", err)
			}
			if len(got) != len(tt.wantURIs) {
				t.Fatalf("expected %d artifacts, got %d", len(tt.wantURIs), len(got))
			}
			for i, uri := range tt.wantURIs {
				if got[i].URI != uri {
					t.Errorf("artifact[%d].URI = %q, want %q", i, got[i].URI, uri)
				}
			}
		})
	}

	byID, err := s.GetArtifacts(ctx, metadata.ListOptions{
		FilterQuery: "id = " + itoa(ids[1]),
	})
	if err != nil {
		t.Fatalf("failed to list artifacts by id: %v", err)
	}
	if len(byID) != 1 || byID[0].ID != ids[1] {
		t.Errorf("id filter returned %+v, want artifact %d", byID, ids[1])
	}
}

func TestStore_GetArtifacts_BadFilter(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetArtifacts(context.Background(), metadata.ListOptions{FilterQuery: "status=1"})
	if err == nil {
		t.Error("expected error for unknown filter field")
	}
}

func TestStore_ExecutionRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	root := &metadata.Execution{Type: "system.DAGExecution", Name: "run/abc"}
	rootID, err := s.PutExecution(ctx, root)
	if err != nil {
		t.Fatalf("failed to put root execution: %v", err)
	}

	step := &metadata.Execution{
		Type: "system.ContainerExecution",
		Name: "train",
		CustomProperties: map[string]metadata.PropertyValue{
			"parent_dag_id": metadata.IntValue(rootID),
		},
	}
	if _, err := s.PutExecution(ctx, step); err != nil {
		t.Fatalf("failed to put step execution: %v", err)
	}

	byName, err := s.GetExecutions(ctx, metadata.ListOptions{FilterQuery: `name="run/abc"`})
	if err != nil {
		t.Fatalf("failed to list executions: %v", err)
	}
	if len(byName) != 1 || byName[0].ID != rootID {
		t.Fatalf("name filter returned %+v, want root %d", byName, rootID)
	}

	children, err := s.GetExecutions(ctx, metadata.ListOptions{
		FilterQuery: "custom_properties.parent_dag_id.int_value=" + itoa(rootID),
	})
	if err != nil {
		t.Fatalf("failed to list children: %v", err)
	}
	if len(children) != 1 || children[0].Name != "train" {
		t.Fatalf("parent filter returned %+v, want the step", children)
	}
	if v, _ := children[0].CustomProperties["parent_dag_id"].IntVal(); v != rootID {
		t.Errorf("parent_dag_id = %d, want %d", v, rootID)
	}

	// URI filters make no sense for executions.
	if _, err := s.GetExecutions(ctx, metadata.ListOptions{FilterQuery: `uri = "x"`}); err == nil {
		t.Error("expected error for uri filter on executions")
	}
}

func TestStore_Events(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	artID, err := s.PutArtifact(ctx, &metadata.Artifact{Type: "system.Dataset", URI: "mem://in"})
	if err != nil {
		t.Fatalf("failed to put artifact: %v", err)
	}
	outID, err := s.PutArtifact(ctx, &metadata.Artifact{Type: "system.Model", URI: "mem://out"})
	if err != nil {
		t.Fatalf("failed to put artifact: %v", err)
	}
	execID, err := s.PutExecution(ctx, &metadata.Execution{Type: "system.ContainerExecution", Name: "train"})
	if err != nil {
		t.Fatalf("failed to put execution: %v", err)
	}

	if err := s.PutEvent(ctx, &metadata.Event{ArtifactID: artID, ExecutionID: execID, Type: metadata.EventInput}); err != nil {
		t.Fatalf("failed to put input event: %v", err)
	}
	if err := s.PutEvent(ctx, &metadata.Event{ArtifactID: outID, ExecutionID: execID, Type: metadata.EventOutput}); err != nil {
		t.Fatalf("failed to put output event: %v", err)
	}

	events, err := s.GetEventsByExecutionIDs(ctx, []int64{execID})
	if err != nil {
		t.Fatalf("failed to get events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	// Insertion order.
	if events[0].ArtifactID != artID || events[0].Type != metadata.EventInput {
		t.Errorf("first event = %+v, want INPUT of %d", events[0], artID)
	}
	if events[1].ArtifactID != outID || events[1].Type != metadata.EventOutput {
		t.Errorf("second event = %+v, want OUTPUT of %d", events[1], outID)
	}

	byArtifact, err := s.GetEventsByArtifactIDs(ctx, []int64{outID})
	if err != nil {
		t.Fatalf("failed to get events by artifact: %v", err)
	}
	if len(byArtifact) != 1 || byArtifact[0].ExecutionID != execID {
		t.Errorf("events by artifact = %+v", byArtifact)
	}

	if err := s.PutEvent(ctx, &metadata.Event{ArtifactID: artID, ExecutionID: execID, Type: "SIDEWAYS"}); err == nil {
		t.Error("expected error for unknown event type")
	}
}

func TestStore_Contexts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	ctxID, err := s.PutContext(ctx, &metadata.Context{Type: "system.PipelineRun", Name: "abc"})
	if err != nil {
		t.Fatalf("failed to put context: %v", err)
	}
	artID, err := s.PutArtifact(ctx, &metadata.Artifact{Type: "system.Dataset", URI: "mem://a"})
	if err != nil {
		t.Fatalf("failed to put artifact: %v", err)
	}
	execID, err := s.PutExecution(ctx, &metadata.Execution{Type: "system.DAGExecution", Name: "run/abc"})
	if err != nil {
		t.Fatalf("failed to put execution: %v", err)
	}

	if err := s.PutAttribution(ctx, &metadata.Attribution{ContextID: ctxID, ArtifactID: artID}); err != nil {
		t.Fatalf("failed to put attribution: %v", err)
	}
	// Duplicate links are ignored, not errors.
	if err := s.PutAttribution(ctx, &metadata.Attribution{ContextID: ctxID, ArtifactID: artID}); err != nil {
		t.Fatalf("duplicate attribution should be ignored: %v", err)
	}
	if err := s.PutAssociation(ctx, &metadata.Association{ContextID: ctxID, ExecutionID: execID}); err != nil {
		t.Fatalf("failed to put association: %v", err)
	}

	contexts, err := s.GetContextsByID(ctx, []int64{ctxID})
	if err != nil {
		t.Fatalf("failed to get contexts: %v", err)
	}
	if len(contexts) != 1 || contexts[0].Name != "abc" {
		t.Fatalf("contexts = %+v", contexts)
	}

	attrs, err := s.GetAttributionsByArtifactIDs(ctx, []int64{artID})
	if err != nil {
		t.Fatalf("failed to get attributions: %v", err)
	}
	if len(attrs) != 1 || attrs[0].ContextID != ctxID {
		t.Errorf("attributions = %+v", attrs)
	}

	assocs, err := s.GetAssociationsByExecutionIDs(ctx, []int64{execID})
	if err != nil {
		t.Fatalf("failed to get associations: %v", err)
	}
	if len(assocs) != 1 || assocs[0].ContextID != ctxID {
		t.Errorf("associations = %+v", assocs)
	}
}

// seedChain writes a -> exec1 -> b -> exec2 -> c and returns the ids.
func seedChain(t *testing.T, s *Store) (artifacts [3]int64, execs [2]int64) {
	t.Helper()
	ctx := context.Background()

	for i, uri := range []string{"mem://a", "mem://b", "mem://c"} {
		id, err := s.PutArtifact(ctx, &metadata.Artifact{Type: "system.Dataset", URI: uri})
		if err != nil {
			t.Fatalf("failed to put artifact: %v", err)
		}
		artifacts[i] = id
	}
	for i, name := range []string{"step-1", "step-2"} {
		id, err := s.PutExecution(ctx, &metadata.Execution{Type: "system.ContainerExecution", Name: name})
		if err != nil {
			t.Fatalf("failed to put execution: %v", err)
		}
		execs[i] = id
	}

	links := []metadata.Event{
		{ArtifactID: artifacts[0], ExecutionID: execs[0], Type: metadata.EventInput},
		{ArtifactID: artifacts[1], ExecutionID: execs[0], Type: metadata.EventOutput},
		{ArtifactID: artifacts[1], ExecutionID: execs[1], Type: metadata.EventInput},
		{ArtifactID: artifacts[2], ExecutionID: execs[1], Type: metadata.EventOutput},
	}
	for i := range links {
		if err := s.PutEvent(ctx, &links[i]); err != nil {
			t.Fatalf("failed to put event: %v", err)
		}
	}
	return artifacts, execs
}

func TestStore_GetLineageSubgraph(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	artifacts, execs := seedChain(t, s)

	g, err := s.GetLineageSubgraph(ctx, metadata.LineageSubgraphQuery{
		StartingArtifacts: &metadata.StartingNodes{FilterQuery: "id = " + itoa(artifacts[0])},
	})
	if err != nil {
		t.Fatalf("failed to get lineage subgraph: %v", err)
	}

	if len(g.Artifacts) != 3 {
		t.Errorf("expected 3 artifacts, got %d", len(g.Artifacts))
	}
	if len(g.Executions) != 2 {
		t.Errorf("expected 2 executions, got %d", len(g.Executions))
	}
	if len(g.Events) != 4 {
		t.Errorf("expected 4 events, got %d", len(g.Events))
	}

	// Starting from the middle reaches the whole chain too.
	g2, err := s.GetLineageSubgraph(ctx, metadata.LineageSubgraphQuery{
		StartingExecutions: &metadata.StartingNodes{FilterQuery: "id = " + itoa(execs[0])},
	})
	if err != nil {
		t.Fatalf("failed to get lineage subgraph: %v", err)
	}
	if len(g2.Artifacts) != 3 || len(g2.Executions) != 2 {
		t.Errorf("expected full chain, got %d artifacts %d executions", len(g2.Artifacts), len(g2.Executions))
	}
}

func TestStore_GetLineageSubgraph_MaxHops(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	artifacts, _ := seedChain(t, s)

	g, err := s.GetLineageSubgraph(ctx, metadata.LineageSubgraphQuery{
		StartingArtifacts: &metadata.StartingNodes{FilterQuery: "id = " + itoa(artifacts[0])},
		MaxHops:           1,
	})
	if err != nil {
		t.Fatalf("failed to get lineage subgraph: %v", err)
	}

	// One hop from a: exec1 only.
	if len(g.Artifacts) != 1 {
		t.Errorf("expected 1 artifact, got %d", len(g.Artifacts))
	}
	if len(g.Executions) != 1 {
		t.Errorf("expected 1 execution, got %d", len(g.Executions))
	}
}
