package query

import (
	"context"
	"testing"

	"github.com/paleoml/paleo/internal/store/sqlite"
	"github.com/paleoml/paleo/pkg/metadata"
)

// fixture is a two-step run: source -> step-1 -> mid -> step-2 -> model,
// where the source artifact is also consumed again by step-2.
type fixture struct {
	store    *sqlite.Store
	rootID   int64
	stepIDs  [2]int64
	sourceID int64
	midID    int64
	modelID  int64
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	s, err := sqlite.Open(":memory:", nil)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	f := &fixture{store: s}

	f.rootID, err = s.PutExecution(ctx, &metadata.Execution{Type: "system.DAGExecution", Name: "run/abc"})
	if err != nil {
		t.Fatalf("failed to put root: %v", err)
	}
	for i, name := range []string{"preprocess", "train"} {
		f.stepIDs[i], err = s.PutExecution(ctx, &metadata.Execution{
			Type: "system.ContainerExecution",
			Name: name,
			CustomProperties: map[string]metadata.PropertyValue{
				"parent_dag_id": metadata.IntValue(f.rootID),
			},
		})
		if err != nil {
			t.Fatalf("failed to put step %s: %v", name, err)
		}
	}

	f.sourceID = putArtifact(t, s, "system.Dataset", "mem://source", map[string]metadata.PropertyValue{
		"owner": metadata.StringValue("alice"),
	})
	f.midID = putArtifact(t, s, "system.Dataset", "mem://mid", nil)
	f.modelID = putArtifact(t, s, "system.Model", "mem://model", map[string]metadata.PropertyValue{
		"epoch": metadata.IntValue(5),
	})

	for _, ev := range []metadata.Event{
		{ArtifactID: f.sourceID, ExecutionID: f.stepIDs[0], Type: metadata.EventInput},
		{ArtifactID: f.midID, ExecutionID: f.stepIDs[0], Type: metadata.EventOutput},
		{ArtifactID: f.midID, ExecutionID: f.stepIDs[1], Type: metadata.EventInput},
		{ArtifactID: f.sourceID, ExecutionID: f.stepIDs[1], Type: metadata.EventInput},
		{ArtifactID: f.modelID, ExecutionID: f.stepIDs[1], Type: metadata.EventOutput},
	} {
		if err := s.PutEvent(ctx, &ev); err != nil {
			t.Fatalf("failed to put event: %v", err)
		}
	}

	return f
}

func putArtifact(t *testing.T, s *sqlite.Store, typeName, uri string, props map[string]metadata.PropertyValue) int64 {
	t.Helper()
	id, err := s.PutArtifact(context.Background(), &metadata.Artifact{
		Type:             typeName,
		URI:              uri,
		CustomProperties: props,
	})
	if err != nil {
		t.Fatalf("failed to put artifact %s: %v", uri, err)
	}
	return id
}

func TestService_Executions(t *testing.T) {
	f := setupFixture(t)
	svc := New(f.store, nil)

	executions, err := svc.Executions(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Executions() error = %v", err)
	}

	if len(executions) != 3 {
		t.Fatalf("expected 3 executions, got %d", len(executions))
	}
	// Root first, then the steps.
	if executions[0].ID != f.rootID || executions[0].Name != "run/abc" {
		t.Errorf("first execution = %+v, want root", executions[0])
	}
	if executions[1].Name != "preprocess" || executions[2].Name != "train" {
		t.Errorf("steps = %q, %q", executions[1].Name, executions[2].Name)
	}
}

func TestService_Executions_NotFound(t *testing.T) {
	f := setupFixture(t)
	svc := New(f.store, nil)

	_, err := svc.Executions(context.Background(), "no-such-run")
	if !metadata.IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestService_Executions_AmbiguousRoot(t *testing.T) {
	f := setupFixture(t)
	svc := New(f.store, nil)

	// A second execution with the same run name makes the lookup ambiguous.
	if _, err := f.store.PutExecution(context.Background(), &metadata.Execution{
		Type: "system.DAGExecution",
		Name: "run/abc",
	}); err != nil {
		t.Fatalf("failed to put duplicate root: %v", err)
	}

	_, err := svc.Executions(context.Background(), "abc")
	if !metadata.IsAmbiguous(err) {
		t.Errorf("expected AmbiguousError, got %v", err)
	}
}

func TestService_ArtifactsFromRun(t *testing.T) {
	f := setupFixture(t)
	svc := New(f.store, nil)

	artifacts, err := svc.ArtifactsFromRun(context.Background(), "abc")
	if err != nil {
		t.Fatalf("ArtifactsFromRun() error = %v", err)
	}

	// One entry per event: the source appears twice, once per consuming step.
	if len(artifacts) != 5 {
		t.Fatalf("expected 5 artifact entries, got %d", len(artifacts))
	}
	sourceCount := 0
	for _, a := range artifacts {
		if a.ID == f.sourceID {
			sourceCount++
		}
	}
	if sourceCount != 2 {
		t.Errorf("source artifact should appear twice, got %d", sourceCount)
	}
}

func TestService_ArtifactsFromExecution(t *testing.T) {
	f := setupFixture(t)
	svc := New(f.store, nil)

	artifacts, err := svc.ArtifactsFromExecution(context.Background(), f.stepIDs[0])
	if err != nil {
		t.Fatalf("ArtifactsFromExecution() error = %v", err)
	}
	if len(artifacts) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(artifacts))
	}
	if artifacts[0].ID != f.sourceID || artifacts[1].ID != f.midID {
		t.Errorf("artifacts = %d, %d; want source then mid", artifacts[0].ID, artifacts[1].ID)
	}
}

func TestService_ArtifactsFromExecution_NoEvents(t *testing.T) {
	f := setupFixture(t)
	svc := New(f.store, nil)

	artifacts, err := svc.ArtifactsFromExecution(context.Background(), f.rootID)
	if err != nil {
		t.Fatalf("ArtifactsFromExecution() error = %v", err)
	}
	if len(artifacts) != 0 {
		t.Errorf("root has no events, got %d artifacts", len(artifacts))
	}
}

func TestService_ArtifactExecutionHistory(t *testing.T) {
	f := setupFixture(t)
	svc := New(f.store, nil)

	// The source is consumed by both steps, each exactly once in the result.
	executions, err := svc.ArtifactExecutionHistory(context.Background(), f.sourceID)
	if err != nil {
		t.Fatalf("ArtifactExecutionHistory() error = %v", err)
	}
	if len(executions) != 2 {
		t.Fatalf("expected 2 executions, got %d", len(executions))
	}
	if executions[0].ID != f.stepIDs[0] || executions[1].ID != f.stepIDs[1] {
		t.Errorf("history = %d, %d; want the two steps", executions[0].ID, executions[1].ID)
	}
}

func TestService_ArtifactLineage(t *testing.T) {
	f := setupFixture(t)
	svc := New(f.store, nil)

	g, err := svc.ArtifactLineage(context.Background(), f.midID)
	if err != nil {
		t.Fatalf("ArtifactLineage() error = %v", err)
	}

	if len(g.Artifacts) != 3 {
		t.Errorf("expected 3 artifacts, got %d", len(g.Artifacts))
	}
	if len(g.Executions) != 2 {
		t.Errorf("expected 2 executions, got %d", len(g.Executions))
	}
	if len(g.Events) != 5 {
		t.Errorf("expected 5 events, got %d", len(g.Events))
	}
}

func TestService_ByID(t *testing.T) {
	f := setupFixture(t)
	svc := New(f.store, nil)
	ctx := context.Background()

	a, err := svc.ArtifactByID(ctx, f.modelID)
	if err != nil {
		t.Fatalf("ArtifactByID() error = %v", err)
	}
	if a.URI != "mem://model" {
		t.Errorf("artifact URI = %q", a.URI)
	}

	if _, err := svc.ArtifactByID(ctx, 9999); !metadata.IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}

	e, err := svc.ExecutionByID(ctx, f.rootID)
	if err != nil {
		t.Fatalf("ExecutionByID() error = %v", err)
	}
	if e.Name != "run/abc" {
		t.Errorf("execution name = %q", e.Name)
	}

	if _, err := svc.ExecutionByID(ctx, 9999); !metadata.IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestService_ArtifactByURI(t *testing.T) {
	f := setupFixture(t)
	svc := New(f.store, nil)
	ctx := context.Background()

	a, err := svc.ArtifactByURI(ctx, "mem://model")
	if err != nil {
		t.Fatalf("ArtifactByURI() error = %v", err)
	}
	if a.ID != f.modelID {
		t.Errorf("artifact id = %d, want %d", a.ID, f.modelID)
	}

	if _, err := svc.ArtifactByURI(ctx, "mem://missing"); !metadata.IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}

	putArtifact(t, f.store, "system.Model", "mem://model", nil)
	if _, err := svc.ArtifactByURI(ctx, "mem://model"); !metadata.IsAmbiguous(err) {
		t.Errorf("expected AmbiguousError, got %v", err)
	}
}

func TestService_ByType(t *testing.T) {
	f := setupFixture(t)
	svc := New(f.store, nil)
	ctx := context.Background()

	datasets, err := svc.ArtifactsByType(ctx, "system.Dataset")
	if err != nil {
		t.Fatalf("ArtifactsByType() error = %v", err)
	}
	if len(datasets) != 2 {
		t.Errorf("expected 2 datasets, got %d", len(datasets))
	}

	steps, err := svc.ExecutionsByType(ctx, "system.ContainerExecution")
	if err != nil {
		t.Fatalf("ExecutionsByType() error = %v", err)
	}
	if len(steps) != 2 {
		t.Errorf("expected 2 steps, got %d", len(steps))
	}

	none, err := svc.ArtifactsByType(ctx, "system.Metrics")
	if err != nil {
		t.Fatalf("ArtifactsByType() error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no artifacts, got %d", len(none))
	}
}

func TestService_ByCustomProperty(t *testing.T) {
	f := setupFixture(t)
	svc := New(f.store, nil)
	ctx := context.Background()

	byOwner, err := svc.ArtifactsByCustomProperty(ctx, "owner", metadata.StringValue("alice"))
	if err != nil {
		t.Fatalf("ArtifactsByCustomProperty() error = %v", err)
	}
	if len(byOwner) != 1 || byOwner[0].ID != f.sourceID {
		t.Errorf("by owner = %+v, want the source artifact", byOwner)
	}

	byEpoch, err := svc.ArtifactsByCustomProperty(ctx, "epoch", metadata.IntValue(5))
	if err != nil {
		t.Fatalf("ArtifactsByCustomProperty() error = %v", err)
	}
	if len(byEpoch) != 1 || byEpoch[0].ID != f.modelID {
		t.Errorf("by epoch = %+v, want the model artifact", byEpoch)
	}

	// "5" as a string must not match the int-typed property.
	asString, err := svc.ArtifactsByCustomProperty(ctx, "epoch", metadata.StringValue("5"))
	if err != nil {
		t.Fatalf("ArtifactsByCustomProperty() error = %v", err)
	}
	if len(asString) != 0 {
		t.Errorf("string filter matched int property: %+v", asString)
	}

	byParent, err := svc.ExecutionsByCustomProperty(ctx, "parent_dag_id", metadata.IntValue(f.rootID))
	if err != nil {
		t.Fatalf("ExecutionsByCustomProperty() error = %v", err)
	}
	if len(byParent) != 2 {
		t.Errorf("expected 2 step executions, got %d", len(byParent))
	}

	if _, err := svc.ArtifactsByCustomProperty(ctx, "x", metadata.PropertyValue{}); err == nil {
		t.Error("expected error for unspecified property kind")
	}
}
