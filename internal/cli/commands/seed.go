package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/paleoml/paleo/internal/cli/output"
	"github.com/paleoml/paleo/pkg/metadata"
)

// SeedOptions holds the flags of the seed command.
type SeedOptions struct {
	RunID string
	Steps int
}

// seedResult is the JSON shape of the seed command.
type seedResult struct {
	RunID      string `json:"run_id"`
	Executions int    `json:"executions"`
	Artifacts  int    `json:"artifacts"`
	Events     int    `json:"events"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	opts := &SeedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the store with a synthetic pipeline run",
		Long: `Populate the configured store with a synthetic pipeline run: a root
execution named run/<run-id>, a chain of step executions under it, and one
artifact flowing between each pair of steps. Useful for trying the query
commands against a local store.`,
		Example: `  # Seed a three-step run
  paleo seed

  # Seed a five-step run with a fixed id
  paleo seed --steps 5 --run-id demo`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeedCommand(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.RunID, "run-id", "", "Run id (default: a random UUID)")
	cmd.Flags().IntVar(&opts.Steps, "steps", 3, "Number of step executions")

	return cmd
}

func runSeedCommand(cmd *cobra.Command, opts *SeedOptions) error {
	if opts.Steps < 1 {
		return fmt.Errorf("--steps must be at least 1")
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	result, err := seedRun(cmd.Context(), cmdCtx.Store, runID, opts.Steps)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		enc := json.NewEncoder(r.Writer())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	r.Header(1, "Seeded run")
	r.Println()
	r.Println(output.FormatKeyValue("Run ID", result.RunID))
	r.Println(output.FormatKeyValue("Executions", strconv.Itoa(result.Executions)))
	r.Println(output.FormatKeyValue("Artifacts", strconv.Itoa(result.Artifacts)))
	r.Println(output.FormatKeyValue("Events", strconv.Itoa(result.Events)))
	return nil
}

// seedRun writes one synthetic run. Step i consumes the artifact step i-1
// produced; the first step consumes a seeded source dataset.
func seedRun(ctx context.Context, st metadata.Store, runID string, steps int) (*seedResult, error) {
	result := &seedResult{RunID: runID}

	root := &metadata.Execution{
		Type: "system.DAGExecution",
		Name: "run/" + runID,
	}
	rootID, err := st.PutExecution(ctx, root)
	if err != nil {
		return nil, err
	}
	result.Executions++

	runCtx := &metadata.Context{
		Type: "system.PipelineRun",
		Name: runID,
	}
	ctxID, err := st.PutContext(ctx, runCtx)
	if err != nil {
		return nil, err
	}
	if err := st.PutAssociation(ctx, &metadata.Association{ContextID: ctxID, ExecutionID: rootID}); err != nil {
		return nil, err
	}

	source := &metadata.Artifact{
		Type: "system.Dataset",
		URI:  fmt.Sprintf("memory://%s/source", runID),
		CustomProperties: map[string]metadata.PropertyValue{
			"producer": metadata.StringValue("seed"),
		},
	}
	prevArtifactID, err := st.PutArtifact(ctx, source)
	if err != nil {
		return nil, err
	}
	result.Artifacts++
	if err := st.PutAttribution(ctx, &metadata.Attribution{ContextID: ctxID, ArtifactID: prevArtifactID}); err != nil {
		return nil, err
	}

	for i := 1; i <= steps; i++ {
		step := &metadata.Execution{
			Type: "system.ContainerExecution",
			Name: fmt.Sprintf("step-%d", i),
			CustomProperties: map[string]metadata.PropertyValue{
				"parent_dag_id": metadata.IntValue(rootID),
				"task_name":     metadata.StringValue(fmt.Sprintf("step-%d", i)),
			},
		}
		stepID, err := st.PutExecution(ctx, step)
		if err != nil {
			return nil, err
		}
		result.Executions++
		if err := st.PutAssociation(ctx, &metadata.Association{ContextID: ctxID, ExecutionID: stepID}); err != nil {
			return nil, err
		}

		if err := st.PutEvent(ctx, &metadata.Event{
			ArtifactID:  prevArtifactID,
			ExecutionID: stepID,
			Type:        metadata.EventInput,
		}); err != nil {
			return nil, err
		}
		result.Events++

		artifactType := "system.Dataset"
		if i == steps {
			artifactType = "system.Model"
		}
		out := &metadata.Artifact{
			Type: artifactType,
			URI:  fmt.Sprintf("memory://%s/step-%d/output", runID, i),
			CustomProperties: map[string]metadata.PropertyValue{
				"step": metadata.IntValue(int64(i)),
			},
		}
		outID, err := st.PutArtifact(ctx, out)
		if err != nil {
			return nil, err
		}
		result.Artifacts++
		if err := st.PutAttribution(ctx, &metadata.Attribution{ContextID: ctxID, ArtifactID: outID}); err != nil {
			return nil, err
		}

		if err := st.PutEvent(ctx, &metadata.Event{
			ArtifactID:  outID,
			ExecutionID: stepID,
			Type:        metadata.EventOutput,
		}); err != nil {
			return nil, err
		}
		result.Events++

		prevArtifactID = outID
	}

	return result, nil
}
