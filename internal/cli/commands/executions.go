package commands

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/paleoml/paleo/internal/cli/output"
	"github.com/paleoml/paleo/pkg/metadata"
)

// NewExecutionsCommand creates the executions command.
func NewExecutionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "executions <run-id>",
		Short: "List the executions of a pipeline run",
		Long: `List the run's root execution and all step executions under it.

The root is the execution named run/<run-id>; steps are the executions whose
parent_dag_id custom property points at the root. The root is listed first.`,
		Example: `  # List executions for a run
  paleo executions 1a2b3c4d

  # As JSON
  paleo executions 1a2b3c4d --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecutions(cmd, args[0])
		},
	}
	return cmd
}

func runExecutions(cmd *cobra.Command, runID string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	executions, err := cmdCtx.Query.Executions(cmd.Context(), runID)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		out := make([]output.ExecutionOutput, len(executions))
		for i, e := range executions {
			out[i] = output.FromExecution(e)
		}
		enc := json.NewEncoder(r.Writer())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	default:
		r.Header(1, fmt.Sprintf("Executions for run %s (%d total)", runID, len(executions)))
		r.Println()
		renderExecutionTable(r, executions)
		return nil
	}
}

func renderExecutionTable(r *output.Renderer, executions []metadata.Execution) {
	headers := []string{"ID", "Type", "Name", "Created"}
	rows := make([][]string, len(executions))
	for i, e := range executions {
		rows[i] = []string{
			strconv.FormatInt(e.ID, 10),
			e.Type,
			e.Name,
			e.CreateTime.Format("2006-01-02 15:04:05"),
		}
	}
	if r.EffectiveMode() == output.ModeMarkdown {
		output.MarkdownTable(r.Writer(), headers, rows)
		return
	}
	output.Table(r.Writer(), headers, rows)
}
