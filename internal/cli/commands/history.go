package commands

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/paleoml/paleo/internal/cli/output"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <artifact-id>",
		Short: "List the executions that touched an artifact",
		Long: `List every execution that consumed or produced the artifact, in event
order. Each execution appears once even when it touched the artifact through
several events.`,
		Example: `  # Execution history of artifact 7
  paleo history 7`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			artifactID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid artifact id %q: %w", args[0], err)
			}
			return runHistory(cmd, artifactID)
		},
	}
	return cmd
}

func runHistory(cmd *cobra.Command, artifactID int64) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	executions, err := cmdCtx.Query.ArtifactExecutionHistory(cmd.Context(), artifactID)
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
		r.Header(1, fmt.Sprintf("Execution history for artifact %d (%d total)", artifactID, len(executions)))
		r.Println()
		renderExecutionTable(r, executions)
		return nil
	}
}
