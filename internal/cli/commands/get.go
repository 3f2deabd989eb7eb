package commands

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/paleoml/paleo/internal/cli/output"
	"github.com/paleoml/paleo/pkg/metadata"
)

// NewGetCommand creates the get command with its artifact and execution
// subcommands.
func NewGetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Fetch a single artifact or execution",
	}
	cmd.AddCommand(newGetArtifactCommand())
	cmd.AddCommand(newGetExecutionCommand())
	return cmd
}

func newGetArtifactCommand() *cobra.Command {
	var uri string

	cmd := &cobra.Command{
		Use:   "artifact [id]",
		Short: "Fetch one artifact by id or by URI",
		Long: `Fetch a single artifact either by numeric id or, with --uri, by its URI.
A URI lookup fails when no artifact matches or when more than one does.`,
		Example: `  # By id
  paleo get artifact 7

  # By URI
  paleo get artifact --uri s3://bucket/models/v3`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (uri != "") {
				return fmt.Errorf("exactly one of an id argument or --uri is required")
			}

			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			var artifact metadata.Artifact
			if uri != "" {
				artifact, err = cmdCtx.Query.ArtifactByURI(cmd.Context(), uri)
			} else {
				var id int64
				id, err = strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid artifact id %q: %w", args[0], err)
				}
				artifact, err = cmdCtx.Query.ArtifactByID(cmd.Context(), id)
			}
			if err != nil {
				return err
			}

			return renderArtifactDetail(cmdCtx.Renderer, artifact)
		},
	}

	cmd.Flags().StringVar(&uri, "uri", "", "Artifact URI")
	return cmd
}

func newGetExecutionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execution <id>",
		Short: "Fetch one execution by id",
		Example: `  # By id
  paleo get execution 42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid execution id %q: %w", args[0], err)
			}

			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			execution, err := cmdCtx.Query.ExecutionByID(cmd.Context(), id)
			if err != nil {
				return err
			}

			return renderExecutionDetail(cmdCtx.Renderer, execution)
		},
	}
	return cmd
}

func renderArtifactDetail(r *output.Renderer, a metadata.Artifact) error {
	if r.EffectiveMode() == output.ModeJSON {
		enc := json.NewEncoder(r.Writer())
		enc.SetIndent("", "  ")
		return enc.Encode(output.FromArtifact(a))
	}

	r.Header(1, fmt.Sprintf("Artifact %d", a.ID))
	r.Println()
	r.Println(output.FormatKeyValue("Type", a.Type))
	r.Println(output.FormatKeyValue("URI", a.URI))
	if a.Name != "" {
		r.Println(output.FormatKeyValue("Name", a.Name))
	}
	r.Println(output.FormatKeyValue("Created", a.CreateTime.Format("2006-01-02 15:04:05")))
	renderProperties(r, a.CustomProperties)
	return nil
}

func renderExecutionDetail(r *output.Renderer, e metadata.Execution) error {
	if r.EffectiveMode() == output.ModeJSON {
		enc := json.NewEncoder(r.Writer())
		enc.SetIndent("", "  ")
		return enc.Encode(output.FromExecution(e))
	}

	r.Header(1, fmt.Sprintf("Execution %d", e.ID))
	r.Println()
	r.Println(output.FormatKeyValue("Type", e.Type))
	if e.Name != "" {
		r.Println(output.FormatKeyValue("Name", e.Name))
	}
	r.Println(output.FormatKeyValue("Created", e.CreateTime.Format("2006-01-02 15:04:05")))
	renderProperties(r, e.CustomProperties)
	return nil
}

func renderProperties(r *output.Renderer, props map[string]metadata.PropertyValue) {
	if len(props) == 0 {
		return
	}
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	r.Println()
	r.Header(2, "Custom properties")
	for _, name := range names {
		r.Println(output.FormatKeyValue(name, fmt.Sprintf("%v", props[name].Interface())))
	}
}
