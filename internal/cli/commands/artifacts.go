package commands

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/paleoml/paleo/internal/cli/output"
	"github.com/paleoml/paleo/pkg/metadata"
)

// ArtifactsOptions holds the selector flags of the artifacts command.
type ArtifactsOptions struct {
	RunID       string
	ExecutionID int64
	TypeName    string
	Property    string
}

// NewArtifactsCommand creates the artifacts command.
func NewArtifactsCommand() *cobra.Command {
	opts := &ArtifactsOptions{}

	cmd := &cobra.Command{
		Use:   "artifacts",
		Short: "List artifacts by run, execution, type, or custom property",
		Long: `List artifacts selected by exactly one of --run, --execution, --type, or
--property.

With --run the listing has one entry per (execution, artifact) event pair:
an artifact consumed by several executions of the run appears once per event.

--property takes name=value with an optional :kind suffix (string, int,
double, bool); the kind picks the typed-value field of the filter query.`,
		Example: `  # Artifacts touched by a run
  paleo artifacts --run 1a2b3c4d

  # Artifacts of one execution
  paleo artifacts --execution 42

  # Artifacts by declared type
  paleo artifacts --type Model

  # Artifacts with a custom property
  paleo artifacts --property owner=alice
  paleo artifacts --property epoch=5:int`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runArtifacts(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.RunID, "run", "", "Pipeline run id")
	cmd.Flags().Int64Var(&opts.ExecutionID, "execution", 0, "Execution id")
	cmd.Flags().StringVar(&opts.TypeName, "type", "", "Artifact type name")
	cmd.Flags().StringVar(&opts.Property, "property", "", "Custom property selector name=value[:kind]")

	return cmd
}

func runArtifacts(cmd *cobra.Command, opts *ArtifactsOptions) error {
	selectors := 0
	for _, set := range []bool{opts.RunID != "", opts.ExecutionID != 0, opts.TypeName != "", opts.Property != ""} {
		if set {
			selectors++
		}
	}
	if selectors != 1 {
		return fmt.Errorf("exactly one of --run, --execution, --type, --property is required")
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	var artifacts []metadata.Artifact

	switch {
	case opts.RunID != "":
		artifacts, err = cmdCtx.Query.ArtifactsFromRun(ctx, opts.RunID)
	case opts.ExecutionID != 0:
		artifacts, err = cmdCtx.Query.ArtifactsFromExecution(ctx, opts.ExecutionID)
	case opts.TypeName != "":
		artifacts, err = cmdCtx.Query.ArtifactsByType(ctx, opts.TypeName)
	default:
		name, value, perr := parsePropertySelector(opts.Property)
		if perr != nil {
			return perr
		}
		artifacts, err = cmdCtx.Query.ArtifactsByCustomProperty(ctx, name, value)
	}
	if err != nil {
		return err
	}

	return renderArtifacts(cmdCtx.Renderer, artifacts)
}

// parsePropertySelector splits name=value[:kind] into a property name and a
// typed value.
func parsePropertySelector(s string) (string, metadata.PropertyValue, error) {
	name, rest, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return "", metadata.PropertyValue{}, fmt.Errorf("invalid property selector %q: want name=value[:kind]", s)
	}
	// Only a recognized kind name after the last colon is a kind suffix;
	// anything else (s3://..., timestamps) stays part of the value.
	raw, kind, found := cutLast(rest, ":")
	if !found || !knownPropertyKind(kind) {
		raw, kind = rest, ""
	}
	value, err := metadata.ParsePropertyValue(raw, kind)
	if err != nil {
		return "", metadata.PropertyValue{}, err
	}
	return name, value, nil
}

func knownPropertyKind(kind string) bool {
	switch strings.ToLower(kind) {
	case "string", "int", "double", "float", "bool":
		return true
	}
	return false
}

// cutLast is strings.Cut on the last occurrence of sep.
func cutLast(s, sep string) (before, after string, found bool) {
	idx := strings.LastIndex(s, sep)
	if idx < 0 {
		return s, "", false
	}
	return s[:idx], s[idx+len(sep):], true
}

func renderArtifacts(r *output.Renderer, artifacts []metadata.Artifact) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		out := make([]output.ArtifactOutput, len(artifacts))
		for i, a := range artifacts {
			out[i] = output.FromArtifact(a)
		}
		enc := json.NewEncoder(r.Writer())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	default:
		r.Header(1, fmt.Sprintf("Artifacts (%d)", len(artifacts)))
		r.Println()
		headers := []string{"ID", "Type", "URI"}
		rows := make([][]string, len(artifacts))
		for i, a := range artifacts {
			rows[i] = []string{strconv.FormatInt(a.ID, 10), a.Type, a.URI}
		}
		if r.EffectiveMode() == output.ModeMarkdown {
			output.MarkdownTable(r.Writer(), headers, rows)
		} else {
			output.Table(r.Writer(), headers, rows)
		}
		return nil
	}
}
