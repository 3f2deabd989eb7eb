package commands

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/paleoml/paleo/internal/cli/output"
	"github.com/paleoml/paleo/internal/lineage"
	"github.com/paleoml/paleo/internal/render"
	"github.com/paleoml/paleo/pkg/metadata"
)

// LineageOptions holds the flags of the lineage command.
type LineageOptions struct {
	Upstream    bool
	Downstream  bool
	Depth       int
	Render      bool
	Format      string
	Dir         string
	Attribution bool
	Association bool
}

// NewLineageCommand creates the lineage command.
func NewLineageCommand() *cobra.Command {
	opts := &LineageOptions{}

	cmd := &cobra.Command{
		Use:   "lineage <artifact-id>",
		Short: "Show or render the lineage subgraph of an artifact",
		Long: `Show everything reachable from an artifact through input/output events:
the artifacts, executions, events, and the contexts they belong to.

Without flags the whole subgraph is shown. --upstream limits the listing to
the artifact's ancestry, --downstream to its descendants; --depth caps how
many hops the limit follows (0 means unlimited).

With --render the subgraph is laid out with Graphviz instead: the DOT source
is written to lineage_graph and the diagram next to it. Attribution and
association edges are left out of the diagram unless requested.`,
		Example: `  # Show the lineage of artifact 7
  paleo lineage 7

  # Only what artifact 7 was derived from
  paleo lineage 7 --upstream

  # Render a PNG including context edges
  paleo lineage 7 --render --format png --attribution --association`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			artifactID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid artifact id %q: %w", args[0], err)
			}
			return runLineage(cmd, artifactID, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Upstream, "upstream", false, "Limit to the artifact's ancestry")
	cmd.Flags().BoolVar(&opts.Downstream, "downstream", false, "Limit to the artifact's descendants")
	cmd.Flags().IntVar(&opts.Depth, "depth", 0, "Hop limit for --upstream/--downstream (0 = unlimited)")
	cmd.Flags().BoolVar(&opts.Render, "render", false, "Render the subgraph with Graphviz")
	cmd.Flags().StringVar(&opts.Format, "format", "", "Diagram format: svg, png, pdf")
	cmd.Flags().StringVar(&opts.Dir, "dir", "", "Directory for the rendered files")
	cmd.Flags().BoolVar(&opts.Attribution, "attribution", false, "Include artifact-context edges")
	cmd.Flags().BoolVar(&opts.Association, "association", false, "Include execution-context edges")

	return cmd
}

func runLineage(cmd *cobra.Command, artifactID int64, opts *LineageOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	g, err := cmdCtx.Query.ArtifactLineage(cmd.Context(), artifactID)
	if err != nil {
		return err
	}

	if opts.Render {
		return runLineageRender(cmd, cmdCtx, g, opts)
	}

	keep := lineageKeepSet(g, artifactID, opts)
	out := buildLineageOutput(g, keep, opts)

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		enc := json.NewEncoder(r.Writer())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	// In text mode node ids get the entity style and edge labels are muted;
	// both styles render as plain text everywhere else.
	id := func(s string) string { return s }
	label := func(s string) string { return s }
	if r.EffectiveMode() == output.ModeText {
		st := r.Styles()
		id = func(s string) string { return st.Entity.Render(s) }
		label = func(s string) string { return st.Muted.Render(s) }
	}

	r.Header(1, fmt.Sprintf("Lineage of artifact %d", artifactID))
	r.Println()
	for _, n := range out.Nodes {
		switch n.Kind {
		case string(lineage.KindArtifact):
			r.Printf("  %s  %s: %s\n", id(n.ID), n.Type, n.URI)
		case string(lineage.KindExecution):
			r.Printf("  %s  %s\n", id(n.ID), n.Type)
		default:
			r.Printf("  %s  %s: %s\n", id(n.ID), n.Type, n.Name)
		}
	}
	r.Println()
	r.Header(2, "Edges")
	for _, e := range out.Edges {
		r.Printf("  %s -> %s (%s)\n", id(e.From), id(e.To), label(e.Label))
	}
	r.Println()
	r.Println(output.FormatKeyValue("Artifacts", strconv.Itoa(out.Stats.Artifacts)))
	r.Println(output.FormatKeyValue("Executions", strconv.Itoa(out.Stats.Executions)))
	r.Println(output.FormatKeyValue("Contexts", strconv.Itoa(out.Stats.Contexts)))
	r.Println(output.FormatKeyValue("Edges", strconv.Itoa(out.Stats.Edges)))
	return nil
}

func runLineageRender(cmd *cobra.Command, cmdCtx *CommandContext, g *metadata.LineageGraph, opts *LineageOptions) error {
	renderCfg := cmdCtx.Cfg.Render

	format := opts.Format
	if format == "" {
		format = renderCfg.Format
	}
	dir := opts.Dir
	if dir == "" {
		dir = renderCfg.Dir
	}

	path, err := render.Render(cmd.Context(), g, render.RenderOptions{
		Options: render.Options{
			DisplayAttribution: opts.Attribution || renderCfg.Attribution,
			DisplayAssociation: opts.Association || renderCfg.Association,
		},
		Format: format,
		Dir:    dir,
	})
	if err != nil {
		return err
	}

	cmdCtx.Renderer.Printf("Rendered lineage to %s\n", path)
	return nil
}

// lineageKeepSet returns the node ids to display, or nil when the whole
// subgraph is shown.
func lineageKeepSet(g *metadata.LineageGraph, artifactID int64, opts *LineageOptions) map[string]bool {
	if !opts.Upstream && !opts.Downstream {
		return nil
	}

	graph := lineage.FromSubgraph(g)
	start := lineage.ArtifactNodeID(artifactID)
	keep := map[string]bool{start: true}
	if opts.Upstream {
		for _, id := range graph.Upstream(start, opts.Depth) {
			keep[id] = true
		}
	}
	if opts.Downstream {
		for _, id := range graph.Downstream(start, opts.Depth) {
			keep[id] = true
		}
	}
	return keep
}

func buildLineageOutput(g *metadata.LineageGraph, keep map[string]bool, opts *LineageOptions) output.LineageOutput {
	kept := func(id string) bool { return keep == nil || keep[id] }

	out := output.LineageOutput{
		Nodes: []output.LineageNode{},
		Edges: []output.LineageEdge{},
	}

	for _, a := range g.Artifacts {
		if !kept(lineage.ArtifactNodeID(a.ID)) {
			continue
		}
		out.Nodes = append(out.Nodes, output.LineageNode{
			ID:   lineage.ArtifactNodeID(a.ID),
			Kind: string(lineage.KindArtifact),
			Type: a.Type,
			URI:  a.URI,
			Name: a.Name,
		})
		out.Stats.Artifacts++
	}
	for _, e := range g.Executions {
		if !kept(lineage.ExecutionNodeID(e.ID)) {
			continue
		}
		out.Nodes = append(out.Nodes, output.LineageNode{
			ID:   lineage.ExecutionNodeID(e.ID),
			Kind: string(lineage.KindExecution),
			Type: e.Type,
			Name: e.Name,
		})
		out.Stats.Executions++
	}
	for _, c := range g.Contexts {
		if !kept(lineage.ContextNodeID(c.ID)) {
			continue
		}
		out.Nodes = append(out.Nodes, output.LineageNode{
			ID:   lineage.ContextNodeID(c.ID),
			Kind: string(lineage.KindContext),
			Type: c.Type,
			Name: c.Name,
		})
		out.Stats.Contexts++
	}

	for _, ev := range g.Events {
		from := lineage.ArtifactNodeID(ev.ArtifactID)
		to := lineage.ExecutionNodeID(ev.ExecutionID)
		label := "input"
		if ev.Type == metadata.EventOutput {
			from, to = to, from
			label = "output"
		}
		if !kept(from) || !kept(to) {
			continue
		}
		out.Edges = append(out.Edges, output.LineageEdge{From: from, To: to, Label: label})
	}
	if opts.Attribution {
		for _, at := range g.Attributions {
			from := lineage.ArtifactNodeID(at.ArtifactID)
			to := lineage.ContextNodeID(at.ContextID)
			if !kept(from) || !kept(to) {
				continue
			}
			out.Edges = append(out.Edges, output.LineageEdge{From: from, To: to, Label: "attribution"})
		}
	}
	if opts.Association {
		for _, as := range g.Associations {
			from := lineage.ExecutionNodeID(as.ExecutionID)
			to := lineage.ContextNodeID(as.ContextID)
			if !kept(from) || !kept(to) {
				continue
			}
			out.Edges = append(out.Edges, output.LineageEdge{From: from, To: to, Label: "association"})
		}
	}

	out.Stats.Edges = len(out.Edges)
	return out
}
