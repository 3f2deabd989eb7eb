// Package render turns a lineage subgraph into a Graphviz diagram. The DOT
// serialization is a single-pass, stateless transform; layout and rasterizing
// belong to the external dot binary.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/paleoml/paleo/pkg/metadata"
)

// Options controls the optional context edges. Both default off.
type Options struct {
	DisplayAttribution bool
	DisplayAssociation bool
}

// DOT writes the lineage graph as a Graphviz digraph: one box node per
// artifact, one ellipse per execution and per context, one labeled edge per
// event, and optional attribution/association edges.
func DOT(w io.Writer, g *metadata.LineageGraph, opts Options) error {
	var b strings.Builder
	b.WriteString("digraph lineage {\n")

	for _, a := range g.Artifacts {
		fmt.Fprintf(&b, "\t%q [label=%q, shape=box, style=filled, color=lightblue];\n",
			artifactNode(a.ID), "Artifact: "+a.URI)
	}
	for _, e := range g.Executions {
		fmt.Fprintf(&b, "\t%q [label=%q, shape=ellipse, style=filled, color=lightgreen];\n",
			executionNode(e.ID), fmt.Sprintf("%s: %d", e.Type, e.ID))
	}

	for _, ev := range g.Events {
		switch ev.Type {
		case metadata.EventInput:
			fmt.Fprintf(&b, "\t%q -> %q [label=\"input\"];\n",
				artifactNode(ev.ArtifactID), executionNode(ev.ExecutionID))
		case metadata.EventOutput:
			fmt.Fprintf(&b, "\t%q -> %q [label=\"output\"];\n",
				executionNode(ev.ExecutionID), artifactNode(ev.ArtifactID))
		}
	}

	for _, c := range g.Contexts {
		fmt.Fprintf(&b, "\t%q [label=%q, shape=ellipse, style=filled, color=lightyellow];\n",
			contextNode(c.ID), "Context: "+c.Name)
	}

	if opts.DisplayAttribution {
		for _, at := range g.Attributions {
			fmt.Fprintf(&b, "\t%q -> %q [label=\"attribution\"];\n",
				artifactNode(at.ArtifactID), contextNode(at.ContextID))
		}
	}
	if opts.DisplayAssociation {
		for _, as := range g.Associations {
			fmt.Fprintf(&b, "\t%q -> %q [label=\"association\"];\n",
				executionNode(as.ExecutionID), contextNode(as.ContextID))
		}
	}

	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func artifactNode(id int64) string  { return fmt.Sprintf("Artifact-%d", id) }
func executionNode(id int64) string { return fmt.Sprintf("Execution-%d", id) }
func contextNode(id int64) string   { return fmt.Sprintf("Context-%d", id) }
