package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/paleoml/paleo/pkg/metadata"
)

// OutputBase is the fixed base name of the rendered files: the DOT source is
// written to "lineage_graph" and the laid-out diagram next to it.
const OutputBase = "lineage_graph"

// RenderOptions configures one Render call.
type RenderOptions struct {
	Options

	// Format is the layout output format passed to the backend (svg, png, pdf).
	// Defaults to svg.
	Format string

	// Dir is the directory the files are written to. Empty means the current
	// working directory.
	Dir string
}

// Render writes the DOT source and hands it to the external Graphviz backend
// for layout. A missing dot binary or an I/O failure surfaces as a hard
// error, never a silent skip; there are no retries. Returns the path of the
// rendered file.
func Render(ctx context.Context, g *metadata.LineageGraph, opts RenderOptions) (string, error) {
	format := opts.Format
	if format == "" {
		format = "svg"
	}

	dotPath := filepath.Join(opts.Dir, OutputBase)
	f, err := os.Create(dotPath)
	if err != nil {
		return "", fmt.Errorf("failed to write dot source: %w", err)
	}
	if err := DOT(f, g, opts.Options); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write dot source: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write dot source: %w", err)
	}

	outPath := dotPath + "." + format
	cmd := exec.CommandContext(ctx, "dot", "-T"+format, dotPath, "-o", outPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return "", fmt.Errorf("graphviz backend failed: %w: %s", err, stderr.String())
		}
		return "", fmt.Errorf("graphviz backend failed: %w", err)
	}

	return outPath, nil
}
