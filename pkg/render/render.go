// Package render turns walked dependency graphs into Graphviz DOT text
// and rendered images.
package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/packraft/packraft/pkg/depwalk"
	"github.com/packraft/packraft/pkg/errors"
)

// Format selects the Render output encoding.
type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
)

// ToDOT converts a dependency graph to Graphviz DOT. Nodes are labeled
// `id@version`; nodes that were already installed render dashed and grey.
func ToDOT(g *depwalk.Graph) string {
	var buf bytes.Buffer
	buf.WriteString("digraph deps {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		attrs := fmt.Sprintf("label=%q", n.Key())
		if n.Installed {
			attrs += `, style="rounded,filled,dashed", fillcolor=lightgrey`
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Key(), attrs)
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// Render lays out the graph and encodes it in the requested format.
func Render(ctx context.Context, g *depwalk.Graph, format Format) ([]byte, error) {
	var enc graphviz.Format
	switch format {
	case SVG:
		enc = graphviz.SVG
	case PNG:
		enc = graphviz.PNG
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unsupported render format %q", format)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "initializing graphviz")
	}
	defer gv.Close()

	parsed, err := graphviz.ParseBytes([]byte(ToDOT(g)))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "parsing DOT")
	}
	defer parsed.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, parsed, enc, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "rendering graph")
	}
	return buf.Bytes(), nil
}
