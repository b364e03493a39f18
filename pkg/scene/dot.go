package scene

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
)

// ToDOT describes the graph below n in Graphviz DOT format. Hidden nodes are
// drawn dashed.
func ToDOT(n *Node) string {
	var buf bytes.Buffer
	buf.WriteString("digraph scene {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	buf.WriteString("\n")

	ids := make(map[*Node]string)
	var edges []string
	n.Traverse(func(c *Node) bool {
		id := fmt.Sprintf("n%d", len(ids))
		ids[c] = id
		fmt.Fprintf(&buf, "  %s [%s];\n", id, strings.Join(nodeAttrs(c), ", "))
		if p := c.Parent(); p != nil {
			if pid, ok := ids[p]; ok {
				edges = append(edges, fmt.Sprintf("  %s -> %s;\n", pid, id))
			}
		}
		return true
	})

	buf.WriteString("\n")
	for _, e := range edges {
		buf.WriteString(e)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n *Node) []string {
	attrs := []string{fmt.Sprintf("label=%q", nodeLabel(n))}
	switch n.Kind {
	case KindText:
		attrs = append(attrs, "fillcolor=lightyellow")
	case KindVolume:
		attrs = append(attrs, "fillcolor=lightblue")
	case KindLight:
		attrs = append(attrs, "shape=ellipse", "fillcolor=lightgrey")
	}
	if !n.Visible {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fontcolor=grey")
	}
	return attrs
}

func nodeLabel(n *Node) string {
	lines := []string{fmt.Sprintf("%s (%s)", n.Name, n.Kind)}
	p := n.Position
	if p.Len() > 0 {
		lines = append(lines, fmt.Sprintf("pos %.2f %.2f %.2f", p[0], p[1], p[2]))
	}
	switch {
	case n.Text != nil:
		lines = append(lines, fmt.Sprintf("%q size %.2f", n.Text.Content, n.Text.Size))
	case n.Volume != nil:
		lines = append(lines, fmt.Sprintf("scale %.2f %.2f %.2f", n.Scale[0], n.Scale[1], n.Scale[2]))
	case n.Light != nil:
		lines = append(lines, fmt.Sprintf("intensity %.2f", n.Light.Intensity))
	}
	if n.RenderOrder != 0 {
		lines = append(lines, fmt.Sprintf("order %d", n.RenderOrder))
	}
	return strings.Join(lines, "\n")
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
